package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repositories.UserRepository         = (*MockUserRepository)(nil)
	_ repositories.FollowRepository       = (*MockFollowRepository)(nil)
	_ repositories.NotificationRepository = (*MockNotificationRepository)(nil)
	_ repositories.PostRepository         = (*MockPostRepository)(nil)
	_ repositories.CommentRepository      = (*MockCommentRepository)(nil)
	_ repositories.LikeRepository         = (*MockLikeRepository)(nil)
	_ repositories.SavedPostRepository    = (*MockSavedPostRepository)(nil)
)

// MockUserRepository is an in-memory UserRepository
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[uint]*models.User
	nextID uint

	CreateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uint]*models.User), nextID: 1}
}

func (m *MockUserRepository) CreateUser(user *models.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetUserByID(id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetUserByEmail(email string) (*models.User, error) {
	return m.findOne(func(u *models.User) bool { return u.Email == email })
}

func (m *MockUserRepository) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	return m.findOne(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (m *MockUserRepository) findOne(match func(*models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *MockUserRepository) UpdateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) DeleteUser(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) SearchUsers(query string, limit int) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	var out []models.User
	for _, u := range m.sortedLocked() {
		if strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, *u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockUserRepository) AdjustFollowCounts(followerID, followingID uint, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[followerID]; ok {
		u.FollowingCount = max(u.FollowingCount+delta, 0)
	}
	if u, ok := m.users[followingID]; ok {
		u.FollowersCount = max(u.FollowersCount+delta, 0)
	}
	return nil
}

func (m *MockUserRepository) sortedLocked() []*models.User {
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MockFollowRepository is an in-memory FollowRepository
type MockFollowRepository struct {
	mu      sync.RWMutex
	follows []models.Follow
	users   *MockUserRepository
}

// NewMockFollowRepository resolves follower lists against users
func NewMockFollowRepository(users *MockUserRepository) *MockFollowRepository {
	return &MockFollowRepository{users: users}
}

func (m *MockFollowRepository) CreateFollow(follow *models.Follow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.follows {
		if f.FollowerID == follow.FollowerID && f.FollowingID == follow.FollowingID {
			return repositories.ErrDuplicate
		}
	}
	follow.ID = uint(len(m.follows) + 1)
	follow.CreatedAt = time.Now()
	m.follows = append(m.follows, *follow)
	return nil
}

func (m *MockFollowRepository) DeleteFollow(followerID, followingID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			m.follows = append(m.follows[:i], m.follows[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (m *MockFollowRepository) IsFollowing(followerID, followingID uint) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockFollowRepository) GetFollowers(userID uint) ([]models.User, error) {
	m.mu.RLock()
	var ids []uint
	for _, f := range m.follows {
		if f.FollowingID == userID {
			ids = append(ids, f.FollowerID)
		}
	}
	m.mu.RUnlock()
	return m.resolve(ids), nil
}

func (m *MockFollowRepository) GetFollowing(userID uint) ([]models.User, error) {
	ids, _ := m.GetFollowingIDs(userID)
	return m.resolve(ids), nil
}

func (m *MockFollowRepository) GetFollowingIDs(userID uint) ([]uint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []uint
	for _, f := range m.follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}

func (m *MockFollowRepository) resolve(ids []uint) []models.User {
	out := []models.User{}
	for _, id := range ids {
		if u, err := m.users.GetUserByID(id); err == nil {
			out = append(out, *u)
		}
	}
	return out
}

// MockNotificationRepository is an in-memory NotificationRepository
type MockNotificationRepository struct {
	mu            sync.RWMutex
	Notifications []models.Notification

	CreateError error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) CreateNotification(n *models.Notification) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = uint(len(m.Notifications) + 1)
	n.CreatedAt = time.Now()
	m.Notifications = append(m.Notifications, *n)
	return nil
}

func (m *MockNotificationRepository) GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var mine []models.Notification
	for i := len(m.Notifications) - 1; i >= 0; i-- {
		if m.Notifications[i].RecipientID == recipientID {
			mine = append(mine, m.Notifications[i])
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []models.Notification{}, total, nil
	}
	end := min(start+limit, len(mine))
	return mine[start:end], total, nil
}

func (m *MockNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, x := range m.Notifications {
		if x.RecipientID == recipientID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *MockNotificationRepository) MarkAsRead(notificationID, recipientID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Notifications {
		if m.Notifications[i].ID == notificationID && m.Notifications[i].RecipientID == recipientID {
			m.Notifications[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (m *MockNotificationRepository) MarkAllAsRead(recipientID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Notifications {
		if m.Notifications[i].RecipientID == recipientID {
			m.Notifications[i].IsRead = true
		}
	}
	return nil
}

// MockPostRepository is an in-memory PostRepository
type MockPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*models.Post
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{posts: make(map[string]*models.Post)}
}

func (m *MockPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	m.posts[post.ID.Hex()] = &cp
	return nil
}

func (m *MockPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPostRepository) GetPostsByUserIDs(ctx context.Context, userIDs []string, skip, limit int64) ([]models.Post, int64, error) {
	want := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	all := m.sorted(func(p *models.Post) bool { return want[p.UserID] })
	return page(all, skip, limit), int64(len(all)), nil
}

func (m *MockPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return page(m.sorted(func(*models.Post) bool { return true }), skip, limit), nil
}

func (m *MockPostRepository) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Title, p.Content, p.ImageURLs, p.Tags = post.Title, post.Content, post.ImageURLs, post.Tags
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockPostRepository) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *MockPostRepository) AddCommentsCount(ctx context.Context, postID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[postID]; ok {
		p.CommentsCount += delta
	}
	return nil
}

func (m *MockPostRepository) AddLikesCount(ctx context.Context, postID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[postID]; ok {
		p.LikesCount += delta
	}
	return nil
}

// sorted returns matching posts newest first
func (m *MockPostRepository) sorted(match func(*models.Post) bool) []models.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Post{}
	for _, p := range m.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func page(posts []models.Post, skip, limit int64) []models.Post {
	if skip >= int64(len(posts)) {
		return []models.Post{}
	}
	end := min(skip+limit, int64(len(posts)))
	return posts[skip:end]
}

// MockCommentRepository is an in-memory CommentRepository. The Func fields
// override single calls.
type MockCommentRepository struct {
	mu       sync.RWMutex
	comments map[string]*models.Comment
	order    []string

	CreateCommentFunc func(ctx context.Context, comment *models.Comment) error
	GetByPostIDFunc   func(ctx context.Context, postID string) ([]models.Comment, error)
	DeleteTreeFunc    func(ctx context.Context, id string) (int64, error)
	GetByPostIDCalls  int
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{comments: make(map[string]*models.Comment)}
}

func (m *MockCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if m.CreateCommentFunc != nil {
		return m.CreateCommentFunc(ctx, comment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now().UTC()
	comment.UpdatedAt = comment.CreatedAt
	if comment.LikedBy == nil {
		comment.LikedBy = []string{}
	}
	m.comments[comment.ID.Hex()] = cloneComment(comment)
	m.order = append(m.order, comment.ID.Hex())
	return nil
}

func (m *MockCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneComment(c), nil
}

func (m *MockCommentRepository) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	m.mu.Lock()
	m.GetByPostIDCalls++
	m.mu.Unlock()
	if m.GetByPostIDFunc != nil {
		return m.GetByPostIDFunc(ctx, postID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Comment{}
	for _, id := range m.order {
		if c, ok := m.comments[id]; ok && c.PostID == postID {
			out = append(out, *cloneComment(c))
		}
	}
	return out, nil
}

func (m *MockCommentRepository) UpdateContent(ctx context.Context, id, content string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = time.Now().UTC()
	return cloneComment(c), nil
}

func (m *MockCommentRepository) DeleteCommentTree(ctx context.Context, id string) (int64, error) {
	if m.DeleteTreeFunc != nil {
		return m.DeleteTreeFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return 0, repositories.ErrNotFound
	}
	doomed := map[string]bool{id: true}
	for grew := true; grew; {
		grew = false
		for cid, c := range m.comments {
			if !doomed[cid] && doomed[c.ParentID] {
				doomed[cid] = true
				grew = true
			}
		}
	}
	for cid := range doomed {
		delete(m.comments, cid)
	}
	return int64(len(doomed)), nil
}

func (m *MockCommentRepository) DeleteCommentsByPostID(ctx context.Context, postID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.comments {
		if c.PostID == postID {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

func (m *MockCommentRepository) AddLike(ctx context.Context, id, userID string) (*models.Comment, error) {
	return m.setLike(id, userID, true)
}

func (m *MockCommentRepository) RemoveLike(ctx context.Context, id, userID string) (*models.Comment, error) {
	return m.setLike(id, userID, false)
}

func (m *MockCommentRepository) setLike(id, userID string, liked bool) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	kept := make([]string, 0, len(c.LikedBy)+1)
	for _, u := range c.LikedBy {
		if u != userID {
			kept = append(kept, u)
		}
	}
	if liked {
		kept = append(kept, userID)
	}
	c.LikedBy = kept
	c.Likes = len(kept)
	return cloneComment(c), nil
}

func cloneComment(c *models.Comment) *models.Comment {
	cp := *c
	cp.LikedBy = append([]string{}, c.LikedBy...)
	return &cp
}

// MockLikeRepository is an in-memory LikeRepository. Likes are kept in the
// order they were made.
type MockLikeRepository struct {
	mu     sync.RWMutex
	likes  []models.Like
	nextID uint
}

func NewMockLikeRepository() *MockLikeRepository {
	return &MockLikeRepository{nextID: 1}
}

func (m *MockLikeRepository) CreateLike(like *models.Like) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.likes {
		if l.PostID == like.PostID && l.UserID == like.UserID {
			return repositories.ErrDuplicate
		}
	}
	like.ID = m.nextID
	m.nextID++
	like.CreatedAt = time.Now()
	m.likes = append(m.likes, *like)
	return nil
}

func (m *MockLikeRepository) DeleteLike(postID string, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.likes {
		if l.PostID == postID && l.UserID == userID {
			m.likes = append(m.likes[:i], m.likes[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (m *MockLikeRepository) HasUserLikedPost(postID string, userID uint) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.likes {
		if l.PostID == postID && l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockLikeRepository) GetLikesCountByPostID(postID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, l := range m.likes {
		if l.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (m *MockLikeRepository) GetRecentLikerIDs(postID string, limit int) ([]uint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := []uint{}
	for i := len(m.likes) - 1; i >= 0 && len(ids) < limit; i-- {
		if m.likes[i].PostID == postID {
			ids = append(ids, m.likes[i].UserID)
		}
	}
	return ids, nil
}

func (m *MockLikeRepository) DeleteLikesByPostID(postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.likes[:0]
	for _, l := range m.likes {
		if l.PostID != postID {
			kept = append(kept, l)
		}
	}
	m.likes = kept
	return nil
}

// MockSavedPostRepository is an in-memory SavedPostRepository
type MockSavedPostRepository struct {
	mu     sync.RWMutex
	saved  []models.SavedPost
	nextID uint
}

func NewMockSavedPostRepository() *MockSavedPostRepository {
	return &MockSavedPostRepository{nextID: 1}
}

func (m *MockSavedPostRepository) SavePost(savedPost *models.SavedPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.saved {
		if s.UserID == savedPost.UserID && s.PostID == savedPost.PostID {
			return repositories.ErrDuplicate
		}
	}
	savedPost.ID = m.nextID
	m.nextID++
	savedPost.CreatedAt = time.Now()
	m.saved = append(m.saved, *savedPost)
	return nil
}

func (m *MockSavedPostRepository) UnsavePost(userID uint, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.saved {
		if s.UserID == userID && s.PostID == postID {
			m.saved = append(m.saved[:i], m.saved[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (m *MockSavedPostRepository) IsPostSaved(userID uint, postID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.saved {
		if s.UserID == userID && s.PostID == postID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockSavedPostRepository) GetSavedPostsByUser(userID uint, page, limit int) ([]models.SavedPost, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mine := []models.SavedPost{}
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].UserID == userID {
			mine = append(mine, m.saved[i])
		}
	}
	total := int64(len(mine))
	start := min((page-1)*limit, len(mine))
	end := min(start+limit, len(mine))
	return mine[start:end], total, nil
}

func (m *MockSavedPostRepository) DeleteSavesByPostID(postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.saved[:0]
	for _, s := range m.saved {
		if s.PostID != postID {
			kept = append(kept, s)
		}
	}
	m.saved = kept
	return nil
}
