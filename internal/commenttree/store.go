package commenttree

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Options configures a Store
type Options struct {
	Logger zerolog.Logger
	// RefetchOnMiss reloads a post's comments when a successful server
	// mutation targets a comment that is not in the cached forest. When
	// false the miss is only logged.
	RefetchOnMiss bool
}

// PostState is a snapshot of one post's cache entry
type PostState struct {
	Forest    []*Comment `json:"comments"`
	IsLoading bool       `json:"isLoading"`
	Err       error      `json:"-"`
	Loaded    bool       `json:"loaded"`
}

type entry struct {
	roots   []*Comment
	index   map[string]*Comment
	parents map[string]string
	loading int // loads in flight
	loaded  bool
	err     error
}

func newEntry() *entry {
	return &entry{
		roots:   []*Comment{},
		index:   make(map[string]*Comment),
		parents: make(map[string]string),
	}
}

func (e *entry) reset(forest []*Comment) {
	e.roots = forest
	e.index = make(map[string]*Comment)
	e.parents = make(map[string]string)
	for _, c := range forest {
		e.track(c, "")
	}
}

func (e *entry) track(c *Comment, parentID string) {
	e.index[c.ID] = c
	e.parents[c.ID] = parentID
	for _, r := range c.Replies {
		e.track(r, c.ID)
	}
}

func (e *entry) forget(c *Comment) {
	delete(e.index, c.ID)
	delete(e.parents, c.ID)
	for _, r := range c.Replies {
		e.forget(r)
	}
}

// remove detaches the comment and drops its whole subtree from the index
func (e *entry) remove(id string) bool {
	c, ok := e.index[id]
	if !ok {
		return false
	}
	if parentID := e.parents[id]; parentID == "" {
		e.roots = without(e.roots, id)
	} else if p, ok := e.index[parentID]; ok {
		p.Replies = without(p.Replies, id)
	}
	e.forget(c)
	return true
}

func without(list []*Comment, id string) []*Comment {
	out := make([]*Comment, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// Store holds one comment forest per post and applies mutations to them
// after the comment service confirms them. It is safe for concurrent use;
// service calls run outside the lock, so the last response to arrive wins.
type Store struct {
	service       Service
	log           zerolog.Logger
	refetchOnMiss bool

	mu    sync.RWMutex
	posts map[string]*entry

	subMu   sync.Mutex
	subs    map[int]func(postID string)
	nextSub int
}

// NewStore creates a Store backed by the given comment service
func NewStore(service Service, opts Options) *Store {
	return &Store{
		service:       service,
		log:           opts.Logger.With().Str("component", "commenttree").Logger(),
		refetchOnMiss: opts.RefetchOnMiss,
		posts:         make(map[string]*entry),
		subs:          make(map[int]func(string)),
	}
}

// Subscribe registers fn to be called with the post id after every change to
// that post's entry. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(postID string)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(postID string) {
	s.subMu.Lock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(postID)
	}
}

// entryLocked returns the entry for postID, creating it. Caller holds mu.
func (s *Store) entryLocked(postID string) *entry {
	e, ok := s.posts[postID]
	if !ok {
		e = newEntry()
		s.posts[postID] = e
	}
	return e
}

// LoadCommentsForPost fetches the flat comment list of a post, builds its
// forest and caches it. On failure the error is recorded and any forest
// cached earlier is left in place.
func (s *Store) LoadCommentsForPost(ctx context.Context, postID string) error {
	s.mu.Lock()
	s.entryLocked(postID).loading++
	s.mu.Unlock()
	s.notify(postID)

	forest, err := s.fetchForest(ctx, postID)

	s.mu.Lock()
	e := s.entryLocked(postID)
	e.loading--
	if err != nil {
		e.err = err
	} else {
		e.reset(forest)
		e.err = nil
		e.loaded = true
	}
	s.mu.Unlock()
	s.notify(postID)

	if err != nil {
		s.log.Error().Err(err).Str("post_id", postID).Msg("failed to load comments")
	}
	return err
}

func (s *Store) fetchForest(ctx context.Context, postID string) ([]*Comment, error) {
	raws, err := s.service.FetchComments(ctx, postID)
	if err != nil {
		return nil, &SubmissionError{Op: OpFetch, PostID: postID, Err: err}
	}
	own := make([]RawComment, 0, len(raws))
	for _, raw := range raws {
		if raw.PostID != postID {
			s.log.Warn().Str("post_id", postID).Str("comment_id", raw.ID).
				Str("comment_post_id", raw.PostID).Msg("dropping comment of another post")
			continue
		}
		own = append(own, raw)
	}
	return BuildForest(own)
}

// IsLoaded reports whether a forest has been loaded for postID
func (s *Store) IsLoaded(postID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.posts[postID]
	return ok && e.loaded
}

// State returns a copy of the cache entry for postID
func (s *Store) State(postID string) PostState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.posts[postID]
	if !ok {
		return PostState{Forest: []*Comment{}}
	}
	return PostState{
		Forest:    CloneForest(e.roots),
		IsLoading: e.loading > 0,
		Err:       e.err,
		Loaded:    e.loaded,
	}
}

// Forest returns a copy of the cached forest for postID
func (s *Store) Forest(postID string) []*Comment {
	return s.State(postID).Forest
}

// Comment returns a copy of a cached comment of postID
func (s *Store) Comment(postID, commentID string) (*Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.posts[postID]
	if !ok {
		return nil, false
	}
	c, ok := e.index[commentID]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Comments returns a copy of every cached forest keyed by post id
func (s *Store) Comments() map[string][]*Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]*Comment, len(s.posts))
	for id, e := range s.posts {
		out[id] = CloneForest(e.roots)
	}
	return out
}

// LoadingComments reports which posts have a load in flight
func (s *Store) LoadingComments() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.posts))
	for id, e := range s.posts {
		out[id] = e.loading > 0
	}
	return out
}

// ErrorComments returns the last load error per post, for posts that have one
func (s *Store) ErrorComments() map[string]error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]error)
	for id, e := range s.posts {
		if e.err != nil {
			out[id] = e.err
		}
	}
	return out
}
