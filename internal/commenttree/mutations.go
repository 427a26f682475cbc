package commenttree

import "context"

// AddComment creates a root comment on a post and prepends it to the cached
// forest. The forest is untouched when the service call fails or answers
// with a comment of another post.
func (s *Store) AddComment(ctx context.Context, postID, content string, author AuthorRef) (*Comment, error) {
	raw, err := s.service.CreateComment(ctx, postID, content, author)
	if err != nil {
		return nil, s.submissionFailed(OpCreate, postID, "", err)
	}
	c, err := normalizeResult(raw)
	if err != nil {
		return nil, err
	}
	if c.PostID != postID {
		s.log.Warn().Str("post_id", postID).Str("comment_id", c.ID).
			Str("comment_post_id", c.PostID).Msg("created comment belongs to another post")
		return nil, &MalformedCommentError{CommentID: c.ID, Field: "postId", Reason: "is " + c.PostID + ", want " + postID}
	}

	s.mu.Lock()
	e := s.entryLocked(postID)
	inserted := false
	if _, dup := e.index[c.ID]; !dup {
		e.roots = append([]*Comment{c}, e.roots...)
		e.track(c, "")
		inserted = true
	}
	out := c.Clone()
	s.mu.Unlock()

	if inserted {
		s.notify(postID)
	}
	return out, nil
}

// ReplyToComment creates a reply and appends it to its parent's replies in
// the forest of the reply's post. If the parent is not cached under that
// post the reply is still returned but no forest changes.
func (s *Store) ReplyToComment(ctx context.Context, parentID, content string, author AuthorRef) (*Comment, error) {
	raw, err := s.service.ReplyToComment(ctx, parentID, content, author)
	if err != nil {
		return nil, s.submissionFailed(OpReply, "", parentID, err)
	}
	c, err := normalizeResult(raw)
	if err != nil {
		return nil, err
	}
	if c.ParentID == "" {
		c.ParentID = parentID
	}

	postID := c.PostID
	s.mu.Lock()
	var parent *Comment
	e, ok := s.posts[postID]
	if ok {
		parent = e.index[parentID]
	}
	inserted := false
	if parent != nil {
		if _, dup := e.index[c.ID]; !dup {
			parent.Replies = append(parent.Replies, c)
			e.track(c, parent.ID)
			inserted = true
		}
	}
	out := c.Clone()
	s.mu.Unlock()

	if parent == nil {
		s.missed(ctx, OpReply, postID, parentID)
	} else if inserted {
		s.notify(postID)
	}
	return out, nil
}

// UpdateComment edits a comment's content on the server and then in the
// cache. Only Content changes locally.
func (s *Store) UpdateComment(ctx context.Context, commentID, content string) (*Comment, error) {
	raw, err := s.service.UpdateComment(ctx, commentID, content)
	if err != nil {
		return nil, s.submissionFailed(OpUpdate, "", commentID, err)
	}
	hint := ""
	if raw != nil {
		hint = raw.PostID
	}

	s.mu.Lock()
	postID, c := s.locateLocked(hint, commentID)
	var out *Comment
	if c != nil {
		c.Content = content
		out = c.Clone()
	}
	s.mu.Unlock()

	if c == nil {
		s.missed(ctx, OpUpdate, hint, commentID)
		// the edit went through; answer with the server's copy
		return normalizeResult(raw)
	}
	s.notify(postID)
	return out, nil
}

// RemoveComment deletes a comment and drops it, with all of its replies,
// from the post's cached forest.
func (s *Store) RemoveComment(ctx context.Context, commentID, postID string) error {
	if err := s.service.DeleteComment(ctx, commentID); err != nil {
		return s.submissionFailed(OpDelete, postID, commentID, err)
	}

	s.mu.Lock()
	removed := false
	if e, ok := s.posts[postID]; ok {
		removed = e.remove(commentID)
	}
	s.mu.Unlock()

	if !removed {
		s.missed(ctx, OpDelete, postID, commentID)
		return nil
	}
	s.notify(postID)
	return nil
}

// LikeComment records a like by userID. Likes takes the server's count,
// floored at zero, and userID is added to LikedBy once.
func (s *Store) LikeComment(ctx context.Context, commentID, postID, userID string) (int, error) {
	likes, err := s.service.LikeComment(ctx, commentID, userID)
	if err != nil {
		return 0, s.submissionFailed(OpLike, postID, commentID, err)
	}
	likes = max(likes, 0)
	s.applyLike(ctx, OpLike, commentID, postID, userID, likes)
	return likes, nil
}

// UnlikeComment removes userID's like; Likes takes the server's count.
func (s *Store) UnlikeComment(ctx context.Context, commentID, postID, userID string) (int, error) {
	likes, err := s.service.UnlikeComment(ctx, commentID, userID)
	if err != nil {
		return 0, s.submissionFailed(OpUnlike, postID, commentID, err)
	}
	likes = max(likes, 0)
	s.applyLike(ctx, OpUnlike, commentID, postID, userID, likes)
	return likes, nil
}

func (s *Store) applyLike(ctx context.Context, op Op, commentID, postID, userID string, likes int) {
	s.mu.Lock()
	var c *Comment
	if e, ok := s.posts[postID]; ok {
		c = e.index[commentID]
	}
	if c != nil {
		c.Likes = likes
		if op == OpLike {
			if !c.HasLiked(userID) {
				c.LikedBy = append(c.LikedBy, userID)
			}
		} else {
			kept := make([]string, 0, len(c.LikedBy))
			for _, id := range c.LikedBy {
				if id != userID {
					kept = append(kept, id)
				}
			}
			c.LikedBy = kept
		}
	}
	s.mu.Unlock()

	if c == nil {
		s.missed(ctx, op, postID, commentID)
		return
	}
	s.notify(postID)
}

// locateLocked finds a cached comment by id, trying the hinted post first.
// Caller holds mu.
func (s *Store) locateLocked(postHint, commentID string) (string, *Comment) {
	if e, ok := s.posts[postHint]; ok {
		if c, ok := e.index[commentID]; ok {
			return postHint, c
		}
	}
	for postID, e := range s.posts {
		if c, ok := e.index[commentID]; ok {
			return postID, c
		}
	}
	return "", nil
}

func (s *Store) submissionFailed(op Op, postID, commentID string, err error) error {
	serr := &SubmissionError{Op: op, PostID: postID, CommentID: commentID, Err: err}
	s.log.Error().Err(err).Str("op", string(op)).Str("post_id", postID).
		Str("comment_id", commentID).Msg("comment service call failed")
	return serr
}

// missed handles a server-side success whose target is not cached
func (s *Store) missed(ctx context.Context, op Op, postID, commentID string) {
	s.log.Warn().Err(ErrNotFoundLocal).Str("op", string(op)).Str("post_id", postID).
		Str("comment_id", commentID).Msg("mutation target not cached")
	if !s.refetchOnMiss || postID == "" {
		return
	}
	s.mu.RLock()
	_, cached := s.posts[postID]
	s.mu.RUnlock()
	if !cached {
		return
	}
	// the error is recorded on the entry and logged by the load itself
	_ = s.LoadCommentsForPost(ctx, postID)
}

func normalizeResult(raw *RawComment) (*Comment, error) {
	if raw == nil {
		return nil, &MalformedCommentError{Field: "payload", Reason: "is empty"}
	}
	return Normalize(*raw)
}
