package commenttree

import (
	"errors"
	"fmt"
)

// ErrNotFoundLocal is reported when a mutation succeeded on the server but
// the target comment is not in the cached forest.
var ErrNotFoundLocal = errors.New("comment not found in cached forest")

// MalformedCommentError is returned when a raw comment lacks a required field
type MalformedCommentError struct {
	CommentID string
	Field     string
	Reason    string
}

func (e *MalformedCommentError) Error() string {
	if e.CommentID != "" {
		return fmt.Sprintf("malformed comment %s: %s %s", e.CommentID, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed comment: %s %s", e.Field, e.Reason)
}

// Op names a call made to the comment service
type Op string

const (
	OpFetch  Op = "fetch"
	OpCreate Op = "create"
	OpReply  Op = "reply"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpLike   Op = "like"
	OpUnlike Op = "unlike"
)

// SubmissionError wraps a failed call to the comment service
type SubmissionError struct {
	Op        Op
	PostID    string
	CommentID string
	Err       error
}

func (e *SubmissionError) Error() string {
	target := e.CommentID
	if target == "" {
		target = "post " + e.PostID
	}
	return fmt.Sprintf("%s comment (%s): %v", e.Op, target, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
