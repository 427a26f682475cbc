package commenttree

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize validates a raw comment and shapes it into a Comment with no
// replies. Missing likes default to 0 and duplicate likers are dropped.
func Normalize(raw RawComment) (*Comment, error) {
	if err := validate.Struct(raw); err != nil {
		return nil, malformed(raw.ID, err)
	}

	c := &Comment{
		ID:        raw.ID,
		Content:   raw.Content,
		Author:    raw.Author,
		PostID:    raw.PostID,
		ParentID:  raw.ParentID,
		CreatedAt: raw.CreatedAt,
		LikedBy:   make([]string, 0, len(raw.LikedBy)),
		Replies:   []*Comment{},
	}
	if raw.Likes != nil {
		c.Likes = *raw.Likes
	}

	seen := make(map[string]struct{}, len(raw.LikedBy))
	for _, id := range raw.LikedBy {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		c.LikedBy = append(c.LikedBy, id)
	}
	return c, nil
}

func malformed(id string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &MalformedCommentError{CommentID: id, Field: "payload", Reason: err.Error()}
	}
	fe := verrs[0]
	reason := "is missing"
	switch fe.Tag() {
	case "max":
		reason = "exceeds " + fe.Param() + " characters"
	case "min":
		reason = "must be at least " + fe.Param()
	}
	return &MalformedCommentError{CommentID: id, Field: fe.Field(), Reason: reason}
}
