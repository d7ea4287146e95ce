package entities

import (
	"time"

	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// DiscussionComment is an immutable reply to a thread
type DiscussionComment struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDiscussionComment builds an unsaved comment. body must already be validated.
func NewDiscussionComment(threadID, userID, body string) (*DiscussionComment, error) {
	if userID == "" {
		return nil, pkgerrors.NewAuthRequiredError("comment")
	}
	if threadID == "" {
		return nil, pkgerrors.NewValidationError("threadID cannot be empty")
	}
	return &DiscussionComment{ThreadID: threadID, UserID: userID, Content: body}, nil
}

// CommentView is a comment joined with its author profile
type CommentView struct {
	DiscussionComment
	Author *Profile `json:"author,omitempty"`
}
