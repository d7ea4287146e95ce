package entities

import (
	"time"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// DiscussionThread is a forum post. Only its author may delete it.
type DiscussionThread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDiscussionThread builds an unsaved thread from validated content.
func NewDiscussionThread(userID string, content valueobjects.PostContent, imageURL *string) (*DiscussionThread, error) {
	if userID == "" {
		return nil, pkgerrors.NewAuthRequiredError("create discussions")
	}
	return &DiscussionThread{
		Title:    content.Title(),
		Content:  content.Body(),
		ImageURL: imageURL,
		UserID:   userID,
	}, nil
}

// IsOwnedBy reports whether userID authored the thread
func (t *DiscussionThread) IsOwnedBy(userID string) bool {
	return userID != "" && t.UserID == userID
}

// ThreadView is the read model returned by thread listings: the thread with
// its author, its comments oldest first, and the users who marked it.
type ThreadView struct {
	DiscussionThread
	Author      *Profile      `json:"author,omitempty"`
	Comments    []CommentView `json:"comments"`
	FavoritedBy []string      `json:"favorited_by"`
	FocusedBy   []string      `json:"focused_by"`
}

// NewThreadView wraps a freshly created thread with empty joins
func NewThreadView(t DiscussionThread, author *Profile) ThreadView {
	return ThreadView{
		DiscussionThread: t,
		Author:           author,
		Comments:         []CommentView{},
		FavoritedBy:      []string{},
		FocusedBy:        []string{},
	}
}

// MarkedBy reports whether userID holds a marker of kind on the thread
func (v *ThreadView) MarkedBy(kind valueobjects.MarkerKind, userID string) bool {
	for _, id := range v.markers(kind) {
		if id == userID {
			return true
		}
	}
	return false
}

// SetMarked adds or removes userID from the marker set of kind
func (v *ThreadView) SetMarked(kind valueobjects.MarkerKind, userID string, present bool) {
	ids := v.markers(kind)
	out := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		if id != userID {
			out = append(out, id)
		}
	}
	if present {
		out = append(out, userID)
	}
	if kind == valueobjects.MarkerFocus {
		v.FocusedBy = out
	} else {
		v.FavoritedBy = out
	}
}

// CommentCount returns the number of joined comments
func (v *ThreadView) CommentCount() int {
	return len(v.Comments)
}

func (v *ThreadView) markers(kind valueobjects.MarkerKind) []string {
	if kind == valueobjects.MarkerFocus {
		return v.FocusedBy
	}
	return v.FavoritedBy
}
