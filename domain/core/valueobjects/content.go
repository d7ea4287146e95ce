package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 20000
)

// PostContent is the validated title and body of a discussion thread
type PostContent struct {
	title string
	body  string
}

// NewPostContent trims both fields and requires them to be non-empty.
func NewPostContent(title, body string) (PostContent, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	if title == "" {
		return PostContent{}, pkgerrors.NewValidationError("Title Required").
			WithNotification("Title Required", "Please enter a title for your discussion.")
	}
	if body == "" {
		return PostContent{}, pkgerrors.NewValidationError("Content Required").
			WithNotification("Content Required", "Please enter some content for your discussion.")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return PostContent{}, pkgerrors.NewValidationError(
			fmt.Sprintf("title exceeds maximum length of %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(body) > MaxContentLength {
		return PostContent{}, pkgerrors.NewValidationError(
			fmt.Sprintf("content exceeds maximum length of %d characters", MaxContentLength))
	}

	return PostContent{title: title, body: body}, nil
}

// NewCommentBody trims and requires a non-empty comment.
func NewCommentBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", pkgerrors.NewValidationError("Comment Required").
			WithNotification("Comment Required", "Please enter a comment.")
	}
	if utf8.RuneCountInString(body) > MaxContentLength {
		return "", pkgerrors.NewValidationError(
			fmt.Sprintf("comment exceeds maximum length of %d characters", MaxContentLength))
	}
	return body, nil
}

// Title returns the trimmed title
func (c PostContent) Title() string {
	return c.title
}

// Body returns the trimmed body
func (c PostContent) Body() string {
	return c.body
}
