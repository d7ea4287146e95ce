package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// CommentList holds the comments of one thread, oldest first
type CommentList struct {
	bind     *binding
	deps     Deps
	threadID string
	onAdd    func(threadID string, c entities.CommentView, at time.Time)

	mu       sync.Mutex
	comments []entities.CommentView
	loaded   bool
	addedAt  map[string]time.Time
}

func newCommentList(b *binding, deps Deps, threadID string, initial []entities.CommentView, onAdd func(string, entities.CommentView, time.Time)) *CommentList {
	return &CommentList{
		bind:     b,
		deps:     deps,
		threadID: threadID,
		onAdd:    onAdd,
		comments: append([]entities.CommentView{}, initial...),
		loaded:   len(initial) > 0,
		addedAt:  make(map[string]time.Time),
	}
}

// ThreadID returns the thread the list belongs to
func (l *CommentList) ThreadID() string {
	return l.threadID
}

// Load returns the comments. Pre-supplied comments are used as they are;
// otherwise the list is fetched once and reused afterwards.
func (l *CommentList) Load(ctx context.Context) ([]entities.CommentView, error) {
	l.mu.Lock()
	if l.loaded {
		out := l.snapshotLocked()
		l.mu.Unlock()
		return out, nil
	}
	l.mu.Unlock()

	_, store := l.bind.get()
	fetched, err := store.ListComments(ctx, l.threadID)
	if err != nil {
		return nil, pkgerrors.NewFetchError("comments", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		merged := append([]entities.CommentView{}, fetched...)
		for _, c := range l.comments {
			if !hasComment(merged, c.ID) {
				merged = append(merged, c)
			}
		}
		l.comments = merged
		l.loaded = true
	}
	return l.snapshotLocked(), nil
}

// Items returns the comments held locally without any remote call
func (l *CommentList) Items() []entities.CommentView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Create posts a comment and appends it after the remote insert succeeded
func (l *CommentList) Create(ctx context.Context, content string) (*entities.CommentView, error) {
	body, err := valueobjects.NewCommentBody(content)
	if err != nil {
		return nil, err
	}
	userID := l.bind.userID()
	if userID == "" {
		return nil, pkgerrors.NewAuthRequiredError("comment")
	}
	comment, err := entities.NewDiscussionComment(l.threadID, userID, body)
	if err != nil {
		return nil, err
	}
	_, store := l.bind.get()

	view, err := store.InsertComment(ctx, comment)
	if err != nil {
		return nil, pkgerrors.NewWriteError("post comment", err)
	}

	now := l.deps.Now()
	l.mu.Lock()
	l.comments = append(l.comments, *view)
	l.addedAt[view.ID] = now
	l.mu.Unlock()

	if l.onAdd != nil {
		l.onAdd(l.threadID, *view, now)
	}
	publish(ctx, l.deps, events.NewCommentAdded(l.threadID, view.ID, userID, now))
	return view, nil
}

// syncFetched replaces the list with the comments joined into a thread
// fetch issued at issued. Comments posted here after that are kept. A list
// that was never loaded and gets an empty join still fetches on Load.
func (l *CommentList) syncFetched(joined []entities.CommentView, issued time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded && len(joined) == 0 {
		return
	}
	merged := append([]entities.CommentView{}, joined...)
	for _, c := range l.comments {
		if at, ok := l.addedAt[c.ID]; ok && at.After(issued) && !hasComment(merged, c.ID) {
			merged = append(merged, c)
		}
	}
	for id, at := range l.addedAt {
		if !at.After(issued) {
			delete(l.addedAt, id)
		}
	}
	l.comments = merged
	l.loaded = true
}

func (l *CommentList) snapshotLocked() []entities.CommentView {
	out := make([]entities.CommentView, len(l.comments))
	copy(out, l.comments)
	return out
}
