package workspace

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// NewThread is the input of a thread creation
type NewThread struct {
	Title    string
	Content  string
	ImageURL *string
}

// Image is a discussion image to upload alongside a new thread
type Image struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

type localComment struct {
	view entities.CommentView
	at   time.Time
}

type markerWrite struct {
	threadID string
	kind     valueobjects.MarkerKind
	userID   string
	present  bool
	at       time.Time
}

// Threads is the list of discussion threads, newest first, together with the
// per-thread comment lists and marker toggles handed out from it.
type Threads struct {
	bind *binding
	deps Deps

	mu            sync.Mutex
	items         []entities.ThreadView
	ledger        *ledger
	localComments map[string][]localComment
	markerWrites  map[string]markerWrite
	comments      map[string]*CommentList
	markers       map[string]*MarkerToggle
}

func newThreads(b *binding, deps Deps) *Threads {
	return &Threads{
		bind:          b,
		deps:          deps,
		items:         []entities.ThreadView{},
		ledger:        newLedger(),
		localComments: make(map[string][]localComment),
		markerWrites:  make(map[string]markerWrite),
		comments:      make(map[string]*CommentList),
		markers:       make(map[string]*MarkerToggle),
	}
}

// FetchAll replaces the local list with the remote one, each thread joined
// with its author, comments and markers. Local changes made after the fetch
// was issued are reapplied on top of the result.
func (t *Threads) FetchAll(ctx context.Context) ([]entities.ThreadView, error) {
	_, store := t.bind.get()

	issued := t.deps.Now()
	fetched, err := store.ListThreads(ctx)
	if err != nil {
		return nil, pkgerrors.NewFetchError("discussions", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.items = reconcile(fetched, t.items, threadID, t.ledger, issued)
	t.reapplyCommentsLocked(issued)
	t.syncCommentListsLocked(issued)
	t.reapplyMarkersLocked(issued)
	t.syncTogglesLocked(issued)
	return t.snapshotLocked(), nil
}

// Items returns a copy of the local list
func (t *Threads) Items() []entities.ThreadView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Get returns a local thread by ID
func (t *Threads) Get(id string) (entities.ThreadView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexLocked(id); i >= 0 {
		return cloneView(t.items[i]), true
	}
	return entities.ThreadView{}, false
}

// Create validates and stores a thread, then prepends it locally
func (t *Threads) Create(ctx context.Context, in NewThread) (*entities.ThreadView, error) {
	content, err := valueobjects.NewPostContent(in.Title, in.Content)
	if err != nil {
		return nil, err
	}
	userID := t.bind.userID()
	if userID == "" {
		return nil, pkgerrors.NewAuthRequiredError("create discussions")
	}
	return t.insert(ctx, userID, content, in.ImageURL)
}

// CreateWithImage uploads img to the object store and creates a thread that
// points at it. If the thread cannot be stored the image is removed again.
func (t *Threads) CreateWithImage(ctx context.Context, in NewThread, img Image) (*entities.ThreadView, error) {
	content, err := valueobjects.NewPostContent(in.Title, in.Content)
	if err != nil {
		return nil, err
	}
	userID := t.bind.userID()
	if userID == "" {
		return nil, pkgerrors.NewAuthRequiredError("create discussions")
	}
	if err := valueobjects.CheckExtension(img.Filename, valueobjects.DiscussionImageExtensions); err != nil {
		return nil, err
	}
	_, store := t.bind.get()

	key := valueobjects.ImageObjectKey(userID, img.Filename, t.deps.Now())
	if err := store.PutObject(ctx, key, img.Content, img.ContentType); err != nil {
		return nil, pkgerrors.NewWriteError("upload image", err).
			WithNotification("Upload Error", "Failed to upload image. Please try again.")
	}
	url := store.PublicURL(key)

	view, err := t.insert(ctx, userID, content, &url)
	if err != nil {
		if rmErr := store.RemoveObject(ctx, key); rmErr != nil {
			t.deps.Logger.Error("failed to remove orphaned discussion image",
				zap.String("key", key), zap.Error(rmErr))
		}
		return nil, err
	}
	return view, nil
}

func (t *Threads) insert(ctx context.Context, userID string, content valueobjects.PostContent, imageURL *string) (*entities.ThreadView, error) {
	thread, err := entities.NewDiscussionThread(userID, content, imageURL)
	if err != nil {
		return nil, err
	}
	_, store := t.bind.get()

	view, err := store.InsertThread(ctx, thread)
	if err != nil {
		return nil, pkgerrors.NewWriteError("create collaboration thread", err)
	}
	normalizeView(view)

	now := t.deps.Now()
	t.mu.Lock()
	t.items = append([]entities.ThreadView{cloneView(*view)}, t.items...)
	t.ledger.wrote(view.ID, now)
	t.mu.Unlock()

	publish(ctx, t.deps, events.NewThreadCreated(view.ID, userID, view.Title, view.ImageURL != nil, now))
	return view, nil
}

// Delete removes a thread the session user owns. Ownership is checked before
// any remote write.
func (t *Threads) Delete(ctx context.Context, id string) error {
	userID := t.bind.userID()
	if userID == "" {
		return pkgerrors.NewAuthRequiredError("delete discussions")
	}
	_, store := t.bind.get()

	owner, err := t.ownerOf(ctx, id)
	if err != nil {
		return err
	}
	if owner != userID {
		return pkgerrors.NewForbiddenError("only the author can delete a thread").
			WithNotification("Not Allowed", "You can only delete your own discussions.")
	}

	if err := store.DeleteThread(ctx, id); err != nil {
		return pkgerrors.NewWriteError("delete discussion", err)
	}

	now := t.deps.Now()
	t.mu.Lock()
	if i := t.indexLocked(id); i >= 0 {
		t.items = append(t.items[:i], t.items[i+1:]...)
	}
	t.ledger.deleted(id, now)
	delete(t.comments, id)
	delete(t.localComments, id)
	for k, m := range t.markers {
		if m.threadID == id {
			delete(t.markers, k)
		}
	}
	t.mu.Unlock()

	publish(ctx, t.deps, events.NewThreadDeleted(id, userID, now))
	return nil
}

func (t *Threads) ownerOf(ctx context.Context, id string) (string, error) {
	t.mu.Lock()
	if i := t.indexLocked(id); i >= 0 {
		owner := t.items[i].UserID
		t.mu.Unlock()
		return owner, nil
	}
	t.mu.Unlock()

	_, store := t.bind.get()
	view, err := store.GetThread(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return "", err
		}
		return "", pkgerrors.NewFetchError("discussion", err)
	}
	return view.UserID, nil
}

// FetchMarked returns the threads the session user marked with kind, newest
// first. The result is not cached.
func (t *Threads) FetchMarked(ctx context.Context, kind valueobjects.MarkerKind) ([]entities.ThreadView, error) {
	userID := t.bind.userID()
	if userID == "" {
		return nil, pkgerrors.NewAuthRequiredError("view your " + string(kind) + " discussions")
	}
	_, store := t.bind.get()

	views, err := store.ListMarkedThreads(ctx, kind, userID)
	if err != nil {
		return nil, pkgerrors.NewFetchError(string(kind)+" discussions", err)
	}
	for i := range views {
		normalizeView(&views[i])
	}
	return views, nil
}

// Comments returns the comment list of a thread. A list created for a cached
// thread starts from the comments joined into it.
func (t *Threads) Comments(threadID string) *CommentList {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cl, ok := t.comments[threadID]; ok {
		return cl
	}
	var initial []entities.CommentView
	if i := t.indexLocked(threadID); i >= 0 {
		initial = t.items[i].Comments
	}
	cl := newCommentList(t.bind, t.deps, threadID, initial, t.commentAdded)
	t.comments[threadID] = cl
	return cl
}

// Marker returns the session user's toggle of kind on a thread. A toggle
// created for a cached thread starts from the thread's joined markers.
func (t *Threads) Marker(threadID string, kind valueobjects.MarkerKind) *MarkerToggle {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := string(kind) + ":" + threadID
	if m, ok := t.markers[key]; ok {
		return m
	}
	m := newMarkerToggle(t.bind, t.deps, threadID, kind, t.markerChanged)
	if i := t.indexLocked(threadID); i >= 0 {
		if userID := t.bind.userID(); userID != "" {
			m.seed(t.items[i].MarkedBy(kind, userID))
		}
	}
	t.markers[key] = m
	return m
}

func (t *Threads) commentAdded(threadID string, c entities.CommentView, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.localComments[threadID] = append(t.localComments[threadID], localComment{view: c, at: at})
	if i := t.indexLocked(threadID); i >= 0 {
		t.items[i].Comments = append(t.items[i].Comments, c)
	}
}

func (t *Threads) markerChanged(threadID string, kind valueobjects.MarkerKind, userID string, present bool, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := entities.Marker{Kind: kind, UserID: userID, ThreadID: threadID}
	t.markerWrites[m.Key()] = markerWrite{threadID: threadID, kind: kind, userID: userID, present: present, at: at}
	if i := t.indexLocked(threadID); i >= 0 {
		t.items[i].SetMarked(kind, userID, present)
	}
}

func (t *Threads) reapplyCommentsLocked(issued time.Time) {
	for threadID, locals := range t.localComments {
		i := t.indexLocked(threadID)
		kept := locals[:0]
		for _, lc := range locals {
			if !lc.at.After(issued) {
				continue
			}
			kept = append(kept, lc)
			if i >= 0 && !hasComment(t.items[i].Comments, lc.view.ID) {
				t.items[i].Comments = append(t.items[i].Comments, lc.view)
			}
		}
		if len(kept) == 0 {
			delete(t.localComments, threadID)
		} else {
			t.localComments[threadID] = kept
		}
	}
}

// syncCommentListsLocked moves the comment lists handed out earlier to the
// comments joined into the fetched threads.
func (t *Threads) syncCommentListsLocked(issued time.Time) {
	for threadID, cl := range t.comments {
		if i := t.indexLocked(threadID); i >= 0 {
			cl.syncFetched(t.items[i].Comments, issued)
		}
	}
}

func (t *Threads) reapplyMarkersLocked(issued time.Time) {
	for key, w := range t.markerWrites {
		if !w.at.After(issued) {
			delete(t.markerWrites, key)
			continue
		}
		if i := t.indexLocked(w.threadID); i >= 0 {
			t.items[i].SetMarked(w.kind, w.userID, w.present)
		}
	}
}

// syncTogglesLocked moves toggles that were not written after issue to the
// fetched state.
func (t *Threads) syncTogglesLocked(issued time.Time) {
	userID := t.bind.userID()
	if userID == "" {
		return
	}
	for _, m := range t.markers {
		if i := t.indexLocked(m.threadID); i >= 0 {
			m.syncFetched(t.items[i].MarkedBy(m.kind, userID), issued)
		}
	}
}

func (t *Threads) indexLocked(id string) int {
	for i := range t.items {
		if t.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Threads) snapshotLocked() []entities.ThreadView {
	out := make([]entities.ThreadView, len(t.items))
	for i := range t.items {
		out[i] = cloneView(t.items[i])
	}
	return out
}

func threadID(v entities.ThreadView) string { return v.ID }

func hasComment(cs []entities.CommentView, id string) bool {
	for _, c := range cs {
		if c.ID == id {
			return true
		}
	}
	return false
}

func cloneView(v entities.ThreadView) entities.ThreadView {
	v.Comments = append([]entities.CommentView{}, v.Comments...)
	v.FavoritedBy = append([]string{}, v.FavoritedBy...)
	v.FocusedBy = append([]string{}, v.FocusedBy...)
	return v
}

func normalizeView(v *entities.ThreadView) {
	if v.Comments == nil {
		v.Comments = []entities.CommentView{}
	}
	if v.FavoritedBy == nil {
		v.FavoritedBy = []string{}
	}
	if v.FocusedBy == nil {
		v.FocusedBy = []string{}
	}
}
