// Package fixtures builds domain values for tests and seeds the memory
// store with demo data.
package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
)

// UploadBuilder helps create analysis records with default values
type UploadBuilder struct {
	id             string
	userID         string
	filename       string
	cellCount      int
	confidence     float64
	classification *string
	status         valueobjects.UploadStatus
	createdAt      time.Time
}

func NewUploadBuilder() *UploadBuilder {
	return &UploadBuilder{
		id:         uuid.NewString(),
		userID:     "test-user-123",
		filename:   "sample.png",
		cellCount:  120,
		confidence: 0.85,
		status:     valueobjects.StatusCompleted,
		createdAt:  time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

func (b *UploadBuilder) WithID(id string) *UploadBuilder {
	b.id = id
	return b
}

func (b *UploadBuilder) WithUserID(userID string) *UploadBuilder {
	b.userID = userID
	return b
}

func (b *UploadBuilder) WithFilename(name string) *UploadBuilder {
	b.filename = name
	return b
}

func (b *UploadBuilder) WithCells(count int, confidence float64) *UploadBuilder {
	b.cellCount, b.confidence = count, confidence
	return b
}

func (b *UploadBuilder) WithClassification(c valueobjects.Classification) *UploadBuilder {
	s := string(c)
	b.classification = &s
	return b
}

// WithStatus sets the status. Records that are not completed carry no
// analysis result.
func (b *UploadBuilder) WithStatus(status valueobjects.UploadStatus) *UploadBuilder {
	b.status = status
	return b
}

func (b *UploadBuilder) WithCreatedAt(at time.Time) *UploadBuilder {
	b.createdAt = at
	return b
}

func (b *UploadBuilder) Build() entities.UploadRecord {
	r := entities.UploadRecord{
		ID:              b.id,
		UserID:          b.userID,
		Filename:        b.filename,
		FileURL:         b.filename,
		CellCount:       b.cellCount,
		ConfidenceScore: b.confidence,
		Status:          b.status,
		CreatedAt:       b.createdAt,
	}
	if b.status.IsCompleted() {
		r.CellTypes = []string{"Red Blood Cells", "White Blood Cells", "Platelets"}
		r.AnalysisResult = &entities.AnalysisResult{
			CellCount:       b.cellCount,
			CellTypes:       r.CellTypes,
			ConfidenceScore: b.confidence,
			Classification:  b.classification,
		}
	}
	return r
}

// ThreadBuilder helps create thread views with default values
type ThreadBuilder struct {
	thread      entities.DiscussionThread
	author      *entities.Profile
	comments    []entities.CommentView
	favoritedBy []string
	focusedBy   []string
}

func NewThreadBuilder() *ThreadBuilder {
	return &ThreadBuilder{
		thread: entities.DiscussionThread{
			ID:        uuid.NewString(),
			Title:     "Unusual nuclei in sample 12",
			Content:   "Has anyone seen this pattern before?",
			UserID:    "test-user-123",
			CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		},
	}
}

func (b *ThreadBuilder) WithID(id string) *ThreadBuilder {
	b.thread.ID = id
	return b
}

func (b *ThreadBuilder) WithUserID(userID string) *ThreadBuilder {
	b.thread.UserID = userID
	return b
}

func (b *ThreadBuilder) WithTitle(title string) *ThreadBuilder {
	b.thread.Title = title
	return b
}

func (b *ThreadBuilder) WithImageURL(url string) *ThreadBuilder {
	b.thread.ImageURL = &url
	return b
}

func (b *ThreadBuilder) WithCreatedAt(at time.Time) *ThreadBuilder {
	b.thread.CreatedAt = at
	return b
}

func (b *ThreadBuilder) WithAuthor(fullName string) *ThreadBuilder {
	b.author = &entities.Profile{UserID: b.thread.UserID, FullName: &fullName}
	return b
}

// WithComment appends a comment by userID, one minute after the previous one
func (b *ThreadBuilder) WithComment(userID, content string) *ThreadBuilder {
	at := b.thread.CreatedAt.Add(time.Duration(len(b.comments)+1) * time.Minute)
	b.comments = append(b.comments, entities.CommentView{DiscussionComment: entities.DiscussionComment{
		ID:        uuid.NewString(),
		ThreadID:  b.thread.ID,
		Content:   content,
		UserID:    userID,
		CreatedAt: at,
	}})
	return b
}

func (b *ThreadBuilder) FavoritedBy(userIDs ...string) *ThreadBuilder {
	b.favoritedBy = append(b.favoritedBy, userIDs...)
	return b
}

func (b *ThreadBuilder) FocusedBy(userIDs ...string) *ThreadBuilder {
	b.focusedBy = append(b.focusedBy, userIDs...)
	return b
}

func (b *ThreadBuilder) Build() entities.ThreadView {
	v := entities.NewThreadView(b.thread, b.author)
	for i := range b.comments {
		b.comments[i].ThreadID = b.thread.ID
	}
	v.Comments = append(v.Comments, b.comments...)
	v.FavoritedBy = append(v.FavoritedBy, b.favoritedBy...)
	v.FocusedBy = append(v.FocusedBy, b.focusedBy...)
	return v
}
