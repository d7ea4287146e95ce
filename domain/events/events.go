package events

import (
	"time"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
)

// Source identifies this service on every published event
const Source = "cytosight.backend"

// Event type names
const (
	TypeUploadAnalyzed  = "upload.analyzed"
	TypeUploadDeleted   = "upload.deleted"
	TypeThreadCreated   = "thread.created"
	TypeThreadDeleted   = "thread.deleted"
	TypeCommentAdded    = "comment.added"
	TypeMarkerToggled   = "marker.toggled"
	TypeReportGenerated = "report.generated"
)

// DomainEvent is something that has already happened
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetUserID() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	UserID      string    `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetUserID() string       { return e.UserID }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType, userID string, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		UserID:      userID,
		Timestamp:   at.UTC(),
		Version:     1,
	}
}

// Upload events

// UploadAnalyzed is raised once an analysed record has been stored
type UploadAnalyzed struct {
	BaseEvent
	Filename        string  `json:"filename"`
	CellCount       int     `json:"cell_count"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// NewUploadAnalyzed creates an UploadAnalyzed event
func NewUploadAnalyzed(recordID, userID, filename string, cellCount int, confidence float64, at time.Time) UploadAnalyzed {
	return UploadAnalyzed{
		BaseEvent:       newBase(recordID, TypeUploadAnalyzed, userID, at),
		Filename:        filename,
		CellCount:       cellCount,
		ConfidenceScore: confidence,
	}
}

// UploadDeleted is raised when a record is removed
type UploadDeleted struct {
	BaseEvent
}

// NewUploadDeleted creates an UploadDeleted event
func NewUploadDeleted(recordID, userID string, at time.Time) UploadDeleted {
	return UploadDeleted{BaseEvent: newBase(recordID, TypeUploadDeleted, userID, at)}
}

// Discussion events

// ThreadCreated is raised when a thread is posted
type ThreadCreated struct {
	BaseEvent
	Title    string `json:"title"`
	HasImage bool   `json:"has_image"`
}

// NewThreadCreated creates a ThreadCreated event
func NewThreadCreated(threadID, userID, title string, hasImage bool, at time.Time) ThreadCreated {
	return ThreadCreated{
		BaseEvent: newBase(threadID, TypeThreadCreated, userID, at),
		Title:     title,
		HasImage:  hasImage,
	}
}

// ThreadDeleted is raised when the owner removes a thread
type ThreadDeleted struct {
	BaseEvent
}

// NewThreadDeleted creates a ThreadDeleted event
func NewThreadDeleted(threadID, userID string, at time.Time) ThreadDeleted {
	return ThreadDeleted{BaseEvent: newBase(threadID, TypeThreadDeleted, userID, at)}
}

// CommentAdded is raised when a comment is posted on a thread
type CommentAdded struct {
	BaseEvent
	CommentID string `json:"comment_id"`
}

// NewCommentAdded creates a CommentAdded event. The aggregate is the thread.
func NewCommentAdded(threadID, commentID, userID string, at time.Time) CommentAdded {
	return CommentAdded{
		BaseEvent: newBase(threadID, TypeCommentAdded, userID, at),
		CommentID: commentID,
	}
}

// MarkerToggled is raised after a favorite or focus marker flipped
type MarkerToggled struct {
	BaseEvent
	Kind    valueobjects.MarkerKind `json:"kind"`
	Present bool                    `json:"present"`
}

// NewMarkerToggled creates a MarkerToggled event
func NewMarkerToggled(threadID, userID string, kind valueobjects.MarkerKind, present bool, at time.Time) MarkerToggled {
	return MarkerToggled{
		BaseEvent: newBase(threadID, TypeMarkerToggled, userID, at),
		Kind:      kind,
		Present:   present,
	}
}

// Report events

// ReportGenerated is raised when a report document was produced
type ReportGenerated struct {
	BaseEvent
	Title       string `json:"title"`
	Format      string `json:"format"`
	RecordCount int    `json:"record_count"`
}

// NewReportGenerated creates a ReportGenerated event. Reports are not
// persisted, so the aggregate is the generated filename.
func NewReportGenerated(filename, userID, title, format string, recordCount int, at time.Time) ReportGenerated {
	return ReportGenerated{
		BaseEvent:   newBase(filename, TypeReportGenerated, userID, at),
		Title:       title,
		Format:      format,
		RecordCount: recordCount,
	}
}
