package queries

import (
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	"github.com/kwansinnn/cytosight-all-detect/pkg/utils"
)

// ListUploadsQuery fetches the session user's analysis records
type ListUploadsQuery struct {
	Session *auth.Session
}

func (q ListUploadsQuery) Validate() error { return nil }

// UploadSummaryQuery returns dashboard aggregates over the user's records.
// Refresh re-fetches the list first; otherwise the cached list is used and
// fetched only when empty.
type UploadSummaryQuery struct {
	Session *auth.Session
	Refresh bool
}

func (q UploadSummaryQuery) Validate() error { return nil }

// ListThreadsQuery fetches every discussion thread. It works without a session.
type ListThreadsQuery struct {
	Session *auth.Session
}

func (q ListThreadsQuery) Validate() error { return nil }

// ListMarkedThreadsQuery fetches the threads the user marked with Kind
type ListMarkedThreadsQuery struct {
	Session *auth.Session
	Kind    valueobjects.MarkerKind
}

func (q ListMarkedThreadsQuery) Validate() error {
	_, err := valueobjects.ParseMarkerKind(string(q.Kind))
	return err
}

// ListCommentsQuery loads the comments of one thread
type ListCommentsQuery struct {
	Session  *auth.Session
	ThreadID string `validate:"notblank"`
}

func (q ListCommentsQuery) Validate() error { return utils.ValidateStruct(q) }

// MarkerStatusQuery reports whether the user marked a thread
type MarkerStatusQuery struct {
	Session  *auth.Session
	ThreadID string `validate:"notblank"`
	Kind     valueobjects.MarkerKind
}

func (q MarkerStatusQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	_, err := valueobjects.ParseMarkerKind(string(q.Kind))
	return err
}

// MarkerStatus is the answer to a MarkerStatusQuery
type MarkerStatus struct {
	ThreadID string                  `json:"threadId"`
	Kind     valueobjects.MarkerKind `json:"kind"`
	Present  bool                    `json:"present"`
}

// ReportPreviewQuery computes the statistics a report over the selection
// would carry, without rendering it
type ReportPreviewQuery struct {
	Session         *auth.Session
	SelectedUploads []string
}

func (q ReportPreviewQuery) Validate() error { return nil }

// GetSessionQuery returns the caller's identity and profile
type GetSessionQuery struct {
	Session *auth.Session
}

func (q GetSessionQuery) Validate() error { return nil }

// SessionView is the caller's identity as seen by the client
type SessionView struct {
	Authenticated bool              `json:"authenticated"`
	UserID        string            `json:"userId,omitempty"`
	Email         string            `json:"email,omitempty"`
	DisplayName   string            `json:"displayName,omitempty"`
	Profile       *entities.Profile `json:"profile,omitempty"`
}
