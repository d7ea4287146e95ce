package entities

import "github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"

// Marker is a favorite or focus membership of a user on a thread. Its
// existence is the whole state.
type Marker struct {
	Kind     valueobjects.MarkerKind `json:"kind"`
	UserID   string                  `json:"user_id"`
	ThreadID string                  `json:"thread_id"`
}

// Key identifies the marker uniquely
func (m Marker) Key() string {
	return string(m.Kind) + ":" + m.UserID + ":" + m.ThreadID
}
