package valueobjects

import (
	"fmt"

	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// MarkerKind distinguishes the two per-user thread marker sets
type MarkerKind string

const (
	MarkerFavorite MarkerKind = "favorite"
	MarkerFocus    MarkerKind = "focus"
)

// AllMarkerKinds lists every kind, in display order
var AllMarkerKinds = []MarkerKind{MarkerFavorite, MarkerFocus}

// ParseMarkerKind accepts "favorite" or "focus"
func ParseMarkerKind(s string) (MarkerKind, error) {
	switch k := MarkerKind(s); k {
	case MarkerFavorite, MarkerFocus:
		return k, nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown marker kind %q", s))
	}
}

// Table is the remote collection holding markers of this kind
func (k MarkerKind) Table() string {
	if k == MarkerFocus {
		return "discussion_focus"
	}
	return "discussion_favorites"
}

// FailureDescription is the notification text for a failed toggle
func (k MarkerKind) FailureDescription() string {
	return fmt.Sprintf("Failed to update %s status", k)
}
