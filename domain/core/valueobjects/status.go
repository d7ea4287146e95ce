package valueobjects

import (
	"fmt"

	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// UploadStatus is the processing state of an upload record
type UploadStatus string

const (
	StatusProcessing UploadStatus = "processing"
	StatusCompleted  UploadStatus = "completed"
	StatusFailed     UploadStatus = "failed"
)

// ParseUploadStatus validates a stored status value
func ParseUploadStatus(s string) (UploadStatus, error) {
	switch st := UploadStatus(s); st {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return st, nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown upload status %q", s))
	}
}

// IsCompleted reports whether the record carries an analysis result
func (s UploadStatus) IsCompleted() bool {
	return s == StatusCompleted
}

// Classification is the optional verdict attached to an analysis result
type Classification string

const (
	ClassificationBenign    Classification = "benign"
	ClassificationMalignant Classification = "malignant"
	ClassificationUnknown   Classification = "unknown"
)

// ParseClassification never fails; anything unrecognised is Unknown.
func ParseClassification(s string) Classification {
	switch c := Classification(s); c {
	case ClassificationBenign, ClassificationMalignant:
		return c
	default:
		return ClassificationUnknown
	}
}

// Label is the display form
func (c Classification) Label() string {
	switch c {
	case ClassificationBenign:
		return "Benign"
	case ClassificationMalignant:
		return "Malignant"
	default:
		return "Unknown"
	}
}
