package entities

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// UploadRecord is one analysed file. Records are never modified after
// creation, only deleted.
type UploadRecord struct {
	ID              string                    `json:"id"`
	UserID          string                    `json:"user_id"`
	Filename        string                    `json:"filename"`
	FileURL         string                    `json:"file_url"`
	AnalysisResult  *AnalysisResult           `json:"analysis_result"`
	CellCount       int                       `json:"cell_count"`
	CellTypes       []string                  `json:"cell_types"`
	ConfidenceScore float64                   `json:"confidence_score"`
	Status          valueobjects.UploadStatus `json:"status"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// NewCompletedUpload builds the record inserted after a successful analysis.
// ID and CreatedAt are assigned by the store.
func NewCompletedUpload(userID, filename, fileURL string, result AnalysisResult) (*UploadRecord, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, pkgerrors.NewValidationError("File Required")
	}

	r := &UploadRecord{
		UserID:          userID,
		Filename:        filename,
		FileURL:         fileURL,
		AnalysisResult:  &result,
		CellCount:       result.CellCount,
		CellTypes:       append([]string(nil), result.CellTypes...),
		ConfidenceScore: result.ConfidenceScore,
		Status:          valueobjects.StatusCompleted,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the record invariants
func (r *UploadRecord) Validate() error {
	if r.Status.IsCompleted() != (r.AnalysisResult != nil) {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("analysis result must be present exactly when status is completed (status %q)", r.Status))
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return pkgerrors.NewValidationError(fmt.Sprintf("confidence score %v out of range [0,1]", r.ConfidenceScore))
	}
	if r.CellCount < 0 {
		return pkgerrors.NewValidationError("cell count cannot be negative")
	}
	return nil
}

// Classification returns the verdict carried by the analysis result
func (r *UploadRecord) Classification() valueobjects.Classification {
	return r.AnalysisResult.Verdict()
}

// ConfidencePercent returns the confidence score as a whole percentage
func (r *UploadRecord) ConfidencePercent() int {
	return int(math.Round(r.ConfidenceScore * 100))
}

// IsOwnedBy reports whether userID created the record
func (r *UploadRecord) IsOwnedBy(userID string) bool {
	return userID != "" && r.UserID == userID
}

// FileHandle describes a selected file. The analyzer never reads its bytes.
type FileHandle struct {
	Name        string
	Size        int64
	ContentType string
}
