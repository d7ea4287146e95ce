package valueobjects

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

var (
	// AnalysisExtensions are the file types the upload form accepts
	AnalysisExtensions = []string{".jpeg", ".jpg", ".png", ".tiff", ".bmp"}
	// DiscussionImageExtensions are the file types a thread image may have
	DiscussionImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
)

// FileExtension returns the lower-cased extension of name, including the dot.
func FileExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// CheckExtension rejects names whose extension is not in allowed.
func CheckExtension(name string, allowed []string) error {
	ext := FileExtension(name)
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return pkgerrors.NewValidationError("Unsupported File").
		WithNotification("Unsupported File", fmt.Sprintf("Accepted file types: %s", strings.Join(allowed, ", ")))
}

// ImageObjectKey is the storage key for a discussion image:
// {userID}/{unix millis}.{ext}
func ImageObjectKey(userID, filename string, at time.Time) string {
	ext := strings.TrimPrefix(FileExtension(filename), ".")
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixMilli(), ext)
}
