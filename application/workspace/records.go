package workspace

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Records is the user's list of analysis records, newest first
type Records struct {
	bind *binding
	deps Deps

	mu     sync.Mutex
	items  []entities.UploadRecord
	ledger *ledger
}

func newRecords(b *binding, deps Deps) *Records {
	return &Records{bind: b, deps: deps, items: []entities.UploadRecord{}, ledger: newLedger()}
}

// FetchAll replaces the local list with the remote one. Records appended or
// deleted locally after the fetch was issued survive it.
func (r *Records) FetchAll(ctx context.Context) ([]entities.UploadRecord, error) {
	userID := r.bind.userID()
	if userID == "" {
		return nil, pkgerrors.NewAuthRequiredError("view your analyses")
	}
	_, store := r.bind.get()

	issued := r.deps.Now()
	fetched, err := store.ListUploads(ctx, userID)
	if err != nil {
		return nil, pkgerrors.NewFetchError("your uploads", err)
	}

	r.mu.Lock()
	r.items = reconcile(fetched, r.items, recordID, r.ledger, issued)
	out := r.snapshotLocked()
	r.mu.Unlock()
	return out, nil
}

// Append puts record at the head of the local list. It never re-fetches and
// does not deduplicate.
func (r *Records) Append(record entities.UploadRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]entities.UploadRecord{record}, r.items...)
	if record.ID != "" {
		r.ledger.wrote(record.ID, r.deps.Now())
	}
}

// Items returns a copy of the local list
func (r *Records) Items() []entities.UploadRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Get returns a local record by ID
func (r *Records) Get(id string) (entities.UploadRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.items {
		if rec.ID == id {
			return rec, true
		}
	}
	return entities.UploadRecord{}, false
}

// Analyze runs the analyzer on file, stores the completed record and appends
// it locally. Nothing is appended when the insert fails.
func (r *Records) Analyze(ctx context.Context, file entities.FileHandle) (*entities.UploadRecord, error) {
	userID := r.bind.userID()
	if userID == "" {
		return nil, pkgerrors.NewAuthRequiredError("analyze images")
	}
	if err := valueobjects.CheckExtension(file.Name, valueobjects.AnalysisExtensions); err != nil {
		return nil, err
	}
	_, store := r.bind.get()

	now := r.deps.Now()
	result := r.deps.Analyzer.Analyze(file)
	record, err := entities.NewCompletedUpload(userID, file.Name, placeholderFileURL(userID, file.Name, now.UnixMilli()), result)
	if err != nil {
		return nil, err
	}

	stored, err := store.InsertUpload(ctx, record)
	if err != nil {
		return nil, pkgerrors.NewWriteError("analyze image", err)
	}

	r.Append(*stored)
	r.deps.Logger.Info("analysis complete",
		zap.String("user_id", userID),
		zap.String("record_id", stored.ID),
		zap.Int("cell_count", stored.CellCount))
	publish(ctx, r.deps, events.NewUploadAnalyzed(stored.ID, userID, stored.Filename, stored.CellCount, stored.ConfidenceScore, now))
	return stored, nil
}

// Delete removes one of the user's records remotely and then locally
func (r *Records) Delete(ctx context.Context, id string) error {
	userID := r.bind.userID()
	if userID == "" {
		return pkgerrors.NewAuthRequiredError("delete analyses")
	}
	_, store := r.bind.get()

	if err := store.DeleteUpload(ctx, userID, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return err
		}
		return pkgerrors.NewWriteError("delete analysis", err)
	}

	now := r.deps.Now()
	r.mu.Lock()
	out := r.items[:0]
	for _, rec := range r.items {
		if rec.ID != id {
			out = append(out, rec)
		}
	}
	r.items = out
	r.ledger.deleted(id, now)
	r.mu.Unlock()

	publish(ctx, r.deps, events.NewUploadDeleted(id, userID, now))
	return nil
}

// Completed returns the local records that carry an analysis result, in
// list order
func (r *Records) Completed() []entities.UploadRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.UploadRecord, 0, len(r.items))
	for _, rec := range r.items {
		if rec.Status.IsCompleted() {
			out = append(out, rec)
		}
	}
	return out
}

// Summary aggregates the local list for the dashboard
type Summary struct {
	TotalUploads   int `json:"totalUploads"`
	Completed      int `json:"completed"`
	AvgConfidence  int `json:"avgConfidence"`
	TotalCells     int `json:"totalCells"`
	BenignCount    int `json:"benignCount"`
	MalignantCount int `json:"malignantCount"`
	UnknownCount   int `json:"unknownCount"`
}

// Summary computes dashboard aggregates over the completed records
func (r *Records) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{TotalUploads: len(r.items)}
	var confidence float64
	for i := range r.items {
		rec := &r.items[i]
		if !rec.Status.IsCompleted() {
			continue
		}
		s.Completed++
		s.TotalCells += rec.CellCount
		confidence += rec.ConfidenceScore
		switch rec.Classification() {
		case valueobjects.ClassificationBenign:
			s.BenignCount++
		case valueobjects.ClassificationMalignant:
			s.MalignantCount++
		default:
			s.UnknownCount++
		}
	}
	if s.Completed > 0 {
		s.AvgConfidence = int(math.Floor(confidence/float64(s.Completed)*100 + 0.5))
	}
	return s
}

func (r *Records) snapshotLocked() []entities.UploadRecord {
	out := make([]entities.UploadRecord, len(r.items))
	copy(out, r.items)
	return out
}

func recordID(r entities.UploadRecord) string { return r.ID }

// placeholderFileURL stands in for the browser-local object URL the file
// would otherwise get. File bytes are never stored.
func placeholderFileURL(userID, filename string, millis int64) string {
	return fmt.Sprintf("upload://%s/%d/%s", userID, millis, filename)
}
