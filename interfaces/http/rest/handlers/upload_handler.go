package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/commands"
	"github.com/kwansinnn/cytosight-all-detect/application/commands/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/queries"
	querybus "github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/pkg/api"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// UploadHandler handles the analysis record endpoints
type UploadHandler struct {
	base
	logger *zap.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		base:   base{commandBus: commandBus, queryBus: queryBus, errs: errs},
		logger: logger,
	}
}

// List handles GET /uploads
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := ask[[]entities.UploadRecord](h.base, r, queries.ListUploadsQuery{Session: sessionFrom(r)})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if records == nil {
		records = []entities.UploadRecord{}
	}
	api.Success(w, http.StatusOK, records)
}

// Summary handles GET /uploads/summary. ?refresh=true re-reads the remote
// list first.
func (h *UploadHandler) Summary(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	summary, err := ask[workspace.Summary](h.base, r, queries.UploadSummaryQuery{Session: sessionFrom(r), Refresh: refresh})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, summary)
}

// Analyze handles POST /uploads. Every multipart "file" part is described to
// the analyzer but its bytes are never read.
func (h *UploadHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.errs.Handle(w, r, pkgerrors.NewValidationError("expected a multipart form with a file").WithCause(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		h.errs.Handle(w, r, pkgerrors.NewValidationError("file is required"))
		return
	}
	// A batch with one unsupported file is rejected before anything is stored
	for _, header := range headers {
		if err := valueobjects.CheckExtension(header.Filename, valueobjects.AnalysisExtensions); err != nil {
			h.errs.Handle(w, r, err)
			return
		}
	}

	// Files are analyzed in order. The first failure ends the batch; records
	// stored before it are kept.
	records := make([]*entities.UploadRecord, 0, len(headers))
	for _, header := range headers {
		record, err := send[*entities.UploadRecord](h.base, r, commands.AnalyzeUploadCommand{
			Session: sessionFrom(r),
			File: entities.FileHandle{
				Name:        header.Filename,
				Size:        header.Size,
				ContentType: header.Header.Get("Content-Type"),
			},
		})
		if err != nil {
			if len(records) > 0 {
				h.logger.Warn("upload batch stopped",
					zap.Int("analyzed", len(records)),
					zap.Int("files", len(headers)),
					zap.String("failed_file", header.Filename))
			}
			h.errs.Handle(w, r, err)
			return
		}
		records = append(records, record)
	}
	api.Success(w, http.StatusCreated, records)
}

// Delete handles DELETE /uploads/{id}
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeleteUploadCommand{Session: sessionFrom(r), UploadID: chi.URLParam(r, "id")}
	if _, err := send[struct{}](h.base, r, cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.NoContent(w)
}
