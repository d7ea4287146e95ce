package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/commands"
	"github.com/kwansinnn/cytosight-all-detect/application/commands/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/queries"
	querybus "github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/domain/report"
	"github.com/kwansinnn/cytosight-all-detect/pkg/api"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// ReportHandler handles report generation and previews
type ReportHandler struct {
	base
	logger *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		base:   base{commandBus: commandBus, queryBus: queryBus, errs: errs},
		logger: logger,
	}
}

// GenerateReportRequest is the body of POST /reports. Omitted fields keep
// their defaults.
type GenerateReportRequest struct {
	report.Config
	Template report.Template `json:"template,omitempty"`
}

// PreviewRequest is the body of POST /reports/preview
type PreviewRequest struct {
	SelectedUploads []string `json:"selectedUploads"`
}

// Generate handles POST /reports and answers with the rendered document as
// an attachment.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req := GenerateReportRequest{Config: report.DefaultConfig()}
	if err := decodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	generated, err := send[*commands.GeneratedReport](h.base, r, commands.GenerateReportCommand{
		Session:  sessionFrom(r),
		Config:   req.Config,
		Template: req.Template,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Attachment(w, generated.Filename, generated.ContentType, generated.Body)
}

// Preview handles POST /reports/preview
func (h *ReportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	stats, err := ask[report.Statistics](h.base, r, queries.ReportPreviewQuery{
		Session:         sessionFrom(r),
		SelectedUploads: req.SelectedUploads,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}
