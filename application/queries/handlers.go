package queries

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/report"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Handler answers read-only requests from the session user's workspace
type Handler struct {
	workspaces *workspace.Registry
	logger     *zap.Logger
}

// NewHandler creates a new query handler
func NewHandler(workspaces *workspace.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{workspaces: workspaces, logger: logger}
}

// RegisterHandlers wires every query of this package into b
func RegisterHandlers(b *bus.QueryBus, h *Handler) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{ListUploadsQuery{}, handle(h.ListUploads)},
		{UploadSummaryQuery{}, handle(h.UploadSummary)},
		{ListThreadsQuery{}, handle(h.ListThreads)},
		{ListMarkedThreadsQuery{}, handle(h.ListMarkedThreads)},
		{ListCommentsQuery{}, handle(h.ListComments)},
		{MarkerStatusQuery{}, handle(h.MarkerStatus)},
		{ReportPreviewQuery{}, handle(h.ReportPreview)},
		{GetSessionQuery{}, handle(h.GetSession)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func handle[Q bus.Query, R any](fn func(context.Context, Q) (R, error)) bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		q, ok := query.(Q)
		if !ok {
			return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected query %T", query))
		}
		return fn(ctx, q)
	})
}

func (h *Handler) ListUploads(ctx context.Context, q ListUploadsQuery) ([]entities.UploadRecord, error) {
	ws, err := h.workspaces.For(q.Session)
	if err != nil {
		return nil, err
	}
	return ws.Records.FetchAll(ctx)
}

func (h *Handler) UploadSummary(ctx context.Context, q UploadSummaryQuery) (workspace.Summary, error) {
	ws, err := h.workspaces.For(q.Session)
	if err != nil {
		return workspace.Summary{}, err
	}
	if q.Refresh || len(ws.Records.Items()) == 0 {
		if _, err := ws.Records.FetchAll(ctx); err != nil {
			return workspace.Summary{}, err
		}
	}
	return ws.Records.Summary(), nil
}

func (h *Handler) ListThreads(ctx context.Context, q ListThreadsQuery) ([]entities.ThreadView, error) {
	ws, err := h.workspaces.For(q.Session)
	if err != nil {
		return nil, err
	}
	return ws.Threads.FetchAll(ctx)
}

func (h *Handler) ListMarkedThreads(ctx context.Context, q ListMarkedThreadsQuery) ([]entities.ThreadView, error) {
	ws, err := h.workspaces.For(q.Session)
	if err != nil {
		return nil, err
	}
	return ws.Threads.FetchMarked(ctx, q.Kind)
}

func (h *Handler) ListComments(ctx context.Context, q ListCommentsQuery) ([]entities.CommentView, error) {
	ws, err := h.workspaces.For(q.Session)
	if err != nil {
		return nil, err
	}
	return ws.Threads.Comments(q.ThreadID).Load(ctx)
}

func (h *Handler) MarkerStatus(ctx context.Context, q MarkerStatusQuery) (*MarkerStatus, error) {
	ws, err := h.workspaces.For(q.Session)
	if err != nil {
		return nil, err
	}
	present, err := ws.Threads.Marker(q.ThreadID, q.Kind).Status(ctx)
	if err != nil {
		return nil, err
	}
	return &MarkerStatus{ThreadID: q.ThreadID, Kind: q.Kind, Present: present}, nil
}

// ReportPreview computes statistics over the selected completed records.
// Unknown IDs are ignored.
func (h *Handler) ReportPreview(ctx context.Context, q ReportPreviewQuery) (report.Statistics, error) {
	if !q.Session.Authenticated() {
		return report.Statistics{}, pkgerrors.NewAuthRequiredError("generate reports")
	}
	ws, err := h.workspaces.For(q.Session)
	if err != nil {
		return report.Statistics{}, err
	}
	completed := ws.Records.Completed()
	if len(completed) == 0 {
		if _, err := ws.Records.FetchAll(ctx); err != nil {
			return report.Statistics{}, err
		}
		completed = ws.Records.Completed()
	}

	wanted := make(map[string]bool, len(q.SelectedUploads))
	for _, id := range q.SelectedUploads {
		wanted[id] = true
	}
	selected := make([]entities.UploadRecord, 0, len(wanted))
	for _, r := range completed {
		if wanted[r.ID] {
			selected = append(selected, r)
		}
	}
	return report.ComputeStatistics(selected), nil
}

// GetSession describes the caller. A missing profile is not an error; the
// email stands in for the display name.
func (h *Handler) GetSession(ctx context.Context, q GetSessionQuery) (*SessionView, error) {
	if !q.Session.Authenticated() {
		return &SessionView{}, nil
	}
	view := &SessionView{
		Authenticated: true,
		UserID:        q.Session.UserID,
		Email:         q.Session.Email,
	}

	ws, err := h.workspaces.For(q.Session)
	if err != nil {
		return nil, err
	}
	view.Profile, view.DisplayName = ws.Profile(ctx)
	return view, nil
}
