package commands

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/commands/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	"github.com/kwansinnn/cytosight-all-detect/domain/report"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Handler executes the state-changing use cases against the session user's
// workspace.
type Handler struct {
	workspaces *workspace.Registry
	assembler  *report.Assembler
	events     ports.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewHandler creates a new command handler
func NewHandler(
	workspaces *workspace.Registry,
	assembler *report.Assembler,
	events ports.EventPublisher,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if assembler == nil {
		assembler = report.NewAssembler("")
	}
	return &Handler{
		workspaces: workspaces,
		assembler:  assembler,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterHandlers wires every command of this package into b
func RegisterHandlers(b *bus.CommandBus, h *Handler) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{AnalyzeUploadCommand{}, handle(h.AnalyzeUpload)},
		{DeleteUploadCommand{}, handle(h.DeleteUpload)},
		{CreateThreadCommand{}, handle(h.CreateThread)},
		{DeleteThreadCommand{}, handle(h.DeleteThread)},
		{AddCommentCommand{}, handle(h.AddComment)},
		{ToggleMarkerCommand{}, handle(h.ToggleMarker)},
		{GenerateReportCommand{}, handle(h.GenerateReport)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func handle[C bus.Command, R any](fn func(context.Context, C) (R, error)) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
		c, ok := cmd.(C)
		if !ok {
			return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected command %T", cmd))
		}
		return fn(ctx, c)
	})
}

// AnalyzeUpload handles AnalyzeUploadCommand
func (h *Handler) AnalyzeUpload(ctx context.Context, cmd AnalyzeUploadCommand) (*entities.UploadRecord, error) {
	ws, err := h.workspaces.For(cmd.Session)
	if err != nil {
		return nil, err
	}
	return ws.Records.Analyze(ctx, cmd.File)
}

// DeleteUpload handles DeleteUploadCommand
func (h *Handler) DeleteUpload(ctx context.Context, cmd DeleteUploadCommand) (struct{}, error) {
	ws, err := h.workspaces.For(cmd.Session)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, ws.Records.Delete(ctx, cmd.UploadID)
}

// CreateThread handles CreateThreadCommand. An attached image is uploaded
// first and takes precedence over ImageURL.
func (h *Handler) CreateThread(ctx context.Context, cmd CreateThreadCommand) (*entities.ThreadView, error) {
	ws, err := h.workspaces.For(cmd.Session)
	if err != nil {
		return nil, err
	}
	in := workspace.NewThread{Title: cmd.Title, Content: cmd.Content, ImageURL: cmd.ImageURL}
	if cmd.Image != nil {
		return ws.Threads.CreateWithImage(ctx, in, *cmd.Image)
	}
	return ws.Threads.Create(ctx, in)
}

// DeleteThread handles DeleteThreadCommand
func (h *Handler) DeleteThread(ctx context.Context, cmd DeleteThreadCommand) (struct{}, error) {
	ws, err := h.workspaces.For(cmd.Session)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, ws.Threads.Delete(ctx, cmd.ThreadID)
}

// AddComment handles AddCommentCommand
func (h *Handler) AddComment(ctx context.Context, cmd AddCommentCommand) (*entities.CommentView, error) {
	ws, err := h.workspaces.For(cmd.Session)
	if err != nil {
		return nil, err
	}
	return ws.Threads.Comments(cmd.ThreadID).Create(ctx, cmd.Content)
}

// ToggleMarker handles ToggleMarkerCommand
func (h *Handler) ToggleMarker(ctx context.Context, cmd ToggleMarkerCommand) (*MarkerState, error) {
	ws, err := h.workspaces.For(cmd.Session)
	if err != nil {
		return nil, err
	}
	present, err := ws.Threads.Marker(cmd.ThreadID, cmd.Kind).Toggle(ctx)
	if err != nil {
		return nil, err
	}
	return &MarkerState{ThreadID: cmd.ThreadID, Kind: cmd.Kind, Present: present}, nil
}

// GenerateReport handles GenerateReportCommand. The selection must name
// completed analyses of the session user; the document keeps the order of
// the user's list, not the order of the selection.
func (h *Handler) GenerateReport(ctx context.Context, cmd GenerateReportCommand) (*GeneratedReport, error) {
	cfg, err := cmd.Config.ApplyTemplate(cmd.Template)
	if err != nil {
		return nil, err
	}
	renderer, err := report.RendererFor(cfg.Format)
	if err != nil {
		return nil, err
	}
	if !cmd.Session.Authenticated() {
		return nil, pkgerrors.NewAuthRequiredError("generate reports")
	}

	ws, err := h.workspaces.For(cmd.Session)
	if err != nil {
		return nil, err
	}
	completed := ws.Records.Completed()
	if len(completed) == 0 {
		if _, err := ws.Records.FetchAll(ctx); err != nil {
			return nil, err
		}
		completed = ws.Records.Completed()
	}

	selected, err := selectRecords(completed, cfg.SelectedUploads)
	if err != nil {
		return nil, err
	}

	_, author := ws.Profile(ctx)
	now := h.now()
	doc := h.assembler.Assemble(cfg, selected, report.ComputeStatistics(selected), author, now)

	var buf bytes.Buffer
	if err := renderer.Render(&buf, doc); err != nil {
		h.logger.Error("report rendering failed", zap.String("format", string(cfg.Format)), zap.Error(err))
		return nil, pkgerrors.NewInternalError("report rendering failed").
			WithCause(err).
			WithNotification("Generation Failed", "Failed to generate report. Please try again.")
	}

	out := &GeneratedReport{
		Filename:    report.Filename(cfg.Title, now, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        buf.Bytes(),
		Document:    doc,
	}

	if h.events != nil {
		evt := events.NewReportGenerated(out.Filename, cmd.Session.UserID, cfg.Title, string(doc.Format), len(selected), now)
		if err := h.events.Publish(ctx, evt); err != nil {
			h.logger.Warn("failed to publish event", zap.String("event_type", evt.GetEventType()), zap.Error(err))
		}
	}
	h.logger.Info("report generated",
		zap.String("user_id", cmd.Session.UserID),
		zap.String("filename", out.Filename),
		zap.Int("records", len(selected)))
	return out, nil
}

func selectRecords(completed []entities.UploadRecord, ids []string) ([]entities.UploadRecord, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make([]entities.UploadRecord, 0, len(ids))
	for _, r := range completed {
		if wanted[r.ID] {
			selected = append(selected, r)
			delete(wanted, r.ID)
		}
	}
	for _, id := range ids {
		if wanted[id] {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("analysis %s is not available for reporting", id)).
				WithNotification("Selection Required", "One of the selected analyses is no longer available.")
		}
	}
	return selected, nil
}
