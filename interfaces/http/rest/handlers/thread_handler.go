package handlers

import (
	"mime"
	"net/http"
	"strings"

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

// ThreadHandler handles discussion threads, their comments and markers
type ThreadHandler struct {
	base
	logger *zap.Logger
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ThreadHandler {
	return &ThreadHandler{
		base:   base{commandBus: commandBus, queryBus: queryBus, errs: errs},
		logger: logger,
	}
}

// CreateThreadRequest is the JSON body of POST /threads. Title and content
// are checked by the domain so the notification text stays in one place.
type CreateThreadRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// CreateCommentRequest is the body of POST /threads/{id}/comments
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// List handles GET /threads
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	threads, err := ask[[]entities.ThreadView](h.base, r, queries.ListThreadsQuery{Session: sessionFrom(r)})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondThreads(w, threads)
}

// ListMarked handles GET /threads/marked/{kind}
func (h *ThreadHandler) ListMarked(w http.ResponseWriter, r *http.Request) {
	kind, err := valueobjects.ParseMarkerKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	threads, err := ask[[]entities.ThreadView](h.base, r, queries.ListMarkedThreadsQuery{Session: sessionFrom(r), Kind: kind})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondThreads(w, threads)
}

func respondThreads(w http.ResponseWriter, threads []entities.ThreadView) {
	if threads == nil {
		threads = []entities.ThreadView{}
	}
	api.Success(w, http.StatusOK, threads)
}

// Create handles POST /threads. A multipart body may carry an "image" part
// which is uploaded before the thread is inserted.
func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	cmd := commands.CreateThreadCommand{Session: sessionFrom(r)}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			h.errs.Handle(w, r, pkgerrors.NewValidationError("invalid multipart form").WithCause(err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		cmd.Title = r.FormValue("title")
		cmd.Content = r.FormValue("content")
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			cmd.Image = &workspace.Image{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Content:     file,
			}
		case err != http.ErrMissingFile:
			h.errs.Handle(w, r, pkgerrors.NewValidationError("invalid image part").WithCause(err))
			return
		}
	} else {
		var req CreateThreadRequest
		if err := decodeJSON(r, &req); err != nil {
			h.errs.Handle(w, r, err)
			return
		}
		cmd.Title, cmd.Content, cmd.ImageURL = req.Title, req.Content, req.ImageURL
	}

	thread, err := send[*entities.ThreadView](h.base, r, cmd)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, thread)
}

// Delete handles DELETE /threads/{id}
func (h *ThreadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeleteThreadCommand{Session: sessionFrom(r), ThreadID: chi.URLParam(r, "id")}
	if _, err := send[struct{}](h.base, r, cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.NoContent(w)
}

// ListComments handles GET /threads/{id}/comments
func (h *ThreadHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	q := queries.ListCommentsQuery{Session: sessionFrom(r), ThreadID: chi.URLParam(r, "id")}
	comments, err := ask[[]entities.CommentView](h.base, r, q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if comments == nil {
		comments = []entities.CommentView{}
	}
	api.Success(w, http.StatusOK, comments)
}

// AddComment handles POST /threads/{id}/comments
func (h *ThreadHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd := commands.AddCommentCommand{Session: sessionFrom(r), ThreadID: chi.URLParam(r, "id"), Content: req.Content}
	comment, err := send[*entities.CommentView](h.base, r, cmd)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, comment)
}

// MarkerStatus handles GET /threads/{id}/markers/{kind}
func (h *ThreadHandler) MarkerStatus(w http.ResponseWriter, r *http.Request) {
	kind, err := valueobjects.ParseMarkerKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	q := queries.MarkerStatusQuery{Session: sessionFrom(r), ThreadID: chi.URLParam(r, "id"), Kind: kind}
	status, err := ask[*queries.MarkerStatus](h.base, r, q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, status)
}

// ToggleMarker handles POST /threads/{id}/markers/{kind}/toggle
func (h *ThreadHandler) ToggleMarker(w http.ResponseWriter, r *http.Request) {
	kind, err := valueobjects.ParseMarkerKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd := commands.ToggleMarkerCommand{Session: sessionFrom(r), ThreadID: chi.URLParam(r, "id"), Kind: kind}
	state, err := send[*commands.MarkerState](h.base, r, cmd)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, state)
}
