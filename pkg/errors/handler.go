package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorResponse is the body of every failed API call. Notification is what
// the client shows to the user.
type ErrorResponse struct {
	Error        bool                   `json:"error"`
	Type         string                 `json:"type"`
	Message      string                 `json:"message"`
	Code         string                 `json:"code,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Notification Notification           `json:"notification"`
	RequestID    string                 `json:"request_id,omitempty"`
	TraceID      string                 `json:"trace_id,omitempty"`
}

// ErrorHandler turns failures into ErrorResponse bodies. Handle is the only
// place a request failure is logged.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates an error handler. In debug mode internal messages
// and stack traces are returned to the client.
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes the response for err
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	appErr, known := h.normalize(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := ErrorResponse{
		Error:        true,
		Type:         string(appErr.Type),
		Message:      appErr.Message,
		Code:         appErr.Code,
		Details:      appErr.Details,
		Notification: NotificationFor(appErr),
		RequestID:    middleware.GetReqID(r.Context()),
		TraceID:      traceIDFrom(r),
	}
	if h.debug && appErr.StackTrace != "" {
		details := make(map[string]interface{}, len(resp.Details)+1)
		for k, v := range resp.Details {
			details[k] = v
		}
		details["stack_trace"] = appErr.StackTrace
		resp.Details = details
	}

	h.log(r, appErr, known, status, resp)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		h.logger.Error("Failed to encode error response", zap.Error(encErr))
	}
}

// normalize maps err into the taxonomy. Errors from outside it become
// internal errors whose message is hidden unless debugging.
func (h *ErrorHandler) normalize(err error) (*AppError, bool) {
	if appErr := GetAppError(err); appErr != nil {
		return appErr, true
	}
	message := "An internal error occurred"
	if h.debug {
		message = err.Error()
	}
	return &AppError{
		Type:         ErrorTypeInternal,
		Message:      message,
		Cause:        err,
		HTTPStatus:   http.StatusInternalServerError,
		Notification: NotificationFor(err),
	}, false
}

func (h *ErrorHandler) log(r *http.Request, appErr *AppError, known bool, status int, resp ErrorResponse) {
	fields := []zap.Field{
		zap.String("error_type", resp.Type),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("notification", resp.Notification.Title),
	}
	if resp.RequestID != "" {
		fields = append(fields, zap.String("request_id", resp.RequestID))
	}
	if resp.TraceID != "" {
		fields = append(fields, zap.String("trace_id", resp.TraceID))
	}
	if appErr.Code != "" {
		fields = append(fields, zap.String("error_code", appErr.Code))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}

	level := zapcore.InfoLevel
	switch {
	case status >= 500:
		level = zapcore.ErrorLevel
	case status >= 400:
		level = zapcore.WarnLevel
	}
	msg := appErr.Message
	if !known {
		msg = "Unhandled error"
	}
	if ce := h.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Middleware recovers panics in next and reports them as internal errors
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}

func traceIDFrom(r *http.Request) string {
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return r.Header.Get("X-Trace-ID")
}
