package web

// errors.go turns handler errors into responses.
//
// Validation and service errors keep their own JSON shape so clients can
// act on segment and issues. Everything else is logged with its technical
// detail and answered with the mapped user message from core.MapError.
// HTMX requests get an HTML fragment instead of JSON.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/productimport/internal/core"
	"github.com/JonMunkholm/productimport/internal/logging"
	"github.com/JonMunkholm/productimport/internal/web/views"
)

// errorResponse is the JSON body of every error.
type errorResponse struct {
	Status   int                    `json:"status"`
	Error    string                 `json:"error"`
	Message  string                 `json:"message"`
	Segment  core.RequestSegment    `json:"segment,omitempty"`
	Issues   []core.ValidationIssue `json:"issues,omitempty"`
	Location *resourceLocation      `json:"location,omitempty"`
	Action   string                 `json:"action,omitempty"`
	Code     string                 `json:"code,omitempty"`

	// userMessage replaces Message in HTML fragments when set.
	userMessage string
}

type resourceLocation struct {
	Resource string  `json:"resource"`
	Key      string  `json:"key"`
	Path     *string `json:"path"`
}

// notFoundError is a missing resource addressed by key.
type notFoundError struct {
	resource string
	key      string
}

func (e *notFoundError) Error() string {
	return e.resource + " " + e.key + " not found"
}

// errPayloadTooLarge wraps request bodies rejected by http.MaxBytesReader.
var errPayloadTooLarge = errors.New("request body too large")

// toErrorResponse classifies err.
func toErrorResponse(err error) errorResponse {
	var (
		verr  *core.ValidationError
		serr  *core.ServiceError
		nfErr *notFoundError
	)

	switch {
	case errors.As(err, &verr):
		return errorResponse{
			Status:  verr.Status(),
			Error:   "VALIDATION",
			Message: verr.Error(),
			Segment: verr.Segment,
			Issues:  verr.Issues,
		}

	case errors.As(err, &serr):
		msg := core.MapError(serr.Err)
		return errorResponse{
			Status:  serr.Status(),
			Error:   string(serr.Type),
			Message: serr.Error(),
			Action:  msg.Action,
			Code:    msg.Code,

			userMessage: msg.Message,
		}

	case errors.As(err, &nfErr):
		return errorResponse{
			Status:   http.StatusNotFound,
			Error:    "NOT_FOUND",
			Message:  "Resource error",
			Location: &resourceLocation{Resource: nfErr.resource, Key: nfErr.key},
		}

	case errors.Is(err, errPayloadTooLarge):
		msg := core.MapError(err)
		return errorResponse{
			Status:  http.StatusRequestEntityTooLarge,
			Error:   "PAYLOAD_TOO_LARGE",
			Message: "Payload too large",
			Action:  msg.Action,
			Code:    msg.Code,

			userMessage: msg.Message,
		}

	case errors.Is(err, core.ErrTooManyImports), errors.Is(err, context.DeadlineExceeded):
		msg := core.MapError(err)
		return errorResponse{
			Status:  http.StatusServiceUnavailable,
			Error:   string(core.ServiceUnavailable),
			Message: "Service error",
			Action:  msg.Action,
			Code:    msg.Code,

			userMessage: msg.Message,
		}

	default:
		msg := core.MapError(err)
		return errorResponse{
			Status:  http.StatusInternalServerError,
			Error:   string(core.ServiceInternal),
			Message: "Server encountered an error processing the request",
			Action:  msg.Action,
			Code:    msg.Code,

			userMessage: msg.Message,
		}
	}
}

// respondError logs err and writes it as JSON or, for HTMX, as a fragment.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp := toErrorResponse(err)

	logger := logging.FromContext(r.Context())
	level := slog.LevelInfo
	if resp.Status >= 500 {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"status", resp.Status,
		"error_type", resp.Error,
		"code", resp.Code,
		"error", err.Error(),
	)

	if resp.Status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}

	if isHTMX(r) {
		message := resp.Message
		if resp.userMessage != "" {
			message = resp.userMessage
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(resp.Status)
		if err := views.ErrorAlert(message, resp.Action, resp.Code, resp.Issues).Render(r.Context(), w); err != nil {
			logger.Error("render error fragment", "error", err)
		}
		return
	}

	writeJSONStatus(w, resp.Status, resp)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
