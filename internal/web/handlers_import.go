package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/productimport/internal/core"
	"github.com/JonMunkholm/productimport/internal/logging"
	"github.com/JonMunkholm/productimport/internal/web/views"
)

// multipartMemory is the part of a form kept in memory; larger files spill
// to temporary files.
const multipartMemory = 8 << 20

// handleImport accepts a multipart form with a "strategy" field and a
// "file" part and answers 201 with the import result. Missing or invalid
// form parts are reported by the service as validation errors.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	req, cleanup, err := readImportForm(r, s.cfg.Import.MaxFileSize)
	defer cleanup()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Debug("import received",
		"filename", req.Filename,
		"strategy", req.Strategy,
	)

	res, err := s.service.Import(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		if err := views.ImportSummary(res).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render import summary", "error", err)
		}
		return
	}

	writeJSONStatus(w, http.StatusCreated, res)
}

// readImportForm parses the multipart body, which r.Body caps at limit
// bytes. A request that is not multipart, or lacks a part, yields an
// ImportRequest with the missing fields empty. The returned cleanup must
// always be called.
func readImportForm(r *http.Request, limit int64) (core.ImportRequest, func(), error) {
	var req core.ImportRequest
	cleanup := func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return req, cleanup, fmt.Errorf("%w: %w", errPayloadTooLarge, err)
		case bodyOverLimit(r, limit):
			return req, cleanup, fmt.Errorf("%w: body exceeds %d bytes", errPayloadTooLarge, limit)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return req, cleanup, nil
		default:
			return req, cleanup, &core.ValidationError{
				Segment: core.SegmentBody,
				Issues: []core.ValidationIssue{{
					Message: "Expected a valid multipart form body",
					Type:    core.IssueInvalidFormat,
				}},
			}
		}
	}

	form := r.MultipartForm
	cleanup = func() {
		if err := form.RemoveAll(); err != nil {
			logging.FromContext(r.Context()).Warn("remove multipart temp files", "error", err)
		}
	}

	if values := form.Value["strategy"]; len(values) > 0 {
		req.Strategy = values[0]
	}

	if headers := form.File["file"]; len(headers) > 0 {
		f, err := headers[0].Open()
		if err != nil {
			return req, cleanup, fmt.Errorf("open uploaded file: %w", err)
		}
		prev := cleanup
		cleanup = func() {
			f.Close()
			prev()
		}
		req.Filename = headers[0].Filename
		req.Body = f
	}

	return req, cleanup, nil
}

// bodyOverLimit reports whether the size cap cut the body short. The cut
// can land inside part headers, where the multipart reader reports a
// malformed header instead of the size error.
func bodyOverLimit(r *http.Request, limit int64) bool {
	if r.ContentLength > limit {
		return true
	}
	var maxErr *http.MaxBytesError
	_, err := io.Copy(io.Discard, r.Body)
	return errors.As(err, &maxErr)
}
