package web

import (
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/productimport/internal/core"
	"github.com/JonMunkholm/productimport/internal/web/views"
)

// handleIndex serves the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	templ.Handler(views.UploadPage(s.cfg.Import.MaxFileSize)).ServeHTTP(w, r)
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database,omitempty"`
	Imports  core.ImportLimiterStatus `json:"imports"`
}

// handleHealth reports import capacity and, when configured, database
// reachability. An unreachable database answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Imports: s.service.Limiter().Status(),
	}
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSONStatus(w, status, resp)
}
