package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Pinger reports database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler reports whether the gateway's collaborators are reachable.
// The face service is advisory: verification degrades gracefully without
// it, so an unreachable sidecar is reported but does not fail readiness.
type ReadyHandler struct {
	DB   Pinger
	Face FaceMatcher
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK          bool     `json:"ok"`
		Database    bool     `json:"database"`
		FaceService bool     `json:"face_service"`
		Issues      []string `json:"issues,omitempty"`
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := readyResp{Database: true, FaceService: true}
	if h.DB != nil {
		if err := h.DB.Ping(ctx); err != nil {
			resp.Database = false
			resp.Issues = append(resp.Issues, "database unreachable")
		}
	}
	if h.Face != nil && !h.Face.Healthy(ctx) {
		resp.FaceService = false
		resp.Issues = append(resp.Issues, "face service unreachable")
	}

	resp.OK = resp.Database
	status := http.StatusOK
	if !resp.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
