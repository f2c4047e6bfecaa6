package handlers

import (
	"context"
	"net/http"

	"github.com/nikhilbhutani/promptrelay/internal/diagnostics"
)

type Prober interface {
	Run(ctx context.Context) diagnostics.Report
}

type DiagnosticsHandler struct {
	prober Prober
}

func NewDiagnosticsHandler(p Prober) *DiagnosticsHandler {
	return &DiagnosticsHandler{prober: p}
}

// TestAPI reports reachability of the probe candidates.
func (h *DiagnosticsHandler) TestAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.prober.Run(r.Context()))
}
