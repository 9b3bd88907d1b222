package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zingerhq/zinger/internal/reconcile"
)

type CronHandler struct {
	runner *reconcile.Runner
	secret string
	logger *slog.Logger
}

// NewCronHandler wires the manual reconciliation trigger. secret may be
// empty, in which case the endpoint is open.
func NewCronHandler(runner *reconcile.Runner, secret string, logger *slog.Logger) *CronHandler {
	return &CronHandler{runner: runner, secret: secret, logger: logger}
}

// Trigger handles GET /api/cron, the entry point for an external
// scheduler. Per-plan failures do not fail the request; only a scan that
// could not enumerate plans at all returns 500.
func (h *CronHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
	}

	now := time.Now()
	report, err := h.runner.Run(r.Context(), now)
	if err != nil {
		h.logger.Error("reconciliation run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Reconciliation failed",
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Reconciliation complete",
		"timestamp": now.UTC().Format(time.RFC3339),
		"report":    report,
	})
}
