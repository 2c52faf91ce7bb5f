package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/models"
)

const healthPingTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, models.HealthResponse{Status: "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}
