package handlers

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status         string `json:"status"`
	DatabaseServer string `json:"database_server"`
	DatabaseName   string `json:"database_name"`
}

// GetHealth reports liveness and whether the graph store answers a ping.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:         "healthy",
		DatabaseServer: s.db.Endpoint(),
		DatabaseName:   s.db.DatabaseName(),
	}
	if err := s.db.Ping(ctx); err != nil {
		s.log.Error("health check: database ping failed", "error", err)
		resp.Status = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
