package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Chain string `json:"chain"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	chainStatus := "connected"
	if _, err := s.chain.BlockNumber(r.Context()); err != nil {
		chainStatus = "disconnected"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  healthServices{Chain: chainStatus},
	})
}
