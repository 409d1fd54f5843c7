package server

import (
	"net/http"

	"intake/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "ok"})
}
