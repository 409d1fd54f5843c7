package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Record actions.
	mux.HandleFunc("GET /{$}", s.handleGet)
	mux.HandleFunc("POST /{$}", s.handlePost)

	// Health check and metrics.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Stored files (local and memory drivers).
	if s.files != nil {
		mux.HandleFunc("GET /files/{key...}", s.handleFile)
	}

	return mux
}
