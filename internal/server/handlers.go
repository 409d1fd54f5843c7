package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"intake/internal/api"
	"intake/internal/blobstore"
	"intake/internal/models"
	"intake/internal/records"
)

const (
	actionGet    = "get"
	actionCreate = "create"
	actionUpdate = "update"
	actionPing   = "ping"

	messageRunning = "Web app running"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

func (s *Server) writeErrorReq(w http.ResponseWriter, r *http.Request, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	fields := []any{"status", status, "error", err}
	if r != nil {
		fields = append(fields, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	}
	message := err.Error()
	if status >= 500 {
		s.log().Error("request error", fields...)
		message = "internal error"
	} else {
		s.log().Debug("request rejected", fields...)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Code: errorCode(status)})
}

func errorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "internal"
	default:
		return ""
	}
}

// writeEnvelope answers an action. Action outcomes always travel as HTTP 200.
func writeEnvelope[T any](s *Server, w http.ResponseWriter, r *http.Request, action string, started time.Time, env api.Envelope[T]) {
	s.metrics.observeAction(action, env.OK, started)
	if lw, ok := w.(*loggingResponseWriter); ok {
		lw.action = action
	}
	if !env.OK {
		s.log().Debug("action failed", "action", action, "message", env.Message, "path", r.URL.Path)
	}
	s.writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	query := r.URL.Query()
	action := normalizeAction(query.Get("action"), actionPing)

	if action != actionGet {
		writeEnvelope(s, w, r, actionPing, started, api.Envelope[struct{}]{OK: true, Message: messageRunning})
		return
	}
	env := s.service.Get(r.Context(), query.Get("token"))
	writeEnvelope(s, w, r, actionGet, started, env)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	form, err := readForm(r, s.multipartMaxMemory)
	if err != nil {
		action := normalizeAction(r.URL.Query().Get("action"), actionCreate)
		if action != actionUpdate {
			action = actionCreate
		}
		s.log().Warn("read request body", "error", err, "remote_addr", r.RemoteAddr)
		writeEnvelope(s, w, r, action, started, api.Envelope[api.RecordData]{OK: false, Message: formErrorMessage(err)})
		return
	}
	defer form.cleanup()

	if normalizeAction(form.Get("action"), actionCreate) == actionUpdate {
		env := s.service.Update(r.Context(), records.UpdateInput{
			Token:  form.Get("token"),
			Name:   optionalParam(form, "name"),
			Age:    optionalParam(form, "age"),
			Gender: optionalParam(form, "gender"),
			Notes:  optionalParam(form, "notes"),
			Files:  form.files,
		})
		writeEnvelope(s, w, r, actionUpdate, started, env)
		return
	}

	env := s.service.Create(r.Context(), records.CreateInput{
		Name:    form.Get("name"),
		Age:     form.Get("age"),
		Gender:  form.Get("gender"),
		Notes:   form.Get("notes"),
		Files:   form.files,
		BaseURL: s.baseURL,
	})
	writeEnvelope(s, w, r, actionCreate, started, env)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	shared, err := s.files.IsShared(r.Context(), key)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.writeErrorReq(w, r, http.StatusInternalServerError, fmt.Errorf("file lookup %s: %w", key, err))
		return
	}
	if err != nil || !shared {
		s.writeErrorReq(w, r, http.StatusNotFound, errors.New("file not found"))
		return
	}

	rc, opts, err := s.files.Open(r.Context(), key)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusNotFound, errors.New("file not found"))
		return
	}
	defer rc.Close()

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", time.Time{}, rs)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.log().Debug("stream file", "key", key, "error", err)
	}
}

func normalizeAction(raw, fallback string) string {
	action := strings.ToLower(strings.TrimSpace(raw))
	if action == "" {
		return fallback
	}
	return action
}

func optionalParam(form *requestForm, key string) models.Optional[string] {
	value, ok := form.Lookup(key)
	if !ok {
		return models.None[string]()
	}
	return models.Some(value)
}
