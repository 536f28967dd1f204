// Package server exposes the health assistant over HTTP. Unlike the single
// shared history a naive web chat would use, every client gets an isolated
// session keyed by a server-issued identifier.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arovik/healthmate/internal/agent"
	"github.com/arovik/healthmate/internal/config"
	"github.com/arovik/healthmate/internal/openai"
	"github.com/arovik/healthmate/internal/session"
	"github.com/arovik/healthmate/internal/tools"
	"go.uber.org/zap"
)

// Server serves the chat and symptom-log endpoints.
type Server struct {
	cfg      config.Config
	client   *openai.Client
	registry *tools.Registry
	store    *session.Store
	logger   *zap.Logger
	http     *http.Server
}

// New creates a server. A nil registry serves the plain chat variant.
func New(cfg config.Config, client *openai.Client, registry *tools.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		client:   client,
		registry: registry,
		store:    session.NewStore(),
		logger:   logger,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /symptoms", s.handleLogSymptom)
	mux.HandleFunc("GET /symptoms", s.handleGetSymptoms)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// ListenAndServe starts the server on the configured address.
func (s *Server) ListenAndServe() error {
	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // two upstream round-trips fit comfortably
	}

	s.logger.Info("http server listening", zap.String("addr", s.cfg.Server.Addr))
	return s.http.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type symptomRequest struct {
	Symptom   string `json:"symptom"`
	SessionID string `json:"session_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no message provided"})
		return
	}

	sess := s.resolveSession(req.SessionID)

	a := agent.New(agent.Config{
		Client:      s.client,
		Registry:    s.registry,
		Session:     sess,
		Logger:      s.logger,
		Temperature: s.cfg.LLM.Temperature,
		MaxTokens:   s.cfg.LLM.MaxTokens,
	})

	turn, err := a.Chat(r.Context(), req.Message)
	if err != nil {
		s.logger.Error("chat turn failed",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  turn.Answer,
		SessionID: sess.ID,
	})
}

func (s *Server) handleLogSymptom(w http.ResponseWriter, r *http.Request) {
	var req symptomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Symptom == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no symptom provided"})
		return
	}

	sess := s.resolveSession(req.SessionID)
	entry := sess.LogSymptom(req.Symptom)

	s.logger.Info("symptom logged",
		zap.String("session_id", sess.ID),
		zap.String("symptom", entry.Symptom))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Symptom logged",
		"session_id": sess.ID,
	})
}

func (s *Server) handleGetSymptoms(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(r.URL.Query().Get("session_id"))
	writeJSON(w, http.StatusOK, map[string]any{
		"symptoms":   sess.Symptoms(),
		"session_id": sess.ID,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveSession returns the existing session for id, or issues a new one.
func (s *Server) resolveSession(id string) *session.Session {
	return s.store.GetOrCreate(id, agent.SystemPrompt(s.registry != nil))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
