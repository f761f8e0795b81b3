// Package api exposes the shopping assistant over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/agents/orchestrator"
	statex "github.com/tanpawarit/Chative-Shopping-Assistant/agent/state"
)

const maxBodyBytes = 64 << 10

// Assistant is the conversation surface the handlers drive.
type Assistant interface {
	Chat(ctx context.Context, sessionID string, text string) string
	SessionInfo(ctx context.Context, sessionID string) (orchestrator.SessionInfo, error)
}

type Handler struct {
	assistant Assistant
}

func NewHandler(assistant Assistant) *Handler {
	return &Handler{assistant: assistant}
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// Routes builds the router with access logging on the global logger.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/sessions", h.createSession)
	r.Get("/sessions/{sessionID}", h.sessionInfo)
	r.Post("/sessions/{sessionID}/messages", h.postMessage)

	return r
}

func (h *Handler) createSession(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusCreated, map[string]string{"session_id": uuid.NewString()})
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))

	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("session_id", sessionID)
	})

	reply := h.assistant.Chat(r.Context(), sessionID, req.Message)
	JSON(w, http.StatusOK, messageResponse{SessionID: sessionID, Reply: reply})
}

func (h *Handler) sessionInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.assistant.SessionInfo(r.Context(), chi.URLParam(r, "sessionID"))
	switch {
	case err == nil:
		JSON(w, http.StatusOK, info)
	case errors.Is(err, statex.ErrStateNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.Is(err, orchestrator.ErrInvalidSession):
		Error(w, http.StatusBadRequest, "session id is required")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("session info failed")
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
