// Package notify exposes the HTTP hook the backend calls once a user has
// authorized on hh.ru. The bot answers with a button that starts the search.
package notify

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zinin/hh-job-bot/internal/telegram"
)

const (
	// TokenHeader carries the optional shared secret.
	TokenHeader = "X-Notify-Token"

	// CallbackStartSearch must match the data the bot router listens for.
	CallbackStartSearch = "start_search"

	MsgAuthorized   = "✅ Авторизация на hh.ru прошла успешно!\n\nНажми кнопку ниже, чтобы начать поиск вакансий:"
	StartButtonText = "🔍 Начать поиск"

	shutdownTimeout = 10 * time.Second
)

// Messenger sends the post-authorization message
type Messenger interface {
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
}

// Handler serves the notify routes
type Handler struct {
	messenger Messenger
	token     string
}

// NewHandler creates a Handler. An empty token disables the secret check.
func NewHandler(messenger Messenger, token string) *Handler {
	return &Handler{messenger: messenger, token: token}
}

// Routes returns the chi router with middleware and routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the notify endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/notify/{telegramID}", h.Notify)
}

// Notify tells the user authorization succeeded.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}

	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegramID"), 10, 64)
	if err != nil || telegramID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid telegram id"})
		return
	}

	kb := telegram.NewKeyboard().Button(StartButtonText, CallbackStartSearch).Build()
	if err := h.messenger.SendWithKeyboard(telegramID, telegram.EscapeMarkdownV2(MsgAuthorized), kb); err != nil {
		slog.Error("Failed to notify user", "user_id", telegramID, "request_id", chiMiddleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "telegram delivery failed"})
		return
	}

	slog.Info("Authorization notice sent", "user_id", telegramID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	got := r.Header.Get(TokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

// Server runs the notify handler on addr
type Server struct {
	srv *http.Server
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, h *Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Notify server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Notify server stopped")
	return nil
}
