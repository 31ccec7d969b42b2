// Package webchat serves the browser chat surface plus the status and
// metrics endpoints.
package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/AlanMartines/ifpbbot/internal/config"
	"github.com/AlanMartines/ifpbbot/internal/domain"
	"github.com/AlanMartines/ifpbbot/internal/observability"
)

// Conversation is the webchat's view of the pipeline entry point.
type Conversation interface {
	HandleUtterance(ctx context.Context, text, conversationID, platform string, extra map[string]any) []domain.Message
}

type Server struct {
	cfg         *config.Config
	conv        Conversation
	upgrader    websocket.Upgrader
	startedAt   time.Time
	backend     string
	botUsername string
}

func New(cfg *config.Config, conv Conversation, backend, botUsername string) *Server {
	return &Server{
		cfg:         cfg,
		conv:        conv,
		startedAt:   time.Now(),
		backend:     backend,
		botUsername: botUsername,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The web chat is an open surface; any page may embed it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())
	r.Get("/chat", s.handleChat)
	return r
}

// Start serves until ctx is canceled, then drains for the shutdown grace
// period.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusResponse struct {
	Status         string `json:"status"`
	Bot            string `json:"bot"`
	SessionBackend string `json:"sessionBackend"`
	UptimeSeconds  int64  `json:"uptimeSeconds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statusResponse{
		Status:         "online",
		Bot:            s.botUsername,
		SessionBackend: s.backend,
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
	}); err != nil {
		slog.Error("write status response", "error", err)
	}
}
