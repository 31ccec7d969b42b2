// Package actions runs intent-triggered side effects. Failures never reach
// the end user; the reply pipeline does not depend on action results.
package actions

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AlanMartines/ifpbbot/internal/nlu"
)

// Meta carries turn metadata into an action handler.
type Meta struct {
	ConversationID string
	Platform       string
	Text           string
}

// Handler reacts to a detected intent.
type Handler func(ctx context.Context, result *nlu.QueryResult, meta Meta) error

// Runner is the orchestrator's view of action execution.
type Runner interface {
	Run(ctx context.Context, result *nlu.QueryResult, meta Meta)
}

// Registry maps intent action tags to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(action string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = h
}

// Run invokes the handler registered for the reply's action tag, if any.
// Errors and panics are logged and swallowed.
func (r *Registry) Run(ctx context.Context, result *nlu.QueryResult, meta Meta) {
	if result == nil || result.Action == "" {
		return
	}

	r.mu.RLock()
	h, ok := r.handlers[result.Action]
	r.mu.RUnlock()
	if !ok {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in action handler", "action", result.Action, "panic", rec)
		}
	}()

	if err := h(ctx, result, meta); err != nil {
		slog.Error("action handler failed",
			"action", result.Action,
			"intent", result.Intent.DisplayName,
			"error", err,
		)
	}
}
