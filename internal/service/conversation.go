package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlanMartines/ifpbbot/internal/actions"
	"github.com/AlanMartines/ifpbbot/internal/domain"
	"github.com/AlanMartines/ifpbbot/internal/nlu"
	"github.com/AlanMartines/ifpbbot/internal/observability"
	"github.com/AlanMartines/ifpbbot/internal/store"
)

// ConversationService is the public entry point of the pipeline: one call per
// inbound utterance, coordinating session state, context replay, the NLU
// backend, action side effects, and response normalization.
type ConversationService struct {
	store           store.Store
	nlu             nlu.Client
	actions         actions.Runner
	metrics         *observability.Metrics
	replayThreshold time.Duration
	now             func() time.Time
}

func NewConversationService(st store.Store, client nlu.Client, runner actions.Runner, metrics *observability.Metrics, replayThreshold time.Duration) *ConversationService {
	return &ConversationService{
		store:           st,
		nlu:             client,
		actions:         runner,
		metrics:         metrics,
		replayThreshold: replayThreshold,
		now:             time.Now,
	}
}

// HandleUtterance processes one inbound message and returns the normalized
// reply list. It never fails: any error inside the turn degrades to the
// generic apology message, so renderers always get a valid, non-empty list.
func (s *ConversationService) HandleUtterance(ctx context.Context, text, conversationID, platform string, extra map[string]any) (msgs []domain.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in conversation turn", "platform", platform, "panic", rec)
			s.metrics.IncTurnError()
			msgs = nlu.Apology()
		}
	}()

	msgs, err := s.runTurn(ctx, text, conversationID, platform, extra)
	if err != nil {
		slog.Error("conversation turn failed",
			"platform", platform,
			"conversation", conversationID,
			"error", err,
		)
		s.metrics.IncTurnError()
		return nlu.Apology()
	}

	s.metrics.IncTurn(platform)
	return msgs
}

func (s *ConversationService) runTurn(ctx context.Context, text, conversationID, platform string, extra map[string]any) ([]domain.Message, error) {
	key := domain.SessionKey(platform, conversationID)

	// Serializes the whole read-modify-write against concurrent turns on the
	// same conversation.
	release := s.store.Acquire(key)
	defer release()

	now := s.now()
	sess, err := s.store.CreateIfAbsent(ctx, key, domain.NewSession(key, platform, now, extra))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	// Backends drop in-memory context after an idle window; replay the stored
	// contexts before the new utterance so the conversation resumes where it
	// left off. Replay failure is not worth losing the turn over.
	if shouldReplayContexts(sess.LastInteraction, now, s.replayThreshold) {
		if err := s.nlu.SetContexts(ctx, key, sess.Contexts); err != nil {
			slog.Warn("context replay failed", "key", key, "error", err)
		} else {
			s.metrics.IncContextReplay()
		}
	}

	result, err := s.nlu.DetectIntent(ctx, key, text)
	if err != nil {
		return nil, fmt.Errorf("detect intent: %w", err)
	}

	if s.actions != nil {
		s.actions.Run(ctx, result, actions.Meta{
			ConversationID: conversationID,
			Platform:       platform,
			Text:           text,
		})
	}

	turnEnd := s.now()
	err = s.store.Update(ctx, key, func(sess *domain.Session) {
		sess.Contexts = result.OutputContexts
		if sess.Contexts == nil {
			sess.Contexts = []json.RawMessage{}
		}
		sess.LastInteraction = turnEnd
		sess.MessageCount++
	})
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return nlu.Normalize(result.FulfillmentMessages), nil
}
