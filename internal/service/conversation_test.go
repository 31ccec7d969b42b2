package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlanMartines/ifpbbot/internal/actions"
	"github.com/AlanMartines/ifpbbot/internal/domain"
	"github.com/AlanMartines/ifpbbot/internal/nlu"
	"github.com/AlanMartines/ifpbbot/internal/store"
)

type fakeNLU struct {
	detectFn      func(sessionKey, text string) (*nlu.QueryResult, error)
	detectedKeys  []string
	detectedTexts []string
	replayed      [][]json.RawMessage
	replayErr     error
}

func (f *fakeNLU) DetectIntent(_ context.Context, sessionKey, text string) (*nlu.QueryResult, error) {
	f.detectedKeys = append(f.detectedKeys, sessionKey)
	f.detectedTexts = append(f.detectedTexts, text)
	return f.detectFn(sessionKey, text)
}

func (f *fakeNLU) SetContexts(_ context.Context, _ string, contexts []json.RawMessage) error {
	f.replayed = append(f.replayed, contexts)
	return f.replayErr
}

func replyWith(text string, contexts ...string) *nlu.QueryResult {
	out := make([]json.RawMessage, 0, len(contexts))
	for _, c := range contexts {
		out = append(out, json.RawMessage(c))
	}
	return &nlu.QueryResult{
		FulfillmentMessages: []nlu.Fulfillment{{Text: &nlu.FulfillmentText{Text: []string{text}}}},
		OutputContexts:      out,
	}
}

func newTestService(t *testing.T, client nlu.Client, runner actions.Runner) (*ConversationService, store.Store, *time.Time) {
	t.Helper()

	st, err := store.OpenFile(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := NewConversationService(st, client, runner, nil, 5*time.Minute)
	svc.now = func() time.Time { return now }
	return svc, st, &now
}

func TestHandleUtteranceCreatesSessionAndCounts(t *testing.T) {
	ctx := context.Background()
	client := &fakeNLU{detectFn: func(_, _ string) (*nlu.QueryResult, error) {
		return replyWith("olá!", `{"name":"saudacao"}`), nil
	}}
	svc, st, _ := newTestService(t, client, nil)

	msgs := svc.HandleUtterance(ctx, "oi", "123", "telegram", map[string]any{"name": "Ana"})

	require.Len(t, msgs, 1)
	assert.Equal(t, "olá!", msgs[0].Text)
	assert.Equal(t, []string{"telegram123"}, client.detectedKeys)

	sess, err := st.Get(ctx, "telegram123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.MessageCount)
	assert.Equal(t, "telegram", sess.Platform)
	assert.Equal(t, "Ana", sess.Extra["name"])
	require.Len(t, sess.Contexts, 1)
	assert.JSONEq(t, `{"name":"saudacao"}`, string(sess.Contexts[0]))
}

func TestHandleUtteranceReplacesContextsWholesale(t *testing.T) {
	ctx := context.Background()
	turn := 0
	client := &fakeNLU{detectFn: func(_, _ string) (*nlu.QueryResult, error) {
		turn++
		if turn == 1 {
			return replyWith("r1", `{"name":"a"}`, `{"name":"b"}`), nil
		}
		return replyWith("r2", `{"name":"c"}`), nil
	}}
	svc, st, _ := newTestService(t, client, nil)

	for i := 0; i < 2; i++ {
		svc.HandleUtterance(ctx, "oi", "7", "telegram", nil)
	}

	sess, err := st.Get(ctx, "telegram7")
	require.NoError(t, err)
	assert.Equal(t, int64(2), sess.MessageCount)
	require.Len(t, sess.Contexts, 1)
	assert.JSONEq(t, `{"name":"c"}`, string(sess.Contexts[0]))
}

func TestHandleUtteranceReplaysContextsAfterIdle(t *testing.T) {
	ctx := context.Background()
	client := &fakeNLU{detectFn: func(_, _ string) (*nlu.QueryResult, error) {
		return replyWith("ok", `{"name":"stored"}`), nil
	}}
	svc, _, now := newTestService(t, client, nil)

	svc.HandleUtterance(ctx, "oi", "1", "telegram", nil)
	require.Empty(t, client.replayed, "fresh session must not replay")

	// Just under the threshold: no replay.
	*now = now.Add(5*time.Minute - time.Millisecond)
	svc.HandleUtterance(ctx, "ainda aqui", "1", "telegram", nil)
	require.Empty(t, client.replayed)

	// Exactly at the threshold: replay fires with the stored contexts.
	*now = now.Add(5 * time.Minute)
	svc.HandleUtterance(ctx, "voltei", "1", "telegram", nil)
	require.Len(t, client.replayed, 1)
	require.Len(t, client.replayed[0], 1)
	assert.JSONEq(t, `{"name":"stored"}`, string(client.replayed[0][0]))
}

func TestHandleUtteranceReplayFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	client := &fakeNLU{
		detectFn: func(_, _ string) (*nlu.QueryResult, error) {
			return replyWith("segue o jogo"), nil
		},
		replayErr: errors.New("contexts endpoint down"),
	}
	svc, _, now := newTestService(t, client, nil)

	svc.HandleUtterance(ctx, "oi", "9", "telegram", nil)
	*now = now.Add(time.Hour)
	msgs := svc.HandleUtterance(ctx, "voltei", "9", "telegram", nil)

	require.Len(t, msgs, 1)
	assert.Equal(t, "segue o jogo", msgs[0].Text)
}

func TestHandleUtteranceNLUFailureYieldsApology(t *testing.T) {
	ctx := context.Background()
	client := &fakeNLU{detectFn: func(_, _ string) (*nlu.QueryResult, error) {
		return nil, errors.New("backend unreachable")
	}}
	svc, st, _ := newTestService(t, client, nil)

	msgs := svc.HandleUtterance(ctx, "oi", "5", "telegram", nil)

	require.Len(t, msgs, 1)
	assert.Equal(t, domain.TypeText, msgs[0].Type)
	assert.Equal(t, nlu.Apology()[0].Text, msgs[0].Text)

	// The turn failed before the session update.
	sess, err := st.Get(ctx, "telegram5")
	require.NoError(t, err)
	assert.Equal(t, int64(0), sess.MessageCount)
}

func TestHandleUtterancePanicYieldsApology(t *testing.T) {
	ctx := context.Background()
	client := &fakeNLU{detectFn: func(_, _ string) (*nlu.QueryResult, error) {
		panic("nlu client bug")
	}}
	svc, _, _ := newTestService(t, client, nil)

	msgs := svc.HandleUtterance(ctx, "oi", "5", "telegram", nil)

	require.Len(t, msgs, 1)
	assert.Equal(t, nlu.Apology()[0].Text, msgs[0].Text)
}

func TestHandleUtteranceActionFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	client := &fakeNLU{detectFn: func(_, _ string) (*nlu.QueryResult, error) {
		r := replyWith("feito")
		r.Action = "enviar-email"
		return r, nil
	}}

	var gotMeta actions.Meta
	registry := actions.NewRegistry()
	registry.Register("enviar-email", func(_ context.Context, _ *nlu.QueryResult, meta actions.Meta) error {
		gotMeta = meta
		return errors.New("smtp down")
	})

	svc, st, _ := newTestService(t, client, registry)

	msgs := svc.HandleUtterance(ctx, "manda o email", "8", "telegram", nil)

	require.Len(t, msgs, 1)
	assert.Equal(t, "feito", msgs[0].Text)
	assert.Equal(t, "8", gotMeta.ConversationID)
	assert.Equal(t, "telegram", gotMeta.Platform)
	assert.Equal(t, "manda o email", gotMeta.Text)

	// Delivery still counted the turn.
	sess, err := st.Get(ctx, "telegram8")
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.MessageCount)
}

func TestHandleUtteranceSequentialTurnsCount(t *testing.T) {
	ctx := context.Background()
	client := &fakeNLU{detectFn: func(_, _ string) (*nlu.QueryResult, error) {
		return replyWith("ok"), nil
	}}
	svc, st, _ := newTestService(t, client, nil)

	const n = 5
	for i := 0; i < n; i++ {
		svc.HandleUtterance(ctx, "oi", "77", "webchat", nil)
	}

	sess, err := st.Get(ctx, "webchat77")
	require.NoError(t, err)
	assert.Equal(t, int64(n), sess.MessageCount)
}
