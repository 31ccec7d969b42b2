package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlanMartines/ifpbbot/internal/domain"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sessions.json")
}

func TestFileStoreCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFile(tempStorePath(t))
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)
	seed := domain.NewSession("telegram123", "telegram", now, map[string]any{"name": "Ana"})

	created, err := s.CreateIfAbsent(ctx, "telegram123", seed)
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.MessageCount)
	assert.True(t, created.FirstInteraction.Equal(created.LastInteraction))

	// A second create with a different seed must return the stored session.
	later := domain.NewSession("telegram123", "telegram", now.Add(time.Hour), nil)
	got, err := s.CreateIfAbsent(ctx, "telegram123", later)
	require.NoError(t, err)
	assert.True(t, got.FirstInteraction.Equal(now))
	assert.Equal(t, "Ana", got.Extra["name"])
}

func TestFileStoreUpdatePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := tempStorePath(t)

	s, err := OpenFile(path)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err = s.CreateIfAbsent(ctx, "telegram42", domain.NewSession("telegram42", "telegram", now, nil))
	require.NoError(t, err)

	contexts := []json.RawMessage{json.RawMessage(`{"name":"ctx-a"}`)}
	err = s.Update(ctx, "telegram42", func(sess *domain.Session) {
		sess.Contexts = contexts
		sess.MessageCount++
		sess.LastInteraction = now.Add(time.Minute)
	})
	require.NoError(t, err)

	reopened, err := OpenFile(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "telegram42")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.MessageCount)
	require.Len(t, got.Contexts, 1)
	assert.JSONEq(t, `{"name":"ctx-a"}`, string(got.Contexts[0]))
	assert.True(t, got.LastInteraction.Equal(now.Add(time.Minute)))
}

func TestFileStoreGetAbsent(t *testing.T) {
	s, err := OpenFile(tempStorePath(t))
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFileStoreRefusesCorruptFile(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"telegram1": {`), 0o644))

	_, err := OpenFile(path)
	assert.ErrorIs(t, err, domain.ErrCorruptStore)
}

func TestFileStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFile(tempStorePath(t))
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = s.CreateIfAbsent(ctx, "k", domain.NewSession("k", "telegram", now, nil))
	require.NoError(t, err)

	first, err := s.Get(ctx, "k")
	require.NoError(t, err)
	first.MessageCount = 99
	first.Contexts = append(first.Contexts, json.RawMessage(`{}`))

	second, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.MessageCount)
	assert.Empty(t, second.Contexts)
}
