// Package store persists conversation sessions keyed by platform + chat ID.
//
// Two interchangeable backends exist: a JSON file loaded whole at startup and
// rewritten on mutation, and a Postgres table with one row per session.
// Picking one is a configuration choice only; the orchestrator sees the same
// contract either way, including per-key mutual exclusion via Acquire.
package store

import (
	"context"

	"github.com/AlanMartines/ifpbbot/internal/domain"
)

// Mutator edits a session in place under the store's key lock.
type Mutator func(*domain.Session)

type Store interface {
	// Get returns a copy of the session, or domain.ErrSessionNotFound.
	Get(ctx context.Context, key string) (*domain.Session, error)

	// CreateIfAbsent stores seed when no session exists for key and returns
	// the stored session either way.
	CreateIfAbsent(ctx context.Context, key string, seed *domain.Session) (*domain.Session, error)

	// Update applies mutate to the stored session and persists the result.
	Update(ctx context.Context, key string, mutate Mutator) error

	// Acquire takes the per-key lock and returns its release func. Callers
	// hold it across a whole read-modify-write turn; concurrent turns on the
	// same conversation would otherwise race on contexts and timestamps.
	Acquire(key string) (release func())

	Close() error
}
