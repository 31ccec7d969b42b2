package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlanMartines/ifpbbot/internal/domain"
)

// PostgresStore keeps one row per session. Callers hold the per-key lock
// across read-modify-write, so Update can be a plain select-then-update.
type PostgresStore struct {
	pool  *pgxpool.Pool
	locks *keyedMutex
}

// NewPostgres connects, applies migrations, and fails startup on any of it.
func NewPostgres(ctx context.Context, databaseURL string, migrations fs.FS) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(databaseURL, migrations); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, locks: newKeyedMutex()}, nil
}

func runMigrations(databaseURL string, migrations fs.FS) error {
	d, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*domain.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT key, platform, first_interaction, last_interaction, message_count, contexts, extra
		 FROM sessions WHERE key = $1`, key)
	return scanSession(row)
}

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, key string, seed *domain.Session) (*domain.Session, error) {
	contexts, extra, err := encodeSessionJSON(seed)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (key, platform, first_interaction, last_interaction, message_count, contexts, extra)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (key) DO NOTHING`,
		key, seed.Platform, seed.FirstInteraction, seed.LastInteraction, seed.MessageCount, contexts, extra)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return s.Get(ctx, key)
}

func (s *PostgresStore) Update(ctx context.Context, key string, mutate Mutator) error {
	sess, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	mutate(sess)

	contexts, extra, err := encodeSessionJSON(sess)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions
		 SET platform = $2, first_interaction = $3, last_interaction = $4,
		     message_count = $5, contexts = $6, extra = $7
		 WHERE key = $1`,
		key, sess.Platform, sess.FirstInteraction, sess.LastInteraction, sess.MessageCount, contexts, extra)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) Acquire(key string) func() {
	return s.locks.acquire(key)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		sess         domain.Session
		contextsJSON []byte
		extraJSON    []byte
	)
	err := row.Scan(&sess.Key, &sess.Platform, &sess.FirstInteraction, &sess.LastInteraction,
		&sess.MessageCount, &contextsJSON, &extraJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.Contexts = []json.RawMessage{}
	if len(contextsJSON) > 0 {
		if err := json.Unmarshal(contextsJSON, &sess.Contexts); err != nil {
			return nil, fmt.Errorf("decode session contexts: %w", err)
		}
	}
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &sess.Extra); err != nil {
			return nil, fmt.Errorf("decode session extra: %w", err)
		}
	}
	return &sess, nil
}

func encodeSessionJSON(sess *domain.Session) (contexts, extra []byte, err error) {
	contexts, err = json.Marshal(sess.Contexts)
	if err != nil {
		return nil, nil, fmt.Errorf("encode session contexts: %w", err)
	}
	if sess.Extra != nil {
		extra, err = json.Marshal(sess.Extra)
		if err != nil {
			return nil, nil, fmt.Errorf("encode session extra: %w", err)
		}
	}
	return contexts, extra, nil
}
