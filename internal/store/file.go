package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/AlanMartines/ifpbbot/internal/domain"
)

// FileStore keeps every session in memory and mirrors the whole table to a
// JSON file on each mutation. Suited to single-instance deployments without
// a database.
type FileStore struct {
	path  string
	mu    sync.RWMutex
	data  map[string]*domain.Session
	locks *keyedMutex
}

// OpenFile loads the session table from path. A missing file starts an empty
// table; a file that exists but does not parse refuses to open rather than
// silently dropping sessions.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{
		path:  path,
		data:  make(map[string]*domain.Session),
		locks: newKeyedMutex(),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, path, err)
	}
	for key, sess := range s.data {
		if sess == nil {
			return nil, fmt.Errorf("%w: %s: null record for key %q", domain.ErrCorruptStore, path, key)
		}
		sess.Key = key
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *FileStore) CreateIfAbsent(_ context.Context, key string, seed *domain.Session) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.data[key]; ok {
		return sess.Clone(), nil
	}
	s.data[key] = seed.Clone()
	if err := s.persistLocked(); err != nil {
		delete(s.data, key)
		return nil, err
	}
	return seed.Clone(), nil
}

func (s *FileStore) Update(_ context.Context, key string, mutate Mutator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data[key]
	if !ok {
		return domain.ErrSessionNotFound
	}
	mutate(sess)
	return s.persistLocked()
}

func (s *FileStore) Acquire(key string) func() {
	return s.locks.acquire(key)
}

func (s *FileStore) Close() error { return nil }

// persistLocked rewrites the table through a temp file so a crash mid-write
// never leaves a truncated table behind.
func (s *FileStore) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "\t")
	if err != nil {
		return fmt.Errorf("encode session table: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sessions-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
