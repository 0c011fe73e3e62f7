package history

import (
	"context"
	"sync"
)

// LazyStore opens the database at path on the first Begin call. Runs that
// fail before starting never create the database file.
type LazyStore struct {
	path string

	mu    sync.Mutex
	store *Store
}

// NewLazy returns a recorder backed by the database at path.
func NewLazy(path string) *LazyStore {
	return &LazyStore{path: path}
}

// Begin opens the database if needed and records a new running export.
func (l *LazyStore) Begin(ctx context.Context, source, workDir string) (string, error) {
	l.mu.Lock()
	if l.store == nil {
		store, err := Open(l.path)
		if err != nil {
			l.mu.Unlock()
			return "", err
		}
		l.store = store
	}
	store := l.store
	l.mu.Unlock()
	return store.Begin(ctx, source, workDir)
}

// LevelDone forwards to the opened store.
func (l *LazyStore) LevelDone(ctx context.Context, id string) error {
	store := l.opened()
	if store == nil {
		return ErrNotFound
	}
	return store.LevelDone(ctx, id)
}

// Finish forwards to the opened store.
func (l *LazyStore) Finish(ctx context.Context, id string, runErr error) error {
	store := l.opened()
	if store == nil {
		return ErrNotFound
	}
	return store.Finish(ctx, id, runErr)
}

// Close closes the database if it was opened.
func (l *LazyStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}

func (l *LazyStore) opened() *Store {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store
}
