package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session id is not in the store.
var ErrNotFound = errors.New("session not found")

// DefaultKey is the storage key sessions are kept under.
const DefaultKey = "chatSessions"

// Store persists the whole ordered session list under one key.
// Writes replace the entire list; there are no partial updates.
type Store interface {
	// ReadAll returns every stored session in list order. A store that
	// has never been written returns an empty list.
	ReadAll(ctx context.Context) ([]Session, error)

	// WriteAll replaces the stored list with sessions.
	WriteAll(ctx context.Context, sessions []Session) error
}

// Get reads the list and returns the session with id.
func Get(ctx context.Context, store Store, id string) (Session, error) {
	list, err := store.ReadAll(ctx)
	if err != nil {
		return Session{}, err
	}
	idx := Find(list, id)
	if idx < 0 {
		return Session{}, ErrNotFound
	}
	return list[idx], nil
}
