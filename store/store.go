// Package store owns the canonical client record list. Each user's board is a
// single blob slot; mutations run under a per-user lock and persist the full
// list before returning, so the stored blob always matches in-memory state.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crm-api/domain"
)

// Blob abstracts the opaque key-value persistence holding record lists.
type Blob interface {
	LoadClients(ctx context.Context, userID string) ([]domain.Client, error)
	SaveClients(ctx context.Context, userID string, clients []domain.Client) error
}

// Publisher announces that a user's board changed after a persisted mutation.
type Publisher interface {
	BoardUpdated(ctx context.Context, userID string)
}

// NotFoundError signals that an update or delete targeted a missing record.
// It is non-fatal: callers surface a message and no state changes.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string   { return fmt.Sprintf("client %s not found", e.ID) }
func (e NotFoundError) ClientNotFound() {}

type board struct {
	mu      sync.Mutex
	loaded  bool
	clients []domain.Client
}

// Store is the record store. It keeps one in-memory list per user, loaded
// lazily from the blob backend.
type Store struct {
	blob Blob
	pub  Publisher

	mu     sync.Mutex
	boards map[string]*board
}

// New creates a Store over the given blob backend. pub may be nil when no
// update fan-out is wanted.
func New(blob Blob, pub Publisher) *Store {
	if blob == nil {
		panic("store.New: blob backend is nil")
	}
	return &Store{blob: blob, pub: pub, boards: make(map[string]*board)}
}

func (s *Store) board(userID string) *board {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[userID]
	if !ok {
		b = &board{}
		s.boards[userID] = b
	}
	return b
}

// load populates the board from the blob slot once. Missing or malformed
// content arrives from the backend as an empty list, never as a decode error.
func (s *Store) load(ctx context.Context, userID string, b *board) error {
	if b.loaded {
		return nil
	}
	clients, err := s.blob.LoadClients(ctx, userID)
	if err != nil {
		return err
	}
	b.clients = clients
	b.loaded = true
	return nil
}

func (s *Store) persist(ctx context.Context, userID string, b *board) error {
	if err := s.blob.SaveClients(ctx, userID, b.clients); err != nil {
		return err
	}
	if s.pub != nil {
		s.pub.BoardUpdated(ctx, userID)
	}
	return nil
}

// List returns a copy of the user's current record list in insertion order.
func (s *Store) List(ctx context.Context, userID string) ([]domain.Client, error) {
	b := s.board(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := s.load(ctx, userID, b); err != nil {
		return nil, err
	}
	out := make([]domain.Client, len(b.clients))
	copy(out, b.clients)
	return out, nil
}

// Insert constructs a new record with a freshly minted ID and creation
// timestamp, appends it and persists. The stored record is returned.
func (s *Store) Insert(ctx context.Context, userID string, fields domain.ClientFields) (domain.Client, error) {
	b := s.board(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := s.load(ctx, userID, b); err != nil {
		return domain.Client{}, err
	}

	client := domain.Client{
		ID:        newClientID(),
		Category:  domain.CategoryProspect,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	client.Merge(fields)

	b.clients = append(b.clients, client)
	if err := s.persist(ctx, userID, b); err != nil {
		b.clients = b.clients[:len(b.clients)-1]
		return domain.Client{}, err
	}
	return client, nil
}

// Update merges the given fields over the record with the matching ID and
// persists. A missing ID yields NotFoundError and no mutation or write.
func (s *Store) Update(ctx context.Context, userID, id string, fields domain.ClientFields) (domain.Client, error) {
	b := s.board(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := s.load(ctx, userID, b); err != nil {
		return domain.Client{}, err
	}

	idx := -1
	for i := range b.clients {
		if b.clients[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return domain.Client{}, NotFoundError{ID: id}
	}

	prev := b.clients[idx]
	b.clients[idx].Merge(fields)
	if err := s.persist(ctx, userID, b); err != nil {
		b.clients[idx] = prev
		return domain.Client{}, err
	}
	return b.clients[idx], nil
}

// Delete removes the record with the matching ID and persists. Deleting an
// absent ID is a no-op, not an error, and skips the write.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	b := s.board(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := s.load(ctx, userID, b); err != nil {
		return err
	}

	idx := -1
	for i := range b.clients {
		if b.clients[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	removed := b.clients[idx]
	b.clients = append(b.clients[:idx], b.clients[idx+1:]...)
	if err := s.persist(ctx, userID, b); err != nil {
		b.clients = append(b.clients[:idx], append([]domain.Client{removed}, b.clients[idx:]...)...)
		return err
	}
	return nil
}

// Invalidate drops the user's in-memory list so the next read reloads from
// the blob backend. Called when another instance reports a board change;
// without it a long-lived stream would keep pushing the pre-mutation board.
func (s *Store) Invalidate(userID string) {
	s.mu.Lock()
	b, ok := s.boards[userID]
	s.mu.Unlock()
	if !ok {
		return
	}
	b.mu.Lock()
	b.loaded = false
	b.clients = nil
	b.mu.Unlock()
}

// Get returns the record with the matching ID.
func (s *Store) Get(ctx context.Context, userID, id string) (domain.Client, error) {
	b := s.board(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := s.load(ctx, userID, b); err != nil {
		return domain.Client{}, err
	}
	for i := range b.clients {
		if b.clients[i].ID == id {
			return b.clients[i], nil
		}
	}
	return domain.Client{}, NotFoundError{ID: id}
}
