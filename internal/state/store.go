package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fun-bot/internal/domain"
)

// Property scopes used to derive storage keys.
const (
	DialogStateProperty = "dialogState"
	UserProfileProperty = "user"
)

// ErrInvalidKey is returned when a conversation or user id is blank.
var ErrInvalidKey = errors.New("state: id must not be empty")

// Backend is the key-value persistence contract. Get reports ok=false for an
// absent key.
type Backend interface {
	Get(ctx context.Context, key string) (blob []byte, ok bool, err error)
	Put(ctx context.Context, key string, blob []byte) error
}

// Store loads and saves conversation and user state. Callers load once at the
// start of a turn and save once at the end; the store keeps no cache.
type Store struct {
	backend Backend
}

// New creates a Store over the given backend.
func New(backend Backend) (*Store, error) {
	if backend == nil {
		return nil, errors.New("state: backend must not be nil")
	}
	return &Store{backend: backend}, nil
}

// Key returns the storage key for a property scope and id.
func Key(scope, id string) string {
	return scope + "#" + id
}

// LoadConversation returns the dialog state for a conversation, or an empty
// state when none has been saved yet.
func (s *Store) LoadConversation(ctx context.Context, conversationID string) (domain.DialogState, error) {
	var st domain.DialogState
	if err := s.load(ctx, DialogStateProperty, conversationID, &st); err != nil {
		return domain.DialogState{}, fmt.Errorf("state: LoadConversation: %w", err)
	}
	return st, nil
}

// SaveConversation persists the full dialog state for a conversation.
func (s *Store) SaveConversation(ctx context.Context, conversationID string, st domain.DialogState) error {
	if err := s.save(ctx, DialogStateProperty, conversationID, st); err != nil {
		return fmt.Errorf("state: SaveConversation: %w", err)
	}
	return nil
}

// LoadUser returns the profile for a user, or a fresh profile carrying only
// the user id.
func (s *Store) LoadUser(ctx context.Context, userID string) (domain.UserProfile, error) {
	p := domain.UserProfile{UserID: userID}
	if err := s.load(ctx, UserProfileProperty, userID, &p); err != nil {
		return domain.UserProfile{}, fmt.Errorf("state: LoadUser: %w", err)
	}
	return p, nil
}

// SaveUser persists the full user profile.
func (s *Store) SaveUser(ctx context.Context, userID string, p domain.UserProfile) error {
	if err := s.save(ctx, UserProfileProperty, userID, p); err != nil {
		return fmt.Errorf("state: SaveUser: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, scope, id string, into any) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidKey
	}
	blob, ok, err := s.backend.Get(ctx, Key(scope, id))
	if err != nil {
		return err
	}
	if !ok || len(blob) == 0 {
		return nil
	}
	if err := json.Unmarshal(blob, into); err != nil {
		return fmt.Errorf("decode %s: %w", scope, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, scope, id string, v any) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidKey
	}
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", scope, err)
	}
	return s.backend.Put(ctx, Key(scope, id), blob)
}
