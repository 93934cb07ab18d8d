// Package session stores authenticated identities in Redis under opaque
// session ids.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RoleAdmin grants access to the administrative routes.
const RoleAdmin = "admin"

// Identity is the caller attached to a session.
type Identity struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the identity may use administrative routes.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// ErrNoSession indicates an unknown or expired session id.
var ErrNoSession = errors.New("session not found")

// Store keeps sessions in Redis as "session:<id>" keys with a TTL.
type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewStore returns a Store whose sessions expire after ttl.
func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(id string) string { return "session:" + id }

// Create stores id and returns a new session id. It is called by the auth
// service after it has verified credentials.
func (s *Store) Create(ctx context.Context, id Identity) (string, error) {
	if id.UserID <= 0 {
		return "", fmt.Errorf("session without user")
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	sid := uuid.NewString()
	if err := s.rdb.Set(ctx, key(sid), raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

// Lookup returns the identity for sid.
func (s *Store) Lookup(ctx context.Context, sid string) (Identity, error) {
	if sid == "" {
		return Identity{}, ErrNoSession
	}
	raw, err := s.rdb.Get(ctx, key(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrNoSession
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load session: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil || id.UserID <= 0 {
		return Identity{}, ErrNoSession
	}
	return id, nil
}

// Delete ends a session.
func (s *Store) Delete(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, key(sid)).Err()
}
