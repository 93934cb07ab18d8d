package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStore connects to TEST_REDIS_ADDR; the test is skipped without it.
func newStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewStore(rdb, time.Minute)
}

func TestSessionRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	sid, err := s.Create(ctx, Identity{UserID: 9, Name: "Ada", Role: RoleAdmin})
	require.NoError(t, err)

	id, err := s.Lookup(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id.UserID)
	assert.True(t, id.IsAdmin())

	require.NoError(t, s.Delete(ctx, sid))
	_, err = s.Lookup(ctx, sid)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLookupEmptyID(t *testing.T) {
	s := NewStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), time.Minute)
	_, err := s.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCreateRejectsAnonymous(t *testing.T) {
	s := NewStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), time.Minute)
	_, err := s.Create(context.Background(), Identity{Name: "nobody"})
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, Identity{UserID: 1, Role: "customer"}.IsAdmin())
}
