package presence

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gogotex/collabedit/internal/collab"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newMirror(t *testing.T, ttl time.Duration) (*RedisMirror, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisMirror(client, "", ttl), m
}

func TestRedisMirrorJoinLeave(t *testing.T) {
	mirror, m := newMirror(t, time.Minute)
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, mirror.Joined(ctx, "d1", "c2", collab.User{ID: "b", Username: "bob", JoinedAt: t0.Add(time.Second)}))
	require.NoError(t, mirror.Joined(ctx, "d1", "c1", collab.User{ID: "a", Username: "alice", JoinedAt: t0}))
	require.True(t, m.Exists("presence:d1"))

	users, err := mirror.Members(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "alice", users[0].Username)
	require.Equal(t, "bob", users[1].Username)

	require.NoError(t, mirror.Left(ctx, "d1", "c1"))
	users, err = mirror.Members(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "bob", users[0].Username)

	// leaving twice is harmless
	require.NoError(t, mirror.Left(ctx, "d1", "c1"))
	require.NoError(t, mirror.Ping(ctx))
}

func TestRedisMirrorExpires(t *testing.T) {
	mirror, m := newMirror(t, 2*time.Second)
	ctx := context.Background()
	require.NoError(t, mirror.Joined(ctx, "d1", "c1", collab.User{ID: "a", Username: "alice"}))

	m.FastForward(3 * time.Second)

	users, err := mirror.Members(ctx, "d1")
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestRedisMirrorSkipsCorruptEntries(t *testing.T) {
	mirror, m := newMirror(t, 0)
	ctx := context.Background()
	m.HSet("presence:d1", "c9", "not-json")
	require.NoError(t, mirror.Joined(ctx, "d1", "c1", collab.User{ID: "a", Username: "alice"}))

	users, err := mirror.Members(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestRedisMirrorTouchExtendsTTL(t *testing.T) {
	mirror, m := newMirror(t, 3*time.Second)
	ctx := context.Background()
	require.Equal(t, time.Second, mirror.RefreshInterval())
	require.NoError(t, mirror.Joined(ctx, "d1", "c1", collab.User{ID: "a", Username: "alice"}))

	m.FastForward(2 * time.Second)
	require.NoError(t, mirror.Touch(ctx, "d1"))
	m.FastForward(2 * time.Second)
	users, err := mirror.Members(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, users, 1)

	// touching an expired document does not recreate it
	m.FastForward(4 * time.Second)
	require.NoError(t, mirror.Touch(ctx, "d1"))
	require.False(t, m.Exists("presence:d1"))
}
