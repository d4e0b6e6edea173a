package presence

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/gogotex/collabedit/internal/collab"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a document's presence hash survives after its last write
// or refresh, so a crashed process cannot leave ghost members behind forever. Live
// rooms keep the key alive through Touch and periodic rewrites of their members.
const DefaultTTL = 10 * time.Minute

// RedisMirror copies live room membership into Redis.
// Members of a document are stored as a hash under key: "presence:<documentId>",
// field = connection id, value = user JSON.
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMirror creates a mirror. Prefix may be empty; ttl <= 0 selects DefaultTTL.
func NewRedisMirror(client *redis.Client, prefix string, ttl time.Duration) *RedisMirror {
	if prefix == "" {
		prefix = "presence:"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisMirror{client: client, prefix: prefix, ttl: ttl}
}

func (m *RedisMirror) key(documentID string) string {
	return m.prefix + documentID
}

func (m *RedisMirror) Joined(ctx context.Context, documentID, connID string, u collab.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = m.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, m.key(documentID), connID, b)
		p.Expire(ctx, m.key(documentID), m.ttl)
		return nil
	})
	return err
}

func (m *RedisMirror) Left(ctx context.Context, documentID, connID string) error {
	return m.client.HDel(ctx, m.key(documentID), connID).Err()
}

// RefreshInterval is how often live members should be rewritten to stay ahead of the TTL.
func (m *RedisMirror) RefreshInterval() time.Duration {
	return m.ttl / 3
}

// Touch extends the presence hash of an active document. A key that already expired
// is left alone; the next refresh rewrites it.
func (m *RedisMirror) Touch(ctx context.Context, documentID string) error {
	return m.client.Expire(ctx, m.key(documentID), m.ttl).Err()
}

// Members reads the mirrored presence list, ordered by join time.
func (m *RedisMirror) Members(ctx context.Context, documentID string) ([]collab.User, error) {
	vals, err := m.client.HGetAll(ctx, m.key(documentID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]collab.User, 0, len(vals))
	for _, v := range vals {
		var u collab.User
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			// skip entries written by an incompatible version
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Ping reports whether Redis is reachable; used by the readiness probe.
func (m *RedisMirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}
