package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/timeherenow-example/session"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of session.Storage
 * Uses one Redis Hash per session, expired by Redis itself
 * Uses a Set as the index of live session ids
 */

const (
	hashPrefix = "session"  // Hash naming: session:{id}
	indexKey   = "sessions" // Set of session ids
)

type Storage struct {
	client *redis.Client
}

// NewStorage creates a new Redis session storage
func NewStorage(addr, password string, db int) (*Storage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Storage{
		client: client,
	}, nil
}

func hashKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

// Save stores the session hash and sets its TTL from ExpiresAt
func (s *Storage) Save(ctx context.Context, sess session.Session) error {
	key := hashKey(sess.ID)

	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"id":         sess.ID,
		"subject":    sess.Subject,
		"token":      sess.Token,
		"issued_at":  sess.IssuedAt.Unix(),
		"expires_at": unixOrZero(sess.ExpiresAt),
	})
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	pipe.SAdd(ctx, indexKey, sess.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, id string) (session.Session, error) {
	data, err := s.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return session.Session{}, fmt.Errorf("getting session: %w", err)
	}
	if len(data) == 0 {
		return session.Session{}, session.ErrNotFound
	}

	sess := session.Session{
		ID:       data["id"],
		Subject:  data["subject"],
		Token:    data["token"],
		IssuedAt: time.Unix(parseInt64(data["issued_at"]), 0).UTC(),
	}
	if exp := parseInt64(data["expires_at"]); exp > 0 {
		sess.ExpiresAt = time.Unix(exp, 0).UTC()
	}
	return sess, nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, hashKey(id))
	pipe.SRem(ctx, indexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CountActive counts indexed sessions whose hash still exists and
// prunes the ids Redis already expired
func (s *Storage) CountActive(ctx context.Context) (int, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	checks := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		checks[i] = pipe.Exists(ctx, hashKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("checking sessions: %w", err)
	}

	active := 0
	var stale []interface{}
	for i, cmd := range checks {
		if cmd.Val() > 0 {
			active++
			continue
		}
		stale = append(stale, ids[i])
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, indexKey, stale...).Err(); err != nil {
			return 0, fmt.Errorf("pruning sessions: %w", err)
		}
	}
	return active, nil
}

func (s *Storage) Kind() string {
	return "RedisStorage"
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client
func (s *Storage) GetClient() *redis.Client {
	return s.client
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func parseInt64(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}
