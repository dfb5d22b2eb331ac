package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const Header = "Idempotency-Key"

var ErrNotFound = errors.New("idempotency key not found")

// Key returns the trimmed Idempotency-Key header, or "" when absent.
func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

// Response is a stored reply replayed for a repeated key. Fingerprint
// identifies the request that produced it; a repeated key only replays
// when the new request has the same fingerprint.
type Response struct {
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// Matches reports whether the stored response was produced by a request
// with the given fingerprint.
func (r *Response) Matches(fingerprint string) bool {
	return r.Fingerprint == fingerprint
}

// Fingerprint hashes the fields that identify a request.
func Fingerprint(fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type Store interface {
	Get(ctx context.Context, scope, key string) (*Response, error)
	// Save stores resp unless the key already holds a response.
	Save(ctx context.Context, scope, key string, resp Response) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, scope, key string) (*Response, error) {
	data, err := s.client.Get(ctx, redisKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal stored response failed: %w", err)
	}
	return &resp, nil
}

func (s *RedisStore) Save(ctx context.Context, scope, key string, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response failed: %w", err)
	}

	if err := s.client.SetNX(ctx, redisKey(scope, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	return nil
}

func redisKey(scope, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, key)
}
