package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/m3rciful/fuelbot/core/logger"
)

const defaultRedisPrefix = "fuelbot:fsm:"

// RedisManager keeps sessions in Redis as JSON so they survive restarts and can
// be shared by several bot replicas.
type RedisManager struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// RedisOption customises a RedisManager.
type RedisOption func(*RedisManager)

// WithTTL expires idle sessions after ttl; 0 keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(m *RedisManager) { m.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(m *RedisManager) { m.prefix = prefix }
}

// NewRedisManager dials Redis lazily; use Ping to check connectivity.
func NewRedisManager(addr, password string, db int, opts ...RedisOption) *RedisManager {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisManagerFromClient(client, opts...)
}

// NewRedisManagerFromClient wraps an existing client.
func NewRedisManagerFromClient(client *backend.Client, opts ...RedisOption) *RedisManager {
	m := &RedisManager{
		client: client,
		prefix: defaultRedisPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *RedisManager) key(userID int64) string {
	return m.prefix + strconv.FormatInt(userID, 10)
}

// Ping verifies the server answers.
func (m *RedisManager) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Get loads the user's session; a missing key is an idle session.
func (m *RedisManager) Get(ctx context.Context, userID int64) (Session, error) {
	val, err := m.client.Get(ctx, m.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return NewSession(StateIdle), nil
		}
		return Session{}, fmt.Errorf("%w: get: %w", ErrUnavailable, err)
	}
	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		logger.Warn(ctx, logger.CompState, "session.decode",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		// A corrupt session is dropped rather than wedging the user.
		return NewSession(StateIdle), nil
	}
	return s, nil
}

// Set stores s with the configured TTL. Idle sessions delete the key.
func (m *RedisManager) Set(ctx context.Context, userID int64, s Session) error {
	if s.Idle() {
		return m.Clear(ctx, userID)
	}
	s.UpdatedAt = m.now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("state: marshal session: %w", err)
	}
	if err := m.client.Set(ctx, m.key(userID), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %w", ErrUnavailable, err)
	}
	return nil
}

// Clear deletes the user's session.
func (m *RedisManager) Clear(ctx context.Context, userID int64) error {
	if err := m.client.Del(ctx, m.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: del: %w", ErrUnavailable, err)
	}
	return nil
}

// InProgress reports whether the user has an active conversation.
// The error wraps ErrUnavailable when redis cannot answer.
func (m *RedisManager) InProgress(ctx context.Context, userID int64) (bool, error) {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return !s.Idle(), nil
}

// Close closes the redis client.
func (m *RedisManager) Close() error {
	return m.client.Close()
}
