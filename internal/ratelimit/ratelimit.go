// Package ratelimit throttles credential endpoints per client with a fixed
// window counter.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is a process-local fixed-window limiter.
type Memory struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string]*counter
}

type counter struct {
	start time.Time
	count int
}

// NewMemory allows limit requests per key in each window.
func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*counter),
	}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Allow counts one request for key.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, ok := m.clients[key]
	if !ok || now.Sub(c.start) >= m.window {
		m.clients[key] = &counter{start: now, count: 1}
		m.sweep(now)
		return true, nil
	}
	if c.count >= m.limit {
		return false, nil
	}
	c.count++
	return true, nil
}

// sweep drops expired counters so the map does not grow without bound.
func (m *Memory) sweep(now time.Time) {
	for key, c := range m.clients {
		if now.Sub(c.start) >= m.window {
			delete(m.clients, key)
		}
	}
}

// Redis is a fixed-window limiter shared by every server instance.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedis allows limit requests per key in each window, counting in Redis.
func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

// Allow increments the window counter for key. The counter is created with
// its expiry by SET NX EX, so the window starts at the first request.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := r.prefix + key
	pipe := r.client.TxPipeline()
	pipe.SetNX(ctx, redisKey, 0, r.window)
	incr := pipe.Incr(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(r.limit), nil
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
