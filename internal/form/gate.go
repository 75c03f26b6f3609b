package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace-gateway/internal/common/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrGateHeld is returned by Acquire when another submission holds the key.
var ErrGateHeld = errors.New("SUBMISSION_GATE_HELD")

// Gate serializes submissions of one form instance across gateway replicas.
// Acquire returns a release func that must be called exactly once.
type Gate interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// LocalGate is an in-process Gate for single-replica deployments and tests.
type LocalGate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGate() *LocalGate {
	return &LocalGate{held: make(map[string]struct{})}
}

func (g *LocalGate) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return nil, ErrGateHeld
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGate holds a SETNX lock per instance key. The TTL bounds how long a
// crashed replica can keep an instance locked.
type RedisGate struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisGate(client *redis.Client, log logger.Logger) *RedisGate {
	return &RedisGate{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "submission-gate"}),
	}
}

func gateKey(key string) string {
	return fmt.Sprintf("submit-lock:%s", key)
}

// Acquire fails open when Redis is unreachable: the per-instance state check
// in the coordinator still prevents double submits within this replica.
func (g *RedisGate) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, gateKey(key), token, ttl).Result()
	if err != nil {
		g.logger.Warn("submission gate unavailable, continuing without it", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return func() {}, nil
	}
	if !ok {
		return nil, ErrGateHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, g.client, []string{gateKey(key)}, token).Err(); err != nil {
				g.logger.Warn("failed to release submission gate", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		})
	}, nil
}
