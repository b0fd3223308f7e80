package deposit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock serializes reconciliation triggers per deposit. The database CAS is
// the correctness guard; the lock just keeps a concurrent sweep and an
// on-demand check from both polling the gateway for the same deposit.
type Lock interface {
	// TryAcquire returns false when another reconciliation holds the deposit.
	TryAcquire(ctx context.Context, depositID uint) (bool, error)
	// Release frees the deposit for the next trigger.
	Release(ctx context.Context, depositID uint)
}

type redisLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (l *redisLock) key(depositID uint) string {
	return l.prefix + ":" + strconv.FormatUint(uint64(depositID), 10)
}

func (l *redisLock) TryAcquire(ctx context.Context, depositID uint) (bool, error) {
	return l.client.SetNX(ctx, l.key(depositID), "1", l.ttl).Result()
}

func (l *redisLock) Release(ctx context.Context, depositID uint) {
	l.client.Del(ctx, l.key(depositID))
}

type memoryLock struct {
	mu   sync.Mutex
	held map[uint]time.Time
	ttl  time.Duration
}

func newMemoryLock(ttl time.Duration) *memoryLock {
	return &memoryLock{held: make(map[uint]time.Time), ttl: ttl}
}

func (l *memoryLock) TryAcquire(_ context.Context, depositID uint) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if exp, ok := l.held[depositID]; ok && exp.After(now) {
		return false, nil
	}
	l.held[depositID] = now.Add(l.ttl)
	return true, nil
}

func (l *memoryLock) Release(_ context.Context, depositID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, depositID)
}

// NewLock builds a Redis-backed lock and falls back to in-memory on failure.
func NewLock(addr, pass string, db int, ttl time.Duration) (Lock, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryLock(ttl), err
	}

	return &redisLock{client: client, prefix: "reconcile", ttl: ttl}, nil
}
