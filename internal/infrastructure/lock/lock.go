package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"protegeya-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker grants exclusive ownership of a named job across callers.
type Locker interface {
	// Acquire returns domain.ErrJobRunning when another holder owns name.
	Acquire(ctx context.Context, name string, ttl time.Duration) (Release, error)
}

// Release gives the lock back. Calling it more than once is a no-op.
type Release func()

const keyPrefix = "lock:job:"

// Only the owner may delete the key; an expired lock re-acquired by someone else survives.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX + compare-and-delete).
type RedisLocker struct {
	Client *redis.Client
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Release, error) {
	token := uuid.NewString()
	key := keyPrefix + name
	ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, domain.ErrJobRunning
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = releaseScript.Run(context.Background(), l.Client, []string{key}, token).Err()
		})
	}, nil
}

// LocalLocker serialises jobs inside one process; used when Redis is not configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]time.Time{}}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if expires, ok := l.held[name]; ok && time.Now().Before(expires) {
		return nil, domain.ErrJobRunning
	}
	expires := time.Now().Add(ttl)
	l.held[name] = expires
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[name].Equal(expires) {
				delete(l.held, name)
			}
		})
	}, nil
}

// New returns a Redis-backed locker when rdb is set, an in-process one otherwise.
func New(rdb *redis.Client) Locker {
	if rdb == nil {
		return NewLocalLocker()
	}
	return &RedisLocker{Client: rdb}
}

// Run executes fn while holding name.
func Run(ctx context.Context, l Locker, name string, ttl time.Duration, fn func(context.Context) error) error {
	release, err := l.Acquire(ctx, name, ttl)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// IsRunning reports whether err means the job is held elsewhere.
func IsRunning(err error) bool {
	return errors.Is(err, domain.ErrJobRunning)
}
