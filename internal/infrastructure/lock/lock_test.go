package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"protegeya-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &RedisLocker{Client: rdb}, mr
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "generate-charges", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"generate-charges"))

	_, err = l.Acquire(ctx, "generate-charges", time.Minute)
	assert.ErrorIs(t, err, domain.ErrJobRunning)

	release()
	assert.False(t, mr.Exists(keyPrefix+"generate-charges"))

	again, err := l.Acquire(ctx, "generate-charges", time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_ReleaseDoesNotDropForeignLock(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "check-overdue", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	other, err := l.Acquire(ctx, "check-overdue", time.Minute)
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists(keyPrefix+"check-overdue"))
	other()
	assert.False(t, mr.Exists(keyPrefix+"check-overdue"))
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "job", time.Minute)
	assert.True(t, IsRunning(err))
	_, err = l.Acquire(ctx, "other", time.Minute)
	assert.NoError(t, err)

	release()
	release()
	_, err = l.Acquire(ctx, "job", time.Minute)
	assert.NoError(t, err)
}

func TestRun_PropagatesErrorAndReleases(t *testing.T) {
	l := NewLocalLocker()
	boom := errors.New("boom")
	err := Run(context.Background(), l, "job", time.Minute, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = Run(context.Background(), l, "job", time.Minute, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestNew_FallsBackWithoutRedis(t *testing.T) {
	_, ok := New(nil).(*LocalLocker)
	assert.True(t, ok)
}
