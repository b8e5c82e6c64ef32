package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowDrainsCapacity(t *testing.T) {
	// 60 QPM = 每秒 1 个令牌,容量 3,初始满桶
	tb := NewTokenBucket(60, 3)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "桶空后应立即拒绝")
}

func TestDefaultCapacityIsHalfQPM(t *testing.T) {
	tb := NewTokenBucket(10, 0)
	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "第 %d 个令牌应可用", i+1)
	}
	assert.False(t, tb.Allow())
}

func TestWaitHonorsContextCancel(t *testing.T) {
	// 极低速率,桶排空后 Wait 必须等待
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryWithBackoffRetriesRetryableError(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 3)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("429 Too Many Requests")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnNonRetryableError(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 3)

	calls := 0
	permanent := errors.New("invalid request payload")
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 2)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("rate limit reached")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "首次调用加 2 次重试")
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("context deadline exceeded"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("rate_limit_exceeded: tokens per minute"), true},
		{errors.New("invalid api key"), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isRetryableError(c.err), "err=%v", c.err)
	}
}
