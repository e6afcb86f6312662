package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAcquire(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.Close()

	assert.True(t, rl.tryAcquire())
	assert.True(t, rl.tryAcquire())
	assert.False(t, rl.tryAcquire(), "bucket should be empty")
}

func TestRateLimiterWaitCancellation(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()

	assert.True(t, rl.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	assert.Error(t, err)
}

func TestRateLimiterCloseIdempotent(t *testing.T) {
	rl := newRateLimiter(1)
	rl.Close()
	rl.Close()
}
