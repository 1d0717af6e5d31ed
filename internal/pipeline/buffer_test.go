package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleBuffer_BoundsSlots(t *testing.T) {
	b := newDoubleBuffer(8)
	ctx := context.Background()

	s1, err := b.acquire(ctx)
	require.NoError(t, err)
	s2, err := b.acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, s1, s2)
	assert.Len(t, s1.data, 8)

	// A third slot is only available once one is released.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = b.acquire(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	b.push(s1)
	got := <-b.filled
	assert.Same(t, s1, got)
	b.release(got)

	s3, err := b.acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, s1, s3)
	b.release(s2)
	b.release(s3)
}

func TestDoubleBuffer_CancelledContext(t *testing.T) {
	b := newDoubleBuffer(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, b.free, bufferDepth, "a slot taken under a cancelled context is returned")
}

func TestDoubleBuffer_Done(t *testing.T) {
	b := newDoubleBuffer(1)
	b.done()
	_, ok := <-b.filled
	assert.False(t, ok)
}
