package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := New()
	for i := 1; i <= 5; i++ {
		require.NoError(t, q.Send(CaptureEvent{Sequence: i}))
	}

	for i := 1; i <= 5; i++ {
		ev, err := q.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, ev.Sequence)
	}
}

func TestCloseDrainsQueuedItemsFirst(t *testing.T) {
	q := New()
	const n = 50
	for i := 1; i <= n; i++ {
		require.NoError(t, q.Send(CaptureEvent{Sequence: i}))
	}
	q.Close()

	got := 0
	for {
		ev, err := q.Receive(context.Background())
		if err != nil {
			assert.ErrorIs(t, err, ErrClosed)
			break
		}
		got++
		assert.Equal(t, got, ev.Sequence)
	}
	assert.Equal(t, n, got)
}

func TestSendAfterClose(t *testing.T) {
	q := New()
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Send(CaptureEvent{Sequence: 1}), ErrClosed)
	assert.Equal(t, 0, q.Sent())
}

func TestReceiveBlocksUntilSend(t *testing.T) {
	q := New()
	done := make(chan CaptureEvent)

	go func() {
		ev, err := q.Receive(context.Background())
		if err == nil {
			done <- ev
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("receive returned before any send")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Send(CaptureEvent{Sequence: 7, Path: "a.png"}))

	select {
	case ev := <-done:
		assert.Equal(t, 7, ev.Sequence)
	case <-time.After(time.Second):
		t.Fatal("receive did not wake up")
	}
}

func TestReceiveWakesOnClose(t *testing.T) {
	q := New()
	errCh := make(chan error, 1)

	go func() {
		_, err := q.Receive(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("receive did not observe close")
	}
}

func TestReceiveHonoursContext(t *testing.T) {
	q := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentProducerConsumer(t *testing.T) {
	q := New()
	const n = 1000

	go func() {
		for i := 1; i <= n; i++ {
			q.Send(CaptureEvent{Sequence: i})
		}
		q.Close()
	}()

	next := 1
	for {
		ev, err := q.Receive(context.Background())
		if err != nil {
			break
		}
		require.Equal(t, next, ev.Sequence)
		next++
	}
	assert.Equal(t, n+1, next)
	assert.Equal(t, 0, q.Len())
}
