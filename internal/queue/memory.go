package queue

import (
	"context"
	"errors"
	"time"
)

// MemoryQueue is a channel-backed queue for tests and single-process runs.
type MemoryQueue struct {
	ch chan TrackMessage

	// PublishErr, when set, makes Publish fail. Used to exercise
	// dispatch-failure paths in tests.
	PublishErr error

	popTimeout time.Duration
}

var (
	_ Producer = (*MemoryQueue)(nil)
	_ Source   = (*MemoryQueue)(nil)
)

// NewMemoryQueue constructs an in-process queue with the given buffer size.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 128
	}
	return &MemoryQueue{ch: make(chan TrackMessage, size), popTimeout: 50 * time.Millisecond}
}

func (q *MemoryQueue) Publish(ctx context.Context, msg TrackMessage) error {
	if q.PublishErr != nil {
		return q.PublishErr
	}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("queue full")
	}
}

func (q *MemoryQueue) Pop(ctx context.Context) (TrackMessage, error) {
	timer := time.NewTimer(q.popTimeout)
	defer timer.Stop()

	select {
	case msg := <-q.ch:
		return msg, nil
	case <-timer.C:
		return TrackMessage{}, ErrEmpty
	case <-ctx.Done():
		return TrackMessage{}, ctx.Err()
	}
}

// Len reports the number of buffered messages. Test helper.
func (q *MemoryQueue) Len() int { return len(q.ch) }
