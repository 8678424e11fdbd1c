// Package queue buffers usage records between the metering write path and
// the archival worker. The buffer is a bounded in-memory channel: enqueue
// never blocks the caller, and a full buffer drops the record rather than
// slowing down metering. Archival is best-effort by design; the KV store
// remains the system of record.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"aimeter/internal/models"
)

var (
	// ErrClosed is returned for operations on a closed queue.
	ErrClosed = errors.New("queue is closed")

	// ErrFull is returned when the buffer has no room for another record.
	ErrFull = errors.New("queue is full")
)

// RecordQueue is a bounded FIFO of usage records.
type RecordQueue struct {
	items  chan *models.UsageRecord
	mu     sync.RWMutex
	closed bool
}

// NewRecordQueue creates a queue holding at most capacity records.
func NewRecordQueue(capacity int) *RecordQueue {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RecordQueue{
		items: make(chan *models.UsageRecord, capacity),
	}
}

// Enqueue adds a record without blocking. Returns ErrFull when the buffer
// is at capacity.
func (q *RecordQueue) Enqueue(ctx context.Context, rec *models.UsageRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.items <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrFull
	}
}

// DequeueBatch waits up to wait for a first record, then drains up to
// maxItems without blocking. An empty batch after the wait is not an error.
func (q *RecordQueue) DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]*models.UsageRecord, error) {
	// No closed pre-check: a closed channel still yields its buffered
	// records, then the receive reports ok=false.
	var batch []*models.UsageRecord

	select {
	case rec, ok := <-q.items:
		if !ok {
			return nil, ErrClosed
		}
		batch = append(batch, rec)
	case <-time.After(wait):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for len(batch) < maxItems {
		select {
		case rec, ok := <-q.items:
			if !ok {
				return batch, nil
			}
			batch = append(batch, rec)
		default:
			return batch, nil
		}
	}

	return batch, nil
}

// Len returns the number of buffered records.
func (q *RecordQueue) Len() int {
	return len(q.items)
}

// Close marks the queue closed. Buffered records can still be drained.
func (q *RecordQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.items)
	return nil
}
