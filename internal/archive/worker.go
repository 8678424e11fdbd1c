package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	"aimeter/internal/models"
	"aimeter/internal/queue"
	"aimeter/internal/utils"
)

// RecordInserter is the storage side of the worker. Satisfied by *DB.
type RecordInserter interface {
	InsertRecords(ctx context.Context, recs []*models.UsageRecord) error
}

// WorkerConfig holds archival worker settings.
type WorkerConfig struct {
	BatchSize    int
	BatchWait    time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// DeadLetterCap bounds how many failed records are kept for inspection.
	DeadLetterCap int
}

// DefaultWorkerConfig returns default archival worker settings.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:     100,
		BatchWait:     5 * time.Second,
		MaxRetries:    3,
		RetryBackoff:  1 * time.Second,
		DeadLetterCap: 1000,
	}
}

// Worker drains the record queue into the archive store in batches, with
// retry and a capped dead-letter buffer for batches that never make it.
type Worker struct {
	queue  *queue.RecordQueue
	store  RecordInserter
	config WorkerConfig
	logger *utils.Logger

	mu          sync.Mutex
	deadLetters []*models.UsageRecord

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewWorker creates an archival worker over q and store.
func NewWorker(q *queue.RecordQueue, store RecordInserter, config WorkerConfig) *Worker {
	if config.BatchSize <= 0 {
		config = DefaultWorkerConfig()
	}

	return &Worker{
		queue:       q,
		store:       store,
		config:      config,
		logger:      utils.NewLogger("archive-worker"),
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Archive enqueues a record for background archival. Satisfies the meter's
// archiver contract; a full queue surfaces as an error the meter logs and
// otherwise ignores.
func (w *Worker) Archive(ctx context.Context, rec *models.UsageRecord) error {
	return w.queue.Enqueue(ctx, rec)
}

// Start starts the worker goroutine.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop drains what is already dequeued and stops the worker.
func (w *Worker) Stop() error {
	close(w.stopChan)
	<-w.stoppedChan
	return nil
}

// DeadLetters returns a copy of the records that exhausted their retries.
func (w *Worker) DeadLetters() []*models.UsageRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*models.UsageRecord, len(w.deadLetters))
	copy(out, w.deadLetters)
	return out
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.stoppedChan)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Archive worker stopping")
			return
		case <-ctx.Done():
			w.logger.Info("Archive worker context cancelled")
			return
		default:
			if !w.processBatch(ctx) {
				w.logger.Info("Archive queue closed, worker exiting")
				return
			}
		}
	}
}

// processBatch returns false when the queue is gone and the worker should
// exit.
func (w *Worker) processBatch(ctx context.Context) bool {
	batch, err := w.queue.DequeueBatch(ctx, w.config.BatchSize, w.config.BatchWait)
	if err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return false
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return true
		}
		w.logger.Error("Failed to dequeue records", "error", err)
		time.Sleep(1 * time.Second)
		return true
	}

	if len(batch) == 0 {
		return true
	}

	w.logger.Debug("Archiving batch", "count", len(batch))

	backoff := w.config.RetryBackoff
	for attempt := 0; ; attempt++ {
		err = w.store.InsertRecords(ctx, batch)
		if err == nil {
			return true
		}
		if attempt >= w.config.MaxRetries {
			break
		}
		w.logger.Warn("Archive batch failed, retrying", "attempt", attempt+1, "error", err)
		time.Sleep(backoff)
		backoff *= 2
	}

	w.logger.Error("Archive batch dropped after retries", "count", len(batch), "error", err)
	w.addDeadLetters(batch)
	return true
}

func (w *Worker) addDeadLetters(batch []*models.UsageRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.deadLetters = append(w.deadLetters, batch...)
	if over := len(w.deadLetters) - w.config.DeadLetterCap; over > 0 {
		w.deadLetters = w.deadLetters[over:]
	}
}
