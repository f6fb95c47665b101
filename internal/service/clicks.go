package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/metrics"
	"github.com/mmeshcher/shortlink/internal/models"
)

// ClickTask asks for one click to be added to ShortCode's counter.
type ClickTask struct {
	ShortCode string
}

type clickStore interface {
	SelectLink(ctx context.Context, shortCode string) (models.Link, error)
	UpdateClicks(ctx context.Context, shortCode string, clicks int64) error
}

// ClickRecorder applies click increments in the background. Every code is
// owned by exactly one worker, which reads the current counter and writes it
// back plus one, so increments for a code never overtake each other. Writes
// are best effort: a full queue drops the task and failures are only logged.
type ClickRecorder struct {
	store        clickStore
	queues       []chan ClickTask
	writeTimeout time.Duration
	logger       *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewClickRecorder starts workers goroutines. queueSize is the total
// capacity, split evenly between the workers.
func NewClickRecorder(store clickStore, workers, queueSize int, writeTimeout time.Duration, logger *zap.Logger) *ClickRecorder {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	perWorker := (queueSize + workers - 1) / workers

	r := &ClickRecorder{
		store:        store,
		queues:       make([]chan ClickTask, workers),
		writeTimeout: writeTimeout,
		logger:       logger,
	}

	for i := range r.queues {
		r.queues[i] = make(chan ClickTask, perWorker)
		r.wg.Add(1)
		go r.worker(i, r.queues[i])
	}

	return r
}

// Record queues a task without blocking and reports whether it was accepted.
func (r *ClickRecorder) Record(task ClickTask) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		metrics.ClickWritesTotal.WithLabelValues("dropped").Inc()
		return false
	}

	select {
	case r.queues[r.shard(task.ShortCode)] <- task:
		return true
	default:
		r.logger.Warn("Click queue is full, dropping increment",
			zap.String("shortCode", task.ShortCode))
		metrics.ClickWritesTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

func (r *ClickRecorder) shard(shortCode string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(shortCode))
	return int(h.Sum32() % uint32(len(r.queues)))
}

func (r *ClickRecorder) worker(id int, tasks <-chan ClickTask) {
	defer r.wg.Done()

	r.logger.Debug("Click worker started", zap.Int("workerID", id))

	for task := range tasks {
		r.write(task)
	}

	r.logger.Debug("Click worker stopped", zap.Int("workerID", id))
}

func (r *ClickRecorder) write(task ClickTask) {
	ctx := context.Background()
	if r.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.writeTimeout)
		defer cancel()
	}

	link, err := r.store.SelectLink(ctx, task.ShortCode)
	if err != nil {
		r.logger.Warn("Failed to read click counter",
			zap.String("shortCode", task.ShortCode),
			zap.Error(err))
		metrics.ClickWritesTotal.WithLabelValues("failed").Inc()
		return
	}

	clicks := max(link.Clicks, 0) + 1
	if err := r.store.UpdateClicks(ctx, task.ShortCode, clicks); err != nil {
		r.logger.Warn("Failed to update click counter",
			zap.String("shortCode", task.ShortCode),
			zap.Int64("clicks", clicks),
			zap.Error(err))
		metrics.ClickWritesTotal.WithLabelValues("failed").Inc()
		return
	}

	metrics.ClickWritesTotal.WithLabelValues("ok").Inc()
}

// Close stops intake, drains queued tasks and waits for the workers.
func (r *ClickRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, q := range r.queues {
		close(q)
	}
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("All click workers stopped")
}
