package services

import (
	"context"
	"sync"

	"inventaris-backend/config"
	"inventaris-backend/metrics"
	"inventaris-backend/models"

	"github.com/sirupsen/logrus"
)

// writeBack сохраняет снимки коллекции в фоне по одному, в порядке поступления.
// Если за время записи пришло несколько снимков, пишется только последний.
type writeBack struct {
	store   *InventoryStore
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	mu       sync.Mutex
	pending  []models.InventoryRecord
	queued   uint64
	written  uint64
	progress chan struct{}
	closed   bool

	wake chan struct{}
	done chan struct{}
}

func newWriteBack(store *InventoryStore, log logrus.FieldLogger, m *metrics.Metrics) *writeBack {
	w := &writeBack{
		store:    store,
		log:      log,
		metrics:  m,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue не блокируется; после закрытия снимок отбрасывается
func (w *writeBack) enqueue(records []models.InventoryRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.log.Warn("inventory snapshot dropped: write-back is closed")
		return
	}
	w.pending = records
	w.queued++
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writeBack) run() {
	defer close(w.done)
	for range w.wake {
		w.drain()
	}
	w.drain()
}

func (w *writeBack) drain() {
	for {
		w.mu.Lock()
		if w.written == w.queued {
			w.mu.Unlock()
			return
		}
		records := w.pending
		target := w.queued
		w.pending = nil
		w.mu.Unlock()

		// Сохранение не отменяется: начатая запись доводится до конца
		err := w.store.Save(context.Background(), records)
		w.metrics.StoreResult("save", err)
		if err != nil {
			config.LogError(w.log, "inventory", "Save", "write-back failed", map[string]int{"records": len(records)}, err)
		}

		w.mu.Lock()
		w.written = target
		close(w.progress)
		w.progress = make(chan struct{})
		w.mu.Unlock()
	}
}

// flush ждет записи всех снимков, поставленных до вызова
func (w *writeBack) flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.queued
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.written >= target {
			w.mu.Unlock()
			return nil
		}
		progress := w.progress
		w.mu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// close прекращает прием снимков, дописывает последний и ждет остановки
func (w *writeBack) close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.wake)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
