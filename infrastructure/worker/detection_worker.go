package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"safesight/domain/services"
	"safesight/pkg/logger"
)

// ErrQueueFull is returned by Submit when the queue has no capacity left.
// Callers decide whether to drop or back off; the worker never blocks them.
var ErrQueueFull = errors.New("detection queue full")

// DetectionWorker decouples the batch video pipeline from the ledger: events
// are submitted to a bounded queue and processed by a small pool, so a frame
// callback is never blocked on the store. Outcomes are observable through the
// live detection feed, not silently dropped.
type DetectionWorker struct {
	ledger services.LedgerService

	queue chan services.DetectionEvent

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex

	concurrency int
}

func NewDetectionWorker(ledger services.LedgerService, queueSize, concurrency int) *DetectionWorker {
	if queueSize < 1 {
		queueSize = 1024
	}
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &DetectionWorker{
		ledger:      ledger,
		queue:       make(chan services.DetectionEvent, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		concurrency: concurrency,
	}
}

func (w *DetectionWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return
	}
	w.isRunning = true

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run()
	}

	logger.Detection("worker_started", "Detection worker started", map[string]interface{}{
		"concurrency": w.concurrency,
		"queue_size":  cap(w.queue),
	})
}

func (w *DetectionWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return
	}
	w.isRunning = false

	w.cancel()
	w.wg.Wait()
	logger.Detection("worker_stopped", "Detection worker stopped", nil)
}

// Submit enqueues one event without blocking. Returns ErrQueueFull when the
// producer is outrunning the store.
func (w *DetectionWorker) Submit(event services.DetectionEvent) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueDepth reports the current backlog, for health metrics.
func (w *DetectionWorker) QueueDepth() int {
	return len(w.queue)
}

// QueueCapacity reports the configured queue size.
func (w *DetectionWorker) QueueCapacity() int {
	return cap(w.queue)
}

func (w *DetectionWorker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event := <-w.queue:
			w.process(event)
		}
	}
}

func (w *DetectionWorker) process(event services.DetectionEvent) {
	ctx, cancel := context.WithTimeout(w.ctx, 10*time.Second)
	defer cancel()

	result, err := w.ledger.RecordDetection(ctx, event)
	if err != nil {
		logger.DetectionError("record_failed", "Failed to record detection", err, map[string]interface{}{
			"identity_code": event.IdentityCode,
			"source":        event.SourceSessionID,
		})
		return
	}

	if result.Outcome == services.OutcomeAccepted && result.MarkedPresent {
		logger.Detection("marked_present", "Identity marked present", map[string]interface{}{
			"identity_code": event.IdentityCode,
			"day":           result.Day,
		})
	}
}
