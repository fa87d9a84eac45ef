package notify

import (
	"context"
	"sync"
	"time"

	"github.com/robalyx/warden/internal/metrics"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// DefaultQueueSize is used when no queue size is configured.
const DefaultQueueSize = 256

// deliveryTimeout bounds each notifier call.
const deliveryTimeout = 5 * time.Second

// Dispatcher fans alerts out to notifiers on a background goroutine.
// Send never blocks; alerts are dropped when the queue is full.
type Dispatcher struct {
	queue     chan Alert
	notifiers []Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu      sync.RWMutex
	closed  bool
	workers conc.WaitGroup
}

// NewDispatcher creates a Dispatcher. Call Start to begin delivery.
func NewDispatcher(size int, m *metrics.Metrics, logger *zap.Logger, notifiers ...Notifier) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		queue:     make(chan Alert, size),
		notifiers: notifiers,
		metrics:   m,
		logger:    logger.Named("notify"),
	}
}

// Start launches the delivery goroutine. It stops after Close drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	d.workers.Go(func() {
		for alert := range d.queue {
			d.deliver(ctx, alert)
		}
	})
}

// Send queues an alert and reports whether it was accepted.
func (d *Dispatcher) Send(alert Alert) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	select {
	case d.queue <- alert:
		return true
	default:
		d.metrics.RecordDroppedNotification()
		d.logger.Warn("Dropped staff alert, queue is full",
			zap.String("kind", string(alert.Kind)),
			zap.String("accountName", alert.AccountName))
		return false
	}
}

// Close stops accepting alerts and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.workers.Wait()
}

// deliver hands one alert to every notifier.
func (d *Dispatcher) deliver(ctx context.Context, alert Alert) {
	for _, notifier := range d.notifiers {
		notifyCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		err := notifier.Notify(notifyCtx, alert)
		cancel()

		if err != nil {
			d.logger.Error("Failed to deliver staff alert",
				zap.String("kind", string(alert.Kind)),
				zap.Error(err))
		}
	}
}
