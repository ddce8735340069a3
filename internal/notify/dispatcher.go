package notify

import (
	"context"
	"sync"
	"time"

	"github.com/feedback-widget/internal/domain"
	"go.uber.org/zap"
)

// Dispatcher decouples notification delivery from the request path. Dispatch
// enqueues without blocking; a single worker goroutine drains the queue and
// logs failures. Close stops intake and waits for in-flight work so a clean
// shutdown does not silently drop queued notifications.
type Dispatcher struct {
	sender Sender
	queue  chan domain.Notification
	logger *zap.Logger

	closeOnce sync.Once
	done      chan struct{}

	// sendTimeout bounds one delivery attempt.
	sendTimeout time.Duration
}

// NewDispatcher starts the worker goroutine.
func NewDispatcher(sender Sender, queueSize int, logger *zap.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		sender:      sender,
		queue:       make(chan domain.Notification, queueSize),
		logger:      logger.Named("notify"),
		done:        make(chan struct{}),
		sendTimeout: 15 * time.Second,
	}
	go d.worker()
	return d
}

// Dispatch enqueues a notification without blocking the caller. When the
// queue is full the notification is dropped with a warning; delivery is
// best-effort by contract.
func (d *Dispatcher) Dispatch(n domain.Notification) {
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification queue full, dropping",
			zap.Int64("feedback_id", n.FeedbackID),
		)
	}
}

// Close stops intake and waits for the worker to drain the queue, up to the
// given timeout.
func (d *Dispatcher) Close(timeout time.Duration) {
	d.closeOnce.Do(func() {
		close(d.queue)
	})

	select {
	case <-d.done:
	case <-time.After(timeout):
		d.logger.Warn("notification dispatcher close timed out")
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := d.sender.Send(ctx, n)
		cancel()

		if err != nil {
			d.logger.Warn("notification delivery failed",
				zap.Int64("feedback_id", n.FeedbackID),
				zap.Error(err),
			)
			continue
		}

		d.logger.Debug("notification delivered",
			zap.Int64("feedback_id", n.FeedbackID),
		)
	}
}
