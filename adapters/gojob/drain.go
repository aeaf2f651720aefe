package gojob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-card-management/core"

	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultPollInterval = time.Second

// EventRecorder persists analytics events taken off the queue.
type EventRecorder interface {
	Record(ctx context.Context, event core.AnalyticsEvent) error
}

type DrainOption func(*AnalyticsDrain)

func WithDrainLogger(logger core.Logger) DrainOption {
	return func(d *AnalyticsDrain) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithRetryDelay(delay time.Duration) DrainOption {
	return func(d *AnalyticsDrain) {
		d.retryDelay = delay
	}
}

func WithPollInterval(interval time.Duration) DrainOption {
	return func(d *AnalyticsDrain) {
		if interval > 0 {
			d.pollInterval = interval
		}
	}
}

// AnalyticsDrain moves queued analytics events into a recorder. Deliveries
// that cannot be decoded are dead-lettered; recorder failures are nacked
// under the retry policy. Attempts are tracked per event id in memory.
type AnalyticsDrain struct {
	dequeuer     queue.Dequeuer
	recorder     EventRecorder
	policy       RetryPolicy
	retryDelay   time.Duration
	pollInterval time.Duration
	logger       core.Logger

	mu       sync.Mutex
	attempts map[string]int
}

func NewAnalyticsDrain(dequeuer queue.Dequeuer, recorder EventRecorder, policy RetryPolicy, opts ...DrainOption) *AnalyticsDrain {
	drain := &AnalyticsDrain{
		dequeuer:     dequeuer,
		recorder:     recorder,
		policy:       policy,
		pollInterval: defaultPollInterval,
		logger:       glog.Nop(),
		attempts:     map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(drain)
		}
	}
	return drain
}

// DrainOne handles a single delivery. It returns an error only when the
// dequeue itself or the ack/nack fails.
func (d *AnalyticsDrain) DrainOne(ctx context.Context) error {
	if d == nil || d.dequeuer == nil || d.recorder == nil {
		return fmt.Errorf("gojob: analytics drain is not configured")
	}
	delivery, err := d.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	if delivery == nil {
		return nil
	}

	event, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		d.logger.Warn("analytics delivery dropped", "error", err)
		return delivery.Nack(ctx, queue.NackOptions{DeadLetter: true, Reason: err.Error()})
	}

	if err := d.recorder.Record(ctx, event); err != nil {
		attempt := d.nextAttempt(event.ID)
		opts := d.policy.NormalizeAttempt(queue.NackOptions{
			Delay:   d.retryDelay,
			Requeue: true,
			Reason:  err.Error(),
		}, attempt)
		if !opts.Requeue {
			d.forget(event.ID)
		}
		d.logger.Warn("analytics event record failed",
			"event_id", event.ID,
			"attempt", attempt,
			"requeue", opts.Requeue,
			"dead_letter", opts.DeadLetter,
			"error", err,
		)
		return delivery.Nack(ctx, opts)
	}

	d.forget(event.ID)
	d.logger.Debug("analytics event recorded", "event_id", event.ID, "type", event.TypeIdentifier)
	return delivery.Ack(ctx)
}

// Run drains until ctx is cancelled, backing off by the poll interval after
// a failed dequeue.
func (d *AnalyticsDrain) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.DrainOne(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Debug("analytics drain idle", "error", err)
			timer := time.NewTimer(d.pollInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

func (d *AnalyticsDrain) nextAttempt(eventID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts[eventID]++
	return d.attempts[eventID]
}

func (d *AnalyticsDrain) forget(eventID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.attempts, eventID)
}
