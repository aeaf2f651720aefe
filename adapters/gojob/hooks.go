package gojob

import (
	"context"
	"strconv"

	"github.com/goliatone/go-card-management/core"

	"github.com/goliatone/go-job/queue/worker"
)

const (
	MetricAnalyticsJobTotal    = "cardmanagement.analytics_job.total"
	MetricAnalyticsJobDuration = "cardmanagement.analytics_job.duration_ms"
)

// MetricsHook reports go-job worker lifecycle events for analytics jobs to
// a core.MetricsRecorder.
type MetricsHook struct {
	recorder core.MetricsRecorder
}

func NewMetricsHook(recorder core.MetricsRecorder) *MetricsHook {
	if recorder == nil {
		recorder = core.NopMetricsRecorder{}
	}
	return &MetricsHook{recorder: recorder}
}

func (h *MetricsHook) OnStart(ctx context.Context, event worker.Event) {
	h.count(ctx, event, "started")
}

func (h *MetricsHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.count(ctx, event, "success")
	h.observe(ctx, event, "success")
}

func (h *MetricsHook) OnFailure(ctx context.Context, event worker.Event) {
	h.count(ctx, event, "failure")
	h.observe(ctx, event, "failure")
}

func (h *MetricsHook) OnRetry(ctx context.Context, event worker.Event) {
	h.count(ctx, event, "retry")
}

func (h *MetricsHook) count(ctx context.Context, event worker.Event, status string) {
	if h == nil || h.recorder == nil {
		return
	}
	h.recorder.IncCounter(ctx, MetricAnalyticsJobTotal, 1, eventTags(event, status))
}

func (h *MetricsHook) observe(ctx context.Context, event worker.Event, status string) {
	if h == nil || h.recorder == nil || event.Duration <= 0 {
		return
	}
	h.recorder.ObserveHistogram(ctx, MetricAnalyticsJobDuration, float64(event.Duration.Milliseconds()), eventTags(event, status))
}

func eventTags(event worker.Event, status string) map[string]string {
	tags := map[string]string{
		"status":  status,
		"attempt": strconv.Itoa(event.Attempt),
	}
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	if message != nil {
		tags["job_id"] = message.JobID
	}
	return tags
}

var (
	_ worker.Hook          = (*MetricsHook)(nil)
	_ core.RemoteProcessor = (*AnalyticsDispatcher)(nil)
)
