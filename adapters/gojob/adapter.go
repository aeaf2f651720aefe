package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-card-management/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const (
	JobIDAnalyticsDispatch = "cardmanagement.analytics.dispatch"
	ScriptAnalyticsRecord  = "cardmanagement.analytics.record"

	// DedupPolicyDrop discards a message whose idempotency key is already
	// queued. Analytics events carry their event id as the key.
	DedupPolicyDrop job.DeduplicationPolicy = "drop"
)

const (
	paramEventID         = "event_id"
	paramSessionID       = "session_id"
	paramTypeIdentifier  = "type_identifier"
	paramTime            = "time"
	paramMonitoringLevel = "monitoring_level"
	paramProperties      = "properties"
	paramMetadata        = "metadata"
)

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// ToExecutionMessage encodes a formatted analytics event as a go-job
// message keyed by the event id.
func ToExecutionMessage(event core.AnalyticsEvent) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      JobIDAnalyticsDispatch,
		ScriptPath: ScriptAnalyticsRecord,
		Parameters: map[string]any{
			paramEventID:         event.ID,
			paramSessionID:       event.SessionID,
			paramTypeIdentifier:  event.TypeIdentifier,
			paramTime:            event.Time.UTC().Format(time.RFC3339Nano),
			paramMonitoringLevel: string(event.MonitoringLevel),
			paramProperties:      copyAnyMap(event.Properties),
			paramMetadata:        copyStringMap(event.Metadata),
		},
		IdempotencyKey: strings.TrimSpace(event.ID),
		DedupPolicy:    DedupPolicyDrop,
	}
}

// FromExecutionMessage decodes an analytics event. Parameters may have been
// through a JSON round trip, so nested maps are accepted in either form.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.AnalyticsEvent, error) {
	if msg == nil {
		return core.AnalyticsEvent{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDAnalyticsDispatch {
		return core.AnalyticsEvent{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	params := msg.Parameters
	event := core.AnalyticsEvent{
		ID:              stringParam(params, paramEventID),
		SessionID:       stringParam(params, paramSessionID),
		TypeIdentifier:  stringParam(params, paramTypeIdentifier),
		MonitoringLevel: core.MonitoringLevel(stringParam(params, paramMonitoringLevel)),
		Properties:      anyMapParam(params, paramProperties),
		Metadata:        stringMapParam(params, paramMetadata),
	}
	if event.ID == "" {
		event.ID = strings.TrimSpace(msg.IdempotencyKey)
	}
	if event.ID == "" || event.TypeIdentifier == "" {
		return core.AnalyticsEvent{}, fmt.Errorf("gojob: analytics event id and type are required")
	}
	if raw := stringParam(params, paramTime); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return core.AnalyticsEvent{}, fmt.Errorf("gojob: parse event time: %w", err)
		}
		event.Time = parsed
	}
	return event, nil
}

// AnalyticsDispatcher is a core.RemoteProcessor that hands each analytics
// event to a go-job queue instead of shipping it inline.
type AnalyticsDispatcher struct {
	enqueuer queue.Enqueuer
}

func NewAnalyticsDispatcher(enqueuer queue.Enqueuer) *AnalyticsDispatcher {
	return &AnalyticsDispatcher{enqueuer: enqueuer}
}

func (d *AnalyticsDispatcher) Process(ctx context.Context, event core.AnalyticsEvent) error {
	if d == nil || d.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("gojob: analytics event id is required")
	}
	return d.enqueuer.Enqueue(ctx, ToExecutionMessage(event))
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyStringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func stringParam(params map[string]any, key string) string {
	value, _ := params[key].(string)
	return strings.TrimSpace(value)
}

func anyMapParam(params map[string]any, key string) map[string]any {
	value, _ := params[key].(map[string]any)
	return copyAnyMap(value)
}

func stringMapParam(params map[string]any, key string) map[string]string {
	out := map[string]string{}
	switch value := params[key].(type) {
	case map[string]string:
		for k, v := range value {
			out[k] = v
		}
	case map[string]any:
		for k, v := range value {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}
