package core

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// observeOperation emits the operational log line and metrics for one
// manager or card operation. It is independent of the analytics event.
func (m *CardManager) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if m == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsed := m.now().Sub(startedAt)

	contextFields := RedactSensitiveMap(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = elapsed.Milliseconds()
	contextFields["environment"] = string(m.config.Environment)
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation":   operation,
		"status":      status,
		"environment": string(m.config.Environment),
	}
	if err != nil {
		if cardErr := FromNetworkError(err); cardErr != nil {
			tags["error_kind"] = string(cardErr.Kind)
		}
	}
	if state := strings.TrimSpace(fmt.Sprint(contextFields["to"])); state != "" && state != "<nil>" {
		tags["target_state"] = state
	}

	m.recordCounter(ctx, metricPrefix+operation+".total", 1, tags)
	m.recordHistogram(ctx, metricPrefix+operation+".duration_ms", float64(elapsed.Milliseconds()), tags)

	if err != nil {
		m.writeLog(ctx, true, operation+" failed", contextFields)
		return
	}
	m.writeLog(ctx, false, operation+" succeeded", contextFields)
}

// writeLog prefers structured fields when the logger supports them and
// always appends the fields as sorted key/value args.
func (m *CardManager) writeLog(ctx context.Context, failed bool, message string, fields map[string]any) {
	if m == nil || m.logger == nil {
		return
	}
	logger := m.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	if failed {
		logger.Error(message, flattenFields(fields)...)
		return
	}
	logger.Info(message, flattenFields(fields)...)
}

func (m *CardManager) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if m == nil || m.metricsRecorder == nil {
		return
	}
	m.metricsRecorder.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (m *CardManager) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if m == nil || m.metricsRecorder == nil {
		return
	}
	m.metricsRecorder.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields))
	maps.Copy(copied, fields)
	return copied
}

func flattenFields(fields map[string]any) []any {
	var args []any
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, key, fields[key])
	}
	return args
}

var operationSeparators = strings.NewReplacer(" ", "_", "-", "_")

func normalizeOperation(operation string) string {
	return operationSeparators.Replace(strings.ToLower(strings.TrimSpace(operation)))
}
