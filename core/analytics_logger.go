package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultProductName    = "issuing-ios-sdk"
	DefaultProductVersion = "0.1.2"
	SessionMetadataKey    = "session"
)

// RemoteProcessor ships formatted analytics events off device.
type RemoteProcessor interface {
	Process(ctx context.Context, event AnalyticsEvent) error
}

type RemoteProcessorFunc func(ctx context.Context, event AnalyticsEvent) error

func (f RemoteProcessorFunc) Process(ctx context.Context, event AnalyticsEvent) error {
	return f(ctx, event)
}

// EventSink receives every formatted event locally, whether or not remote
// processing is enabled.
type EventSink interface {
	Log(ctx context.Context, event AnalyticsEvent)
}

type RemoteProcessorMetadata struct {
	ProductIdentifier string
	ProductVersion    string
	Environment       Environment
}

func (m RemoteProcessorMetadata) asMap() map[string]string {
	return map[string]string{
		"productIdentifier": m.ProductIdentifier,
		"productVersion":    m.ProductVersion,
		"environment":       string(m.Environment),
	}
}

// AnalyticsLogger formats LogEvents and dispatches each one exactly once to
// the local sink and, when enabled, to the remote processor. Dispatch
// failures are reported to the operational logger and never surface to
// callers.
type AnalyticsLogger struct {
	sessionID string
	formatter LogFormatter
	logger    Logger

	mu             sync.RWMutex
	sink           EventSink
	remote         RemoteProcessor
	remoteMetadata map[string]string
	metadata       map[string]string
}

func NewAnalyticsLogger(formatter LogFormatter, logger Logger, sink EventSink) *AnalyticsLogger {
	if logger == nil {
		logger = nopLogger()
	}
	return &AnalyticsLogger{
		sessionID: uuid.NewString(),
		formatter: formatter,
		logger:    logger,
		sink:      sink,
		metadata:  map[string]string{},
	}
}

func (l *AnalyticsLogger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

func (l *AnalyticsLogger) EnableRemoteProcessor(processor RemoteProcessor, metadata RemoteProcessorMetadata) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remote = processor
	l.remoteMetadata = metadata.asMap()
}

func (l *AnalyticsLogger) AddMetadata(key string, value string) {
	if l == nil {
		return
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.metadata[key] = value
}

// SetupRemoteLogging enables processor with the product metadata and tags
// every later event with the session id.
func (l *AnalyticsLogger) SetupRemoteLogging(
	processor RemoteProcessor,
	productName string,
	productVersion string,
	environment Environment,
) {
	if l == nil || processor == nil {
		return
	}
	l.EnableRemoteProcessor(processor, RemoteProcessorMetadata{
		ProductIdentifier: productName,
		ProductVersion:    fmt.Sprintf("%s-%s", productName, productVersion),
		Environment:       environment,
	})
	l.AddMetadata(SessionMetadataKey, l.sessionID)
}

// Log formats and dispatches event. A zero startedAt omits duration.
func (l *AnalyticsLogger) Log(ctx context.Context, event LogEvent, startedAt time.Time) AnalyticsEvent {
	return l.LogWithProperties(ctx, event, startedAt, nil)
}

func (l *AnalyticsLogger) LogWithProperties(
	ctx context.Context,
	event LogEvent,
	startedAt time.Time,
	extra map[string]string,
) AnalyticsEvent {
	if l == nil {
		return AnalyticsEvent{}
	}
	formatted := l.formatter.Build(event, startedAt, extra)
	formatted.ID = uuid.NewString()
	formatted.SessionID = l.sessionID

	l.mu.RLock()
	formatted.Metadata = mergeStringMaps(l.remoteMetadata, l.metadata)
	sink := l.sink
	remote := l.remote
	l.mu.RUnlock()

	if sink != nil {
		sink.Log(ctx, formatted)
	}
	if remote != nil {
		if err := remote.Process(ctx, formatted); err != nil {
			l.logger.Warn("analytics remote processing failed",
				"event_type", formatted.TypeIdentifier,
				"event_id", formatted.ID,
				"error", err.Error(),
			)
		}
	}
	return formatted
}

// LogError emits a failure event whose source is read from
// additionalInfo["source"].
func (l *AnalyticsLogger) LogError(ctx context.Context, err error, additionalInfo map[string]any) AnalyticsEvent {
	source := ""
	if raw, ok := additionalInfo["source"]; ok && raw != nil {
		source = strings.TrimSpace(fmt.Sprint(raw))
	}
	return l.Log(ctx, FailureEvent{
		Source:         source,
		Err:            err,
		NetworkError:   asNetworkError(err),
		AdditionalInfo: additionalInfo,
	}, time.Time{})
}

func mergeStringMaps(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, values := range maps {
		for key, value := range values {
			out[key] = value
		}
	}
	return out
}
