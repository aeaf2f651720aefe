package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-card-management/core"
	glog "github.com/goliatone/go-logger/glog"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultEventsPerPage = 25

// RetentionPolicy bounds the analytics event table. A zero field disables
// that bound.
type RetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

type EventStoreOption func(*EventStore)

func WithEventStoreLogger(logger core.Logger) EventStoreOption {
	return func(s *EventStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEventStoreClock(now func() time.Time) EventStoreOption {
	return func(s *EventStore) {
		if now != nil {
			s.now = now
		}
	}
}

// EventStore persists formatted analytics events. It can be installed as
// the manager's remote processor, as its local event sink, or behind a
// go-job drain as the recorder.
type EventStore struct {
	db     *bun.DB
	repo   repository.Repository[*analyticsEventRecord]
	logger core.Logger
	now    func() time.Time
}

func NewEventStore(db *bun.DB, opts ...EventStoreOption) (*EventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*analyticsEventRecord](db, analyticsEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid analytics event repository wiring: %w", err)
		}
	}
	store := &EventStore{
		db:     db,
		repo:   repo,
		logger: glog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *EventStore) Record(ctx context.Context, event core.AnalyticsEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	typeIdentifier := strings.TrimSpace(event.TypeIdentifier)
	if typeIdentifier == "" {
		return fmt.Errorf("sqlstore: analytics event type is required")
	}
	id := strings.TrimSpace(event.ID)
	if id == "" {
		id = uuid.NewString()
	}
	occurredAt := event.Time.UTC()
	if occurredAt.IsZero() {
		occurredAt = s.now().UTC()
	}
	level := strings.TrimSpace(string(event.MonitoringLevel))
	if level == "" {
		level = string(core.MonitoringLevelInfo)
	}

	record := &analyticsEventRecord{
		ID:              id,
		SessionID:       strings.TrimSpace(event.SessionID),
		TypeIdentifier:  typeIdentifier,
		MonitoringLevel: level,
		Properties:      core.RedactSensitiveMap(event.Properties),
		Metadata:        copyStringMap(event.Metadata),
		OccurredAt:      occurredAt,
		CreatedAt:       s.now().UTC(),
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// Process lets the store act as a core.RemoteProcessor.
func (s *EventStore) Process(ctx context.Context, event core.AnalyticsEvent) error {
	return s.Record(ctx, event)
}

// Log lets the store act as a core.EventSink. Failures are logged, not
// returned.
func (s *EventStore) Log(ctx context.Context, event core.AnalyticsEvent) {
	if err := s.Record(ctx, event); err != nil && s != nil {
		s.logger.Error("analytics event persist failed", "event_id", event.ID, "type", event.TypeIdentifier, "error", err)
	}
}

func (s *EventStore) List(ctx context.Context, filter core.AnalyticsEventFilter) (core.AnalyticsEventPage, error) {
	if s == nil || s.repo == nil {
		return core.AnalyticsEventPage{}, fmt.Errorf("sqlstore: event store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultEventsPerPage
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("occurred_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if sessionID := strings.TrimSpace(filter.SessionID); sessionID != "" {
		selectors = append(selectors, repository.SelectBy("session_id", "=", sessionID))
	}
	if typeIdentifier := strings.TrimSpace(filter.TypeIdentifier); typeIdentifier != "" {
		selectors = append(selectors, repository.SelectBy("type_identifier", "=", typeIdentifier))
	}
	if level := strings.TrimSpace(string(filter.MonitoringLevel)); level != "" {
		selectors = append(selectors, repository.SelectBy("monitoring_level", "=", level))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("occurred_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("occurred_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.AnalyticsEventPage{}, err
	}
	items := make([]core.AnalyticsEvent, 0, len(records))
	for _, record := range records {
		items = append(items, eventRecordToDomain(record))
	}
	return core.AnalyticsEventPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// Prune deletes events older than the TTL, then the oldest events beyond
// the row cap. It returns the number of rows removed.
func (s *EventStore) Prune(ctx context.Context, policy RetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: event store is not configured")
	}
	deleted := 0

	if policy.TTL > 0 {
		cutoff := s.now().UTC().Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*analyticsEventRecord)(nil)).
			Where("occurred_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*analyticsEventRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		if excess := total - policy.RowCap; excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM card_analytics_events WHERE id IN (SELECT id FROM card_analytics_events ORDER BY occurred_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	if deleted > 0 {
		s.logger.Info("analytics events pruned", "deleted", deleted)
	}
	return deleted, nil
}

func eventRecordToDomain(record *analyticsEventRecord) core.AnalyticsEvent {
	if record == nil {
		return core.AnalyticsEvent{}
	}
	return core.AnalyticsEvent{
		ID:              record.ID,
		SessionID:       record.SessionID,
		TypeIdentifier:  record.TypeIdentifier,
		Time:            record.OccurredAt.UTC(),
		MonitoringLevel: core.MonitoringLevel(record.MonitoringLevel),
		Properties:      copyAnyMap(record.Properties),
		Metadata:        copyStringMap(record.Metadata),
	}
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

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
