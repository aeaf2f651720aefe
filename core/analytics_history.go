package core

import (
	"context"
	"time"
)

// AnalyticsEventFilter selects recorded analytics events. Zero fields do not
// filter; Page is 1-based.
type AnalyticsEventFilter struct {
	SessionID       string
	TypeIdentifier  string
	MonitoringLevel MonitoringLevel
	From            *time.Time
	To              *time.Time
	Page            int
	PerPage         int
}

type AnalyticsEventPage struct {
	Items   []AnalyticsEvent
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

// AnalyticsEventReader lists events persisted by an analytics store.
type AnalyticsEventReader interface {
	List(ctx context.Context, filter AnalyticsEventFilter) (AnalyticsEventPage, error)
}
