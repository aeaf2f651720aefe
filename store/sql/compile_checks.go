package sqlstore

import "github.com/goliatone/go-card-management/core"

var (
	_ core.RemoteProcessor      = (*EventStore)(nil)
	_ core.EventSink            = (*EventStore)(nil)
	_ core.AnalyticsEventReader = (*EventStore)(nil)
	_ core.CardService          = (*CachedCardService)(nil)
)
