package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type analyticsEventRecord struct {
	bun.BaseModel `bun:"table:card_analytics_events,alias:cae"`

	ID              string            `bun:"id,pk"`
	SessionID       string            `bun:"session_id,notnull"`
	TypeIdentifier  string            `bun:"type_identifier,notnull"`
	MonitoringLevel string            `bun:"monitoring_level,notnull"`
	Properties      map[string]any    `bun:"properties,type:jsonb,notnull"`
	Metadata        map[string]string `bun:"metadata,type:jsonb,notnull"`
	OccurredAt      time.Time         `bun:"occurred_at,notnull"`
	CreatedAt       time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
