package query

import (
	"github.com/goliatone/go-card-management/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[GetCardsMessage, []*core.Card]                       = (*GetCardsQuery)(nil)
	_ gocmd.Querier[GetCardMessage, *core.Card]                          = (*GetCardQuery)(nil)
	_ gocmd.Querier[GetDigitizationStateMessage, core.DigitizationData]  = (*GetDigitizationStateQuery)(nil)
	_ gocmd.Querier[GetSecureFieldMessage, SecureFieldView]              = (*GetSecureFieldQuery)(nil)
	_ gocmd.Querier[ListAnalyticsEventsMessage, core.AnalyticsEventPage] = (*ListAnalyticsEventsQuery)(nil)

	_ CardLister   = (*core.CardDirectory)(nil)
	_ CardResolver = (*core.CardDirectory)(nil)
)
