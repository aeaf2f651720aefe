package query

import (
	"context"

	"github.com/goliatone/go-card-management/core"
)

type CardLister interface {
	Refresh(ctx context.Context, statuses ...core.CardState) ([]*core.Card, error)
}

type CardResolver interface {
	Resolve(ctx context.Context, cardID string) (*core.Card, error)
}

// SecureFieldView holds the views returned for a secure field query. For
// pan_and_security_code both views are set; otherwise only View is.
type SecureFieldView struct {
	CardID       string
	Field        SecureField
	View         core.SecureView
	SecurityCode core.SecureView
}

type GetCardsQuery struct {
	lister CardLister
}

func NewGetCardsQuery(lister CardLister) *GetCardsQuery {
	return &GetCardsQuery{lister: lister}
}

func (q *GetCardsQuery) Query(ctx context.Context, msg GetCardsMessage) ([]*core.Card, error) {
	if q == nil || q.lister == nil {
		return nil, queryDependencyError("query: card lister is required")
	}
	return q.lister.Refresh(ctx, msg.Statuses...)
}

type GetCardQuery struct {
	cards CardResolver
}

func NewGetCardQuery(cards CardResolver) *GetCardQuery {
	return &GetCardQuery{cards: cards}
}

func (q *GetCardQuery) Query(ctx context.Context, msg GetCardMessage) (*core.Card, error) {
	if q == nil || q.cards == nil {
		return nil, queryDependencyError("query: card resolver is required")
	}
	return q.cards.Resolve(ctx, msg.CardID)
}

type GetDigitizationStateQuery struct {
	cards CardResolver
}

func NewGetDigitizationStateQuery(cards CardResolver) *GetDigitizationStateQuery {
	return &GetDigitizationStateQuery{cards: cards}
}

func (q *GetDigitizationStateQuery) Query(
	ctx context.Context,
	msg GetDigitizationStateMessage,
) (core.DigitizationData, error) {
	if q == nil || q.cards == nil {
		return core.DigitizationData{}, queryDependencyError("query: card resolver is required")
	}
	card, err := q.cards.Resolve(ctx, msg.CardID)
	if err != nil {
		return core.DigitizationData{}, err
	}
	return card.GetDigitizationState(ctx, msg.ProvisioningToken)
}

type GetSecureFieldQuery struct {
	cards CardResolver
}

func NewGetSecureFieldQuery(cards CardResolver) *GetSecureFieldQuery {
	return &GetSecureFieldQuery{cards: cards}
}

// Query marks the PAN as viewed on the resolved card instance when the field
// includes it, which later allows a copy.
func (q *GetSecureFieldQuery) Query(ctx context.Context, msg GetSecureFieldMessage) (SecureFieldView, error) {
	if q == nil || q.cards == nil {
		return SecureFieldView{}, queryDependencyError("query: card resolver is required")
	}
	card, err := q.cards.Resolve(ctx, msg.CardID)
	if err != nil {
		return SecureFieldView{}, err
	}
	result := SecureFieldView{CardID: card.ID, Field: msg.Field}
	switch msg.Field {
	case SecureFieldPin:
		result.View, err = card.GetPin(ctx, msg.SingleUseToken)
	case SecureFieldPan:
		result.View, err = card.GetPan(ctx, msg.SingleUseToken)
	case SecureFieldSecurityCode:
		result.View, err = card.GetSecurityCode(ctx, msg.SingleUseToken)
	case SecureFieldPanAndSecurityCode:
		var pair core.SecureViewPair
		pair, err = card.GetPanAndSecurityCode(ctx, msg.SingleUseToken)
		result.View, result.SecurityCode = pair.Pan, pair.SecurityCode
	default:
		return SecureFieldView{}, queryValidationError("field", "unsupported secure field")
	}
	if err != nil {
		return SecureFieldView{}, err
	}
	return result, nil
}

type ListAnalyticsEventsQuery struct {
	reader core.AnalyticsEventReader
}

func NewListAnalyticsEventsQuery(reader core.AnalyticsEventReader) *ListAnalyticsEventsQuery {
	return &ListAnalyticsEventsQuery{reader: reader}
}

func (q *ListAnalyticsEventsQuery) Query(
	ctx context.Context,
	msg ListAnalyticsEventsMessage,
) (core.AnalyticsEventPage, error) {
	if q == nil || q.reader == nil {
		return core.AnalyticsEventPage{}, queryDependencyError("query: analytics event reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}
