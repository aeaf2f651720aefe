package query

import (
	"strings"

	"github.com/goliatone/go-card-management/core"
)

const (
	TypeGetCards             = "cardmanagement.query.cards.list"
	TypeGetCard              = "cardmanagement.query.card.get"
	TypeGetDigitizationState = "cardmanagement.query.card.digitization_state"
	TypeGetSecureField       = "cardmanagement.query.card.secure_field"
	TypeListAnalyticsEvents  = "cardmanagement.query.analytics_events.list"
)

type GetCardsMessage struct {
	Statuses []core.CardState
}

func (GetCardsMessage) Type() string { return TypeGetCards }

func (m GetCardsMessage) Validate() error {
	for _, status := range m.Statuses {
		if !status.Valid() {
			return queryValidationError("statuses", "unknown card state "+string(status))
		}
	}
	return nil
}

type GetCardMessage struct {
	CardID string
}

func (GetCardMessage) Type() string { return TypeGetCard }

func (m GetCardMessage) Validate() error {
	return validateCardID(m.CardID)
}

type GetDigitizationStateMessage struct {
	CardID            string
	ProvisioningToken string
}

func (GetDigitizationStateMessage) Type() string { return TypeGetDigitizationState }

func (m GetDigitizationStateMessage) Validate() error {
	if err := validateCardID(m.CardID); err != nil {
		return err
	}
	if strings.TrimSpace(m.ProvisioningToken) == "" {
		return queryValidationError("provisioning_token", "provisioning token is required")
	}
	return nil
}

type SecureField string

const (
	SecureFieldPin                SecureField = "pin"
	SecureFieldPan                SecureField = "pan"
	SecureFieldSecurityCode       SecureField = "security_code"
	SecureFieldPanAndSecurityCode SecureField = "pan_and_security_code"
)

// GetSecureFieldMessage asks the card network for a secure view of one
// sensitive field. The single-use token is forwarded untouched.
type GetSecureFieldMessage struct {
	CardID         string
	Field          SecureField
	SingleUseToken string
}

func (GetSecureFieldMessage) Type() string { return TypeGetSecureField }

func (m GetSecureFieldMessage) Validate() error {
	if err := validateCardID(m.CardID); err != nil {
		return err
	}
	switch m.Field {
	case SecureFieldPin, SecureFieldPan, SecureFieldSecurityCode, SecureFieldPanAndSecurityCode:
		return nil
	default:
		return queryValidationError("field", "field must be pin, pan, security_code or pan_and_security_code")
	}
}

type ListAnalyticsEventsMessage struct {
	Filter core.AnalyticsEventFilter
}

func (ListAnalyticsEventsMessage) Type() string { return TypeListAnalyticsEvents }

func (m ListAnalyticsEventsMessage) Validate() error {
	if m.Filter.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	if m.Filter.From != nil && m.Filter.To != nil && m.Filter.To.Before(*m.Filter.From) {
		return queryValidationError("to", "to must not be before from")
	}
	return nil
}

func validateCardID(cardID string) error {
	if strings.TrimSpace(cardID) == "" {
		return queryValidationError("card_id", "card id is required")
	}
	return nil
}
