package command

import (
	"strings"

	"github.com/goliatone/go-card-management/core"
)

const (
	TypeActivateCard              = "cardmanagement.command.card.activate"
	TypeSuspendCard               = "cardmanagement.command.card.suspend"
	TypeRevokeCard                = "cardmanagement.command.card.revoke"
	TypeLogIn                     = "cardmanagement.command.session.login"
	TypeLogOut                    = "cardmanagement.command.session.logout"
	TypeConfigurePushProvisioning = "cardmanagement.command.push_provisioning.configure"
	TypeProvisionCard             = "cardmanagement.command.card.provision"
	TypeCopyPan                   = "cardmanagement.command.card.copy_pan"
)

type ActivateCardMessage struct {
	CardID string
}

func (ActivateCardMessage) Type() string { return TypeActivateCard }

func (m ActivateCardMessage) Validate() error {
	return validateCardID(m.CardID)
}

type SuspendCardMessage struct {
	CardID string
	Reason core.CardSuspendReason
}

func (SuspendCardMessage) Type() string { return TypeSuspendCard }

func (m SuspendCardMessage) Validate() error {
	if err := validateCardID(m.CardID); err != nil {
		return err
	}
	switch m.Reason {
	case "", core.CardSuspendReasonLost, core.CardSuspendReasonStolen:
		return nil
	default:
		return commandValidationError("reason", "suspend reason must be lost or stolen")
	}
}

type RevokeCardMessage struct {
	CardID string
	Reason core.CardRevokeReason
}

func (RevokeCardMessage) Type() string { return TypeRevokeCard }

func (m RevokeCardMessage) Validate() error {
	if err := validateCardID(m.CardID); err != nil {
		return err
	}
	switch m.Reason {
	case "", core.CardRevokeReasonLost, core.CardRevokeReasonStolen:
		return nil
	default:
		return commandValidationError("reason", "revoke reason must be lost or stolen")
	}
}

type LogInMessage struct {
	SessionToken string
}

func (LogInMessage) Type() string { return TypeLogIn }

func (m LogInMessage) Validate() error {
	if strings.TrimSpace(m.SessionToken) == "" {
		return commandValidationError("session_token", "session token is required")
	}
	return nil
}

type LogOutMessage struct{}

func (LogOutMessage) Type() string { return TypeLogOut }

// ConfigurePushProvisioningMessage lists wallet cards by id; CardArt is keyed
// by card id and optional.
type ConfigurePushProvisioningMessage struct {
	CardholderID  string
	AppGroupID    string
	Configuration map[string]any
	CardIDs       []string
	CardArt       map[string]any
}

func (ConfigurePushProvisioningMessage) Type() string { return TypeConfigurePushProvisioning }

func (m ConfigurePushProvisioningMessage) Validate() error {
	if strings.TrimSpace(m.CardholderID) == "" {
		return commandValidationError("cardholder_id", "cardholder id is required")
	}
	for _, cardID := range m.CardIDs {
		if err := validateCardID(cardID); err != nil {
			return err
		}
	}
	return nil
}

type ProvisionCardMessage struct {
	CardID            string
	ProvisioningToken string
}

func (ProvisionCardMessage) Type() string { return TypeProvisionCard }

func (m ProvisionCardMessage) Validate() error {
	if err := validateCardID(m.CardID); err != nil {
		return err
	}
	if strings.TrimSpace(m.ProvisioningToken) == "" {
		return commandValidationError("provisioning_token", "provisioning token is required")
	}
	return nil
}

type CopyPanMessage struct {
	CardID         string
	SingleUseToken string
}

func (CopyPanMessage) Type() string { return TypeCopyPan }

func (m CopyPanMessage) Validate() error {
	return validateCardID(m.CardID)
}

func validateCardID(cardID string) error {
	if strings.TrimSpace(cardID) == "" {
		return commandValidationError("card_id", "card id is required")
	}
	return nil
}
