package command

import (
	"context"

	"github.com/goliatone/go-card-management/core"
	gocmd "github.com/goliatone/go-command"
)

type CardResolver interface {
	Resolve(ctx context.Context, cardID string) (*core.Card, error)
}

type SessionManager interface {
	LogInSession(token string) bool
	LogoutSession()
}

type PushProvisioningConfigurer interface {
	ConfigurePushProvisioning(
		ctx context.Context,
		cardholderID string,
		appGroupID string,
		configuration map[string]any,
		walletCards []core.WalletCard,
	) error
}

// CardStateResult is stored in the go-command result collector after a
// successful state change.
type CardStateResult struct {
	CardID string
	State  core.CardState
}

type ActivateCardCommand struct {
	cards CardResolver
}

func NewActivateCardCommand(cards CardResolver) *ActivateCardCommand {
	return &ActivateCardCommand{cards: cards}
}

func (c *ActivateCardCommand) Execute(ctx context.Context, msg ActivateCardMessage) error {
	if c == nil || c.cards == nil {
		return commandDependencyError("command: card resolver is required")
	}
	card, err := c.cards.Resolve(ctx, msg.CardID)
	if err != nil {
		return err
	}
	if err := card.Activate(ctx); err != nil {
		return err
	}
	storeResult(ctx, CardStateResult{CardID: card.ID, State: card.State()})
	return nil
}

type SuspendCardCommand struct {
	cards CardResolver
}

func NewSuspendCardCommand(cards CardResolver) *SuspendCardCommand {
	return &SuspendCardCommand{cards: cards}
}

func (c *SuspendCardCommand) Execute(ctx context.Context, msg SuspendCardMessage) error {
	if c == nil || c.cards == nil {
		return commandDependencyError("command: card resolver is required")
	}
	card, err := c.cards.Resolve(ctx, msg.CardID)
	if err != nil {
		return err
	}
	if err := card.Suspend(ctx, msg.Reason); err != nil {
		return err
	}
	storeResult(ctx, CardStateResult{CardID: card.ID, State: card.State()})
	return nil
}

type RevokeCardCommand struct {
	cards CardResolver
}

func NewRevokeCardCommand(cards CardResolver) *RevokeCardCommand {
	return &RevokeCardCommand{cards: cards}
}

func (c *RevokeCardCommand) Execute(ctx context.Context, msg RevokeCardMessage) error {
	if c == nil || c.cards == nil {
		return commandDependencyError("command: card resolver is required")
	}
	card, err := c.cards.Resolve(ctx, msg.CardID)
	if err != nil {
		return err
	}
	if err := card.Revoke(ctx, msg.Reason); err != nil {
		return err
	}
	storeResult(ctx, CardStateResult{CardID: card.ID, State: card.State()})
	return nil
}

type LogInCommand struct {
	sessions SessionManager
}

func NewLogInCommand(sessions SessionManager) *LogInCommand {
	return &LogInCommand{sessions: sessions}
}

// Execute fails with an unauthenticated error when the token is rejected.
func (c *LogInCommand) Execute(ctx context.Context, msg LogInMessage) error {
	if c == nil || c.sessions == nil {
		return commandDependencyError("command: session manager is required")
	}
	if !c.sessions.LogInSession(msg.SessionToken) {
		return &core.CardManagementError{Kind: core.ErrorKindUnauthenticated}
	}
	storeResult(ctx, true)
	return nil
}

type LogOutCommand struct {
	sessions SessionManager
}

func NewLogOutCommand(sessions SessionManager) *LogOutCommand {
	return &LogOutCommand{sessions: sessions}
}

func (c *LogOutCommand) Execute(context.Context, LogOutMessage) error {
	if c == nil || c.sessions == nil {
		return commandDependencyError("command: session manager is required")
	}
	c.sessions.LogoutSession()
	return nil
}

type ConfigurePushProvisioningCommand struct {
	cards      CardResolver
	configurer PushProvisioningConfigurer
}

func NewConfigurePushProvisioningCommand(cards CardResolver, configurer PushProvisioningConfigurer) *ConfigurePushProvisioningCommand {
	return &ConfigurePushProvisioningCommand{cards: cards, configurer: configurer}
}

func (c *ConfigurePushProvisioningCommand) Execute(ctx context.Context, msg ConfigurePushProvisioningMessage) error {
	if c == nil || c.configurer == nil {
		return commandDependencyError("command: push provisioning configurer is required")
	}
	walletCards := make([]core.WalletCard, 0, len(msg.CardIDs))
	for _, cardID := range msg.CardIDs {
		if c.cards == nil {
			return commandDependencyError("command: card resolver is required")
		}
		card, err := c.cards.Resolve(ctx, cardID)
		if err != nil {
			return err
		}
		walletCards = append(walletCards, core.WalletCard{Card: card, Art: msg.CardArt[cardID]})
	}
	return c.configurer.ConfigurePushProvisioning(ctx, msg.CardholderID, msg.AppGroupID, msg.Configuration, walletCards)
}

type ProvisionCardCommand struct {
	cards CardResolver
}

func NewProvisionCardCommand(cards CardResolver) *ProvisionCardCommand {
	return &ProvisionCardCommand{cards: cards}
}

func (c *ProvisionCardCommand) Execute(ctx context.Context, msg ProvisionCardMessage) error {
	if c == nil || c.cards == nil {
		return commandDependencyError("command: card resolver is required")
	}
	card, err := c.cards.Resolve(ctx, msg.CardID)
	if err != nil {
		return err
	}
	return card.Provision(ctx, msg.ProvisioningToken)
}

// CopyPanCommand requires the PAN to have been viewed through the same
// resolver beforehand.
type CopyPanCommand struct {
	cards CardResolver
}

func NewCopyPanCommand(cards CardResolver) *CopyPanCommand {
	return &CopyPanCommand{cards: cards}
}

func (c *CopyPanCommand) Execute(ctx context.Context, msg CopyPanMessage) error {
	if c == nil || c.cards == nil {
		return commandDependencyError("command: card resolver is required")
	}
	card, err := c.cards.Resolve(ctx, msg.CardID)
	if err != nil {
		return err
	}
	return card.CopyPan(ctx, msg.SingleUseToken)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
