package command

import (
	"github.com/goliatone/go-card-management/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Commander[ActivateCardMessage]              = (*ActivateCardCommand)(nil)
	_ gocmd.Commander[SuspendCardMessage]               = (*SuspendCardCommand)(nil)
	_ gocmd.Commander[RevokeCardMessage]                = (*RevokeCardCommand)(nil)
	_ gocmd.Commander[LogInMessage]                     = (*LogInCommand)(nil)
	_ gocmd.Commander[LogOutMessage]                    = (*LogOutCommand)(nil)
	_ gocmd.Commander[ConfigurePushProvisioningMessage] = (*ConfigurePushProvisioningCommand)(nil)
	_ gocmd.Commander[ProvisionCardMessage]             = (*ProvisionCardCommand)(nil)
	_ gocmd.Commander[CopyPanMessage]                   = (*CopyPanCommand)(nil)

	_ CardResolver               = (*core.CardDirectory)(nil)
	_ SessionManager             = (*core.CardDirectory)(nil)
	_ PushProvisioningConfigurer = (*core.CardDirectory)(nil)
)
