package devkit

import (
	"github.com/goliatone/go-card-management/core"
)

const (
	SampleSessionToken   = "devkit_session_token"
	SampleSingleUseToken = "devkit_single_use_token"
	SampleProvisionToken = "devkit_provisioning_token"
	SampleCardholderID   = "crh_devkit"

	SampleActiveCardID    = "crd_active"
	SampleInactiveCardID  = "crd_inactive"
	SampleSuspendedCardID = "crd_suspended"
	SampleRevokedCardID   = "crd_revoked"
)

// SampleCards returns one card per lifecycle state.
func SampleCards() []core.NetworkCard {
	return []core.NetworkCard{
		{
			ID:             SampleActiveCardID,
			State:          core.CardStateActive,
			PanLast4Digits: "4242",
			ExpiryDate:     core.ExpiryDate{Month: "09", Year: "29"},
			DisplayName:    "Ada Lovelace",
		},
		{
			ID:             SampleInactiveCardID,
			State:          core.CardStateInactive,
			PanLast4Digits: "1881",
			ExpiryDate:     core.ExpiryDate{Month: "01", Year: "30"},
			DisplayName:    "Ada Lovelace",
		},
		{
			ID:             SampleSuspendedCardID,
			State:          core.CardStateSuspended,
			PanLast4Digits: "0005",
			ExpiryDate:     core.ExpiryDate{Month: "12", Year: "28"},
			DisplayName:    "Grace Hopper",
		},
		{
			ID:             SampleRevokedCardID,
			State:          core.CardStateRevoked,
			PanLast4Digits: "9999",
			ExpiryDate:     core.ExpiryDate{Month: "03", Year: "27"},
			DisplayName:    "Grace Hopper",
		},
	}
}

// NewSampleCardService seeds a fake network with SampleCards that only
// accepts SampleSessionToken.
func NewSampleCardService() *FakeCardService {
	return NewFakeCardService(SampleCards()...).AcceptTokens(SampleSessionToken)
}

func SampleDesignSystem() core.DesignSystem {
	return core.NewDesignSystem(
		core.Font{Name: "SF Mono", Weight: "regular", Size: 16},
		core.RGB(0.1, 0.1, 0.1),
	)
}

func SampleWalletConfiguration() map[string]any {
	return map[string]any{
		"serviceRSAExponent": "AQAB",
		"serviceURL":         "https://wallet.devkit.test",
		"digitalCardURL":     "https://wallet.devkit.test/cards",
	}
}

// NewSandboxManager builds a manager for the sandbox environment against
// service, with remote logging disabled.
func NewSandboxManager(service core.CardService, opts ...core.Option) (*core.CardManager, error) {
	cfg := core.DefaultConfig()
	cfg.Environment = core.EnvironmentSandbox
	cfg.Analytics.DisableRemoteLogging = true
	return core.NewCardManager(service, SampleDesignSystem(), cfg, opts...)
}
