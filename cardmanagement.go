// Package cardmanagement is the entry point for issuing card management:
// session handling, card listing, lifecycle transitions, secure field
// display and wallet provisioning, all reported to an analytics pipeline.
package cardmanagement

import "github.com/goliatone/go-card-management/core"

type Config = core.Config

type AnalyticsConfig = core.AnalyticsConfig

type Environment = core.Environment

type Option = core.Option

type CardManager = core.CardManager

type Card = core.Card

type CardService = core.CardService

type CardState = core.CardState

type DesignSystem = core.DesignSystem

type DigitizationData = core.DigitizationData

type WalletCard = core.WalletCard

type CardManagementError = core.CardManagementError

type AnalyticsEvent = core.AnalyticsEvent

type AnalyticsEventFilter = core.AnalyticsEventFilter

type AnalyticsEventPage = core.AnalyticsEventPage

type RemoteProcessor = core.RemoteProcessor

type EventSink = core.EventSink

type MetricsRecorder = core.MetricsRecorder

const (
	CardStateInactive  = core.CardStateInactive
	CardStateActive    = core.CardStateActive
	CardStateSuspended = core.CardStateSuspended
	CardStateRevoked   = core.CardStateRevoked
)

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithRemoteProcessor = core.WithRemoteProcessor
	WithEventSink       = core.WithEventSink
	WithClock           = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewCardManager validates cfg and builds a manager over service. The
// manager logs the initialised event with design before returning.
func NewCardManager(service CardService, design DesignSystem, cfg Config, opts ...Option) (*CardManager, error) {
	return core.NewCardManager(service, design, cfg, opts...)
}

// Setup builds a manager and a facade over it in one call.
func Setup(service CardService, design DesignSystem, cfg Config, opts ...Option) (*Facade, error) {
	manager, err := NewCardManager(service, design, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewFacade(manager)
}
