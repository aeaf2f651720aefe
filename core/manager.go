package core

import (
	"context"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	sourceGetCards                  = "Get Cards"
	sourceGetCardDetails            = "Get Card Details"
	sourceConfigurePushProvisioning = "Configure Push Provisioning"
)

// CardManager owns the session token, the card network client and the
// analytics logger. Cards it produces keep a non-owning reference to it.
type CardManager struct {
	config          Config
	service         CardService
	designSystem    DesignSystem
	analytics       *AnalyticsLogger
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	clock           func() time.Time

	mu           sync.RWMutex
	sessionToken string
	released     bool
}

// NewCardManager resolves configuration, enables remote analytics when a
// processor is configured, and emits the initialised event.
func NewCardManager(service CardService, design DesignSystem, cfg Config, opts ...Option) (*CardManager, error) {
	builder := defaultManagerBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("cardmanagement", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("cardmanagement"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if service == nil {
		return nil, builder.errorMapper(ConfigurationIssue("card service is required"))
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = time.Now
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	formatter := LogFormatter{ProductVersion: finalConfig.ProductVersion, Now: builder.clock}
	analytics := NewAnalyticsLogger(formatter, logger, builder.eventSink)
	if builder.remoteProcessor != nil && !finalConfig.Analytics.DisableRemoteLogging {
		analytics.SetupRemoteLogging(
			builder.remoteProcessor,
			finalConfig.ProductName,
			finalConfig.ProductVersion,
			finalConfig.Environment,
		)
	}

	manager := &CardManager{
		config:          finalConfig,
		service:         service,
		designSystem:    design,
		analytics:       analytics,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		clock:           builder.clock,
	}
	analytics.Log(context.Background(), InitializedEvent{Design: design}, time.Time{})
	return manager, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (m *CardManager) Config() Config {
	if m == nil {
		return Config{}
	}
	return m.config
}

func (m *CardManager) DesignSystem() DesignSystem {
	if m == nil {
		return DesignSystem{}
	}
	return m.designSystem
}

func (m *CardManager) Analytics() *AnalyticsLogger {
	if m == nil {
		return nil
	}
	return m.analytics
}

func (m *CardManager) now() time.Time {
	if m == nil || m.clock == nil {
		return time.Now()
	}
	return m.clock()
}

// LogInSession stores token when the network client accepts its format. A
// rejected token clears any existing session.
func (m *CardManager) LogInSession(token string) bool {
	if m == nil {
		return false
	}
	valid := strings.TrimSpace(token) != "" && m.service.IsTokenValid(token)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !valid {
		m.sessionToken = ""
		return false
	}
	m.sessionToken = token
	return true
}

func (m *CardManager) LogoutSession() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionToken = ""
}

func (m *CardManager) HasSession() bool {
	_, ok := m.currentSessionToken()
	return ok
}

func (m *CardManager) currentSessionToken() (string, bool) {
	if m == nil {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionToken, m.sessionToken != ""
}

// Close detaches the manager from every card it produced; later card
// operations fail with a missing manager error.
func (m *CardManager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
	m.sessionToken = ""
}

func (m *CardManager) isReleased() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.released
}

// GetCards lists the session's cards, optionally filtered by state.
func (m *CardManager) GetCards(ctx context.Context, statuses ...CardState) (cards []*Card, err error) {
	startedAt := m.now()
	fields := map[string]any{"statuses": stateNames(statuses)}
	defer func() {
		fields["card_count"] = len(cards)
		m.observeOperation(ctx, startedAt, "get_cards", err, fields)
	}()

	token, ok := m.currentSessionToken()
	if !ok {
		err = newCardError(ErrorKindUnauthenticated)
		m.logFailure(ctx, sourceGetCards, err, nil, startedAt)
		return nil, err
	}
	networkCards, callErr := m.service.GetCards(ctx, token, statuses)
	if callErr != nil {
		err = FromNetworkError(callErr)
		m.logFailure(ctx, sourceGetCards, callErr, nil, startedAt)
		return nil, err
	}

	cards = make([]*Card, 0, len(networkCards))
	ids := make([]string, 0, len(networkCards))
	for _, networkCard := range networkCards {
		card := newCardFromNetwork(networkCard, m)
		cards = append(cards, card)
		ids = append(ids, card.ID)
	}
	m.analytics.Log(ctx, CardListEvent{CardIDs: ids}, startedAt)
	return cards, nil
}

func (m *CardManager) GetCard(ctx context.Context, cardID string) (card *Card, err error) {
	startedAt := m.now()
	fields := map[string]any{"card_id": cardID}
	defer func() {
		m.observeOperation(ctx, startedAt, "get_card", err, fields)
	}()

	token, ok := m.currentSessionToken()
	if !ok {
		err = newCardError(ErrorKindUnauthenticated)
		m.logFailure(ctx, sourceGetCardDetails, err, map[string]any{"cardId": cardID}, startedAt)
		return nil, err
	}
	networkCard, callErr := m.service.GetCard(ctx, cardID, token)
	if callErr != nil {
		err = FromNetworkError(callErr)
		m.logFailure(ctx, sourceGetCardDetails, callErr, map[string]any{"cardId": cardID}, startedAt)
		return nil, err
	}
	card = newCardFromNetwork(networkCard, m)
	m.analytics.Log(ctx, CardDetailsEvent{CardID: card.ID}, startedAt)
	return card, nil
}

// WalletCard pairs a card with the art shown in the wallet.
type WalletCard struct {
	Card *Card
	Art  any
}

// ConfigurePushProvisioning forwards minimal wallet descriptors, never
// whole cards. Errors outside the network taxonomy surface as a push
// provisioning operation failure.
func (m *CardManager) ConfigurePushProvisioning(
	ctx context.Context,
	cardholderID string,
	appGroupID string,
	configuration map[string]any,
	walletCards []WalletCard,
) (err error) {
	startedAt := m.now()
	fields := map[string]any{"cardholder": cardholderID, "wallet_cards": len(walletCards)}
	defer func() {
		m.observeOperation(ctx, startedAt, "configure_push_provisioning", err, fields)
	}()

	details := make([]WalletCardDetails, 0, len(walletCards))
	for _, walletCard := range walletCards {
		if walletCard.Card == nil {
			continue
		}
		details = append(details, WalletCardDetails{
			CardID:    walletCard.Card.ID,
			CardTitle: walletCard.Card.PanLast4Digits,
			CardArt:   walletCard.Art,
		})
	}

	callErr := m.service.ConfigurePushProvisioning(ctx, PushProvisioningRequest{
		CardholderID:  cardholderID,
		AppGroupID:    appGroupID,
		Configuration: cloneFields(configuration),
		WalletCards:   details,
	})
	if callErr != nil {
		if asNetworkError(callErr) != nil {
			err = FromNetworkError(callErr)
		} else {
			err = PushProvisioningError(PushProvisioningOperationFailure)
		}
		m.logFailure(ctx, sourceConfigurePushProvisioning, callErr, map[string]any{"cardholderId": cardholderID}, startedAt)
		return err
	}
	m.analytics.Log(ctx, ConfigurePushProvisioningEvent{CardholderID: cardholderID}, startedAt)
	return nil
}

func (m *CardManager) GetCardsAsync(ctx context.Context, done Completion[[]*Card], statuses ...CardState) {
	runAsync(ctx, func(ctx context.Context) ([]*Card, error) {
		return m.GetCards(ctx, statuses...)
	}, done)
}

func (m *CardManager) GetCardAsync(ctx context.Context, cardID string, done Completion[*Card]) {
	runAsync(ctx, func(ctx context.Context) (*Card, error) {
		return m.GetCard(ctx, cardID)
	}, done)
}

func (m *CardManager) ConfigurePushProvisioningAsync(
	ctx context.Context,
	cardholderID string,
	appGroupID string,
	configuration map[string]any,
	walletCards []WalletCard,
	done ErrCompletion,
) {
	runAsyncErr(ctx, func(ctx context.Context) error {
		return m.ConfigurePushProvisioning(ctx, cardholderID, appGroupID, configuration, walletCards)
	}, done)
}

// logFailure emits the single failure analytics event for an operation.
func (m *CardManager) logFailure(
	ctx context.Context,
	source string,
	err error,
	additionalInfo map[string]any,
	startedAt time.Time,
) {
	if m == nil || m.analytics == nil {
		return
	}
	m.analytics.Log(ctx, FailureEvent{
		Source:         source,
		Err:            err,
		NetworkError:   asNetworkError(err),
		AdditionalInfo: additionalInfo,
	}, startedAt)
}

func stateNames(states []CardState) []string {
	names := make([]string, 0, len(states))
	for _, state := range states {
		names = append(names, string(state))
	}
	return names
}
