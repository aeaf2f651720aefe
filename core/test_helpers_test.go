package core

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []AnalyticsEvent
}

func (s *captureSink) Log(_ context.Context, event AnalyticsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) snapshot() []AnalyticsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AnalyticsEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *captureSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *captureSink) ofType(identifier string) []AnalyticsEvent {
	out := []AnalyticsEvent{}
	for _, event := range s.snapshot() {
		if event.TypeIdentifier == EventTypePrefix+identifier {
			out = append(out, event)
		}
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubCardService records calls and delegates to the optional fn fields.
type stubCardService struct {
	mu    sync.Mutex
	calls map[string]int

	isTokenValidFn  func(token string) bool
	getCardsFn      func(ctx context.Context, token string, statuses []CardState) ([]NetworkCard, error)
	getCardFn       func(ctx context.Context, cardID string, token string) (NetworkCard, error)
	displayFn       func(ctx context.Context, cardID string, singleUseToken string) (SecureView, error)
	copyPanFn       func(ctx context.Context, cardID string, singleUseToken string) error
	stateChangeFn   func(ctx context.Context, operation string, cardID string, reason string, token string) error
	pushConfigFn    func(ctx context.Context, req PushProvisioningRequest) error
	digitizationFn  func(ctx context.Context, cardID string, token string) (NetworkDigitizationData, error)
	addToWalletFn   func(ctx context.Context, cardID string, token string) error
	lastPanDesign   PanViewConfiguration
	lastPushRequest PushProvisioningRequest
}

func newStubCardService() *stubCardService {
	return &stubCardService{calls: map[string]int{}}
}

func (s *stubCardService) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

func (s *stubCardService) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubCardService) IsTokenValid(token string) bool {
	s.record("IsTokenValid")
	if s.isTokenValidFn != nil {
		return s.isTokenValidFn(token)
	}
	return token != "invalid"
}

func (s *stubCardService) GetCards(ctx context.Context, token string, statuses []CardState) ([]NetworkCard, error) {
	s.record("GetCards")
	if s.getCardsFn != nil {
		return s.getCardsFn(ctx, token, statuses)
	}
	return nil, nil
}

func (s *stubCardService) GetCard(ctx context.Context, cardID string, token string) (NetworkCard, error) {
	s.record("GetCard")
	if s.getCardFn != nil {
		return s.getCardFn(ctx, cardID, token)
	}
	return NetworkCard{ID: cardID, State: CardStateActive, PanLast4Digits: "4242"}, nil
}

func (s *stubCardService) display(ctx context.Context, name string, cardID string, singleUseToken string) (SecureView, error) {
	s.record(name)
	if s.displayFn != nil {
		return s.displayFn(ctx, cardID, singleUseToken)
	}
	return name + ":" + cardID, nil
}

func (s *stubCardService) DisplayPin(ctx context.Context, cardID string, singleUseToken string, _ PinViewConfiguration) (SecureView, error) {
	return s.display(ctx, "DisplayPin", cardID, singleUseToken)
}

func (s *stubCardService) DisplayPan(ctx context.Context, cardID string, singleUseToken string, cfg PanViewConfiguration) (SecureView, error) {
	s.mu.Lock()
	s.lastPanDesign = cfg
	s.mu.Unlock()
	return s.display(ctx, "DisplayPan", cardID, singleUseToken)
}

func (s *stubCardService) DisplaySecurityCode(ctx context.Context, cardID string, singleUseToken string, _ SecurityCodeViewConfiguration) (SecureView, error) {
	return s.display(ctx, "DisplaySecurityCode", cardID, singleUseToken)
}

func (s *stubCardService) DisplayPanAndSecurityCode(
	ctx context.Context,
	cardID string,
	singleUseToken string,
	_ PanViewConfiguration,
	_ SecurityCodeViewConfiguration,
) (SecureViewPair, error) {
	view, err := s.display(ctx, "DisplayPanAndSecurityCode", cardID, singleUseToken)
	if err != nil {
		return SecureViewPair{}, err
	}
	return SecureViewPair{Pan: view, SecurityCode: view}, nil
}

func (s *stubCardService) CopyPan(ctx context.Context, cardID string, singleUseToken string) error {
	s.record("CopyPan")
	if s.copyPanFn != nil {
		return s.copyPanFn(ctx, cardID, singleUseToken)
	}
	return nil
}

func (s *stubCardService) stateChange(ctx context.Context, operation string, cardID string, reason string, token string) error {
	s.record(operation)
	if s.stateChangeFn != nil {
		return s.stateChangeFn(ctx, operation, cardID, reason, token)
	}
	return nil
}

func (s *stubCardService) ActivateCard(ctx context.Context, cardID string, token string) error {
	return s.stateChange(ctx, "ActivateCard", cardID, "", token)
}

func (s *stubCardService) SuspendCard(ctx context.Context, cardID string, reason CardSuspendReason, token string) error {
	return s.stateChange(ctx, "SuspendCard", cardID, string(reason), token)
}

func (s *stubCardService) RevokeCard(ctx context.Context, cardID string, reason CardRevokeReason, token string) error {
	return s.stateChange(ctx, "RevokeCard", cardID, string(reason), token)
}

func (s *stubCardService) ConfigurePushProvisioning(ctx context.Context, req PushProvisioningRequest) error {
	s.record("ConfigurePushProvisioning")
	s.mu.Lock()
	s.lastPushRequest = req
	s.mu.Unlock()
	if s.pushConfigFn != nil {
		return s.pushConfigFn(ctx, req)
	}
	return nil
}

func (s *stubCardService) GetCardDigitizationState(ctx context.Context, cardID string, token string) (NetworkDigitizationData, error) {
	s.record("GetCardDigitizationState")
	if s.digitizationFn != nil {
		return s.digitizationFn(ctx, cardID, token)
	}
	return NetworkDigitizationData{State: DigitizationStateNotDigitized}, nil
}

func (s *stubCardService) AddCardToWallet(ctx context.Context, cardID string, token string) error {
	s.record("AddCardToWallet")
	if s.addToWalletFn != nil {
		return s.addToWalletFn(ctx, cardID, token)
	}
	return nil
}

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) hasCounter(name string, status string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.counters {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]capturedLog, len(*l.records))
	copy(out, *l.records)
	return out
}

func (l *captureLogger) has(level string, msg string) bool {
	for _, item := range l.snapshot() {
		if item.level == level && item.msg == msg {
			return true
		}
	}
	return false
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type managerFixture struct {
	manager *CardManager
	service *stubCardService
	sink    *captureSink
	clock   *testClock
	metrics *captureMetricsRecorder
	logger  *captureLogger
}

func newManagerFixture(t *testing.T, opts ...Option) managerFixture {
	t.Helper()
	fixture := managerFixture{
		service: newStubCardService(),
		sink:    &captureSink{},
		clock:   newTestClock(),
		metrics: &captureMetricsRecorder{},
		logger:  newCaptureLogger(),
	}
	base := []Option{
		WithEventSink(fixture.sink),
		WithClock(fixture.clock.Now),
		WithMetricsRecorder(fixture.metrics),
		WithLoggerProvider(stubLoggerProvider{logger: fixture.logger}),
		WithLogger(fixture.logger),
	}
	manager, err := NewCardManager(
		fixture.service,
		NewDesignSystem(Font{Name: "Menlo", Size: 16}, RGB(0, 0, 0)),
		Config{Environment: EnvironmentSandbox},
		append(base, opts...)...,
	)
	if err != nil {
		t.Fatalf("new card manager: %v", err)
	}
	fixture.manager = manager
	fixture.sink.reset()
	// cards hold the manager weakly; keep it reachable for the whole test.
	t.Cleanup(func() { runtime.KeepAlive(manager) })
	return fixture
}

func (f managerFixture) loggedIn(t *testing.T) managerFixture {
	t.Helper()
	if !f.manager.LogInSession("session_token") {
		t.Fatalf("expected session token to be accepted")
	}
	return f
}

func (f managerFixture) card(state CardState) *Card {
	return NewCard("card_1", "4242", ExpiryDate{Month: "09", Year: "29"}, "Ada Lovelace", state, f.manager)
}
