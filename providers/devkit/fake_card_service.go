package devkit

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-card-management/core"
)

const (
	OperationGetCards                  = "get_cards"
	OperationGetCard                   = "get_card"
	OperationDisplayPin                = "display_pin"
	OperationDisplayPan                = "display_pan"
	OperationDisplaySecurityCode       = "display_security_code"
	OperationDisplayPanAndSecurityCode = "display_pan_and_security_code"
	OperationCopyPan                   = "copy_pan"
	OperationActivateCard              = "activate_card"
	OperationSuspendCard               = "suspend_card"
	OperationRevokeCard                = "revoke_card"
	OperationConfigurePushProvisioning = "configure_push_provisioning"
	OperationGetDigitizationState      = "get_digitization_state"
	OperationAddCardToWallet           = "add_card_to_wallet"
	OperationExtensionLogin            = "extension_login"
)

// FakeCall records one request received by FakeCardService. Token holds the
// session, single-use or provisioning token depending on the operation.
type FakeCall struct {
	Operation string
	CardID    string
	Token     string
	Reason    string
}

// FakeSecureView is the secure view handle returned by FakeCardService.
type FakeSecureView struct {
	CardID string
	Field  string
	Design any
}

// FakeCardService is an in-memory card network. Cards keep their state across
// calls, and errors scripted with FailNext are returned before any other
// check for the named operation.
type FakeCardService struct {
	mu           sync.Mutex
	tokens       map[string]struct{}
	cards        map[string]core.NetworkCard
	order        []string
	digitization map[string]core.DigitizationState
	failures     map[string][]error
	calls        []FakeCall
	pushRequests []core.PushProvisioningRequest
}

func NewFakeCardService(cards ...core.NetworkCard) *FakeCardService {
	service := &FakeCardService{
		tokens:       map[string]struct{}{},
		cards:        map[string]core.NetworkCard{},
		digitization: map[string]core.DigitizationState{},
		failures:     map[string][]error{},
	}
	for _, card := range cards {
		service.PutCard(card)
	}
	return service
}

// AcceptTokens restricts valid session tokens to the given set. Without it
// any non-blank token is accepted.
func (s *FakeCardService) AcceptTokens(tokens ...string) *FakeCardService {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			s.tokens[token] = struct{}{}
		}
	}
	return s
}

func (s *FakeCardService) PutCard(card core.NetworkCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if card.State == "" {
		card.State = core.CardStateInactive
	}
	if _, exists := s.cards[card.ID]; !exists {
		s.order = append(s.order, card.ID)
	}
	s.cards[card.ID] = card
}

// FailNext queues err for the next call to operation. Queued errors are
// consumed in order.
func (s *FakeCardService) FailNext(operation string, err error) *FakeCardService {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[operation] = append(s.failures[operation], err)
	return s
}

func (s *FakeCardService) SetDigitizationState(cardID string, state core.DigitizationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digitization[cardID] = state
}

// CardState reports the server-side state of a card.
func (s *FakeCardService) CardState(cardID string) (core.CardState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[cardID]
	return card.State, ok
}

func (s *FakeCardService) Calls() []FakeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FakeCall(nil), s.calls...)
}

// CallCount counts recorded calls for operation.
func (s *FakeCardService) CallCount(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, call := range s.calls {
		if call.Operation == operation {
			count++
		}
	}
	return count
}

func (s *FakeCardService) PushRequests() []core.PushProvisioningRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PushProvisioningRequest(nil), s.pushRequests...)
}

func (s *FakeCardService) IsTokenValid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenAccepted(token)
}

func (s *FakeCardService) GetCards(_ context.Context, sessionToken string, statuses []core.CardState) ([]core.NetworkCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: OperationGetCards, Token: sessionToken}); err != nil {
		return nil, err
	}
	if err := s.requireSession(sessionToken); err != nil {
		return nil, err
	}
	out := make([]core.NetworkCard, 0, len(s.order))
	for _, id := range s.order {
		card := s.cards[id]
		if len(statuses) > 0 && !slices.Contains(statuses, card.State) {
			continue
		}
		out = append(out, card)
	}
	return out, nil
}

func (s *FakeCardService) GetCard(_ context.Context, cardID string, sessionToken string) (core.NetworkCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: OperationGetCard, CardID: cardID, Token: sessionToken}); err != nil {
		return core.NetworkCard{}, err
	}
	if err := s.requireSession(sessionToken); err != nil {
		return core.NetworkCard{}, err
	}
	card, ok := s.cards[cardID]
	if !ok {
		return core.NetworkCard{}, core.NewNetworkError(core.NetworkErrorNotFound)
	}
	return card, nil
}

func (s *FakeCardService) DisplayPin(_ context.Context, cardID string, singleUseToken string, cfg core.PinViewConfiguration) (core.SecureView, error) {
	return s.display(OperationDisplayPin, cardID, singleUseToken, "pin", cfg)
}

func (s *FakeCardService) DisplayPan(_ context.Context, cardID string, singleUseToken string, cfg core.PanViewConfiguration) (core.SecureView, error) {
	return s.display(OperationDisplayPan, cardID, singleUseToken, "pan", cfg)
}

func (s *FakeCardService) DisplaySecurityCode(
	_ context.Context,
	cardID string,
	singleUseToken string,
	cfg core.SecurityCodeViewConfiguration,
) (core.SecureView, error) {
	return s.display(OperationDisplaySecurityCode, cardID, singleUseToken, "security_code", cfg)
}

func (s *FakeCardService) DisplayPanAndSecurityCode(
	_ context.Context,
	cardID string,
	singleUseToken string,
	panCfg core.PanViewConfiguration,
	securityCodeCfg core.SecurityCodeViewConfiguration,
) (core.SecureViewPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: OperationDisplayPanAndSecurityCode, CardID: cardID, Token: singleUseToken}); err != nil {
		return core.SecureViewPair{}, err
	}
	if err := s.requireSecureAccess(cardID, singleUseToken); err != nil {
		return core.SecureViewPair{}, err
	}
	return core.SecureViewPair{
		Pan:          FakeSecureView{CardID: cardID, Field: "pan", Design: panCfg},
		SecurityCode: FakeSecureView{CardID: cardID, Field: "security_code", Design: securityCodeCfg},
	}, nil
}

func (s *FakeCardService) CopyPan(_ context.Context, cardID string, singleUseToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: OperationCopyPan, CardID: cardID, Token: singleUseToken}); err != nil {
		return err
	}
	return s.requireSecureAccess(cardID, singleUseToken)
}

func (s *FakeCardService) ActivateCard(_ context.Context, cardID string, sessionToken string) error {
	return s.transition(FakeCall{Operation: OperationActivateCard, CardID: cardID, Token: sessionToken}, core.CardStateActive)
}

func (s *FakeCardService) SuspendCard(_ context.Context, cardID string, reason core.CardSuspendReason, sessionToken string) error {
	return s.transition(FakeCall{
		Operation: OperationSuspendCard,
		CardID:    cardID,
		Token:     sessionToken,
		Reason:    string(reason),
	}, core.CardStateSuspended)
}

func (s *FakeCardService) RevokeCard(_ context.Context, cardID string, reason core.CardRevokeReason, sessionToken string) error {
	return s.transition(FakeCall{
		Operation: OperationRevokeCard,
		CardID:    cardID,
		Token:     sessionToken,
		Reason:    string(reason),
	}, core.CardStateRevoked)
}

func (s *FakeCardService) ConfigurePushProvisioning(_ context.Context, req core.PushProvisioningRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: OperationConfigurePushProvisioning, Token: req.CardholderID}); err != nil {
		return err
	}
	if strings.TrimSpace(req.CardholderID) == "" {
		return core.NewNetworkPushProvisioningError(core.NetworkPushProvisioningConfigurationFailure, "cardholder id is required")
	}
	for _, walletCard := range req.WalletCards {
		if _, ok := s.cards[walletCard.CardID]; !ok {
			return core.NewNetworkError(core.NetworkErrorNotFound)
		}
	}
	s.pushRequests = append(s.pushRequests, req)
	return nil
}

func (s *FakeCardService) GetCardDigitizationState(
	_ context.Context,
	cardID string,
	provisioningToken string,
) (core.NetworkDigitizationData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: OperationGetDigitizationState, CardID: cardID, Token: provisioningToken}); err != nil {
		return core.NetworkDigitizationData{}, err
	}
	if strings.TrimSpace(provisioningToken) == "" {
		return core.NetworkDigitizationData{}, core.NewNetworkDigitizationStateError(core.NetworkDigitizationStateConfigurationFailure)
	}
	if _, ok := s.cards[cardID]; !ok {
		return core.NetworkDigitizationData{}, core.NewNetworkError(core.NetworkErrorNotFound)
	}
	state, ok := s.digitization[cardID]
	if !ok {
		state = core.DigitizationStateNotDigitized
	}
	return core.NetworkDigitizationData{State: state}, nil
}

func (s *FakeCardService) AddCardToWallet(_ context.Context, cardID string, provisioningToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: OperationAddCardToWallet, CardID: cardID, Token: provisioningToken}); err != nil {
		return err
	}
	if strings.TrimSpace(provisioningToken) == "" {
		return core.NewNetworkPushProvisioningError(core.NetworkPushProvisioningConfigurationFailure, "provisioning token is required")
	}
	if _, ok := s.cards[cardID]; !ok {
		return core.NewNetworkError(core.NetworkErrorNotFound)
	}
	s.digitization[cardID] = core.DigitizationStateDigitized
	return nil
}

// Login lets the fake stand in for the wallet extension authorizer.
func (s *FakeCardService) Login(_ context.Context, issuerToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: OperationExtensionLogin, Token: issuerToken}); err != nil {
		return err
	}
	if !s.tokenAccepted(issuerToken) {
		return &core.NetworkExtensionError{Failure: core.NetworkExtensionOperationFailure}
	}
	return nil
}

func (s *FakeCardService) display(operation, cardID, singleUseToken, field string, design any) (core.SecureView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(FakeCall{Operation: operation, CardID: cardID, Token: singleUseToken}); err != nil {
		return nil, err
	}
	if err := s.requireSecureAccess(cardID, singleUseToken); err != nil {
		return nil, err
	}
	return FakeSecureView{CardID: cardID, Field: field, Design: design}, nil
}

func (s *FakeCardService) transition(call FakeCall, target core.CardState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(call); err != nil {
		return err
	}
	if err := s.requireSession(call.Token); err != nil {
		return err
	}
	card, ok := s.cards[call.CardID]
	if !ok {
		return core.NewNetworkError(core.NetworkErrorNotFound)
	}
	if !core.CanTransition(card.State, target) {
		return core.NewNetworkHintError(
			core.NetworkErrorInvalidRequest,
			fmt.Sprintf("card %s cannot move from %s to %s", call.CardID, card.State, target),
		)
	}
	card.State = target
	s.cards[call.CardID] = card
	return nil
}

// begin records the call and pops a scripted failure. Callers hold s.mu.
func (s *FakeCardService) begin(call FakeCall) error {
	s.calls = append(s.calls, call)
	queued := s.failures[call.Operation]
	if len(queued) == 0 {
		return nil
	}
	s.failures[call.Operation] = queued[1:]
	return queued[0]
}

func (s *FakeCardService) requireSession(token string) error {
	if !s.tokenAccepted(token) {
		return core.NewNetworkError(core.NetworkErrorUnauthenticated)
	}
	return nil
}

func (s *FakeCardService) requireSecureAccess(cardID, singleUseToken string) error {
	if strings.TrimSpace(singleUseToken) == "" {
		return core.NewNetworkError(core.NetworkErrorAuthenticationFailure)
	}
	card, ok := s.cards[cardID]
	if !ok {
		return core.NewNetworkError(core.NetworkErrorNotFound)
	}
	if card.State != core.CardStateActive {
		return core.NewNetworkError(core.NetworkErrorSecureOperationsFailure)
	}
	return nil
}

func (s *FakeCardService) tokenAccepted(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	if len(s.tokens) == 0 {
		return true
	}
	_, ok := s.tokens[token]
	return ok
}
