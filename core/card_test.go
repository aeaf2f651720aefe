package core

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

func TestPossibleStateChanges(t *testing.T) {
	cases := map[CardState][]CardState{
		CardStateInactive:  {CardStateActive, CardStateRevoked},
		CardStateActive:    {CardStateSuspended, CardStateRevoked},
		CardStateSuspended: {CardStateActive, CardStateRevoked},
		CardStateRevoked:   nil,
	}
	for from, expected := range cases {
		got := PossibleStateChanges(from)
		if len(got) != len(expected) {
			t.Fatalf("%s: expected %v, got %v", from, expected, got)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Fatalf("%s: expected %v, got %v", from, expected, got)
			}
		}
	}
}

func TestCardActivate(t *testing.T) {
	fixture := newManagerFixture(t).loggedIn(t)
	card := fixture.card(CardStateInactive)
	var forwardedToken string
	fixture.service.stateChangeFn = func(_ context.Context, _ string, _ string, _ string, token string) error {
		forwardedToken = token
		return nil
	}

	if err := card.Activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if card.State() != CardStateActive {
		t.Fatalf("expected active, got %s", card.State())
	}
	if forwardedToken != "session_token" {
		t.Fatalf("expected session token to be forwarded, got %q", forwardedToken)
	}
	events := fixture.sink.snapshot()
	if len(events) != 1 || events[0].TypeIdentifier != EventTypePrefix+"card_state_change" {
		t.Fatalf("expected one state change event, got %+v", events)
	}
	if events[0].Properties["from"] != "inactive" || events[0].Properties["to"] != "active" {
		t.Fatalf("unexpected state change properties %+v", events[0].Properties)
	}
	if !fixture.metrics.hasCounter("cardmanagement.activate_card.total", "success") {
		t.Fatalf("expected activate_card success counter")
	}
}

func TestCardSuspendWithReason(t *testing.T) {
	fixture := newManagerFixture(t).loggedIn(t)
	card := fixture.card(CardStateActive)
	var forwardedReason string
	fixture.service.stateChangeFn = func(_ context.Context, _ string, _ string, reason string, _ string) error {
		forwardedReason = reason
		return nil
	}

	if err := card.Suspend(context.Background(), CardSuspendReasonStolen); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if card.State() != CardStateSuspended || forwardedReason != "stolen" {
		t.Fatalf("unexpected state %s or reason %q", card.State(), forwardedReason)
	}
	events := fixture.sink.ofType("card_state_change")
	if len(events) != 1 || events[0].Properties["reason"] != "stolen" {
		t.Fatalf("expected reason on state change event, got %+v", events)
	}
}

func TestCardInvalidTransitionSkipsNetwork(t *testing.T) {
	fixture := newManagerFixture(t).loggedIn(t)
	card := fixture.card(CardStateInactive)

	err := card.Suspend(context.Background(), "")
	if !errors.Is(err, ErrInvalidStateRequested) {
		t.Fatalf("expected invalid state requested, got %v", err)
	}
	if fixture.service.count("SuspendCard") != 0 {
		t.Fatalf("network client must not be called for an illegal transition")
	}
	if card.State() != CardStateInactive {
		t.Fatalf("state must not change, got %s", card.State())
	}
	failures := fixture.sink.ofType("failure")
	if len(failures) != 1 || failures[0].Properties["source"] != "Suspend Card" {
		t.Fatalf("expected one suspend failure event, got %+v", failures)
	}
}

func TestRevokedCardIsTerminal(t *testing.T) {
	fixture := newManagerFixture(t).loggedIn(t)
	card := fixture.card(CardStateActive)

	if err := card.Revoke(context.Background(), CardRevokeReasonLost); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(card.PossibleStateChanges()) != 0 {
		t.Fatalf("expected no transitions from revoked")
	}
	for name, op := range map[string]func() error{
		"activate": func() error { return card.Activate(context.Background()) },
		"suspend":  func() error { return card.Suspend(context.Background(), "") },
		"revoke":   func() error { return card.Revoke(context.Background(), "") },
	} {
		if err := op(); !errors.Is(err, ErrInvalidStateRequested) {
			t.Fatalf("%s: expected invalid state requested, got %v", name, err)
		}
	}
	if fixture.service.count("RevokeCard") != 1 || fixture.service.count("ActivateCard") != 0 {
		t.Fatalf("unexpected network calls %+v", fixture.service.calls)
	}
}

func TestCardStateChangeRequiresSession(t *testing.T) {
	fixture := newManagerFixture(t)
	card := fixture.card(CardStateInactive)

	if err := card.Activate(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if fixture.service.count("ActivateCard") != 0 {
		t.Fatalf("network client must not be called without a session")
	}
	if card.State() != CardStateInactive {
		t.Fatalf("state must not change")
	}
}

func TestCardNetworkFailureLeavesStateUnchanged(t *testing.T) {
	fixture := newManagerFixture(t).loggedIn(t)
	card := fixture.card(CardStateActive)
	fixture.service.stateChangeFn = func(context.Context, string, string, string, string) error {
		fixture.clock.Advance(2 * time.Second)
		return NewNetworkError(NetworkErrorAuthenticationFailure)
	}

	err := card.Suspend(context.Background(), CardSuspendReasonLost)
	if !errors.Is(err, ErrAuthenticationFailure) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if card.State() != CardStateActive {
		t.Fatalf("state must not change on failure, got %s", card.State())
	}
	events := fixture.sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	props := events[0].Properties
	if props["error_type"] != "authentication_failure" || props["originalState"] != "active" || props["newState"] != "suspended" {
		t.Fatalf("unexpected failure properties %+v", props)
	}
	if props[DurationProperty] != 2.0 {
		t.Fatalf("expected duration 2, got %v", props[DurationProperty])
	}
}

func TestCardOperationsAfterManagerClosed(t *testing.T) {
	fixture := newManagerFixture(t).loggedIn(t)
	card := fixture.card(CardStateInactive)
	fixture.manager.Close()

	if err := card.Activate(context.Background()); !errors.Is(err, ErrMissingManager) {
		t.Fatalf("expected missing manager, got %v", err)
	}
	if _, err := card.GetPin(context.Background(), "single_use"); !errors.Is(err, ErrMissingManager) {
		t.Fatalf("expected missing manager for pin, got %v", err)
	}
	if err := card.CopyPan(context.Background(), "single_use"); !errors.Is(err, CopyError(CopyFailureMissingManager)) {
		t.Fatalf("expected copy missing manager, got %v", err)
	}
	if len(fixture.sink.snapshot()) != 0 {
		t.Fatalf("no analytics event can be emitted without a manager")
	}
}

func TestDetachedCard(t *testing.T) {
	card := NewCard("card_1", "4242", ExpiryDate{}, "", CardStateActive, nil)
	_, err := card.GetDigitizationState(context.Background(), "token")
	if !errors.Is(err, DigitizationStateError(DigitizationStateOperationFailure)) {
		t.Fatalf("expected digitization operation failure, got %v", err)
	}
	if err := card.Provision(context.Background(), "token"); !errors.Is(err, ErrMissingManager) {
		t.Fatalf("expected missing manager, got %v", err)
	}
}

func TestSecureFieldsForwardSingleUseToken(t *testing.T) {
	fixture := newManagerFixture(t)
	card := fixture.card(CardStateActive)
	var tokens []string
	fixture.service.displayFn = func(_ context.Context, cardID string, singleUseToken string) (SecureView, error) {
		tokens = append(tokens, singleUseToken)
		return "view:" + cardID, nil
	}

	view, err := card.GetPin(context.Background(), "sut_pin")
	if err != nil || view != "view:card_1" {
		t.Fatalf("get pin: %v %v", view, err)
	}
	if _, err := card.GetSecurityCode(context.Background(), "sut_cvv"); err != nil {
		t.Fatalf("get security code: %v", err)
	}
	pair, err := card.GetPanAndSecurityCode(context.Background(), "sut_both")
	if err != nil || pair.Pan == nil || pair.SecurityCode == nil {
		t.Fatalf("get pan and security code: %+v %v", pair, err)
	}
	if len(tokens) != 3 || tokens[0] != "sut_pin" || tokens[2] != "sut_both" {
		t.Fatalf("unexpected forwarded tokens %v", tokens)
	}
	for _, id := range []string{"card_pin", "card_cvv", "card_pan_cvv"} {
		events := fixture.sink.ofType(id)
		if len(events) != 1 || events[0].Properties["card_state"] != "active" {
			t.Fatalf("expected one %s event, got %+v", id, events)
		}
	}
}

func TestSecureFieldFailure(t *testing.T) {
	fixture := newManagerFixture(t)
	card := fixture.card(CardStateActive)
	fixture.service.displayFn = func(context.Context, string, string) (SecureView, error) {
		return nil, NewNetworkError(NetworkErrorSecureOperationsFailure)
	}

	if _, err := card.GetPan(context.Background(), "sut"); !errors.Is(err, ErrUnableToPerformSecureOp) {
		t.Fatalf("expected secure operation failure, got %v", err)
	}
	failures := fixture.sink.ofType("failure")
	if len(failures) != 1 || failures[0].Properties["source"] != "Get Pan" {
		t.Fatalf("unexpected failure events %+v", failures)
	}
	if err := card.CopyPan(context.Background(), "sut"); !errors.Is(err, CopyError(CopyFailureDataNotViewed)) {
		t.Fatalf("failed pan view must not unlock copy, got %v", err)
	}
}

func TestCopyPanRequiresPriorView(t *testing.T) {
	fixture := newManagerFixture(t)
	card := fixture.card(CardStateActive)

	err := card.CopyPan(context.Background(), "sut")
	if !errors.Is(err, CopyError(CopyFailureDataNotViewed)) {
		t.Fatalf("expected data not viewed, got %v", err)
	}
	if fixture.service.count("CopyPan") != 0 {
		t.Fatalf("network client must not be asked to copy before a view")
	}
	failures := fixture.sink.ofType("failure")
	if len(failures) != 1 || failures[0].Properties["error_failure_type"] != "pan_not_viewed" {
		t.Fatalf("unexpected failure events %+v", failures)
	}

	if _, err := card.GetPan(context.Background(), "sut"); err != nil {
		t.Fatalf("get pan: %v", err)
	}
	if err := card.CopyPan(context.Background(), "sut"); err != nil {
		t.Fatalf("copy pan after view: %v", err)
	}
	if fixture.service.count("CopyPan") != 1 {
		t.Fatalf("expected one copy call")
	}
	if events := fixture.sink.ofType("copy_pan"); len(events) != 1 {
		t.Fatalf("expected one copy event, got %d", len(events))
	}
}

func TestGetDigitizationState(t *testing.T) {
	fixture := newManagerFixture(t)
	card := fixture.card(CardStateActive)
	fixture.service.digitizationFn = func(context.Context, string, string) (NetworkDigitizationData, error) {
		return NetworkDigitizationData{State: DigitizationStatePendingIDVRemote, RemotePass: "pass"}, nil
	}

	data, err := card.GetDigitizationState(context.Background(), "provisioning")
	if err != nil {
		t.Fatalf("get digitization state: %v", err)
	}
	if data.State != DigitizationStatePendingIDVRemote || data.RemotePass != "pass" {
		t.Fatalf("unexpected digitization data %+v", data)
	}
	events := fixture.sink.ofType("get_card_digitization_state")
	if len(events) != 1 || events[0].Properties["digitization_state"] != "pendingIDVRemote" {
		t.Fatalf("unexpected digitization events %+v", events)
	}

	fixture.service.digitizationFn = func(context.Context, string, string) (NetworkDigitizationData, error) {
		return NetworkDigitizationData{}, NewNetworkDigitizationStateError(NetworkDigitizationStateConfigurationFailure)
	}
	if _, err := card.GetDigitizationState(context.Background(), "provisioning"); !errors.Is(err, DigitizationStateError(DigitizationStateConfigurationFailure)) {
		t.Fatalf("expected digitization configuration failure, got %v", err)
	}
}

func TestProvision(t *testing.T) {
	fixture := newManagerFixture(t)
	card := fixture.card(CardStateActive)

	if err := card.Provision(context.Background(), "provisioning"); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if events := fixture.sink.ofType("push_provisioning"); len(events) != 1 {
		t.Fatalf("expected one push provisioning event, got %d", len(events))
	}

	fixture.service.addToWalletFn = func(context.Context, string, string) error {
		return NewNetworkPushProvisioningError(NetworkPushProvisioningCancelled, "")
	}
	if err := card.Provision(context.Background(), "provisioning"); !errors.Is(err, PushProvisioningError(PushProvisioningCancelled)) {
		t.Fatalf("expected cancelled, got %v", err)
	}
}

func TestActivateAsync(t *testing.T) {
	fixture := newManagerFixture(t).loggedIn(t)
	card := fixture.card(CardStateSuspended)

	done := make(chan error, 1)
	card.ActivateAsync(context.Background(), func(err error) {
		done <- err
	})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("activate async: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}
	if card.State() != CardStateActive {
		t.Fatalf("expected active, got %s", card.State())
	}
}

func TestDetachedCardChecksTransitionBeforeManager(t *testing.T) {
	ctx := context.Background()
	revoked := NewCard("card_1", "4242", ExpiryDate{}, "", CardStateRevoked, nil)
	transitions := map[string]func() error{
		"activate": func() error { return revoked.Activate(ctx) },
		"suspend":  func() error { return revoked.Suspend(ctx, CardSuspendReasonLost) },
		"revoke":   func() error { return revoked.Revoke(ctx, CardRevokeReasonStolen) },
	}
	for name, transition := range transitions {
		t.Run(name, func(t *testing.T) {
			if err := transition(); !errors.Is(err, ErrInvalidStateRequested) {
				t.Fatalf("expected invalid state requested, got %v", err)
			}
		})
	}

	active := NewCard("card_2", "4242", ExpiryDate{}, "", CardStateActive, nil)
	if err := active.Activate(ctx); !errors.Is(err, ErrInvalidStateRequested) {
		t.Fatalf("expected invalid state for active -> active, got %v", err)
	}
	if err := active.Suspend(ctx, ""); !errors.Is(err, ErrMissingManager) {
		t.Fatalf("expected missing manager for a legal transition, got %v", err)
	}
	if active.State() != CardStateActive {
		t.Fatalf("state must not change, got %s", active.State())
	}
}

func TestRevokedCardWithClosedManagerReportsInvalidState(t *testing.T) {
	fixture := newManagerFixture(t).loggedIn(t)
	card := fixture.card(CardStateRevoked)
	fixture.manager.Close()

	if err := card.Activate(context.Background()); !errors.Is(err, ErrInvalidStateRequested) {
		t.Fatalf("expected invalid state requested, got %v", err)
	}
	if calls := fixture.service.count("ActivateCard"); calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
}

func TestCardOperationsAfterManagerCollected(t *testing.T) {
	card := cardWithUnreachableManager(t)
	for i := 0; i < 10 && card.manager.Value() != nil; i++ {
		runtime.GC()
	}
	if card.manager.Value() != nil {
		t.Fatalf("expected the manager to be collected")
	}

	ctx := context.Background()
	if err := card.Activate(ctx); !errors.Is(err, ErrMissingManager) {
		t.Fatalf("expected missing manager, got %v", err)
	}
	if _, err := card.GetPan(ctx, "single_use"); !errors.Is(err, ErrMissingManager) {
		t.Fatalf("expected missing manager for pan, got %v", err)
	}
	if err := card.CopyPan(ctx, "single_use"); !errors.Is(err, CopyError(CopyFailureMissingManager)) {
		t.Fatalf("expected copy missing manager, got %v", err)
	}
	if card.State() != CardStateInactive {
		t.Fatalf("state must not change, got %s", card.State())
	}
}

func cardWithUnreachableManager(t *testing.T) *Card {
	t.Helper()
	manager, err := NewCardManager(newStubCardService(), DesignSystem{}, Config{Environment: EnvironmentSandbox})
	if err != nil {
		t.Fatalf("new card manager: %v", err)
	}
	manager.LogInSession("session_token")
	return NewCard("card_1", "4242", ExpiryDate{}, "", CardStateInactive, manager)
}
