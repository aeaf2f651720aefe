package devkit

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/goliatone/go-card-management/core"
)

func TestSampleCardServiceConformance(t *testing.T) {
	if err := ValidateCardServiceConformance(context.Background(), NewSampleCardService(), SampleSessionToken); err != nil {
		t.Fatalf("validate card service conformance: %v", err)
	}
}

func TestLifecycleConformance(t *testing.T) {
	service := NewSampleCardService()
	if err := ValidateLifecycleConformance(context.Background(), service, SampleSessionToken, SampleInactiveCardID); err != nil {
		t.Fatalf("validate lifecycle conformance: %v", err)
	}
	if service.CallCount(OperationActivateCard) != 2 {
		t.Fatalf("expected two activate calls, got %d", service.CallCount(OperationActivateCard))
	}
}

func TestFakeCardServiceRejectsUnknownSession(t *testing.T) {
	service := NewSampleCardService()
	if service.IsTokenValid("someone_else") {
		t.Fatalf("expected unknown token to be rejected")
	}
	_, err := service.GetCards(context.Background(), "someone_else", nil)
	var networkErr *core.NetworkError
	if !errors.As(err, &networkErr) || networkErr.Kind != core.NetworkErrorUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestFakeCardServiceScriptedFailures(t *testing.T) {
	service := NewSampleCardService().
		FailNext(OperationGetCard, core.NewNetworkError(core.NetworkErrorServerIssue)).
		FailNext(OperationGetCard, errors.New("socket closed"))

	ctx := context.Background()
	if _, err := service.GetCard(ctx, SampleActiveCardID, SampleSessionToken); err == nil {
		t.Fatalf("expected first scripted failure")
	}
	if _, err := service.GetCard(ctx, SampleActiveCardID, SampleSessionToken); err == nil || err.Error() != "socket closed" {
		t.Fatalf("expected second scripted failure, got %v", err)
	}
	if _, err := service.GetCard(ctx, SampleActiveCardID, SampleSessionToken); err != nil {
		t.Fatalf("expected script to be exhausted, got %v", err)
	}
	if calls := service.Calls(); len(calls) != 3 || calls[0].CardID != SampleActiveCardID {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestFakeCardServiceSecureAccessRequiresActiveCard(t *testing.T) {
	service := NewSampleCardService()
	ctx := context.Background()
	view, err := service.DisplayPan(ctx, SampleActiveCardID, SampleSingleUseToken, core.PanViewConfiguration{})
	if err != nil {
		t.Fatalf("display pan: %v", err)
	}
	if secure, ok := view.(FakeSecureView); !ok || secure.Field != "pan" {
		t.Fatalf("unexpected view %#v", view)
	}

	_, err = service.DisplayPin(ctx, SampleSuspendedCardID, SampleSingleUseToken, core.PinViewConfiguration{})
	var networkErr *core.NetworkError
	if !errors.As(err, &networkErr) || networkErr.Kind != core.NetworkErrorSecureOperationsFailure {
		t.Fatalf("expected secure operations failure, got %v", err)
	}
}

func TestFakeCardServiceWallet(t *testing.T) {
	service := NewSampleCardService()
	ctx := context.Background()
	data, err := service.GetCardDigitizationState(ctx, SampleActiveCardID, SampleProvisionToken)
	if err != nil || data.State != core.DigitizationStateNotDigitized {
		t.Fatalf("expected not digitized, got %+v (%v)", data, err)
	}
	if err := service.AddCardToWallet(ctx, SampleActiveCardID, SampleProvisionToken); err != nil {
		t.Fatalf("add card to wallet: %v", err)
	}
	data, err = service.GetCardDigitizationState(ctx, SampleActiveCardID, SampleProvisionToken)
	if err != nil || data.State != core.DigitizationStateDigitized {
		t.Fatalf("expected digitized, got %+v (%v)", data, err)
	}

	err = service.ConfigurePushProvisioning(ctx, core.PushProvisioningRequest{})
	var networkErr *core.NetworkError
	if !errors.As(err, &networkErr) || networkErr.PushProvisioning.Kind != core.NetworkPushProvisioningConfigurationFailure {
		t.Fatalf("expected configuration failure, got %v", err)
	}
}

func TestSandboxManagerAgainstFakeNetwork(t *testing.T) {
	service := NewSampleCardService()
	manager, err := NewSandboxManager(service)
	if err != nil {
		t.Fatalf("new sandbox manager: %v", err)
	}
	if !manager.LogInSession(SampleSessionToken) {
		t.Fatalf("expected sample session token to be accepted")
	}

	ctx := context.Background()
	cards, err := manager.GetCards(ctx, core.CardStateInactive)
	if err != nil {
		t.Fatalf("get cards: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != SampleInactiveCardID {
		t.Fatalf("expected the inactive sample card, got %d cards", len(cards))
	}
	if err := cards[0].Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if state, _ := service.CardState(SampleInactiveCardID); state != core.CardStateActive || cards[0].State() != core.CardStateActive {
		t.Fatalf("expected active on both sides, got network=%s local=%s", state, cards[0].State())
	}

	if err := cards[0].CopyPan(ctx, SampleSingleUseToken); !errors.Is(err, core.CopyError(core.CopyFailureDataNotViewed)) {
		t.Fatalf("expected data not viewed, got %v", err)
	}
	if _, err := cards[0].GetPan(ctx, SampleSingleUseToken); err != nil {
		t.Fatalf("get pan: %v", err)
	}
	if err := cards[0].CopyPan(ctx, SampleSingleUseToken); err != nil {
		t.Fatalf("copy pan after view: %v", err)
	}

	service.FailNext(OperationSuspendCard, core.NewNetworkError(core.NetworkErrorInsecureDevice))
	if err := cards[0].Suspend(ctx, core.CardSuspendReasonLost); !errors.Is(err, core.ErrInsecureDevice) {
		t.Fatalf("expected insecure device, got %v", err)
	}
	if cards[0].State() != core.CardStateActive {
		t.Fatalf("state must not change on failure, got %s", cards[0].State())
	}
	runtime.KeepAlive(manager)
}

func TestFakeCardServiceAsExtensionAuthorizer(t *testing.T) {
	provider := core.NewAuthorizationProvider(NewSampleCardService(), nil)
	if err := provider.Login(context.Background(), SampleSessionToken); err != nil {
		t.Fatalf("login: %v", err)
	}
	err := provider.Login(context.Background(), "unknown_issuer_token")
	if !errors.Is(err, &core.ProvisioningExtensionError{Failure: core.ProvisioningExtensionOperationFailure}) {
		t.Fatalf("expected operation failure, got %v", err)
	}
}
