package sqlstore

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-card-management/core"
	"github.com/goliatone/go-card-management/providers/devkit"
	glog "github.com/goliatone/go-logger/glog"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

func newTestCardCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedCardService_GetCard_MissFetchThenHit(t *testing.T) {
	base := devkit.NewSampleCardService()
	service, err := NewCachedCardService(base, newTestCardCacheService(t))
	if err != nil {
		t.Fatalf("new cached card service: %v", err)
	}
	ctx := context.Background()

	first, err := service.GetCard(ctx, devkit.SampleActiveCardID, devkit.SampleSessionToken)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if _, err := service.GetCard(ctx, devkit.SampleActiveCardID, devkit.SampleSessionToken); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if calls := base.CallCount(devkit.OperationGetCard); calls != 1 {
		t.Fatalf("expected second get to be a cache hit, base calls=%d", calls)
	}
	if first.ID != devkit.SampleActiveCardID || first.State != core.CardStateActive {
		t.Fatalf("unexpected cached card %#v", first)
	}
}

func TestCachedCardService_TransitionInvalidatesCachedCard(t *testing.T) {
	base := devkit.NewSampleCardService()
	service, err := NewCachedCardService(base, newTestCardCacheService(t))
	if err != nil {
		t.Fatalf("new cached card service: %v", err)
	}
	ctx := context.Background()

	card, err := service.GetCard(ctx, devkit.SampleInactiveCardID, devkit.SampleSessionToken)
	if err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if card.State != core.CardStateInactive {
		t.Fatalf("expected inactive card, got %s", card.State)
	}

	if err := service.ActivateCard(ctx, devkit.SampleInactiveCardID, devkit.SampleSessionToken); err != nil {
		t.Fatalf("activate through cached service: %v", err)
	}
	card, err = service.GetCard(ctx, devkit.SampleInactiveCardID, devkit.SampleSessionToken)
	if err != nil {
		t.Fatalf("get after activate: %v", err)
	}
	if calls := base.CallCount(devkit.OperationGetCard); calls != 2 {
		t.Fatalf("expected invalidation to force a second base read, got %d", calls)
	}
	if card.State != core.CardStateActive {
		t.Fatalf("expected refreshed state active, got %s", card.State)
	}

	if err := service.RevokeCard(ctx, devkit.SampleInactiveCardID, core.CardRevokeReasonLost, devkit.SampleSessionToken); err != nil {
		t.Fatalf("revoke through cached service: %v", err)
	}
	if err := service.SuspendCard(ctx, devkit.SampleInactiveCardID, core.CardSuspendReasonLost, devkit.SampleSessionToken); err == nil {
		t.Fatalf("expected suspend of a revoked card to fail")
	}
	card, err = service.GetCard(ctx, devkit.SampleInactiveCardID, devkit.SampleSessionToken)
	if err != nil {
		t.Fatalf("get after revoke: %v", err)
	}
	if card.State != core.CardStateRevoked {
		t.Fatalf("expected revoked card, got %s", card.State)
	}
}

func TestCachedCardService_DelegatesUncachedOperations(t *testing.T) {
	base := devkit.NewSampleCardService()
	service, err := NewCachedCardService(base, newTestCardCacheService(t))
	if err != nil {
		t.Fatalf("new cached card service: %v", err)
	}
	cards, err := service.GetCards(context.Background(), devkit.SampleSessionToken, nil)
	if err != nil {
		t.Fatalf("get cards: %v", err)
	}
	if len(cards) != len(devkit.SampleCards()) {
		t.Fatalf("expected %d cards, got %d", len(devkit.SampleCards()), len(cards))
	}
	if !service.IsTokenValid(devkit.SampleSessionToken) {
		t.Fatalf("expected token validity to be delegated")
	}
}

func TestCardCacheKey_Contract(t *testing.T) {
	key, err := CardCacheKey(" crd/1 ", " session-secret ")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if !strings.HasPrefix(key, cardCacheKeyPrefix+"::") || !strings.HasSuffix(key, "::crd%2F1") {
		t.Fatalf("unexpected cache key %q", key)
	}
	if strings.Contains(key, "session-secret") {
		t.Fatalf("expected session token to be hashed out of the key, got %q", key)
	}
	other, err := CardCacheKey("crd/1", "session-secret")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if other != key {
		t.Fatalf("expected trimmed inputs to share a key, got %q != %q", key, other)
	}
	if _, err := CardCacheKey("", "session"); err == nil {
		t.Fatalf("expected missing card id to be rejected")
	}
	if _, err := NewCachedCardService(nil, newTestCardCacheService(t)); err == nil {
		t.Fatalf("expected missing base service to be rejected")
	}
}

func TestCachedCardService_FailedInvalidationKeepsConfirmedTransition(t *testing.T) {
	base := devkit.NewSampleCardService()
	logger := &warnCaptureLogger{}
	service, err := NewCachedCardService(
		base,
		&failingDeleteCache{CacheService: newTestCardCacheService(t)},
		WithCachedCardServiceLogger(logger),
	)
	if err != nil {
		t.Fatalf("new cached card service: %v", err)
	}

	if err := service.SuspendCard(context.Background(), devkit.SampleActiveCardID, core.CardSuspendReasonLost, devkit.SampleSessionToken); err != nil {
		t.Fatalf("expected the backend result, got %v", err)
	}
	if state, _ := base.CardState(devkit.SampleActiveCardID); state != core.CardStateSuspended {
		t.Fatalf("expected backend state suspended, got %s", state)
	}
	if warnings := logger.messages(); len(warnings) != 1 || warnings[0] != "card cache invalidation failed" {
		t.Fatalf("expected one invalidation warning, got %v", warnings)
	}
}

func TestCachedCardService_FailedInvalidationStillUpdatesCardState(t *testing.T) {
	base := devkit.NewSampleCardService()
	service, err := NewCachedCardService(base, &failingDeleteCache{CacheService: newTestCardCacheService(t)})
	if err != nil {
		t.Fatalf("new cached card service: %v", err)
	}
	manager, err := devkit.NewSandboxManager(service)
	if err != nil {
		t.Fatalf("new sandbox manager: %v", err)
	}
	defer runtime.KeepAlive(manager)
	manager.LogInSession(devkit.SampleSessionToken)

	ctx := context.Background()
	card, err := manager.GetCard(ctx, devkit.SampleActiveCardID)
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if err := card.Suspend(ctx, core.CardSuspendReasonLost); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	backend, _ := base.CardState(devkit.SampleActiveCardID)
	if card.State() != core.CardStateSuspended || backend != core.CardStateSuspended {
		t.Fatalf("expected local and backend state suspended, got local=%s backend=%s", card.State(), backend)
	}
}

type failingDeleteCache struct {
	repositorycache.CacheService
}

func (c *failingDeleteCache) Delete(context.Context, string) error {
	return errors.New("cache unavailable")
}

var _ glog.Logger = (*warnCaptureLogger)(nil)

type warnCaptureLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *warnCaptureLogger) Trace(string, ...any) {}
func (l *warnCaptureLogger) Debug(string, ...any) {}
func (l *warnCaptureLogger) Info(string, ...any)  {}
func (l *warnCaptureLogger) Error(string, ...any) {}
func (l *warnCaptureLogger) Fatal(string, ...any) {}

func (l *warnCaptureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *warnCaptureLogger) WithContext(context.Context) glog.Logger {
	return l
}

func (l *warnCaptureLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warnings...)
}
