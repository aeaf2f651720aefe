package sqlstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-card-management/core"
	glog "github.com/goliatone/go-logger/glog"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const cardCacheKeyPrefix = "go-card-management::card::v1"

// CachedCardService decorates a core.CardService with a read-through cache
// for single card lookups. State transitions drop the cached entry for the
// session that issued them; entries cached by other sessions expire with
// the cache TTL.
type CachedCardService struct {
	core.CardService
	cache  repositorycache.CacheService
	logger core.Logger
}

type CachedCardServiceOption func(*CachedCardService)

func WithCachedCardServiceLogger(logger core.Logger) CachedCardServiceOption {
	return func(s *CachedCardService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewCachedCardService(
	base core.CardService,
	cacheService repositorycache.CacheService,
	opts ...CachedCardServiceOption,
) (*CachedCardService, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base card service is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: card cache service is required")
	}
	service := &CachedCardService{CardService: base, cache: cacheService, logger: glog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service, nil
}

// CardCacheKey returns go-card-management::card::v1::<session digest>::<card id>.
// The session token is hashed so it never appears in a cache key.
func CardCacheKey(cardID string, sessionToken string) (string, error) {
	cardID = strings.TrimSpace(cardID)
	sessionToken = strings.TrimSpace(sessionToken)
	if cardID == "" {
		return "", fmt.Errorf("sqlstore: card id is required")
	}
	if sessionToken == "" {
		return "", fmt.Errorf("sqlstore: session token is required")
	}
	digest := sha256.Sum256([]byte(sessionToken))
	return strings.Join([]string{
		cardCacheKeyPrefix,
		hex.EncodeToString(digest[:8]),
		url.PathEscape(cardID),
	}, "::"), nil
}

func (s *CachedCardService) GetCard(ctx context.Context, cardID string, sessionToken string) (core.NetworkCard, error) {
	if s == nil || s.CardService == nil || s.cache == nil {
		return core.NetworkCard{}, fmt.Errorf("sqlstore: cached card service is not configured")
	}
	key, err := CardCacheKey(cardID, sessionToken)
	if err != nil {
		return s.CardService.GetCard(ctx, cardID, sessionToken)
	}
	return repositorycache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (core.NetworkCard, error) {
		return s.CardService.GetCard(ctx, cardID, sessionToken)
	})
}

func (s *CachedCardService) ActivateCard(ctx context.Context, cardID string, sessionToken string) error {
	err := s.CardService.ActivateCard(ctx, cardID, sessionToken)
	return s.invalidate(ctx, cardID, sessionToken, err)
}

func (s *CachedCardService) SuspendCard(ctx context.Context, cardID string, reason core.CardSuspendReason, sessionToken string) error {
	err := s.CardService.SuspendCard(ctx, cardID, reason, sessionToken)
	return s.invalidate(ctx, cardID, sessionToken, err)
}

func (s *CachedCardService) RevokeCard(ctx context.Context, cardID string, reason core.CardRevokeReason, sessionToken string) error {
	err := s.CardService.RevokeCard(ctx, cardID, reason, sessionToken)
	return s.invalidate(ctx, cardID, sessionToken, err)
}

// invalidate drops the cached entry even when the transition failed. It
// always returns the backend result: a confirmed transition stays confirmed
// when the cache delete fails, and the stale entry expires with the TTL.
func (s *CachedCardService) invalidate(ctx context.Context, cardID string, sessionToken string, callErr error) error {
	key, err := CardCacheKey(cardID, sessionToken)
	if err != nil {
		return callErr
	}
	if deleteErr := s.cache.Delete(ctx, key); deleteErr != nil {
		s.logger.Warn("card cache invalidation failed", "card_id", cardID, "error", deleteErr)
	}
	return callErr
}
