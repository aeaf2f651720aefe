package core

import (
	"context"
	"strings"
	"sync"
)

// CardDirectory keeps the Card values handed out by a manager so callers
// addressing cards by id (commands, queries, job handlers) act on the same
// instance. View-before-copy tracking lives on the instance.
type CardDirectory struct {
	manager *CardManager

	mu    sync.RWMutex
	cards map[string]*Card
}

func NewCardDirectory(manager *CardManager) *CardDirectory {
	return &CardDirectory{manager: manager, cards: map[string]*Card{}}
}

func (d *CardDirectory) Manager() *CardManager {
	if d == nil {
		return nil
	}
	return d.manager
}

// Resolve returns the known card for cardID, fetching card details on a miss.
func (d *CardDirectory) Resolve(ctx context.Context, cardID string) (*Card, error) {
	if d == nil || d.manager == nil {
		return nil, newCardError(ErrorKindMissingManager)
	}
	cardID = strings.TrimSpace(cardID)
	d.mu.RLock()
	card, ok := d.cards[cardID]
	d.mu.RUnlock()
	if ok {
		return card, nil
	}

	card, err := d.manager.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.cards[card.ID]; ok {
		return existing, nil
	}
	d.cards[card.ID] = card
	return card, nil
}

// Refresh lists the session's cards and replaces every cached entry.
func (d *CardDirectory) Refresh(ctx context.Context, statuses ...CardState) ([]*Card, error) {
	if d == nil || d.manager == nil {
		return nil, newCardError(ErrorKindMissingManager)
	}
	cards, err := d.manager.GetCards(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cards = make(map[string]*Card, len(cards))
	for _, card := range cards {
		d.cards[card.ID] = card
	}
	return cards, nil
}

// Forget drops every cached card, typically on logout.
func (d *CardDirectory) Forget() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cards = map[string]*Card{}
}

// LogInSession and LogoutSession delegate to the manager; logout also clears
// the cache so a new session never sees cards from the previous one.
func (d *CardDirectory) LogInSession(token string) bool {
	if d == nil {
		return false
	}
	return d.manager.LogInSession(token)
}

func (d *CardDirectory) LogoutSession() {
	if d == nil {
		return
	}
	d.manager.LogoutSession()
	d.Forget()
}

func (d *CardDirectory) ConfigurePushProvisioning(
	ctx context.Context,
	cardholderID string,
	appGroupID string,
	configuration map[string]any,
	walletCards []WalletCard,
) error {
	if d == nil || d.manager == nil {
		return newCardError(ErrorKindMissingManager)
	}
	return d.manager.ConfigurePushProvisioning(ctx, cardholderID, appGroupID, configuration, walletCards)
}
