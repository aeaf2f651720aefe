package core

import (
	"sync"
	"weak"
)

// Card is one issued card. State changes only after the network client has
// confirmed them. The manager reference is weak; once the manager is gone
// or closed, operations fail with ErrMissingManager.
type Card struct {
	ID             string
	PanLast4Digits string
	ExpiryDate     ExpiryDate
	CardholderName string

	mu        sync.Mutex
	state     CardState
	panViewed bool
	manager   weak.Pointer[CardManager]
}

// NewCard builds a card directly. A nil manager yields a detached card.
func NewCard(
	id string,
	panLast4Digits string,
	expiryDate ExpiryDate,
	cardholderName string,
	state CardState,
	manager *CardManager,
) *Card {
	if state == "" {
		state = CardStateInactive
	}
	card := &Card{
		ID:             id,
		PanLast4Digits: panLast4Digits,
		ExpiryDate:     expiryDate,
		CardholderName: cardholderName,
		state:          state,
	}
	if manager != nil {
		card.manager = weak.Make(manager)
	}
	return card
}

func newCardFromNetwork(networkCard NetworkCard, manager *CardManager) *Card {
	return NewCard(
		networkCard.ID,
		networkCard.PanLast4Digits,
		networkCard.ExpiryDate,
		networkCard.DisplayName,
		networkCard.State,
		manager,
	)
}

func (c *Card) State() CardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Card) PossibleStateChanges() []CardState {
	return PossibleStateChanges(c.State())
}

func (c *Card) setState(state CardState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

func (c *Card) markPanViewed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panViewed = true
}

func (c *Card) hasViewedPan() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panViewed
}

// resolveManager returns nil once the manager was collected or closed.
func (c *Card) resolveManager() *CardManager {
	manager := c.manager.Value()
	if manager == nil || manager.isReleased() {
		return nil
	}
	return manager
}
