package devkit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-card-management/core"
)

const conformanceMissingCardID = "crd_devkit_conformance_missing"

// ValidateCardServiceConformance checks the read side of a CardService:
// token validation, listing, detail lookup and not-found reporting.
func ValidateCardServiceConformance(ctx context.Context, service core.CardService, sessionToken string) error {
	if service == nil {
		return fmt.Errorf("devkit: card service is required")
	}
	if !service.IsTokenValid(sessionToken) {
		return fmt.Errorf("devkit: session token should be valid")
	}
	if service.IsTokenValid("") {
		return fmt.Errorf("devkit: blank token should be invalid")
	}

	cards, err := service.GetCards(ctx, sessionToken, nil)
	if err != nil {
		return fmt.Errorf("devkit: list cards: %w", err)
	}
	for _, card := range cards {
		if strings.TrimSpace(card.ID) == "" {
			return fmt.Errorf("devkit: listed card has blank id")
		}
		if !card.State.Valid() {
			return fmt.Errorf("devkit: card %s has invalid state %q", card.ID, card.State)
		}
		filtered, err := service.GetCards(ctx, sessionToken, []core.CardState{card.State})
		if err != nil {
			return fmt.Errorf("devkit: list cards by state: %w", err)
		}
		for _, item := range filtered {
			if item.State != card.State {
				return fmt.Errorf("devkit: state filter %s returned card %s in %s", card.State, item.ID, item.State)
			}
		}
	}
	if len(cards) > 0 {
		detail, err := service.GetCard(ctx, cards[0].ID, sessionToken)
		if err != nil {
			return fmt.Errorf("devkit: get card: %w", err)
		}
		if detail.ID != cards[0].ID {
			return fmt.Errorf("devkit: expected card %s, got %s", cards[0].ID, detail.ID)
		}
	}

	_, err = service.GetCard(ctx, conformanceMissingCardID, sessionToken)
	var networkErr *core.NetworkError
	if !errors.As(err, &networkErr) || networkErr.Kind != core.NetworkErrorNotFound {
		return fmt.Errorf("devkit: missing card should report not_found, got %v", err)
	}
	return nil
}

// ValidateLifecycleConformance drives an inactive card through
// activate, suspend and revoke, and checks that revoked is terminal.
func ValidateLifecycleConformance(ctx context.Context, service core.CardService, sessionToken string, cardID string) error {
	if service == nil {
		return fmt.Errorf("devkit: card service is required")
	}
	expectState := func(expected core.CardState) error {
		card, err := service.GetCard(ctx, cardID, sessionToken)
		if err != nil {
			return fmt.Errorf("devkit: get card: %w", err)
		}
		if card.State != expected {
			return fmt.Errorf("devkit: expected %s, got %s", expected, card.State)
		}
		return nil
	}

	if err := expectState(core.CardStateInactive); err != nil {
		return err
	}
	if err := service.ActivateCard(ctx, cardID, sessionToken); err != nil {
		return fmt.Errorf("devkit: activate: %w", err)
	}
	if err := expectState(core.CardStateActive); err != nil {
		return err
	}
	if err := service.SuspendCard(ctx, cardID, core.CardSuspendReasonLost, sessionToken); err != nil {
		return fmt.Errorf("devkit: suspend: %w", err)
	}
	if err := expectState(core.CardStateSuspended); err != nil {
		return err
	}
	if err := service.RevokeCard(ctx, cardID, core.CardRevokeReasonStolen, sessionToken); err != nil {
		return fmt.Errorf("devkit: revoke: %w", err)
	}
	if err := expectState(core.CardStateRevoked); err != nil {
		return err
	}
	if err := service.ActivateCard(ctx, cardID, sessionToken); err == nil {
		return fmt.Errorf("devkit: revoked card should not be reactivated")
	}
	return expectState(core.CardStateRevoked)
}
