package core

import (
	"context"
	"time"
)

const (
	sourceActivateCard = "Activate Card"
	sourceSuspendCard  = "Suspend Card"
	sourceRevokeCard   = "Revoke Card"
)

type stateChangeRequest struct {
	target    CardState
	reason    string
	source    string
	operation string
	call      func(ctx context.Context, service CardService, token string) error
}

func (c *Card) Activate(ctx context.Context) error {
	return c.changeState(ctx, stateChangeRequest{
		target:    CardStateActive,
		source:    sourceActivateCard,
		operation: "activate_card",
		call: func(ctx context.Context, service CardService, token string) error {
			return service.ActivateCard(ctx, c.ID, token)
		},
	})
}

// Suspend moves the card to suspended. reason may be empty.
func (c *Card) Suspend(ctx context.Context, reason CardSuspendReason) error {
	return c.changeState(ctx, stateChangeRequest{
		target:    CardStateSuspended,
		reason:    string(reason),
		source:    sourceSuspendCard,
		operation: "suspend_card",
		call: func(ctx context.Context, service CardService, token string) error {
			return service.SuspendCard(ctx, c.ID, reason, token)
		},
	})
}

// Revoke permanently revokes the card. reason may be empty.
func (c *Card) Revoke(ctx context.Context, reason CardRevokeReason) error {
	return c.changeState(ctx, stateChangeRequest{
		target:    CardStateRevoked,
		reason:    string(reason),
		source:    sourceRevokeCard,
		operation: "revoke_card",
		call: func(ctx context.Context, service CardService, token string) error {
			return service.RevokeCard(ctx, c.ID, reason, token)
		},
	})
}

func (c *Card) ActivateAsync(ctx context.Context, done ErrCompletion) {
	runAsyncErr(ctx, c.Activate, done)
}

func (c *Card) SuspendAsync(ctx context.Context, reason CardSuspendReason, done ErrCompletion) {
	runAsyncErr(ctx, func(ctx context.Context) error {
		return c.Suspend(ctx, reason)
	}, done)
}

func (c *Card) RevokeAsync(ctx context.Context, reason CardRevokeReason, done ErrCompletion) {
	runAsyncErr(ctx, func(ctx context.Context) error {
		return c.Revoke(ctx, reason)
	}, done)
}

// changeState checks the transition table, then the manager and session,
// before any network call. State only changes after the client confirms.
func (c *Card) changeState(ctx context.Context, req stateChangeRequest) (err error) {
	from := c.State()
	manager := c.resolveManager()
	if manager == nil {
		if !CanTransition(from, req.target) {
			return newCardError(ErrorKindInvalidStateRequested)
		}
		return newCardError(ErrorKindMissingManager)
	}
	startedAt := manager.now()
	failureInfo := map[string]any{
		"cardId":        c.ID,
		"originalState": string(from),
		"newState":      string(req.target),
		"reason":        req.reason,
	}
	defer func() {
		manager.observeOperation(ctx, startedAt, req.operation, err, map[string]any{
			"card_id": c.ID,
			"from":    string(from),
			"to":      string(req.target),
			"reason":  req.reason,
		})
	}()

	if !CanTransition(from, req.target) {
		err = newCardError(ErrorKindInvalidStateRequested)
		manager.logFailure(ctx, req.source, err, failureInfo, time.Time{})
		return err
	}
	token, ok := manager.currentSessionToken()
	if !ok {
		err = newCardError(ErrorKindUnauthenticated)
		manager.logFailure(ctx, req.source, err, failureInfo, time.Time{})
		return err
	}

	if callErr := req.call(ctx, manager.service, token); callErr != nil {
		err = FromNetworkError(callErr)
		manager.logFailure(ctx, req.source, callErr, failureInfo, startedAt)
		return err
	}

	c.setState(req.target)
	manager.analytics.Log(ctx, StateManagementEvent{
		CardID: c.ID,
		From:   from,
		To:     req.target,
		Reason: req.reason,
	}, startedAt)
	return nil
}
