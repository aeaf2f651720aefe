package core

import (
	"context"
	"time"
)

const (
	sourceGetPin                = "Get Pin"
	sourceGetPan                = "Get Pan"
	sourceGetSecurityCode       = "Get Security Code"
	sourceGetPanAndSecurityCode = "Get Pan and SecurityCode"
	sourceCopyPan               = "Copy Pan"
)

// GetPin returns an opaque PIN view. singleUseToken is forwarded unchecked.
func (c *Card) GetPin(ctx context.Context, singleUseToken string) (SecureView, error) {
	return secureFieldCall(ctx, c, "get_pin", sourceGetPin,
		func(ctx context.Context, m *CardManager) (SecureView, error) {
			return m.service.DisplayPin(ctx, c.ID, singleUseToken, m.designSystem.PinViewDesign())
		},
		func(state CardState) LogEvent { return GetPinEvent{CardID: c.ID, CardState: state} },
	)
}

func (c *Card) GetPan(ctx context.Context, singleUseToken string) (SecureView, error) {
	view, err := secureFieldCall(ctx, c, "get_pan", sourceGetPan,
		func(ctx context.Context, m *CardManager) (SecureView, error) {
			return m.service.DisplayPan(ctx, c.ID, singleUseToken, m.designSystem.PanViewDesign())
		},
		func(state CardState) LogEvent { return GetPanEvent{CardID: c.ID, CardState: state} },
	)
	if err == nil {
		c.markPanViewed()
	}
	return view, err
}

func (c *Card) GetSecurityCode(ctx context.Context, singleUseToken string) (SecureView, error) {
	return secureFieldCall(ctx, c, "get_security_code", sourceGetSecurityCode,
		func(ctx context.Context, m *CardManager) (SecureView, error) {
			return m.service.DisplaySecurityCode(ctx, c.ID, singleUseToken, m.designSystem.SecurityCodeViewDesign())
		},
		func(state CardState) LogEvent { return GetCVVEvent{CardID: c.ID, CardState: state} },
	)
}

func (c *Card) GetPanAndSecurityCode(ctx context.Context, singleUseToken string) (SecureViewPair, error) {
	views, err := secureFieldCall(ctx, c, "get_pan_and_security_code", sourceGetPanAndSecurityCode,
		func(ctx context.Context, m *CardManager) (SecureViewPair, error) {
			return m.service.DisplayPanAndSecurityCode(
				ctx,
				c.ID,
				singleUseToken,
				m.designSystem.PanViewDesign(),
				m.designSystem.SecurityCodeViewDesign(),
			)
		},
		func(state CardState) LogEvent { return GetPanCVVEvent{CardID: c.ID, CardState: state} },
	)
	if err == nil {
		c.markPanViewed()
	}
	return views, err
}

// CopyPan copies the PAN to the clipboard through the network client. The
// PAN must have been displayed on this card first.
func (c *Card) CopyPan(ctx context.Context, singleUseToken string) (err error) {
	manager := c.resolveManager()
	if manager == nil {
		return CopyError(CopyFailureMissingManager)
	}
	startedAt := manager.now()
	defer func() {
		manager.observeOperation(ctx, startedAt, "copy_pan", err, map[string]any{"card_id": c.ID})
	}()

	if !c.hasViewedPan() {
		err = CopyError(CopyFailureDataNotViewed)
		manager.logFailure(ctx, sourceCopyPan, NewNetworkCopyError(NetworkCopyDataNotViewed),
			map[string]any{"cardId": c.ID}, time.Time{})
		return err
	}
	if callErr := manager.service.CopyPan(ctx, c.ID, singleUseToken); callErr != nil {
		err = FromNetworkError(callErr)
		manager.logFailure(ctx, sourceCopyPan, callErr, map[string]any{"cardId": c.ID}, startedAt)
		return err
	}
	manager.analytics.Log(ctx, CopyPanEvent{CardID: c.ID, CardState: c.State()}, startedAt)
	return nil
}

func (c *Card) GetPinAsync(ctx context.Context, singleUseToken string, done Completion[SecureView]) {
	runAsync(ctx, func(ctx context.Context) (SecureView, error) {
		return c.GetPin(ctx, singleUseToken)
	}, done)
}

func (c *Card) GetPanAsync(ctx context.Context, singleUseToken string, done Completion[SecureView]) {
	runAsync(ctx, func(ctx context.Context) (SecureView, error) {
		return c.GetPan(ctx, singleUseToken)
	}, done)
}

func (c *Card) GetSecurityCodeAsync(ctx context.Context, singleUseToken string, done Completion[SecureView]) {
	runAsync(ctx, func(ctx context.Context) (SecureView, error) {
		return c.GetSecurityCode(ctx, singleUseToken)
	}, done)
}

func (c *Card) GetPanAndSecurityCodeAsync(ctx context.Context, singleUseToken string, done Completion[SecureViewPair]) {
	runAsync(ctx, func(ctx context.Context) (SecureViewPair, error) {
		return c.GetPanAndSecurityCode(ctx, singleUseToken)
	}, done)
}

func (c *Card) CopyPanAsync(ctx context.Context, singleUseToken string, done ErrCompletion) {
	runAsyncErr(ctx, func(ctx context.Context) error {
		return c.CopyPan(ctx, singleUseToken)
	}, done)
}

func secureFieldCall[T any](
	ctx context.Context,
	card *Card,
	operation string,
	source string,
	call func(context.Context, *CardManager) (T, error),
	success func(CardState) LogEvent,
) (result T, err error) {
	manager := card.resolveManager()
	if manager == nil {
		return result, newCardError(ErrorKindMissingManager)
	}
	startedAt := manager.now()
	defer func() {
		manager.observeOperation(ctx, startedAt, operation, err, map[string]any{"card_id": card.ID})
	}()

	result, callErr := call(ctx, manager)
	if callErr != nil {
		var zero T
		err = FromNetworkError(callErr)
		manager.logFailure(ctx, source, callErr, map[string]any{"cardId": card.ID}, startedAt)
		return zero, err
	}
	manager.analytics.Log(ctx, success(card.State()), startedAt)
	return result, nil
}
