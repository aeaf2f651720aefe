package core

import "context"

const (
	sourceGetDigitizationState = "Get Digitization State"
	sourcePushProvisioning     = "Push Provisioning"
)

// GetDigitizationState reports whether the card is already in the device
// wallet.
func (c *Card) GetDigitizationState(ctx context.Context, provisioningToken string) (data DigitizationData, err error) {
	manager := c.resolveManager()
	if manager == nil {
		return DigitizationData{}, DigitizationStateError(DigitizationStateOperationFailure)
	}
	startedAt := manager.now()
	defer func() {
		manager.observeOperation(ctx, startedAt, "get_digitization_state", err, map[string]any{
			"card_id":            c.ID,
			"digitization_state": string(data.State),
		})
	}()

	networkData, callErr := manager.service.GetCardDigitizationState(ctx, c.ID, provisioningToken)
	if callErr != nil {
		err = FromNetworkError(callErr)
		manager.logFailure(ctx, sourceGetDigitizationState, callErr, map[string]any{"cardId": c.ID}, startedAt)
		return DigitizationData{}, err
	}
	data = digitizationDataFromNetwork(networkData)
	manager.analytics.Log(ctx, GetCardDigitizationStateEvent{
		CardID:            c.ID,
		DigitizationState: data.State,
	}, startedAt)
	return data, nil
}

// Provision adds the card to the device wallet.
func (c *Card) Provision(ctx context.Context, provisioningToken string) (err error) {
	manager := c.resolveManager()
	if manager == nil {
		return newCardError(ErrorKindMissingManager)
	}
	startedAt := manager.now()
	defer func() {
		manager.observeOperation(ctx, startedAt, "push_provisioning", err, map[string]any{"card_id": c.ID})
	}()

	if callErr := manager.service.AddCardToWallet(ctx, c.ID, provisioningToken); callErr != nil {
		err = FromNetworkError(callErr)
		manager.logFailure(ctx, sourcePushProvisioning, callErr, map[string]any{"cardId": c.ID}, startedAt)
		return err
	}
	manager.analytics.Log(ctx, PushProvisioningEvent{CardID: c.ID}, startedAt)
	return nil
}

func (c *Card) GetDigitizationStateAsync(ctx context.Context, provisioningToken string, done Completion[DigitizationData]) {
	runAsync(ctx, func(ctx context.Context) (DigitizationData, error) {
		return c.GetDigitizationState(ctx, provisioningToken)
	}, done)
}

func (c *Card) ProvisionAsync(ctx context.Context, provisioningToken string, done ErrCompletion) {
	runAsyncErr(ctx, func(ctx context.Context) error {
		return c.Provision(ctx, provisioningToken)
	}, done)
}
