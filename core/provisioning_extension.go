package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const sourceProvisioningExtension = "Provisioning Extension"

// ProvisioningExtensionFailure is reported by the wallet extension flow,
// where provisioning starts from the wallet app rather than the host app.
type ProvisioningExtensionFailure string

const (
	ProvisioningExtensionAppGroupIDNotFound      ProvisioningExtensionFailure = "wallet_extension_app_group_id_not_found"
	ProvisioningExtensionCardNotFound            ProvisioningExtensionFailure = "card_not_found"
	ProvisioningExtensionDeviceEnvironmentUnsafe ProvisioningExtensionFailure = "device_environment_unsafe"
	ProvisioningExtensionOperationFailure        ProvisioningExtensionFailure = "operation_failure"
)

type NetworkProvisioningExtensionFailure string

const (
	NetworkExtensionAppGroupIDNotFound      NetworkProvisioningExtensionFailure = "wallet_extension_app_group_id_not_found"
	NetworkExtensionCardNotFound            NetworkProvisioningExtensionFailure = "card_not_found"
	NetworkExtensionDeviceEnvironmentUnsafe NetworkProvisioningExtensionFailure = "device_environment_unsafe"
	NetworkExtensionOperationFailure        NetworkProvisioningExtensionFailure = "operation_failure"
)

// NetworkExtensionError carries a wallet extension failure from the network
// client.
type NetworkExtensionError struct {
	Failure NetworkProvisioningExtensionFailure
}

func (e *NetworkExtensionError) Error() string {
	if e == nil {
		return "card network extension error"
	}
	return fmt.Sprintf("card network extension error: %s", e.Failure)
}

func ProvisioningExtensionFailureFromNetwork(failure NetworkProvisioningExtensionFailure) (ProvisioningExtensionFailure, bool) {
	switch failure {
	case NetworkExtensionAppGroupIDNotFound:
		return ProvisioningExtensionAppGroupIDNotFound, true
	case NetworkExtensionCardNotFound:
		return ProvisioningExtensionCardNotFound, true
	case NetworkExtensionDeviceEnvironmentUnsafe:
		return ProvisioningExtensionDeviceEnvironmentUnsafe, true
	case NetworkExtensionOperationFailure:
		return ProvisioningExtensionOperationFailure, true
	}
	return ProvisioningExtensionOperationFailure, false
}

type ProvisioningExtensionError struct {
	Failure ProvisioningExtensionFailure
}

func (e *ProvisioningExtensionError) Error() string {
	if e == nil {
		return "provisioning extension error"
	}
	return "provisioning extension: " + string(e.Failure)
}

func (e *ProvisioningExtensionError) Is(target error) bool {
	var other *ProvisioningExtensionError
	if e == nil || !errors.As(target, &other) || other == nil {
		return false
	}
	return other.Failure == "" || other.Failure == e.Failure
}

func (e *ProvisioningExtensionError) ToServiceError() *goerrors.Error {
	if e == nil {
		return nil
	}
	category := goerrors.CategoryOperation
	switch e.Failure {
	case ProvisioningExtensionCardNotFound:
		category = goerrors.CategoryNotFound
	case ProvisioningExtensionDeviceEnvironmentUnsafe:
		category = goerrors.CategoryAuthz
	}
	return ensureCardErrorEnvelope(
		goerrors.New(e.Error(), category).
			WithTextCode(CardErrorProvisioningExtFail).
			WithMetadata(map[string]any{"failure": string(e.Failure)}),
	)
}

// ProvisioningExtensionFromError converts any error returned by the
// extension client. Unrecognised errors become an operation failure.
func ProvisioningExtensionFromError(err error) *ProvisioningExtensionError {
	if err == nil {
		return nil
	}
	var extensionErr *ProvisioningExtensionError
	if errors.As(err, &extensionErr) && extensionErr != nil {
		return extensionErr
	}
	var networkErr *NetworkExtensionError
	if errors.As(err, &networkErr) && networkErr != nil {
		failure, _ := ProvisioningExtensionFailureFromNetwork(networkErr.Failure)
		return &ProvisioningExtensionError{Failure: failure}
	}
	return &ProvisioningExtensionError{Failure: ProvisioningExtensionOperationFailure}
}

// ProvisioningExtensionHandler receives failures raised inside the wallet
// extension. Each failure is logged once and then handed to OnError.
type ProvisioningExtensionHandler struct {
	OnError   func(ProvisioningExtensionFailure)
	analytics *AnalyticsLogger
}

func NewProvisioningExtensionHandler(analytics *AnalyticsLogger, onError func(ProvisioningExtensionFailure)) *ProvisioningExtensionHandler {
	return &ProvisioningExtensionHandler{OnError: onError, analytics: analytics}
}

func (h *ProvisioningExtensionHandler) HandleNetworkFailure(ctx context.Context, failure NetworkProvisioningExtensionFailure) ProvisioningExtensionFailure {
	mapped, _ := ProvisioningExtensionFailureFromNetwork(failure)
	if h == nil {
		return mapped
	}
	if h.analytics != nil {
		h.analytics.LogError(ctx, &NetworkExtensionError{Failure: failure}, map[string]any{
			"source":  sourceProvisioningExtension,
			"failure": string(mapped),
		})
	}
	if h.OnError != nil {
		h.OnError(mapped)
	}
	return mapped
}

// ExtensionAuthorizer authenticates a wallet extension session with an
// issuer token.
type ExtensionAuthorizer interface {
	Login(ctx context.Context, issuerToken string) error
}

type AuthorizationProvider struct {
	authorizer ExtensionAuthorizer
	analytics  *AnalyticsLogger
}

func NewAuthorizationProvider(authorizer ExtensionAuthorizer, analytics *AnalyticsLogger) *AuthorizationProvider {
	return &AuthorizationProvider{authorizer: authorizer, analytics: analytics}
}

// Login returns nil on success or a *ProvisioningExtensionError.
func (p *AuthorizationProvider) Login(ctx context.Context, issuerToken string) error {
	if p == nil || p.authorizer == nil {
		return &ProvisioningExtensionError{Failure: ProvisioningExtensionOperationFailure}
	}
	if strings.TrimSpace(issuerToken) == "" {
		return &ProvisioningExtensionError{Failure: ProvisioningExtensionOperationFailure}
	}
	err := p.authorizer.Login(ctx, issuerToken)
	if err == nil {
		return nil
	}
	mapped := ProvisioningExtensionFromError(err)
	if p.analytics != nil {
		p.analytics.LogError(ctx, err, map[string]any{
			"source":  sourceProvisioningExtension,
			"failure": string(mapped.Failure),
		})
	}
	return mapped
}

func (p *AuthorizationProvider) LoginAsync(ctx context.Context, issuerToken string, done ErrCompletion) {
	runAsyncErr(ctx, func(ctx context.Context) error {
		return p.Login(ctx, issuerToken)
	}, done)
}
