package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CardService is the contract required from the card network client. The
// client is opaque: the core only forwards identifiers, tokens and display
// configuration, and only inspects returned errors through NetworkError.
type CardService interface {
	IsTokenValid(token string) bool
	GetCards(ctx context.Context, sessionToken string, statuses []CardState) ([]NetworkCard, error)
	GetCard(ctx context.Context, cardID string, sessionToken string) (NetworkCard, error)
	DisplayPin(ctx context.Context, cardID string, singleUseToken string, cfg PinViewConfiguration) (SecureView, error)
	DisplayPan(ctx context.Context, cardID string, singleUseToken string, cfg PanViewConfiguration) (SecureView, error)
	DisplaySecurityCode(ctx context.Context, cardID string, singleUseToken string, cfg SecurityCodeViewConfiguration) (SecureView, error)
	DisplayPanAndSecurityCode(
		ctx context.Context,
		cardID string,
		singleUseToken string,
		panCfg PanViewConfiguration,
		securityCodeCfg SecurityCodeViewConfiguration,
	) (SecureViewPair, error)
	CopyPan(ctx context.Context, cardID string, singleUseToken string) error
	ActivateCard(ctx context.Context, cardID string, sessionToken string) error
	SuspendCard(ctx context.Context, cardID string, reason CardSuspendReason, sessionToken string) error
	RevokeCard(ctx context.Context, cardID string, reason CardRevokeReason, sessionToken string) error
	ConfigurePushProvisioning(ctx context.Context, req PushProvisioningRequest) error
	GetCardDigitizationState(ctx context.Context, cardID string, provisioningToken string) (NetworkDigitizationData, error)
	AddCardToWallet(ctx context.Context, cardID string, provisioningToken string) error
}

// SecureView is an opaque, client-rendered handle holding a sensitive value.
// The core passes it through and never reads it.
type SecureView any

type SecureViewPair struct {
	Pan          SecureView
	SecurityCode SecureView
}

type ExpiryDate struct {
	Month string
	Year  string
}

// NetworkCard is the card representation returned by the network client.
type NetworkCard struct {
	ID             string
	State          CardState
	PanLast4Digits string
	ExpiryDate     ExpiryDate
	DisplayName    string
}

type NetworkDigitizationData struct {
	State      DigitizationState
	LocalPass  any
	RemotePass any
}

// WalletCardDetails is the minimal descriptor forwarded for push provisioning.
type WalletCardDetails struct {
	CardID    string
	CardTitle string
	CardArt   any
}

type PushProvisioningRequest struct {
	CardholderID  string
	AppGroupID    string
	Configuration map[string]any
	WalletCards   []WalletCardDetails
}

type NetworkErrorKind string

const (
	NetworkErrorUnauthenticated               NetworkErrorKind = "unauthenticated"
	NetworkErrorAuthenticationFailure         NetworkErrorKind = "authentication_failure"
	NetworkErrorServerIssue                   NetworkErrorKind = "server_issue"
	NetworkErrorDeviceNotSupported            NetworkErrorKind = "device_not_supported"
	NetworkErrorInsecureDevice                NetworkErrorKind = "insecure_device"
	NetworkErrorInvalidRequest                NetworkErrorKind = "invalid_request"
	NetworkErrorMisconfigured                 NetworkErrorKind = "misconfigured"
	NetworkErrorInvalidRequestInput           NetworkErrorKind = "invalid_request_input"
	NetworkErrorSecureOperationsFailure       NetworkErrorKind = "secure_operations_failure"
	NetworkErrorParsingFailure                NetworkErrorKind = "parsing_failure"
	NetworkErrorNotFound                      NetworkErrorKind = "not_found"
	NetworkErrorPushProvisioningFailure       NetworkErrorKind = "push_provisioning_failure"
	NetworkErrorFetchDigitizationStateFailure NetworkErrorKind = "fetch_digitization_state_failure"
	NetworkErrorUnableToCopy                  NetworkErrorKind = "copy_failure"
)

// NetworkErrorKinds lists every top-level network error kind.
func NetworkErrorKinds() []NetworkErrorKind {
	return []NetworkErrorKind{
		NetworkErrorUnauthenticated,
		NetworkErrorAuthenticationFailure,
		NetworkErrorServerIssue,
		NetworkErrorDeviceNotSupported,
		NetworkErrorInsecureDevice,
		NetworkErrorInvalidRequest,
		NetworkErrorMisconfigured,
		NetworkErrorInvalidRequestInput,
		NetworkErrorSecureOperationsFailure,
		NetworkErrorParsingFailure,
		NetworkErrorNotFound,
		NetworkErrorPushProvisioningFailure,
		NetworkErrorFetchDigitizationStateFailure,
		NetworkErrorUnableToCopy,
	}
}

type NetworkPushProvisioningFailureKind string

const (
	NetworkPushProvisioningCancelled            NetworkPushProvisioningFailureKind = "cancelled"
	NetworkPushProvisioningConfigurationFailure NetworkPushProvisioningFailureKind = "configuration_failure"
	NetworkPushProvisioningOperationFailure     NetworkPushProvisioningFailureKind = "operation_failure"
)

type NetworkPushProvisioningFailure struct {
	Kind NetworkPushProvisioningFailureKind
	Hint string
}

type NetworkDigitizationStateFailureKind string

const (
	NetworkDigitizationStateConfigurationFailure NetworkDigitizationStateFailureKind = "configuration_failure"
	NetworkDigitizationStateOperationFailure     NetworkDigitizationStateFailureKind = "operation_failure"
)

type NetworkCopyFailureKind string

const (
	NetworkCopyFailure       NetworkCopyFailureKind = "copy_failure"
	NetworkCopyDataNotViewed NetworkCopyFailureKind = "data_not_viewed"
)

// NetworkError is the error enum reported by the network client. Only the
// nested field matching Kind is meaningful.
type NetworkError struct {
	Kind              NetworkErrorKind
	Hint              string
	PushProvisioning  NetworkPushProvisioningFailure
	DigitizationState NetworkDigitizationStateFailureKind
	Copy              NetworkCopyFailureKind
}

func NewNetworkError(kind NetworkErrorKind) *NetworkError {
	return &NetworkError{Kind: kind}
}

func NewNetworkHintError(kind NetworkErrorKind, hint string) *NetworkError {
	return &NetworkError{Kind: kind, Hint: hint}
}

func NewNetworkPushProvisioningError(kind NetworkPushProvisioningFailureKind, hint string) *NetworkError {
	return &NetworkError{
		Kind:             NetworkErrorPushProvisioningFailure,
		PushProvisioning: NetworkPushProvisioningFailure{Kind: kind, Hint: hint},
	}
}

func NewNetworkDigitizationStateError(kind NetworkDigitizationStateFailureKind) *NetworkError {
	return &NetworkError{Kind: NetworkErrorFetchDigitizationStateFailure, DigitizationState: kind}
}

func NewNetworkCopyError(kind NetworkCopyFailureKind) *NetworkError {
	return &NetworkError{Kind: NetworkErrorUnableToCopy, Copy: kind}
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "card network error"
	}
	details := []string{string(e.Kind)}
	switch e.Kind {
	case NetworkErrorPushProvisioningFailure:
		details = append(details, string(e.PushProvisioning.Kind))
		if hint := strings.TrimSpace(e.PushProvisioning.Hint); hint != "" {
			details = append(details, hint)
		}
	case NetworkErrorFetchDigitizationStateFailure:
		details = append(details, string(e.DigitizationState))
	case NetworkErrorUnableToCopy:
		details = append(details, string(e.Copy))
	}
	if hint := strings.TrimSpace(e.Hint); hint != "" {
		details = append(details, hint)
	}
	return fmt.Sprintf("card network error: %s", strings.Join(details, ": "))
}

func asNetworkError(err error) *NetworkError {
	var networkErr *NetworkError
	if errors.As(err, &networkErr) {
		return networkErr
	}
	return nil
}
