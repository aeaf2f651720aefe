package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

type ErrorKind string

const (
	ErrorKindUnauthenticated                ErrorKind = "unauthenticated"
	ErrorKindAuthenticationFailure          ErrorKind = "authentication_failure"
	ErrorKindConnectionIssue                ErrorKind = "connection_issue"
	ErrorKindDeviceNotSupported             ErrorKind = "device_not_supported"
	ErrorKindInsecureDevice                 ErrorKind = "insecure_device"
	ErrorKindConfigurationIssue             ErrorKind = "configuration_issue"
	ErrorKindInvalidRequestInput            ErrorKind = "invalid_request_input"
	ErrorKindInvalidNewCardStateRequested   ErrorKind = "invalid_new_card_state_requested"
	ErrorKindInvalidStateRequested          ErrorKind = "invalid_state_requested"
	ErrorKindMissingManager                 ErrorKind = "missing_manager"
	ErrorKindUnableToPerformSecureOperation ErrorKind = "unable_to_perform_secure_operation"
	ErrorKindPushProvisioningFailure        ErrorKind = "push_provisioning_failure"
	ErrorKindFetchDigitizationStateFailure  ErrorKind = "fetch_digitization_state_failure"
	ErrorKindUnableToCopy                   ErrorKind = "unable_to_copy"
	ErrorKindNotFound                       ErrorKind = "not_found"
)

type PushProvisioningFailure string

const (
	PushProvisioningCancelled            PushProvisioningFailure = "cancelled"
	PushProvisioningConfigurationFailure PushProvisioningFailure = "configuration_failure"
	PushProvisioningOperationFailure     PushProvisioningFailure = "operation_failure"
)

type DigitizationStateFailure string

const (
	DigitizationStateConfigurationFailure DigitizationStateFailure = "configuration_failure"
	DigitizationStateOperationFailure     DigitizationStateFailure = "operation_failure"
)

type CopyFailure string

const (
	CopyFailureCopyFailure    CopyFailure = "copy_failure"
	CopyFailureDataNotViewed  CopyFailure = "data_not_viewed"
	CopyFailureMissingManager CopyFailure = "missing_manager"
)

// CardManagementError is the only error type surfaced to SDK callers. Nested
// failure fields are set only for the matching Kind.
type CardManagementError struct {
	Kind              ErrorKind
	Hint              string
	PushProvisioning  PushProvisioningFailure
	DigitizationState DigitizationStateFailure
	Copy              CopyFailure
}

var (
	ErrUnauthenticated              = &CardManagementError{Kind: ErrorKindUnauthenticated}
	ErrAuthenticationFailure        = &CardManagementError{Kind: ErrorKindAuthenticationFailure}
	ErrConnectionIssue              = &CardManagementError{Kind: ErrorKindConnectionIssue}
	ErrDeviceNotSupported           = &CardManagementError{Kind: ErrorKindDeviceNotSupported}
	ErrInsecureDevice               = &CardManagementError{Kind: ErrorKindInsecureDevice}
	ErrConfigurationIssue           = &CardManagementError{Kind: ErrorKindConfigurationIssue}
	ErrInvalidRequestInput          = &CardManagementError{Kind: ErrorKindInvalidRequestInput}
	ErrInvalidNewCardStateRequested = &CardManagementError{Kind: ErrorKindInvalidNewCardStateRequested}
	ErrInvalidStateRequested        = &CardManagementError{Kind: ErrorKindInvalidStateRequested}
	ErrMissingManager               = &CardManagementError{Kind: ErrorKindMissingManager}
	ErrUnableToPerformSecureOp      = &CardManagementError{Kind: ErrorKindUnableToPerformSecureOperation}
	ErrPushProvisioningFailure      = &CardManagementError{Kind: ErrorKindPushProvisioningFailure}
	ErrFetchDigitizationState       = &CardManagementError{Kind: ErrorKindFetchDigitizationStateFailure}
	ErrUnableToCopy                 = &CardManagementError{Kind: ErrorKindUnableToCopy}
	ErrNotFound                     = &CardManagementError{Kind: ErrorKindNotFound}
)

func newCardError(kind ErrorKind) *CardManagementError {
	return &CardManagementError{Kind: kind}
}

func ConfigurationIssue(hint string) *CardManagementError {
	return &CardManagementError{Kind: ErrorKindConfigurationIssue, Hint: hint}
}

func PushProvisioningError(failure PushProvisioningFailure) *CardManagementError {
	return &CardManagementError{Kind: ErrorKindPushProvisioningFailure, PushProvisioning: failure}
}

func DigitizationStateError(failure DigitizationStateFailure) *CardManagementError {
	return &CardManagementError{Kind: ErrorKindFetchDigitizationStateFailure, DigitizationState: failure}
}

func CopyError(failure CopyFailure) *CardManagementError {
	return &CardManagementError{Kind: ErrorKindUnableToCopy, Copy: failure}
}

func (e *CardManagementError) Error() string {
	if e == nil {
		return "card management error"
	}
	parts := []string{string(e.Kind)}
	switch e.Kind {
	case ErrorKindPushProvisioningFailure:
		parts = append(parts, string(e.PushProvisioning))
	case ErrorKindFetchDigitizationStateFailure:
		parts = append(parts, string(e.DigitizationState))
	case ErrorKindUnableToCopy:
		parts = append(parts, string(e.Copy))
	}
	if hint := strings.TrimSpace(e.Hint); hint != "" {
		parts = append(parts, hint)
	}
	return "card management: " + strings.Join(compactStrings(parts), ": ")
}

// Is matches on kind, and on the nested failure when the target sets one.
// Hints never participate in matching.
func (e *CardManagementError) Is(target error) bool {
	if e == nil {
		return false
	}
	var other *CardManagementError
	if !errors.As(target, &other) || other == nil {
		return false
	}
	if e.Kind != other.Kind {
		return false
	}
	if other.PushProvisioning != "" && other.PushProvisioning != e.PushProvisioning {
		return false
	}
	if other.DigitizationState != "" && other.DigitizationState != e.DigitizationState {
		return false
	}
	if other.Copy != "" && other.Copy != e.Copy {
		return false
	}
	return true
}

// FromNetworkError translates a network client error into the public
// taxonomy. Errors that are not NetworkError values surface as a connection
// issue.
func FromNetworkError(err error) *CardManagementError {
	if err == nil {
		return nil
	}
	var cardErr *CardManagementError
	if errors.As(err, &cardErr) && cardErr != nil {
		return cardErr
	}
	var networkErr *NetworkError
	if !errors.As(err, &networkErr) || networkErr == nil {
		return newCardError(ErrorKindConnectionIssue)
	}
	mapped, ok := mapNetworkError(networkErr)
	if !ok {
		return newCardError(ErrorKindConnectionIssue)
	}
	return mapped
}

// mapNetworkError enumerates every network kind without a fallback; ok is
// false only for kinds outside NetworkErrorKinds.
func mapNetworkError(err *NetworkError) (*CardManagementError, bool) {
	switch err.Kind {
	case NetworkErrorUnauthenticated:
		return newCardError(ErrorKindUnauthenticated), true
	case NetworkErrorAuthenticationFailure:
		return newCardError(ErrorKindAuthenticationFailure), true
	case NetworkErrorServerIssue:
		return newCardError(ErrorKindConnectionIssue), true
	case NetworkErrorParsingFailure:
		return newCardError(ErrorKindConnectionIssue), true
	case NetworkErrorDeviceNotSupported:
		return newCardError(ErrorKindDeviceNotSupported), true
	case NetworkErrorInsecureDevice:
		return newCardError(ErrorKindInsecureDevice), true
	case NetworkErrorInvalidRequest:
		return ConfigurationIssue(err.Hint), true
	case NetworkErrorMisconfigured:
		return ConfigurationIssue(err.Hint), true
	case NetworkErrorInvalidRequestInput:
		return newCardError(ErrorKindInvalidRequestInput), true
	case NetworkErrorSecureOperationsFailure:
		return newCardError(ErrorKindUnableToPerformSecureOperation), true
	case NetworkErrorNotFound:
		return newCardError(ErrorKindNotFound), true
	case NetworkErrorPushProvisioningFailure:
		failure, ok := PushProvisioningFailureFromNetwork(err.PushProvisioning.Kind)
		return PushProvisioningError(failure), ok
	case NetworkErrorFetchDigitizationStateFailure:
		failure, ok := DigitizationStateFailureFromNetwork(err.DigitizationState)
		return DigitizationStateError(failure), ok
	case NetworkErrorUnableToCopy:
		failure, ok := CopyFailureFromNetwork(err.Copy)
		return CopyError(failure), ok
	}
	return nil, false
}

func PushProvisioningFailureFromNetwork(kind NetworkPushProvisioningFailureKind) (PushProvisioningFailure, bool) {
	switch kind {
	case NetworkPushProvisioningCancelled:
		return PushProvisioningCancelled, true
	case NetworkPushProvisioningConfigurationFailure:
		return PushProvisioningConfigurationFailure, true
	case NetworkPushProvisioningOperationFailure:
		return PushProvisioningOperationFailure, true
	}
	return PushProvisioningOperationFailure, false
}

func DigitizationStateFailureFromNetwork(kind NetworkDigitizationStateFailureKind) (DigitizationStateFailure, bool) {
	switch kind {
	case NetworkDigitizationStateConfigurationFailure:
		return DigitizationStateConfigurationFailure, true
	case NetworkDigitizationStateOperationFailure:
		return DigitizationStateOperationFailure, true
	}
	return DigitizationStateOperationFailure, false
}

func CopyFailureFromNetwork(kind NetworkCopyFailureKind) (CopyFailure, bool) {
	switch kind {
	case NetworkCopyFailure:
		return CopyFailureCopyFailure, true
	case NetworkCopyDataNotViewed:
		return CopyFailureDataNotViewed, true
	}
	return CopyFailureCopyFailure, false
}

const (
	CardErrorBadInput            = "CARD_BAD_INPUT"
	CardErrorUnauthenticated     = "CARD_UNAUTHENTICATED"
	CardErrorAuthentication      = "CARD_AUTHENTICATION_FAILURE"
	CardErrorConnection          = "CARD_CONNECTION_ISSUE"
	CardErrorDeviceNotSupported  = "CARD_DEVICE_NOT_SUPPORTED"
	CardErrorInsecureDevice      = "CARD_INSECURE_DEVICE"
	CardErrorConfiguration       = "CARD_CONFIGURATION_ISSUE"
	CardErrorInvalidState        = "CARD_INVALID_STATE_REQUESTED"
	CardErrorMissingManager      = "CARD_MISSING_MANAGER"
	CardErrorSecureOperation     = "CARD_SECURE_OPERATION_FAILED"
	CardErrorPushProvisioning    = "CARD_PUSH_PROVISIONING_FAILED"
	CardErrorDigitizationState   = "CARD_DIGITIZATION_STATE_FAILED"
	CardErrorUnableToCopy        = "CARD_UNABLE_TO_COPY"
	CardErrorNotFound            = "CARD_NOT_FOUND"
	CardErrorProvisioningExtFail = "CARD_PROVISIONING_EXTENSION_FAILED"
	CardErrorInternal            = "CARD_INTERNAL_ERROR"
)

// ToServiceError converts the error into a go-errors envelope for hosts that
// report errors over an API boundary.
func (e *CardManagementError) ToServiceError() *goerrors.Error {
	if e == nil {
		return nil
	}
	category, textCode := e.classify()
	metadata := map[string]any{"kind": string(e.Kind)}
	if hint := strings.TrimSpace(e.Hint); hint != "" {
		metadata["hint"] = hint
	}
	switch {
	case e.PushProvisioning != "":
		metadata["failure"] = string(e.PushProvisioning)
	case e.DigitizationState != "":
		metadata["failure"] = string(e.DigitizationState)
	case e.Copy != "":
		metadata["failure"] = string(e.Copy)
	}
	return ensureCardErrorEnvelope(
		goerrors.New(e.Error(), category).
			WithTextCode(textCode).
			WithMetadata(metadata),
	)
}

func (e *CardManagementError) classify() (goerrors.Category, string) {
	switch e.Kind {
	case ErrorKindUnauthenticated:
		return goerrors.CategoryAuth, CardErrorUnauthenticated
	case ErrorKindAuthenticationFailure:
		return goerrors.CategoryAuth, CardErrorAuthentication
	case ErrorKindConnectionIssue:
		return goerrors.CategoryExternal, CardErrorConnection
	case ErrorKindDeviceNotSupported:
		return goerrors.CategoryOperation, CardErrorDeviceNotSupported
	case ErrorKindInsecureDevice:
		return goerrors.CategoryAuthz, CardErrorInsecureDevice
	case ErrorKindConfigurationIssue:
		return goerrors.CategoryOperation, CardErrorConfiguration
	case ErrorKindInvalidRequestInput:
		return goerrors.CategoryBadInput, CardErrorBadInput
	case ErrorKindInvalidStateRequested, ErrorKindInvalidNewCardStateRequested:
		return goerrors.CategoryConflict, CardErrorInvalidState
	case ErrorKindMissingManager:
		return goerrors.CategoryInternal, CardErrorMissingManager
	case ErrorKindUnableToPerformSecureOperation:
		return goerrors.CategoryExternal, CardErrorSecureOperation
	case ErrorKindPushProvisioningFailure:
		return goerrors.CategoryOperation, CardErrorPushProvisioning
	case ErrorKindFetchDigitizationStateFailure:
		return goerrors.CategoryOperation, CardErrorDigitizationState
	case ErrorKindUnableToCopy:
		return goerrors.CategoryOperation, CardErrorUnableToCopy
	case ErrorKindNotFound:
		return goerrors.CategoryNotFound, CardErrorNotFound
	default:
		return goerrors.CategoryInternal, CardErrorInternal
	}
}

// MapError normalizes any error into the go-errors envelope.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var cardErr *CardManagementError
	if errors.As(err, &cardErr) && cardErr != nil {
		return cardErr.ToServiceError()
	}
	var extensionErr *ProvisioningExtensionError
	if errors.As(err, &extensionErr) && extensionErr != nil {
		return extensionErr.ToServiceError()
	}
	var networkErr *NetworkError
	if errors.As(err, &networkErr) && networkErr != nil {
		return FromNetworkError(networkErr).ToServiceError()
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureCardErrorEnvelope(richErr)
	}
	return ensureCardErrorEnvelope(goerrors.MapToError(err, goerrors.DefaultErrorMappers()))
}

func ensureCardErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = cardHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultCardTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultCardTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return CardErrorBadInput
	case goerrors.CategoryNotFound:
		return CardErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return CardErrorUnauthenticated
	case goerrors.CategoryConflict:
		return CardErrorInvalidState
	case goerrors.CategoryExternal:
		return CardErrorConnection
	default:
		return CardErrorInternal
	}
}

func cardHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func compactStrings(values []string) []string {
	out := values[:0]
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			out = append(out, value)
		}
	}
	return out
}
