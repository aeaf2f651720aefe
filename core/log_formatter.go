package core

import (
	"strconv"
	"time"
)

const (
	EventTypePrefix  = "com.checkout.issuing-mobile-sdk."
	DurationProperty = "duration"
)

type MonitoringLevel string

const (
	MonitoringLevelInfo MonitoringLevel = "info"
	MonitoringLevelWarn MonitoringLevel = "warn"
)

// AnalyticsEvent is the formatted record handed to analytics sinks. ID,
// SessionID and Metadata are filled in by the AnalyticsLogger.
type AnalyticsEvent struct {
	ID              string
	SessionID       string
	TypeIdentifier  string
	Time            time.Time
	MonitoringLevel MonitoringLevel
	Properties      map[string]any
	Metadata        map[string]string
}

// LogFormatter turns LogEvents into AnalyticsEvents.
type LogFormatter struct {
	ProductVersion string
	Now            func() time.Time
}

func NewLogFormatter(productVersion string) LogFormatter {
	return LogFormatter{ProductVersion: productVersion, Now: time.Now}
}

// Build formats event. A zero startedAt omits the duration property. Extra
// properties win over computed ones.
func (f LogFormatter) Build(event LogEvent, startedAt time.Time, extra map[string]string) AnalyticsEvent {
	now := f.now()
	properties := f.properties(event)
	if !startedAt.IsZero() {
		properties[DurationProperty] = roundedSeconds(now.Sub(startedAt))
	}
	for key, value := range extra {
		properties[key] = value
	}
	return AnalyticsEvent{
		TypeIdentifier:  EventTypePrefix + EventIdentifier(event),
		Time:            now,
		MonitoringLevel: EventMonitoringLevel(event),
		Properties:      properties,
	}
}

func (f LogFormatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func EventIdentifier(event LogEvent) string {
	switch event.(type) {
	case InitializedEvent:
		return "card_management_initialised"
	case CardListEvent:
		return "card_list"
	case CardDetailsEvent:
		return "card_details"
	case GetPinEvent:
		return "card_pin"
	case GetPanEvent:
		return "card_pan"
	case GetCVVEvent:
		return "card_cvv"
	case GetPanCVVEvent:
		return "card_pan_cvv"
	case CopyPanEvent:
		return "copy_pan"
	case StateManagementEvent:
		return "card_state_change"
	case ConfigurePushProvisioningEvent:
		return "configure_push_provisioning"
	case GetCardDigitizationStateEvent:
		return "get_card_digitization_state"
	case PushProvisioningEvent:
		return "push_provisioning"
	case FailureEvent:
		return "failure"
	default:
		return "unknown"
	}
}

func EventMonitoringLevel(event LogEvent) MonitoringLevel {
	if _, ok := event.(FailureEvent); ok {
		return MonitoringLevelWarn
	}
	return MonitoringLevelInfo
}

func (f LogFormatter) properties(event LogEvent) map[string]any {
	switch typed := event.(type) {
	case InitializedEvent:
		return map[string]any{
			"version": f.ProductVersion,
			"design":  typed.Design.LogDictionary(),
		}
	case CardListEvent:
		return map[string]any{"cardIds": append([]string{}, typed.CardIDs...)}
	case CardDetailsEvent:
		return map[string]any{"cardId": typed.CardID}
	case GetPinEvent:
		return cardStateProperties(typed.CardID, typed.CardState)
	case GetPanEvent:
		return cardStateProperties(typed.CardID, typed.CardState)
	case GetCVVEvent:
		return cardStateProperties(typed.CardID, typed.CardState)
	case GetPanCVVEvent:
		return cardStateProperties(typed.CardID, typed.CardState)
	case CopyPanEvent:
		return cardStateProperties(typed.CardID, typed.CardState)
	case StateManagementEvent:
		props := map[string]any{
			"cardId": typed.CardID,
			"from":   string(typed.From),
			"to":     string(typed.To),
		}
		if typed.Reason != "" {
			props["reason"] = typed.Reason
		}
		return props
	case ConfigurePushProvisioningEvent:
		return map[string]any{"cardholder": typed.CardholderID}
	case GetCardDigitizationStateEvent:
		return map[string]any{
			"card":               typed.CardID,
			"digitization_state": string(typed.DigitizationState),
		}
	case PushProvisioningEvent:
		return map[string]any{"cardId": typed.CardID}
	case FailureEvent:
		return failureProperties(typed)
	default:
		return map[string]any{}
	}
}

func cardStateProperties(cardID string, state CardState) map[string]any {
	return map[string]any{
		"cardId":     cardID,
		"card_state": string(state),
	}
}

func failureProperties(event FailureEvent) map[string]any {
	props := map[string]any{"source": event.Source}
	if event.NetworkError != nil {
		details := ClassifyNetworkError(event.NetworkError)
		props["error_type"] = details.Type
		props["error_description"] = details.Description
		for key, value := range details.AdditionalInfo {
			props["error_"+key] = value
		}
	} else {
		description := "unknown error"
		if event.Err != nil {
			description = event.Err.Error()
		}
		props["error"] = description
	}
	for key, value := range RedactSensitiveMap(event.AdditionalInfo) {
		props[key] = value
	}
	return props
}

// NetworkErrorDetails is the analytics classification of a NetworkError.
type NetworkErrorDetails struct {
	Type           string
	Description    string
	AdditionalInfo map[string]string
}

func ClassifyNetworkError(err *NetworkError) NetworkErrorDetails {
	if err == nil {
		return NetworkErrorDetails{Type: "unknown", Description: "unknown error"}
	}
	switch err.Kind {
	case NetworkErrorAuthenticationFailure:
		return NetworkErrorDetails{Type: "authentication_failure", Description: "Authentication failed"}
	case NetworkErrorDeviceNotSupported:
		return NetworkErrorDetails{Type: "device_not_supported", Description: "Device does not support the operation"}
	case NetworkErrorInsecureDevice:
		return NetworkErrorDetails{Type: "insecure_device", Description: "Device flagged as unsafe"}
	case NetworkErrorInvalidRequest:
		return NetworkErrorDetails{
			Type:           "invalid_request",
			Description:    "Invalid request",
			AdditionalInfo: map[string]string{"hint": err.Hint},
		}
	case NetworkErrorInvalidRequestInput:
		return NetworkErrorDetails{Type: "invalid_request_input", Description: "Invalid request input format"}
	case NetworkErrorMisconfigured:
		return NetworkErrorDetails{
			Type:           "misconfigured",
			Description:    "Service connection misconfigured",
			AdditionalInfo: map[string]string{"hint": err.Hint},
		}
	case NetworkErrorServerIssue:
		return NetworkErrorDetails{Type: "server_issue", Description: "Server unable to respond"}
	case NetworkErrorUnauthenticated:
		return NetworkErrorDetails{Type: "unauthenticated", Description: "Session expired or missing"}
	case NetworkErrorSecureOperationsFailure:
		return NetworkErrorDetails{Type: "secure_operations_failure", Description: "Unable to handle secure operations"}
	case NetworkErrorParsingFailure:
		return NetworkErrorDetails{Type: "parsing_failure", Description: "Response format mismatch"}
	case NetworkErrorNotFound:
		return NetworkErrorDetails{Type: "not_found", Description: "Requested resource not found"}
	case NetworkErrorPushProvisioningFailure:
		return NetworkErrorDetails{
			Type:           "push_provisioning_failure",
			Description:    "Push provisioning failed",
			AdditionalInfo: map[string]string{"failure_type": pushProvisioningFailureType(err.PushProvisioning)},
		}
	case NetworkErrorFetchDigitizationStateFailure:
		return NetworkErrorDetails{
			Type:           "fetch_digitization_state_failure",
			Description:    "Failed to fetch digitization state",
			AdditionalInfo: map[string]string{"failure_type": string(err.DigitizationState)},
		}
	case NetworkErrorUnableToCopy:
		return NetworkErrorDetails{
			Type:           "copy_failure",
			Description:    "Failed to copy to clipboard",
			AdditionalInfo: map[string]string{"failure_type": copyFailureType(err.Copy)},
		}
	default:
		return NetworkErrorDetails{Type: "unknown", Description: err.Error()}
	}
}

func pushProvisioningFailureType(failure NetworkPushProvisioningFailure) string {
	if failure.Kind == NetworkPushProvisioningOperationFailure {
		return "operation_failure " + failure.Hint
	}
	return string(failure.Kind)
}

func copyFailureType(kind NetworkCopyFailureKind) string {
	switch kind {
	case NetworkCopyDataNotViewed:
		return "pan_not_viewed"
	default:
		return "copy_operation_failure"
	}
}

// roundedSeconds keeps two decimals, matching a "%.2f" rendering.
func roundedSeconds(elapsed time.Duration) float64 {
	formatted := strconv.FormatFloat(elapsed.Seconds(), 'f', 2, 64)
	value, err := strconv.ParseFloat(formatted, 64)
	if err != nil {
		return 0
	}
	return value
}
