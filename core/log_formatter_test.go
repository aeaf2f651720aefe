package core

import (
	"testing"
	"time"
)

func TestLogFormatterDurationRounding(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	formatter := LogFormatter{ProductVersion: "0.1.2", Now: func() time.Time { return now }}

	started := now.Add(-21128 * time.Millisecond)
	event := formatter.Build(CardDetailsEvent{CardID: "card_1"}, started, nil)
	if got := event.Properties[DurationProperty]; got != 21.13 {
		t.Fatalf("expected duration 21.13, got %v", got)
	}

	withoutStart := formatter.Build(CardDetailsEvent{CardID: "card_1"}, time.Time{}, nil)
	if _, ok := withoutStart.Properties[DurationProperty]; ok {
		t.Fatalf("expected no duration without a start time")
	}
}

func TestLogFormatterExtrasOverrideComputedProperties(t *testing.T) {
	formatter := NewLogFormatter("0.1.2")
	event := formatter.Build(
		CardDetailsEvent{CardID: "card_1"},
		time.Now().Add(-time.Second),
		map[string]string{DurationProperty: "override", "cardId": "card_2"},
	)
	if event.Properties[DurationProperty] != "override" || event.Properties["cardId"] != "card_2" {
		t.Fatalf("expected extras to win, got %+v", event.Properties)
	}
}

func TestLogFormatterIdentifiersAndLevels(t *testing.T) {
	formatter := NewLogFormatter("0.1.2")
	cases := []struct {
		event LogEvent
		id    string
		level MonitoringLevel
	}{
		{InitializedEvent{}, "card_management_initialised", MonitoringLevelInfo},
		{CardListEvent{}, "card_list", MonitoringLevelInfo},
		{GetPanCVVEvent{}, "card_pan_cvv", MonitoringLevelInfo},
		{StateManagementEvent{}, "card_state_change", MonitoringLevelInfo},
		{GetCardDigitizationStateEvent{}, "get_card_digitization_state", MonitoringLevelInfo},
		{FailureEvent{Source: "Get Pan"}, "failure", MonitoringLevelWarn},
	}
	for _, tc := range cases {
		event := formatter.Build(tc.event, time.Time{}, nil)
		if event.TypeIdentifier != EventTypePrefix+tc.id {
			t.Fatalf("expected %q, got %q", EventTypePrefix+tc.id, event.TypeIdentifier)
		}
		if event.MonitoringLevel != tc.level {
			t.Fatalf("expected level %q for %q, got %q", tc.level, tc.id, event.MonitoringLevel)
		}
	}
}

func TestLogFormatterStateChangeProperties(t *testing.T) {
	formatter := NewLogFormatter("0.1.2")
	withReason := formatter.Build(StateManagementEvent{
		CardID: "card_1",
		From:   CardStateActive,
		To:     CardStateSuspended,
		Reason: string(CardSuspendReasonLost),
	}, time.Time{}, nil)
	if withReason.Properties["from"] != "active" || withReason.Properties["to"] != "suspended" {
		t.Fatalf("unexpected properties %+v", withReason.Properties)
	}
	if withReason.Properties["reason"] != "lost" {
		t.Fatalf("expected reason, got %+v", withReason.Properties)
	}

	noReason := formatter.Build(StateManagementEvent{CardID: "card_1", From: CardStateInactive, To: CardStateActive}, time.Time{}, nil)
	if _, ok := noReason.Properties["reason"]; ok {
		t.Fatalf("expected reason to be omitted")
	}
}

func TestLogFormatterFailureClassification(t *testing.T) {
	formatter := NewLogFormatter("0.1.2")

	notFound := formatter.Build(FailureEvent{
		Source:       "Get Card Details",
		NetworkError: NewNetworkError(NetworkErrorNotFound),
		AdditionalInfo: map[string]any{
			"cardId":        "card_1",
			"session_token": "secret",
		},
	}, time.Time{}, nil)
	if notFound.Properties["error_type"] != "not_found" {
		t.Fatalf("expected not_found, got %+v", notFound.Properties)
	}
	if notFound.Properties["error_description"] != "Requested resource not found" {
		t.Fatalf("unexpected description %+v", notFound.Properties)
	}
	if notFound.Properties["session_token"] != RedactedValue {
		t.Fatalf("expected token to be redacted, got %+v", notFound.Properties)
	}
	if notFound.Properties["cardId"] != "card_1" {
		t.Fatalf("expected card id to survive redaction")
	}

	push := ClassifyNetworkError(NewNetworkPushProvisioningError(NetworkPushProvisioningOperationFailure, "wallet busy"))
	if push.AdditionalInfo["failure_type"] != "operation_failure wallet busy" {
		t.Fatalf("unexpected push classification %+v", push)
	}

	copyFailure := ClassifyNetworkError(NewNetworkCopyError(NetworkCopyDataNotViewed))
	if copyFailure.AdditionalInfo["failure_type"] != "pan_not_viewed" {
		t.Fatalf("unexpected copy classification %+v", copyFailure)
	}
}

func TestInitializedEventCarriesDesign(t *testing.T) {
	formatter := NewLogFormatter("0.1.2")
	design := NewDesignSystem(Font{Name: "Menlo", Weight: "bold", Size: 16.7}, Color{Red: 1, Green: 0, Blue: 0, Alpha: 0.5})
	event := formatter.Build(InitializedEvent{Design: design}, time.Time{}, nil)

	if event.Properties["version"] != "0.1.2" {
		t.Fatalf("expected version property, got %+v", event.Properties)
	}
	dictionary, ok := event.Properties["design"].(map[string]any)
	if !ok {
		t.Fatalf("expected design dictionary")
	}
	color := dictionary["panTextColor"].(map[string]any)
	if color["hex"] != "#FF000080" {
		t.Fatalf("expected translucent hex, got %v", color["hex"])
	}
	font := dictionary["pinFont"].(map[string]any)
	if font["size"] != 16 || font["weight"] != "bold" {
		t.Fatalf("unexpected font dictionary %+v", font)
	}
	if dictionary["panTextSeparator"] != " " {
		t.Fatalf("expected default separator")
	}
}

func TestColorHex(t *testing.T) {
	if got := RGB(0, 0.5, 1).Hex(); got != "#0080FF" {
		t.Fatalf("expected #0080FF, got %s", got)
	}
}
