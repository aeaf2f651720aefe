package core

// LogEvent is the closed set of analytics occurrences. Events carry card ids
// and states only, never sensitive field values.
type LogEvent interface {
	logEvent()
}

type InitializedEvent struct {
	Design DesignSystem
}

type CardListEvent struct {
	CardIDs []string
}

type CardDetailsEvent struct {
	CardID string
}

type GetPinEvent struct {
	CardID    string
	CardState CardState
}

type GetPanEvent struct {
	CardID    string
	CardState CardState
}

type GetCVVEvent struct {
	CardID    string
	CardState CardState
}

type GetPanCVVEvent struct {
	CardID    string
	CardState CardState
}

type CopyPanEvent struct {
	CardID    string
	CardState CardState
}

// StateManagementEvent records a confirmed transition. Reason may be empty.
type StateManagementEvent struct {
	CardID string
	From   CardState
	To     CardState
	Reason string
}

type ConfigurePushProvisioningEvent struct {
	CardholderID string
}

type GetCardDigitizationStateEvent struct {
	CardID            string
	DigitizationState DigitizationState
}

type PushProvisioningEvent struct {
	CardID string
}

// FailureEvent classifies Err through NetworkError when one is attached.
type FailureEvent struct {
	Source         string
	Err            error
	NetworkError   *NetworkError
	AdditionalInfo map[string]any
}

func (InitializedEvent) logEvent()               {}
func (CardListEvent) logEvent()                  {}
func (CardDetailsEvent) logEvent()               {}
func (GetPinEvent) logEvent()                    {}
func (GetPanEvent) logEvent()                    {}
func (GetCVVEvent) logEvent()                    {}
func (GetPanCVVEvent) logEvent()                 {}
func (CopyPanEvent) logEvent()                   {}
func (StateManagementEvent) logEvent()           {}
func (ConfigurePushProvisioningEvent) logEvent() {}
func (GetCardDigitizationStateEvent) logEvent()  {}
func (PushProvisioningEvent) logEvent()          {}
func (FailureEvent) logEvent()                   {}
