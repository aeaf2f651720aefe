package core

import "strings"

type CardState string

const (
	CardStateInactive  CardState = "inactive"
	CardStateActive    CardState = "active"
	CardStateSuspended CardState = "suspended"
	CardStateRevoked   CardState = "revoked"
)

func (s CardState) Valid() bool {
	switch s {
	case CardStateInactive, CardStateActive, CardStateSuspended, CardStateRevoked:
		return true
	default:
		return false
	}
}

// ParseCardState normalizes a raw state name.
func ParseCardState(raw string) (CardState, bool) {
	state := CardState(strings.ToLower(strings.TrimSpace(raw)))
	return state, state.Valid()
}

// PossibleStateChanges returns the states reachable from the given state.
// Revoked is terminal.
func PossibleStateChanges(from CardState) []CardState {
	switch from {
	case CardStateInactive, CardStateSuspended:
		return []CardState{CardStateActive, CardStateRevoked}
	case CardStateActive:
		return []CardState{CardStateSuspended, CardStateRevoked}
	default:
		return nil
	}
}

func CanTransition(from CardState, to CardState) bool {
	for _, candidate := range PossibleStateChanges(from) {
		if candidate == to {
			return true
		}
	}
	return false
}

// CardSuspendReason is optional; the empty value means no reason was given.
type CardSuspendReason string

const (
	CardSuspendReasonLost   CardSuspendReason = "lost"
	CardSuspendReasonStolen CardSuspendReason = "stolen"
)

// CardRevokeReason is optional; the empty value means no reason was given.
type CardRevokeReason string

const (
	CardRevokeReasonLost   CardRevokeReason = "lost"
	CardRevokeReasonStolen CardRevokeReason = "stolen"
)

type DigitizationState string

const (
	DigitizationStateDigitized        DigitizationState = "digitized"
	DigitizationStateNotDigitized     DigitizationState = "notDigitized"
	DigitizationStatePendingIDVLocal  DigitizationState = "pendingIDVLocal"
	DigitizationStatePendingIDVRemote DigitizationState = "pendingIDVRemote"
)

// DigitizationData describes whether a card is provisioned in the device wallet.
// LocalPass and RemotePass are opaque wallet pass handles.
type DigitizationData struct {
	State      DigitizationState
	LocalPass  any
	RemotePass any
}

func digitizationDataFromNetwork(data NetworkDigitizationData) DigitizationData {
	return DigitizationData{
		State:      data.State,
		LocalPass:  data.LocalPass,
		RemotePass: data.RemotePass,
	}
}
