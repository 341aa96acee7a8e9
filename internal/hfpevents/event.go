// Package hfpevents defines the HFP protocol event tagged union and the
// multi-subscriber event bus that fans events out from the Protocol Engine
// to the State Machine and any external subscribers.
package hfpevents

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the tagged union of protocol events.
type Kind int

const (
	Connected Kind = iota
	Disconnected
	ConnectFailed
	IncomingCall
	CallAnswered
	CallEnded
	CallDialing
	CallAlerting
	CallActive
	CallHeld
	CallWaiting
	ScoConnected
	ScoDisconnected
	SignalStrength
	BatteryLevel
	ServiceAvailable
	Roaming
	CallSetup
	CallIndicator
	CallHeldIndicator
	CallerID
	OperatorName
	CallerSpeech
	ErrorEvent
)

func (k Kind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case ConnectFailed:
		return "connectFailed"
	case IncomingCall:
		return "incomingCall"
	case CallAnswered:
		return "callAnswered"
	case CallEnded:
		return "callEnded"
	case CallDialing:
		return "callDialing"
	case CallAlerting:
		return "callAlerting"
	case CallActive:
		return "callActive"
	case CallHeld:
		return "callHeld"
	case CallWaiting:
		return "callWaiting"
	case ScoConnected:
		return "scoConnected"
	case ScoDisconnected:
		return "scoDisconnected"
	case SignalStrength:
		return "signalStrength"
	case BatteryLevel:
		return "batteryLevel"
	case ServiceAvailable:
		return "serviceAvailable"
	case Roaming:
		return "roaming"
	case CallSetup:
		return "callSetup"
	case CallIndicator:
		return "callIndicator"
	case CallHeldIndicator:
		return "callHeldIndicator"
	case CallerID:
		return "callerID"
	case OperatorName:
		return "operatorName"
	case CallerSpeech:
		return "callerSpeech"
	case ErrorEvent:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the single struct implementing the spec's tagged union. Only the
// fields relevant to Kind are populated; the rest are zero values. This bus
// is in-process only (never marshalled to an external wire), so one struct
// with a discriminant is preferable to a family of per-kind types.
type Event struct {
	ID   string
	At   time.Time
	Kind Kind

	// String/optional-string payloads (number, operator name, error text).
	Text    string
	HasText bool

	// Secondary optional string, used by CallerID for the caller's name.
	Text2    string
	HasText2 bool

	// Integer payload (signal strength, battery level, callSetup/hold codes).
	Int int

	// Boolean payload (serviceAvailable, roaming, callIndicator).
	Bool bool
}

func newEvent(kind Kind) Event {
	return Event{
		ID:   uuid.New().String(),
		At:   time.Now(),
		Kind: kind,
	}
}

// Constructors, one per tagged-union variant named in spec.md §4.2.

func NewConnected() Event { return newEvent(Connected) }

func NewDisconnected(reason string, hasReason bool) Event {
	e := newEvent(Disconnected)
	e.Text, e.HasText = reason, hasReason
	return e
}

func NewConnectFailed(reason string, hasReason bool) Event {
	e := newEvent(ConnectFailed)
	e.Text, e.HasText = reason, hasReason
	return e
}

func NewIncomingCall(number string, hasNumber bool) Event {
	e := newEvent(IncomingCall)
	e.Text, e.HasText = number, hasNumber
	return e
}

func NewCallAnswered() Event { return newEvent(CallAnswered) }
func NewCallEnded() Event    { return newEvent(CallEnded) }

func NewCallDialing(number string) Event {
	e := newEvent(CallDialing)
	e.Text, e.HasText = number, true
	return e
}

func NewCallAlerting() Event { return newEvent(CallAlerting) }
func NewCallActive() Event   { return newEvent(CallActive) }
func NewCallHeld() Event     { return newEvent(CallHeld) }

func NewCallWaiting(number string, hasNumber bool) Event {
	e := newEvent(CallWaiting)
	e.Text, e.HasText = number, hasNumber
	return e
}

func NewScoConnected() Event    { return newEvent(ScoConnected) }
func NewScoDisconnected() Event { return newEvent(ScoDisconnected) }

func NewSignalStrength(v int) Event {
	e := newEvent(SignalStrength)
	e.Int = v
	return e
}

func NewBatteryLevel(v int) Event {
	e := newEvent(BatteryLevel)
	e.Int = v
	return e
}

func NewServiceAvailable(v bool) Event {
	e := newEvent(ServiceAvailable)
	e.Bool = v
	return e
}

func NewRoaming(v bool) Event {
	e := newEvent(Roaming)
	e.Bool = v
	return e
}

func NewCallSetup(v int) Event {
	e := newEvent(CallSetup)
	e.Int = v
	return e
}

func NewCallIndicator(v bool) Event {
	e := newEvent(CallIndicator)
	e.Bool = v
	return e
}

func NewCallHeldIndicator(v int) Event {
	e := newEvent(CallHeldIndicator)
	e.Int = v
	return e
}

func NewCallerID(number, name string, hasName bool) Event {
	e := newEvent(CallerID)
	e.Text, e.HasText = number, true
	e.Text2, e.HasText2 = name, hasName
	return e
}

func NewOperatorName(name string) Event {
	e := newEvent(OperatorName)
	e.Text, e.HasText = name, true
	return e
}

func NewCallerSpeech(text string) Event {
	e := newEvent(CallerSpeech)
	e.Text, e.HasText = text, true
	return e
}

func NewError(message string) Event {
	e := newEvent(ErrorEvent)
	e.Text, e.HasText = message, true
	return e
}
