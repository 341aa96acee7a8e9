// Package hfpstate holds the single authoritative projection of connection,
// call, audio, and phone-indicator state, driven exclusively by events from
// internal/hfpevents. It is the engine's single mutator: one exclusive
// writer (StateMachine.Apply), many concurrent snapshot readers.
package hfpstate

import (
	"sync"
	"time"

	"github.com/icoainc/phonebt/internal/hfpevents"
)

// ConnectionState is the SLC lifecycle state.
type ConnectionState int

const (
	ConnectionDisconnected ConnectionState = iota
	ConnectionConnecting
	ConnectionConnected
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionConnecting:
		return "connecting"
	case ConnectionConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// AudioState is the SCO link state, independent of ConnectionState except
// that Connected audio implies a connected SLC.
type AudioState int

const (
	AudioDisconnected AudioState = iota
	AudioConnected
)

func (s AudioState) String() string {
	if s == AudioConnected {
		return "connected"
	}
	return "disconnected"
}

// CallStatus is the call lifecycle status, mirrored 1:1 by ActiveCall.Status
// whenever a call exists.
type CallStatus int

const (
	CallIdle CallStatus = iota
	CallDialing
	CallAlerting
	CallIncoming
	CallActive
	CallHeld
	CallWaiting
	CallEnded
)

func (s CallStatus) String() string {
	switch s {
	case CallDialing:
		return "dialing"
	case CallAlerting:
		return "alerting"
	case CallIncoming:
		return "incoming"
	case CallActive:
		return "active"
	case CallHeld:
		return "held"
	case CallWaiting:
		return "waiting"
	case CallEnded:
		return "ended"
	default:
		return "idle"
	}
}

// CallDirection is the call's originating side.
type CallDirection int

const (
	DirectionOutgoing CallDirection = iota
	DirectionIncoming
)

// CallInfo is one call, keyed by the AG's small 1-based CLCC index.
type CallInfo struct {
	Index     int
	Direction CallDirection
	Status    CallStatus
	Number    string
	HasNumber bool

	StartTime    time.Time
	HasStartTime bool
}

func (c *CallInfo) clone() *CallInfo {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// PhoneStatus replicates the AG's +CIEV-style indicators.
type PhoneStatus struct {
	SignalStrength   int
	BatteryLevel     int
	ServiceAvailable bool
	OperatorName     string
	HasOperatorName  bool
	Roaming          bool
}

// HFPState is the single aggregate protected by the StateMachine's lock.
type HFPState struct {
	Connection  ConnectionState
	Call        CallStatus
	Audio       AudioState
	PhoneStatus PhoneStatus
	ActiveCall  *CallInfo
}

func (s HFPState) clone() HFPState {
	s.ActiveCall = s.ActiveCall.clone()
	return s
}

// StateMachine is the single mutator for HFPState. Apply must be called
// with one event at a time; it is safe for concurrent callers, but a
// single dedicated drain task is expected to apply events in bus delivery
// order (see internal/hfp). The lock here is a leaf lock: never held
// across a suspension point or an external call.
type StateMachine struct {
	mu    sync.RWMutex
	state HFPState
}

// NewStateMachine returns a StateMachine at the zero state.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// Snapshot returns an immutable, by-value copy of the current state.
func (sm *StateMachine) Snapshot() HFPState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state.clone()
}

// Reset restores the zero state. The engine does not call it.
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.state = HFPState{}
}

// Apply mutates state according to the transition table in spec §4.3.
// Events not named in the table leave state unchanged.
func (sm *StateMachine) Apply(e hfpevents.Event) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch e.Kind {
	case hfpevents.Connected:
		sm.state.Connection = ConnectionConnected

	case hfpevents.Disconnected, hfpevents.ConnectFailed:
		sm.state = HFPState{}

	case hfpevents.IncomingCall:
		sm.state.Call = CallIncoming
		if sm.state.ActiveCall == nil {
			sm.state.ActiveCall = &CallInfo{
				Index:     1,
				Direction: DirectionIncoming,
				Status:    CallIncoming,
			}
			if e.HasText {
				sm.state.ActiveCall.Number = e.Text
				sm.state.ActiveCall.HasNumber = true
			}
		} else {
			sm.state.ActiveCall.Status = CallIncoming
			if e.HasText && !sm.state.ActiveCall.HasNumber {
				sm.state.ActiveCall.Number = e.Text
				sm.state.ActiveCall.HasNumber = true
			}
		}

	case hfpevents.CallDialing:
		sm.state.Call = CallDialing
		sm.state.ActiveCall = &CallInfo{
			Index:     1,
			Direction: DirectionOutgoing,
			Status:    CallDialing,
			Number:    e.Text,
			HasNumber: true,
		}

	case hfpevents.CallAlerting:
		sm.state.Call = CallAlerting
		if sm.state.ActiveCall != nil {
			sm.state.ActiveCall.Status = CallAlerting
		}

	case hfpevents.CallActive, hfpevents.CallAnswered:
		sm.state.Call = CallActive
		sm.enterActive()

	case hfpevents.CallHeld:
		sm.state.Call = CallHeld
		if sm.state.ActiveCall != nil {
			sm.state.ActiveCall.Status = CallHeld
		}

	case hfpevents.CallEnded:
		sm.state.Call = CallIdle
		sm.state.ActiveCall = nil

	case hfpevents.CallSetup:
		switch e.Int {
		case 1:
			sm.state.Call = CallIncoming
			if sm.state.ActiveCall == nil {
				sm.state.ActiveCall = &CallInfo{Index: 1, Direction: DirectionIncoming, Status: CallIncoming}
			} else {
				sm.state.ActiveCall.Status = CallIncoming
			}
		case 2:
			sm.state.Call = CallDialing
			if sm.state.ActiveCall == nil {
				sm.state.ActiveCall = &CallInfo{Index: 1, Direction: DirectionOutgoing, Status: CallDialing}
			} else {
				sm.state.ActiveCall.Status = CallDialing
			}
		case 3:
			sm.state.Call = CallAlerting
			if sm.state.ActiveCall == nil {
				sm.state.ActiveCall = &CallInfo{Index: 1, Direction: DirectionOutgoing, Status: CallAlerting}
			} else {
				sm.state.ActiveCall.Status = CallAlerting
			}
		case 0:
			// Resolution comes via callIndicator; no-op here.
		}

	case hfpevents.CallIndicator:
		if e.Bool {
			if sm.state.Call != CallActive {
				sm.state.Call = CallActive
				sm.enterActive()
			}
		} else {
			sm.state.Call = CallIdle
			sm.state.ActiveCall = nil
		}

	case hfpevents.CallHeldIndicator:
		switch {
		case e.Int == 0:
			if sm.state.Call == CallHeld {
				sm.state.Call = CallActive
				if sm.state.ActiveCall != nil {
					sm.state.ActiveCall.Status = CallActive
				}
			}
			// Per spec §9 open question: arriving while call != held is a
			// preserved no-op.
		case e.Int == 1 || e.Int == 2:
			sm.state.Call = CallHeld
			if sm.state.ActiveCall != nil {
				sm.state.ActiveCall.Status = CallHeld
			}
		}

	case hfpevents.ScoConnected:
		sm.state.Audio = AudioConnected

	case hfpevents.ScoDisconnected:
		sm.state.Audio = AudioDisconnected

	case hfpevents.SignalStrength:
		sm.state.PhoneStatus.SignalStrength = e.Int

	case hfpevents.BatteryLevel:
		sm.state.PhoneStatus.BatteryLevel = e.Int

	case hfpevents.ServiceAvailable:
		sm.state.PhoneStatus.ServiceAvailable = e.Bool

	case hfpevents.Roaming:
		sm.state.PhoneStatus.Roaming = e.Bool

	case hfpevents.OperatorName:
		sm.state.PhoneStatus.OperatorName = e.Text
		sm.state.PhoneStatus.HasOperatorName = true

	case hfpevents.CallerID:
		if sm.state.ActiveCall != nil {
			sm.state.ActiveCall.Number = e.Text
			sm.state.ActiveCall.HasNumber = true
		}

	default:
		// error(_), callerSpeech(_), and anything else: no state change.
	}
}

// enterActive sets ActiveCall.Status to active and stamps StartTime exactly
// once, the first time any call object enters the active status.
func (sm *StateMachine) enterActive() {
	if sm.state.ActiveCall == nil {
		sm.state.ActiveCall = &CallInfo{Index: 1, Direction: DirectionOutgoing}
	}
	sm.state.ActiveCall.Status = CallActive
	if !sm.state.ActiveCall.HasStartTime {
		sm.state.ActiveCall.StartTime = time.Now()
		sm.state.ActiveCall.HasStartTime = true
	}
}
