package hfpstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/icoainc/phonebt/internal/hfpevents"
)

func checkInvariants(t assertT, s HFPState) {
	if s.Connection == ConnectionDisconnected {
		assert.Equal(t, CallIdle, s.Call)
		assert.Equal(t, AudioDisconnected, s.Audio)
		assert.Nil(t, s.ActiveCall)
	}
	if s.Call == CallIdle {
		assert.Nil(t, s.ActiveCall)
	} else if assert.NotNil(t, s.ActiveCall) {
		assert.Equal(t, s.Call, s.ActiveCall.Status)
	}
}

type assertT interface {
	Errorf(format string, args ...interface{})
}

// --- Scenario 1: outgoing call happy path ---

func TestScenarioOutgoingHappyPath(t *testing.T) {
	sm := NewStateMachine()

	sm.Apply(hfpevents.NewConnected())
	s := sm.Snapshot()
	assert.Equal(t, ConnectionConnected, s.Connection)
	assert.Equal(t, CallIdle, s.Call)
	checkInvariants(t, s)

	sm.Apply(hfpevents.NewCallDialing("+15551234567"))
	s = sm.Snapshot()
	assert.Equal(t, CallDialing, s.Call)
	assert.False(t, s.ActiveCall.HasStartTime)
	checkInvariants(t, s)

	sm.Apply(hfpevents.NewCallAlerting())
	s = sm.Snapshot()
	assert.Equal(t, CallAlerting, s.Call)
	checkInvariants(t, s)

	sm.Apply(hfpevents.NewCallActive())
	s = sm.Snapshot()
	assert.Equal(t, CallActive, s.Call)
	assert.True(t, s.ActiveCall.HasStartTime)
	checkInvariants(t, s)

	sm.Apply(hfpevents.NewCallEnded())
	s = sm.Snapshot()
	assert.Equal(t, CallIdle, s.Call)
	assert.Nil(t, s.ActiveCall)
	checkInvariants(t, s)
}

// --- Scenario 2: incoming accepted ---

func TestScenarioIncomingAccepted(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(hfpevents.NewConnected())
	sm.Apply(hfpevents.NewIncomingCall("+15559876543", true))

	s := sm.Snapshot()
	assert.Equal(t, CallIncoming, s.Call)
	assert.Equal(t, DirectionIncoming, s.ActiveCall.Direction)
	assert.Equal(t, "+15559876543", s.ActiveCall.Number)

	sm.Apply(hfpevents.NewCallAnswered())
	s = sm.Snapshot()
	assert.Equal(t, CallActive, s.Call)
	assert.True(t, s.ActiveCall.HasStartTime)

	sm.Apply(hfpevents.NewCallEnded())
	s = sm.Snapshot()
	assert.Equal(t, CallIdle, s.Call)
	assert.Nil(t, s.ActiveCall)
}

// --- Scenario 3: transport loss mid-call ---

func TestScenarioTransportLossMidCall(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(hfpevents.NewConnected())
	sm.Apply(hfpevents.NewCallActive())
	sm.Apply(hfpevents.NewScoConnected())
	sm.Apply(hfpevents.NewDisconnected("", false))

	s := sm.Snapshot()
	assert.Equal(t, ConnectionDisconnected, s.Connection)
	assert.Equal(t, CallIdle, s.Call)
	assert.Equal(t, AudioDisconnected, s.Audio)
	assert.Nil(t, s.ActiveCall)
}

// --- Scenario 4: hold then resume ---

func TestScenarioHoldThenResume(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(hfpevents.NewConnected())
	sm.Apply(hfpevents.NewCallActive())
	startedAt := sm.Snapshot().ActiveCall.StartTime

	sm.Apply(hfpevents.NewCallHeldIndicator(1))
	s := sm.Snapshot()
	assert.Equal(t, CallHeld, s.Call)

	sm.Apply(hfpevents.NewCallHeldIndicator(0))
	s = sm.Snapshot()
	assert.Equal(t, CallActive, s.Call)
	assert.Equal(t, startedAt, s.ActiveCall.StartTime)
}

// --- Scenario 5 (AT parsing) lives in internal/atparser. ---

// --- Boundary: callHeldIndicator(0) while not held is a preserved no-op.

func TestCallHeldIndicatorZeroNoopWhenNotHeld(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(hfpevents.NewConnected())
	sm.Apply(hfpevents.NewCallActive())
	sm.Apply(hfpevents.NewCallHeldIndicator(0))

	s := sm.Snapshot()
	assert.Equal(t, CallActive, s.Call)
}

func TestDisconnectedResetsEvenPhoneStatus(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(hfpevents.NewConnected())
	sm.Apply(hfpevents.NewSignalStrength(4))
	sm.Apply(hfpevents.NewDisconnected("", false))

	s := sm.Snapshot()
	assert.Equal(t, 0, s.PhoneStatus.SignalStrength)
}

func TestSnapshotIsACopyNotAliased(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(hfpevents.NewConnected())
	sm.Apply(hfpevents.NewCallDialing("+15551234567"))

	s1 := sm.Snapshot()
	s1.ActiveCall.Number = "mutated"

	s2 := sm.Snapshot()
	assert.Equal(t, "+15551234567", s2.ActiveCall.Number)
}

// --- Property-based invariant fuzzing ---
//
// Random plausible call-session traces must keep the spec §3/§8 invariants
// holding after every single event application, not just along the
// hand-written scenario paths above.
func TestInvariantsHoldForRandomCausalTraces(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sm := NewStateMachine()
		sm.Apply(hfpevents.NewConnected())
		checkInvariants(rt, sm.Snapshot())

		haveCall := false
		n := rapid.IntRange(0, 20).Draw(rt, "steps")
		for i := 0; i < n; i++ {
			if !haveCall {
				if rapid.Bool().Draw(rt, "incoming") {
					sm.Apply(hfpevents.NewIncomingCall("+15550000000", true))
				} else {
					sm.Apply(hfpevents.NewCallDialing("+15550000001"))
				}
				haveCall = true
			} else {
				switch rapid.IntRange(0, 5).Draw(rt, "action") {
				case 0:
					sm.Apply(hfpevents.NewCallAlerting())
				case 1:
					sm.Apply(hfpevents.NewCallActive())
				case 2:
					sm.Apply(hfpevents.NewCallHeldIndicator(1))
				case 3:
					sm.Apply(hfpevents.NewCallHeldIndicator(0))
				case 4:
					sm.Apply(hfpevents.NewCallerID("+15550000002", "", false))
				case 5:
					sm.Apply(hfpevents.NewCallEnded())
					haveCall = false
				}
			}
			checkInvariants(rt, sm.Snapshot())
		}

		if rapid.Bool().Draw(rt, "disconnect") {
			sm.Apply(hfpevents.NewDisconnected("", false))
			checkInvariants(rt, sm.Snapshot())
		}
	})
}

func TestStartTimeSetOnceNeverCleared(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sm := NewStateMachine()
		sm.Apply(hfpevents.NewConnected())
		sm.Apply(hfpevents.NewCallDialing("+15550000003"))

		n := rapid.IntRange(1, 10).Draw(rt, "activations")
		var first bool
		var firstStamp = sm.Snapshot().ActiveCall.StartTime
		for i := 0; i < n; i++ {
			sm.Apply(hfpevents.NewCallActive())
			s := sm.Snapshot()
			if !assert.True(rt, s.ActiveCall.HasStartTime) {
				continue
			}
			if !first {
				firstStamp = s.ActiveCall.StartTime
				first = true
			}
			assert.Equal(rt, firstStamp, s.ActiveCall.StartTime)
		}
	})
}
