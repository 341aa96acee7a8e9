package hfpcontrol

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/icoainc/phonebt/internal/bttransport"
	"github.com/icoainc/phonebt/internal/hfp"
)

func newTestAdapter(t *testing.T) (*Adapter, *bttransport.SimTransport, *hfp.Engine) {
	t.Helper()
	transport := bttransport.NewSimTransport()
	engine := hfp.New(transport, 16)
	t.Cleanup(engine.Shutdown)
	adapter := New(engine, nil, nil)
	return adapter, transport, engine
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	assert.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestDialNumberMissingParameter(t *testing.T) {
	adapter, _, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))

	raw := adapter.Execute(context.Background(), "dial_number", map[string]string{})
	assert.JSONEq(t, `{"error":"Missing required parameter: number","success":false}`, string(raw))
}

func TestDialNumberSanitizesAndSucceeds(t *testing.T) {
	adapter, transport, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))

	raw := adapter.Execute(context.Background(), "dial_number", map[string]string{"number": "+1 (555) 123-4567"})
	m := decode(t, raw)
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "+15551234567", m["number"])
	assert.Equal(t, "dialing", m["status"])
	assert.Equal(t, []string{"+15551234567"}, transport.Dialed)
	assert.Equal(t, 1, transport.Transfers)
}

func TestSendDTMFSuccess(t *testing.T) {
	adapter, _, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))

	raw := adapter.Execute(context.Background(), "send_dtmf", map[string]string{"digit": "5"})
	assert.JSONEq(t, `{"digit":"5","status":"sent","success":true}`, string(raw))
}

func TestSendDTMFMissingParameter(t *testing.T) {
	adapter, _, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))

	raw := adapter.Execute(context.Background(), "send_dtmf", map[string]string{})
	assert.JSONEq(t, `{"error":"Missing required parameter: digit","success":false}`, string(raw))
}

func TestUnknownTool(t *testing.T) {
	adapter, _, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))

	raw := adapter.Execute(context.Background(), "reboot_phone", nil)
	assert.JSONEq(t, `{"error":"Unknown tool: reboot_phone","success":false}`, string(raw))
}

func TestDialNumberNotConnected(t *testing.T) {
	adapter, _, _ := newTestAdapter(t)

	raw := adapter.Execute(context.Background(), "dial_number", map[string]string{"number": "5551234567"})
	m := decode(t, raw)
	assert.Equal(t, false, m["success"])
	assert.Contains(t, m["error"], "not connected")
}

func TestGetCallStatusReflectsActiveCall(t *testing.T) {
	adapter, transport, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))

	assert.NoError(t, engine.Dial("5551234567"))
	transport.FireCallActive(true)

	assert.Eventually(t, func() bool {
		return engine.Snapshot().Call.String() == "active"
	}, time.Second, time.Millisecond)

	raw := adapter.Execute(context.Background(), "get_call_status", nil)
	m := decode(t, raw)
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "active", m["call_state"])
	assert.Equal(t, "outgoing", m["direction"])
	assert.Equal(t, "5551234567", m["number"])
}

func TestGetPhoneStatusReportsIndicators(t *testing.T) {
	adapter, transport, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))

	transport.FireSignalStrength(4)
	transport.FireBatteryCharge(80)
	transport.FireServiceAvailable(true)
	transport.FireRoaming(false)

	assert.Eventually(t, func() bool {
		s := engine.Snapshot()
		return s.PhoneStatus.SignalStrength == 4 && s.PhoneStatus.BatteryLevel == 80
	}, time.Second, time.Millisecond)

	raw := adapter.Execute(context.Background(), "get_phone_status", nil)
	m := decode(t, raw)
	assert.Equal(t, true, m["success"])
	assert.EqualValues(t, 4, m["signal_strength"])
	assert.EqualValues(t, 80, m["battery_level"])
	assert.Equal(t, true, m["service_available"])
	assert.Equal(t, false, m["roaming"])
}

func TestSayToCallerWithoutPipelineIsToolError(t *testing.T) {
	adapter, _, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))

	raw := adapter.Execute(context.Background(), "say_to_caller", map[string]string{"text": "hi"})
	m := decode(t, raw)
	assert.Equal(t, false, m["success"])
	assert.Contains(t, m["error"], "tool error")
}

func TestAcceptCallRoutesAudio(t *testing.T) {
	adapter, transport, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))
	transport.FireIncomingCallFrom("5551234567", true)

	raw := adapter.Execute(context.Background(), "accept_call", nil)
	assert.JSONEq(t, `{"status":"answered","success":true}`, string(raw))
	assert.Equal(t, 1, transport.Accepted)
	assert.Equal(t, 1, transport.Transfers)
}

func TestInjectEventDescribesIncomingCall(t *testing.T) {
	adapter, transport, engine := newTestAdapter(t)
	assert.NoError(t, engine.Connect(context.Background(), 0))
	sub := engine.Bus().Subscribe()
	defer sub.Unsubscribe()

	transport.FireIncomingCallFrom("5551234567", true)
	ev := <-sub.Events()
	for ev.Kind.String() != "callerID" {
		ev = <-sub.Events()
	}

	desc := adapter.InjectEvent(ev)
	assert.Contains(t, desc, "5551234567")
}
