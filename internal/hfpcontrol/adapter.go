// Package hfpcontrol implements the Controller Adapter: a thin tool-dispatch
// layer validating inputs, applying policy (proactive audio transfer on
// dial/accept), invoking Protocol Engine operations, and returning
// canonical-JSON structured results to an external controller (a CLI
// operator or an AI agent tool-dispatcher).
package hfpcontrol

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/icoainc/phonebt/internal/audiorouter"
	"github.com/icoainc/phonebt/internal/hfp"
	"github.com/icoainc/phonebt/internal/hfperr"
	"github.com/icoainc/phonebt/internal/hfpevents"
	"github.com/icoainc/phonebt/internal/hfpstate"
	"github.com/icoainc/phonebt/internal/voicepipeline"
)

// Adapter is the CommandController's implementation: exactly the seven
// tools from spec.md §4.5 plus the InjectEvent helper from spec.md §6.
type Adapter struct {
	engine  *hfp.Engine
	router  audiorouter.Router
	pipeline voicepipeline.Pipeline
}

// New constructs an Adapter. router and pipeline may be nil; a nil router
// is treated as audiorouter.NoopRouter, a nil pipeline is treated as "no
// VoicePipeline attached" (say_to_caller returns a ToolError).
func New(engine *hfp.Engine, router audiorouter.Router, pipeline voicepipeline.Pipeline) *Adapter {
	if router == nil {
		router = audiorouter.NoopRouter{}
	}
	return &Adapter{engine: engine, router: router, pipeline: pipeline}
}

// sanitizeNumber retains only [0-9+*#], per spec.md §4.4.
var sanitizeRe = regexp.MustCompile(`[^0-9+*#]`)

func sanitizeNumber(raw string) string {
	return sanitizeRe.ReplaceAllString(raw, "")
}

// Execute dispatches tool by name with named string inputs and returns
// canonical JSON: UTF-8, object, keys lexicographically sorted, no
// insignificant whitespace. encoding/json already sorts map[string]any keys
// when marshaling, so building the result as a plain map gives canonical
// output with no extra logic.
func (a *Adapter) Execute(ctx context.Context, tool string, inputs map[string]string) []byte {
	switch tool {
	case "dial_number":
		return a.dialNumber(inputs)
	case "accept_call":
		return a.acceptCall()
	case "end_call":
		return a.endCall()
	case "send_dtmf":
		return a.sendDTMF(inputs)
	case "get_call_status":
		return a.getCallStatus()
	case "get_phone_status":
		return a.getPhoneStatus()
	case "say_to_caller":
		return a.sayToCaller(ctx, inputs)
	default:
		return errorResult("Unknown tool: " + tool)
	}
}

func (a *Adapter) dialNumber(inputs map[string]string) []byte {
	number, ok := inputs["number"]
	if !ok {
		return errorResult("Missing required parameter: number")
	}
	clean := sanitizeNumber(number)
	if err := a.engine.Dial(clean); err != nil {
		return errorResult(err.Error())
	}
	// Best-effort; failures are swallowed per spec.md §9's open question.
	_ = a.engine.TransferAudioToComputer()
	return successResult(map[string]any{
		"status": "dialing",
		"number": clean,
	})
}

func (a *Adapter) acceptCall() []byte {
	if err := a.engine.AcceptCall(); err != nil {
		return errorResult(err.Error())
	}
	_ = a.engine.TransferAudioToComputer()
	a.router.RouteToBluetoothDevice()
	return successResult(map[string]any{"status": "answered"})
}

func (a *Adapter) endCall() []byte {
	if err := a.engine.EndCall(); err != nil {
		return errorResult(err.Error())
	}
	a.router.RestorePreviousRouting()
	return successResult(map[string]any{"status": "ended"})
}

func (a *Adapter) sendDTMF(inputs map[string]string) []byte {
	digit, ok := inputs["digit"]
	if !ok {
		return errorResult("Missing required parameter: digit")
	}
	if err := a.engine.SendDTMF(digit); err != nil {
		return errorResult(err.Error())
	}
	return successResult(map[string]any{
		"status": "sent",
		"digit":  digit,
	})
}

func (a *Adapter) getCallStatus() []byte {
	s := a.engine.Snapshot()
	fields := map[string]any{
		"call_state":     s.Call.String(),
		"audio_connected": s.Audio == hfpstate.AudioConnected,
	}
	if s.ActiveCall != nil {
		fields["direction"] = directionString(s.ActiveCall.Direction)
		if s.ActiveCall.HasNumber {
			fields["number"] = s.ActiveCall.Number
		}
		if s.ActiveCall.HasStartTime {
			fields["duration"] = time.Since(s.ActiveCall.StartTime).Seconds()
		}
	}
	return successResult(fields)
}

func (a *Adapter) getPhoneStatus() []byte {
	s := a.engine.Snapshot()
	fields := map[string]any{
		"signal_strength":   s.PhoneStatus.SignalStrength,
		"battery_level":     s.PhoneStatus.BatteryLevel,
		"service_available": s.PhoneStatus.ServiceAvailable,
		"roaming":           s.PhoneStatus.Roaming,
	}
	if s.PhoneStatus.HasOperatorName {
		fields["operator_name"] = s.PhoneStatus.OperatorName
	}
	return successResult(fields)
}

func (a *Adapter) sayToCaller(ctx context.Context, inputs map[string]string) []byte {
	text, ok := inputs["text"]
	if !ok {
		return errorResult("Missing required parameter: text")
	}
	if a.pipeline == nil || a.pipeline == voicepipeline.None {
		return errorResult(hfperr.ToolFailed("no voice pipeline attached").Error())
	}

	// Enqueue asynchronously; return immediately without waiting for
	// playback, per spec.md §4.5.
	go func() {
		<-a.pipeline.Speak(ctx, text)
	}()

	return successResult(map[string]any{
		"status": "speaking",
		"text":   text,
	})
}

// InjectEvent renders a bus Event into a human-readable description, the
// event-injection entry point from spec.md §6 used by upstream controllers
// to turn HFP events into text prompts. It is not one of the seven tools.
func (a *Adapter) InjectEvent(e hfpevents.Event) string {
	return describeEvent(e)
}

func directionString(d hfpstate.CallDirection) string {
	if d == hfpstate.DirectionIncoming {
		return "incoming"
	}
	return "outgoing"
}

func successResult(fields map[string]any) []byte {
	fields["success"] = true
	return marshal(fields)
}

func errorResult(message string) []byte {
	return marshal(map[string]any{
		"success": false,
		"error":   message,
	})
}

func marshal(v map[string]any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Marshaling a map[string]any of strings/bools/numbers cannot fail;
		// this only guards against a future field type mistake.
		return []byte(`{"error":"internal serialization error","success":false}`)
	}
	return data
}

