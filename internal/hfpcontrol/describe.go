package hfpcontrol

import (
	"fmt"

	"github.com/icoainc/phonebt/internal/hfpevents"
)

// describeEvent renders an Event as a short human-readable sentence, used
// by InjectEvent to turn bus activity into agent-loop prompts.
func describeEvent(e hfpevents.Event) string {
	switch e.Kind {
	case hfpevents.Connected:
		return "The phone connected."
	case hfpevents.Disconnected:
		if e.HasText {
			return fmt.Sprintf("The phone disconnected: %s", e.Text)
		}
		return "The phone disconnected."
	case hfpevents.ConnectFailed:
		if e.HasText {
			return fmt.Sprintf("Failed to connect to the phone: %s", e.Text)
		}
		return "Failed to connect to the phone."
	case hfpevents.IncomingCall:
		if e.HasText {
			return fmt.Sprintf("Incoming call from %s.", e.Text)
		}
		return "Incoming call."
	case hfpevents.CallAnswered:
		return "The call was answered."
	case hfpevents.CallEnded:
		return "The call ended."
	case hfpevents.CallDialing:
		return fmt.Sprintf("Dialing %s.", e.Text)
	case hfpevents.CallAlerting:
		return "The remote party is ringing."
	case hfpevents.CallActive:
		return "The call is now active."
	case hfpevents.CallHeld:
		return "The call was put on hold."
	case hfpevents.CallWaiting:
		if e.HasText {
			return fmt.Sprintf("Call waiting from %s.", e.Text)
		}
		return "A call is waiting."
	case hfpevents.ScoConnected:
		return "Audio connected over the Bluetooth link."
	case hfpevents.ScoDisconnected:
		return "Audio disconnected from the Bluetooth link."
	case hfpevents.SignalStrength:
		return fmt.Sprintf("Signal strength changed to %d.", e.Int)
	case hfpevents.BatteryLevel:
		return fmt.Sprintf("Phone battery level changed to %d.", e.Int)
	case hfpevents.ServiceAvailable:
		if e.Bool {
			return "Cellular service is available."
		}
		return "Cellular service is unavailable."
	case hfpevents.Roaming:
		if e.Bool {
			return "The phone is roaming."
		}
		return "The phone is no longer roaming."
	case hfpevents.CallerID:
		if e.HasText2 {
			return fmt.Sprintf("Caller ID: %s (%s).", e.Text, e.Text2)
		}
		return fmt.Sprintf("Caller ID: %s.", e.Text)
	case hfpevents.OperatorName:
		return fmt.Sprintf("Network operator is %s.", e.Text)
	case hfpevents.CallerSpeech:
		return fmt.Sprintf("The caller said: %q", e.Text)
	case hfpevents.ErrorEvent:
		return fmt.Sprintf("An error occurred: %s", e.Text)
	default:
		return fmt.Sprintf("Event: %s", e.Kind)
	}
}
