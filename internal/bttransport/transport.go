// Package bttransport defines the BluetoothTransport collaborator: the
// platform-specific HFP link driver the Protocol Engine drives. Real
// Bluetooth radio I/O and pairing are out of scope for this repo (see
// spec.md §1); this package only defines the capability surface and a
// SimTransport reference implementation used by tests and the CLI's
// default, no-hardware-required mode.
//
// Method contracts follow the same style as a BlueZ RFCOMM connection
// manager interface: single-owner handoff and explicit state/usage
// constraints per method.
package bttransport

import "context"

// Callbacks is the set of asynchronous notifications a Transport delivers
// to the Protocol Engine. Implementations call these from their own
// goroutine(s); the engine translates each into events per spec.md §4.4's
// transport-callback translation table. Callback methods must do minimal
// work and must never block on the engine.
type Callbacks interface {
	OnConnected(ok bool, err error)
	OnDisconnected()
	OnCallSetupMode(mode int)
	OnCallActive(active bool)
	OnCallHoldState(mode int)
	OnSignalStrength(level int)
	OnBatteryCharge(level int)
	OnServiceAvailable(available bool)
	OnRoaming(roaming bool)
	OnIncomingCallFrom(number string, hasNumber bool)
	OnSCOConnectionOpened()
	OnSCOConnectionClosed()
	// OnATResponseLine surfaces a raw AT response line from the AG (e.g. a
	// +CLCC/+COPS line returned for requestCallList/requestOperator) for the
	// Protocol Engine to run through internal/atparser.
	OnATResponseLine(line string)
}

// Transport is the capability set required from the platform HFP library,
// per spec.md §6.
//
// Thread-safety: Connect/Disconnect/DialNumber/AcceptCall/EndCall/SendDTMF/
// ConnectSCO/DisconnectSCO/TransferAudioToComputer/Send are not required to
// be safe for concurrent use with each other — the Protocol Engine is the
// sole owner and serialises its own calls. Callback delivery happens on the
// transport's own goroutine(s) and may run concurrently with any of the
// above.
type Transport interface {
	// SetCallbacks registers the callback sink. Must be called exactly once,
	// before Connect.
	SetCallbacks(cb Callbacks)

	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	DialNumber(number string) error
	AcceptCall() error
	EndCall() error
	SendDTMF(digit string) error

	ConnectSCO() error
	DisconnectSCO() error
	TransferAudioToComputer() error

	// Send issues a raw AT command verbatim.
	Send(atCommand string) error
}
