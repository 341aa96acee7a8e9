// Package hfp implements the Protocol Engine: it owns exactly one HFP
// session — one transport handle, one StateMachine, one Bus — accepts
// control requests from the Controller Adapter, issues AT commands through
// the transport, receives transport callbacks, emits events, and runs
// timeouts.
package hfp

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/icoainc/phonebt/internal/atparser"
	"github.com/icoainc/phonebt/internal/bttransport"
	"github.com/icoainc/phonebt/internal/hfperr"
	"github.com/icoainc/phonebt/internal/hfpevents"
	"github.com/icoainc/phonebt/internal/hfpstate"
)

// DefaultConnectTimeout is used by Connect when the caller passes a
// non-positive timeout.
const DefaultConnectTimeout = 15 * time.Second

// Engine owns exactly one HFP session. The transport handle and the
// StateMachine are both exclusively owned here; callers outside this
// package only ever read state through Snapshot or subscribe to the bus.
type Engine struct {
	transport bttransport.Transport
	bus       *hfpevents.Bus
	state     *hfpstate.StateMachine

	// sessionID changes on every successful Connect and is written to the
	// debug log; it is a pure log-correlation aid and plays no role in any
	// invariant.
	mu        sync.Mutex
	sessionID string

	drainCancel context.CancelFunc
	drainDone   chan struct{}
}

// New constructs an Engine around the given transport. bufferSize sets the
// Bus's per-subscriber queue depth (see hfpevents.NewBus); 0 uses the
// default.
func New(transport bttransport.Transport, bufferSize int) *Engine {
	e := &Engine{
		transport: transport,
		bus:       hfpevents.NewBus(bufferSize),
		state:     hfpstate.NewStateMachine(),
	}
	transport.SetCallbacks((*delegate)(e))
	e.startDrain()
	return e
}

// Bus returns the event bus external subscribers (and the State Machine's
// own drain task) read from.
func (e *Engine) Bus() *hfpevents.Bus {
	return e.bus
}

// Snapshot returns the current authoritative state.
func (e *Engine) Snapshot() hfpstate.HFPState {
	return e.state.Snapshot()
}

// startDrain launches the single dedicated task that applies bus events to
// the State Machine in delivery order, per spec.md §5.
func (e *Engine) startDrain() {
	ctx, cancel := context.WithCancel(context.Background())
	e.drainCancel = cancel
	e.drainDone = make(chan struct{})

	sub := e.bus.Subscribe()
	go func() {
		defer close(e.drainDone)
		defer sub.Unsubscribe()
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				e.state.Apply(ev)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown cancels the bus-draining task and disconnects the transport.
// Unreceived events are dropped, per spec.md §5.
func (e *Engine) Shutdown() {
	e.drainCancel()
	<-e.drainDone
	_ = e.transport.Disconnect()
}

// Connect initiates SLC setup and waits for the first of {connected,
// disconnected(e), connectFailed(e), timeout}. The subscription is created
// before the transport connect call begins, so no event can be missed (see
// spec.md §9's resolved open question).
func (e *Engine) Connect(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	sub := e.bus.Subscribe()
	defer sub.Unsubscribe()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := e.transport.Connect(waitCtx); err != nil {
		e.bus.Emit(hfpevents.NewConnectFailed(err.Error(), true))
		return hfperr.ConnectionFailed(err.Error())
	}

	for {
		select {
		case ev := <-sub.Events():
			switch ev.Kind {
			case hfpevents.Connected:
				id := uuid.New().String()
				e.mu.Lock()
				e.sessionID = id
				e.mu.Unlock()
				slog.Debug("service-level connection established", "session", id)
				// Apply directly so Connection=Connected is guaranteed
				// visible before this call returns, rather than racing the
				// drain task's delivery of the same event (Apply is
				// idempotent and lock-protected, so double application by
				// both this call and the drain task is harmless).
				e.state.Apply(ev)
				return nil
			case hfpevents.Disconnected, hfpevents.ConnectFailed:
				reason := ""
				if ev.HasText {
					reason = ev.Text
				}
				return hfperr.ConnectionFailed(reason)
			}
		case <-waitCtx.Done():
			e.bus.Emit(hfpevents.NewConnectFailed("connect timeout", true))
			return hfperr.ConnectionFailed("timeout")
		}
	}
}

// Disconnect is best-effort and non-blocking; state resets when
// `disconnected` later arrives through the normal callback path.
func (e *Engine) Disconnect() error {
	return e.transport.Disconnect()
}

func (e *Engine) requireConnected(op string) error {
	if e.state.Snapshot().Connection != hfpstate.ConnectionConnected {
		return hfperr.NotConnected(op)
	}
	return nil
}

// Dial emits callDialing(number) before issuing the transport's dial
// primitive, so subscribers observe the transition even if the transport
// is slow (spec.md §4.4).
func (e *Engine) Dial(number string) error {
	if err := e.requireConnected("dial"); err != nil {
		return err
	}
	e.bus.Emit(hfpevents.NewCallDialing(number))
	if err := e.transport.DialNumber(number); err != nil {
		return hfperr.TransportFailed(err.Error())
	}
	return nil
}

// AcceptCall issues the transport primitive; callActive follows via
// callback.
func (e *Engine) AcceptCall() error {
	if err := e.requireConnected("acceptCall"); err != nil {
		return err
	}
	if err := e.transport.AcceptCall(); err != nil {
		return hfperr.TransportFailed(err.Error())
	}
	return nil
}

// EndCall issues the transport primitive; callEnded follows via callback.
func (e *Engine) EndCall() error {
	if err := e.requireConnected("endCall"); err != nil {
		return err
	}
	if err := e.transport.EndCall(); err != nil {
		return hfperr.TransportFailed(err.Error())
	}
	return nil
}

var validDTMF = "0123456789*#"

// SendDTMF requires a single character drawn from 0-9*#. No event is
// emitted locally.
func (e *Engine) SendDTMF(digit string) error {
	if err := e.requireConnected("sendDTMF"); err != nil {
		return err
	}
	if len(digit) != 1 || !strings.ContainsRune(validDTMF, rune(digit[0])) {
		return hfperr.CommandFailed("DTMF must be a single character")
	}
	if err := e.transport.SendDTMF(digit); err != nil {
		return hfperr.TransportFailed(err.Error())
	}
	return nil
}

// ConnectAudio requests the SCO link. Its success is reported only via the
// scoConnected callback/event.
func (e *Engine) ConnectAudio() error {
	if err := e.requireConnected("connectAudio"); err != nil {
		return err
	}
	if err := e.transport.ConnectSCO(); err != nil {
		return hfperr.TransportFailed(err.Error())
	}
	return nil
}

// DisconnectAudio requests the SCO link be torn down.
func (e *Engine) DisconnectAudio() error {
	if err := e.requireConnected("disconnectAudio"); err != nil {
		return err
	}
	if err := e.transport.DisconnectSCO(); err != nil {
		return hfperr.TransportFailed(err.Error())
	}
	return nil
}

// TransferAudioToComputer asks the transport to route SCO audio to this
// machine rather than the phone's own speaker/mic.
func (e *Engine) TransferAudioToComputer() error {
	if err := e.requireConnected("transferAudioToComputer"); err != nil {
		return err
	}
	if err := e.transport.TransferAudioToComputer(); err != nil {
		return hfperr.TransportFailed(err.Error())
	}
	return nil
}

// SendATCommand is the escape hatch: sends text verbatim.
func (e *Engine) SendATCommand(text string) error {
	if err := e.requireConnected("sendATCommand"); err != nil {
		return err
	}
	if err := e.transport.Send(text); err != nil {
		return hfperr.TransportFailed(err.Error())
	}
	return nil
}

// RequestCallList sends +CLCC.
func (e *Engine) RequestCallList() error {
	return e.SendATCommand("+CLCC")
}

// RequestOperator sends +COPS?.
func (e *Engine) RequestOperator() error {
	return e.SendATCommand("+COPS?")
}

// RequestCLIP enables unsolicited caller-ID notifications.
func (e *Engine) RequestCLIP() error {
	return e.SendATCommand("AT+CLIP=1")
}

// delegate adapts Engine to bttransport.Callbacks, translating each
// transport callback into bus events per spec.md §4.4's table. It is a
// distinct named type (rather than exporting Engine's methods directly) so
// the transport-facing surface stays narrow and is not part of Engine's
// public API.
type delegate Engine

func (d *delegate) engine() *Engine { return (*Engine)(d) }

func (d *delegate) OnConnected(ok bool, err error) {
	e := d.engine()
	if ok {
		e.bus.Emit(hfpevents.NewConnected())
		return
	}
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	e.bus.Emit(hfpevents.NewConnectFailed(reason, err != nil))
}

func (d *delegate) OnDisconnected() {
	d.engine().bus.Emit(hfpevents.NewDisconnected("", false))
}

func (d *delegate) OnCallSetupMode(mode int) {
	e := d.engine()
	e.bus.Emit(hfpevents.NewCallSetup(mode))
	switch mode {
	case 1:
		e.bus.Emit(hfpevents.NewIncomingCall("", false))
	case 2:
		e.bus.Emit(hfpevents.NewCallDialing(""))
	case 3:
		e.bus.Emit(hfpevents.NewCallAlerting())
	}
}

func (d *delegate) OnCallActive(active bool) {
	e := d.engine()
	e.bus.Emit(hfpevents.NewCallIndicator(active))
	if active {
		e.bus.Emit(hfpevents.NewCallActive())
	} else {
		e.bus.Emit(hfpevents.NewCallEnded())
	}
}

func (d *delegate) OnCallHoldState(mode int) {
	e := d.engine()
	e.bus.Emit(hfpevents.NewCallHeldIndicator(mode))
	if mode > 0 {
		e.bus.Emit(hfpevents.NewCallHeld())
	}
}

func (d *delegate) OnSignalStrength(level int) {
	d.engine().bus.Emit(hfpevents.NewSignalStrength(level))
}

func (d *delegate) OnBatteryCharge(level int) {
	d.engine().bus.Emit(hfpevents.NewBatteryLevel(level))
}

func (d *delegate) OnServiceAvailable(available bool) {
	d.engine().bus.Emit(hfpevents.NewServiceAvailable(available))
}

func (d *delegate) OnRoaming(roaming bool) {
	d.engine().bus.Emit(hfpevents.NewRoaming(roaming))
}

func (d *delegate) OnIncomingCallFrom(number string, hasNumber bool) {
	e := d.engine()
	e.bus.Emit(hfpevents.NewCallerID(number, "", false))
	e.bus.Emit(hfpevents.NewIncomingCall(number, hasNumber))
}

func (d *delegate) OnSCOConnectionOpened() {
	d.engine().bus.Emit(hfpevents.NewScoConnected())
}

func (d *delegate) OnSCOConnectionClosed() {
	d.engine().bus.Emit(hfpevents.NewScoDisconnected())
}

// OnATResponseLine decodes +CLCC/+COPS/+CLIP lines per spec.md §4.4's
// requestCallList/requestOperator paragraph and SPEC_FULL.md §4.4's
// RequestCLIP addition. A line that fails to parse is dropped silently;
// no event is emitted for it (a ParseError is never surfaced as such).
func (d *delegate) OnATResponseLine(line string) {
	e := d.engine()

	if name, ok := atparser.ParseCOPS(line); ok {
		e.bus.Emit(hfpevents.NewOperatorName(name))
		return
	}
	if number, name, hasName, ok := atparser.ParseCLIP(line); ok {
		e.bus.Emit(hfpevents.NewCallerID(number, name, hasName))
		return
	}
	if info, ok := atparser.ParseCLCC(line); ok {
		e.applyCLCC(info)
		return
	}
	slog.Debug("dropped unrecognised AT response line", "line", line)
}

// applyCLCC turns a decoded +CLCC record into the closest matching call
// event, since CLCC itself is not one of the tagged-union events.
func (e *Engine) applyCLCC(info atparser.CallInfo) {
	if info.HasNumber {
		e.bus.Emit(hfpevents.NewCallerID(info.Number, "", false))
	}
	switch info.Status {
	case atparser.StatusDialing:
		e.bus.Emit(hfpevents.NewCallDialing(info.Number))
	case atparser.StatusAlerting:
		e.bus.Emit(hfpevents.NewCallAlerting())
	case atparser.StatusActive:
		e.bus.Emit(hfpevents.NewCallActive())
	case atparser.StatusHeld:
		e.bus.Emit(hfpevents.NewCallHeld())
	case atparser.StatusIncoming:
		e.bus.Emit(hfpevents.NewIncomingCall(info.Number, info.HasNumber))
	case atparser.StatusWaiting:
		e.bus.Emit(hfpevents.NewCallWaiting(info.Number, info.HasNumber))
	}
}
