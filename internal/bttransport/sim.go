package bttransport

import (
	"context"
	"sync"
)

// SimTransport is an in-memory fake Transport. Production calls
// (Connect, DialNumber, ...) just record the call; test code or the CLI's
// scripted demo drives the simulated AG side by invoking the Fire* methods,
// which deliver callbacks exactly like a real transport would.
//
// Safe for concurrent use.
type SimTransport struct {
	mu        sync.Mutex
	cb        Callbacks
	connected bool

	// AutoConnect, when true, makes Connect immediately fire OnConnected(true, nil)
	// synchronously — useful for engine tests that don't want to script a
	// separate Fire call for every Connect.
	AutoConnect bool

	// NextConnectErr, when non-nil, makes Connect fail by firing
	// OnConnected(false, err) instead of succeeding, and is then cleared.
	NextConnectErr error

	Dialed      []string
	SentDTMF    []string
	SentAT      []string
	Accepted    int
	Ended       int
	SCOConnects int
	SCODisc     int
	Transfers   int
	Disconnects int
}

// NewSimTransport returns a SimTransport with AutoConnect enabled.
func NewSimTransport() *SimTransport {
	return &SimTransport{AutoConnect: true}
}

func (s *SimTransport) SetCallbacks(cb Callbacks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

func (s *SimTransport) callbacks() Callbacks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cb
}

func (s *SimTransport) Connect(ctx context.Context) error {
	s.mu.Lock()
	autoConnect := s.AutoConnect
	failErr := s.NextConnectErr
	s.NextConnectErr = nil
	s.mu.Unlock()

	if !autoConnect {
		return nil
	}
	if failErr != nil {
		s.FireConnected(false, failErr)
		return nil
	}
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	s.FireConnected(true, nil)
	return nil
}

func (s *SimTransport) Disconnect() error {
	s.mu.Lock()
	s.connected = false
	s.Disconnects++
	s.mu.Unlock()
	s.FireDisconnected()
	return nil
}

func (s *SimTransport) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *SimTransport) DialNumber(number string) error {
	s.mu.Lock()
	s.Dialed = append(s.Dialed, number)
	s.mu.Unlock()
	return nil
}

func (s *SimTransport) AcceptCall() error {
	s.mu.Lock()
	s.Accepted++
	s.mu.Unlock()
	return nil
}

func (s *SimTransport) EndCall() error {
	s.mu.Lock()
	s.Ended++
	s.mu.Unlock()
	return nil
}

func (s *SimTransport) SendDTMF(digit string) error {
	s.mu.Lock()
	s.SentDTMF = append(s.SentDTMF, digit)
	s.mu.Unlock()
	return nil
}

func (s *SimTransport) ConnectSCO() error {
	s.mu.Lock()
	s.SCOConnects++
	s.mu.Unlock()
	return nil
}

func (s *SimTransport) DisconnectSCO() error {
	s.mu.Lock()
	s.SCODisc++
	s.mu.Unlock()
	return nil
}

func (s *SimTransport) TransferAudioToComputer() error {
	s.mu.Lock()
	s.Transfers++
	s.mu.Unlock()
	return nil
}

func (s *SimTransport) Send(atCommand string) error {
	s.mu.Lock()
	s.SentAT = append(s.SentAT, atCommand)
	s.mu.Unlock()
	return nil
}

// --- Fire* methods simulate the AG side, invoked by tests/demo scripts. ---

func (s *SimTransport) FireConnected(ok bool, err error) {
	if cb := s.callbacks(); cb != nil {
		cb.OnConnected(ok, err)
	}
}

func (s *SimTransport) FireDisconnected() {
	if cb := s.callbacks(); cb != nil {
		cb.OnDisconnected()
	}
}

func (s *SimTransport) FireCallSetupMode(mode int) {
	if cb := s.callbacks(); cb != nil {
		cb.OnCallSetupMode(mode)
	}
}

func (s *SimTransport) FireCallActive(active bool) {
	if cb := s.callbacks(); cb != nil {
		cb.OnCallActive(active)
	}
}

func (s *SimTransport) FireCallHoldState(mode int) {
	if cb := s.callbacks(); cb != nil {
		cb.OnCallHoldState(mode)
	}
}

func (s *SimTransport) FireSignalStrength(level int) {
	if cb := s.callbacks(); cb != nil {
		cb.OnSignalStrength(level)
	}
}

func (s *SimTransport) FireBatteryCharge(level int) {
	if cb := s.callbacks(); cb != nil {
		cb.OnBatteryCharge(level)
	}
}

func (s *SimTransport) FireServiceAvailable(available bool) {
	if cb := s.callbacks(); cb != nil {
		cb.OnServiceAvailable(available)
	}
}

func (s *SimTransport) FireRoaming(roaming bool) {
	if cb := s.callbacks(); cb != nil {
		cb.OnRoaming(roaming)
	}
}

func (s *SimTransport) FireIncomingCallFrom(number string, hasNumber bool) {
	if cb := s.callbacks(); cb != nil {
		cb.OnIncomingCallFrom(number, hasNumber)
	}
}

func (s *SimTransport) FireSCOOpened() {
	if cb := s.callbacks(); cb != nil {
		cb.OnSCOConnectionOpened()
	}
}

func (s *SimTransport) FireSCOClosed() {
	if cb := s.callbacks(); cb != nil {
		cb.OnSCOConnectionClosed()
	}
}

func (s *SimTransport) FireATResponseLine(line string) {
	if cb := s.callbacks(); cb != nil {
		cb.OnATResponseLine(line)
	}
}
