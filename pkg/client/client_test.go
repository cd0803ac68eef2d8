package client

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/backkem/nuki/pkg/message"
	"github.com/backkem/nuki/pkg/store"
	"github.com/backkem/nuki/pkg/transport"
)

var (
	testAddr   = transport.Address{0x54, 0xD2, 0x72, 0xAA, 0xBB, 0xCC}
	testAuthID = [4]byte{0x04, 0x03, 0x02, 0x01}
)

func testProfile() Profile {
	return Profile{
		Name:                "testdev",
		PairingService:      uuid.MustParse("a92ee100-5501-11e4-916c-0800200c9a66"),
		PairingServiceUltra: uuid.MustParse("a92ee000-5501-11e4-916c-0800200c9a66"),
		Service:             uuid.MustParse("a92ee200-5501-11e4-916c-0800200c9a66"),
		GDIO:                uuid.MustParse("a92ee101-5501-11e4-916c-0800200c9a66"),
		GDIOUltra:           uuid.MustParse("a92ee001-5501-11e4-916c-0800200c9a66"),
		USDIO:               uuid.MustParse("a92ee202-5501-11e4-916c-0800200c9a66"),
	}
}

var testKey = [32]byte{
	0x21, 0x7f, 0xcb, 0x0e, 0xfc, 0xa2, 0x8a, 0x48,
	0x84, 0xbe, 0x41, 0xbb, 0x2b, 0x48, 0xbf, 0xb4,
	0x1e, 0xfa, 0x19, 0x21, 0x1d, 0x0e, 0x4f, 0x60,
	0x1b, 0x55, 0x36, 0x9b, 0x30, 0xaf, 0x7a, 0x4f,
}

// recordCapture is a minimal RecordHandler for engine-level tests.
type recordCapture struct {
	mu      sync.Mutex
	records map[message.Command][]byte
}

func newRecordCapture() *recordCapture {
	return &recordCapture{records: make(map[message.Command][]byte)}
}

func (c *recordCapture) HandleRecord(cmd message.Command, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[cmd] = append([]byte(nil), payload...)
}

func (c *recordCapture) get(cmd message.Command) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records[cmd]
}

type testEnv struct {
	device  *Device
	peer    *ScriptedPeer
	pipe    *transport.Pipe
	scanner *transport.ScriptedScanner
	records *recordCapture
	events  chan EventType
	store   store.Store
}

// newPairedEnv builds a device with stored credentials talking to a
// scripted peer that already shares the long-term key.
func newPairedEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	peer, pipe := NewScriptedPeer(testProfile(), testAuthID)
	peer.InstallKey(testKey)
	t.Cleanup(pipe.Close)

	s, err := store.NewMemProvider().Open("testdev")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	creds := &store.Credentials{
		Address:         testAddr,
		SecretKey:       testKey,
		AuthorizationID: testAuthID,
		Pin:             1234,
	}
	if err := creds.Save(s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := creds.Save(s); err != nil { // second save keeps the PIN
		t.Fatalf("Save() error: %v", err)
	}

	env := &testEnv{
		peer:    peer,
		pipe:    pipe,
		scanner: transport.NewScriptedScanner(),
		records: newRecordCapture(),
		events:  make(chan EventType, 16),
		store:   s,
	}

	config := Config{
		Name:             "bridge",
		AppID:            0x20001000,
		Profile:          testProfile(),
		Handler:          env.records,
		Transport:        pipe,
		Scanner:          env.scanner,
		Store:            s,
		CommandTimeout:   2 * time.Second,
		PairingTimeout:   2 * time.Second,
		GeneralTimeout:   2 * time.Second,
		SemaphoreTimeout: 200 * time.Millisecond,
		EventHandler: EventHandlerFunc(func(e EventType) {
			select {
			case env.events <- e:
			default:
			}
		}),
	}
	if mutate != nil {
		mutate(&config)
	}

	device, err := NewDevice(config)
	if err != nil {
		t.Fatalf("NewDevice() error: %v", err)
	}
	t.Cleanup(func() { device.Close() })
	env.device = device
	return env
}

func stateReadAction() *Action {
	var req [2]byte
	binary.LittleEndian.PutUint16(req[:], uint16(message.CmdKeyturnerStates))
	return &Action{Kind: KindCommand, Command: message.CmdRequestData, Payload: req[:]}
}

func lockAction() *Action {
	payload := []byte{0x02, 0x00, 0x10, 0x00, 0x20, 0x00}
	return &Action{Kind: KindCommandWithChallengeAndAccept, Command: message.CmdLockAction, Payload: payload}
}

func TestExecuteCommandPlainResponse(t *testing.T) {
	env := newPairedEnv(t, nil)
	state := make([]byte, 22)
	state[1] = 0x03 // unlocked
	env.peer.StateRecord = state

	result := env.device.ExecuteAction(stateReadAction())
	if result != CmdResultSuccess {
		t.Fatalf("ExecuteAction() = %v, want Success", result)
	}
	got := env.records.get(message.CmdKeyturnerStates)
	if got == nil {
		t.Fatalf("no KeyturnerStates record captured")
	}
	if got[1] != 0x03 {
		t.Errorf("lock state byte = 0x%02X, want 0x03", got[1])
	}
}

func TestExecuteActionNotPaired(t *testing.T) {
	env := newPairedEnv(t, nil)
	if err := env.device.Unpair(); err != nil {
		t.Fatalf("Unpair() error: %v", err)
	}
	if result := env.device.ExecuteAction(stateReadAction()); result != CmdResultNotPaired {
		t.Errorf("ExecuteAction() = %v, want NotPaired", result)
	}
}

func TestUnpairIdempotent(t *testing.T) {
	env := newPairedEnv(t, nil)
	for i := 0; i < 2; i++ {
		if err := env.device.Unpair(); err != nil {
			t.Fatalf("Unpair() #%d error: %v", i+1, err)
		}
	}
	if env.device.IsPaired() {
		t.Errorf("device still paired after Unpair")
	}
	creds, err := store.LoadCredentials(env.store)
	if err != nil {
		t.Fatalf("LoadCredentials() error: %v", err)
	}
	if creds.Paired() {
		t.Errorf("stored credentials still paired")
	}
}

func TestChallengeCommandAppendsNonceAndPin(t *testing.T) {
	env := newPairedEnv(t, nil)

	var gotPayload []byte
	var mu sync.Mutex
	env.peer.OnCommand = func(p *ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdSetSecurityPin {
			return false
		}
		mu.Lock()
		gotPayload = append([]byte(nil), payload...)
		mu.Unlock()
		p.SendStatus(message.StatusComplete)
		return true
	}

	newPin := []byte{0x39, 0x30} // 12345 LE
	result := env.device.ExecuteAction(&Action{
		Kind:    KindCommandWithChallengeAndPin,
		Command: message.CmdSetSecurityPin,
		Payload: newPin,
	})
	if result != CmdResultSuccess {
		t.Fatalf("ExecuteAction() = %v, want Success", result)
	}

	mu.Lock()
	payload := gotPayload
	mu.Unlock()
	challenge := env.peer.LastChallenge()

	// | new pin (2) | challenge (32) | stored pin (2 LE) |
	if len(payload) != 2+32+2 {
		t.Fatalf("payload length = %d, want 36", len(payload))
	}
	if !bytes.Equal(payload[:2], newPin) {
		t.Errorf("payload prefix = %x", payload[:2])
	}
	if !bytes.Equal(payload[2:34], challenge) {
		t.Errorf("challenge not echoed")
	}
	if got := binary.LittleEndian.Uint16(payload[34:36]); got != 1234 {
		t.Errorf("attached pin = %d, want 1234", got)
	}
}

func TestBadPinRaisesEvent(t *testing.T) {
	env := newPairedEnv(t, nil)
	env.peer.OnCommand = func(p *ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdVerifySecurityPin {
			return false
		}
		p.SendErrorReport(message.KErrorBadPin, cmd)
		return true
	}

	result := env.device.ExecuteAction(&Action{
		Kind:    KindCommandWithChallengeAndPin,
		Command: message.CmdVerifySecurityPin,
	})
	if result != CmdResultFailed {
		t.Fatalf("ExecuteAction() = %v, want Failed", result)
	}

	select {
	case e := <-env.events:
		if e != EventErrorBadPin {
			t.Errorf("event = %v, want ErrorBadPin", e)
		}
	case <-time.After(time.Second):
		t.Errorf("no ErrorBadPin event delivered")
	}
}

func TestLockBusyThenSuccess(t *testing.T) {
	env := newPairedEnv(t, nil)

	var mu sync.Mutex
	attempt := 0
	env.peer.OnCommand = func(p *ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdLockAction {
			return false
		}
		mu.Lock()
		attempt++
		first := attempt == 1
		mu.Unlock()
		if first {
			p.SendErrorReport(message.KErrorBusy, cmd)
			return true
		}
		return false // default accepted/complete flow
	}

	if result := env.device.ExecuteAction(lockAction()); result != CmdResultLockBusy {
		t.Fatalf("first attempt = %v, want LockBusy", result)
	}
	if result := env.device.ExecuteAction(lockAction()); result != CmdResultSuccess {
		t.Fatalf("retry = %v, want Success", result)
	}
}

func TestAcceptShortCircuit(t *testing.T) {
	env := newPairedEnv(t, nil)
	env.peer.OnCommand = func(p *ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdLockAction {
			return false
		}
		// Device already in the requested state: Complete without Accepted.
		p.SendStatus(message.StatusComplete)
		return true
	}
	if result := env.device.ExecuteAction(lockAction()); result != CmdResultSuccess {
		t.Errorf("ExecuteAction() = %v, want Success", result)
	}
}

func TestCommandTimeout(t *testing.T) {
	env := newPairedEnv(t, func(c *Config) {
		c.CommandTimeout = 150 * time.Millisecond
	})
	env.peer.OnCommand = func(p *ScriptedPeer, cmd message.Command, payload []byte) bool {
		// Swallow the action; only the challenge flows.
		return cmd == message.CmdLockAction
	}
	if result := env.device.ExecuteAction(lockAction()); result != CmdResultTimeOut {
		t.Errorf("ExecuteAction() = %v, want TimeOut", result)
	}
}

func TestSingleFlight(t *testing.T) {
	env := newPairedEnv(t, nil)
	release := make(chan struct{})
	env.peer.OnCommand = func(p *ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdLockAction {
			return false
		}
		<-release
		p.SendStatus(message.StatusComplete)
		return true
	}

	first := make(chan CmdResult, 1)
	go func() {
		first <- env.device.ExecuteAction(lockAction())
	}()

	// Give the first action time to take the semaphore.
	time.Sleep(50 * time.Millisecond)

	if result := env.device.ExecuteAction(stateReadAction()); result != CmdResultFailed {
		t.Errorf("second concurrent action = %v, want Failed", result)
	}

	close(release)
	select {
	case result := <-first:
		if result != CmdResultSuccess {
			t.Errorf("first action = %v, want Success", result)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("first action never completed")
	}
}

func TestHeartbeatGuard(t *testing.T) {
	env := newPairedEnv(t, func(c *Config) {
		c.HeartbeatTimeout = 20 * time.Millisecond
	})
	time.Sleep(50 * time.Millisecond)
	if result := env.device.ExecuteAction(stateReadAction()); result != CmdResultError {
		t.Errorf("stale heartbeat: ExecuteAction() = %v, want Error", result)
	}
}

func TestHeartbeatGuardDisabledInAltConnect(t *testing.T) {
	env := newPairedEnv(t, func(c *Config) {
		c.HeartbeatTimeout = 20 * time.Millisecond
		c.AltConnect = true
	})
	env.peer.StateRecord = make([]byte, 22)
	time.Sleep(50 * time.Millisecond)
	if result := env.device.ExecuteAction(stateReadAction()); result != CmdResultSuccess {
		t.Errorf("alt-connect: ExecuteAction() = %v, want Success", result)
	}
}

func TestRefreshServicesAfterSubscribeFailure(t *testing.T) {
	peer, defaultPipe := NewScriptedPeer(testProfile(), testAuthID)
	defaultPipe.Close()
	peer.InstallKey(testKey)
	pipe := peer.NewPipeWith(transport.PipeConfig{SubscribeFailures: 1})
	t.Cleanup(pipe.Close)

	s, err := store.NewMemProvider().Open("testdev")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	creds := &store.Credentials{Address: testAddr, SecretKey: testKey, AuthorizationID: testAuthID}
	if err := creds.Save(s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	device, err := NewDevice(Config{
		Name:      "bridge",
		Profile:   testProfile(),
		Transport: pipe,
		Store:     s,
	})
	if err != nil {
		t.Fatalf("NewDevice() error: %v", err)
	}
	t.Cleanup(func() { device.Close() })

	peer.StateRecord = make([]byte, 22)
	if result := device.ExecuteAction(stateReadAction()); result != CmdResultSuccess {
		t.Fatalf("ExecuteAction() = %v, want Success", result)
	}

	flags := pipe.RefreshFlags()
	if len(flags) < 2 {
		t.Fatalf("expected at least 2 connect attempts, got %d", len(flags))
	}
	if flags[0] {
		t.Errorf("first connect requested refresh")
	}
	if !flags[1] {
		t.Errorf("connect after subscribe failure did not request GATT rediscovery")
	}
}

func TestIdleDisconnect(t *testing.T) {
	env := newPairedEnv(t, func(c *Config) {
		c.DisconnectTimeout = 50 * time.Millisecond
	})
	env.peer.StateRecord = make([]byte, 22)
	if result := env.device.ExecuteAction(stateReadAction()); result != CmdResultSuccess {
		t.Fatalf("ExecuteAction() = %v, want Success", result)
	}
	if !env.pipe.IsConnected() {
		t.Fatalf("link should be up right after a command")
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.pipe.IsConnected() && time.Now().Before(deadline) {
		env.device.UpdateConnectionState()
		time.Sleep(10 * time.Millisecond)
	}
	if env.pipe.IsConnected() {
		t.Errorf("idle link was not disconnected")
	}
}
