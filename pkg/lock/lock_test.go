package lock

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/backkem/nuki/pkg/client"
	"github.com/backkem/nuki/pkg/message"
	"github.com/backkem/nuki/pkg/store"
	"github.com/backkem/nuki/pkg/transport"
)

var (
	testAddr   = transport.Address{0x54, 0xD2, 0x72, 0xAA, 0xBB, 0xCC}
	testAuthID = [4]byte{0x04, 0x03, 0x02, 0x01}
	testKey    = [32]byte{
		0x21, 0x7f, 0xcb, 0x0e, 0xfc, 0xa2, 0x8a, 0x48,
		0x84, 0xbe, 0x41, 0xbb, 0x2b, 0x48, 0xbf, 0xb4,
		0x1e, 0xfa, 0x19, 0x21, 0x1d, 0x0e, 0x4f, 0x60,
		0x1b, 0x55, 0x36, 0x9b, 0x30, 0xaf, 0x7a, 0x4f,
	}
)

func newPairedLock(t *testing.T) (*Lock, *client.ScriptedPeer) {
	t.Helper()

	peer, pipe := client.NewScriptedPeer(Profile(), testAuthID)
	peer.InstallKey(testKey)
	t.Cleanup(pipe.Close)

	s, err := store.NewMemProvider().Open("smartlock")
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
	if err := creds.Save(s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	l, err := New(client.Config{
		Name:           "bridge",
		AppID:          0x20001000,
		Transport:      pipe,
		Store:          s,
		CommandTimeout: 2 * time.Second,
		GeneralTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, peer
}

func TestRequestKeyTurnerState(t *testing.T) {
	l, peer := newPairedLock(t)
	peer.StateRecord = EncodeKeyTurnerState(&KeyTurnerState{
		NukiState:            0x02,
		LockState:            LockStateLocked,
		Trigger:              TriggerButton,
		CriticalBatteryState: 0xC8,
	})

	state, result := l.RequestKeyTurnerState()
	if result != client.CmdResultSuccess {
		t.Fatalf("RequestKeyTurnerState() = %v, want Success", result)
	}
	if state.LockState != LockStateLocked {
		t.Errorf("lock state = %v, want Locked", state.LockState)
	}
	if state.BatteryPercent() != 100 {
		t.Errorf("battery percent = %d, want 100", state.BatteryPercent())
	}

	// The cached accessor returns the same record without a new exchange.
	if cached := l.KeyTurnerState(); cached == nil || cached.LockState != LockStateLocked {
		t.Errorf("cached state = %+v", cached)
	}
}

func TestLockActionFlow(t *testing.T) {
	l, peer := newPairedLock(t)

	var mu sync.Mutex
	var gotPayload []byte
	peer.OnCommand = func(p *client.ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdLockAction {
			return false
		}
		mu.Lock()
		gotPayload = append([]byte(nil), payload...)
		mu.Unlock()
		return false // default Accepted + Complete flow
	}

	if result := l.Lock(0x20001000); result != client.CmdResultSuccess {
		t.Fatalf("Lock() = %v, want Success", result)
	}

	mu.Lock()
	payload := gotPayload
	mu.Unlock()
	// | action (1) | app id (4 LE) | flags (1) | challenge (32) |
	if len(payload) != 6+32 {
		t.Fatalf("payload length = %d, want 38", len(payload))
	}
	if Action(payload[0]) != ActionLock {
		t.Errorf("action byte = 0x%02X, want Lock", payload[0])
	}
	if got := binary.LittleEndian.Uint32(payload[1:5]); got != 0x20001000 {
		t.Errorf("app id = 0x%08X", got)
	}
}

func TestRequestConfig(t *testing.T) {
	l, peer := newPairedLock(t)
	scripted := &Config{
		NukiID:        0x30405060,
		Name:          "Front Door",
		Latitude:      48.2082,
		Longitude:     16.3738,
		LedBrightness: 3,
	}
	peer.OnCommand = func(p *client.ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdRequestConfig {
			return false
		}
		p.SendEncrypted(message.CmdConfig, EncodeConfig(scripted))
		return true
	}

	config, result := l.RequestConfig()
	if result != client.CmdResultSuccess {
		t.Fatalf("RequestConfig() = %v, want Success", result)
	}
	if config.Name != "Front Door" || config.NukiID != 0x30405060 {
		t.Errorf("config = %+v", config)
	}
}

// A config mutator reads the record, changes one field and writes the whole
// record back, consuming two challenge-response exchanges.
func TestSetLatitudeReadModifyWrite(t *testing.T) {
	l, peer := newPairedLock(t)
	scripted := &Config{Name: "Front Door", Latitude: 1.0, Longitude: 2.0, LedBrightness: 3}

	var mu sync.Mutex
	var setPayload []byte
	peer.OnCommand = func(p *client.ScriptedPeer, cmd message.Command, payload []byte) bool {
		switch cmd {
		case message.CmdRequestConfig:
			p.SendEncrypted(message.CmdConfig, EncodeConfig(scripted))
			return true
		case message.CmdSetConfig:
			mu.Lock()
			setPayload = append([]byte(nil), payload...)
			mu.Unlock()
			p.SendStatus(message.StatusComplete)
			return true
		}
		return false
	}

	if result := l.SetLatitude(48.5); result != client.CmdResultSuccess {
		t.Fatalf("SetLatitude() = %v, want Success", result)
	}

	mu.Lock()
	payload := setPayload
	mu.Unlock()
	// | new config (55) | challenge (32) | pin (2) |
	if len(payload) != 55+32+2 {
		t.Fatalf("SetConfig payload length = %d, want 89", len(payload))
	}
	lat := math.Float32frombits(binary.LittleEndian.Uint32(payload[32:36]))
	if lat != 48.5 {
		t.Errorf("written latitude = %v, want 48.5", lat)
	}
	lon := math.Float32frombits(binary.LittleEndian.Uint32(payload[36:40]))
	if lon != 2.0 {
		t.Errorf("longitude not preserved: %v", lon)
	}
}

func TestRetrieveKeypadEntries(t *testing.T) {
	l, peer := newPairedLock(t)
	entries := []*KeypadEntry{
		{CodeID: 1, Code: 111111, Name: "one", Enabled: true},
		{CodeID: 2, Code: 222222, Name: "two", Enabled: true},
		{CodeID: 3, Code: 333333, Name: "three"},
	}
	peer.OnCommand = func(p *client.ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdRequestKeypadCodes {
			return false
		}
		var count [2]byte
		binary.LittleEndian.PutUint16(count[:], uint16(len(entries)))
		p.SendEncrypted(message.CmdKeypadCodeCount, count[:])
		for _, e := range entries {
			p.SendEncrypted(message.CmdKeypadCode, EncodeKeypadEntry(e))
		}
		return true
	}

	if result := l.RetrieveKeypadEntries(0, 10); result != client.CmdResultSuccess {
		t.Fatalf("RetrieveKeypadEntries() = %v, want Success", result)
	}
	got := l.KeypadEntries()
	if len(got) != 3 {
		t.Fatalf("received %d entries, want 3", len(got))
	}
	if got[1].Name != "two" || got[1].Code != 222222 {
		t.Errorf("entry 1 = %+v", got[1])
	}
	if l.KeypadEntryCount() != 3 {
		t.Errorf("KeypadEntryCount() = %d, want 3", l.KeypadEntryCount())
	}
}

func TestRetrieveKeypadEntriesTimeout(t *testing.T) {
	l, peer := newPairedLock(t)
	peer.OnCommand = func(p *client.ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdRequestKeypadCodes {
			return false
		}
		// Acknowledge the command but never send the count.
		p.SendStatus(message.StatusComplete)
		return true
	}

	// newPairedLock sets a 2 s bulk timeout, well inside the wait below.
	done := make(chan client.CmdResult, 1)
	go func() { done <- l.RetrieveKeypadEntries(0, 10) }()
	select {
	case result := <-done:
		if result != client.CmdResultTimeOut {
			t.Errorf("RetrieveKeypadEntries() = %v, want TimeOut", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("bulk retrieval never timed out")
	}
}

func TestRetrieveLogEntries(t *testing.T) {
	l, peer := newPairedLock(t)
	logEntry := &LogEntry{Index: 42, Name: "bridge", Type: 2}
	peer.OnCommand = func(p *client.ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdRequestLogEntries {
			return false
		}
		// | start (4) | count (2) | sort | totalCount | challenge (32) | pin (2) |
		if len(payload) < 8 {
			return true
		}
		if payload[7] != 0 {
			p.SendEncrypted(message.CmdLogEntryCount, []byte{0x01, 0x2A, 0x00})
			return true
		}
		p.SendEncrypted(message.CmdLogEntry, EncodeLogEntry(logEntry))
		return true
	}

	if result := l.RetrieveLogEntries(0, 0, LogSortDescending, true); result != client.CmdResultSuccess {
		t.Fatalf("count retrieval = %v, want Success", result)
	}
	if l.LogEntryCount() != 42 || !l.LoggingEnabled() {
		t.Errorf("count = %d enabled = %v", l.LogEntryCount(), l.LoggingEnabled())
	}

	if result := l.RetrieveLogEntries(0, 1, LogSortDescending, false); result != client.CmdResultSuccess {
		t.Fatalf("entry retrieval = %v, want Success", result)
	}
	got := l.LogEntries()
	if len(got) != 1 || got[0].Index != 42 {
		t.Errorf("log entries = %+v", got)
	}
}

func TestSetSecurityPinPersists(t *testing.T) {
	l, peer := newPairedLock(t)
	peer.OnCommand = func(p *client.ScriptedPeer, cmd message.Command, payload []byte) bool {
		if cmd != message.CmdSetSecurityPin {
			return false
		}
		p.SendStatus(message.StatusComplete)
		return true
	}

	result, err := l.SetSecurityPin(9999)
	if err != nil {
		t.Fatalf("SetSecurityPin() error: %v", err)
	}
	if result != client.CmdResultSuccess {
		t.Fatalf("SetSecurityPin() = %v, want Success", result)
	}
	if l.SecurityPin() != 9999 {
		t.Errorf("stored pin = %d, want 9999", l.SecurityPin())
	}

	// The ultra setter must refuse on a classic device.
	if _, err := l.SetUltraPin(123456); err != client.ErrWrongVariant {
		t.Errorf("SetUltraPin() on classic device: got %v, want ErrWrongVariant", err)
	}
}
