package client

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pion/transport/v3/test"

	"github.com/backkem/nuki/pkg/store"
	"github.com/backkem/nuki/pkg/transport"
)

// newUnpairedEnv builds a device with an empty credential namespace.
func newUnpairedEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	peer, pipe := NewScriptedPeer(testProfile(), testAuthID)
	t.Cleanup(pipe.Close)

	s, err := store.NewMemProvider().Open("testdev")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
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

func pairingAdvertisement(profile Profile, ultra bool) *transport.Advertisement {
	service := profile.PairingService
	if ultra {
		service = profile.PairingServiceUltra
	}
	return &transport.Advertisement{
		Address: testAddr,
		RSSI:    -60,
		Name:    "Nuki_ABCDEF",
		ServiceData: map[uuid.UUID][]byte{
			service: {0x01},
		},
	}
}

func TestPairClassicHappyPath(t *testing.T) {
	env := newUnpairedEnv(t, nil)

	env.scanner.Publish(pairingAdvertisement(testProfile(), false))

	result := env.device.Pair(IDTypeBridge)
	if result != PairingSuccess {
		t.Fatalf("Pair() = %v, want Success", result)
	}
	if !env.device.IsPaired() {
		t.Fatalf("device reports unpaired after successful Pair")
	}

	creds, err := store.LoadCredentials(env.store)
	if err != nil {
		t.Fatalf("LoadCredentials() error: %v", err)
	}
	if creds.AuthorizationID != testAuthID {
		t.Errorf("authorization id = %x, want %x", creds.AuthorizationID, testAuthID)
	}
	if creds.SecretKey == [32]byte{} {
		t.Errorf("secret key is all zero")
	}
	if creds.Address != testAddr {
		t.Errorf("address = %v, want %v", creds.Address, testAddr)
	}

	// Both sides must have derived the same long-term key.
	peerKey, ok := env.peer.SecretKey()
	if !ok {
		t.Fatalf("peer never derived a key")
	}
	if peerKey != creds.SecretKey {
		t.Errorf("peer and client keys differ")
	}

	// Pairing is idempotent.
	if result := env.device.Pair(IDTypeBridge); result != PairingSuccess {
		t.Errorf("second Pair() = %v, want Success", result)
	}
}

func TestPairWithoutSighting(t *testing.T) {
	env := newUnpairedEnv(t, nil)
	if result := env.device.Pair(IDTypeApp); result != PairingInProgress {
		t.Errorf("Pair() without advertisement = %v, want Pairing", result)
	}
}

func TestPairSightingExpires(t *testing.T) {
	env := newUnpairedEnv(t, nil)
	env.scanner.Publish(pairingAdvertisement(testProfile(), false))

	env.device.mu.Lock()
	env.device.pairingSeen = time.Now().Add(-3 * time.Second)
	env.device.mu.Unlock()

	if result := env.device.Pair(IDTypeApp); result != PairingInProgress {
		t.Errorf("Pair() after expired sighting = %v, want Pairing", result)
	}
}

func TestPairTimeout(t *testing.T) {
	env := newUnpairedEnv(t, func(c *Config) {
		c.PairingTimeout = 300 * time.Millisecond
	})
	env.peer.Silent = true

	env.scanner.Publish(pairingAdvertisement(testProfile(), false))

	result := env.device.Pair(IDTypeBridge)
	if result != PairingTimeout {
		t.Fatalf("Pair() = %v, want Timeout", result)
	}
	if env.device.IsPaired() {
		t.Errorf("device reports paired after timeout")
	}
	creds, err := store.LoadCredentials(env.store)
	if err != nil {
		t.Fatalf("LoadCredentials() error: %v", err)
	}
	if creds.Paired() {
		t.Errorf("credentials written despite timeout")
	}
}

// Shutting the engine and pipe down must not leave goroutines behind.
func TestShutdownLeavesNoRoutines(t *testing.T) {
	report := test.CheckRoutines(t)

	peer, pipe := NewScriptedPeer(testProfile(), testAuthID)
	peer.InstallKey(testKey)
	peer.StateRecord = make([]byte, 22)

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
	if result := device.ExecuteAction(stateReadAction()); result != CmdResultSuccess {
		t.Fatalf("ExecuteAction() = %v, want Success", result)
	}

	device.Close()
	pipe.Close()
	report()
}

func TestPairUltraRequiresPin(t *testing.T) {
	env := newUnpairedEnv(t, nil)

	// Without a preconfigured passkey the ultra offer is ignored.
	env.scanner.Publish(pairingAdvertisement(testProfile(), true))
	if env.device.PairingOffered() {
		t.Fatalf("ultra offer accepted without pairing PIN")
	}

	env.device.SetPairingPin(123456)
	env.scanner.Publish(pairingAdvertisement(testProfile(), true))
	if !env.device.PairingOffered() {
		t.Fatalf("ultra offer ignored despite pairing PIN")
	}

	result := env.device.Pair(IDTypeBridge)
	if result != PairingSuccess {
		t.Fatalf("Pair() = %v, want Success", result)
	}

	// The transport must have been asked for a keyboard-only passkey bond.
	bonds := env.pipe.Bonds()
	if got, ok := bonds[testAddr]; !ok || got != 123456 {
		t.Errorf("bonds = %v, want passkey 123456 for %v", bonds, testAddr)
	}

	creds, err := store.LoadCredentials(env.store)
	if err != nil {
		t.Fatalf("LoadCredentials() error: %v", err)
	}
	if !creds.IsUltra {
		t.Errorf("isUltra flag not stored")
	}
	if creds.UltraPin != 123456 {
		t.Errorf("ultra pin = %d, want 123456", creds.UltraPin)
	}
}
