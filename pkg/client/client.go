// Package client implements the secure protocol engine for Nuki BLE
// devices: the pairing handshake, the authenticated command state machines,
// credential handling, connection lifecycle and beacon-driven status
// events. It is generic over a device Profile; pkg/lock and pkg/opener
// provide the two concrete profiles.
package client

import (
	"errors"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/backkem/nuki/pkg/message"
	"github.com/backkem/nuki/pkg/store"
	"github.com/backkem/nuki/pkg/transport"
)

// Default timing parameters.
const (
	DefaultConnectRetries    = 5
	DefaultConnectTimeout    = 3 * time.Second
	DefaultDisconnectTimeout = 5 * time.Second
	DefaultCommandTimeout    = 30 * time.Second
	DefaultPairingTimeout    = 30 * time.Second
	DefaultGeneralTimeout    = 20 * time.Second
	DefaultSemaphoreTimeout  = 1 * time.Second
	DefaultHeartbeatTimeout  = 30 * time.Second

	// pollInterval is the state-machine and bulk-receive poll period.
	pollInterval = 10 * time.Millisecond

	// pairingServiceWindow is how long a pairing-mode sighting stays valid.
	pairingServiceWindow = 2 * time.Second

	// MaxNameLength bounds the client name sent in authorization data.
	MaxNameLength = 32
)

// Configuration errors.
var (
	ErrNameTooLong  = errors.New("client: device name exceeds 32 bytes")
	ErrNoTransport  = errors.New("client: transport is required")
	ErrNoStore      = errors.New("client: credential store is required")
	ErrWrongVariant = errors.New("client: PIN setter does not match device variant")
	ErrBusy         = errors.New("client: another command is in flight")
)

// Config configures a Device.
type Config struct {
	// Name is the client name presented to the device during pairing,
	// at most 32 bytes.
	Name string

	// AppID is the 32-bit application identifier chosen by the integrator,
	// sent in the authorization data.
	AppID uint32

	// Profile selects the device family (lock or opener).
	Profile Profile

	// Handler decodes device-family records. May be nil.
	Handler RecordHandler

	// EventHandler receives asynchronous events. May be nil.
	EventHandler EventHandler

	// Transport is the BLE central towards the device.
	Transport transport.Transport

	// Scanner publishes advertisements. May be nil when the integrator
	// runs without a co-located scanner.
	Scanner transport.Scanner

	// Store holds this device's credential namespace.
	Store store.Store

	// AltConnect selects the shared-client-pool connection mode:
	// connections are torn down eagerly on errors and the heartbeat guard
	// is disabled.
	AltConnect bool

	// Timing overrides; zero values select the defaults above.
	ConnectRetries    int
	ConnectTimeout    time.Duration
	DisconnectTimeout time.Duration
	CommandTimeout    time.Duration
	PairingTimeout    time.Duration
	GeneralTimeout    time.Duration
	SemaphoreTimeout  time.Duration
	HeartbeatTimeout  time.Duration

	// LoggerFactory creates the engine logger. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// Device drives one remote Nuki device. All commands serialize through a
// single semaphore; the transport delivers indications from its own context
// into the device's shared state.
type Device struct {
	config  Config
	profile Profile
	log     logging.LeveledLogger

	transport transport.Transport
	scanner   transport.Scanner
	store     store.Store

	// sem serializes command execution; owner tags the current holder for
	// diagnostics only.
	sem   chan struct{}
	owner string

	// mu guards every field below. The indication and scanner contexts
	// write here while a state machine polls.
	mu sync.Mutex

	creds  *store.Credentials
	paired bool

	// Transient protocol state written by the indication dispatcher.
	remotePublicKey []byte
	challengeNonce  []byte
	receivedStatus  byte
	lastMsgCode     message.Command
	lastErrorCode   message.ErrorCode
	crcOK           bool

	cmdState    CommandState
	cmdDeadline time.Time

	// Connection lifecycle.
	connecting      bool
	refreshServices bool
	lastActivity    time.Time
	lastHeartbeat   time.Time

	// Beacon observations.
	rssi           int
	lastBeacon     time.Time
	statusBit      bool
	pairingSeen    time.Time
	pairingAddr    transport.Address
	pairingUltra   bool
	pairingOffered bool

	// pairingPin is the preconfigured 6-digit passkey required to accept
	// an ultra pairing offer. Zero means unset.
	pairingPin uint32
}

// NewDevice creates a device engine, loads any stored credentials and
// subscribes to the scanner when one is configured.
func NewDevice(config Config) (*Device, error) {
	if len(config.Name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if config.Transport == nil {
		return nil, ErrNoTransport
	}
	if config.Store == nil {
		return nil, ErrNoStore
	}

	if config.ConnectRetries == 0 {
		config.ConnectRetries = DefaultConnectRetries
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.DisconnectTimeout == 0 {
		config.DisconnectTimeout = DefaultDisconnectTimeout
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = DefaultCommandTimeout
	}
	if config.PairingTimeout == 0 {
		config.PairingTimeout = DefaultPairingTimeout
	}
	if config.GeneralTimeout == 0 {
		config.GeneralTimeout = DefaultGeneralTimeout
	}
	if config.SemaphoreTimeout == 0 {
		config.SemaphoreTimeout = DefaultSemaphoreTimeout
	}
	if config.HeartbeatTimeout == 0 {
		config.HeartbeatTimeout = DefaultHeartbeatTimeout
	}

	d := &Device{
		config:         config,
		profile:        config.Profile,
		transport:      config.Transport,
		scanner:        config.Scanner,
		store:          config.Store,
		sem:            make(chan struct{}, 1),
		receivedStatus: 0xFF,
		lastActivity:   time.Now(),
		lastHeartbeat:  time.Now(),
	}
	if config.LoggerFactory != nil {
		d.log = config.LoggerFactory.NewLogger(config.Profile.Name)
	}

	creds, err := store.LoadCredentials(config.Store)
	if err != nil {
		return nil, err
	}
	d.creds = creds
	d.paired = creds.Paired()

	if d.scanner != nil {
		d.scanner.Subscribe(d)
	}
	return d, nil
}

// Close unsubscribes from the scanner and drops the link.
func (d *Device) Close() error {
	if d.scanner != nil {
		d.scanner.Unsubscribe(d)
	}
	return d.transport.Disconnect()
}

// IsPaired reports whether valid credentials are stored.
func (d *Device) IsPaired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paired
}

// IsUltra reports whether the paired device is of the ultra family.
func (d *Device) IsUltra() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creds.IsUltra
}

// Address returns the device address from the stored credentials, or the
// zero address when unpaired.
func (d *Device) Address() transport.Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creds.Address
}

// RSSI returns the signal strength of the last received beacon.
func (d *Device) RSSI() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rssi
}

// LastBeacon returns when the last advertisement from the paired device was
// received, whether or not it carried a status beacon.
func (d *Device) LastBeacon() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastBeacon
}

// LastHeartbeat returns the time of the last successful activity: an
// indication, a beacon or a completed link operation.
func (d *Device) LastHeartbeat() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastHeartbeat
}

// SetPairingPin preconfigures the 6-digit passkey required before an ultra
// pairing offer is accepted.
func (d *Device) SetPairingPin(pin uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pairingPin = pin
}

// SecurityPin returns the stored classic PIN.
func (d *Device) SecurityPin() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creds.Pin
}

// UltraPin returns the stored ultra PIN.
func (d *Device) UltraPin() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creds.UltraPin
}

// SaveSecurityPin stores the classic PIN without contacting the device.
// Returns ErrWrongVariant on an ultra device.
func (d *Device) SaveSecurityPin(pin uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.creds.IsUltra {
		return ErrWrongVariant
	}
	d.creds.Pin = pin
	return d.creds.SavePin(d.store)
}

// SaveUltraPin stores the ultra PIN without contacting the device.
// Returns ErrWrongVariant on a classic device.
func (d *Device) SaveUltraPin(pin uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.creds.IsUltra {
		return ErrWrongVariant
	}
	d.creds.UltraPin = pin
	return d.creds.SavePin(d.store)
}

// notify delivers an event to the configured handler, if any.
func (d *Device) notify(event EventType) {
	if d.config.EventHandler != nil {
		d.config.EventHandler.Notify(event)
	}
}

// takeSemaphore acquires the command semaphore within the configured
// timeout. It returns false without mutating state on timeout.
func (d *Device) takeSemaphore(owner string) bool {
	select {
	case d.sem <- struct{}{}:
		d.mu.Lock()
		d.owner = owner
		d.mu.Unlock()
		return true
	case <-time.After(d.config.SemaphoreTimeout):
		if d.log != nil {
			d.log.Debugf("%s failed to take semaphore, owner %s", owner, d.currentOwner())
		}
		return false
	}
}

func (d *Device) currentOwner() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.owner
}

func (d *Device) giveSemaphore() {
	d.mu.Lock()
	d.owner = ""
	d.mu.Unlock()
	<-d.sem
}

// touchActivity refreshes both the disconnect timer and the heartbeat.
func (d *Device) touchActivity() {
	d.mu.Lock()
	d.lastActivity = time.Now()
	d.lastHeartbeat = d.lastActivity
	d.mu.Unlock()
}

// WaitUntil polls the given condition every 10ms until it holds or the
// timeout elapses. Bulk retrievals use it to wait for list completion.
func (d *Device) WaitUntil(timeout time.Duration, cond func() bool) CmdResult {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return CmdResultSuccess
		}
		if time.Now().After(deadline) {
			return CmdResultTimeOut
		}
		time.Sleep(pollInterval)
	}
}

// GeneralTimeout returns the configured bulk-collection timeout.
func (d *Device) GeneralTimeout() time.Duration {
	return d.config.GeneralTimeout
}
