package lock

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"

	"github.com/backkem/nuki/pkg/client"
	"github.com/backkem/nuki/pkg/message"
)

// Keyturner BLE identifiers.
var (
	pairingServiceUUID      = uuid.MustParse("a92ee100-5501-11e4-916c-0800200c9a66")
	gdioUUID                = uuid.MustParse("a92ee101-5501-11e4-916c-0800200c9a66")
	pairingServiceUltraUUID = uuid.MustParse("a92ee000-5501-11e4-916c-0800200c9a66")
	gdioUltraUUID           = uuid.MustParse("a92ee001-5501-11e4-916c-0800200c9a66")
	keyturnerServiceUUID    = uuid.MustParse("a92ee200-5501-11e4-916c-0800200c9a66")
	usdioUUID               = uuid.MustParse("a92ee202-5501-11e4-916c-0800200c9a66")
)

// Profile returns the Smart Lock device profile.
func Profile() client.Profile {
	return client.Profile{
		Name:                "smartlock",
		PairingService:      pairingServiceUUID,
		PairingServiceUltra: pairingServiceUltraUUID,
		Service:             keyturnerServiceUUID,
		GDIO:                gdioUUID,
		GDIOUltra:           gdioUltraUUID,
		USDIO:               usdioUUID,
	}
}

// Lock is the high-level Smart Lock client. It embeds the generic protocol
// engine and decodes keyturner records into cached state and lists.
type Lock struct {
	*client.Device

	// mu guards the decoded records below; the indication context fills
	// them while bulk waits poll.
	mu sync.Mutex

	state    *KeyTurnerState
	battery  *BatteryReport
	config   *Config
	advanced *AdvancedConfig

	keypadEntries      []*KeypadEntry
	keypadCount        uint16
	keypadCountKnown   bool
	keypadReceived     int
	lastKeypadCodeID   uint16

	authEntries    []*AuthorizationEntry
	authCount      uint16
	authCountKnown bool

	timeControlEntries []*TimeControlEntry
	timeControlCount   uint8
	timeControlKnown   bool

	logEntries     []*LogEntry
	logCount       uint16
	logCountKnown  bool
	loggingEnabled bool
}

// New creates a Smart Lock client. The profile and record handler fields of
// the config are filled in here.
func New(config client.Config) (*Lock, error) {
	l := &Lock{}
	config.Profile = Profile()
	config.Handler = l
	device, err := client.NewDevice(config)
	if err != nil {
		return nil, err
	}
	l.Device = device
	return l, nil
}

// HandleRecord implements client.RecordHandler. It runs in the indication
// context; every record is fully decoded and stored before the engine
// publishes the message code the state machines wait on.
func (l *Lock) HandleRecord(cmd message.Command, payload []byte) {
	switch cmd {
	case message.CmdKeyturnerStates:
		if s, err := DecodeKeyTurnerState(payload); err == nil {
			l.mu.Lock()
			l.state = s
			l.mu.Unlock()
		}

	case message.CmdBatteryReport:
		if r, err := DecodeBatteryReport(payload); err == nil {
			l.mu.Lock()
			l.battery = r
			l.mu.Unlock()
		}

	case message.CmdConfig:
		if c, err := DecodeConfig(payload); err == nil {
			l.mu.Lock()
			l.config = c
			l.mu.Unlock()
		}

	case message.CmdAdvancedConfig:
		if c, err := DecodeAdvancedConfig(payload); err == nil {
			l.mu.Lock()
			l.advanced = c
			l.mu.Unlock()
		}

	case message.CmdKeypadCodeCount:
		if len(payload) >= 2 {
			l.mu.Lock()
			l.keypadCount = binary.LittleEndian.Uint16(payload)
			l.keypadCountKnown = true
			l.mu.Unlock()
		}

	case message.CmdKeypadCode:
		if e, err := DecodeKeypadEntry(payload); err == nil {
			l.mu.Lock()
			l.keypadEntries = append(l.keypadEntries, e)
			l.keypadReceived++
			l.mu.Unlock()
		}

	case message.CmdKeypadCodeID:
		if len(payload) >= 2 {
			l.mu.Lock()
			l.lastKeypadCodeID = binary.LittleEndian.Uint16(payload)
			l.mu.Unlock()
		}

	case message.CmdAuthorizationEntryCount:
		if len(payload) >= 2 {
			l.mu.Lock()
			l.authCount = binary.LittleEndian.Uint16(payload)
			l.authCountKnown = true
			l.mu.Unlock()
		}

	case message.CmdAuthorizationEntry:
		if e, err := DecodeAuthorizationEntry(payload); err == nil {
			l.mu.Lock()
			l.authEntries = append(l.authEntries, e)
			l.mu.Unlock()
		}

	case message.CmdTimeControlEntryCount:
		if len(payload) >= 1 {
			l.mu.Lock()
			l.timeControlCount = payload[0]
			l.timeControlKnown = true
			l.mu.Unlock()
		}

	case message.CmdTimeControlEntry:
		if e, err := DecodeTimeControlEntry(payload); err == nil {
			l.mu.Lock()
			l.timeControlEntries = append(l.timeControlEntries, e)
			l.mu.Unlock()
		}

	case message.CmdLogEntryCount:
		// | logging enabled (1) | count (2 LE) |
		if len(payload) >= 3 {
			l.mu.Lock()
			l.loggingEnabled = payload[0] != 0
			l.logCount = binary.LittleEndian.Uint16(payload[1:3])
			l.logCountKnown = true
			l.mu.Unlock()
		}

	case message.CmdLogEntry:
		if e, err := DecodeLogEntry(payload); err == nil {
			l.mu.Lock()
			l.logEntries = append(l.logEntries, e)
			l.mu.Unlock()
		}
	}
}

// LockAction executes a keyturner verb. The optional name suffix is
// appended to the log entry the device writes, truncated to 19 bytes.
//
// Payload: | action (1) | app id (4 LE) | flags (1) | name suffix (0 or 20) |
func (l *Lock) LockAction(action Action, appID uint32, flags uint8, nameSuffix string) client.CmdResult {
	payload := make([]byte, 6, 26)
	payload[0] = byte(action)
	binary.LittleEndian.PutUint32(payload[1:5], appID)
	payload[5] = flags
	if nameSuffix != "" {
		var suffix [20]byte
		copy(suffix[:19], nameSuffix)
		payload = append(payload, suffix[:]...)
	}
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndAccept,
		Command: message.CmdLockAction,
		Payload: payload,
	})
}

// Lock turns the key to the locked position.
func (l *Lock) Lock(appID uint32) client.CmdResult {
	return l.LockAction(ActionLock, appID, 0, "")
}

// Unlock turns the key to the unlocked position.
func (l *Lock) Unlock(appID uint32) client.CmdResult {
	return l.LockAction(ActionUnlock, appID, 0, "")
}

// Unlatch unlocks and pulls the latch.
func (l *Lock) Unlatch(appID uint32) client.CmdResult {
	return l.LockAction(ActionUnlatch, appID, 0, "")
}

// KeypadAction forwards a keypad action request.
//
// Payload: | source (1) | code (4 LE) | action (1) |
func (l *Lock) KeypadAction(source KeypadActionSource, code uint32, action uint8) client.CmdResult {
	payload := make([]byte, 6)
	payload[0] = byte(source)
	binary.LittleEndian.PutUint32(payload[1:5], code)
	payload[5] = action
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndAccept,
		Command: message.CmdKeypadAction,
		Payload: payload,
	})
}

// RequestKeyTurnerState reads the current device state.
func (l *Lock) RequestKeyTurnerState() (*KeyTurnerState, client.CmdResult) {
	var req [2]byte
	binary.LittleEndian.PutUint16(req[:], uint16(message.CmdKeyturnerStates))
	result := l.ExecuteAction(&client.Action{
		Kind:    client.KindCommand,
		Command: message.CmdRequestData,
		Payload: req[:],
	})
	if result != client.CmdResultSuccess {
		return nil, result
	}
	return l.KeyTurnerState(), result
}

// KeyTurnerState returns the last received state record without contacting
// the device.
func (l *Lock) KeyTurnerState() *KeyTurnerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// RequestBatteryReport reads the detailed battery record.
func (l *Lock) RequestBatteryReport() (*BatteryReport, client.CmdResult) {
	var req [2]byte
	binary.LittleEndian.PutUint16(req[:], uint16(message.CmdBatteryReport))
	result := l.ExecuteAction(&client.Action{
		Kind:    client.KindCommand,
		Command: message.CmdRequestData,
		Payload: req[:],
	})
	if result != client.CmdResultSuccess {
		return nil, result
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.battery, result
}

// IsBatteryCritical reports the critical bit of the cached state.
func (l *Lock) IsBatteryCritical() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state != nil && l.state.BatteryCritical()
}

// IsBatteryCharging reports the charging bit of the cached state.
func (l *Lock) IsBatteryCharging() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state != nil && l.state.BatteryCharging()
}

// BatteryPercent returns the charge estimate of the cached state.
func (l *Lock) BatteryPercent() uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == nil {
		return 0
	}
	return l.state.BatteryPercent()
}

// RequestConfig reads the configuration record.
func (l *Lock) RequestConfig() (*Config, client.CmdResult) {
	result := l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallenge,
		Command: message.CmdRequestConfig,
	})
	if result != client.CmdResultSuccess {
		return nil, result
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config, result
}

// SetConfig writes a full configuration.
func (l *Lock) SetConfig(c *NewConfig) client.CmdResult {
	payload, err := EncodeNewConfig(c)
	if err != nil {
		return client.CmdResultFailed
	}
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdSetConfig,
		Payload: payload,
	})
}

// RequestAdvancedConfig reads the advanced configuration record.
func (l *Lock) RequestAdvancedConfig() (*AdvancedConfig, client.CmdResult) {
	result := l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallenge,
		Command: message.CmdRequestAdvancedConfig,
	})
	if result != client.CmdResultSuccess {
		return nil, result
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.advanced, result
}

// SetAdvancedConfig writes a full advanced configuration.
func (l *Lock) SetAdvancedConfig(c *NewAdvancedConfig) client.CmdResult {
	payload := EncodeNewAdvancedConfig(c, l.IsUltra())
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdSetAdvancedConfig,
		Payload: payload,
	})
}

// EnableLogging switches the activity log on or off.
func (l *Lock) EnableLogging(enable bool) client.CmdResult {
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdEnableLogging,
		Payload: []byte{boolByte(enable)},
	})
}
