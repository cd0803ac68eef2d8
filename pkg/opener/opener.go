package opener

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/backkem/nuki/pkg/client"
	"github.com/backkem/nuki/pkg/message"
)

// Opener BLE identifiers. The opener family has no ultra variant; the
// ultra slots alias the classic identifiers.
var (
	pairingServiceUUID = uuid.MustParse("a92ae100-5501-11e4-916c-0800200c9a66")
	gdioUUID           = uuid.MustParse("a92ae101-5501-11e4-916c-0800200c9a66")
	openerServiceUUID  = uuid.MustParse("a92ae200-5501-11e4-916c-0800200c9a66")
	usdioUUID          = uuid.MustParse("a92ae202-5501-11e4-916c-0800200c9a66")
)

// Codec errors.
var (
	ErrRecordTooShort = errors.New("opener: record too short")
)

const openerStateSize = 19
const openerConfigSize = 72

// Profile returns the Opener device profile.
func Profile() client.Profile {
	return client.Profile{
		Name:                "opener",
		PairingService:      pairingServiceUUID,
		PairingServiceUltra: pairingServiceUUID,
		Service:             openerServiceUUID,
		GDIO:                gdioUUID,
		GDIOUltra:           gdioUUID,
		USDIO:               usdioUUID,
	}
}

// Opener is the high-level Opener client.
type Opener struct {
	*client.Device

	mu     sync.Mutex
	state  *OpenerState
	config *Config
}

// New creates an Opener client. The profile and record handler fields of
// the config are filled in here.
func New(config client.Config) (*Opener, error) {
	o := &Opener{}
	config.Profile = Profile()
	config.Handler = o
	device, err := client.NewDevice(config)
	if err != nil {
		return nil, err
	}
	o.Device = device
	return o, nil
}

// HandleRecord implements client.RecordHandler.
func (o *Opener) HandleRecord(cmd message.Command, payload []byte) {
	switch cmd {
	case message.CmdKeyturnerStates:
		if s, err := DecodeOpenerState(payload); err == nil {
			o.mu.Lock()
			o.state = s
			o.mu.Unlock()
		}
	case message.CmdConfig:
		if c, err := DecodeConfig(payload); err == nil {
			o.mu.Lock()
			o.config = c
			o.mu.Unlock()
		}
	}
}

// DecodeOpenerState parses an opener state record.
func DecodeOpenerState(data []byte) (*OpenerState, error) {
	if len(data) < openerStateSize {
		return nil, ErrRecordTooShort
	}
	return &OpenerState{
		NukiState:             data[0],
		State:                 State(data[1]),
		Trigger:               data[2],
		CurrentTime:           getDateTime(data[3:10]),
		TimeZoneOffsetMinutes: int16(binary.LittleEndian.Uint16(data[10:12])),
		CriticalBatteryState:  data[12],
		ConfigUpdateCount:     data[13],
		RingToOpenTimer:       data[14],
		LastLockAction:        Action(data[15]),
		LastLockActionTrigger: data[16],
		LastLockActionStatus:  data[17],
		DoorSensorState:       data[18],
	}, nil
}

// EncodeOpenerState builds the 19-byte state record.
func EncodeOpenerState(s *OpenerState) []byte {
	buf := make([]byte, openerStateSize)
	buf[0] = s.NukiState
	buf[1] = byte(s.State)
	buf[2] = s.Trigger
	putDateTime(buf[3:10], s.CurrentTime)
	binary.LittleEndian.PutUint16(buf[10:12], uint16(s.TimeZoneOffsetMinutes))
	buf[12] = s.CriticalBatteryState
	buf[13] = s.ConfigUpdateCount
	buf[14] = s.RingToOpenTimer
	buf[15] = byte(s.LastLockAction)
	buf[16] = s.LastLockActionTrigger
	buf[17] = s.LastLockActionStatus
	buf[18] = s.DoorSensorState
	return buf
}

// DecodeConfig parses an opener configuration record.
func DecodeConfig(data []byte) (*Config, error) {
	if len(data) < openerConfigSize {
		return nil, ErrRecordTooShort
	}
	c := &Config{
		NukiID:          binary.LittleEndian.Uint32(data[0:4]),
		Name:            strings.TrimRight(string(data[4:36]), "\x00"),
		Latitude:        math.Float32frombits(binary.LittleEndian.Uint32(data[36:40])),
		Longitude:       math.Float32frombits(binary.LittleEndian.Uint32(data[40:44])),
		PairingEnabled:  data[44] != 0,
		ButtonEnabled:   data[45] != 0,
		LedEnabled:      data[46] != 0,
		CurrentTime:     getDateTime(data[47:54]),
		TimeZoneOffset:  int16(binary.LittleEndian.Uint16(data[54:56])),
		DstMode:         data[56],
		HasFob:          data[57] != 0,
		FobAction1:      data[58],
		FobAction2:      data[59],
		FobAction3:      data[60],
		OperatingMode:   data[61],
		AdvertisingMode: data[62],
		HasKeypad:       data[63] != 0,
		TimeZoneID:      binary.LittleEndian.Uint16(data[70:72]),
	}
	copy(c.FirmwareVersion[:], data[64:67])
	copy(c.HardwareRevision[:], data[67:69])
	return c, nil
}

func putDateTime(buf []byte, t time.Time) {
	binary.LittleEndian.PutUint16(buf, uint16(t.Year()))
	buf[2] = byte(t.Month())
	buf[3] = byte(t.Day())
	buf[4] = byte(t.Hour())
	buf[5] = byte(t.Minute())
	buf[6] = byte(t.Second())
}

func getDateTime(buf []byte) time.Time {
	year := int(binary.LittleEndian.Uint16(buf))
	if year == 0 {
		return time.Time{}
	}
	return time.Date(year, time.Month(buf[2]), int(buf[3]),
		int(buf[4]), int(buf[5]), int(buf[6]), 0, time.UTC)
}

// LockAction executes an opener verb.
//
// Payload: | action (1) | app id (4 LE) | flags (1) |
func (o *Opener) LockAction(action Action, appID uint32, flags uint8) client.CmdResult {
	payload := make([]byte, 6)
	payload[0] = byte(action)
	binary.LittleEndian.PutUint32(payload[1:5], appID)
	payload[5] = flags
	return o.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndAccept,
		Command: message.CmdLockAction,
		Payload: payload,
	})
}

// ActivateRingToOpen arms ring-to-open.
func (o *Opener) ActivateRingToOpen(appID uint32) client.CmdResult {
	return o.LockAction(ActionActivateRTO, appID, 0)
}

// DeactivateRingToOpen disarms ring-to-open.
func (o *Opener) DeactivateRingToOpen(appID uint32) client.CmdResult {
	return o.LockAction(ActionDeactivateRTO, appID, 0)
}

// ElectricStrikeActuation buzzes the door open.
func (o *Opener) ElectricStrikeActuation(appID uint32) client.CmdResult {
	return o.LockAction(ActionElectricStrikeActuation, appID, 0)
}

// ActivateContinuousMode keeps the strike permanently actuated.
func (o *Opener) ActivateContinuousMode(appID uint32) client.CmdResult {
	return o.LockAction(ActionActivateCM, appID, 0)
}

// DeactivateContinuousMode ends continuous mode.
func (o *Opener) DeactivateContinuousMode(appID uint32) client.CmdResult {
	return o.LockAction(ActionDeactivateCM, appID, 0)
}

// RequestOpenerState reads the current device state.
func (o *Opener) RequestOpenerState() (*OpenerState, client.CmdResult) {
	var req [2]byte
	binary.LittleEndian.PutUint16(req[:], uint16(message.CmdKeyturnerStates))
	result := o.ExecuteAction(&client.Action{
		Kind:    client.KindCommand,
		Command: message.CmdRequestData,
		Payload: req[:],
	})
	if result != client.CmdResultSuccess {
		return nil, result
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state, result
}

// OpenerState returns the last received state record.
func (o *Opener) OpenerState() *OpenerState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// RequestConfig reads the configuration record.
func (o *Opener) RequestConfig() (*Config, client.CmdResult) {
	result := o.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallenge,
		Command: message.CmdRequestConfig,
	})
	if result != client.CmdResultSuccess {
		return nil, result
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.config, result
}
