// Package opener implements the Nuki Opener profile over the generic
// protocol engine.
package opener

import (
	"fmt"
	"time"
)

// State is the opener state reported in the state record.
type State uint8

// Opener states.
const (
	StateUntrained State = 0x00
	StateOnline    State = 0x01
	StateRTOActive State = 0x03
	StateOpen      State = 0x05
	StateOpening   State = 0x07
	StateBootRun   State = 0xFD
	StateUndefined State = 0xFF
)

func (s State) String() string {
	switch s {
	case StateUntrained:
		return "Untrained"
	case StateOnline:
		return "Online"
	case StateRTOActive:
		return "RTOActive"
	case StateOpen:
		return "Open"
	case StateOpening:
		return "Opening"
	case StateBootRun:
		return "BootRun"
	case StateUndefined:
		return "Undefined"
	default:
		return fmt.Sprintf("State(0x%02X)", uint8(s))
	}
}

// Action is a high-level opener verb.
type Action uint8

// Opener actions.
const (
	ActionActivateRTO             Action = 0x01
	ActionDeactivateRTO           Action = 0x02
	ActionElectricStrikeActuation Action = 0x03
	ActionActivateCM              Action = 0x04
	ActionDeactivateCM            Action = 0x05
	ActionFobAction1              Action = 0x81
	ActionFobAction2              Action = 0x82
	ActionFobAction3              Action = 0x83
)

func (a Action) String() string {
	switch a {
	case ActionActivateRTO:
		return "ActivateRTO"
	case ActionDeactivateRTO:
		return "DeactivateRTO"
	case ActionElectricStrikeActuation:
		return "ElectricStrikeActuation"
	case ActionActivateCM:
		return "ActivateCM"
	case ActionDeactivateCM:
		return "DeactivateCM"
	case ActionFobAction1:
		return "FobAction1"
	case ActionFobAction2:
		return "FobAction2"
	case ActionFobAction3:
		return "FobAction3"
	default:
		return fmt.Sprintf("Action(0x%02X)", uint8(a))
	}
}

// OpenerState is the device state record.
type OpenerState struct {
	NukiState             uint8
	State                 State
	Trigger               uint8
	CurrentTime           time.Time
	TimeZoneOffsetMinutes int16
	CriticalBatteryState  uint8
	ConfigUpdateCount     uint8
	RingToOpenTimer       uint8
	LastLockAction        Action
	LastLockActionTrigger uint8
	LastLockActionStatus  uint8
	DoorSensorState       uint8
}

// BatteryCritical reports the critical-battery bit.
func (s *OpenerState) BatteryCritical() bool {
	if s.CriticalBatteryState == 0xFF {
		return false
	}
	return s.CriticalBatteryState&0x01 != 0
}

// Config is the opener configuration record.
type Config struct {
	NukiID           uint32
	Name             string
	Latitude         float32
	Longitude        float32
	PairingEnabled   bool
	ButtonEnabled    bool
	LedEnabled       bool
	CurrentTime      time.Time
	TimeZoneOffset   int16
	DstMode          uint8
	HasFob           bool
	FobAction1       uint8
	FobAction2       uint8
	FobAction3       uint8
	OperatingMode    uint8
	AdvertisingMode  uint8
	HasKeypad        bool
	FirmwareVersion  [3]uint8
	HardwareRevision [2]uint8
	TimeZoneID       uint16
}
