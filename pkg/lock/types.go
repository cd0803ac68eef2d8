// Package lock implements the Nuki Smart Lock profile: its BLE service and
// characteristic set, the keyturner record codecs and the high-level lock
// API over the generic protocol engine.
package lock

import (
	"fmt"
	"time"
)

// LockState is the keyturner position reported in the state record.
type LockState uint8

// Lock states.
const (
	LockStateUncalibrated LockState = 0x00
	LockStateLocked       LockState = 0x01
	LockStateUnlocking    LockState = 0x02
	LockStateUnlocked     LockState = 0x03
	LockStateLocking      LockState = 0x04
	LockStateUnlatched    LockState = 0x05
	LockStateUnlockedLnga LockState = 0x06
	LockStateUnlatching   LockState = 0x07
	LockStateCalibration  LockState = 0xFC
	LockStateBootRun      LockState = 0xFD
	LockStateMotorBlocked LockState = 0xFE
	LockStateUndefined    LockState = 0xFF
)

func (s LockState) String() string {
	switch s {
	case LockStateUncalibrated:
		return "Uncalibrated"
	case LockStateLocked:
		return "Locked"
	case LockStateUnlocking:
		return "Unlocking"
	case LockStateUnlocked:
		return "Unlocked"
	case LockStateLocking:
		return "Locking"
	case LockStateUnlatched:
		return "Unlatched"
	case LockStateUnlockedLnga:
		return "UnlockedLockNgo"
	case LockStateUnlatching:
		return "Unlatching"
	case LockStateCalibration:
		return "Calibration"
	case LockStateBootRun:
		return "BootRun"
	case LockStateMotorBlocked:
		return "MotorBlocked"
	case LockStateUndefined:
		return "Undefined"
	default:
		return fmt.Sprintf("LockState(0x%02X)", uint8(s))
	}
}

// Action is a high-level keyturner verb.
type Action uint8

// Lock actions.
const (
	ActionUnlock         Action = 0x01
	ActionLock           Action = 0x02
	ActionUnlatch        Action = 0x03
	ActionLockNgo        Action = 0x04
	ActionLockNgoUnlatch Action = 0x05
	ActionFullLock       Action = 0x06
	ActionFobAction1     Action = 0x81
	ActionFobAction2     Action = 0x82
	ActionFobAction3     Action = 0x83
)

func (a Action) String() string {
	switch a {
	case ActionUnlock:
		return "Unlock"
	case ActionLock:
		return "Lock"
	case ActionUnlatch:
		return "Unlatch"
	case ActionLockNgo:
		return "LockNgo"
	case ActionLockNgoUnlatch:
		return "LockNgoUnlatch"
	case ActionFullLock:
		return "FullLock"
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

// Trigger identifies what initiated the last state change.
type Trigger uint8

// Triggers.
const (
	TriggerSystem    Trigger = 0x00
	TriggerManual    Trigger = 0x01
	TriggerButton    Trigger = 0x02
	TriggerAutomatic Trigger = 0x03
	TriggerAutoLock  Trigger = 0x06
)

// CompletionStatus reports how the last lock action ended.
type CompletionStatus uint8

// Completion statuses.
const (
	CompletionSuccess           CompletionStatus = 0x00
	CompletionMotorBlocked      CompletionStatus = 0x01
	CompletionCanceled          CompletionStatus = 0x02
	CompletionTooRecent         CompletionStatus = 0x03
	CompletionBusy              CompletionStatus = 0x04
	CompletionLowMotorVoltage   CompletionStatus = 0x05
	CompletionClutchFailure     CompletionStatus = 0x06
	CompletionMotorPowerFailure CompletionStatus = 0x07
	CompletionIncomplete        CompletionStatus = 0x08
	CompletionOtherError        CompletionStatus = 0xFE
	CompletionUnknown           CompletionStatus = 0xFF
)

// DoorSensorState is the optional door sensor reading.
type DoorSensorState uint8

// Door sensor states.
const (
	DoorSensorUnavailable DoorSensorState = 0x00
	DoorSensorDeactivated DoorSensorState = 0x01
	DoorSensorClosed      DoorSensorState = 0x02
	DoorSensorOpened      DoorSensorState = 0x03
	DoorSensorUnknown     DoorSensorState = 0x04
	DoorSensorCalibrating DoorSensorState = 0x05
)

// ButtonPressAction configures what a button press does.
type ButtonPressAction uint8

// Button press actions.
const (
	ButtonActionNone        ButtonPressAction = 0x00
	ButtonActionIntelligent ButtonPressAction = 0x01
	ButtonActionUnlock      ButtonPressAction = 0x02
	ButtonActionLock        ButtonPressAction = 0x03
	ButtonActionUnlatch     ButtonPressAction = 0x04
	ButtonActionLockNgo     ButtonPressAction = 0x05
	ButtonActionShowStatus  ButtonPressAction = 0x06
)

// BatteryType selects the discharge curve used for the battery estimate.
type BatteryType uint8

// Battery types.
const (
	BatteryAlkali       BatteryType = 0x00
	BatteryAccumulators BatteryType = 0x01
	BatteryLithium      BatteryType = 0x02
)

// AdvertisingMode trades beacon cadence against battery life.
type AdvertisingMode uint8

// Advertising modes.
const (
	AdvertisingAutomatic AdvertisingMode = 0x00
	AdvertisingNormal    AdvertisingMode = 0x01
	AdvertisingSlow      AdvertisingMode = 0x02
	AdvertisingSlowest   AdvertisingMode = 0x03
)

// MotorSpeed selects the keyturner motor profile.
type MotorSpeed uint8

// Motor speeds.
const (
	MotorSpeedStandard MotorSpeed = 0x00
	MotorSpeedInsane   MotorSpeed = 0x01
	MotorSpeedGentle   MotorSpeed = 0x02
)

// KeypadActionSource identifies where a keypad action request originated.
type KeypadActionSource uint8

// Keypad action sources.
const (
	KeypadSourceArrowKey KeypadActionSource = 0x00
)

// KeyTurnerState is the device state record.
type KeyTurnerState struct {
	NukiState             uint8
	LockState             LockState
	Trigger               Trigger
	CurrentTime           time.Time
	TimeZoneOffsetMinutes int16
	CriticalBatteryState  uint8
	ConfigUpdateCount     uint8
	LockNgoTimer          uint8
	LastLockAction        Action
	LastLockActionTrigger Trigger
	LastLockActionStatus  CompletionStatus
	DoorSensorState       DoorSensorState
	NightModeActive       uint16
	AccessoryBattery      uint8
}

// BatteryCritical reports the critical-battery bit.
func (s *KeyTurnerState) BatteryCritical() bool {
	if s.CriticalBatteryState == 0xFF {
		return false
	}
	return s.CriticalBatteryState&0x01 != 0
}

// BatteryCharging reports the charging bit.
func (s *KeyTurnerState) BatteryCharging() bool {
	if s.CriticalBatteryState == 0xFF {
		return false
	}
	return s.CriticalBatteryState&0x02 != 0
}

// BatteryPercent returns the coarse charge estimate in percent.
func (s *KeyTurnerState) BatteryPercent() uint8 {
	return (s.CriticalBatteryState & 0xFC) >> 1
}

// KeypadBatteryCritical reports the keypad accessory battery bit.
func (s *KeyTurnerState) KeypadBatteryCritical() bool {
	if s.AccessoryBattery == 0xFF {
		return false
	}
	return s.AccessoryBattery&0x03 == 0x03
}

// DoorSensorBatteryCritical reports the door sensor accessory battery bit.
func (s *KeyTurnerState) DoorSensorBatteryCritical() bool {
	if s.AccessoryBattery == 0xFF {
		return false
	}
	return s.AccessoryBattery&0x0C == 0x0C
}

// BatteryReport is the detailed battery record.
type BatteryReport struct {
	BatteryDrain      uint16
	BatteryVoltage    uint16
	CriticalBattery   uint8
	LockAction        Action
	StartVoltage      uint16
	LowestVoltage     uint16
	LockDistance      uint16
	StartTemperature  int8
	MaxTurnCurrent    uint16
	BatteryResistance uint16
}

// Config is the device configuration record.
type Config struct {
	NukiID           uint32
	Name             string
	Latitude         float32
	Longitude        float32
	AutoUnlatch      bool
	PairingEnabled   bool
	ButtonEnabled    bool
	LedEnabled       bool
	LedBrightness    uint8
	CurrentTime      time.Time
	TimeZoneOffset   int16
	DstMode          uint8
	HasFob           bool
	FobAction1       uint8
	FobAction2       uint8
	FobAction3       uint8
	SingleLock       bool
	AdvertisingMode  AdvertisingMode
	HasKeypad        bool
	FirmwareVersion  [3]uint8
	HardwareRevision [2]uint8
	HomeKitStatus    uint8
	TimeZoneID       uint16
}

// NewConfig is the writable subset sent with SetConfig.
type NewConfig struct {
	Name            string
	Latitude        float32
	Longitude       float32
	AutoUnlatch     bool
	PairingEnabled  bool
	ButtonEnabled   bool
	LedEnabled      bool
	LedBrightness   uint8
	TimeZoneOffset  int16
	DstMode         uint8
	FobAction1      uint8
	FobAction2      uint8
	FobAction3      uint8
	SingleLock      bool
	AdvertisingMode AdvertisingMode
	TimeZoneID      uint16
}

// NewConfigFromConfig copies the writable fields of a read configuration.
// Config mutators fetch, modify one field and write back.
func NewConfigFromConfig(c *Config) *NewConfig {
	return &NewConfig{
		Name:            c.Name,
		Latitude:        c.Latitude,
		Longitude:       c.Longitude,
		AutoUnlatch:     c.AutoUnlatch,
		PairingEnabled:  c.PairingEnabled,
		ButtonEnabled:   c.ButtonEnabled,
		LedEnabled:      c.LedEnabled,
		LedBrightness:   c.LedBrightness,
		TimeZoneOffset:  c.TimeZoneOffset,
		DstMode:         c.DstMode,
		FobAction1:      c.FobAction1,
		FobAction2:      c.FobAction2,
		FobAction3:      c.FobAction3,
		SingleLock:      c.SingleLock,
		AdvertisingMode: c.AdvertisingMode,
		TimeZoneID:      c.TimeZoneID,
	}
}

// AdvancedConfig is the advanced configuration record.
type AdvancedConfig struct {
	TotalDegrees                   uint16
	UnlockedPositionOffset         int16
	LockedPositionOffset           int16
	SingleLockedPositionOffset     int16
	UnlockedToLockedOffset         int16
	LockNgoTimeout                 uint8
	SingleButtonPressAction        ButtonPressAction
	DoubleButtonPressAction        ButtonPressAction
	DetachedCylinder               bool
	BatteryType                    BatteryType
	AutomaticBatteryTypeDetection  bool
	UnlatchDuration                uint8
	AutoLockTimeOut                uint16
	AutoUnLockDisabled             bool
	NightModeEnabled               bool
	NightModeStartTime             [2]uint8
	NightModeEndTime               [2]uint8
	NightModeAutoLockEnabled       bool
	NightModeAutoUnlockDisabled    bool
	NightModeImmediateLockOnStart  bool
	AutoLockEnabled                bool
	ImmediateAutoLockEnabled       bool
	AutoUpdateEnabled              bool
	MotorSpeed                     MotorSpeed
	EnableSlowSpeedDuringNightMode bool
}

// NewAdvancedConfig is the writable subset sent with SetAdvancedConfig.
// The trailing motor speed fields exist on the ultra family only; the
// encoder truncates them for classic devices.
type NewAdvancedConfig struct {
	UnlockedPositionOffset         int16
	LockedPositionOffset           int16
	SingleLockedPositionOffset     int16
	UnlockedToLockedOffset         int16
	LockNgoTimeout                 uint8
	SingleButtonPressAction        ButtonPressAction
	DoubleButtonPressAction        ButtonPressAction
	DetachedCylinder               bool
	BatteryType                    BatteryType
	AutomaticBatteryTypeDetection  bool
	UnlatchDuration                uint8
	AutoLockTimeOut                uint16
	AutoUnLockDisabled             bool
	NightModeEnabled               bool
	NightModeStartTime             [2]uint8
	NightModeEndTime               [2]uint8
	NightModeAutoLockEnabled       bool
	NightModeAutoUnlockDisabled    bool
	NightModeImmediateLockOnStart  bool
	AutoLockEnabled                bool
	ImmediateAutoLockEnabled       bool
	AutoUpdateEnabled              bool
	MotorSpeed                     MotorSpeed
	EnableSlowSpeedDuringNightMode bool
}

// NewAdvancedConfigFromConfig copies the writable fields of a read record.
func NewAdvancedConfigFromConfig(c *AdvancedConfig) *NewAdvancedConfig {
	return &NewAdvancedConfig{
		UnlockedPositionOffset:         c.UnlockedPositionOffset,
		LockedPositionOffset:           c.LockedPositionOffset,
		SingleLockedPositionOffset:     c.SingleLockedPositionOffset,
		UnlockedToLockedOffset:         c.UnlockedToLockedOffset,
		LockNgoTimeout:                 c.LockNgoTimeout,
		SingleButtonPressAction:        c.SingleButtonPressAction,
		DoubleButtonPressAction:        c.DoubleButtonPressAction,
		DetachedCylinder:               c.DetachedCylinder,
		BatteryType:                    c.BatteryType,
		AutomaticBatteryTypeDetection:  c.AutomaticBatteryTypeDetection,
		UnlatchDuration:                c.UnlatchDuration,
		AutoLockTimeOut:                c.AutoLockTimeOut,
		AutoUnLockDisabled:             c.AutoUnLockDisabled,
		NightModeEnabled:               c.NightModeEnabled,
		NightModeStartTime:             c.NightModeStartTime,
		NightModeEndTime:               c.NightModeEndTime,
		NightModeAutoLockEnabled:       c.NightModeAutoLockEnabled,
		NightModeAutoUnlockDisabled:    c.NightModeAutoUnlockDisabled,
		NightModeImmediateLockOnStart:  c.NightModeImmediateLockOnStart,
		AutoLockEnabled:                c.AutoLockEnabled,
		ImmediateAutoLockEnabled:       c.ImmediateAutoLockEnabled,
		AutoUpdateEnabled:              c.AutoUpdateEnabled,
		MotorSpeed:                     c.MotorSpeed,
		EnableSlowSpeedDuringNightMode: c.EnableSlowSpeedDuringNightMode,
	}
}

// KeypadEntry is one stored keypad code.
type KeypadEntry struct {
	CodeID           uint16
	Code             uint32
	Name             string
	Enabled          bool
	DateCreated      time.Time
	DateLastActive   time.Time
	LockCount        uint16
	TimeLimited      bool
	AllowedFromDate  time.Time
	AllowedUntilDate time.Time
	AllowedWeekdays  uint8
	AllowedFromTime  [2]uint8
	AllowedUntilTime [2]uint8
}

// NewKeypadEntry creates a keypad code.
type NewKeypadEntry struct {
	Code             uint32
	Name             string
	TimeLimited      bool
	AllowedFromDate  time.Time
	AllowedUntilDate time.Time
	AllowedWeekdays  uint8
	AllowedFromTime  [2]uint8
	AllowedUntilTime [2]uint8
}

// UpdatedKeypadEntry rewrites an existing keypad code.
type UpdatedKeypadEntry struct {
	CodeID           uint16
	Code             uint32
	Name             string
	Enabled          bool
	TimeLimited      bool
	AllowedFromDate  time.Time
	AllowedUntilDate time.Time
	AllowedWeekdays  uint8
	AllowedFromTime  [2]uint8
	AllowedUntilTime [2]uint8
}

// AuthorizationEntry is one stored authorization.
type AuthorizationEntry struct {
	AuthID           uint32
	IDType           uint8
	Name             string
	Enabled          bool
	RemoteAllowed    bool
	DateCreated      time.Time
	DateLastActive   time.Time
	LockCount        uint16
	TimeLimited      bool
	AllowedFromDate  time.Time
	AllowedUntilDate time.Time
	AllowedWeekdays  uint8
	AllowedFromTime  [2]uint8
	AllowedUntilTime [2]uint8
}

// NewAuthorizationEntry invites a new authorization.
type NewAuthorizationEntry struct {
	Name             string
	IDType           uint8
	SharedKey        [32]byte
	RemoteAllowed    bool
	TimeLimited      bool
	AllowedFromDate  time.Time
	AllowedUntilDate time.Time
	AllowedWeekdays  uint8
	AllowedFromTime  [2]uint8
	AllowedUntilTime [2]uint8
}

// UpdatedAuthorizationEntry rewrites an existing authorization.
type UpdatedAuthorizationEntry struct {
	AuthID           uint32
	Name             string
	Enabled          bool
	RemoteAllowed    bool
	TimeLimited      bool
	AllowedFromDate  time.Time
	AllowedUntilDate time.Time
	AllowedWeekdays  uint8
	AllowedFromTime  [2]uint8
	AllowedUntilTime [2]uint8
}

// TimeControlEntry is one scheduled lock action.
type TimeControlEntry struct {
	EntryID    uint8
	Enabled    bool
	Weekdays   uint8
	Hour       uint8
	Minute     uint8
	LockAction Action
}

// NewTimeControlEntry schedules a lock action.
type NewTimeControlEntry struct {
	Weekdays   uint8
	Hour       uint8
	Minute     uint8
	LockAction Action
}

// LogEntry is one activity log record.
type LogEntry struct {
	Index     uint32
	Timestamp time.Time
	AuthID    uint32
	Name      string
	Type      uint8
	Data      []byte
}

// Log sort order for RequestLogEntries.
const (
	LogSortAscending  uint8 = 0x00
	LogSortDescending uint8 = 0x01
)
