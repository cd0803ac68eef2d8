// Record codecs for the Smart Lock profile. Records are decoded
// field-by-field with explicit little-endian rules; nothing relies on host
// struct layout.

package lock

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"time"
)

// Codec errors.
var (
	ErrRecordTooShort = errors.New("lock: record too short")
	ErrNameTooLong    = errors.New("lock: name exceeds field size")
)

// Record sizes.
const (
	keyTurnerStateMinSize = 19
	batteryReportSize     = 17
	configSize            = 74
	newConfigSize         = 55
	advancedConfigMinSize = 26
	dateTimeSize          = 7
	timeSlotSize          = 2
	nameFieldSize         = 32
	keypadNameSize        = 20
)

// putDateTime writes | year (2 LE) | month | day | hour | minute | second |.
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

func putName(buf []byte, name string) {
	for i := range buf {
		buf[i] = 0
	}
	copy(buf, name)
}

func getName(buf []byte) string {
	return strings.TrimRight(string(buf), "\x00")
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// DecodeKeyTurnerState parses a KeyturnerStates record. Fields past the
// door sensor state are optional on older firmware and default to zero.
func DecodeKeyTurnerState(data []byte) (*KeyTurnerState, error) {
	if len(data) < keyTurnerStateMinSize {
		return nil, ErrRecordTooShort
	}
	s := &KeyTurnerState{
		NukiState:             data[0],
		LockState:             LockState(data[1]),
		Trigger:               Trigger(data[2]),
		CurrentTime:           getDateTime(data[3:10]),
		TimeZoneOffsetMinutes: int16(binary.LittleEndian.Uint16(data[10:12])),
		CriticalBatteryState:  data[12],
		ConfigUpdateCount:     data[13],
		LockNgoTimer:          data[14],
		LastLockAction:        Action(data[15]),
		LastLockActionTrigger: Trigger(data[16]),
		LastLockActionStatus:  CompletionStatus(data[17]),
		DoorSensorState:       DoorSensorState(data[18]),
	}
	if len(data) >= 21 {
		s.NightModeActive = binary.LittleEndian.Uint16(data[19:21])
	}
	if len(data) >= 22 {
		s.AccessoryBattery = data[21]
	}
	return s, nil
}

// EncodeKeyTurnerState builds the full 22-byte record. The test peer uses
// it to script device responses.
func EncodeKeyTurnerState(s *KeyTurnerState) []byte {
	buf := make([]byte, 22)
	buf[0] = s.NukiState
	buf[1] = byte(s.LockState)
	buf[2] = byte(s.Trigger)
	putDateTime(buf[3:10], s.CurrentTime)
	binary.LittleEndian.PutUint16(buf[10:12], uint16(s.TimeZoneOffsetMinutes))
	buf[12] = s.CriticalBatteryState
	buf[13] = s.ConfigUpdateCount
	buf[14] = s.LockNgoTimer
	buf[15] = byte(s.LastLockAction)
	buf[16] = byte(s.LastLockActionTrigger)
	buf[17] = byte(s.LastLockActionStatus)
	buf[18] = byte(s.DoorSensorState)
	binary.LittleEndian.PutUint16(buf[19:21], s.NightModeActive)
	buf[21] = s.AccessoryBattery
	return buf
}

// DecodeBatteryReport parses a BatteryReport record.
func DecodeBatteryReport(data []byte) (*BatteryReport, error) {
	if len(data) < batteryReportSize {
		return nil, ErrRecordTooShort
	}
	return &BatteryReport{
		BatteryDrain:      binary.LittleEndian.Uint16(data[0:2]),
		BatteryVoltage:    binary.LittleEndian.Uint16(data[2:4]),
		CriticalBattery:   data[4],
		LockAction:        Action(data[5]),
		StartVoltage:      binary.LittleEndian.Uint16(data[6:8]),
		LowestVoltage:     binary.LittleEndian.Uint16(data[8:10]),
		LockDistance:      binary.LittleEndian.Uint16(data[10:12]),
		StartTemperature:  int8(data[12]),
		MaxTurnCurrent:    binary.LittleEndian.Uint16(data[13:15]),
		BatteryResistance: binary.LittleEndian.Uint16(data[15:17]),
	}, nil
}

// EncodeBatteryReport builds the 17-byte record.
func EncodeBatteryReport(r *BatteryReport) []byte {
	buf := make([]byte, batteryReportSize)
	binary.LittleEndian.PutUint16(buf[0:2], r.BatteryDrain)
	binary.LittleEndian.PutUint16(buf[2:4], r.BatteryVoltage)
	buf[4] = r.CriticalBattery
	buf[5] = byte(r.LockAction)
	binary.LittleEndian.PutUint16(buf[6:8], r.StartVoltage)
	binary.LittleEndian.PutUint16(buf[8:10], r.LowestVoltage)
	binary.LittleEndian.PutUint16(buf[10:12], r.LockDistance)
	buf[12] = byte(r.StartTemperature)
	binary.LittleEndian.PutUint16(buf[13:15], r.MaxTurnCurrent)
	binary.LittleEndian.PutUint16(buf[15:17], r.BatteryResistance)
	return buf
}

// DecodeConfig parses a Config record.
func DecodeConfig(data []byte) (*Config, error) {
	if len(data) < configSize {
		return nil, ErrRecordTooShort
	}
	c := &Config{
		NukiID:          binary.LittleEndian.Uint32(data[0:4]),
		Name:            getName(data[4:36]),
		Latitude:        math.Float32frombits(binary.LittleEndian.Uint32(data[36:40])),
		Longitude:       math.Float32frombits(binary.LittleEndian.Uint32(data[40:44])),
		AutoUnlatch:     data[44] != 0,
		PairingEnabled:  data[45] != 0,
		ButtonEnabled:   data[46] != 0,
		LedEnabled:      data[47] != 0,
		LedBrightness:   data[48],
		CurrentTime:     getDateTime(data[49:56]),
		TimeZoneOffset:  int16(binary.LittleEndian.Uint16(data[56:58])),
		DstMode:         data[58],
		HasFob:          data[59] != 0,
		FobAction1:      data[60],
		FobAction2:      data[61],
		FobAction3:      data[62],
		SingleLock:      data[63] != 0,
		AdvertisingMode: AdvertisingMode(data[64]),
		HasKeypad:       data[65] != 0,
		HomeKitStatus:   data[71],
		TimeZoneID:      binary.LittleEndian.Uint16(data[72:74]),
	}
	copy(c.FirmwareVersion[:], data[66:69])
	copy(c.HardwareRevision[:], data[69:71])
	return c, nil
}

// EncodeConfig builds the 74-byte record.
func EncodeConfig(c *Config) []byte {
	buf := make([]byte, configSize)
	binary.LittleEndian.PutUint32(buf[0:4], c.NukiID)
	putName(buf[4:36], c.Name)
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(c.Latitude))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(c.Longitude))
	buf[44] = boolByte(c.AutoUnlatch)
	buf[45] = boolByte(c.PairingEnabled)
	buf[46] = boolByte(c.ButtonEnabled)
	buf[47] = boolByte(c.LedEnabled)
	buf[48] = c.LedBrightness
	putDateTime(buf[49:56], c.CurrentTime)
	binary.LittleEndian.PutUint16(buf[56:58], uint16(c.TimeZoneOffset))
	buf[58] = c.DstMode
	buf[59] = boolByte(c.HasFob)
	buf[60] = c.FobAction1
	buf[61] = c.FobAction2
	buf[62] = c.FobAction3
	buf[63] = boolByte(c.SingleLock)
	buf[64] = byte(c.AdvertisingMode)
	buf[65] = boolByte(c.HasKeypad)
	copy(buf[66:69], c.FirmwareVersion[:])
	copy(buf[69:71], c.HardwareRevision[:])
	buf[71] = c.HomeKitStatus
	binary.LittleEndian.PutUint16(buf[72:74], c.TimeZoneID)
	return buf
}

// EncodeNewConfig builds the 55-byte SetConfig payload.
func EncodeNewConfig(c *NewConfig) ([]byte, error) {
	if len(c.Name) > nameFieldSize {
		return nil, ErrNameTooLong
	}
	buf := make([]byte, newConfigSize)
	putName(buf[0:32], c.Name)
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(c.Latitude))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(c.Longitude))
	buf[40] = boolByte(c.AutoUnlatch)
	buf[41] = boolByte(c.PairingEnabled)
	buf[42] = boolByte(c.ButtonEnabled)
	buf[43] = boolByte(c.LedEnabled)
	buf[44] = c.LedBrightness
	binary.LittleEndian.PutUint16(buf[45:47], uint16(c.TimeZoneOffset))
	buf[47] = c.DstMode
	buf[48] = c.FobAction1
	buf[49] = c.FobAction2
	buf[50] = c.FobAction3
	buf[51] = boolByte(c.SingleLock)
	buf[52] = byte(c.AdvertisingMode)
	binary.LittleEndian.PutUint16(buf[53:55], c.TimeZoneID)
	return buf, nil
}

// DecodeAdvancedConfig parses an AdvancedConfig record. The trailing motor
// speed fields exist on the ultra family only.
func DecodeAdvancedConfig(data []byte) (*AdvancedConfig, error) {
	if len(data) < advancedConfigMinSize {
		return nil, ErrRecordTooShort
	}
	c := &AdvancedConfig{
		TotalDegrees:                  binary.LittleEndian.Uint16(data[0:2]),
		UnlockedPositionOffset:        int16(binary.LittleEndian.Uint16(data[2:4])),
		LockedPositionOffset:          int16(binary.LittleEndian.Uint16(data[4:6])),
		SingleLockedPositionOffset:    int16(binary.LittleEndian.Uint16(data[6:8])),
		UnlockedToLockedOffset:        int16(binary.LittleEndian.Uint16(data[8:10])),
		LockNgoTimeout:                data[10],
		SingleButtonPressAction:       ButtonPressAction(data[11]),
		DoubleButtonPressAction:       ButtonPressAction(data[12]),
		DetachedCylinder:              data[13] != 0,
		BatteryType:                   BatteryType(data[14]),
		AutomaticBatteryTypeDetection: data[15] != 0,
		UnlatchDuration:               data[16],
		AutoLockTimeOut:               binary.LittleEndian.Uint16(data[17:19]),
		AutoUnLockDisabled:            data[19] != 0,
		NightModeEnabled:              data[20] != 0,
		NightModeStartTime:            [2]uint8{data[21], data[22]},
		NightModeEndTime:              [2]uint8{data[23], data[24]},
		NightModeAutoLockEnabled:      data[25] != 0,
	}
	if len(data) >= 29 {
		c.NightModeAutoUnlockDisabled = data[26] != 0
		c.NightModeImmediateLockOnStart = data[27] != 0
		c.AutoLockEnabled = data[28] != 0
	}
	if len(data) >= 31 {
		c.ImmediateAutoLockEnabled = data[29] != 0
		c.AutoUpdateEnabled = data[30] != 0
	}
	if len(data) >= 33 {
		c.MotorSpeed = MotorSpeed(data[31])
		c.EnableSlowSpeedDuringNightMode = data[32] != 0
	}
	return c, nil
}

// EncodeAdvancedConfig builds the full 33-byte record.
func EncodeAdvancedConfig(c *AdvancedConfig) []byte {
	buf := make([]byte, 33)
	binary.LittleEndian.PutUint16(buf[0:2], c.TotalDegrees)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(c.UnlockedPositionOffset))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(c.LockedPositionOffset))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(c.SingleLockedPositionOffset))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(c.UnlockedToLockedOffset))
	buf[10] = c.LockNgoTimeout
	buf[11] = byte(c.SingleButtonPressAction)
	buf[12] = byte(c.DoubleButtonPressAction)
	buf[13] = boolByte(c.DetachedCylinder)
	buf[14] = byte(c.BatteryType)
	buf[15] = boolByte(c.AutomaticBatteryTypeDetection)
	buf[16] = c.UnlatchDuration
	binary.LittleEndian.PutUint16(buf[17:19], c.AutoLockTimeOut)
	buf[19] = boolByte(c.AutoUnLockDisabled)
	buf[20] = boolByte(c.NightModeEnabled)
	buf[21], buf[22] = c.NightModeStartTime[0], c.NightModeStartTime[1]
	buf[23], buf[24] = c.NightModeEndTime[0], c.NightModeEndTime[1]
	buf[25] = boolByte(c.NightModeAutoLockEnabled)
	buf[26] = boolByte(c.NightModeAutoUnlockDisabled)
	buf[27] = boolByte(c.NightModeImmediateLockOnStart)
	buf[28] = boolByte(c.AutoLockEnabled)
	buf[29] = boolByte(c.ImmediateAutoLockEnabled)
	buf[30] = boolByte(c.AutoUpdateEnabled)
	buf[31] = byte(c.MotorSpeed)
	buf[32] = boolByte(c.EnableSlowSpeedDuringNightMode)
	return buf
}

// EncodeNewAdvancedConfig builds the SetAdvancedConfig payload. Classic
// devices reject the two trailing motor speed bytes, so they are only
// emitted for the ultra family.
func EncodeNewAdvancedConfig(c *NewAdvancedConfig, ultra bool) []byte {
	buf := make([]byte, 31)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(c.UnlockedPositionOffset))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(c.LockedPositionOffset))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(c.SingleLockedPositionOffset))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(c.UnlockedToLockedOffset))
	buf[8] = c.LockNgoTimeout
	buf[9] = byte(c.SingleButtonPressAction)
	buf[10] = byte(c.DoubleButtonPressAction)
	buf[11] = boolByte(c.DetachedCylinder)
	buf[12] = byte(c.BatteryType)
	buf[13] = boolByte(c.AutomaticBatteryTypeDetection)
	buf[14] = c.UnlatchDuration
	binary.LittleEndian.PutUint16(buf[15:17], c.AutoLockTimeOut)
	buf[17] = boolByte(c.AutoUnLockDisabled)
	buf[18] = boolByte(c.NightModeEnabled)
	buf[19], buf[20] = c.NightModeStartTime[0], c.NightModeStartTime[1]
	buf[21], buf[22] = c.NightModeEndTime[0], c.NightModeEndTime[1]
	buf[23] = boolByte(c.NightModeAutoLockEnabled)
	buf[24] = boolByte(c.NightModeAutoUnlockDisabled)
	buf[25] = boolByte(c.NightModeImmediateLockOnStart)
	buf[26] = boolByte(c.AutoLockEnabled)
	buf[27] = boolByte(c.ImmediateAutoLockEnabled)
	buf[28] = boolByte(c.AutoUpdateEnabled)
	if !ultra {
		return buf[:29]
	}
	buf[29] = byte(c.MotorSpeed)
	buf[30] = boolByte(c.EnableSlowSpeedDuringNightMode)
	return buf
}

// DecodeKeypadEntry parses one KeypadCode record.
func DecodeKeypadEntry(data []byte) (*KeypadEntry, error) {
	if len(data) < 63 {
		return nil, ErrRecordTooShort
	}
	e := &KeypadEntry{
		CodeID:          binary.LittleEndian.Uint16(data[0:2]),
		Code:            binary.LittleEndian.Uint32(data[2:6]),
		Name:            getName(data[6:26]),
		Enabled:         data[26] != 0,
		DateCreated:     getDateTime(data[27:34]),
		DateLastActive:  getDateTime(data[34:41]),
		LockCount:       binary.LittleEndian.Uint16(data[41:43]),
		TimeLimited:     data[43] != 0,
		AllowedFromDate: getDateTime(data[44:51]),
	}
	e.AllowedUntilDate = getDateTime(data[51:58])
	e.AllowedWeekdays = data[58]
	e.AllowedFromTime = [2]uint8{data[59], data[60]}
	e.AllowedUntilTime = [2]uint8{data[61], data[62]}
	return e, nil
}

// EncodeKeypadEntry builds the 63-byte KeypadCode record.
func EncodeKeypadEntry(e *KeypadEntry) []byte {
	buf := make([]byte, 63)
	binary.LittleEndian.PutUint16(buf[0:2], e.CodeID)
	binary.LittleEndian.PutUint32(buf[2:6], e.Code)
	putName(buf[6:26], e.Name)
	buf[26] = boolByte(e.Enabled)
	putDateTime(buf[27:34], e.DateCreated)
	putDateTime(buf[34:41], e.DateLastActive)
	binary.LittleEndian.PutUint16(buf[41:43], e.LockCount)
	buf[43] = boolByte(e.TimeLimited)
	putDateTime(buf[44:51], e.AllowedFromDate)
	putDateTime(buf[51:58], e.AllowedUntilDate)
	buf[58] = e.AllowedWeekdays
	buf[59], buf[60] = e.AllowedFromTime[0], e.AllowedFromTime[1]
	buf[61], buf[62] = e.AllowedUntilTime[0], e.AllowedUntilTime[1]
	return buf
}

// EncodeNewKeypadEntry builds the AddKeypadCode payload.
func EncodeNewKeypadEntry(e *NewKeypadEntry) ([]byte, error) {
	if len(e.Name) > keypadNameSize {
		return nil, ErrNameTooLong
	}
	buf := make([]byte, 44)
	binary.LittleEndian.PutUint32(buf[0:4], e.Code)
	putName(buf[4:24], e.Name)
	buf[24] = boolByte(e.TimeLimited)
	putDateTime(buf[25:32], e.AllowedFromDate)
	putDateTime(buf[32:39], e.AllowedUntilDate)
	buf[39] = e.AllowedWeekdays
	buf[40], buf[41] = e.AllowedFromTime[0], e.AllowedFromTime[1]
	buf[42], buf[43] = e.AllowedUntilTime[0], e.AllowedUntilTime[1]
	return buf, nil
}

// EncodeUpdatedKeypadEntry builds the UpdateKeypadCode payload.
func EncodeUpdatedKeypadEntry(e *UpdatedKeypadEntry) ([]byte, error) {
	if len(e.Name) > keypadNameSize {
		return nil, ErrNameTooLong
	}
	buf := make([]byte, 47)
	binary.LittleEndian.PutUint16(buf[0:2], e.CodeID)
	binary.LittleEndian.PutUint32(buf[2:6], e.Code)
	putName(buf[6:26], e.Name)
	buf[26] = boolByte(e.Enabled)
	buf[27] = boolByte(e.TimeLimited)
	putDateTime(buf[28:35], e.AllowedFromDate)
	putDateTime(buf[35:42], e.AllowedUntilDate)
	buf[42] = e.AllowedWeekdays
	buf[43], buf[44] = e.AllowedFromTime[0], e.AllowedFromTime[1]
	buf[45], buf[46] = e.AllowedUntilTime[0], e.AllowedUntilTime[1]
	return buf, nil
}

// DecodeAuthorizationEntry parses one AuthorizationEntry record.
func DecodeAuthorizationEntry(data []byte) (*AuthorizationEntry, error) {
	if len(data) < 75 {
		return nil, ErrRecordTooShort
	}
	e := &AuthorizationEntry{
		AuthID:          binary.LittleEndian.Uint32(data[0:4]),
		IDType:          data[4],
		Name:            getName(data[5:37]),
		Enabled:         data[37] != 0,
		RemoteAllowed:   data[38] != 0,
		DateCreated:     getDateTime(data[39:46]),
		DateLastActive:  getDateTime(data[46:53]),
		LockCount:       binary.LittleEndian.Uint16(data[53:55]),
		TimeLimited:     data[55] != 0,
		AllowedFromDate: getDateTime(data[56:63]),
	}
	e.AllowedUntilDate = getDateTime(data[63:70])
	e.AllowedWeekdays = data[70]
	e.AllowedFromTime = [2]uint8{data[71], data[72]}
	e.AllowedUntilTime = [2]uint8{data[73], data[74]}
	return e, nil
}

// EncodeAuthorizationEntry builds the 75-byte AuthorizationEntry record.
func EncodeAuthorizationEntry(e *AuthorizationEntry) []byte {
	buf := make([]byte, 75)
	binary.LittleEndian.PutUint32(buf[0:4], e.AuthID)
	buf[4] = e.IDType
	putName(buf[5:37], e.Name)
	buf[37] = boolByte(e.Enabled)
	buf[38] = boolByte(e.RemoteAllowed)
	putDateTime(buf[39:46], e.DateCreated)
	putDateTime(buf[46:53], e.DateLastActive)
	binary.LittleEndian.PutUint16(buf[53:55], e.LockCount)
	buf[55] = boolByte(e.TimeLimited)
	putDateTime(buf[56:63], e.AllowedFromDate)
	putDateTime(buf[63:70], e.AllowedUntilDate)
	buf[70] = e.AllowedWeekdays
	buf[71], buf[72] = e.AllowedFromTime[0], e.AllowedFromTime[1]
	buf[73], buf[74] = e.AllowedUntilTime[0], e.AllowedUntilTime[1]
	return buf
}

// EncodeNewAuthorizationEntry builds the AuthorizationDataInvite payload.
func EncodeNewAuthorizationEntry(e *NewAuthorizationEntry) ([]byte, error) {
	if len(e.Name) > nameFieldSize {
		return nil, ErrNameTooLong
	}
	buf := make([]byte, 86)
	putName(buf[0:32], e.Name)
	buf[32] = e.IDType
	copy(buf[33:65], e.SharedKey[:])
	buf[65] = boolByte(e.RemoteAllowed)
	buf[66] = boolByte(e.TimeLimited)
	putDateTime(buf[67:74], e.AllowedFromDate)
	putDateTime(buf[74:81], e.AllowedUntilDate)
	buf[81] = e.AllowedWeekdays
	buf[82], buf[83] = e.AllowedFromTime[0], e.AllowedFromTime[1]
	buf[84], buf[85] = e.AllowedUntilTime[0], e.AllowedUntilTime[1]
	return buf, nil
}

// EncodeUpdatedAuthorizationEntry builds the UpdateAuthorization payload.
func EncodeUpdatedAuthorizationEntry(e *UpdatedAuthorizationEntry) ([]byte, error) {
	if len(e.Name) > nameFieldSize {
		return nil, ErrNameTooLong
	}
	buf := make([]byte, 58)
	binary.LittleEndian.PutUint32(buf[0:4], e.AuthID)
	putName(buf[4:36], e.Name)
	buf[36] = boolByte(e.Enabled)
	buf[37] = boolByte(e.RemoteAllowed)
	buf[38] = boolByte(e.TimeLimited)
	putDateTime(buf[39:46], e.AllowedFromDate)
	putDateTime(buf[46:53], e.AllowedUntilDate)
	buf[53] = e.AllowedWeekdays
	buf[54], buf[55] = e.AllowedFromTime[0], e.AllowedFromTime[1]
	buf[56], buf[57] = e.AllowedUntilTime[0], e.AllowedUntilTime[1]
	return buf, nil
}

// DecodeTimeControlEntry parses one TimeControlEntry record.
func DecodeTimeControlEntry(data []byte) (*TimeControlEntry, error) {
	if len(data) < 6 {
		return nil, ErrRecordTooShort
	}
	return &TimeControlEntry{
		EntryID:    data[0],
		Enabled:    data[1] != 0,
		Weekdays:   data[2],
		Hour:       data[3],
		Minute:     data[4],
		LockAction: Action(data[5]),
	}, nil
}

// EncodeTimeControlEntry builds the 6-byte TimeControlEntry record.
func EncodeTimeControlEntry(e *TimeControlEntry) []byte {
	return []byte{e.EntryID, boolByte(e.Enabled), e.Weekdays, e.Hour, e.Minute, byte(e.LockAction)}
}

// EncodeNewTimeControlEntry builds the AddTimeControlEntry payload.
func EncodeNewTimeControlEntry(e *NewTimeControlEntry) []byte {
	return []byte{e.Weekdays, e.Hour, e.Minute, byte(e.LockAction)}
}

// DecodeLogEntry parses one LogEntry record. The trailing data block is
// type-specific and kept raw.
func DecodeLogEntry(data []byte) (*LogEntry, error) {
	if len(data) < 48 {
		return nil, ErrRecordTooShort
	}
	e := &LogEntry{
		Index:     binary.LittleEndian.Uint32(data[0:4]),
		Timestamp: getDateTime(data[4:11]),
		AuthID:    binary.LittleEndian.Uint32(data[11:15]),
		Name:      getName(data[15:47]),
		Type:      data[47],
	}
	if len(data) > 48 {
		e.Data = append([]byte(nil), data[48:]...)
	}
	return e, nil
}

// EncodeLogEntry builds a LogEntry record.
func EncodeLogEntry(e *LogEntry) []byte {
	buf := make([]byte, 48+len(e.Data))
	binary.LittleEndian.PutUint32(buf[0:4], e.Index)
	putDateTime(buf[4:11], e.Timestamp)
	binary.LittleEndian.PutUint32(buf[11:15], e.AuthID)
	putName(buf[15:47], e.Name)
	buf[47] = e.Type
	copy(buf[48:], e.Data)
	return buf
}
