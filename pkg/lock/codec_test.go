package lock

import (
	"testing"
	"time"
)

func testTime() time.Time {
	return time.Date(2024, time.June, 9, 12, 30, 45, 0, time.UTC)
}

func TestKeyTurnerStateRoundtrip(t *testing.T) {
	orig := &KeyTurnerState{
		NukiState:             0x02,
		LockState:             LockStateUnlocked,
		Trigger:               TriggerButton,
		CurrentTime:           testTime(),
		TimeZoneOffsetMinutes: -120,
		CriticalBatteryState:  0xC8,
		ConfigUpdateCount:     7,
		LockNgoTimer:          20,
		LastLockAction:        ActionUnlock,
		LastLockActionTrigger: TriggerManual,
		LastLockActionStatus:  CompletionSuccess,
		DoorSensorState:       DoorSensorClosed,
		NightModeActive:       1,
		AccessoryBattery:      0x04,
	}
	got, err := DecodeKeyTurnerState(EncodeKeyTurnerState(orig))
	if err != nil {
		t.Fatalf("DecodeKeyTurnerState() error: %v", err)
	}
	if *got != *orig {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestKeyTurnerStateShortRecord(t *testing.T) {
	full := EncodeKeyTurnerState(&KeyTurnerState{LockState: LockStateLocked})

	// Older firmware omits the night mode and accessory battery fields.
	got, err := DecodeKeyTurnerState(full[:19])
	if err != nil {
		t.Fatalf("DecodeKeyTurnerState(19 bytes) error: %v", err)
	}
	if got.LockState != LockStateLocked {
		t.Errorf("lock state = %v", got.LockState)
	}

	if _, err := DecodeKeyTurnerState(full[:10]); err != ErrRecordTooShort {
		t.Errorf("truncated record: got %v, want ErrRecordTooShort", err)
	}
}

func TestBatteryReportRoundtrip(t *testing.T) {
	orig := &BatteryReport{
		BatteryDrain:      1250,
		BatteryVoltage:    5850,
		CriticalBattery:   0,
		LockAction:        ActionLock,
		StartVoltage:      6000,
		LowestVoltage:     5500,
		LockDistance:      360,
		StartTemperature:  -5,
		MaxTurnCurrent:    600,
		BatteryResistance: 300,
	}
	got, err := DecodeBatteryReport(EncodeBatteryReport(orig))
	if err != nil {
		t.Fatalf("DecodeBatteryReport() error: %v", err)
	}
	if *got != *orig {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestConfigRoundtrip(t *testing.T) {
	orig := &Config{
		NukiID:           0x30405060,
		Name:             "Front Door",
		Latitude:         48.2082,
		Longitude:        16.3738,
		AutoUnlatch:      true,
		PairingEnabled:   true,
		ButtonEnabled:    true,
		LedEnabled:       true,
		LedBrightness:    3,
		CurrentTime:      testTime(),
		TimeZoneOffset:   60,
		DstMode:          1,
		HasFob:           true,
		FobAction1:       1,
		FobAction2:       2,
		FobAction3:       0,
		SingleLock:       false,
		AdvertisingMode:  AdvertisingNormal,
		HasKeypad:        true,
		FirmwareVersion:  [3]uint8{3, 2, 1},
		HardwareRevision: [2]uint8{2, 0},
		HomeKitStatus:    1,
		TimeZoneID:       37,
	}
	got, err := DecodeConfig(EncodeConfig(orig))
	if err != nil {
		t.Fatalf("DecodeConfig() error: %v", err)
	}
	if *got != *orig {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestAdvancedConfigRoundtrip(t *testing.T) {
	orig := &AdvancedConfig{
		TotalDegrees:                  720,
		UnlockedPositionOffset:        -15,
		LockedPositionOffset:          10,
		SingleLockedPositionOffset:    5,
		UnlockedToLockedOffset:        -5,
		LockNgoTimeout:                20,
		SingleButtonPressAction:       ButtonActionIntelligent,
		DoubleButtonPressAction:       ButtonActionLockNgo,
		DetachedCylinder:              false,
		BatteryType:                   BatteryAccumulators,
		AutomaticBatteryTypeDetection: true,
		UnlatchDuration:               3,
		AutoLockTimeOut:               300,
		AutoUnLockDisabled:            false,
		NightModeEnabled:              true,
		NightModeStartTime:            [2]uint8{22, 30},
		NightModeEndTime:              [2]uint8{6, 0},
		NightModeAutoLockEnabled:      true,
		AutoLockEnabled:               true,
		AutoUpdateEnabled:             true,
		MotorSpeed:                    MotorSpeedGentle,
	}
	got, err := DecodeAdvancedConfig(EncodeAdvancedConfig(orig))
	if err != nil {
		t.Fatalf("DecodeAdvancedConfig() error: %v", err)
	}
	if *got != *orig {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestEncodeNewAdvancedConfigVariantLength(t *testing.T) {
	c := &NewAdvancedConfig{MotorSpeed: MotorSpeedInsane}
	classic := EncodeNewAdvancedConfig(c, false)
	ultra := EncodeNewAdvancedConfig(c, true)
	if len(ultra)-len(classic) != 2 {
		t.Errorf("ultra payload must carry 2 extra bytes: classic %d, ultra %d", len(classic), len(ultra))
	}
	if ultra[len(ultra)-2] != byte(MotorSpeedInsane) {
		t.Errorf("motor speed byte missing from ultra payload")
	}
}

func TestKeypadEntryRoundtrip(t *testing.T) {
	orig := &KeypadEntry{
		CodeID:           12,
		Code:             945823,
		Name:             "cleaner",
		Enabled:          true,
		DateCreated:      testTime(),
		DateLastActive:   testTime().Add(24 * time.Hour),
		LockCount:        17,
		TimeLimited:      true,
		AllowedFromDate:  testTime(),
		AllowedUntilDate: testTime().AddDate(1, 0, 0),
		AllowedWeekdays:  0b01000100,
		AllowedFromTime:  [2]uint8{8, 0},
		AllowedUntilTime: [2]uint8{17, 30},
	}
	got, err := DecodeKeypadEntry(EncodeKeypadEntry(orig))
	if err != nil {
		t.Fatalf("DecodeKeypadEntry() error: %v", err)
	}
	if *got != *orig {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestAuthorizationEntryRoundtrip(t *testing.T) {
	orig := &AuthorizationEntry{
		AuthID:           0x01020304,
		IDType:           1,
		Name:             "bridge",
		Enabled:          true,
		RemoteAllowed:    true,
		DateCreated:      testTime(),
		DateLastActive:   testTime(),
		LockCount:        99,
		TimeLimited:      false,
		AllowedWeekdays:  0,
		AllowedFromTime:  [2]uint8{0, 0},
		AllowedUntilTime: [2]uint8{0, 0},
	}
	got, err := DecodeAuthorizationEntry(EncodeAuthorizationEntry(orig))
	if err != nil {
		t.Fatalf("DecodeAuthorizationEntry() error: %v", err)
	}
	if *got != *orig {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestTimeControlEntryRoundtrip(t *testing.T) {
	orig := &TimeControlEntry{
		EntryID:    3,
		Enabled:    true,
		Weekdays:   0b01111100,
		Hour:       22,
		Minute:     15,
		LockAction: ActionLock,
	}
	got, err := DecodeTimeControlEntry(EncodeTimeControlEntry(orig))
	if err != nil {
		t.Fatalf("DecodeTimeControlEntry() error: %v", err)
	}
	if *got != *orig {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestLogEntryRoundtrip(t *testing.T) {
	orig := &LogEntry{
		Index:     4711,
		Timestamp: testTime(),
		AuthID:    0x01020304,
		Name:      "bridge",
		Type:      2,
		Data:      []byte{0x01, 0x00, 0x00, 0x02, 0x00},
	}
	got, err := DecodeLogEntry(EncodeLogEntry(orig))
	if err != nil {
		t.Fatalf("DecodeLogEntry() error: %v", err)
	}
	if got.Index != orig.Index || got.Name != orig.Name || got.Type != orig.Type {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
	if string(got.Data) != string(orig.Data) {
		t.Errorf("data = %x, want %x", got.Data, orig.Data)
	}
}

func TestEncodeNewConfigRejectsLongName(t *testing.T) {
	c := &NewConfig{Name: "this name is far far too long to fit the field"}
	if _, err := EncodeNewConfig(c); err != ErrNameTooLong {
		t.Errorf("got %v, want ErrNameTooLong", err)
	}
}
