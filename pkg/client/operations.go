package client

import (
	"encoding/binary"
	"time"

	"github.com/backkem/nuki/pkg/message"
)

// Device-generic operations shared by the lock and opener profiles. Each
// builds one Action and runs it through ExecuteAction; profile-specific
// operations live with their profile package.

// SetSecurityPin changes the classic security PIN on the device and, on
// success, persists it locally.
func (d *Device) SetSecurityPin(pin uint16) (CmdResult, error) {
	if d.IsUltra() {
		return CmdResultFailed, ErrWrongVariant
	}
	var payload [2]byte
	binary.LittleEndian.PutUint16(payload[:], pin)
	result := d.ExecuteAction(&Action{
		Kind:    KindCommandWithChallengeAndPin,
		Command: message.CmdSetSecurityPin,
		Payload: payload[:],
	})
	if result != CmdResultSuccess {
		return result, nil
	}
	d.mu.Lock()
	d.creds.Pin = pin
	err := d.creds.SavePin(d.store)
	d.mu.Unlock()
	return result, err
}

// SetUltraPin changes the 4-byte ultra PIN on the device and, on success,
// persists it locally.
func (d *Device) SetUltraPin(pin uint32) (CmdResult, error) {
	if !d.IsUltra() {
		return CmdResultFailed, ErrWrongVariant
	}
	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], pin)
	result := d.ExecuteAction(&Action{
		Kind:    KindCommandWithChallengeAndPin,
		Command: message.CmdSetSecurityPin,
		Payload: payload[:],
	})
	if result != CmdResultSuccess {
		return result, nil
	}
	d.mu.Lock()
	d.creds.UltraPin = pin
	err := d.creds.SavePin(d.store)
	d.mu.Unlock()
	return result, err
}

// VerifySecurityPin asks the device to check the stored PIN without side
// effects.
func (d *Device) VerifySecurityPin() CmdResult {
	return d.ExecuteAction(&Action{
		Kind:    KindCommandWithChallengeAndPin,
		Command: message.CmdVerifySecurityPin,
	})
}

// RequestCalibration starts the motor calibration run.
func (d *Device) RequestCalibration() CmdResult {
	return d.ExecuteAction(&Action{
		Kind:    KindCommandWithChallengeAndPin,
		Command: message.CmdRequestCalibration,
	})
}

// RequestReboot reboots the device.
func (d *Device) RequestReboot() CmdResult {
	return d.ExecuteAction(&Action{
		Kind:    KindCommandWithChallengeAndPin,
		Command: message.CmdRequestReboot,
	})
}

// UpdateTime sets the device clock:
//
//	| year (2 LE) | month | day | hour | minute | second |
func (d *Device) UpdateTime(t time.Time) CmdResult {
	payload := make([]byte, 7)
	binary.LittleEndian.PutUint16(payload, uint16(t.Year()))
	payload[2] = byte(t.Month())
	payload[3] = byte(t.Day())
	payload[4] = byte(t.Hour())
	payload[5] = byte(t.Minute())
	payload[6] = byte(t.Second())
	return d.ExecuteAction(&Action{
		Kind:    KindCommandWithChallengeAndPin,
		Command: message.CmdUpdateTime,
		Payload: payload,
	})
}
