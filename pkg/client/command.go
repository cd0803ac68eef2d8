package client

import (
	"encoding/binary"
	"time"

	"github.com/backkem/nuki/pkg/message"
)

// CommandKind selects the state machine an action runs through.
type CommandKind int

// Command kinds.
const (
	// KindCommand wraps the payload in RequestData and succeeds on the
	// next non-error response.
	KindCommand CommandKind = iota

	// KindCommandWithChallenge fetches a challenge nonce first and appends
	// it to the payload.
	KindCommandWithChallenge

	// KindCommandWithChallengeAndAccept additionally waits for the
	// accepted/complete status pair.
	KindCommandWithChallengeAndAccept

	// KindCommandWithChallengeAndPin appends the security PIN after the
	// challenge nonce.
	KindCommandWithChallengeAndPin
)

// CommandState tracks the progress of the in-flight request.
type CommandState int

// Command states.
const (
	StateIdle CommandState = iota
	StateChallengeSent
	StateChallengeRespReceived
	StateCmdSent
	StateCmdAccepted
)

// Action is one high-level request towards the device.
type Action struct {
	Kind    CommandKind
	Command message.Command
	Payload []byte
}

// ExecuteAction runs one action to completion. Exactly one action can be in
// flight per device; concurrent callers block on the semaphore for up to
// its acquisition timeout and then fail without touching any state.
//
// In co-located mode a stale heartbeat fails fast: when nothing has been
// heard from the device for longer than the heartbeat timeout there is no
// point in burning the full command deadline.
func (d *Device) ExecuteAction(action *Action) CmdResult {
	if !d.config.AltConnect {
		if time.Since(d.LastHeartbeat()) > d.config.HeartbeatTimeout {
			if d.log != nil {
				d.log.Errorf("heartbeat timeout, command failed")
			}
			return CmdResultError
		}
	}

	if !d.IsPaired() {
		return CmdResultNotPaired
	}

	if !d.takeSemaphore("executeAction") {
		return CmdResultFailed
	}
	defer d.giveSemaphore()

	if d.log != nil {
		d.log.Debugf("executing %v", action.Command)
	}

	d.mu.Lock()
	d.cmdState = StateIdle
	d.mu.Unlock()

	for {
		d.mu.Lock()
		d.lastActivity = time.Now()
		d.mu.Unlock()

		var result CmdResult
		switch action.Kind {
		case KindCommand:
			result = d.cmdStateMachine(action)
		case KindCommandWithChallenge:
			result = d.cmdChallengeStateMachine(action, false)
		case KindCommandWithChallengeAndPin:
			result = d.cmdChallengeStateMachine(action, true)
		case KindCommandWithChallengeAndAccept:
			result = d.cmdChallengeAcceptStateMachine(action)
		default:
			if d.log != nil {
				d.log.Warnf("unknown command kind %d", action.Kind)
			}
			d.disconnect()
			return CmdResultFailed
		}

		if result != CmdResultWorking {
			if d.config.AltConnect && (result == CmdResultError || result == CmdResultFailed) {
				d.disconnect()
			}
			return result
		}
		time.Sleep(pollInterval)
	}
}

// sendEncrypted seals and writes one user-channel frame.
func (d *Device) sendEncrypted(cmd message.Command, payload []byte) bool {
	d.mu.Lock()
	authID := d.creds.AuthorizationID
	key := d.creds.SecretKey
	d.mu.Unlock()

	frame, err := message.Encrypt(cmd, payload, authID, key[:])
	if err != nil {
		if d.log != nil {
			d.log.Warnf("send failed, encryption error: %v", err)
		}
		return false
	}
	if !d.connect(false) {
		if d.log != nil {
			d.log.Warnf("send failed, unable to connect")
		}
		return false
	}
	err = d.transport.WriteCharacteristic(d.profile.Service, d.profile.USDIO, frame, true)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("USDIO write failed: %v", err)
		}
		return false
	}
	return true
}

// sendPlain writes one pairing-channel frame.
func (d *Device) sendPlain(cmd message.Command, payload []byte) bool {
	frame := message.EncodePlain(cmd, payload)
	if !d.connect(true) {
		if d.log != nil {
			d.log.Warnf("send failed, unable to connect")
		}
		return false
	}
	d.mu.Lock()
	ultra := d.pairingUltra
	d.mu.Unlock()
	err := d.transport.WriteCharacteristic(
		d.profile.PairingServiceFor(ultra), d.profile.GDIOFor(ultra), frame, true)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("GDIO write failed: %v", err)
		}
		return false
	}
	return true
}

// resetCommandState clears the in-flight scratch before or after a request.
func (d *Device) resetCommandState() {
	d.cmdState = StateIdle
	d.lastMsgCode = message.CmdEmpty
}

// classifyError maps a received ErrorReport to a result.
func classifyError(code message.ErrorCode) CmdResult {
	if code == message.KErrorBusy {
		return CmdResultLockBusy
	}
	return CmdResultFailed
}

// cmdStateMachine drives a plain Command request: the payload goes out
// wrapped in RequestData and any non-error response completes it.
func (d *Device) cmdStateMachine(action *Action) CmdResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.cmdState {
	case StateIdle:
		d.lastMsgCode = message.CmdEmpty
		d.mu.Unlock()
		ok := d.sendEncrypted(message.CmdRequestData, action.Payload)
		d.mu.Lock()
		if !ok {
			d.resetCommandState()
			return CmdResultFailed
		}
		d.cmdDeadline = time.Now().Add(d.config.CommandTimeout)
		d.cmdState = StateCmdSent

	case StateCmdSent:
		switch {
		case time.Now().After(d.cmdDeadline):
			d.cmdState = StateIdle
			return CmdResultTimeOut
		case d.lastMsgCode == message.CmdErrorReport:
			code := d.lastErrorCode
			d.resetCommandState()
			return classifyError(code)
		case d.lastMsgCode != message.CmdEmpty:
			d.resetCommandState()
			return CmdResultSuccess
		}

	default:
		if d.log != nil {
			d.log.Warnf("unknown command state %d", d.cmdState)
		}
		d.resetCommandState()
		return CmdResultFailed
	}
	return CmdResultWorking
}

// cmdChallengeStateMachine drives CommandWithChallenge and, with pin set,
// CommandWithChallengeAndPin: request a challenge, then send the command
// with the nonce (and PIN) appended, then wait for a CRC-valid response.
func (d *Device) cmdChallengeStateMachine(action *Action, pin bool) CmdResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.cmdState {
	case StateIdle:
		d.lastMsgCode = message.CmdEmpty
		challengeReq := make([]byte, 2)
		binary.LittleEndian.PutUint16(challengeReq, uint16(message.CmdChallenge))
		d.mu.Unlock()
		ok := d.sendEncrypted(message.CmdRequestData, challengeReq)
		d.mu.Lock()
		if !ok {
			d.resetCommandState()
			return CmdResultFailed
		}
		d.cmdDeadline = time.Now().Add(d.config.CommandTimeout)
		d.cmdState = StateChallengeSent

	case StateChallengeSent:
		switch {
		case time.Now().After(d.cmdDeadline):
			d.cmdState = StateIdle
			return CmdResultTimeOut
		case d.lastMsgCode == message.CmdErrorReport:
			code := d.lastErrorCode
			d.resetCommandState()
			return classifyError(code)
		case d.lastMsgCode == message.CmdChallenge:
			d.cmdState = StateChallengeRespReceived
			d.lastMsgCode = message.CmdEmpty
		}

	case StateChallengeRespReceived:
		d.lastMsgCode = message.CmdEmpty
		d.crcOK = false
		payload := append([]byte(nil), action.Payload...)
		payload = append(payload, d.challengeNonce...)
		if pin {
			payload = d.appendPin(payload)
		}
		d.challengeNonce = nil
		d.mu.Unlock()
		ok := d.sendEncrypted(action.Command, payload)
		d.mu.Lock()
		if !ok {
			d.resetCommandState()
			return CmdResultFailed
		}
		d.cmdDeadline = time.Now().Add(d.config.CommandTimeout)
		d.cmdState = StateCmdSent

	case StateCmdSent:
		switch {
		case time.Now().After(d.cmdDeadline):
			d.cmdState = StateIdle
			return CmdResultTimeOut
		case d.lastMsgCode == message.CmdErrorReport:
			code := d.lastErrorCode
			d.resetCommandState()
			return classifyError(code)
		case d.crcOK:
			d.resetCommandState()
			return CmdResultSuccess
		}

	default:
		if d.log != nil {
			d.log.Warnf("unknown command state %d", d.cmdState)
		}
		d.resetCommandState()
		return CmdResultFailed
	}
	return CmdResultWorking
}

// cmdChallengeAcceptStateMachine drives CommandWithChallengeAndAccept:
// after the command goes out, the device acknowledges with Status=Accepted
// and finishes with Status=Complete. A device already in the requested
// state short-circuits straight to Complete.
func (d *Device) cmdChallengeAcceptStateMachine(action *Action) CmdResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.cmdState {
	case StateIdle:
		d.lastMsgCode = message.CmdEmpty
		challengeReq := make([]byte, 2)
		binary.LittleEndian.PutUint16(challengeReq, uint16(message.CmdChallenge))
		d.mu.Unlock()
		ok := d.sendEncrypted(message.CmdRequestData, challengeReq)
		d.mu.Lock()
		if !ok {
			d.resetCommandState()
			return CmdResultFailed
		}
		d.cmdDeadline = time.Now().Add(d.config.CommandTimeout)
		d.cmdState = StateChallengeSent

	case StateChallengeSent:
		switch {
		case time.Now().After(d.cmdDeadline):
			d.cmdState = StateIdle
			return CmdResultTimeOut
		case d.lastMsgCode == message.CmdErrorReport:
			code := d.lastErrorCode
			d.resetCommandState()
			return classifyError(code)
		case d.lastMsgCode == message.CmdChallenge:
			d.cmdState = StateChallengeRespReceived
			d.lastMsgCode = message.CmdEmpty
		}

	case StateChallengeRespReceived:
		d.lastMsgCode = message.CmdEmpty
		payload := append([]byte(nil), action.Payload...)
		payload = append(payload, d.challengeNonce...)
		d.challengeNonce = nil
		d.mu.Unlock()
		ok := d.sendEncrypted(action.Command, payload)
		d.mu.Lock()
		if !ok {
			d.resetCommandState()
			return CmdResultFailed
		}
		d.cmdDeadline = time.Now().Add(d.config.CommandTimeout)
		d.cmdState = StateCmdSent

	case StateCmdSent:
		switch {
		case time.Now().After(d.cmdDeadline):
			d.cmdState = StateIdle
			return CmdResultTimeOut
		case d.lastMsgCode == message.CmdErrorReport:
			code := d.lastErrorCode
			d.resetCommandState()
			return classifyError(code)
		case d.lastMsgCode == message.CmdStatus && message.CommandStatus(d.receivedStatus) == message.StatusAccepted:
			d.cmdDeadline = time.Now().Add(d.config.CommandTimeout)
			d.cmdState = StateCmdAccepted
			d.lastMsgCode = message.CmdEmpty
		case d.lastMsgCode == message.CmdStatus && message.CommandStatus(d.receivedStatus) == message.StatusComplete:
			// Accept was skipped, e.g. unlock while already unlocked.
			d.resetCommandState()
			return CmdResultSuccess
		}

	case StateCmdAccepted:
		switch {
		case time.Now().After(d.cmdDeadline):
			d.cmdState = StateIdle
			return CmdResultTimeOut
		case d.lastMsgCode == message.CmdErrorReport:
			code := d.lastErrorCode
			d.resetCommandState()
			return classifyError(code)
		case d.lastMsgCode == message.CmdStatus && message.CommandStatus(d.receivedStatus) == message.StatusComplete:
			d.resetCommandState()
			return CmdResultSuccess
		}

	default:
		if d.log != nil {
			d.log.Warnf("unknown command state %d", d.cmdState)
		}
		d.resetCommandState()
		return CmdResultFailed
	}
	return CmdResultWorking
}

// appendPin attaches the variant PIN to an outbound payload: 2 bytes LE for
// classic, 4 bytes LE for ultra. Caller holds d.mu.
func (d *Device) appendPin(payload []byte) []byte {
	if d.creds.IsUltra {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], d.creds.UltraPin)
		return append(payload, buf[:]...)
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], d.creds.Pin)
	return append(payload, buf[:]...)
}
