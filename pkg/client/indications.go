package client

import (
	"time"

	"github.com/google/uuid"

	"github.com/backkem/nuki/pkg/crypto"
	"github.com/backkem/nuki/pkg/message"
)

// onIndication is the transport callback for both characteristics. Frames
// that fail CRC or authentication are dropped without advancing any state
// machine; the waiting request surfaces the loss as a timeout.
func (d *Device) onIndication(char uuid.UUID, value []byte) {
	d.mu.Lock()
	d.lastHeartbeat = time.Now()
	d.mu.Unlock()

	switch {
	case d.profile.IsGDIO(char):
		cmd, payload, err := message.DecodePlain(value)
		if err != nil {
			if d.log != nil {
				d.log.Warnf("dropping GDIO frame: %v", err)
			}
			return
		}
		d.handleReturnMessage(cmd, payload, false)

	case char == d.profile.USDIO:
		d.mu.Lock()
		key := d.creds.SecretKey
		d.mu.Unlock()
		cmd, payload, err := message.Decrypt(value, key[:])
		if err != nil {
			if d.log != nil {
				d.log.Warnf("dropping USDIO frame: %v", err)
			}
			return
		}
		d.handleReturnMessage(cmd, payload, true)

	default:
		if d.log != nil {
			d.log.Debugf("indication on unknown characteristic %s", char)
		}
	}
}

// handleReturnMessage updates the shared per-device state for one decoded
// message and finally publishes the command code, which is the sentinel the
// state machines poll on. Messages the engine does not interpret go to the
// profile record handler first, so complete records are visible before the
// sentinel is set.
func (d *Device) handleReturnMessage(cmd message.Command, payload []byte, encrypted bool) {
	if d.log != nil {
		d.log.Tracef("received %v (%d bytes)", cmd, len(payload))
	}

	switch cmd {
	case message.CmdRequestData:
		// Echo of a request; nothing to record.

	case message.CmdPublicKey:
		if len(payload) < crypto.KeySize {
			return
		}
		d.mu.Lock()
		d.remotePublicKey = append([]byte(nil), payload[:crypto.KeySize]...)
		d.mu.Unlock()

	case message.CmdChallenge:
		if len(payload) < crypto.ChallengeNonceSize {
			return
		}
		d.mu.Lock()
		d.challengeNonce = append([]byte(nil), payload[:crypto.ChallengeNonceSize]...)
		d.mu.Unlock()

	case message.CmdAuthorizationID:
		d.handleAuthorizationID(payload)

	case message.CmdStatus:
		if len(payload) < 1 {
			return
		}
		d.mu.Lock()
		d.receivedStatus = payload[0]
		d.mu.Unlock()

	case message.CmdErrorReport:
		if len(payload) < 3 {
			return
		}
		code := message.ErrorCode(payload[0])
		forCmd := message.Command(uint16(payload[1]) | uint16(payload[2])<<8)
		if d.log != nil {
			d.log.Warnf("device error %v for %v", code, forCmd)
		}
		d.mu.Lock()
		d.lastErrorCode = code
		d.mu.Unlock()
		if code == message.KErrorBadPin {
			d.notify(EventErrorBadPin)
		}

	case message.CmdAuthorizationIDConfirmation, message.CmdAuthorizationIDInvite,
		message.CmdAuthorizationAuthenticator, message.CmdAuthorizationData:
		// Pairing-channel echoes; no state to keep.

	default:
		if d.config.Handler != nil {
			d.config.Handler.HandleRecord(cmd, payload)
		}
	}

	d.mu.Lock()
	d.lastMsgCode = cmd
	if encrypted {
		d.crcOK = true
	}
	d.mu.Unlock()
}

// AuthorizationID message layout (classic):
//
//	| authenticator (32) | auth id (4) | device id (16) | challenge (32) |
//
// The authenticator is HMAC-SHA256 over everything after it; a mismatch
// drops the message. The ultra variant sends the message over the encrypted
// channel without authenticator or trailing challenge and pairing finishes
// right here.
func (d *Device) handleAuthorizationID(payload []byte) {
	d.mu.Lock()
	ultra := d.pairingUltra || d.creds.IsUltra
	key := d.creds.SecretKey
	d.mu.Unlock()

	if ultra {
		if len(payload) < 4 {
			return
		}
		d.mu.Lock()
		copy(d.creds.AuthorizationID[:], payload[:4])
		d.receivedStatus = byte(message.StatusComplete)
		d.mu.Unlock()
		return
	}

	if len(payload) < crypto.HMACSize+4+16+crypto.ChallengeNonceSize {
		return
	}
	mac := crypto.HMACSHA256(key[:], payload[crypto.HMACSize:crypto.HMACSize+4+16+crypto.ChallengeNonceSize])
	if !crypto.HMACEqual(mac[:], payload[:crypto.HMACSize]) {
		if d.log != nil {
			d.log.Warnf("dropping AuthorizationID with bad authenticator")
		}
		return
	}

	d.mu.Lock()
	copy(d.creds.AuthorizationID[:], payload[crypto.HMACSize:crypto.HMACSize+4])
	d.challengeNonce = append([]byte(nil), payload[crypto.HMACSize+4+16:crypto.HMACSize+4+16+crypto.ChallengeNonceSize]...)
	d.mu.Unlock()
}
