package client

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/backkem/nuki/pkg/crypto"
	"github.com/backkem/nuki/pkg/message"
	"github.com/backkem/nuki/pkg/store"
	"github.com/backkem/nuki/pkg/transport"
)

// PairingState is one step of the pairing handshake.
type PairingState int

// Pairing states.
const (
	PairingInitPairing PairingState = iota
	PairingReqRemPubKey
	PairingRecRemPubKey
	PairingSendPubKey
	PairingGenKeyPair
	PairingCalculateAuth
	PairingSendAuth
	PairingSendAuthData
	PairingSendAuthIDConf
	PairingRecStatus
	PairingStateSuccess
	PairingStateTimeout
)

// IDType is the authorization type presented during pairing.
type IDType uint8

// Authorization id types.
const (
	IDTypeApp    IDType = 0
	IDTypeBridge IDType = 1
	IDTypeFob    IDType = 2
	IDTypeKeypad IDType = 3
)

// pairingRun carries the transient state of one pairing attempt. The
// keypair never leaves this struct and dies with the attempt.
type pairingRun struct {
	idType   IDType
	keypair  *crypto.Keypair
	deadline time.Time

	// authenticator carries the HMAC between the calculate and send steps.
	authenticator [crypto.HMACSize]byte
}

// Pair drives the pairing handshake with a device previously sighted in
// pairing mode by the beacon listener. Idempotent when already paired.
//
// Returns PairingInProgress while no device in pairing mode is known; the
// integrator keeps scanning and calls Pair again.
func (d *Device) Pair(idType IDType) PairingResult {
	if d.IsPaired() {
		if d.log != nil {
			d.log.Debugf("already paired")
		}
		return PairingSuccess
	}

	d.mu.Lock()
	if time.Since(d.pairingSeen) > pairingServiceWindow {
		d.pairingOffered = false
	}
	offered := d.pairingOffered
	addr := d.pairingAddr
	ultra := d.pairingUltra
	pin := d.pairingPin
	d.mu.Unlock()

	if !offered || addr.IsZero() {
		if d.log != nil {
			d.log.Debugf("no device in pairing mode found")
		}
		return PairingInProgress
	}

	d.mu.Lock()
	d.pairingOffered = false
	d.mu.Unlock()

	if ultra {
		if !d.bondUltra(addr, pin) {
			return PairingTimeout
		}
	}

	if !d.connect(true) {
		return PairingTimeout
	}

	keypair, err := crypto.GenerateKeypair()
	if err != nil {
		if d.log != nil {
			d.log.Errorf("keypair generation failed: %v", err)
		}
		return PairingTimeout
	}
	run := &pairingRun{
		idType:   idType,
		keypair:  keypair,
		deadline: time.Now().Add(d.config.PairingTimeout),
	}

	state := PairingInitPairing
	for state != PairingStateSuccess && state != PairingStateTimeout {
		state = d.pairStep(state, run)
		d.mu.Lock()
		d.lastActivity = time.Now()
		d.mu.Unlock()
		time.Sleep(pollInterval)
	}

	if state != PairingStateSuccess {
		if d.log != nil {
			d.log.Warnf("pairing timeout")
		}
		return PairingTimeout
	}

	d.mu.Lock()
	d.creds.Address = addr
	d.creds.IsUltra = ultra
	err = d.creds.Save(d.store)
	if err == nil {
		// Reload so a PIN reset on address change is reflected in memory.
		if creds, loadErr := store.LoadCredentials(d.store); loadErr == nil {
			d.creds = creds
		}
		if ultra {
			// The ultra passkey doubles as the device security PIN.
			d.creds.UltraPin = pin
			err = d.creds.SavePin(d.store)
		}
		d.paired = true
		d.lastHeartbeat = time.Now()
	}
	d.mu.Unlock()

	if err != nil {
		if d.log != nil {
			d.log.Errorf("saving credentials failed: %v", err)
		}
		return PairingTimeout
	}
	if d.log != nil {
		d.log.Infof("paired with %s", addr)
	}
	return PairingSuccess
}

// Unpair clears the stored credentials. The link, if any, stays up.
func (d *Device) Unpair() error {
	if !d.takeSemaphore("unpair") {
		return ErrBusy
	}
	defer d.giveSemaphore()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := store.ClearCredentials(d.store); err != nil {
		return err
	}
	d.creds.SecretKey = [store.SecretKeySize]byte{}
	d.creds.AuthorizationID = [store.AuthorizationIDSize]byte{}
	d.creds.IsUltra = false
	d.paired = false
	if d.log != nil {
		d.log.Debugf("credentials deleted")
	}
	return nil
}

// bondUltra creates the SMP passkey bond the ultra family requires. An
// existing bond is removed first so the fresh passkey takes effect.
func (d *Device) bondUltra(addr transport.Address, pin uint32) bool {
	bonder, ok := d.transport.(transport.Bonder)
	if !ok {
		if d.log != nil {
			d.log.Errorf("transport does not support bonding, cannot pair ultra device")
		}
		return false
	}
	_ = bonder.DeleteBond(addr)
	ctx, cancel := context.WithTimeout(context.Background(), d.config.PairingTimeout)
	defer cancel()
	if err := bonder.Bond(ctx, addr, pin); err != nil {
		if d.log != nil {
			d.log.Errorf("bonding failed: %v", err)
		}
		return false
	}
	return true
}

// pairStep executes one pairing state transition. Send states advance
// immediately; receive states wait for the indication dispatcher to fill
// the corresponding field and re-poll until then.
func (d *Device) pairStep(state PairingState, run *pairingRun) PairingState {
	next := state

	switch state {
	case PairingInitPairing:
		d.mu.Lock()
		d.challengeNonce = nil
		d.remotePublicKey = nil
		d.receivedStatus = 0xFF
		d.mu.Unlock()
		next = PairingReqRemPubKey

	case PairingReqRemPubKey:
		// Request the device public key (frame 0100030027A7).
		var req [2]byte
		binary.LittleEndian.PutUint16(req[:], uint16(message.CmdPublicKey))
		if !d.sendPlain(message.CmdRequestData, req[:]) {
			return PairingStateTimeout
		}
		next = PairingRecRemPubKey

	case PairingRecRemPubKey:
		d.mu.Lock()
		got := len(d.remotePublicKey) == crypto.KeySize
		d.mu.Unlock()
		if got {
			next = PairingSendPubKey
		}

	case PairingSendPubKey:
		if !d.sendPlain(message.CmdPublicKey, run.keypair.Public[:]) {
			return PairingStateTimeout
		}
		next = PairingGenKeyPair

	case PairingGenKeyPair:
		d.mu.Lock()
		remote := append([]byte(nil), d.remotePublicKey...)
		d.mu.Unlock()
		key, err := crypto.ComputeSharedKey(run.keypair.Private[:], remote)
		if err != nil {
			if d.log != nil {
				d.log.Errorf("key agreement failed: %v", err)
			}
			return PairingStateTimeout
		}
		d.mu.Lock()
		d.creds.SecretKey = key
		d.mu.Unlock()
		next = PairingCalculateAuth

	case PairingCalculateAuth:
		d.mu.Lock()
		nonce := append([]byte(nil), d.challengeNonce...)
		key := d.creds.SecretKey
		d.mu.Unlock()
		if len(nonce) == crypto.ChallengeNonceSize {
			run.authenticator = crypto.HMACSHA256(key[:],
				run.keypair.Public[:], d.remotePubKeySnapshot(), nonce)
			d.mu.Lock()
			d.challengeNonce = nil
			d.mu.Unlock()
			next = PairingSendAuth
		}

	case PairingSendAuth:
		if !d.sendPlain(message.CmdAuthorizationAuthenticator, run.authenticator[:]) {
			return PairingStateTimeout
		}
		next = PairingSendAuthData

	case PairingSendAuthData:
		return d.pairSendAuthData(run)

	case PairingSendAuthIDConf:
		return d.pairSendAuthIDConfirmation(run)

	case PairingRecStatus:
		d.mu.Lock()
		done := d.receivedStatus == byte(message.StatusComplete)
		d.mu.Unlock()
		if done {
			if d.log != nil {
				d.log.Debugf("pairing done")
			}
			next = PairingStateSuccess
		}

	default:
		if d.log != nil {
			d.log.Errorf("unknown pairing state %d", state)
		}
		return PairingStateTimeout
	}

	if time.Now().After(run.deadline) {
		return PairingStateTimeout
	}
	return next
}

func (d *Device) remotePubKeySnapshot() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.remotePublicKey...)
}

// pairSendAuthData builds and sends the authorization data.
//
// Classic waits for a fresh challenge, then sends on the pairing channel:
//
//	| authenticator (32) | id type (1) | app id (4 LE) | name (32) | nonce (32) |
//
// with the authenticator computed over the same fields (nonce last replaced
// by the device challenge appended).
//
// Ultra skips the challenge and sends, encrypted under the freshly derived
// key:
//
//	| app id (4 LE) | name (32) | pin (4 LE) |
func (d *Device) pairSendAuthData(run *pairingRun) PairingState {
	if time.Now().After(run.deadline) {
		return PairingStateTimeout
	}

	d.mu.Lock()
	ultra := d.pairingUltra
	pin := d.pairingPin
	key := d.creds.SecretKey
	nonce := append([]byte(nil), d.challengeNonce...)
	d.mu.Unlock()

	var name [MaxNameLength]byte
	copy(name[:], d.config.Name)
	var appID [4]byte
	binary.LittleEndian.PutUint32(appID[:], d.config.AppID)

	if ultra {
		payload := make([]byte, 0, 4+MaxNameLength+4)
		payload = append(payload, appID[:]...)
		payload = append(payload, name[:]...)
		var pinBuf [4]byte
		binary.LittleEndian.PutUint32(pinBuf[:], pin)
		payload = append(payload, pinBuf[:]...)

		// The authorization id is still zero at this point; the device
		// accepts the frame because the pairing link is bonded.
		frame, err := message.Encrypt(message.CmdAuthorizationData, payload, d.authIDSnapshot(), key[:])
		if err != nil {
			if d.log != nil {
				d.log.Errorf("encrypting authorization data failed: %v", err)
			}
			return PairingStateTimeout
		}
		if !d.connect(true) {
			return PairingStateTimeout
		}
		if err := d.transport.WriteCharacteristic(d.profile.Service, d.profile.USDIO, frame, true); err != nil {
			if d.log != nil {
				d.log.Warnf("USDIO write failed: %v", err)
			}
			return PairingStateTimeout
		}
		return PairingRecStatus
	}

	if len(nonce) != crypto.ChallengeNonceSize {
		return PairingSendAuthData
	}

	clientNonce, err := crypto.GenerateNonce(crypto.ChallengeNonceSize)
	if err != nil {
		return PairingStateTimeout
	}

	idType := []byte{byte(run.idType)}
	mac := crypto.HMACSHA256(key[:], idType, appID[:], name[:], clientNonce, nonce)

	payload := make([]byte, 0, crypto.HMACSize+1+4+MaxNameLength+crypto.ChallengeNonceSize)
	payload = append(payload, mac[:]...)
	payload = append(payload, idType...)
	payload = append(payload, appID[:]...)
	payload = append(payload, name[:]...)
	payload = append(payload, clientNonce...)

	d.mu.Lock()
	d.challengeNonce = nil
	d.mu.Unlock()

	if !d.sendPlain(message.CmdAuthorizationData, payload) {
		return PairingStateTimeout
	}
	return PairingSendAuthIDConf
}

// pairSendAuthIDConfirmation waits for the AuthorizationID record and
// confirms it:
//
//	| authenticator (32) | auth id (4 LE) |
//
// with the authenticator computed over auth id and the trailing challenge
// of the AuthorizationID message.
func (d *Device) pairSendAuthIDConfirmation(run *pairingRun) PairingState {
	if time.Now().After(run.deadline) {
		return PairingStateTimeout
	}

	d.mu.Lock()
	authID := d.creds.AuthorizationID
	nonce := append([]byte(nil), d.challengeNonce...)
	key := d.creds.SecretKey
	d.mu.Unlock()

	if authID == [store.AuthorizationIDSize]byte{} || len(nonce) != crypto.ChallengeNonceSize {
		return PairingSendAuthIDConf
	}

	mac := crypto.HMACSHA256(key[:], authID[:], nonce)
	payload := make([]byte, 0, crypto.HMACSize+store.AuthorizationIDSize)
	payload = append(payload, mac[:]...)
	payload = append(payload, authID[:]...)

	d.mu.Lock()
	d.challengeNonce = nil
	d.mu.Unlock()

	if !d.sendPlain(message.CmdAuthorizationIDConfirmation, payload) {
		return PairingStateTimeout
	}
	return PairingRecStatus
}

func (d *Device) authIDSnapshot() [store.AuthorizationIDSize]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creds.AuthorizationID
}
