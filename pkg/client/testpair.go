// Scripted peer device for tests, in the spirit of the in-package test
// pairs used elsewhere in this codebase: a ScriptedPeer speaks the real
// wire protocol (same codecs, same crypto) over the in-memory pipe, so
// engine tests double as end-to-end framing tests.

package client

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"

	"github.com/backkem/nuki/pkg/crypto"
	"github.com/backkem/nuki/pkg/message"
	"github.com/backkem/nuki/pkg/transport"
)

// CommandResponder scripts the peer's reply to one decrypted user-channel
// command. Returning false falls back to the default behavior.
type CommandResponder func(peer *ScriptedPeer, cmd message.Command, payload []byte) bool

// ScriptedPeer emulates the device side of the protocol. The zero value is
// not usable; create it with NewScriptedPeer and wire its Pipe into the
// engine under test.
type ScriptedPeer struct {
	profile Profile

	mu sync.Mutex

	pairingChar     uuid.UUID
	keypair         *crypto.Keypair
	key             [32]byte
	haveKey         bool
	challenge       []byte
	remoteClientKey []byte
	authID          [4]byte
	lockID          [16]byte

	// Silent drops every inbound frame; the engine runs into deadlines.
	Silent bool

	// OnCommand intercepts decrypted user-channel commands.
	OnCommand CommandResponder

	// StateRecord is returned for RequestData(KeyturnerStates).
	StateRecord []byte

	pipe *transport.Pipe
}

// NewScriptedPeer creates a peer with a fresh keypair and the given
// authorization id, plus the pipe wired to it.
func NewScriptedPeer(profile Profile, authID [4]byte) (*ScriptedPeer, *transport.Pipe) {
	keypair, err := crypto.GenerateKeypair()
	if err != nil {
		panic(err)
	}
	p := &ScriptedPeer{
		profile: profile,
		keypair: keypair,
		authID:  authID,
	}
	pipe := transport.NewPipe(transport.PipeConfig{Peripheral: p.onWrite})
	p.pipe = pipe
	return p, pipe
}

// SecretKey returns the derived long-term key once the handshake computed
// it, or the key installed with InstallKey.
func (p *ScriptedPeer) SecretKey() ([32]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key, p.haveKey
}

// InstallKey primes the peer with an existing long-term key and skips the
// handshake, for tests that start from a paired state.
func (p *ScriptedPeer) InstallKey(key [32]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.key = key
	p.haveKey = true
}

// LastChallenge returns the most recently issued challenge nonce.
func (p *ScriptedPeer) LastChallenge() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.challenge...)
}

// AuthID returns the authorization id the peer assigns.
func (p *ScriptedPeer) AuthID() [4]byte {
	return p.authID
}

// SendEncrypted pushes an encrypted indication towards the engine.
func (p *ScriptedPeer) SendEncrypted(cmd message.Command, payload []byte) {
	p.mu.Lock()
	key := p.key
	authID := p.authID
	p.mu.Unlock()
	frame, err := message.Encrypt(cmd, payload, authID, key[:])
	if err != nil {
		return
	}
	p.pipe.Indicate(p.profile.USDIO, frame)
}

// SendPlain pushes a plaintext indication towards the engine, on the
// pairing characteristic the engine last wrote to.
func (p *ScriptedPeer) SendPlain(cmd message.Command, payload []byte) {
	p.mu.Lock()
	char := p.pairingChar
	p.mu.Unlock()
	if char == (uuid.UUID{}) {
		char = p.profile.GDIO
	}
	p.pipe.Indicate(char, message.EncodePlain(cmd, payload))
}

// SendStatus pushes a Status indication over the encrypted channel.
func (p *ScriptedPeer) SendStatus(status message.CommandStatus) {
	p.SendEncrypted(message.CmdStatus, []byte{byte(status)})
}

// SendErrorReport pushes an ErrorReport for the given command.
func (p *ScriptedPeer) SendErrorReport(code message.ErrorCode, forCmd message.Command) {
	payload := make([]byte, 3)
	payload[0] = byte(code)
	binary.LittleEndian.PutUint16(payload[1:3], uint16(forCmd))
	p.SendEncrypted(message.CmdErrorReport, payload)
}

// onWrite is the pipe peripheral callback.
func (p *ScriptedPeer) onWrite(_ *transport.Pipe, _, char uuid.UUID, value []byte) {
	if p.Silent {
		return
	}
	switch {
	case char == p.profile.GDIO || char == p.profile.GDIOUltra:
		p.mu.Lock()
		p.pairingChar = char
		p.mu.Unlock()
		p.handlePairingWrite(value)
	case char == p.profile.USDIO:
		p.handleUserWrite(value)
	}
}

// handlePairingWrite implements the device side of the pairing handshake.
func (p *ScriptedPeer) handlePairingWrite(frame []byte) {
	cmd, payload, err := message.DecodePlain(frame)
	if err != nil {
		p.SendPlain(message.CmdErrorReport, []byte{byte(message.ErrorBadCRC), 0, 0})
		return
	}

	switch cmd {
	case message.CmdRequestData:
		if len(payload) >= 2 && message.Command(binary.LittleEndian.Uint16(payload)) == message.CmdPublicKey {
			p.SendPlain(message.CmdPublicKey, p.keypair.Public[:])
		}

	case message.CmdPublicKey:
		key, err := crypto.ComputeSharedKey(p.keypair.Private[:], payload)
		if err != nil {
			return
		}
		p.mu.Lock()
		p.key = key
		p.haveKey = true
		p.remoteClientKey = append([]byte(nil), payload...)
		p.mu.Unlock()
		p.issueChallenge()

	case message.CmdAuthorizationAuthenticator:
		p.mu.Lock()
		expected := crypto.HMACSHA256(p.key[:], p.remoteClientKey, p.keypair.Public[:], p.challenge)
		ok := crypto.HMACEqual(payload, expected[:])
		p.mu.Unlock()
		if !ok {
			p.SendPlain(message.CmdErrorReport, []byte{byte(message.PErrorBadAuthenticator), 0, 0})
			return
		}
		p.issueChallenge()

	case message.CmdAuthorizationData:
		// | authenticator (32) | id type (1) | app id (4) | name (32) | nonce (32) |
		if len(payload) < 32+1+4+32+32 {
			return
		}
		p.mu.Lock()
		expected := crypto.HMACSHA256(p.key[:], payload[32:], p.challenge)
		ok := crypto.HMACEqual(payload[:32], expected[:])
		p.mu.Unlock()
		if !ok {
			p.SendPlain(message.CmdErrorReport, []byte{byte(message.PErrorBadAuthenticator), 0, 0})
			return
		}
		p.sendAuthorizationID()

	case message.CmdAuthorizationIDConfirmation:
		if len(payload) < 32+4 {
			return
		}
		p.mu.Lock()
		expected := crypto.HMACSHA256(p.key[:], payload[32:36], p.challenge)
		ok := crypto.HMACEqual(payload[:32], expected[:])
		p.mu.Unlock()
		if !ok {
			p.SendPlain(message.CmdErrorReport, []byte{byte(message.PErrorBadAuthenticator), 0, 0})
			return
		}
		p.SendPlain(message.CmdStatus, []byte{byte(message.StatusComplete)})
	}
}

// issueChallenge mints and sends a fresh 32-byte challenge.
func (p *ScriptedPeer) issueChallenge() {
	nonce, err := crypto.GenerateNonce(crypto.ChallengeNonceSize)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.challenge = nonce
	p.mu.Unlock()
	p.SendPlain(message.CmdChallenge, nonce)
}

// sendAuthorizationID builds the classic AuthorizationID message with a
// fresh trailing challenge.
func (p *ScriptedPeer) sendAuthorizationID() {
	nonce, err := crypto.GenerateNonce(crypto.ChallengeNonceSize)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.challenge = nonce
	body := make([]byte, 0, 4+16+32)
	body = append(body, p.authID[:]...)
	body = append(body, p.lockID[:]...)
	body = append(body, nonce...)
	mac := crypto.HMACSHA256(p.key[:], body)
	p.mu.Unlock()

	msg := append(mac[:], body...)
	p.SendPlain(message.CmdAuthorizationID, msg)
}

// handleUserWrite decrypts a user-channel frame and answers it.
func (p *ScriptedPeer) handleUserWrite(frame []byte) {
	p.mu.Lock()
	key := p.key
	have := p.haveKey
	p.mu.Unlock()
	if !have {
		return
	}
	cmd, payload, err := message.Decrypt(frame, key[:])
	if err != nil {
		// Drop, like a real device with an unreadable frame.
		return
	}

	if p.OnCommand != nil && p.OnCommand(p, cmd, payload) {
		return
	}

	switch cmd {
	case message.CmdRequestData:
		if len(payload) < 2 {
			return
		}
		requested := message.Command(binary.LittleEndian.Uint16(payload))
		switch requested {
		case message.CmdChallenge:
			nonce, err := crypto.GenerateNonce(crypto.ChallengeNonceSize)
			if err != nil {
				return
			}
			p.mu.Lock()
			p.challenge = nonce
			p.mu.Unlock()
			p.SendEncrypted(message.CmdChallenge, nonce)
		case message.CmdKeyturnerStates:
			if p.StateRecord != nil {
				p.SendEncrypted(message.CmdKeyturnerStates, p.StateRecord)
			}
		}

	case message.CmdLockAction:
		p.SendStatus(message.StatusAccepted)
		p.SendStatus(message.StatusComplete)

	case message.CmdAuthorizationData:
		// Ultra handshake tail: assign the authorization id over the
		// encrypted channel.
		body := make([]byte, 0, 4+16)
		body = append(body, p.authID[:]...)
		body = append(body, p.lockID[:]...)
		p.SendEncrypted(message.CmdAuthorizationID, body)
	}
}

// NewPipeWith wires this peer into a pipe with custom failure injection.
func (p *ScriptedPeer) NewPipeWith(config transport.PipeConfig) *transport.Pipe {
	config.Peripheral = p.onWrite
	pipe := transport.NewPipe(config)
	p.pipe = pipe
	return pipe
}
