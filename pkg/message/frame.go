// Frame codecs for the two Nuki BLE channels.
//
// Pairing channel (GDIO), plaintext:
//
//	| command id (2 LE) | payload (N) | CRC-16 over the first 2+N bytes (2 LE) |
//
// User channel (USDIO), authenticated encryption:
//
//	| nonce (24) | auth id (4 LE) | cipher length (2 LE) | ciphertext |
//
// where the ciphertext is XSalsa20-Poly1305 over
//
//	| auth id (4 LE) | command id (2 LE) | payload (N) | CRC-16 (2 LE) |

package message

import (
	"encoding/binary"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/backkem/nuki/pkg/crypto"
)

// EncodePlain builds a pairing-channel frame for the given command and
// payload.
func EncodePlain(cmd Command, payload []byte) []byte {
	buf := make([]byte, CommandSize+len(payload)+CRCSize)
	binary.LittleEndian.PutUint16(buf, uint16(cmd))
	copy(buf[CommandSize:], payload)
	crc := CRC(buf[:CommandSize+len(payload)])
	binary.LittleEndian.PutUint16(buf[CommandSize+len(payload):], crc)
	return buf
}

// DecodePlain parses a pairing-channel frame and verifies its CRC.
// The returned payload aliases a fresh copy, not the input buffer.
func DecodePlain(frame []byte) (Command, []byte, error) {
	if len(frame) < MinPlainFrameSize {
		return CmdEmpty, nil, ErrFrameTooShort
	}
	if !crcValid(frame) {
		return CmdEmpty, nil, ErrCRCInvalid
	}
	cmd := Command(binary.LittleEndian.Uint16(frame))
	payload := make([]byte, len(frame)-MinPlainFrameSize)
	copy(payload, frame[CommandSize:len(frame)-CRCSize])
	return cmd, payload, nil
}

// Encrypt builds a user-channel frame: it wraps the command and payload in
// the inner CRC envelope, seals it with XSalsa20-Poly1305 under a fresh
// 24-byte nonce and prefixes the unencrypted additional data.
func Encrypt(cmd Command, payload []byte, authID [AuthIDSize]byte, key []byte) ([]byte, error) {
	if len(key) != SecretKeySize {
		return nil, ErrInvalidKey
	}
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLong
	}

	// Inner plaintext: auth id, command, payload, CRC.
	plain := make([]byte, AuthIDSize+CommandSize+len(payload)+CRCSize)
	copy(plain, authID[:])
	binary.LittleEndian.PutUint16(plain[AuthIDSize:], uint16(cmd))
	copy(plain[AuthIDSize+CommandSize:], payload)
	body := plain[:len(plain)-CRCSize]
	binary.LittleEndian.PutUint16(plain[len(plain)-CRCSize:], CRC(body))

	nonceBytes, err := crypto.GenerateNonce(NonceSize)
	if err != nil {
		return nil, ErrEncryptFailed
	}
	var nonce [NonceSize]byte
	copy(nonce[:], nonceBytes)
	var secretKey [SecretKeySize]byte
	copy(secretKey[:], key)

	cipher := secretbox.Seal(nil, plain, &nonce, &secretKey)

	frame := make([]byte, NonceSize+AuthIDSize+2+len(cipher))
	copy(frame, nonce[:])
	copy(frame[NonceSize:], authID[:])
	binary.LittleEndian.PutUint16(frame[NonceSize+AuthIDSize:], uint16(len(cipher)))
	copy(frame[MinEncryptedFrameSize:], cipher)
	return frame, nil
}

// Decrypt parses a user-channel frame, opens the secretbox and verifies the
// inner CRC. Returns the command and payload of the decrypted message.
func Decrypt(frame []byte, key []byte) (Command, []byte, error) {
	if len(key) != SecretKeySize {
		return CmdEmpty, nil, ErrInvalidKey
	}
	if len(frame) < MinEncryptedFrameSize {
		return CmdEmpty, nil, ErrFrameTooShort
	}

	var nonce [NonceSize]byte
	copy(nonce[:], frame[:NonceSize])
	cipherLen := int(binary.LittleEndian.Uint16(frame[NonceSize+AuthIDSize:]))
	cipher := frame[MinEncryptedFrameSize:]
	if cipherLen != len(cipher) || cipherLen < MACSize {
		return CmdEmpty, nil, ErrBadFrame
	}

	var secretKey [SecretKeySize]byte
	copy(secretKey[:], key)
	plain, ok := secretbox.Open(nil, cipher, &nonce, &secretKey)
	if !ok {
		return CmdEmpty, nil, ErrDecryptFailed
	}

	if len(plain) < AuthIDSize+CommandSize+CRCSize {
		return CmdEmpty, nil, ErrBadFrame
	}
	if !crcValid(plain) {
		return CmdEmpty, nil, ErrCRCInvalid
	}

	cmd := Command(binary.LittleEndian.Uint16(plain[AuthIDSize:]))
	payload := make([]byte, len(plain)-AuthIDSize-CommandSize-CRCSize)
	copy(payload, plain[AuthIDSize+CommandSize:len(plain)-CRCSize])
	return cmd, payload, nil
}

// AuthID extracts the unencrypted authorization identifier of an encrypted
// frame without opening it. Used to route frames on shared characteristics.
func AuthID(frame []byte) ([AuthIDSize]byte, error) {
	var id [AuthIDSize]byte
	if len(frame) < MinEncryptedFrameSize {
		return id, ErrFrameTooShort
	}
	copy(id[:], frame[NonceSize:NonceSize+AuthIDSize])
	return id, nil
}
