package message

import "errors"

// Framing errors.
var (
	// Plain and encrypted frame decoding
	ErrFrameTooShort = errors.New("message: frame too short")
	ErrCRCInvalid    = errors.New("message: CRC check failed")
	ErrBadFrame      = errors.New("message: malformed frame")

	// Encrypted channel
	ErrDecryptFailed  = errors.New("message: decryption/authentication failed")
	ErrEncryptFailed  = errors.New("message: encryption failed")
	ErrPayloadTooLong = errors.New("message: payload exceeds maximum size")
	ErrInvalidKey     = errors.New("message: invalid secret key length")
)

// Frame format constants.
const (
	// CommandSize is the length of a command identifier on the wire.
	CommandSize = 2

	// CRCSize is the length of the trailing CRC-16.
	CRCSize = 2

	// AuthIDSize is the length of the authorization identifier carried in
	// every encrypted frame.
	AuthIDSize = 4

	// NonceSize is the XSalsa20-Poly1305 nonce prefix of an encrypted frame.
	NonceSize = 24

	// MACSize is the Poly1305 tag the secretbox seals into the ciphertext.
	MACSize = 16

	// SecretKeySize is the secretbox key length.
	SecretKeySize = 32

	// MinPlainFrameSize is command id plus CRC.
	MinPlainFrameSize = CommandSize + CRCSize

	// MinEncryptedFrameSize is nonce, auth id and cipher length with an
	// empty ciphertext.
	MinEncryptedFrameSize = NonceSize + AuthIDSize + 2

	// MaxPayloadSize bounds outbound payloads. The largest record sent to a
	// device (a new keypad or authorization entry) stays well under this.
	MaxPayloadSize = 200
)
