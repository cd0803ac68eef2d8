package crypto

import "crypto/rand"

// Nonce sizes used on the wire.
const (
	// MessageNonceSize is the XSalsa20-Poly1305 nonce length carried in
	// every encrypted frame.
	MessageNonceSize = 24

	// ChallengeNonceSize is the length of challenge nonces and of the
	// client nonce inside the authorization data.
	ChallengeNonceSize = 32
)

// GenerateNonce fills a fresh buffer of the given length from the OS CSPRNG.
// Predictable nonces break both the pairing handshake and the authenticated
// channel, so there is deliberately no seedable variant.
func GenerateNonce(length int) ([]byte, error) {
	nonce := make([]byte, length)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}
