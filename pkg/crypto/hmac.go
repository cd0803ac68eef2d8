package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSize is the length of an HMAC-SHA256 authenticator.
const HMACSize = sha256.Size

// HMACSHA256 computes the HMAC-SHA256 of a message using the given key.
// The pairing handshake uses this for every authenticator: over the
// concatenated public keys and challenge, over the authorization data, over
// the authorization id confirmation, and to verify the AuthorizationID
// message.
//
// Returns a 32-byte authenticator.
func HMACSHA256(key []byte, parts ...[]byte) [HMACSize]byte {
	h := hmac.New(sha256.New, key)
	for _, p := range parts {
		h.Write(p)
	}
	var result [HMACSize]byte
	copy(result[:], h.Sum(nil))
	return result
}

// HMACEqual compares two authenticators in constant time.
// This should be used instead of bytes.Equal to prevent timing attacks.
func HMACEqual(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}
