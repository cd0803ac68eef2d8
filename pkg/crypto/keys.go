// Key agreement and key derivation for the Nuki BLE protocol.
// This implements the pairing cipher suite from the Nuki Smart Lock API:
// Curve25519 Diffie-Hellman followed by an HSalsa20 derivation of the
// long-term key k, matching the NaCl convention for deriving a secretbox
// key from a shared secret.

package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/salsa20/salsa"
)

// Key sizes for the pairing cipher suite.
const (
	// KeySize is the length of Curve25519 keys and derived secrets.
	KeySize = 32

	// SecretKeySize is the length of the long-term shared key k.
	SecretKeySize = 32
)

// Errors for key operations.
var (
	ErrInvalidKeySize = errors.New("crypto: invalid key size, must be 32 bytes")
	ErrLowOrderPoint  = errors.New("crypto: peer public key is a low-order point")
)

// Keypair is a transient Curve25519 keypair used for one pairing attempt.
// It is never persisted; only the derived long-term key survives pairing.
type Keypair struct {
	Public  [KeySize]byte
	Private [KeySize]byte
}

// GenerateKeypair creates a fresh Curve25519 keypair from the OS CSPRNG.
func GenerateKeypair() (*Keypair, error) {
	kp := &Keypair{}
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// SharedSecret computes the raw Curve25519 shared secret s between a local
// private key and a peer public key.
//
// Returns ErrLowOrderPoint if the peer key is one of the known low-order
// points (all-zero output).
func SharedSecret(priv, peerPub []byte) ([]byte, error) {
	if len(priv) != KeySize || len(peerPub) != KeySize {
		return nil, ErrInvalidKeySize
	}
	s, err := curve25519.X25519(priv, peerPub)
	if err != nil {
		return nil, ErrLowOrderPoint
	}
	return s, nil
}

// DeriveSecretKey derives the long-term key k from the raw shared secret s:
//
//	k = HSalsa20(key = s, in = 0^16, sigma = "expand 32-byte k")
//
// This is the same derivation NaCl applies in crypto_box_beforenm, so k is
// directly usable as a secretbox key.
func DeriveSecretKey(shared []byte) ([SecretKeySize]byte, error) {
	var k [SecretKeySize]byte
	if len(shared) != KeySize {
		return k, ErrInvalidKeySize
	}
	var s [KeySize]byte
	copy(s[:], shared)
	var zero [16]byte
	salsa.HSalsa20(&k, &zero, &s, &salsa.Sigma)
	return k, nil
}

// ComputeSharedKey runs the full pairing key agreement: Curve25519 scalar
// multiplication followed by the HSalsa20 derivation of k.
func ComputeSharedKey(priv, peerPub []byte) ([SecretKeySize]byte, error) {
	var k [SecretKeySize]byte
	s, err := SharedSecret(priv, peerPub)
	if err != nil {
		return k, err
	}
	return DeriveSecretKey(s)
}
