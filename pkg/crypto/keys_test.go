package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/nacl/box"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex fixture: %v", err)
	}
	return b
}

// Reference vector from the NaCl test suite: Alice's secret key and Bob's
// public key yield the well-known precomputed secretbox key.
func TestDeriveSecretKeyVector(t *testing.T) {
	aliceSK := mustHex(t, "77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a")
	bobPK := mustHex(t, "de9edb7d7b7dc1b4d35b61c2ece435373f8343c85b78674dadfc7e146f882b4f")
	want := mustHex(t, "1b27556473e985d462cd51197a9a46c76009549eae5845f95151ff14a496534f")

	k, err := ComputeSharedKey(aliceSK, bobPK)
	if err != nil {
		t.Fatalf("ComputeSharedKey() error: %v", err)
	}
	if !bytes.Equal(k[:], want) {
		t.Errorf("derived key = %x, want %x", k, want)
	}
}

// The HSalsa20 derivation must agree with NaCl's own precomputation for any
// keypair, not just the fixed vector.
func TestDeriveSecretKeyMatchesPrecompute(t *testing.T) {
	for i := 0; i < 8; i++ {
		local, err := GenerateKeypair()
		if err != nil {
			t.Fatalf("GenerateKeypair() error: %v", err)
		}
		peer, err := GenerateKeypair()
		if err != nil {
			t.Fatalf("GenerateKeypair() error: %v", err)
		}

		k, err := ComputeSharedKey(local.Private[:], peer.Public[:])
		if err != nil {
			t.Fatalf("ComputeSharedKey() error: %v", err)
		}

		var want [32]byte
		box.Precompute(&want, &peer.Public, &local.Private)
		if k != want {
			t.Errorf("iteration %d: derived key does not match box.Precompute", i)
		}
	}
}

func TestSharedSecretCommutes(t *testing.T) {
	a, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	b, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}

	sAB, err := SharedSecret(a.Private[:], b.Public[:])
	if err != nil {
		t.Fatalf("SharedSecret(a, b) error: %v", err)
	}
	sBA, err := SharedSecret(b.Private[:], a.Public[:])
	if err != nil {
		t.Fatalf("SharedSecret(b, a) error: %v", err)
	}
	if !bytes.Equal(sAB, sBA) {
		t.Errorf("shared secrets differ: %x vs %x", sAB, sBA)
	}
}

func TestSharedSecretRejectsBadSizes(t *testing.T) {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}

	if _, err := SharedSecret(kp.Private[:16], kp.Public[:]); err != ErrInvalidKeySize {
		t.Errorf("short private key: got %v, want ErrInvalidKeySize", err)
	}
	if _, err := SharedSecret(kp.Private[:], kp.Public[:31]); err != ErrInvalidKeySize {
		t.Errorf("short public key: got %v, want ErrInvalidKeySize", err)
	}

	// All-zero peer key is a low-order point.
	if _, err := SharedSecret(kp.Private[:], make([]byte, 32)); err != ErrLowOrderPoint {
		t.Errorf("zero public key: got %v, want ErrLowOrderPoint", err)
	}
}

func TestHMACSHA256Parts(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	whole := HMACSHA256(key, []byte("abcdef"))
	split := HMACSHA256(key, []byte("abc"), []byte("def"))
	if whole != split {
		t.Errorf("HMAC over split parts differs from contiguous message")
	}
	if !HMACEqual(whole[:], split[:]) {
		t.Errorf("HMACEqual rejected equal MACs")
	}
	other := HMACSHA256(key, []byte("abcdeg"))
	if HMACEqual(whole[:], other[:]) {
		t.Errorf("HMACEqual accepted different MACs")
	}
}
