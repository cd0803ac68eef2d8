package crypto

import "testing"

func TestGenerateNonceLengths(t *testing.T) {
	for _, n := range []int{MessageNonceSize, ChallengeNonceSize, 1, 64} {
		nonce, err := GenerateNonce(n)
		if err != nil {
			t.Fatalf("GenerateNonce(%d) error: %v", n, err)
		}
		if len(nonce) != n {
			t.Errorf("GenerateNonce(%d) returned %d bytes", n, len(nonce))
		}
	}
}

func TestGenerateNonceUnique(t *testing.T) {
	const rounds = 4096
	seen := make(map[[MessageNonceSize]byte]struct{}, rounds)
	for i := 0; i < rounds; i++ {
		nonce, err := GenerateNonce(MessageNonceSize)
		if err != nil {
			t.Fatalf("GenerateNonce() error: %v", err)
		}
		var key [MessageNonceSize]byte
		copy(key[:], nonce)
		if _, dup := seen[key]; dup {
			t.Fatalf("nonce collision after %d draws", i)
		}
		seen[key] = struct{}{}
	}
}
