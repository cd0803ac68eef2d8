package message

import (
	"bytes"
	"testing"
)

var testSecretKey = []byte{
	0x21, 0x7f, 0xcb, 0x0e, 0xfc, 0xa2, 0x8a, 0x48,
	0x84, 0xbe, 0x41, 0xbb, 0x2b, 0x48, 0xbf, 0xb4,
	0x1e, 0xfa, 0x19, 0x21, 0x1d, 0x0e, 0x4f, 0x60,
	0x1b, 0x55, 0x36, 0x9b, 0x30, 0xaf, 0x7a, 0x4f,
}

var testAuthID = [AuthIDSize]byte{0x04, 0x03, 0x02, 0x01}

func TestCRCCheckValue(t *testing.T) {
	// CRC-16/CCITT-FALSE check value for the ASCII digits "123456789".
	if got := CRC([]byte("123456789")); got != 0x29B1 {
		t.Errorf("CRC(123456789) = 0x%04X, want 0x29B1", got)
	}
}

func TestPlainRoundtrip(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		payload []byte
	}{
		{"empty payload", CmdRequestData, nil},
		{"request public key", CmdRequestData, []byte{0x03, 0x00}},
		{"public key", CmdPublicKey, bytes.Repeat([]byte{0xAB}, 32)},
		{"authorization data", CmdAuthorizationData, bytes.Repeat([]byte{0x5A}, 101)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := EncodePlain(tt.cmd, tt.payload)
			cmd, payload, err := DecodePlain(frame)
			if err != nil {
				t.Fatalf("DecodePlain() error: %v", err)
			}
			if cmd != tt.cmd {
				t.Errorf("command = %v, want %v", cmd, tt.cmd)
			}
			if !bytes.Equal(payload, tt.payload) {
				t.Errorf("payload = %x, want %x", payload, tt.payload)
			}
		})
	}
}

// The documented example frame for requesting the public key during
// pairing: 0100 0300 27A7.
func TestPlainKnownFrame(t *testing.T) {
	frame := EncodePlain(CmdRequestData, []byte{0x03, 0x00})
	want := []byte{0x01, 0x00, 0x03, 0x00, 0x27, 0xA7}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = %x, want %x", frame, want)
	}
}

func TestDecodePlainRejectsCorruption(t *testing.T) {
	frame := EncodePlain(CmdChallenge, []byte{0x01, 0x02, 0x03})

	short := frame[:3]
	if _, _, err := DecodePlain(short); err != ErrFrameTooShort {
		t.Errorf("short frame: got %v, want ErrFrameTooShort", err)
	}

	corrupt := bytes.Clone(frame)
	corrupt[2] ^= 0xFF
	if _, _, err := DecodePlain(corrupt); err != ErrCRCInvalid {
		t.Errorf("corrupt frame: got %v, want ErrCRCInvalid", err)
	}
}

func TestEncryptedRoundtrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x04, 0x00},
		bytes.Repeat([]byte{0x11}, 32),
		bytes.Repeat([]byte{0x77}, MaxPayloadSize),
	}
	for _, payload := range payloads {
		frame, err := Encrypt(CmdRequestData, payload, testAuthID, testSecretKey)
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		id, err := AuthID(frame)
		if err != nil {
			t.Fatalf("AuthID() error: %v", err)
		}
		if id != testAuthID {
			t.Errorf("frame auth id = %x, want %x", id, testAuthID)
		}

		cmd, got, err := Decrypt(frame, testSecretKey)
		if err != nil {
			t.Fatalf("Decrypt() error: %v", err)
		}
		if cmd != CmdRequestData {
			t.Errorf("command = %v, want RequestData", cmd)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("payload = %x, want %x", got, payload)
		}
	}
}

func TestEncryptRejectsOversizedPayload(t *testing.T) {
	_, err := Encrypt(CmdLockAction, make([]byte, MaxPayloadSize+1), testAuthID, testSecretKey)
	if err != ErrPayloadTooLong {
		t.Errorf("got %v, want ErrPayloadTooLong", err)
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	frame, err := Encrypt(CmdKeyturnerStates, []byte{0x01}, testAuthID, testSecretKey)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	// Flip a ciphertext bit.
	tampered := bytes.Clone(frame)
	tampered[len(tampered)-1] ^= 0x01
	if _, _, err := Decrypt(tampered, testSecretKey); err != ErrDecryptFailed {
		t.Errorf("tampered ciphertext: got %v, want ErrDecryptFailed", err)
	}

	// Flip a nonce bit.
	tampered = bytes.Clone(frame)
	tampered[0] ^= 0x01
	if _, _, err := Decrypt(tampered, testSecretKey); err != ErrDecryptFailed {
		t.Errorf("tampered nonce: got %v, want ErrDecryptFailed", err)
	}

	// Wrong key.
	wrongKey := bytes.Clone(testSecretKey)
	wrongKey[0] ^= 0x01
	if _, _, err := Decrypt(frame, wrongKey); err != ErrDecryptFailed {
		t.Errorf("wrong key: got %v, want ErrDecryptFailed", err)
	}

	// Truncated frame.
	if _, _, err := Decrypt(frame[:MinEncryptedFrameSize-1], testSecretKey); err != ErrFrameTooShort {
		t.Errorf("truncated frame: got %v, want ErrFrameTooShort", err)
	}

	// Length field disagrees with the actual ciphertext.
	tampered = bytes.Clone(frame)
	tampered[NonceSize+AuthIDSize] ^= 0x01
	if _, _, err := Decrypt(tampered, testSecretKey); err != ErrBadFrame {
		t.Errorf("bad length field: got %v, want ErrBadFrame", err)
	}
}

func TestEncryptNonceFreshness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 256; i++ {
		frame, err := Encrypt(CmdRequestData, []byte{0x0C, 0x00}, testAuthID, testSecretKey)
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}
		nonce := string(frame[:NonceSize])
		if _, dup := seen[nonce]; dup {
			t.Fatalf("nonce repeated after %d messages", i)
		}
		seen[nonce] = struct{}{}
	}
}
