package store

import (
	"encoding/binary"
	"errors"

	"github.com/backkem/nuki/pkg/transport"
)

// Credential sizes.
const (
	SecretKeySize       = 32
	AuthorizationIDSize = 4
)

// Credential errors.
var (
	ErrBadRecordSize = errors.New("store: credential record has wrong size")
)

// Credentials is the persistent outcome of a successful pairing.
type Credentials struct {
	Address         transport.Address
	SecretKey       [SecretKeySize]byte
	AuthorizationID [AuthorizationIDSize]byte
	IsUltra         bool

	// Pin is the 16-bit classic security PIN. Zero means unset.
	Pin uint16

	// UltraPin is the 6-digit PIN of the ultra family. Zero means unset.
	UltraPin uint32
}

// Paired reports whether the credentials bind to a device: both the secret
// key and the authorization id must be non-zero.
func (c *Credentials) Paired() bool {
	return c.SecretKey != [SecretKeySize]byte{} && c.AuthorizationID != [AuthorizationIDSize]byte{}
}

// LoadCredentials reads the credential records of one namespace. Missing
// records yield zero values, which Paired() classifies as unpaired.
func LoadCredentials(s Store) (*Credentials, error) {
	c := &Credentials{}

	if b, err := s.GetBytes(KeyBLEAddress); err == nil {
		addr, err := transport.AddressFromStorage(b)
		if err != nil {
			return nil, ErrBadRecordSize
		}
		c.Address = addr
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if b, err := s.GetBytes(KeySecretKey); err == nil {
		if len(b) != SecretKeySize {
			return nil, ErrBadRecordSize
		}
		copy(c.SecretKey[:], b)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if b, err := s.GetBytes(KeyAuthorizationID); err == nil {
		if len(b) != AuthorizationIDSize {
			return nil, ErrBadRecordSize
		}
		copy(c.AuthorizationID[:], b)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c.IsUltra = s.GetBool(KeyIsUltra, false)

	if b, err := s.GetBytes(KeySecurityPin); err == nil && len(b) == 2 {
		c.Pin = binary.LittleEndian.Uint16(b)
	}
	if b, err := s.GetBytes(KeyUltraPin); err == nil && len(b) == 4 {
		c.UltraPin = binary.LittleEndian.Uint32(b)
	}

	return c, nil
}

// Save writes the credentials. When the stored address differs from the one
// being saved this is a binding to a new device, so the stored PIN is reset
// to zero rather than leaking into the new binding.
func (c *Credentials) Save(s Store) error {
	sameAddress := false
	if b, err := s.GetBytes(KeyBLEAddress); err == nil {
		if prev, err := transport.AddressFromStorage(b); err == nil {
			sameAddress = prev == c.Address
		}
	}

	pin := c.Pin
	ultraPin := c.UltraPin
	if !sameAddress {
		pin = 0
		ultraPin = 0
	}

	var pinBuf [2]byte
	binary.LittleEndian.PutUint16(pinBuf[:], pin)
	if err := s.PutBytes(KeySecurityPin, pinBuf[:]); err != nil {
		return err
	}
	var ultraPinBuf [4]byte
	binary.LittleEndian.PutUint32(ultraPinBuf[:], ultraPin)
	if err := s.PutBytes(KeyUltraPin, ultraPinBuf[:]); err != nil {
		return err
	}

	if err := s.PutBytes(KeyBLEAddress, c.Address.StorageBytes()); err != nil {
		return err
	}
	if err := s.PutBytes(KeySecretKey, c.SecretKey[:]); err != nil {
		return err
	}
	if err := s.PutBytes(KeyAuthorizationID, c.AuthorizationID[:]); err != nil {
		return err
	}
	return s.PutBool(KeyIsUltra, c.IsUltra)
}

// SavePin persists only the PIN records of the variant the credentials
// belong to.
func (c *Credentials) SavePin(s Store) error {
	if c.IsUltra {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], c.UltraPin)
		return s.PutBytes(KeyUltraPin, buf[:])
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], c.Pin)
	return s.PutBytes(KeySecurityPin, buf[:])
}

// ClearCredentials zeroes the secret key and authorization id and drops the
// ultra flag, returning the namespace to the unpaired state. The address and
// PIN records stay, matching the established record layout.
func ClearCredentials(s Store) error {
	if err := s.PutBytes(KeySecretKey, make([]byte, SecretKeySize)); err != nil {
		return err
	}
	if err := s.PutBytes(KeyAuthorizationID, make([]byte, AuthorizationIDSize)); err != nil {
		return err
	}
	return s.PutBool(KeyIsUltra, false)
}
