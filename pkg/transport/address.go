package transport

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressSize is the length of a BLE device address.
const AddressSize = 6

// ErrInvalidAddress is returned for malformed textual addresses.
var ErrInvalidAddress = errors.New("transport: invalid BLE address")

// Address is a BLE device address in its textual byte order, i.e.
// Address[0] is the first octet of "AA:BB:CC:DD:EE:FF".
type Address [AddressSize]byte

// ParseAddress parses "AA:BB:CC:DD:EE:FF" (case-insensitive, ':' or '-'
// separated, or bare hex).
func ParseAddress(s string) (Address, error) {
	var a Address
	clean := strings.NewReplacer(":", "", "-", "").Replace(s)
	if len(clean) != AddressSize*2 {
		return a, ErrInvalidAddress
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return a, ErrInvalidAddress
	}
	copy(a[:], b)
	return a, nil
}

func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IsZero reports whether the address is all zeros (no device).
func (a Address) IsZero() bool {
	return a == Address{}
}

// StorageBytes returns the address bytes in reversed order. Persisted
// credentials keep the reversed representation for compatibility with the
// existing record layout.
func (a Address) StorageBytes() []byte {
	b := make([]byte, AddressSize)
	for i := 0; i < AddressSize; i++ {
		b[i] = a[AddressSize-1-i]
	}
	return b
}

// AddressFromStorage rebuilds an Address from its reversed stored form.
func AddressFromStorage(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, ErrInvalidAddress
	}
	for i := 0; i < AddressSize; i++ {
		a[i] = b[AddressSize-1-i]
	}
	return a, nil
}
