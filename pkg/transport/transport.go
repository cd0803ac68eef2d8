// Package transport defines the narrow interfaces the protocol engine
// needs from a BLE stack: a central that can connect, write GATT values and
// deliver indications, and a scanner that publishes advertisements.
//
// Real hardware is served by the goble subpackage; tests use the in-memory
// Pipe peripheral.
package transport

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Transport errors shared by implementations.
var (
	ErrNotConnected     = errors.New("transport: not connected")
	ErrConnectFailed    = errors.New("transport: connect failed")
	ErrServiceNotFound  = errors.New("transport: service not found")
	ErrCharNotFound     = errors.New("transport: characteristic not found")
	ErrSubscribeFailed  = errors.New("transport: subscribe failed")
	ErrWriteFailed      = errors.New("transport: write failed")
	ErrBondingRefused   = errors.New("transport: bonding refused")
	ErrBondsUnsupported = errors.New("transport: bonding not supported")
)

// IndicationHandler receives the value of an indication together with the
// characteristic it arrived on. Implementations invoke it from their own
// receive context; handlers must not block on transport calls.
type IndicationHandler func(characteristic uuid.UUID, value []byte)

// Transport is a connected BLE central towards one peripheral.
type Transport interface {
	// Connect establishes a link to the peripheral. When refreshServices
	// is set the implementation must rediscover GATT services instead of
	// using a cached database.
	Connect(ctx context.Context, addr Address, refreshServices bool) error

	// Disconnect tears down the link. It is a no-op when not connected.
	Disconnect() error

	// IsConnected reports the link state.
	IsConnected() bool

	// RSSI returns the current received signal strength, 0 if unknown.
	RSSI() int

	// WriteCharacteristic writes a value to the given characteristic.
	WriteCharacteristic(service, characteristic uuid.UUID, value []byte, withResponse bool) error

	// Subscribe registers for indications on the given characteristic.
	// The handler stays registered until the link drops.
	Subscribe(service, characteristic uuid.UUID, handler IndicationHandler) error
}

// Bonder is implemented by transports that support SMP bonding. The ultra
// device family requires a keyboard-only passkey bond before pairing.
type Bonder interface {
	// Bond initiates SMP bonding with keyboard-only IO capability using
	// the given 6-digit passkey.
	Bond(ctx context.Context, addr Address, passkey uint32) error

	// DeleteBond removes an existing bond so a fresh one can be created.
	DeleteBond(addr Address) error
}
