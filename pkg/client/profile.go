package client

import (
	"github.com/google/uuid"

	"github.com/backkem/nuki/pkg/message"
)

// Profile is the per-device-family constant set: the BLE services and
// characteristics to talk to, for both the classic and the ultra variant.
// The Smart Lock and the Opener are two profiles over the same engine.
type Profile struct {
	// Name names the engine logger. The credential namespace is chosen by
	// the integrator and does not derive from it.
	Name string

	// PairingService hosts the GDIO characteristic.
	PairingService uuid.UUID

	// PairingServiceUltra is the ultra family's pairing service.
	PairingServiceUltra uuid.UUID

	// Service hosts the USDIO characteristic after pairing.
	Service uuid.UUID

	// GDIO is the plaintext pairing characteristic.
	GDIO uuid.UUID

	// GDIOUltra is the ultra family's pairing characteristic.
	GDIOUltra uuid.UUID

	// USDIO is the authenticated user-data characteristic.
	USDIO uuid.UUID
}

// PairingServiceFor returns the pairing service of the given variant.
func (p *Profile) PairingServiceFor(ultra bool) uuid.UUID {
	if ultra {
		return p.PairingServiceUltra
	}
	return p.PairingService
}

// GDIOFor returns the pairing characteristic of the given variant.
func (p *Profile) GDIOFor(ultra bool) uuid.UUID {
	if ultra {
		return p.GDIOUltra
	}
	return p.GDIO
}

// IsGDIO reports whether the characteristic is either variant's pairing
// characteristic.
func (p *Profile) IsGDIO(char uuid.UUID) bool {
	return char == p.GDIO || char == p.GDIOUltra
}

// RecordHandler decodes device-family records the engine itself does not
// interpret (states, configs, list entries). The engine invokes it from the
// indication context for every decoded message it does not consume, before
// releasing the waiting state machine.
type RecordHandler interface {
	HandleRecord(cmd message.Command, payload []byte)
}
