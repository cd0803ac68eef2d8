// Package store persists pairing credentials and security PINs.
//
// The engine talks to a small namespaced key/value contract; the file-backed
// implementation keeps one YAML document per namespace and writes it
// atomically, so a crash never leaves a half-updated record.
package store

import "errors"

// Store errors.
var (
	ErrNotFound = errors.New("store: record not found")
)

// Record names. These are stable across upgrades; changing one orphans
// every previously paired device.
const (
	KeyBLEAddress      = "bleAddress"
	KeySecretKey       = "secretKey"
	KeyAuthorizationID = "authorizationId"
	KeySecurityPin     = "securityPin"
	KeyUltraPin        = "ultraPin"
	KeyIsUltra         = "isUltra"
)

// Store is one namespace of byte and boolean records.
type Store interface {
	// GetBytes returns the named record, or ErrNotFound.
	GetBytes(name string) ([]byte, error)

	// PutBytes writes the named record.
	PutBytes(name string, value []byte) error

	// GetBool returns the named flag, or def when absent.
	GetBool(name string, def bool) bool

	// PutBool writes the named flag.
	PutBool(name string, value bool) error
}

// Provider opens namespaces. The engine uses one namespace per device
// identity, so two devices never share credential records.
type Provider interface {
	Open(namespace string) (Store, error)
}
