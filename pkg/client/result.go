package client

import "fmt"

// CmdResult is the caller-visible outcome of one command execution.
type CmdResult int

// Command results.
const (
	// CmdResultSuccess: the device answered and any returned records are valid.
	CmdResultSuccess CmdResult = iota

	// CmdResultFailed: the device reported an error other than busy, or a
	// local invariant was violated (unknown state, send failed).
	CmdResultFailed

	// CmdResultTimeOut: a per-step or bulk-collection deadline elapsed.
	CmdResultTimeOut

	// CmdResultWorking: internal progress marker, never returned to callers.
	CmdResultWorking

	// CmdResultNotPaired: credentials are missing or empty.
	CmdResultNotPaired

	// CmdResultLockBusy: the device reported K_ERROR_BUSY.
	CmdResultLockBusy

	// CmdResultError: the heartbeat guard tripped; the link was not touched.
	CmdResultError
)

func (r CmdResult) String() string {
	switch r {
	case CmdResultSuccess:
		return "Success"
	case CmdResultFailed:
		return "Failed"
	case CmdResultTimeOut:
		return "TimeOut"
	case CmdResultWorking:
		return "Working"
	case CmdResultNotPaired:
		return "NotPaired"
	case CmdResultLockBusy:
		return "LockBusy"
	case CmdResultError:
		return "Error"
	default:
		return fmt.Sprintf("CmdResult(%d)", int(r))
	}
}

// PairingResult is the outcome of one Pair call.
type PairingResult int

// Pairing results.
const (
	// PairingSuccess: credentials are stored, the device is paired.
	PairingSuccess PairingResult = iota

	// PairingInProgress: no device in pairing mode has been sighted yet;
	// keep the scanner running and call Pair again.
	PairingInProgress

	// PairingTimeout: a device in pairing mode was sighted but pairing did
	// not complete: the handshake missed the pairing deadline, or bonding,
	// connecting, key generation or saving the credentials failed.
	PairingTimeout
)

func (r PairingResult) String() string {
	switch r {
	case PairingSuccess:
		return "Success"
	case PairingInProgress:
		return "Pairing"
	case PairingTimeout:
		return "Timeout"
	default:
		return fmt.Sprintf("PairingResult(%d)", int(r))
	}
}

// EventType identifies an asynchronous notification towards the integrator.
type EventType int

// Events.
const (
	// EventKeyTurnerStatusUpdated: the status beacon toggled on; device
	// state changed out-of-band.
	EventKeyTurnerStatusUpdated EventType = iota

	// EventKeyTurnerStatusReset: the status beacon toggled back off.
	EventKeyTurnerStatusReset

	// EventBLEErrorOnDisconnect: the link refused to tear down cleanly.
	EventBLEErrorOnDisconnect

	// EventErrorBadPin: the device rejected the stored security PIN.
	EventErrorBadPin
)

func (e EventType) String() string {
	switch e {
	case EventKeyTurnerStatusUpdated:
		return "KeyTurnerStatusUpdated"
	case EventKeyTurnerStatusReset:
		return "KeyTurnerStatusReset"
	case EventBLEErrorOnDisconnect:
		return "BleErrorOnDisconnect"
	case EventErrorBadPin:
		return "ErrorBadPin"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// EventHandler receives asynchronous events. Notify is called from the
// indication and scanner contexts and must not block.
type EventHandler interface {
	Notify(event EventType)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(event EventType)

// Notify implements EventHandler.
func (f EventHandlerFunc) Notify(event EventType) { f(event) }
