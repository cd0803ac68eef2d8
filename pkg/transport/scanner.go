package transport

import "github.com/google/uuid"

// Advertisement is one advertising report from the scanner.
type Advertisement struct {
	Address          Address
	RSSI             int
	Name             string
	ManufacturerData []byte
	ServiceData      map[uuid.UUID][]byte
	Services         []uuid.UUID
}

// HasServiceData reports whether the advertisement carries service data for
// the given service.
func (a *Advertisement) HasServiceData(service uuid.UUID) bool {
	if a.ServiceData == nil {
		return false
	}
	_, ok := a.ServiceData[service]
	return ok
}

// Listener consumes advertisements. The scanner publisher calls
// OnAdvertisement from its own receive context.
type Listener interface {
	OnAdvertisement(adv *Advertisement)
}

// Scanner publishes advertising reports to subscribed listeners.
// Listeners hold only a registration reference to the scanner; the scanner
// never learns anything about its listeners beyond this interface.
type Scanner interface {
	Subscribe(l Listener)
	Unsubscribe(l Listener)

	// EnableScanning pauses or resumes scanning. Connect attempts disable
	// scanning because most controllers cannot do both at once.
	EnableScanning(enable bool)
}
