package client

import (
	"time"

	"github.com/backkem/nuki/pkg/transport"
)

// iBeacon manufacturer payload: Apple company id (2), type/length (2),
// proximity UUID (16), major (2), minor (2), measured power (1).
const (
	iBeaconLength   = 25
	iBeaconSignalAt = 24
)

// OnAdvertisement implements transport.Listener.
//
// Paired devices advertise an Apple-format iBeacon whose measured-power LSB
// flips with every device event; the 0→1 transition raises
// KeyTurnerStatusUpdated and the return to 0 raises KeyTurnerStatusReset.
// Unpaired, the listener watches for service data on either pairing service
// to discover a device in pairing mode. A sighting stays valid for two
// seconds.
func (d *Device) OnAdvertisement(adv *transport.Advertisement) {
	d.mu.Lock()
	paired := d.paired
	ownAddr := d.creds.Address
	d.mu.Unlock()

	if paired {
		if adv.Address != ownAddr {
			return
		}
		d.mu.Lock()
		d.rssi = adv.RSSI
		d.lastBeacon = time.Now()
		d.mu.Unlock()

		md := adv.ManufacturerData
		if len(md) != iBeaconLength || md[0] != 0x4C || md[1] != 0x00 {
			return
		}

		d.mu.Lock()
		d.lastHeartbeat = time.Now()
		bit := md[iBeaconSignalAt]&0x01 != 0
		was := d.statusBit
		d.statusBit = bit
		d.mu.Unlock()

		if bit && !was {
			d.notify(EventKeyTurnerStatusUpdated)
		} else if !bit && was {
			d.notify(EventKeyTurnerStatusReset)
		}
		return
	}

	if adv.HasServiceData(d.profile.PairingService) {
		if d.log != nil {
			d.log.Debugf("found device in pairing mode: %s (%s)", adv.Name, adv.Address)
		}
		d.mu.Lock()
		d.pairingAddr = adv.Address
		d.pairingUltra = false
		d.pairingOffered = true
		d.pairingSeen = time.Now()
		d.mu.Unlock()
		return
	}

	if adv.HasServiceData(d.profile.PairingServiceUltra) {
		d.mu.Lock()
		pin := d.pairingPin
		d.mu.Unlock()
		if pin == 0 {
			if d.log != nil {
				d.log.Debugf("ignoring ultra pairing offer, no pairing PIN set")
			}
			return
		}
		if d.log != nil {
			d.log.Debugf("found ultra device in pairing mode: %s (%s)", adv.Name, adv.Address)
		}
		d.mu.Lock()
		d.pairingAddr = adv.Address
		d.pairingUltra = true
		d.pairingOffered = true
		d.pairingSeen = time.Now()
		d.mu.Unlock()
	}
}

// PairingOffered reports whether a device in pairing mode was sighted
// within the validity window.
func (d *Device) PairingOffered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pairingOffered && time.Since(d.pairingSeen) <= pairingServiceWindow
}
