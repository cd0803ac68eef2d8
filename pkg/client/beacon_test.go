package client

import (
	"testing"
	"time"

	"github.com/backkem/nuki/pkg/transport"
)

// statusBeacon builds an iBeacon manufacturer payload with the given
// measured-power LSB.
func statusBeacon(lsb byte) []byte {
	md := make([]byte, 25)
	md[0] = 0x4C // Apple company id
	md[1] = 0x00
	md[2] = 0x02 // iBeacon type
	md[3] = 0x15 // iBeacon length
	md[24] = 0xB2 | (lsb & 0x01)
	return md
}

func beaconAdvertisement(addr transport.Address, lsb byte) *transport.Advertisement {
	return &transport.Advertisement{
		Address:          addr,
		RSSI:             -55,
		ManufacturerData: statusBeacon(lsb),
	}
}

func drainEvents(events chan EventType) []EventType {
	var out []EventType
	for {
		select {
		case e := <-events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestStatusBeaconToggle(t *testing.T) {
	env := newPairedEnv(t, nil)

	// LSB sequence 0, 1, 0 must produce (none), Updated, Reset.
	env.scanner.Publish(beaconAdvertisement(testAddr, 0))
	if got := drainEvents(env.events); len(got) != 0 {
		t.Fatalf("events after first beacon = %v, want none", got)
	}

	env.scanner.Publish(beaconAdvertisement(testAddr, 1))
	got := drainEvents(env.events)
	if len(got) != 1 || got[0] != EventKeyTurnerStatusUpdated {
		t.Fatalf("events after toggle on = %v, want [KeyTurnerStatusUpdated]", got)
	}

	// A repeated on-beacon must not re-notify.
	env.scanner.Publish(beaconAdvertisement(testAddr, 1))
	if got := drainEvents(env.events); len(got) != 0 {
		t.Fatalf("events after repeated beacon = %v, want none", got)
	}

	env.scanner.Publish(beaconAdvertisement(testAddr, 0))
	got = drainEvents(env.events)
	if len(got) != 1 || got[0] != EventKeyTurnerStatusReset {
		t.Fatalf("events after toggle off = %v, want [KeyTurnerStatusReset]", got)
	}
}

func TestBeaconUpdatesObservers(t *testing.T) {
	env := newPairedEnv(t, nil)
	before := env.device.LastBeacon()

	env.scanner.Publish(beaconAdvertisement(testAddr, 0))

	if env.device.RSSI() != -55 {
		t.Errorf("RSSI() = %d, want -55", env.device.RSSI())
	}
	if !env.device.LastBeacon().After(before) {
		t.Errorf("LastBeacon() not refreshed")
	}
	if time.Since(env.device.LastHeartbeat()) > time.Second {
		t.Errorf("heartbeat not refreshed by beacon")
	}
}

func TestBeaconIgnoresOtherDevices(t *testing.T) {
	env := newPairedEnv(t, nil)
	other := transport.Address{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

	env.scanner.Publish(beaconAdvertisement(other, 1))
	if got := drainEvents(env.events); len(got) != 0 {
		t.Errorf("events from foreign beacon = %v, want none", got)
	}
	if env.device.RSSI() == -55 {
		t.Errorf("RSSI taken from foreign beacon")
	}
}

func TestBeaconIgnoresNonBeaconManufacturerData(t *testing.T) {
	env := newPairedEnv(t, nil)
	env.scanner.Publish(&transport.Advertisement{
		Address:          testAddr,
		RSSI:             -55,
		ManufacturerData: []byte{0x4C, 0x00, 0x02}, // truncated
	})
	if got := drainEvents(env.events); len(got) != 0 {
		t.Errorf("events from malformed beacon = %v, want none", got)
	}
}
