package client

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// connect brings the link up and subscribes the characteristics needed for
// the given phase. Pairing subscribes GDIO; operation subscribes USDIO. In
// co-located mode both are registered so a pairing link can transition to
// operation without reconnecting, matching the persistent-client behavior.
//
// Each attempt honors the configured connect timeout; after the configured
// number of retries the link is reported down. When a previous subscribe
// failed, the stored refreshServices flag forces GATT rediscovery on every
// subsequent attempt until one succeeds.
func (d *Device) connect(pairing bool) bool {
	if d.transport.IsConnected() {
		return true
	}

	d.mu.Lock()
	d.connecting = true
	addr := d.creds.Address
	if pairing {
		addr = d.pairingAddr
	}
	ultra := d.creds.IsUltra || (pairing && d.pairingUltra)
	d.mu.Unlock()

	if d.scanner != nil {
		d.scanner.EnableScanning(false)
		defer d.scanner.EnableScanning(true)
	}
	defer func() {
		d.mu.Lock()
		d.connecting = false
		d.mu.Unlock()
	}()

	for retry := 0; retry < d.config.ConnectRetries; retry++ {
		d.mu.Lock()
		refresh := d.refreshServices
		d.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), d.config.ConnectTimeout)
		err := d.transport.Connect(ctx, addr, refresh)
		cancel()
		if err != nil {
			if d.log != nil {
				d.log.Debugf("connect attempt %d failed: %v", retry+1, err)
			}
			time.Sleep(pollInterval)
			continue
		}
		d.mu.Lock()
		d.refreshServices = false
		d.mu.Unlock()

		if !d.subscribeCharacteristics(pairing, ultra) {
			time.Sleep(pollInterval)
			continue
		}

		d.touchActivity()
		return true
	}

	if d.log != nil {
		d.log.Warnf("connect to %s failed after %d attempts", addr, d.config.ConnectRetries)
	}
	return false
}

// subscribeCharacteristics registers the indication handlers. A subscribe
// failure marks refreshServices so the next connect rediscovers GATT, then
// drops the link.
func (d *Device) subscribeCharacteristics(pairing, ultra bool) bool {
	subscribe := func(service, char uuid.UUID) bool {
		if err := d.transport.Subscribe(service, char, d.onIndication); err != nil {
			if d.log != nil {
				d.log.Warnf("subscribe failed: %v", err)
			}
			d.mu.Lock()
			d.refreshServices = true
			d.mu.Unlock()
			d.disconnect()
			return false
		}
		return true
	}

	if pairing {
		if !subscribe(d.profile.PairingServiceFor(ultra), d.profile.GDIOFor(ultra)) {
			return false
		}
		// The ultra handshake finishes over the encrypted channel, so its
		// pairing link needs USDIO as well.
		if d.config.AltConnect && !ultra {
			return true
		}
		return subscribe(d.profile.Service, d.profile.USDIO)
	}

	if !subscribe(d.profile.Service, d.profile.USDIO) {
		return false
	}
	if d.config.AltConnect {
		return true
	}
	return subscribe(d.profile.PairingServiceFor(ultra), d.profile.GDIOFor(ultra))
}

// disconnect tears the link down and reports a handler event when the
// transport refuses.
func (d *Device) disconnect() {
	if !d.transport.IsConnected() {
		return
	}
	if err := d.transport.Disconnect(); err != nil {
		if d.log != nil {
			d.log.Warnf("disconnect failed: %v", err)
		}
		d.notify(EventBLEErrorOnDisconnect)
	}
}

// Disconnect drops the link immediately. Credentials are unaffected.
func (d *Device) Disconnect() {
	d.disconnect()
}

// UpdateConnectionState runs the idle-disconnect timer. The host polls this
// from its main loop; when no activity extended the timer within the
// disconnect timeout, the link is torn down.
func (d *Device) UpdateConnectionState() {
	d.mu.Lock()
	if d.connecting {
		d.mu.Unlock()
		return
	}
	idle := time.Since(d.lastActivity)
	d.mu.Unlock()

	if idle > d.config.DisconnectTimeout && d.transport.IsConnected() {
		if d.log != nil {
			d.log.Debugf("disconnecting idle link after %v", idle)
		}
		d.disconnect()
	}
}

// SetRefreshServices forces GATT rediscovery on the next connect.
func (d *Device) SetRefreshServices() {
	d.mu.Lock()
	d.refreshServices = true
	d.mu.Unlock()
}
