// Package goble adapts github.com/go-ble/ble to the transport interfaces.
// It serves real hardware; protocol tests use the in-memory pipe instead.
//
// The adapter drives one central connection per Client. SMP passkey bonding
// is not exposed by go-ble, so the ultra pairing path is unavailable on
// this transport.
package goble

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/backkem/nuki/pkg/transport"
)

// Config configures a Client.
type Config struct {
	// LoggerFactory creates the adapter logger. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// Client implements transport.Transport over a go-ble central. The default
// ble device must have been set up by the host (ble.SetDefaultDevice).
type Client struct {
	log logging.LeveledLogger

	mu      sync.Mutex
	client  ble.Client
	profile *ble.Profile
	rssi    int

	subs map[uuid.UUID]transport.IndicationHandler
}

// New creates a disconnected client.
func New(config Config) *Client {
	c := &Client{
		subs: make(map[uuid.UUID]transport.IndicationHandler),
	}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("goble")
	}
	return c
}

func bleAddr(addr transport.Address) ble.Addr {
	return ble.NewAddr(addr.String())
}

func bleUUID(u uuid.UUID) ble.UUID {
	return ble.MustParse(u.String())
}

// Connect implements transport.Transport. GATT is discovered on the first
// connect and again whenever refreshServices is set.
func (c *Client) Connect(ctx context.Context, addr transport.Address, refreshServices bool) error {
	c.mu.Lock()
	connected := c.client != nil
	c.mu.Unlock()
	if connected {
		return nil
	}

	client, err := ble.Dial(ctx, bleAddr(addr))
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrConnectFailed, err)
	}

	c.mu.Lock()
	c.client = client
	needDiscover := refreshServices || c.profile == nil
	c.mu.Unlock()

	// Watch for the peripheral dropping the link.
	go func() {
		<-client.Disconnected()
		c.mu.Lock()
		if c.client == client {
			c.client = nil
			c.subs = make(map[uuid.UUID]transport.IndicationHandler)
		}
		c.mu.Unlock()
		if c.log != nil {
			c.log.Debugf("peripheral %s disconnected", addr)
		}
	}()

	if needDiscover {
		profile, err := client.DiscoverProfile(true)
		if err != nil {
			_ = client.CancelConnection()
			c.mu.Lock()
			c.client = nil
			c.mu.Unlock()
			return fmt.Errorf("%w: %v", transport.ErrConnectFailed, err)
		}
		c.mu.Lock()
		c.profile = profile
		c.mu.Unlock()
	}
	return nil
}

// Disconnect implements transport.Transport.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.subs = make(map[uuid.UUID]transport.IndicationHandler)
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.CancelConnection()
}

// IsConnected implements transport.Transport.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

// RSSI implements transport.Transport.
func (c *Client) RSSI() int {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return 0
	}
	return client.ReadRSSI()
}

// findCharacteristic locates a characteristic in the discovered profile.
func (c *Client) findCharacteristic(service, characteristic uuid.UUID) (*ble.Characteristic, error) {
	c.mu.Lock()
	profile := c.profile
	c.mu.Unlock()
	if profile == nil {
		return nil, transport.ErrNotConnected
	}
	svcUUID := bleUUID(service)
	charUUID := bleUUID(characteristic)
	for _, svc := range profile.Services {
		if !svc.UUID.Equal(svcUUID) {
			continue
		}
		for _, char := range svc.Characteristics {
			if char.UUID.Equal(charUUID) {
				return char, nil
			}
		}
		return nil, transport.ErrCharNotFound
	}
	return nil, transport.ErrServiceNotFound
}

// WriteCharacteristic implements transport.Transport.
func (c *Client) WriteCharacteristic(service, characteristic uuid.UUID, value []byte, withResponse bool) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return transport.ErrNotConnected
	}
	char, err := c.findCharacteristic(service, characteristic)
	if err != nil {
		return err
	}
	if err := client.WriteCharacteristic(char, value, !withResponse); err != nil {
		return fmt.Errorf("%w: %v", transport.ErrWriteFailed, err)
	}
	return nil
}

// Subscribe implements transport.Transport. Indications (not
// notifications) are requested, matching the characteristic properties of
// the device.
func (c *Client) Subscribe(service, characteristic uuid.UUID, handler transport.IndicationHandler) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return transport.ErrNotConnected
	}
	char, err := c.findCharacteristic(service, characteristic)
	if err != nil {
		return err
	}

	charID := characteristic
	err = client.Subscribe(char, true, func(value []byte) {
		c.mu.Lock()
		h := c.subs[charID]
		c.mu.Unlock()
		if h != nil {
			h(charID, value)
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrSubscribeFailed, err)
	}

	c.mu.Lock()
	c.subs[charID] = handler
	c.mu.Unlock()
	return nil
}
