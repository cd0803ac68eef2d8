// In-memory BLE peripheral for tests. Pipe stands in for a real transport
// the way a virtual network bridge stands in for UDP: scripted peripherals
// answer GATT writes and push indications without any radio, so protocol
// tests run deterministically.

package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PeripheralFunc reacts to a characteristic write. Implementations reply by
// calling Pipe.Indicate, typically from this callback.
type PeripheralFunc func(p *Pipe, service, characteristic uuid.UUID, value []byte)

// Write records one characteristic write for assertions.
type Write struct {
	Service        uuid.UUID
	Characteristic uuid.UUID
	Value          []byte
	WithResponse   bool
}

// PipeConfig configures the scripted peripheral.
type PipeConfig struct {
	// Peripheral handles incoming writes. May be nil for a mute device.
	Peripheral PeripheralFunc

	// ConnectFailures makes the first N connect attempts fail.
	ConnectFailures int

	// SubscribeFailures makes the first N subscribe attempts fail.
	SubscribeFailures int

	// RSSI reported while connected.
	RSSI int

	// DeliverInterval is the indication pump period. Default 1ms.
	DeliverInterval time.Duration
}

type indication struct {
	characteristic uuid.UUID
	value          []byte
}

// Pipe implements Transport (and Bonder) against a scripted peripheral.
// Indications are delivered from a background goroutine, mirroring the
// separate receive context of a real BLE stack.
type Pipe struct {
	mu sync.Mutex

	config    PipeConfig
	connected bool
	addr      Address

	connectCount   int
	refreshFlags   []bool
	subscribeCount int

	subs   map[uuid.UUID]IndicationHandler
	writes []Write
	bonds  map[Address]uint32

	queue  chan indication
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPipe creates a pipe with the given scripted peripheral.
func NewPipe(config PipeConfig) *Pipe {
	if config.DeliverInterval == 0 {
		config.DeliverInterval = time.Millisecond
	}
	p := &Pipe{
		config: config,
		subs:   make(map[uuid.UUID]IndicationHandler),
		bonds:  make(map[Address]uint32),
		queue:  make(chan indication, 64),
		stopCh: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.pump()
	return p
}

func (p *Pipe) pump() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case ind := <-p.queue:
			p.mu.Lock()
			handler := p.subs[ind.characteristic]
			p.mu.Unlock()
			if handler != nil {
				handler(ind.characteristic, ind.value)
			}
		}
	}
}

// Close stops the indication pump. Safe to call more than once.
func (p *Pipe) Close() {
	p.once.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}

// Connect implements Transport.
func (p *Pipe) Connect(_ context.Context, addr Address, refreshServices bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectCount++
	p.refreshFlags = append(p.refreshFlags, refreshServices)
	if p.connectCount <= p.config.ConnectFailures {
		return ErrConnectFailed
	}
	p.connected = true
	p.addr = addr
	return nil
}

// Disconnect implements Transport.
func (p *Pipe) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	p.subs = make(map[uuid.UUID]IndicationHandler)
	return nil
}

// IsConnected implements Transport.
func (p *Pipe) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// RSSI implements Transport.
func (p *Pipe) RSSI() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.RSSI
}

// WriteCharacteristic implements Transport. The scripted peripheral runs
// synchronously; replies it produces are queued for the pump goroutine.
func (p *Pipe) WriteCharacteristic(service, characteristic uuid.UUID, value []byte, withResponse bool) error {
	p.mu.Lock()
	if !p.connected {
		p.mu.Unlock()
		return ErrNotConnected
	}
	p.writes = append(p.writes, Write{
		Service:        service,
		Characteristic: characteristic,
		Value:          append([]byte(nil), value...),
		WithResponse:   withResponse,
	})
	peripheral := p.config.Peripheral
	p.mu.Unlock()

	if peripheral != nil {
		peripheral(p, service, characteristic, value)
	}
	return nil
}

// Subscribe implements Transport.
func (p *Pipe) Subscribe(_, characteristic uuid.UUID, handler IndicationHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return ErrNotConnected
	}
	p.subscribeCount++
	if p.subscribeCount <= p.config.SubscribeFailures {
		return ErrSubscribeFailed
	}
	p.subs[characteristic] = handler
	return nil
}

// Bond implements Bonder.
func (p *Pipe) Bond(_ context.Context, addr Address, passkey uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bonds[addr] = passkey
	return nil
}

// DeleteBond implements Bonder.
func (p *Pipe) DeleteBond(addr Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.bonds, addr)
	return nil
}

// Indicate queues an indication towards the subscribed handler. Unknown
// characteristics are dropped, like a stack with no active subscription.
func (p *Pipe) Indicate(characteristic uuid.UUID, value []byte) {
	select {
	case p.queue <- indication{characteristic, append([]byte(nil), value...)}:
	case <-p.stopCh:
	}
}

// Writes returns a copy of all recorded writes.
func (p *Pipe) Writes() []Write {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Write(nil), p.writes...)
}

// WritesTo returns the recorded writes for one characteristic.
func (p *Pipe) WritesTo(characteristic uuid.UUID) []Write {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Write
	for _, w := range p.writes {
		if w.Characteristic == characteristic {
			out = append(out, w)
		}
	}
	return out
}

// RefreshFlags returns the refreshServices flag of every connect attempt.
func (p *Pipe) RefreshFlags() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.refreshFlags...)
}

// ConnectCount returns the number of connect attempts.
func (p *Pipe) ConnectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectCount
}

// Bonds returns the passkey bonds created via Bond.
func (p *Pipe) Bonds() map[Address]uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[Address]uint32, len(p.bonds))
	for k, v := range p.bonds {
		out[k] = v
	}
	return out
}

// ScriptedScanner is a Scanner whose advertisements are injected by tests.
type ScriptedScanner struct {
	mu        sync.Mutex
	listeners []Listener
	enabled   bool
}

// NewScriptedScanner creates an enabled scripted scanner.
func NewScriptedScanner() *ScriptedScanner {
	return &ScriptedScanner{enabled: true}
}

// Subscribe implements Scanner.
func (s *ScriptedScanner) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Unsubscribe implements Scanner.
func (s *ScriptedScanner) Unsubscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.listeners {
		if cur == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// EnableScanning implements Scanner.
func (s *ScriptedScanner) EnableScanning(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enable
}

// Enabled reports the current scanning state.
func (s *ScriptedScanner) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Publish delivers an advertisement to all subscribed listeners.
func (s *ScriptedScanner) Publish(adv *Advertisement) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l.OnAdvertisement(adv)
	}
}
