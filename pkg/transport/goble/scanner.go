package goble

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/backkem/nuki/pkg/transport"
)

// Scanner implements transport.Scanner over go-ble scanning. Start launches
// the scan loop; EnableScanning pauses delivery while a connect is in
// flight (go-ble controllers cannot scan and connect concurrently).
type Scanner struct {
	log logging.LeveledLogger

	mu        sync.Mutex
	listeners []transport.Listener
	enabled   bool
	cancel    context.CancelFunc
}

// NewScanner creates a stopped scanner.
func NewScanner(config Config) *Scanner {
	s := &Scanner{enabled: true}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("goble-scan")
	}
	return s
}

// Start runs the scan loop until the context is canceled or Stop is called.
func (s *Scanner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	err := ble.Scan(ctx, true, s.onAdvertisement, nil)
	if err == context.Canceled {
		return nil
	}
	return err
}

// Stop ends a running scan loop.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Scanner) onAdvertisement(a ble.Advertisement) {
	s.mu.Lock()
	enabled := s.enabled
	listeners := append([]transport.Listener(nil), s.listeners...)
	s.mu.Unlock()
	if !enabled {
		return
	}

	addr, err := transport.ParseAddress(a.Addr().String())
	if err != nil {
		if s.log != nil {
			s.log.Debugf("dropping advertisement with odd address %q", a.Addr())
		}
		return
	}

	adv := &transport.Advertisement{
		Address:          addr,
		RSSI:             a.RSSI(),
		Name:             a.LocalName(),
		ManufacturerData: a.ManufacturerData(),
	}
	if sd := a.ServiceData(); len(sd) > 0 {
		adv.ServiceData = make(map[uuid.UUID][]byte, len(sd))
		for _, d := range sd {
			if u, err := uuid.Parse(d.UUID.String()); err == nil {
				adv.ServiceData[u] = d.Data
			}
		}
	}
	for _, svc := range a.Services() {
		if u, err := uuid.Parse(svc.String()); err == nil {
			adv.Services = append(adv.Services, u)
		}
	}

	for _, l := range listeners {
		l.OnAdvertisement(adv)
	}
}

// Subscribe implements transport.Scanner.
func (s *Scanner) Subscribe(l transport.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Unsubscribe implements transport.Scanner.
func (s *Scanner) Unsubscribe(l transport.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.listeners {
		if cur == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// EnableScanning implements transport.Scanner.
func (s *Scanner) EnableScanning(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enable
}
