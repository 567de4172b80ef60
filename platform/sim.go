//go:build !rp2040 && !rp2350

package platform

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// burstDelay approximates the time an HC-SR04 spends emitting its 40 kHz
// burst before raising echo.
const burstDelay = 450 * time.Microsecond

// Profile returns the simulated target distance at t since the simulation
// started; ok=false means the target returns no echo.
type Profile func(t time.Duration) (cm float32, ok bool)

// ConstantProfile always reports cm.
func ConstantProfile(cm float32) Profile {
	return func(time.Duration) (float32, bool) { return cm, true }
}

// SweepProfile moves the target back and forth between near and far once
// per periodMs.
func SweepProfile(near, far float32, periodMs int64) Profile {
	return func(t time.Duration) (float32, bool) {
		phase := float32(t.Milliseconds()%periodMs) / float32(periodMs)
		if phase > 0.5 {
			phase = 1 - phase
		}
		return near + (far-near)*2*phase, true
	}
}

// SilentProfile never echoes.
func SilentProfile() Profile {
	return func(time.Duration) (float32, bool) { return 0, false }
}

// Sim is a simulated board: GPIOs, an interrupt controller and one echo
// target per wired trigger/echo pair.
//
// The interrupt controller is a mutex: masking takes it, and edge handlers
// run while holding it, so handlers never overlap a masked section.
type Sim struct {
	mu sync.Mutex

	start   time.Time
	wiring  map[int]int
	profile Profile

	rngMu    sync.Mutex
	rng      *rand.Rand
	dropRate float64

	pinsMu sync.Mutex
	pins   map[int]*simPin
}

// NewSim builds a simulation. wiring maps trigger GPIO -> echo GPIO.
func NewSim(wiring map[int]int, profile Profile, seed int64) *Sim {
	return &Sim{
		start:   time.Now(),
		wiring:  wiring,
		profile: profile,
		rng:     rand.New(rand.NewSource(seed)),
		pins:    map[int]*simPin{},
	}
}

// SetDropRate makes the target miss a fraction of pings (0..1).
func (s *Sim) SetDropRate(r float64) {
	s.rngMu.Lock()
	s.dropRate = r
	s.rngMu.Unlock()
}

// ByNumber implements PinFactory; every number is a valid simulated pin.
func (s *Sim) ByNumber(n int) (Pin, bool) {
	if n < 0 {
		return nil, false
	}
	s.pinsMu.Lock()
	defer s.pinsMu.Unlock()
	p, ok := s.pins[n]
	if !ok {
		p = &simPin{sim: s, n: n}
		s.pins[n] = p
	}
	return p, true
}

// IRQ returns the simulated interrupt mask.
func (s *Sim) IRQ() *SimIRQ { return &SimIRQ{s: s} }

// SimIRQ masks simulated edge delivery.
type SimIRQ struct{ s *Sim }

func (m *SimIRQ) Disable() uintptr { m.s.mu.Lock(); return 1 }
func (m *SimIRQ) Restore(uintptr)  { m.s.mu.Unlock() }

// ping is called on a trigger falling edge and schedules the echo pulse.
func (s *Sim) ping(trigger int) {
	echoN, ok := s.wiring[trigger]
	if !ok {
		return
	}
	cm, ok := s.profile(time.Since(s.start))
	if !ok || s.drop() {
		return
	}
	pin, _ := s.ByNumber(echoN)
	echo := pin.(*simPin)
	width := time.Duration(float64(cm)*2/0.0343) * time.Microsecond
	time.AfterFunc(burstDelay, func() {
		s.fire(echo, true)
		time.AfterFunc(width, func() { s.fire(echo, false) })
	})
}

func (s *Sim) drop() bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.dropRate > 0 && s.rng.Float64() < s.dropRate
}

// fire changes a pin level and runs its handler as an interrupt would.
func (s *Sim) fire(p *simPin, level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.level.Store(level)
	if h := p.handler(); h != nil {
		h()
	}
}

type simPin struct {
	sim   *Sim
	n     int
	level atomic.Bool

	hMu sync.Mutex
	h   func()
}

func (p *simPin) ConfigureOutput() {}
func (p *simPin) ConfigureInput()  {}
func (p *simPin) Number() int      { return p.n }
func (p *simPin) Get() bool        { return p.level.Load() }

func (p *simPin) Set(high bool) {
	was := p.level.Swap(high)
	if was && !high {
		p.sim.ping(p.n)
	}
}

func (p *simPin) SetIRQ(handler func()) error {
	p.hMu.Lock()
	p.h = handler
	p.hMu.Unlock()
	return nil
}

func (p *simPin) ClearIRQ() error { return p.SetIRQ(nil) }

func (p *simPin) handler() func() {
	p.hMu.Lock()
	defer p.hMu.Unlock()
	return p.h
}
