package sonar

// fakeClock is a manually advanced µs counter. DelayMicros advances it.
type fakeClock struct{ us uint32 }

func (c *fakeClock) Micros() uint32        { return c.us }
func (c *fakeClock) Millis() uint32        { return c.us / 1000 }
func (c *fakeClock) DelayMicros(us uint32) { c.us += us }
func (c *fakeClock) advanceMs(ms uint32)   { c.us += ms * 1000 }

type edge struct {
	high bool
	at   uint32
}

// fakeTrig records every level change on the trigger line.
type fakeTrig struct {
	clk        *fakeClock
	level      bool
	edges      []edge
	configured bool
}

func (p *fakeTrig) Set(high bool) {
	if high != p.level {
		p.edges = append(p.edges, edge{high: high, at: p.clk.us})
	}
	p.level = high
}
func (p *fakeTrig) ConfigureOutput() { p.configured = true }

// pulses counts completed high pulses.
func (p *fakeTrig) pulses() int {
	n := 0
	for _, e := range p.edges {
		if !e.high {
			n++
		}
	}
	return n
}

type fakeEcho struct {
	level      bool
	configured bool
}

func (p *fakeEcho) Get() bool       { return p.level }
func (p *fakeEcho) ConfigureInput() { p.configured = true }

// fakeMask tracks masking depth and how often the mask was taken.
type fakeMask struct {
	depth   int
	entries int
}

func (m *fakeMask) Disable() uintptr { m.depth++; m.entries++; return uintptr(m.depth) }
func (m *fakeMask) Restore(uintptr)  { m.depth-- }

type rig struct {
	clk  *fakeClock
	trig *fakeTrig
	echo *fakeEcho
	mask *fakeMask
	dev  *Device
}

func newRig(cfg Config) *rig {
	clk := &fakeClock{us: 1_000_000}
	r := &rig{
		clk:  clk,
		trig: &fakeTrig{clk: clk},
		echo: &fakeEcho{},
		mask: &fakeMask{},
	}
	cfg.Clock = clk
	cfg.Interrupts = r.mask
	r.dev = New(r.trig, r.echo, cfg)
	return r
}

// echoFor drives a complete echo of width us through the interrupt handler.
func (r *rig) echoFor(us uint32) {
	r.echo.level = true
	r.dev.HandleEdge()
	r.clk.us += us
	r.echo.level = false
	r.dev.HandleEdge()
}

// measure runs one full cycle with an echo of width us and returns the reading.
func (r *rig) measure(us uint32) Reading {
	r.dev.Start()
	r.clk.us += 200
	r.echoFor(us)
	return r.dev.Reading()
}

// usFor returns the echo width that yields roughly cm.
func usFor(cm float32) uint32 { return uint32(cm*2/DefaultSpeedOfSound + 0.5) }
