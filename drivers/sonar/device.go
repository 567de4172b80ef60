package sonar

import (
	"sync/atomic"

	"rangecode-go/x/timex"
)

// Stats counts driver events since construction.
type Stats struct {
	Cycles      uint32 // readings finalized
	Measured    uint32 // accepted real measurements
	Predicted   uint32 // readings substituted by the estimator
	Timeouts    uint32
	Invalid     uint32 // echoes received but outside [MinDistance, MaxDistance]
	Retries     uint32
	StoreWrites uint32
	StoreErrors uint32
}

// Device is one trigger/echo sensor. It is not safe for use from more than
// one polling context; HandleEdge is the only method interrupt code may call.
type Device struct {
	trig OutputPin
	echo InputPin
	cfg  Config

	timeoutMs uint32
	retryMs   uint32

	// Shared with HandleEdge. state is a single word; the capture cell is
	// only read or reset by polling code with interrupts masked.
	state atomic.Uint32
	cap   capture

	lastEvent uint32 // ms, polling side only

	hist       History
	est        Estimator
	store      *Store
	writeCount int

	stats Stats
}

// capture is the timing cell written by HandleEdge.
type capture struct {
	start    uint32 // µs, interrupt side only
	duration uint32 // µs, read masked
}

// New returns a device on the given pins. It does not touch the hardware;
// call Begin once before use.
func New(trigger OutputPin, echo InputPin, cfg Config) *Device {
	cfg = cfg.withDefaults()
	d := &Device{
		trig:      trigger,
		echo:      echo,
		cfg:       cfg,
		timeoutMs: uint32(cfg.Timeout.Milliseconds()),
		retryMs:   uint32(cfg.RetryInterval.Milliseconds()),
		hist:      NewHistory(cfg.HistorySize),
		est:       newEstimator(cfg),
	}
	if cfg.Storage != nil {
		d.store = NewStore(cfg.Storage, cfg.StorageOffset, cfg.StoreSize, cfg.ScaleFactor)
	}
	return d
}

// Begin configures pin direction and seeds the history from storage. A
// storage error is returned for reporting only: the device is usable either
// way, with a zeroed history and the head pointer reset.
func (d *Device) Begin() error {
	if c, ok := d.trig.(OutputConfigurer); ok {
		c.ConfigureOutput()
	}
	if c, ok := d.echo.(InputConfigurer); ok {
		c.ConfigureInput()
	}
	d.trig.Set(false)

	if d.store == nil {
		return nil
	}
	seed := make([]float32, d.hist.Cap())
	err := d.store.Load(seed)
	d.hist.Seed(seed)
	if err != nil {
		d.stats.StoreErrors++
		return ErrStorage
	}
	return nil
}

// Start emits a trigger pulse. It is a no-op unless the device is Idle or
// Done; starting from Done discards the unread result.
func (d *Device) Start() {
	switch d.State() {
	case Idle, Done:
		d.trigger()
	}
}

func (d *Device) trigger() {
	d.lastEvent = d.cfg.Clock.Millis()
	d.setState(Triggered)
	d.trig.Set(false)
	d.cfg.Clock.DelayMicros(triggerSettleUs)
	d.trig.Set(true)
	d.cfg.Clock.DelayMicros(triggerPulseUs)
	d.trig.Set(false)
}

// Update advances the timeout and retry timers. Call it from the main loop
// at least as often as the timeout granularity.
func (d *Device) Update() {
	now := d.cfg.Clock.Millis()
	switch d.State() {
	case Triggered, Measuring:
		if timex.Since(now, d.lastEvent) <= d.timeoutMs {
			return
		}
		mask := d.cfg.Interrupts.Disable()
		// The echo may have completed between the load above and the mask.
		if s := d.State(); s == Triggered || s == Measuring {
			d.cap.duration = 0
			d.setState(Done)
			d.stats.Timeouts++
		}
		d.cfg.Interrupts.Restore(mask)
	case AwaitingRetry:
		if timex.Since(now, d.lastEvent) > d.retryMs {
			d.stats.Retries++
			d.trigger()
		}
	}
}

// Ready reports whether a cycle has completed and Reading will finalize it.
func (d *Device) Ready() bool { return d.State() == Done }

// Reading finalizes a completed cycle. Before completion it returns the zero
// Reading. An implausible echo (none, too near or too far) is replaced by a
// prediction; a static device then re-triggers by itself after
// RetryInterval, a mobile one returns to Idle and waits for Start.
func (d *Device) Reading() Reading {
	if d.State() != Done {
		return Reading{}
	}
	mask := d.cfg.Interrupts.Disable()
	us := d.cap.duration
	d.cfg.Interrupts.Restore(mask)

	d.stats.Cycles++
	cm := d.cfg.Distance(us)
	if !d.cfg.Valid(us, cm) {
		if us != 0 {
			d.stats.Invalid++
		}
		p := d.est.Predict(&d.hist)
		d.stats.Predicted++
		if d.cfg.Mobile {
			d.setState(Idle)
		} else {
			d.lastEvent = d.cfg.Clock.Millis()
			d.setState(AwaitingRetry)
		}
		return p
	}

	d.commit(cm)
	d.stats.Measured++
	d.setState(Idle)
	return Reading{Distance: cm, Confidence: 100}
}

// commit records an accepted distance and persists every WriteInterval-th.
func (d *Device) commit(cm float32) {
	d.hist.Push(cm)
	d.writeCount++
	if d.writeCount < d.cfg.WriteInterval {
		return
	}
	d.writeCount = 0
	if d.store == nil {
		return
	}
	if err := d.store.Write(cm); err != nil {
		d.stats.StoreErrors++
		return
	}
	d.stats.StoreWrites++
}

// HandleEdge is the echo pin interrupt handler; register it for both edges.
// It samples the echo level and never blocks or allocates.
func (d *Device) HandleEdge() {
	if d.echo.Get() {
		if d.State() == Triggered {
			d.cap.start = d.cfg.Clock.Micros()
			d.setState(Measuring)
		}
		return
	}
	if d.State() == Measuring {
		d.cap.duration = d.cfg.Clock.Micros() - d.cap.start
		d.setState(Done)
	}
}

// IsMobile reports the configured mounting.
func (d *Device) IsMobile() bool { return d.cfg.Mobile }

// Verify checks a fresh measurement against the last prediction.
func (d *Device) Verify(measured float32) bool { return d.est.Verify(measured) }

// Predict returns the estimator's reading for the current history without
// touching the state machine.
func (d *Device) Predict() Reading { return d.est.Predict(&d.hist) }

// LastPrediction is the distance of the most recent prediction.
func (d *Device) LastPrediction() float32 { return d.est.Last() }

// History appends the RAM history to dst, oldest first.
func (d *Device) History(dst []float32) []float32 { return d.hist.Snapshot(dst) }

func (d *Device) State() State { return State(d.state.Load()) }

func (d *Device) Stats() Stats { return d.stats }

func (d *Device) Config() Config { return d.cfg }

func (d *Device) setState(s State) { d.state.Store(uint32(s)) }
