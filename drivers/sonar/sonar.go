// Package sonar is a non-blocking driver for pulse-echo ultrasonic range
// sensors with a trigger/echo pin pair (HC-SR04 and compatibles).
//
// A measurement is split across three call sites so nothing ever waits for
// an echo that may not come:
//
//	d.Start()      // emit the trigger pulse (Idle/Done only)
//	d.HandleEdge() // from the echo pin interrupt, on both edges
//	d.Update()     // from the main loop; applies timeout and retry
//
// Once d.Ready() reports true, d.Reading() finalizes the cycle. Readings
// outside the sensor's physical range are never returned as-is: they are
// replaced by a linear extrapolation from recent history carrying
// Predicted=true and a confidence score. Every WriteInterval-th accepted
// reading is appended to a wear-levelled ring in non-volatile storage, and
// Begin reseeds the history from it after a reset.
package sonar

import (
	"errors"
	"time"

	"rangecode-go/x/timex"
)

// Defaults used when the corresponding Config field is zero.
const (
	DefaultTimeout         = 35 * time.Millisecond
	DefaultRetryInterval   = 500 * time.Millisecond
	DefaultHistorySize     = 8
	DefaultStoreSize       = 250
	DefaultWriteInterval   = 10
	DefaultScaleFactor     = 2.0
	DefaultMinDistance     = 2.0
	DefaultMaxDistance     = 450.0
	DefaultSpeedOfSound    = 0.0343 // cm/µs at ~20 °C
	DefaultVerifyDelta     = 10.0
	DefaultVerifyTolerance = 3.0

	// Trigger pulse shape: settle low, then hold high.
	triggerSettleUs = 2
	triggerPulseUs  = 10

	// The head pointer is persisted as a single byte.
	maxStoreSize = 255
)

// ErrStorage is returned by Begin when the persisted history could not be
// read. The device is still usable.
var ErrStorage = errors.New("sonar: storage access failed")

// State is the ranging state machine position.
type State uint32

const (
	Idle State = iota
	Triggered
	Measuring
	Done
	AwaitingRetry
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Triggered:
		return "triggered"
	case Measuring:
		return "measuring"
	case Done:
		return "done"
	case AwaitingRetry:
		return "awaiting_retry"
	}
	return "unknown"
}

// Reading is the result of one finalized cycle.
//
// A zero Reading means the cycle was not finished when Reading was called.
type Reading struct {
	Distance   float32 // cm
	Confidence uint8   // 0..100; 100 for real measurements
	Predicted  bool
	Verified   bool
}

// OutputPin drives the trigger line. machine.Pin satisfies it.
type OutputPin interface {
	Set(high bool)
}

// InputPin samples the echo line. machine.Pin satisfies it.
type InputPin interface {
	Get() bool
}

// OutputConfigurer and InputConfigurer are optional; Begin calls them to set
// pin direction when the pin implements them.
type OutputConfigurer interface {
	ConfigureOutput()
}

type InputConfigurer interface {
	ConfigureInput()
}

// Clock supplies the monotonic counters. Micros is called from interrupt
// context and must not block.
type Clock interface {
	Micros() uint32
	Millis() uint32
	DelayMicros(us uint32)
}

// Interrupts masks the echo interrupt source around multi-word accesses to
// the capture cell. On rp2040 this wraps runtime/interrupt.
type Interrupts interface {
	Disable() uintptr
	Restore(state uintptr)
}

// Storage is single-byte random access to non-volatile memory.
type Storage interface {
	LoadByte(addr uint16) (byte, error)
	StoreByte(addr uint16, v byte) error
}

// NoMask is an Interrupts that masks nothing, for single-context use.
type NoMask struct{}

func (NoMask) Disable() uintptr { return 0 }
func (NoMask) Restore(uintptr)  {}

// Config replaces the sensor's compile-time tunables. Zero fields take the
// Default* values; Clock defaults to a timex.Mono and Interrupts to NoMask.
// A nil Storage disables persistence.
type Config struct {
	Mobile        bool
	StorageOffset uint16

	Timeout       time.Duration
	RetryInterval time.Duration

	HistorySize   int
	StoreSize     int // at most 255 slots
	WriteInterval int
	ScaleFactor   float32

	MinDistance  float32
	MaxDistance  float32
	SpeedOfSound float32

	VerifyDelta     float32
	VerifyTolerance float32

	Clock      Clock
	Interrupts Interrupts
	Storage    Storage
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	// The timers tick in whole milliseconds.
	c.Timeout = ceilMs(c.Timeout)
	c.RetryInterval = ceilMs(c.RetryInterval)
	if c.HistorySize < 2 {
		c.HistorySize = DefaultHistorySize
	}
	if c.StoreSize <= 0 {
		c.StoreSize = DefaultStoreSize
	}
	if c.StoreSize > maxStoreSize {
		c.StoreSize = maxStoreSize
	}
	if c.WriteInterval <= 0 {
		c.WriteInterval = DefaultWriteInterval
	}
	if c.ScaleFactor <= 0 {
		c.ScaleFactor = DefaultScaleFactor
	}
	if c.MinDistance <= 0 {
		c.MinDistance = DefaultMinDistance
	}
	if c.MaxDistance <= c.MinDistance {
		c.MaxDistance = DefaultMaxDistance
	}
	if c.SpeedOfSound <= 0 {
		c.SpeedOfSound = DefaultSpeedOfSound
	}
	if c.VerifyDelta == 0 {
		c.VerifyDelta = DefaultVerifyDelta
	}
	if c.VerifyTolerance <= 0 {
		c.VerifyTolerance = DefaultVerifyTolerance
	}
	if c.Clock == nil {
		c.Clock = timex.NewMono()
	}
	if c.Interrupts == nil {
		c.Interrupts = NoMask{}
	}
	return c
}

func ceilMs(d time.Duration) time.Duration {
	return (d + time.Millisecond - 1).Truncate(time.Millisecond)
}

// Distance converts a round-trip echo width in µs to a one-way distance in cm.
func (c Config) Distance(us uint32) float32 {
	return float32(us) * c.SpeedOfSound / 2
}

// Valid reports whether an echo of us microseconds, giving cm, is physically
// plausible for the sensor.
func (c Config) Valid(us uint32, cm float32) bool {
	return us != 0 && cm >= c.MinDistance && cm <= c.MaxDistance
}

// DurationToCm converts an echo width using DefaultSpeedOfSound.
func DurationToCm(us uint32) float32 {
	return float32(us) * DefaultSpeedOfSound / 2
}
