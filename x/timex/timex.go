// Package timex provides the monotonic counters the drivers time against.
// Counters are uint32 and wrap; differences computed with unsigned
// subtraction stay correct across a single wrap.
package timex

import "time"

// Mono is a monotonic microsecond/millisecond clock anchored at creation.
type Mono struct {
	origin time.Time
}

// NewMono returns a clock whose counters start at zero now.
func NewMono() *Mono { return &Mono{origin: time.Now()} }

// Micros returns microseconds since the clock was created, wrapping at 2^32.
func (m *Mono) Micros() uint32 { return uint32(time.Since(m.origin).Microseconds()) }

// Millis returns milliseconds since the clock was created, wrapping at 2^32.
func (m *Mono) Millis() uint32 { return uint32(time.Since(m.origin).Milliseconds()) }

// DelayMicros busy-waits for us microseconds. Intended for pulses of a few
// microseconds where the scheduler's sleep granularity is too coarse.
func (m *Mono) DelayMicros(us uint32) {
	start := m.Micros()
	for m.Micros()-start < us {
	}
}

// Since returns now-then in counter units, correct across one wrap.
func Since(now, then uint32) uint32 { return now - then }
