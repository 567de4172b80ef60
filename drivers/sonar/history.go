package sonar

import "rangecode-go/x/ring"

// History is the fixed-capacity RAM ring of recent accepted distances.
// Once full it stays full; pushes overwrite the oldest slot.
type History struct {
	buf []float32
	cur ring.Cursor
}

// NewHistory returns an empty history of n slots.
func NewHistory(n int) History {
	return History{buf: make([]float32, n), cur: ring.NewCursor(n)}
}

// Push records v in the slot under the cursor and advances.
func (h *History) Push(v float32) {
	h.buf[h.cur.Advance()] = v
}

// Len is the number of valid samples.
func (h *History) Len() int { return h.cur.Len() }

// Cap is the fixed slot count.
func (h *History) Cap() int { return len(h.buf) }

// Full reports whether the ring has wrapped at least once.
func (h *History) Full() bool { return h.cur.Full }

// Latest returns the n-th most recent sample (n=1 is the newest).
func (h *History) Latest(n int) float32 { return h.buf[h.cur.Back(n)] }

// Window returns the populated slots in storage order: all of them once
// full, otherwise the filled prefix. The slice aliases the ring.
func (h *History) Window() []float32 { return h.buf[:h.cur.Len()] }

// Seed replaces the contents with vals (oldest first), marks the ring full
// and rewinds the cursor so the next push overwrites the oldest value.
func (h *History) Seed(vals []float32) {
	n := copy(h.buf, vals)
	for i := n; i < len(h.buf); i++ {
		h.buf[i] = 0
	}
	h.cur.Set(0, true)
}

// Snapshot appends the samples to dst oldest first.
func (h *History) Snapshot(dst []float32) []float32 {
	n := h.cur.Len()
	for i := n; i >= 1; i-- {
		dst = append(dst, h.Latest(i))
	}
	return dst
}
