package sonar

import (
	"rangecode-go/x/mathx"
	"rangecode-go/x/ring"
)

// Store is the wear-levelled ring of quantized samples in non-volatile
// memory. Layout at base: one head-pointer byte, then size sample bytes.
// Each sample byte holds round(v / scale).
type Store struct {
	mem   Storage
	base  uint16
	scale float32
	cur   ring.Cursor
}

// NewStore binds a ring of size slots at base in mem.
func NewStore(mem Storage, base uint16, size int, scale float32) *Store {
	return &Store{mem: mem, base: base, scale: scale, cur: ring.NewCursor(size)}
}

// Head is the slot the next write lands in.
func (s *Store) Head() int { return s.cur.Pos }

// Load reads the persisted head pointer, resetting it to 0 when it is out of
// range, and fills dst with the len(dst) samples preceding it, oldest first.
// Unreadable cells load as 0; the first error is returned after the scan.
func (s *Store) Load(dst []float32) error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	head, err := s.mem.LoadByte(s.base)
	keep(err)
	if err != nil || int(head) >= s.cur.Size() {
		head = 0
	}
	s.cur.Set(int(head), false)

	n := len(dst)
	for i := 0; i < n; i++ {
		slot := s.cur.Back(i + 1)
		raw, err := s.mem.LoadByte(s.slotAddr(slot))
		keep(err)
		if err != nil {
			raw = 0
		}
		dst[n-1-i] = float32(raw) * s.scale
	}
	return first
}

// Write quantizes v into the head slot, then advances and persists the head.
func (s *Store) Write(v float32) error {
	q := mathx.Clamp(mathx.RoundDiv(v, s.scale), 0, 255)
	if err := s.mem.StoreByte(s.slotAddr(s.cur.Pos), byte(q)); err != nil {
		return err
	}
	s.cur.Advance()
	return s.mem.StoreByte(s.base, byte(s.cur.Pos))
}

func (s *Store) slotAddr(slot int) uint16 { return s.base + 1 + uint16(slot) }
