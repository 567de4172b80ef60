// Package ring provides the wrap-around index arithmetic shared by the
// fixed-capacity rings in this module. A Cursor does not own storage: the
// RAM history keeps its slots in a slice, the NVM ring keeps them in a byte
// store, and both advance through the same Cursor.
package ring

// Cursor is the write position of a ring with a fixed number of slots.
//
// Pos is the slot the next write lands in. Full is set the first time Pos
// wraps back to 0 and is never cleared by Advance.
type Cursor struct {
	Pos  int
	Full bool
	size int
}

// NewCursor returns a cursor for a ring of size slots. size < 1 is coerced to 1.
func NewCursor(size int) Cursor {
	if size < 1 {
		size = 1
	}
	return Cursor{size: size}
}

// Size returns the ring capacity.
func (c *Cursor) Size() int { return c.size }

// Advance returns the slot to write and moves the cursor past it.
func (c *Cursor) Advance() int {
	slot := c.Pos
	c.Pos = Wrap(c.Pos+1, c.size)
	if c.Pos == 0 {
		c.Full = true
	}
	return slot
}

// Len is the number of slots holding data.
func (c *Cursor) Len() int {
	if c.Full {
		return c.size
	}
	return c.Pos
}

// Back returns the slot of the n-th most recent write (n=1 is the latest).
func (c *Cursor) Back(n int) int { return Wrap(c.Pos-n, c.size) }

// Set places the cursor at pos (wrapped into range) with the given fill flag.
func (c *Cursor) Set(pos int, full bool) {
	c.Pos = Wrap(pos, c.size)
	c.Full = full
}

// Wrap maps any integer i into [0, n). n must be positive.
func Wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
