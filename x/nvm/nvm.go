// Package nvm provides byte-addressable non-volatile stores.
//
// Backends:
//
//	Mem   RAM-backed, counts writes per cell (tests, simulation)
//	File  host file, erased cells read as 0xFF
//	AT24  AT24Cxx I2C EEPROM via tinygo.org/x/drivers/at24cx
package nvm

import "errors"

// Erased is the value an unprogrammed EEPROM or flash cell reads back as.
const Erased = 0xFF

var (
	ErrOutOfRange = errors.New("nvm: address out of range")
	ErrWrite      = errors.New("nvm: write not acknowledged")
)

// ByteStore is single-byte random access to non-volatile memory.
type ByteStore interface {
	LoadByte(addr uint16) (byte, error)
	StoreByte(addr uint16, v byte) error
}

// Mem is an in-memory ByteStore. The zero value has no capacity; use NewMem.
type Mem struct {
	cells  []byte
	writes []uint32
}

// NewMem returns a store of size cells, all reading as Erased.
func NewMem(size int) *Mem {
	m := &Mem{cells: make([]byte, size), writes: make([]uint32, size)}
	for i := range m.cells {
		m.cells[i] = Erased
	}
	return m
}

func (m *Mem) LoadByte(addr uint16) (byte, error) {
	if int(addr) >= len(m.cells) {
		return 0, ErrOutOfRange
	}
	return m.cells[addr], nil
}

func (m *Mem) StoreByte(addr uint16, v byte) error {
	if int(addr) >= len(m.cells) {
		return ErrOutOfRange
	}
	m.cells[addr] = v
	m.writes[addr]++
	return nil
}

// Writes returns how many times addr has been programmed.
func (m *Mem) Writes(addr uint16) uint32 {
	if int(addr) >= len(m.writes) {
		return 0
	}
	return m.writes[addr]
}

// TotalWrites sums Writes over every cell.
func (m *Mem) TotalWrites() uint32 {
	var n uint32
	for _, w := range m.writes {
		n += w
	}
	return n
}
