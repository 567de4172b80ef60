package nvm

import (
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/at24cx"
)

// AT24Address is the 7-bit bus address of an AT24Cxx with A0..A2 tied low.
// at24cx defaults to 0x57, the strapping used on DS3231 RTC modules.
const AT24Address = 0x50

// writeCycle is the worst-case internal programming time of an AT24Cxx.
// The part NACKs its address until the cycle is done.
const writeCycle = 5 * time.Millisecond

// AT24 adapts an AT24Cxx EEPROM on an I2C bus to ByteStore.
type AT24 struct {
	dev  at24cx.Device
	size uint16

	// ackPolls bounds how many times a write is re-issued while the part
	// is still busy with a previous programming cycle.
	ackPolls int
}

// NewAT24 configures an AT24Cxx at addr (0 selects AT24Address) with size
// bytes of capacity. The bus must already be configured.
func NewAT24(bus drivers.I2C, addr uint16, size uint16) *AT24 {
	if addr == 0 {
		addr = AT24Address
	}
	d := at24cx.New(bus)
	d.Address = addr
	d.Configure(at24cx.Config{EndRAMAddress: size})
	return &AT24{dev: d, size: size, ackPolls: 10}
}

func (a *AT24) LoadByte(addr uint16) (byte, error) {
	if addr >= a.size {
		return 0, ErrOutOfRange
	}
	var err error
	for i := 0; i <= a.ackPolls; i++ {
		var v byte
		if v, err = a.dev.ReadByte(addr); err == nil {
			return v, nil
		}
		time.Sleep(writeCycle / time.Duration(a.ackPolls))
	}
	return 0, err
}

func (a *AT24) StoreByte(addr uint16, v byte) error {
	if addr >= a.size {
		return ErrOutOfRange
	}
	for i := 0; i <= a.ackPolls; i++ {
		if err := a.dev.WriteByte(addr, v); err == nil {
			return nil
		}
		time.Sleep(writeCycle / time.Duration(a.ackPolls))
	}
	return ErrWrite
}
