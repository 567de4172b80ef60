//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"runtime/interrupt"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"rangecode-go/x/nvm"
	"rangecode-go/x/timex"
)

const (
	eepromAddr    = nvm.AT24Address
	eepromSize    = 4096 // AT24C32
	telemetryBaud = 115200
)

// Default configures the Pico: I2C0 at 400 kHz for the EEPROM, UART0 on
// GP0/GP1 for telemetry.
func Default() Resources {
	i2c := machine.I2C0
	_ = i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})

	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: telemetryBaud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})

	return Resources{
		Pins:       rp2PinFactory{},
		Clock:      timex.NewMono(),
		Interrupts: rp2Interrupts{},
		Storage:    nvm.NewAT24(i2c, eepromAddr, eepromSize),
		Telemetry:  u,
		Board:      "pico",
	}
}

type rp2Interrupts struct{}

func (rp2Interrupts) Disable() uintptr      { return uintptr(interrupt.Disable()) }
func (rp2Interrupts) Restore(state uintptr) { interrupt.Restore(interrupt.State(state)) }

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (Pin, bool) {
	// Constrain to RP2's user GPIOs (GP0..GP28).
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureOutput() { r.p.Configure(machine.PinConfig{Mode: machine.PinOutput}) }
func (r *rp2Pin) ConfigureInput()  { r.p.Configure(machine.PinConfig{Mode: machine.PinInput}) }
func (r *rp2Pin) Set(high bool)    { r.p.Set(high) }
func (r *rp2Pin) Get() bool        { return r.p.Get() }
func (r *rp2Pin) Number() int      { return r.n }

func (r *rp2Pin) SetIRQ(handler func()) error {
	return r.p.SetInterrupt(machine.PinToggle, func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}
