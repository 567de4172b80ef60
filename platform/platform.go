// Package platform binds the ranging services to hardware. The rp2040 build
// uses machine pins, pin-change interrupts, an AT24Cxx EEPROM on I2C0 and
// UART0 for telemetry. Every other build runs against a simulated echo
// target so the firmware can be exercised on a workstation.
package platform

import (
	"io"

	"rangecode-go/drivers/sonar"
)

// Pin is a GPIO usable as either trigger output or echo input.
type Pin interface {
	sonar.OutputPin
	sonar.InputPin
	sonar.OutputConfigurer
	sonar.InputConfigurer
	Number() int
	// SetIRQ registers handler for both edges. handler runs in interrupt
	// context.
	SetIRQ(handler func()) error
	ClearIRQ() error
}

// PinFactory maps board GPIO numbers to pins.
type PinFactory interface {
	ByNumber(n int) (Pin, bool)
}

// Resources are the platform services the ranger consumes.
type Resources struct {
	Pins       PinFactory
	Clock      sonar.Clock
	Interrupts sonar.Interrupts
	Storage    sonar.Storage // nil when the board has no NVM
	Telemetry  io.Writer
	Board      string

	// Shutdown is closed when the process is asked to stop. Boards never
	// stop and leave it nil.
	Shutdown <-chan struct{}
}

// Close releases the storage if it needs releasing.
func (r Resources) Close() error {
	if c, ok := r.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
