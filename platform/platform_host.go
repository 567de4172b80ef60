//go:build !rp2040 && !rp2350

package platform

import (
	"os"
	"os/signal"
	"syscall"

	"rangecode-go/drivers/sonar"
	"rangecode-go/x/nvm"
	"rangecode-go/x/timex"
)

// NVMPath is where the host build keeps its simulated EEPROM.
var NVMPath = "ranger.nvm"

const hostNVMSize = 4096

// SimWiring pairs each simulated trigger GPIO with the echo GPIO its
// sensor answers on. It matches the "host" board configuration.
var SimWiring = map[int]int{2: 3, 6: 7}

// Default returns simulated resources: a Sim echo target for every wired
// pair, a file-backed NVM (in-memory if the file cannot be opened) and
// stdout for telemetry.
func Default() Resources {
	clk := timex.NewMono()
	sim := NewSim(SimWiring, SweepProfile(20, 300, 8000), 1)

	var store sonar.Storage
	if f, err := nvm.OpenFile(NVMPath, hostNVMSize); err == nil {
		store = f
	} else {
		println("[platform] nvm file unavailable, using RAM:", err.Error())
		store = nvm.NewMem(hostNVMSize)
	}

	return Resources{
		Pins:       sim,
		Clock:      clk,
		Interrupts: sim.IRQ(),
		Storage:    store,
		Telemetry:  os.Stdout,
		Board:      "host",
		Shutdown:   interrupted(),
	}
}

func interrupted() <-chan struct{} {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		<-sig
		signal.Stop(sig)
		close(done)
	}()
	return done
}
