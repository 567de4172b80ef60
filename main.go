package main

import (
	"context"
	"time"

	"rangecode-go/bus"
	"rangecode-go/platform"
	"rangecode-go/services/config"
	"rangecode-go/services/heartbeat"
	"rangecode-go/services/ranger"
	"rangecode-go/services/telemetry"
	"rangecode-go/types"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	res := platform.Default()
	println("[main] board", res.Board)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), config.CtxDeviceKey, res.Board))
	defer cancel()
	b := bus.NewBus(8)

	rangerDone := make(chan struct{})
	go func() {
		ranger.New(b.NewConnection("ranger"), res).Run(ctx)
		close(rangerDone)
	}()
	telemetry.New(res.Telemetry).Start(ctx, b.NewConnection("telemetry"))
	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	// Services subscribe before the retained config lands; retained
	// delivery covers either order.
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	mon := b.NewConnection("main").Subscribe(bus.T("ranger", "state"))
	go func() {
		for m := range mon.Channel() {
			if st, ok := m.Payload.(types.ServiceState); ok {
				println("[main] ranger", st.Level, st.Status)
			}
		}
	}()

	// nil on boards: blocks forever.
	<-res.Shutdown
	println("[main] shutting down")
	cancel()
	// The ranger is the only NVM writer.
	<-rangerDone
	if err := res.Close(); err != nil {
		println("[main] nvm close:", err.Error())
	}
}
