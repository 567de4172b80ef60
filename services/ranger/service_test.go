//go:build !rp2040 && !rp2350

package ranger

import (
	"context"
	"errors"
	"testing"
	"time"

	"rangecode-go/bus"
	"rangecode-go/drivers/sonar"
	"rangecode-go/errcode"
	"rangecode-go/platform"
	"rangecode-go/types"
	"rangecode-go/x/nvm"
	"rangecode-go/x/timex"
)

func simResources(p platform.Profile) platform.Resources {
	sim := platform.NewSim(map[int]int{2: 3, 6: 7}, p, 1)
	return platform.Resources{
		Pins:       sim,
		Clock:      timex.NewMono(),
		Interrupts: sim.IRQ(),
		Storage:    nvm.NewMem(1024),
		Board:      "test",
	}
}

func oneSensor(mobile bool) types.RangerConfig {
	return types.RangerConfig{
		TickMS:  2,
		StatsMS: -1,
		Sensors: []types.SensorParams{{
			ID: "front", TriggerPin: 2, EchoPin: 3, Mobile: mobile, IntervalMS: 50,
		}},
	}
}

// start runs the service and publishes cfg retained; it returns a client
// connection on the same bus.
func start(t *testing.T, res platform.Resources, cfg types.RangerConfig) *bus.Connection {
	t.Helper()
	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go New(b.NewConnection("ranger"), res).Run(ctx)

	ui := b.NewConnection("ui")
	ui.Publish(ui.NewMessage(topicConfigRanger, cfg, true))
	return ui
}

// waitReading returns the first reading on sub accepted by keep.
func waitReading(t *testing.T, sub *bus.Subscription, keep func(types.RangeReading) bool) types.RangeReading {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			r, ok := m.Payload.(types.RangeReading)
			if !ok {
				t.Fatalf("payload type %T", m.Payload)
			}
			if keep(r) {
				return r
			}
		case <-deadline:
			t.Fatal("timeout waiting for reading")
		}
	}
}

func TestPublishesMeasuredReadings(t *testing.T) {
	ui := start(t, simResources(platform.ConstantProfile(100)), oneSensor(false))
	sub := ui.Subscribe(ReadingTopic("front"))

	r := waitReading(t, sub, func(r types.RangeReading) bool { return !r.Predicted })
	if r.Sensor != "front" || r.Confidence != 100 {
		t.Fatalf("reading = %+v", r)
	}
	// Host timers add jitter to the echo width; stay loose.
	if r.Distance < 60 || r.Distance > 160 {
		t.Fatalf("distance %.2f far from 100", r.Distance)
	}
}

func TestSilentTargetYieldsPredictions(t *testing.T) {
	ui := start(t, simResources(platform.SilentProfile()), oneSensor(false))
	sub := ui.Subscribe(ReadingTopic("front"))

	r := waitReading(t, sub, func(types.RangeReading) bool { return true })
	// A blank EEPROM seeds the history at the top of the range.
	if !r.Predicted || r.Distance != sonar.DefaultMaxDistance {
		t.Fatalf("reading = %+v", r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rep, err := ui.RequestWait(ctx, ui.NewMessage(ControlTopic("front", CtrlStats), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	st, ok := rep.Payload.(types.RangeStats)
	if !ok {
		t.Fatalf("stats payload %T", rep.Payload)
	}
	if st.Timeouts == 0 || st.Predicted == 0 || st.Measured != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestVerifyControl(t *testing.T) {
	ui := start(t, simResources(platform.SilentProfile()), oneSensor(true))
	sub := ui.Subscribe(ReadingTopic("front"))
	waitReading(t, sub, func(r types.RangeReading) bool { return r.Predicted })

	cases := []struct {
		measured float32
		want     bool
	}{
		{sonar.DefaultMaxDistance + 10, true},
		{sonar.DefaultMaxDistance + 12.5, true},
		{sonar.DefaultMaxDistance + 13, false},
		{sonar.DefaultMaxDistance, false},
	}
	for _, tc := range cases {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		rep, err := ui.RequestWait(ctx, ui.NewMessage(ControlTopic("front", CtrlVerify),
			types.VerifyRequest{Measured: tc.measured}, false))
		cancel()
		if err != nil {
			t.Fatal(err)
		}
		cr := rep.Payload.(types.ControlReply)
		if !cr.OK || cr.Verified != tc.want {
			t.Errorf("verify(%.1f) = %+v, want verified=%v", tc.measured, cr, tc.want)
		}
	}
}

func TestControlErrors(t *testing.T) {
	ui := start(t, simResources(platform.ConstantProfile(50)), oneSensor(false))

	ask := func(topic bus.Topic, payload any) types.ControlReply {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		rep, err := ui.RequestWait(ctx, ui.NewMessage(topic, payload, false))
		if err != nil {
			t.Fatal(err)
		}
		return rep.Payload.(types.ControlReply)
	}

	// Wait until configured so "front" exists.
	st := ui.Subscribe(topicState)
	deadline := time.After(2 * time.Second)
	for ready := false; !ready; {
		select {
		case m := <-st.Channel():
			ready = m.Payload.(types.ServiceState).Level == "ready"
		case <-deadline:
			t.Fatal("service never became ready")
		}
	}

	if got := ask(ControlTopic("rear", CtrlStart), nil); got.Code != string(errcode.UnknownSensor) {
		t.Errorf("unknown sensor: %+v", got)
	}
	if got := ask(ControlTopic("front", "reboot"), nil); got.Code != string(errcode.Unsupported) {
		t.Errorf("unknown verb: %+v", got)
	}
	if got := ask(ControlTopic("front", CtrlVerify), 42); got.Code != string(errcode.InvalidParams) {
		t.Errorf("bad verify payload: %+v", got)
	}
}

func TestRejectsConflictingConfig(t *testing.T) {
	cfg := types.RangerConfig{Sensors: []types.SensorParams{
		{ID: "a", TriggerPin: 2, EchoPin: 3},
		{ID: "b", TriggerPin: 3, EchoPin: 7, StorageOffset: 512},
	}}
	ui := start(t, simResources(platform.SilentProfile()), cfg)
	st := ui.Subscribe(topicState)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-st.Channel():
			s := m.Payload.(types.ServiceState)
			if s.Level == "ready" {
				t.Fatal("conflicting config accepted")
			}
			if s.Level == "error" {
				if s.Status != string(errcode.InvalidParams) {
					t.Fatalf("status = %q", s.Status)
				}
				return
			}
		case <-deadline:
			t.Fatal("no error state published")
		}
	}
}

func TestValidate(t *testing.T) {
	ok := types.SensorParams{ID: "a", TriggerPin: 2, EchoPin: 3}
	cases := []struct {
		name    string
		sensors []types.SensorParams
		want    error
	}{
		{"single", []types.SensorParams{ok}, nil},
		{"missing id", []types.SensorParams{{TriggerPin: 2, EchoPin: 3}}, errDuplicateID},
		{"duplicate id", []types.SensorParams{ok, {ID: "a", TriggerPin: 6, EchoPin: 7, StorageOffset: 256}}, errDuplicateID},
		{"shared pin", []types.SensorParams{{ID: "a", TriggerPin: 2, EchoPin: 2}}, errPinInUse},
		{"ring overlap", []types.SensorParams{ok, {ID: "b", TriggerPin: 6, EchoPin: 7, StorageOffset: 250}}, errStorageOverlap},
		{"ring adjacent", []types.SensorParams{ok, {ID: "b", TriggerPin: 6, EchoPin: 7, StorageOffset: 251}}, nil},
		{"small ring", []types.SensorParams{
			{ID: "a", TriggerPin: 2, EchoPin: 3, StoreSize: 9},
			{ID: "b", TriggerPin: 6, EchoPin: 7, StorageOffset: 10},
		}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate(types.RangerConfig{Sensors: tc.sensors})
			if !errors.Is(err, tc.want) {
				t.Fatalf("validate = %v, want %v", err, tc.want)
			}
			if err != nil && errcode.Of(err) != errcode.InvalidParams {
				t.Fatalf("code = %q", errcode.Of(err))
			}
		})
	}
}

func TestMobileVerifiesFirstRealReadingAfterPrediction(t *testing.T) {
	b := bus.NewBus(16)
	s := New(b.NewConnection("ranger"), simResources(platform.SilentProfile()))
	if err := s.apply(oneSensor(true)); err != nil {
		t.Fatal(err)
	}
	defer s.release()
	sub := b.NewConnection("ui").Subscribe(ReadingTopic("front"))
	sn := s.sensors[0]

	next := func() types.RangeReading {
		t.Helper()
		select {
		case m := <-sub.Channel():
			return m.Payload.(types.RangeReading)
		case <-time.After(time.Second):
			t.Fatal("no reading")
		}
		return types.RangeReading{}
	}

	s.publishReading(sn, sn.dev.Predict())
	if r := next(); !r.Predicted || r.Verified {
		t.Fatalf("prediction = %+v", r)
	}
	near := sn.dev.LastPrediction() + sonar.DefaultVerifyDelta
	s.publishReading(sn, sonar.Reading{Distance: near, Confidence: 100})
	if r := next(); !r.Verified {
		t.Fatalf("first real reading not verified: %+v", r)
	}
	s.publishReading(sn, sonar.Reading{Distance: near, Confidence: 100})
	if r := next(); r.Verified {
		t.Fatalf("second real reading verified: %+v", r)
	}
}

// waitState returns the first service state with the given level.
func waitState(t *testing.T, sub *bus.Subscription, level string) types.ServiceState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st := m.Payload.(types.ServiceState); st.Level == level {
				return st
			}
		case <-deadline:
			t.Fatalf("no %q state", level)
		}
	}
}

func TestControlBeforeConfigIsNotReady(t *testing.T) {
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go New(b.NewConnection("ranger"), simResources(platform.SilentProfile())).Run(ctx)

	ui := b.NewConnection("ui")
	waitState(t, ui.Subscribe(topicState), "idle")

	rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
	defer rcancel()
	rep, err := ui.RequestWait(rctx, ui.NewMessage(ControlTopic("front", CtrlStart), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if got := rep.Payload.(types.ControlReply); got.OK || got.Code != string(errcode.NotReady) {
		t.Fatalf("reply = %+v", got)
	}
}

type unreadable struct{}

func (unreadable) LoadByte(uint16) (byte, error) { return 0, errors.New("bus stuck") }
func (unreadable) StoreByte(uint16, byte) error  { return errors.New("bus stuck") }

func TestUnreadableStorageReportedButRunning(t *testing.T) {
	res := simResources(platform.ConstantProfile(80))
	res.Storage = unreadable{}
	ui := start(t, res, oneSensor(false))

	st := waitState(t, ui.Subscribe(topicState), "ready")
	if st.Status != string(errcode.StorageFault) {
		t.Fatalf("status = %q", st.Status)
	}
	// The sensor still measures.
	waitReading(t, ui.Subscribe(ReadingTopic("front")), func(r types.RangeReading) bool { return !r.Predicted })
}
