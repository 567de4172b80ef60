// Package ranger runs the polling side of every configured sonar.Device:
// it ticks Update, starts cycles on each sensor's interval, finalizes
// completed cycles and publishes the readings on the bus.
package ranger

import (
	"context"
	"time"

	"rangecode-go/bus"
	"rangecode-go/drivers/sonar"
	"rangecode-go/errcode"
	"rangecode-go/platform"
	"rangecode-go/types"
	"rangecode-go/x/timex"
)

const (
	defaultTick     = 5 * time.Millisecond
	defaultStats    = time.Second
	defaultInterval = 100 * time.Millisecond
	minInterval     = 40 * time.Millisecond
)

const (
	tokRanger  = "ranger"
	tokControl = "control"

	CtrlStart  = "start"
	CtrlVerify = "verify"
	CtrlStats  = "stats"
)

var (
	topicConfigRanger = bus.T("config", "ranger")
	topicCtrl         = bus.T(tokRanger, "+", tokControl, "+")
	topicState        = bus.T(tokRanger, "state")
)

// ReadingTopic is where a sensor's readings are published (retained).
func ReadingTopic(id string) bus.Topic { return bus.T(tokRanger, id, "reading") }

// StatsTopic is where a sensor's counters are published.
func StatsTopic(id string) bus.Topic { return bus.T(tokRanger, id, "stats") }

// ControlTopic addresses a control verb on one sensor.
func ControlTopic(id, verb string) bus.Topic { return bus.T(tokRanger, id, tokControl, verb) }

type sensor struct {
	id       string
	dev      *sonar.Device
	echo     platform.Pin
	interval time.Duration
	next     time.Time

	// Mobile units verify the first real reading after a prediction.
	afterPrediction bool

	readingTopic bus.Topic
	statsTopic   bus.Topic
}

type Service struct {
	conn *bus.Connection
	res  platform.Resources

	sensors    []*sensor
	byID       map[string]*sensor
	configured bool
	// Sensors whose persisted history could not be restored.
	storageFaults int

	tick  time.Duration
	stats time.Duration
}

func New(conn *bus.Connection, res platform.Resources) *Service {
	if res.Clock == nil {
		res.Clock = timex.NewMono()
	}
	return &Service{
		conn: conn,
		res:  res,
		byID: map[string]*sensor{},
	}
}

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigRanger)
	ctrlSub := s.conn.Subscribe(topicCtrl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config")

	var (
		tickC  <-chan time.Time
		statsC <-chan time.Time
		tick   *time.Ticker
		stats  *time.Ticker
	)
	stop := func() {
		if tick != nil {
			tick.Stop()
			tick, tickC = nil, nil
		}
		if stats != nil {
			stats.Stop()
			stats, statsC = nil, nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			s.release()
			s.publishState("stopped", "context_cancelled")
			return

		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.RangerConfig)
			if !ok {
				s.publishState("error", "config_wrong_type")
				continue
			}
			stop()
			if err := s.apply(cfg); err != nil {
				println("[ranger] config rejected:", err.Error())
				s.publishState("error", string(errcode.Of(err)))
				continue
			}
			tick = time.NewTicker(s.tick)
			tickC = tick.C
			if s.stats > 0 {
				stats = time.NewTicker(s.stats)
				statsC = stats.C
			}
			status := "configured"
			if s.storageFaults > 0 {
				status = string(errcode.StorageFault)
			}
			s.publishState("ready", status)

		case msg := <-ctrlSub.Channel():
			s.control(msg)

		case now := <-tickC:
			s.poll(now)

		case <-statsC:
			for _, sn := range s.sensors {
				s.conn.Publish(s.conn.NewMessage(sn.statsTopic, s.statsOf(sn), false))
			}
		}
	}
}

// apply replaces the running sensor set. On error no sensor is left running.
func (s *Service) apply(cfg types.RangerConfig) error {
	s.release()

	s.tick = msOr(cfg.TickMS, defaultTick)
	s.stats = msOr(cfg.StatsMS, defaultStats)
	if cfg.StatsMS < 0 {
		s.stats = 0
	}
	if err := validate(cfg); err != nil {
		return err
	}

	s.storageFaults = 0
	now := time.Now()
	for _, p := range cfg.Sensors {
		sn, err := s.build(p)
		if err != nil {
			s.release()
			return err
		}
		sn.next = now
		s.sensors = append(s.sensors, sn)
		s.byID[sn.id] = sn
	}
	s.configured = true
	return nil
}

func (s *Service) build(p types.SensorParams) (*sensor, error) {
	op := "sensor " + p.ID
	trig, ok := s.res.Pins.ByNumber(p.TriggerPin)
	if !ok {
		return nil, errcode.Wrap(errcode.UnknownPin, op, errNoSuchPin)
	}
	echo, ok := s.res.Pins.ByNumber(p.EchoPin)
	if !ok {
		return nil, errcode.Wrap(errcode.UnknownPin, op, errNoSuchPin)
	}

	dev := sonar.New(trig, echo, sonar.Config{
		Mobile:        p.Mobile,
		StorageOffset: p.StorageOffset,
		Timeout:       time.Duration(p.TimeoutMS) * time.Millisecond,
		RetryInterval: time.Duration(p.RetryMS) * time.Millisecond,
		StoreSize:     p.StoreSize,
		Clock:         s.res.Clock,
		Interrupts:    s.res.Interrupts,
		Storage:       s.res.Storage,
	})
	if err := dev.Begin(); err != nil {
		// The device runs with an empty history.
		println("[ranger]", p.ID, "history not restored:", err.Error())
		s.storageFaults++
	}
	if err := echo.SetIRQ(dev.HandleEdge); err != nil {
		return nil, errcode.Wrap(errcode.Error, op, err)
	}

	iv := msOr(p.IntervalMS, defaultInterval)
	if iv < minInterval {
		iv = minInterval
	}
	return &sensor{
		id:           p.ID,
		dev:          dev,
		echo:         echo,
		interval:     iv,
		readingTopic: ReadingTopic(p.ID),
		statsTopic:   StatsTopic(p.ID),
	}, nil
}

// validate rejects configs whose sensors collide on ids, pins or NVM.
func validate(cfg types.RangerConfig) error {
	ids := map[string]bool{}
	pins := map[int]bool{}
	type span struct{ lo, hi int }
	var rings []span
	for _, p := range cfg.Sensors {
		op := "sensor " + p.ID
		if p.ID == "" || ids[p.ID] {
			return errcode.Wrap(errcode.InvalidParams, op, errDuplicateID)
		}
		ids[p.ID] = true
		if p.TriggerPin == p.EchoPin || pins[p.TriggerPin] || pins[p.EchoPin] {
			return errcode.Wrap(errcode.InvalidParams, op, errPinInUse)
		}
		pins[p.TriggerPin], pins[p.EchoPin] = true, true

		size := p.StoreSize
		if size <= 0 {
			size = sonar.DefaultStoreSize
		}
		if size > 255 {
			size = 255
		}
		r := span{int(p.StorageOffset), int(p.StorageOffset) + 1 + size}
		for _, o := range rings {
			if r.lo < o.hi && o.lo < r.hi {
				return errcode.Wrap(errcode.InvalidParams, op, errStorageOverlap)
			}
		}
		rings = append(rings, r)
	}
	return nil
}

// poll runs one tick: timers, completed cycles, then due starts.
func (s *Service) poll(now time.Time) {
	for _, sn := range s.sensors {
		sn.dev.Update()
		if sn.dev.Ready() {
			s.publishReading(sn, sn.dev.Reading())
		}
		if !now.Before(sn.next) {
			sn.dev.Start()
			sn.next = now.Add(sn.interval)
		}
	}
}

func (s *Service) publishReading(sn *sensor, r sonar.Reading) {
	if sn.dev.IsMobile() {
		if !r.Predicted && sn.afterPrediction {
			r.Verified = sn.dev.Verify(r.Distance)
		}
		sn.afterPrediction = r.Predicted
	}
	out := types.RangeReading{
		Sensor:     sn.id,
		Distance:   r.Distance,
		Confidence: r.Confidence,
		Predicted:  r.Predicted,
		Verified:   r.Verified,
		TS:         int64(s.res.Clock.Millis()),
	}
	s.conn.Publish(s.conn.NewMessage(sn.readingTopic, out, true))
}

func (s *Service) control(msg *bus.Message) {
	if len(msg.Topic) != 4 {
		return
	}
	if !s.configured {
		s.replyErr(msg, errcode.NotReady)
		return
	}
	sn, ok := s.byID[msg.Topic[1]]
	if !ok {
		s.replyErr(msg, errcode.UnknownSensor)
		return
	}

	switch msg.Topic[3] {
	case CtrlStart:
		switch sn.dev.State() {
		case sonar.Idle, sonar.Done:
			sn.dev.Start()
			sn.next = time.Now().Add(sn.interval)
			s.conn.Reply(msg, types.ControlReply{OK: true, State: sn.dev.State().String()}, false)
		default:
			s.conn.Reply(msg, types.ControlReply{Code: string(errcode.Busy), State: sn.dev.State().String()}, false)
		}
	case CtrlVerify:
		req, ok := msg.Payload.(types.VerifyRequest)
		if !ok {
			s.replyErr(msg, errcode.InvalidParams)
			return
		}
		s.conn.Reply(msg, types.ControlReply{OK: true, Verified: sn.dev.Verify(req.Measured)}, false)
	case CtrlStats:
		s.conn.Reply(msg, s.statsOf(sn), false)
	default:
		s.replyErr(msg, errcode.Unsupported)
	}
}

func (s *Service) statsOf(sn *sensor) types.RangeStats {
	st := sn.dev.Stats()
	return types.RangeStats{
		Sensor:      sn.id,
		State:       sn.dev.State().String(),
		Cycles:      st.Cycles,
		Measured:    st.Measured,
		Predicted:   st.Predicted,
		Timeouts:    st.Timeouts,
		Invalid:     st.Invalid,
		Retries:     st.Retries,
		StoreWrites: st.StoreWrites,
		StoreErrors: st.StoreErrors,
		LastPredict: sn.dev.LastPrediction(),
		TS:          int64(s.res.Clock.Millis()),
	}
}

// release detaches every echo handler and forgets the sensors.
func (s *Service) release() {
	for _, sn := range s.sensors {
		_ = sn.echo.ClearIRQ()
	}
	s.sensors = nil
	s.byID = map[string]*sensor{}
	s.configured = false
}

func (s *Service) replyErr(msg *bus.Message, c errcode.Code) {
	s.conn.Reply(msg, types.ControlReply{Code: string(c)}, false)
}

func (s *Service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(topicState, types.ServiceState{
		Level:  level,
		Status: status,
		TS:     int64(s.res.Clock.Millis()),
	}, true))
}

func msOr(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
