package heartbeat

import (
	"context"
	"time"

	"rangecode-go/bus"
	"rangecode-go/types"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicStats           = bus.T("ranger", "+", "stats")
)

const defaultInterval = time.Second

type Service struct {
	// Print is the line sink; nil means the builtin println.
	Print func(args ...any)

	start time.Time
	last  map[string]types.RangeStats
	order []string
}

func (s *Service) print(args ...any) {
	if s.Print != nil {
		s.Print(args...)
		return
	}
	for i, a := range args {
		if i > 0 {
			print(" ")
		}
		switch v := a.(type) {
		case string:
			print(v)
		case int64:
			print(v)
		case uint32:
			print(v)
		default:
			print("?")
		}
	}
	println()
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	statsSub := conn.Subscribe(topicStats)
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(statsSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.print("[heartbeat] stopping")
			return
		case <-tick.C:
			s.beat()
		case msg := <-statsSub.Channel():
			if st, ok := msg.Payload.(types.RangeStats); ok {
				if _, seen := s.last[st.Sensor]; !seen {
					s.order = append(s.order, st.Sensor)
				}
				s.last[st.Sensor] = st
			}
		case msg := <-cfgSub.Channel():
			if c, ok := msg.Payload.(types.HeartbeatConfig); ok && c.IntervalS > 0 {
				tick.Reset(time.Duration(c.IntervalS) * time.Second)
				s.print("[heartbeat] interval set to", int64(c.IntervalS), "s")
			}
		}
	}
}

// beat prints uptime, then one line per sensor seen on the stats topic.
func (s *Service) beat() {
	s.print("[heartbeat] up", int64(time.Since(s.start)/time.Second), "s")
	for _, id := range s.order {
		st := s.last[id]
		s.print("[heartbeat]", id, st.State,
			"cycles", st.Cycles, "measured", st.Measured, "predicted", st.Predicted,
			"timeouts", st.Timeouts, "invalid", st.Invalid, "retries", st.Retries,
			"nvm", st.StoreWrites, "nvm_err", st.StoreErrors)
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.start = time.Now()
	s.last = map[string]types.RangeStats{}
	go s.serviceLoop(ctx, conn)
	return nil
}
