package telemetry

import (
	"context"
	"io"

	"rangecode-go/bus"
	"rangecode-go/types"
)

var topicReadings = bus.T("ranger", "+", "reading")

// Service writes every published reading to w as a telemetry line.
type Service struct {
	w   io.Writer
	buf []byte
}

func New(w io.Writer) *Service {
	return &Service{w: w, buf: make([]byte, 0, 64)}
}

func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(topicReadings)
	defer conn.Disconnect()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			r, ok := msg.Payload.(types.RangeReading)
			if !ok {
				continue
			}
			s.buf = Encode(s.buf[:0], r)
			if _, err := s.w.Write(s.buf); err != nil {
				println("[telemetry] write failed:", err.Error())
			}
		}
	}
}

// Start runs the service in its own goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.Run(ctx, conn)
}
