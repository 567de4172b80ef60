package config

import (
	"context"
	"errors"

	"rangecode-go/bus"
	"rangecode-go/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for the board ID
)

var (
	topicRanger    = bus.T(configPrefix, "ranger")
	topicHeartbeat = bus.T(configPrefix, "heartbeat")
)

// Board is the full configuration of one board.
type Board struct {
	Ranger    types.RangerConfig
	Heartbeat types.HeartbeatConfig
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) (Board, bool) {
	b, ok := EmbeddedConfigs[device]
	return b, ok
}

var errNoDevice = errors.New("missing device ID in context")

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig publishes the board's configuration as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errNoDevice
	}
	b, ok := EmbeddedConfigLookup(device)
	if !ok {
		return errors.New("no embedded config for device: " + device)
	}

	conn.Publish(conn.NewMessage(topicRanger, b.Ranger, true))
	if b.Heartbeat.IntervalS > 0 {
		conn.Publish(conn.NewMessage(topicHeartbeat, b.Heartbeat, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
