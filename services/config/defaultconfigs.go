package config

import "rangecode-go/types"

// EmbeddedConfigs holds the default configuration per board ID.
//
// Each sensor's NVM ring takes 1+StoreSize bytes from StorageOffset, so
// offsets are spaced 256 apart.
var EmbeddedConfigs = map[string]Board{
	// Pico: front sensor trig GP2 / echo GP3 on a static mount, rear sensor
	// trig GP6 / echo GP7 on the moving carriage.
	"pico": {
		Ranger: types.RangerConfig{
			TickMS:  5,
			StatsMS: 1000,
			Sensors: []types.SensorParams{
				{ID: "front", TriggerPin: 2, EchoPin: 3, IntervalMS: 100, StorageOffset: 0},
				{ID: "rear", TriggerPin: 6, EchoPin: 7, Mobile: true, IntervalMS: 100, StorageOffset: 256},
			},
		},
		Heartbeat: types.HeartbeatConfig{IntervalS: 2},
	},
	// Host simulation; pins follow platform.SimWiring.
	"host": {
		Ranger: types.RangerConfig{
			TickMS:  5,
			StatsMS: 1000,
			Sensors: []types.SensorParams{
				{ID: "front", TriggerPin: 2, EchoPin: 3, IntervalMS: 200, StorageOffset: 0},
				{ID: "rear", TriggerPin: 6, EchoPin: 7, Mobile: true, IntervalMS: 200, StorageOffset: 256},
			},
		},
		Heartbeat: types.HeartbeatConfig{IntervalS: 5},
	},
}
