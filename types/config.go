package types

// Ranger configuration supplied retained on topic "config/ranger".

type RangerConfig struct {
	// TickMS is how often every sensor's Update runs. Default 5 ms.
	TickMS int `json:"tick_ms,omitempty"`
	// StatsMS is the stats publication period. Default 1000 ms; <0 disables.
	StatsMS int            `json:"stats_ms,omitempty"`
	Sensors []SensorParams `json:"sensors"`
}

type SensorParams struct {
	ID         string `json:"id"`
	TriggerPin int    `json:"trigger_pin"`
	EchoPin    int    `json:"echo_pin"`
	Mobile     bool   `json:"mobile,omitempty"`
	// IntervalMS is the period between measurement starts. Default 100 ms.
	IntervalMS int `json:"interval_ms,omitempty"`
	// StorageOffset is the base address of this sensor's NVM ring.
	// Each ring takes 1 + StoreSize bytes.
	StorageOffset uint16 `json:"storage_offset"`
	// Optional overrides of the driver defaults; zero keeps the default.
	TimeoutMS int `json:"timeout_ms,omitempty"`
	RetryMS   int `json:"retry_ms,omitempty"`
	StoreSize int `json:"store_size,omitempty"`
}

// HeartbeatConfig is supplied on "config/heartbeat".
type HeartbeatConfig struct {
	IntervalS int `json:"interval_s"`
}
