package types

// ---- Service state (retained) ----

type ServiceState struct {
	Level  string `json:"level"`  // e.g. "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// ---- Ranging payloads ----

// RangeReading is published retained on ranger/<id>/reading.
type RangeReading struct {
	Sensor     string  `json:"sensor"`
	Distance   float32 `json:"distance_cm"`
	Confidence uint8   `json:"confidence"`
	Predicted  bool    `json:"predicted,omitempty"`
	Verified   bool    `json:"verified,omitempty"`
	TS         int64   `json:"ts_ms"`
}

// RangeStats is published on ranger/<id>/stats.
type RangeStats struct {
	Sensor      string  `json:"sensor"`
	State       string  `json:"state"`
	Cycles      uint32  `json:"cycles"`
	Measured    uint32  `json:"measured"`
	Predicted   uint32  `json:"predicted"`
	Timeouts    uint32  `json:"timeouts"`
	Invalid     uint32  `json:"invalid"`
	Retries     uint32  `json:"retries"`
	StoreWrites uint32  `json:"store_writes"`
	StoreErrors uint32  `json:"store_errors"`
	LastPredict float32 `json:"last_prediction_cm"`
	TS          int64   `json:"ts_ms"`
}

// ---- Controls ----

// VerifyRequest asks a sensor to check Measured against its last prediction.
type VerifyRequest struct {
	Measured float32 `json:"measured_cm"`
}

// ControlReply answers ranger/<id>/control/<verb>.
type ControlReply struct {
	OK       bool   `json:"ok"`
	Code     string `json:"code,omitempty"`
	Verified bool   `json:"verified,omitempty"`
	State    string `json:"state,omitempty"`
}
