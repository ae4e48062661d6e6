package models

// Channel identifies one independent hardware signal source. Channels are
// updated at independent, hardware-determined rates; no ordering is
// guaranteed between them.
type Channel int

const (
	ChannelAccel Channel = iota
	ChannelGyro
	ChannelRotation
)

var channelNames = map[Channel]string{
	ChannelAccel:    "accel",
	ChannelGyro:     "gyro",
	ChannelRotation: "rotation",
}

func (c Channel) String() string {
	if n, ok := channelNames[c]; ok {
		return n
	}
	return "unknown"
}

// AccelSample holds one raw accelerometer reading in m/s². Gravity is
// included; while the device rests flat, Z reads ≈ +9.81. The feature
// extractor compensates for it on the vertical axis.
type AccelSample struct {
	TimestampMs int64   `json:"timestamp_ms"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
}

// GyroSample holds one angular-velocity reading (rad/s).
type GyroSample struct {
	TimestampMs int64   `json:"timestamp_ms"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
}

// RotationSample holds one orientation reading as a unit quaternion.
type RotationSample struct {
	TimestampMs int64   `json:"timestamp_ms"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Scalar      float64 `json:"scalar"`
}

// KeyPress is one digit press on the device keypad. TouchX/TouchY are screen
// coordinates consumed only by the feature extractor; they are not part of
// the export schema.
type KeyPress struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Digit       byte    `json:"digit"`    // ASCII '0'–'9'
	Position    int     `json:"position"` // 0–3, index within the PIN
	TouchX      float64 `json:"touch_x"`
	TouchY      float64 `json:"touch_y"`
}
