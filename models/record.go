package models

// EventType discriminates the record variants. Press fields are only valid
// on EventButtonPress rows; the CSV columns are left empty otherwise.
type EventType int

const (
	EventRecordingStart EventType = iota
	EventIdle
	EventButtonPress
	EventRecordingStop
)

var eventNames = map[EventType]string{
	EventRecordingStart: "recording_start",
	EventIdle:           "idle",
	EventButtonPress:    "button_press",
	EventRecordingStop:  "recording_stop",
}

func (e EventType) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return "unknown"
}

// PressInfo carries the digit fields of a button_press record.
type PressInfo struct {
	Digit    byte `json:"digit"`
	Position int  `json:"position"`
}

// SensorRecord is one row of a recording session: a best-effort snapshot of
// the most recently known value of every channel at logging time, labeled
// with the session, trial and partial-PIN state in effect when it was
// appended.
type SensorRecord struct {
	SessionID       string `json:"session_id"`
	TrialNumber     int    `json:"trial_number"`
	TargetPIN       string `json:"target_pin"`
	PINEntered      string `json:"pin_entered"` // 0–4 digit prefix
	IsCorrect       bool   `json:"is_correct"`  // true only on a full 4-digit match
	TimestampMs     int64  `json:"timestamp_ms"`
	TimeFromStartMs int64  `json:"time_from_start_ms"`

	AccelX float64 `json:"accel_x"`
	AccelY float64 `json:"accel_y"`
	AccelZ float64 `json:"accel_z"`

	GyroX float64 `json:"gyro_x"`
	GyroY float64 `json:"gyro_y"`
	GyroZ float64 `json:"gyro_z"`

	RotX      float64 `json:"rot_x"`
	RotY      float64 `json:"rot_y"`
	RotZ      float64 `json:"rot_z"`
	RotScalar float64 `json:"rot_scalar"`

	Event EventType  `json:"event_type"`
	Press *PressInfo `json:"press,omitempty"` // set iff Event == EventButtonPress
}

func (SensorRecord) CSVHeader() []string {
	return []string{
		"session_id", "trial_number", "target_pin", "pin_entered", "is_correct",
		"timestamp_ms", "time_from_start_ms",
		"accel_x", "accel_y", "accel_z",
		"gyro_x", "gyro_y", "gyro_z",
		"rot_x", "rot_y", "rot_z", "rot_scalar",
		"event_type", "digit_pressed", "digit_position",
	}
}

func (r *SensorRecord) CSVRow() []string {
	correct := "0"
	if r.IsCorrect {
		correct = "1"
	}

	digit, position := "", ""
	if r.Event == EventButtonPress && r.Press != nil {
		digit = string(r.Press.Digit)
		position = itoa(r.Press.Position)
	}

	return []string{
		r.SessionID,
		itoa(r.TrialNumber),
		r.TargetPIN,
		r.PINEntered,
		correct,
		itoa64(r.TimestampMs),
		itoa64(r.TimeFromStartMs),
		ftoa(r.AccelX, 6), ftoa(r.AccelY, 6), ftoa(r.AccelZ, 6),
		ftoa(r.GyroX, 6), ftoa(r.GyroY, 6), ftoa(r.GyroZ, 6),
		ftoa(r.RotX, 6), ftoa(r.RotY, 6), ftoa(r.RotZ, 6), ftoa(r.RotScalar, 6),
		r.Event.String(),
		digit,
		position,
	}
}
