package views

// This file is the single human-readable reference for the export layout.
// The actual header writing is handled by models.SensorRecord.CSVHeader();
// tests validate the two against each other.

// SchemaColumns is the canonical column order of an exported trial file.
var SchemaColumns = []string{
	"session_id", "trial_number", "target_pin", "pin_entered", "is_correct",
	"timestamp_ms", "time_from_start_ms",
	"accel_x", "accel_y", "accel_z",
	"gyro_x", "gyro_y", "gyro_z",
	"rot_x", "rot_y", "rot_z", "rot_scalar",
	"event_type", "digit_pressed", "digit_position",
}

// EventTypeValues lists the allowed event_type column values in the order
// they occur within a well-formed session.
var EventTypeValues = []string{
	"recording_start", "idle", "button_press", "recording_stop",
}
