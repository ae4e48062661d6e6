package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ─── Channel / ingest configs ───────────────────────────────────────────

type ChannelConfig struct {
	Enabled       bool `yaml:"enabled"`
	UpdateRateHz  int  `yaml:"update_rate_hz"`
	ChannelBuffer int  `yaml:"channel_buffer"`
}

type MQTTConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Broker        string `yaml:"broker"` // e.g. tcp://localhost:1883
	ClientID      string `yaml:"client_id"`
	TopicAccel    string `yaml:"topic_accel"`
	TopicGyro     string `yaml:"topic_gyro"`
	TopicRotation string `yaml:"topic_rotation"`
	TopicKeypad   string `yaml:"topic_keypad"`
}

type SimulationConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SensorsConfig is the top-level structure for the sensors document.
type SensorsConfig struct {
	Sensors struct {
		Accel    ChannelConfig `yaml:"accel"`
		Gyro     ChannelConfig `yaml:"gyro"`
		Rotation ChannelConfig `yaml:"rotation"`
	} `yaml:"sensors"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// ─── Session configs ────────────────────────────────────────────────────

// SessionConfig drives the recording state machine: who is being recorded,
// which PINs they are asked to enter, and the engine timing knobs.
type SessionConfig struct {
	Session struct {
		ParticipantID       string   `yaml:"participant_id"`
		TargetPINs          []string `yaml:"target_pins"`
		SettleDelayMs       int      `yaml:"settle_delay_ms"`
		MinRecordIntervalMs int      `yaml:"min_record_interval_ms"`
		FeedbackClearMs     int      `yaml:"feedback_clear_ms"`
	} `yaml:"session"`
}

// ─── Storage configs ────────────────────────────────────────────────────

type CSVStorageConfig struct {
	BufferSizeKB int `yaml:"buffer_size_kb"`
}

type StorageConfig struct {
	Storage struct {
		BaseDir      string           `yaml:"base_dir"`
		ExportSubdir string           `yaml:"export_subdir"`
		CSV          CSVStorageConfig `yaml:"csv"`
	} `yaml:"storage"`
}

// ─── Remote prediction configs ──────────────────────────────────────────

type PredictConfig struct {
	Predict struct {
		Enabled   bool   `yaml:"enabled"`
		URL       string `yaml:"url"`
		DeviceID  string `yaml:"device_id"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"predict"`
}

// ─── Loaders ────────────────────────────────────────────────────────────

func loadYAML(path string, out any, what string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s config: %w", what, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s config: %w", what, err)
	}
	return nil
}

// LoadSensorsConfig reads and parses the sensors/ingest document.
func LoadSensorsConfig(path string) (*SensorsConfig, error) {
	var cfg SensorsConfig
	if err := loadYAML(path, &cfg, "sensors"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSessionConfig reads and parses the session document and validates the
// target PIN list (each entry must be exactly four digits).
func LoadSessionConfig(path string) (*SessionConfig, error) {
	var cfg SessionConfig
	if err := loadYAML(path, &cfg, "session"); err != nil {
		return nil, err
	}
	if len(cfg.Session.TargetPINs) == 0 {
		return nil, fmt.Errorf("session config: target_pins must not be empty")
	}
	for _, pin := range cfg.Session.TargetPINs {
		if len(pin) != 4 {
			return nil, fmt.Errorf("session config: target pin %q is not 4 digits", pin)
		}
		for _, c := range pin {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("session config: target pin %q is not numeric", pin)
			}
		}
	}
	return &cfg, nil
}

// LoadStorageConfig reads and parses the storage document.
func LoadStorageConfig(path string) (*StorageConfig, error) {
	var cfg StorageConfig
	if err := loadYAML(path, &cfg, "storage"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadPredictConfig reads and parses the remote-prediction document.
func LoadPredictConfig(path string) (*PredictConfig, error) {
	var cfg PredictConfig
	if err := loadYAML(path, &cfg, "predict"); err != nil {
		return nil, err
	}
	return &cfg, nil
}
