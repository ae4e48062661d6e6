package controller

import (
	"context"

	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/services/ingest"
	"github.com/jithu2111/SenseKey/utils"
)

// SourcesController owns the lifecycle of every channel source. It exposes
// typed output channels that the session controller consumes, regardless of
// whether samples come from local simulated readers or a live MQTT device
// feed.
type SourcesController struct {
	accel    *ingest.AccelReader
	gyro     *ingest.GyroReader
	rotation *ingest.RotationReader
	mqtt     *ingest.MQTTSource

	AccelCh    chan models.AccelSample
	GyroCh     chan models.GyroSample
	RotationCh chan models.RotationSample
	KeyCh      chan models.KeyPress

	missing []models.Channel
}

// NewSourcesController creates sources for every enabled channel. A channel
// missing at startup is a warning, not an error — the session engine runs
// with whatever channels exist.
func NewSourcesController(cfg *utils.SensorsConfig) *SourcesController {
	sc := &SourcesController{}
	sim := cfg.Simulation.Enabled

	if cfg.MQTT.Enabled {
		sc.mqtt = ingest.NewMQTTSource(cfg.MQTT)
		sc.AccelCh = sc.mqtt.AccelCh
		sc.GyroCh = sc.mqtt.GyroCh
		sc.RotationCh = sc.mqtt.RotationCh
		sc.KeyCh = sc.mqtt.KeyCh
		return sc
	}

	if cfg.Sensors.Accel.Enabled {
		sc.accel = ingest.NewAccelReader(cfg.Sensors.Accel, sim)
		sc.AccelCh = sc.accel.Out
	} else {
		sc.missing = append(sc.missing, models.ChannelAccel)
	}
	if cfg.Sensors.Gyro.Enabled {
		sc.gyro = ingest.NewGyroReader(cfg.Sensors.Gyro, sim)
		sc.GyroCh = sc.gyro.Out
	} else {
		sc.missing = append(sc.missing, models.ChannelGyro)
	}
	if cfg.Sensors.Rotation.Enabled {
		sc.rotation = ingest.NewRotationReader(cfg.Sensors.Rotation, sim)
		sc.RotationCh = sc.rotation.Out
	} else {
		sc.missing = append(sc.missing, models.ChannelRotation)
	}

	for _, ch := range sc.missing {
		utils.L().Warn("%s channel unavailable — records will carry its last known (zero) values", ch)
	}
	return sc
}

// Missing lists the channels that were unavailable at startup. A missing
// channel is a degraded mode, never fatal; snapshot records reuse its zero
// value.
func (sc *SourcesController) Missing() []models.Channel {
	return sc.missing
}

// Start launches all enabled source goroutines. An MQTT connect failure
// degrades to a warning; the rest of the pipeline keeps running.
func (sc *SourcesController) Start(ctx context.Context) {
	if sc.mqtt != nil {
		if err := sc.mqtt.Start(ctx); err != nil {
			utils.L().Warn("mqtt source unavailable: %v — continuing without live device feed", err)
		}
		return
	}
	if sc.accel != nil {
		sc.accel.Start(ctx)
	}
	if sc.gyro != nil {
		sc.gyro.Start(ctx)
	}
	if sc.rotation != nil {
		sc.rotation.Start(ctx)
	}
	utils.L().Info("sources controller: all enabled channels launched")
}

// LogStats prints current produce/drop counters for each local reader.
func (sc *SourcesController) LogStats() {
	if sc.accel != nil {
		p, d := sc.accel.Stats()
		utils.L().Info("  accel    produced=%d  dropped=%d", p, d)
	}
	if sc.gyro != nil {
		p, d := sc.gyro.Stats()
		utils.L().Info("  gyro     produced=%d  dropped=%d", p, d)
	}
	if sc.rotation != nil {
		p, d := sc.rotation.Stats()
		utils.L().Info("  rotation produced=%d  dropped=%d", p, d)
	}
}
