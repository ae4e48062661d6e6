package ingest

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
)

// GyroReader produces angular-velocity samples (rad/s).
type GyroReader struct {
	cfg      utils.ChannelConfig
	sim      bool
	Out      chan models.GyroSample
	dropped  uint64
	produced uint64
}

func NewGyroReader(cfg utils.ChannelConfig, simulate bool) *GyroReader {
	buf := cfg.ChannelBuffer
	if buf <= 0 {
		buf = 256
	}
	return &GyroReader{
		cfg: cfg,
		sim: simulate,
		Out: make(chan models.GyroSample, buf),
	}
}

func (r *GyroReader) Start(ctx context.Context) {
	go r.run(ctx)
	utils.L().Info("gyro reader started     (rate=%dHz, buffer=%d, simulate=%v)",
		r.cfg.UpdateRateHz, cap(r.Out), r.sim)
}

func (r *GyroReader) run(ctx context.Context) {
	defer close(r.Out)

	rate := r.cfg.UpdateRateHz
	if rate <= 0 {
		rate = 100
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	var step float64
	for {
		select {
		case <-ctx.Done():
			utils.L().Info("gyro reader stopped     (produced=%d, dropped=%d)",
				atomic.LoadUint64(&r.produced), atomic.LoadUint64(&r.dropped))
			return
		case <-ticker.C:
			s := r.read(step)
			step += 0.01

			select {
			case r.Out <- s:
				atomic.AddUint64(&r.produced, 1)
			default:
				atomic.AddUint64(&r.dropped, 1)
			}
		}
	}
}

func (r *GyroReader) read(step float64) models.GyroSample {
	ts := utils.NowMillis()

	if r.sim {
		return models.GyroSample{
			TimestampMs: ts,
			X:           0.02*math.Sin(step*4) + rand.Float64()*0.002,
			Y:           0.015*math.Cos(step*3) + rand.Float64()*0.002,
			Z:           0.005*math.Sin(step*2) + rand.Float64()*0.001,
		}
	}

	return models.GyroSample{TimestampMs: ts}
}

func (r *GyroReader) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&r.produced), atomic.LoadUint64(&r.dropped)
}
