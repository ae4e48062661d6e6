package ingest

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
)

// RotationReader produces orientation samples as unit quaternions. The
// simulated device drifts slowly around a near-upright hand-held pose.
type RotationReader struct {
	cfg      utils.ChannelConfig
	sim      bool
	Out      chan models.RotationSample
	dropped  uint64
	produced uint64
}

func NewRotationReader(cfg utils.ChannelConfig, simulate bool) *RotationReader {
	buf := cfg.ChannelBuffer
	if buf <= 0 {
		buf = 256
	}
	return &RotationReader{
		cfg: cfg,
		sim: simulate,
		Out: make(chan models.RotationSample, buf),
	}
}

func (r *RotationReader) Start(ctx context.Context) {
	go r.run(ctx)
	utils.L().Info("rotation reader started (rate=%dHz, buffer=%d, simulate=%v)",
		r.cfg.UpdateRateHz, cap(r.Out), r.sim)
}

func (r *RotationReader) run(ctx context.Context) {
	defer close(r.Out)

	rate := r.cfg.UpdateRateHz
	if rate <= 0 {
		rate = 50
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	var step float64
	for {
		select {
		case <-ctx.Done():
			utils.L().Info("rotation reader stopped (produced=%d, dropped=%d)",
				atomic.LoadUint64(&r.produced), atomic.LoadUint64(&r.dropped))
			return
		case <-ticker.C:
			s := r.read(step)
			step += 0.005

			select {
			case r.Out <- s:
				atomic.AddUint64(&r.produced, 1)
			default:
				atomic.AddUint64(&r.dropped, 1)
			}
		}
	}
}

func (r *RotationReader) read(step float64) models.RotationSample {
	ts := utils.NowMillis()

	if r.sim {
		// Small-angle rotation about a slowly wandering axis.
		angle := 0.1 * math.Sin(step)
		half := angle / 2
		return models.RotationSample{
			TimestampMs: ts,
			X:           math.Sin(half) * math.Cos(step*0.3),
			Y:           math.Sin(half) * math.Sin(step*0.3),
			Z:           0,
			Scalar:      math.Cos(half),
		}
	}

	return models.RotationSample{TimestampMs: ts, Scalar: 1}
}

func (r *RotationReader) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&r.produced), atomic.LoadUint64(&r.dropped)
}
