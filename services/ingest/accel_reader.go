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

// AccelReader produces linear-acceleration samples at the channel's native
// rate. In simulate mode it synthesizes gentle hand-tremor motion; without a
// hardware feed attached it still runs, so the pipeline degrades to a
// warning rather than failing (useful for headless testing).
type AccelReader struct {
	cfg      utils.ChannelConfig
	sim      bool
	Out      chan models.AccelSample
	dropped  uint64
	produced uint64
}

func NewAccelReader(cfg utils.ChannelConfig, simulate bool) *AccelReader {
	buf := cfg.ChannelBuffer
	if buf <= 0 {
		buf = 256
	}
	return &AccelReader{
		cfg: cfg,
		sim: simulate,
		Out: make(chan models.AccelSample, buf),
	}
}

func (r *AccelReader) Start(ctx context.Context) {
	go r.run(ctx)
	utils.L().Info("accel reader started    (rate=%dHz, buffer=%d, simulate=%v)",
		r.cfg.UpdateRateHz, cap(r.Out), r.sim)
}

func (r *AccelReader) run(ctx context.Context) {
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
			utils.L().Info("accel reader stopped    (produced=%d, dropped=%d)",
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

func (r *AccelReader) read(step float64) models.AccelSample {
	ts := utils.NowMillis()

	if r.sim {
		return models.AccelSample{
			TimestampMs: ts,
			X:           0.05*math.Sin(step*3) + rand.Float64()*0.01,
			Y:           0.03*math.Cos(step*2) + rand.Float64()*0.01,
			Z:           9.81 + 0.02*math.Sin(step) + rand.Float64()*0.02,
		}
	}

	// No local hardware path: real devices stream over MQTT instead.
	return models.AccelSample{TimestampMs: ts}
}

func (r *AccelReader) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&r.produced), atomic.LoadUint64(&r.dropped)
}
