package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jithu2111/SenseKey/models"
)

func TestExtractEmptyWindowIsZeroVector(t *testing.T) {
	v := Extract(NewWindow(), models.KeyPress{TouchX: 100}, models.RotationSample{Scalar: 1})
	require.Len(t, v, VectorLen, "empty window must still yield a full-length vector")
	for i, x := range v {
		assert.Zero(t, x, "component %d", i)
	}

	t.Run("nil window behaves the same", func(t *testing.T) {
		v := Extract(nil, models.KeyPress{}, models.RotationSample{})
		require.Len(t, v, VectorLen)
	})
}

func TestExtractConstantMotion(t *testing.T) {
	w := NewWindow()
	for i := 0; i < WindowSize; i++ {
		w.Push(MotionSample{Ax: 1, Ay: 2, Az: 9.80665, Gx: 0.1, Gy: 0.2, Gz: 0.3})
	}

	press := models.KeyPress{TouchX: 120, TouchY: 340}
	rot := models.RotationSample{X: 0.1, Y: 0.2, Z: 0.3, Scalar: 0.9}

	v := Extract(w, press, rot)
	require.Len(t, v, VectorLen)

	assert.Equal(t, 120.0, v[0])
	assert.Equal(t, 340.0, v[1])
	assert.Equal(t, 0.1, v[2])
	assert.Equal(t, 0.9, v[5])

	assert.InDelta(t, 1.0, v[6], 1e-9, "mean accel x")
	assert.InDelta(t, 2.0, v[7], 1e-9, "mean accel y")
	assert.InDelta(t, 0.1, v[9], 1e-9, "mean gyro x")

	wantAccMag := math.Sqrt(1 + 4 + 9.80665*9.80665)
	assert.InDelta(t, wantAccMag, v[12], 1e-9, "mean |accel|")

	assert.InDelta(t, 0.0, v[14], 1e-9, "vertical accel mean is gravity compensated")

	assert.InDelta(t, 0.0, v[15], 1e-9, "constant motion has no |accel| spread")
	assert.InDelta(t, 0.0, v[16], 1e-9, "constant motion has no |gyro| spread")
}

func TestExtractSingleSampleHasZeroSpread(t *testing.T) {
	w := NewWindow()
	w.Push(MotionSample{Ax: 3, Gy: 0.5})

	v := Extract(w, models.KeyPress{}, models.RotationSample{})
	assert.Zero(t, v[15], "single sample must not produce NaN stddev")
	assert.Zero(t, v[16])
	assert.InDelta(t, 3.0, v[6], 1e-9)
}

func TestExtractVaryingMagnitudeSpread(t *testing.T) {
	w := NewWindow()
	w.Push(MotionSample{Az: 9.0})
	w.Push(MotionSample{Az: 11.0})

	v := Extract(w, models.KeyPress{}, models.RotationSample{})
	assert.InDelta(t, 10.0, v[12], 1e-9, "mean |accel|")
	assert.InDelta(t, math.Sqrt2, v[15], 1e-9, "sample stddev of {9,11}")
}
