package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jithu2111/SenseKey/models"
)

// VectorLen is the fixed length of every extracted feature vector.
const VectorLen = 17

// standardGravity removes the static vertical component from the
// acceleration mean; the device's vertical axis is Z in hand-held pose.
const standardGravity = 9.80665

// Extract computes the per-press feature vector from the current window,
// the press itself, and the latest orientation quaternion. Layout:
//
//	0..1   touch x, touch y
//	2..5   rot x, y, z, scalar
//	6..8   mean accel x, y, z
//	9..11  mean gyro x, y, z
//	12     mean |accel|
//	13     mean |gyro|
//	14     gravity-compensated vertical accel mean
//	15     stddev |accel|
//	16     stddev |gyro|
//
// An empty window yields an all-zero vector of the same length, never a
// shorter one.
func Extract(w *Window, press models.KeyPress, rot models.RotationSample) []float64 {
	v := make([]float64, VectorLen)
	if w == nil || w.Len() == 0 {
		return v
	}

	samples := w.Samples()
	n := len(samples)

	ax := make([]float64, n)
	ay := make([]float64, n)
	az := make([]float64, n)
	gx := make([]float64, n)
	gy := make([]float64, n)
	gz := make([]float64, n)
	accMag := make([]float64, n)
	gyrMag := make([]float64, n)

	for i, s := range samples {
		ax[i], ay[i], az[i] = s.Ax, s.Ay, s.Az
		gx[i], gy[i], gz[i] = s.Gx, s.Gy, s.Gz
		accMag[i] = math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az)
		gyrMag[i] = math.Sqrt(s.Gx*s.Gx + s.Gy*s.Gy + s.Gz*s.Gz)
	}

	v[0] = press.TouchX
	v[1] = press.TouchY
	v[2] = rot.X
	v[3] = rot.Y
	v[4] = rot.Z
	v[5] = rot.Scalar

	v[6] = stat.Mean(ax, nil)
	v[7] = stat.Mean(ay, nil)
	v[8] = stat.Mean(az, nil)
	v[9] = stat.Mean(gx, nil)
	v[10] = stat.Mean(gy, nil)
	v[11] = stat.Mean(gz, nil)

	v[12] = stat.Mean(accMag, nil)
	v[13] = stat.Mean(gyrMag, nil)
	v[14] = stat.Mean(az, nil) - standardGravity

	v[15] = sampleStdDev(accMag)
	v[16] = sampleStdDev(gyrMag)

	return v
}

// sampleStdDev guards gonum's n-1 denominator: a single-sample window has
// no spread, not NaN.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}
