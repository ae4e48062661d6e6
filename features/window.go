// Package features maintains a rolling window over the motion channels and
// turns it into per-press statistical feature vectors for digit inference.
package features

// MotionSample is one combined snapshot of the two motion channels: the
// latest known acceleration and angular velocity at push time.
type MotionSample struct {
	Ax, Ay, Az float64
	Gx, Gy, Gz float64
}

// WindowSize is the fixed capacity of the rolling motion window.
const WindowSize = 8

// Window is a fixed-capacity ring over MotionSamples. It always holds the
// most recent samples regardless of recording state, and is read (never
// cleared) at each key press.
type Window struct {
	buf   [WindowSize]MotionSample
	next  int
	count int
}

// NewWindow returns an empty window.
func NewWindow() *Window {
	return &Window{}
}

// Push appends a sample, evicting the oldest once the window is full.
func (w *Window) Push(s MotionSample) {
	w.buf[w.next] = s
	w.next = (w.next + 1) % WindowSize
	if w.count < WindowSize {
		w.count++
	}
}

// Len reports how many samples the window currently holds (0..WindowSize).
func (w *Window) Len() int {
	return w.count
}

// Samples returns the window contents in oldest-to-newest order.
func (w *Window) Samples() []MotionSample {
	out := make([]MotionSample, 0, w.count)
	start := w.next - w.count
	if start < 0 {
		start += WindowSize
	}
	for i := 0; i < w.count; i++ {
		out = append(out, w.buf[(start+i)%WindowSize])
	}
	return out
}
