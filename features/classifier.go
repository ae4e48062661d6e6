package features

import (
	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
)

// Classifier predicts which digit was pressed from a feature vector.
// Implementations return ok=false when no prediction is available; they are
// expected not to panic, but Pipeline guards against it regardless.
type Classifier interface {
	Predict(features []float64) (digit byte, ok bool)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func([]float64) (byte, bool)

func (f ClassifierFunc) Predict(features []float64) (byte, bool) {
	return f(features)
}

// Pipeline ties the rolling window to a classifier. The window is fed
// continuously from the motion channels, independent of recording state;
// OnKeyPress reads (without clearing) the window and runs inference.
type Pipeline struct {
	win        *Window
	classifier Classifier
	latestRot  models.RotationSample
}

// NewPipeline creates a pipeline; classifier may be nil, in which case
// OnKeyPress only extracts and reports no prediction.
func NewPipeline(c Classifier) *Pipeline {
	return &Pipeline{
		win:        NewWindow(),
		classifier: c,
	}
}

// OnMotion records the latest combined accel/gyro snapshot.
func (p *Pipeline) OnMotion(s MotionSample) {
	p.win.Push(s)
}

// OnRotation records the latest orientation for inclusion in the vector.
func (p *Pipeline) OnRotation(r models.RotationSample) {
	p.latestRot = r
}

// OnKeyPress extracts the feature vector for a press and asks the classifier
// for a digit. A classifier failure (including panic) yields ok=false and
// never propagates to the caller.
func (p *Pipeline) OnKeyPress(press models.KeyPress) (vector []float64, digit byte, ok bool) {
	vector = Extract(p.win, press, p.latestRot)
	if p.classifier == nil {
		return vector, 0, false
	}
	digit, ok = p.safePredict(vector)
	return vector, digit, ok
}

func (p *Pipeline) safePredict(vector []float64) (digit byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.L().Warn("classifier panic recovered: %v", r)
			digit, ok = 0, false
		}
	}()
	return p.classifier.Predict(vector)
}
