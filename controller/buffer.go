package controller

import (
	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
)

// SensorBuffer owns the per-channel latest values and the ordered record log
// of one recording session. It is the unit of truth for a session: every
// appended record is a best-effort snapshot of "all channels as currently
// known", reusing stale values from channels that have not fired since the
// last update — not a synchronized multi-channel sample.
//
// The buffer is exclusively owned by the session controller's run loop; it
// is not safe for concurrent use. Only the controller transitions it between
// accepting records and frozen-for-export.
type SensorBuffer struct {
	latestAccel models.AccelSample
	latestGyro  models.GyroSample
	latestRot   models.RotationSample

	records []models.SensorRecord

	active      bool
	sessionID   string
	trialNumber int
	targetPIN   string
	pinEntered  string

	startMs     int64
	lastMs      int64 // timestamp of the last appended record, for throttling
	lastElapsed int64 // high-water mark; elapsed never regresses

	minIntervalMs int64
	now           func() int64

	observer chan<- int // sample-count notifications, drop-on-full
}

// NewSensorBuffer creates an inactive buffer. minIntervalMs bounds how often
// idle records are appended (digit presses and start/stop are exempt); now
// is injectable for tests.
func NewSensorBuffer(minIntervalMs int64, now func() int64) *SensorBuffer {
	if now == nil {
		now = utils.NowMillis
	}
	if minIntervalMs <= 0 {
		minIntervalMs = 10
	}
	return &SensorBuffer{
		minIntervalMs: minIntervalMs,
		now:           now,
	}
}

// SetObserver attaches a fire-and-forget sample-count channel (for live
// display). Sends never block the append path.
func (b *SensorBuffer) SetObserver(ch chan<- int) {
	b.observer = ch
}

// Begin clears any previous contents and starts a new session, appending the
// recording_start record as the first row.
func (b *SensorBuffer) Begin(sessionID string, trialNumber int, targetPIN string) {
	b.records = b.records[:0]
	b.sessionID = sessionID
	b.trialNumber = trialNumber
	b.targetPIN = targetPIN
	b.pinEntered = ""
	b.active = true
	b.startMs = b.now()
	b.lastMs = 0
	b.lastElapsed = 0

	b.append(models.EventRecordingStart, nil)
}

// Active reports whether the buffer is accepting records.
func (b *SensorBuffer) Active() bool {
	return b.active
}

// PINEntered returns the current 0–4 digit prefix.
func (b *SensorBuffer) PINEntered() string {
	return b.pinEntered
}

// Len returns the number of records appended so far.
func (b *SensorBuffer) Len() int {
	return len(b.records)
}

// UpdateAccel records the latest acceleration and, while recording, appends
// a throttled idle snapshot. Inactive buffers still track the latest value
// so the next session starts with current channel state.
func (b *SensorBuffer) UpdateAccel(s models.AccelSample) {
	b.latestAccel = s
	b.maybeIdle()
}

// UpdateGyro records the latest angular velocity; see UpdateAccel.
func (b *SensorBuffer) UpdateGyro(s models.GyroSample) {
	b.latestGyro = s
	b.maybeIdle()
}

// UpdateRotation records the latest orientation; see UpdateAccel.
func (b *SensorBuffer) UpdateRotation(s models.RotationSample) {
	b.latestRot = s
	b.maybeIdle()
}

// LatestAccel returns the most recent acceleration sample.
func (b *SensorBuffer) LatestAccel() models.AccelSample {
	return b.latestAccel
}

// LatestGyro returns the most recent angular-velocity sample.
func (b *SensorBuffer) LatestGyro() models.GyroSample {
	return b.latestGyro
}

// LatestRotation returns the most recent orientation quaternion.
func (b *SensorBuffer) LatestRotation() models.RotationSample {
	return b.latestRot
}

// KeyPress appends a button_press record and extends the partial PIN.
// Presses are never throttled. Returns false when the buffer is inactive or
// the PIN is already complete — both are no-ops, not errors, tolerating UI
// events that arrive just after a stop.
func (b *SensorBuffer) KeyPress(kp models.KeyPress) bool {
	if !b.active || len(b.pinEntered) >= 4 {
		return false
	}
	b.pinEntered += string(kp.Digit)
	b.append(models.EventButtonPress, &models.PressInfo{
		Digit:    kp.Digit,
		Position: kp.Position,
	})
	return true
}

// End appends the recording_stop record and freezes the buffer. Subsequent
// updates only refresh latest-value slots.
func (b *SensorBuffer) End() {
	if !b.active {
		return
	}
	b.append(models.EventRecordingStop, nil)
	b.active = false
}

// Snapshot returns an immutable copy of the record log for export. The live
// buffer may keep existing afterward but is not reused until Begin.
func (b *SensorBuffer) Snapshot() []models.SensorRecord {
	out := make([]models.SensorRecord, len(b.records))
	copy(out, b.records)
	return out
}

// maybeIdle appends an idle snapshot if recording is active and the minimum
// inter-record interval has elapsed. Inactive entry points are no-ops.
func (b *SensorBuffer) maybeIdle() {
	if !b.active {
		return
	}
	if b.lastMs != 0 && b.now()-b.lastMs < b.minIntervalMs {
		return
	}
	b.append(models.EventIdle, nil)
}

func (b *SensorBuffer) append(event models.EventType, press *models.PressInfo) {
	ts := b.now()

	elapsed := ts - b.startMs
	if elapsed < b.lastElapsed {
		// Wall clock stepped backwards; hold the high-water mark so
		// time_from_start_ms stays non-decreasing within the session.
		elapsed = b.lastElapsed
	}
	if elapsed < 0 {
		elapsed = 0
	}
	b.lastElapsed = elapsed
	b.lastMs = ts

	rec := models.SensorRecord{
		SessionID:       b.sessionID,
		TrialNumber:     b.trialNumber,
		TargetPIN:       b.targetPIN,
		PINEntered:      b.pinEntered,
		IsCorrect:       len(b.pinEntered) == 4 && b.pinEntered == b.targetPIN,
		TimestampMs:     ts,
		TimeFromStartMs: elapsed,
		AccelX:          b.latestAccel.X,
		AccelY:          b.latestAccel.Y,
		AccelZ:          b.latestAccel.Z,
		GyroX:           b.latestGyro.X,
		GyroY:           b.latestGyro.Y,
		GyroZ:           b.latestGyro.Z,
		RotX:            b.latestRot.X,
		RotY:            b.latestRot.Y,
		RotZ:            b.latestRot.Z,
		RotScalar:       b.latestRot.Scalar,
		Event:           event,
		Press:           press,
	}
	b.records = append(b.records, rec)

	if b.observer != nil {
		select {
		case b.observer <- len(b.records):
		default: // display lagging, drop
		}
	}
}
