package controller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jithu2111/SenseKey/features"
	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
	"github.com/jithu2111/SenseKey/views"
)

// State enumerates the session engine's lifecycle.
type State int32

const (
	StateIdle State = iota
	StateRecording
	StateAwaitingSettle // post-4th-digit delay; idle logging continues
	StateExporting
)

var stateNames = [...]string{"idle", "recording", "awaiting_settle", "exporting"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Clock abstracts time for the settle delay, so re-entrancy and cancellation
// are testable without wall-clock sleeps.
type Clock interface {
	NowMillis() int64
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) NowMillis() int64 { return utils.NowMillis() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewRealClock returns the wall-clock Clock used outside tests.
func NewRealClock() Clock { return realClock{} }

// Exporter is the session controller's view of the export stage.
type Exporter interface {
	Export(records []models.SensorRecord, participantID string, trial int, targetPIN string, verdict views.Verdict) (string, error)
}

// ExportedFunc is invoked (on its own goroutine) after every successful
// export — the hook point for remote prediction and UI feedback.
type ExportedFunc func(path string, records []models.SensorRecord, verdict views.Verdict)

type eventKind int

const (
	evStart eventKind = iota
	evStop
	evKey
)

type event struct {
	kind eventKind
	kp   models.KeyPress
}

type exportResult struct {
	path    string
	verdict views.Verdict
	records []models.SensorRecord
	err     error
}

// SessionController is the recording state machine. A single run-loop
// goroutine owns all mutable state; hardware callbacks and UI events arrive
// interleaved over channels and are serialized here, which is what lets the
// buffer stay single-owner.
type SessionController struct {
	cfg      *utils.SessionConfig
	cursor   *TrialCursor
	buffer   *SensorBuffer
	clock    Clock
	exporter Exporter
	pipeline *features.Pipeline // optional digit inference

	state atomic.Int32

	events     chan event
	exportCh   chan exportResult
	settleCh   <-chan time.Time
	feedbackCh <-chan time.Time

	settling       bool // re-entrancy guard for duplicate 4th-digit completion
	pendingVerdict views.Verdict
	sessionID      string

	onExported ExportedFunc
	monitor    func(views.MonitorStatus) // optional live status sink
}

// NewSessionController wires the state machine. exporter is required; clock
// defaults to wall time; pipeline may be nil.
func NewSessionController(cfg *utils.SessionConfig, exporter Exporter, clock Clock, pipeline *features.Pipeline) *SessionController {
	if clock == nil {
		clock = realClock{}
	}
	return &SessionController{
		cfg:      cfg,
		cursor:   NewTrialCursor(cfg.Session.TargetPINs),
		buffer:   NewSensorBuffer(int64(cfg.Session.MinRecordIntervalMs), clock.NowMillis),
		clock:    clock,
		exporter: exporter,
		pipeline: pipeline,
		events:   make(chan event, 64),
		exportCh: make(chan exportResult, 1),
	}
}

// SetExportedHook registers the post-export callback.
func (sc *SessionController) SetExportedHook(fn ExportedFunc) { sc.onExported = fn }

// SetMonitor registers the live status sink (must be safe to call from the
// run loop; views.LiveMonitor.Update qualifies).
func (sc *SessionController) SetMonitor(fn func(views.MonitorStatus)) { sc.monitor = fn }

// SetObserver forwards per-append sample counts to ch, drop-on-full.
func (sc *SessionController) SetObserver(ch chan<- int) { sc.buffer.SetObserver(ch) }

// State returns the current machine state.
func (sc *SessionController) State() State { return State(sc.state.Load()) }

// Target returns the PIN currently being collected.
func (sc *SessionController) Target() string { return sc.cursor.Target() }

// Trial returns the current trial number.
func (sc *SessionController) Trial() int { return sc.cursor.Trial() }

// StartRecording requests a new session. Rejected unless the machine is
// idle: a second start before the prior session finishes exporting must
// never interleave records from two sessions.
func (sc *SessionController) StartRecording() error {
	if sc.State() != StateIdle {
		return fmt.Errorf("session controller: recording already in progress (state=%s)", sc.State())
	}
	sc.events <- event{kind: evStart}
	return nil
}

// StopRecording requests an external stop (e.g. host view teardown). Always
// accepted; a no-op when idle.
func (sc *SessionController) StopRecording() {
	sc.events <- event{kind: evStop}
}

// KeyPress feeds one keypad digit into the engine.
func (sc *SessionController) KeyPress(kp models.KeyPress) {
	sc.events <- event{kind: evKey, kp: kp}
}

// Run consumes channel updates and UI events until ctx is cancelled. Sample
// channels may be nil (channel missing at startup) or become closed; both
// degrade gracefully. Run must be called exactly once.
func (sc *SessionController) Run(ctx context.Context, sources *SourcesController) {
	accelCh := sources.AccelCh
	gyroCh := sources.GyroCh
	rotCh := sources.RotationCh
	keyCh := sources.KeyCh

	utils.L().Info("session controller running (participant=%s, targets=%d)",
		sc.cfg.Session.ParticipantID, len(sc.cfg.Session.TargetPINs))

	for {
		select {
		case <-ctx.Done():
			sc.teardown()
			return

		case s, ok := <-accelCh:
			if !ok {
				accelCh = nil
				continue
			}
			sc.buffer.UpdateAccel(s)
			sc.feedMotion()

		case s, ok := <-gyroCh:
			if !ok {
				gyroCh = nil
				continue
			}
			sc.buffer.UpdateGyro(s)
			sc.feedMotion()

		case s, ok := <-rotCh:
			if !ok {
				rotCh = nil
				continue
			}
			sc.buffer.UpdateRotation(s)
			if sc.pipeline != nil {
				sc.pipeline.OnRotation(s)
			}

		case kp, ok := <-keyCh:
			if !ok {
				keyCh = nil
				continue
			}
			sc.handleKey(kp)

		case ev := <-sc.events:
			switch ev.kind {
			case evStart:
				sc.handleStart()
			case evStop:
				sc.handleStop()
			case evKey:
				sc.handleKey(ev.kp)
			}

		case <-sc.settleCh:
			sc.handleSettleExpired()

		case <-sc.feedbackCh:
			sc.feedbackCh = nil
			sc.pushStatus()

		case res := <-sc.exportCh:
			sc.handleExportDone(res)
		}
	}
}

// feedMotion pushes the combined latest accel+gyro snapshot into the feature
// window. The window rolls continuously, independent of recording state.
func (sc *SessionController) feedMotion() {
	if sc.pipeline == nil {
		return
	}
	a, g := sc.buffer.LatestAccel(), sc.buffer.LatestGyro()
	sc.pipeline.OnMotion(features.MotionSample{
		Ax: a.X, Ay: a.Y, Az: a.Z,
		Gx: g.X, Gy: g.Y, Gz: g.Z,
	})
}

func (sc *SessionController) handleStart() {
	if sc.State() != StateIdle {
		utils.L().Warn("start rejected: session in progress (state=%s)", sc.State())
		return
	}
	sc.sessionID = fmt.Sprintf("sess_%s", uuid.NewString())
	sc.settling = false
	sc.buffer.Begin(sc.sessionID, sc.cursor.Trial(), sc.cursor.Target())
	sc.setState(StateRecording)
	utils.L().Info("recording started  session=%s trial=%d target=%s",
		sc.sessionID, sc.cursor.Trial(), sc.cursor.Target())
}

func (sc *SessionController) handleKey(kp models.KeyPress) {
	if sc.State() != StateRecording {
		// Includes duplicate completions while settling or exporting:
		// suppressed, not surfaced.
		utils.L().Debug("key press ignored in state %s", sc.State())
		return
	}

	if !sc.buffer.KeyPress(kp) {
		return
	}

	if sc.pipeline != nil {
		_, digit, ok := sc.pipeline.OnKeyPress(kp)
		if ok {
			utils.L().Info("classifier: predicted digit %c (actual %c)", digit, kp.Digit)
		}
	}

	entered := sc.buffer.PINEntered()
	utils.L().Info("digit %d/4 accepted", len(entered))
	sc.pushStatus()

	if len(entered) == 4 {
		sc.beginSettle()
	}
}

// beginSettle freezes digit acceptance and schedules the stop. The verdict
// is computed at this instant; idle logging continues for the whole settle
// window to capture release and hand-return motion.
func (sc *SessionController) beginSettle() {
	if sc.settling {
		return
	}
	sc.settling = true
	sc.pendingVerdict = views.VerdictFromMatch(sc.buffer.PINEntered() == sc.cursor.Target())

	delay := time.Duration(sc.cfg.Session.SettleDelayMs) * time.Millisecond
	if delay <= 0 {
		delay = 800 * time.Millisecond
	}
	// Timer first, then the state flip: anyone observing AwaitingSettle may
	// assume the settle alarm is already armed.
	sc.settleCh = sc.clock.After(delay)
	sc.setState(StateAwaitingSettle)
	utils.L().Info("entry complete (%s), settling for %v", sc.pendingVerdict, delay)
}

func (sc *SessionController) handleSettleExpired() {
	if sc.State() != StateAwaitingSettle {
		return
	}
	sc.settleCh = nil
	sc.finishSession(sc.pendingVerdict)
}

// handleStop processes an external stop. During recording the session is
// finalized with whatever was entered — UNKNOWN unless all four digits were
// in. During settle it finalizes early with the already-computed verdict.
// In-flight exports are unaffected.
func (sc *SessionController) handleStop() {
	switch sc.State() {
	case StateRecording:
		verdict := views.VerdictUnknown
		if len(sc.buffer.PINEntered()) == 4 {
			verdict = views.VerdictFromMatch(sc.buffer.PINEntered() == sc.cursor.Target())
		}
		sc.finishSession(verdict)
	case StateAwaitingSettle:
		sc.settleCh = nil
		sc.finishSession(sc.pendingVerdict)
	default:
		utils.L().Debug("stop ignored in state %s", sc.State())
	}
}

// finishSession appends the stop record, snapshots the buffer and hands the
// frozen copy to the exporter on its own goroutine. The snapshot makes the
// export independent of any later Begin.
func (sc *SessionController) finishSession(verdict views.Verdict) {
	sc.buffer.End()
	snapshot := sc.buffer.Snapshot()
	sc.setState(StateExporting)

	participant := sc.cfg.Session.ParticipantID
	trial := sc.cursor.Trial()
	target := sc.cursor.Target()

	go func() {
		path, err := sc.exporter.Export(snapshot, participant, trial, target, verdict)
		sc.exportCh <- exportResult{path: path, verdict: verdict, records: snapshot, err: err}
	}()
}

func (sc *SessionController) handleExportDone(res exportResult) {
	sc.settling = false
	sc.setState(StateIdle)

	if res.err != nil {
		// Trial and cursor state must not advance; the same target is
		// retried. Transient UI feedback clears after a fixed delay.
		utils.L().Error("export failed: %v", res.err)
		sc.scheduleFeedbackClear()
		return
	}

	if res.verdict == views.VerdictCorrect {
		sc.cursor.Advance()
		utils.L().Info("trial advanced: next trial=%d target=%s", sc.cursor.Trial(), sc.cursor.Target())
	} else {
		utils.L().Info("entry %s — retrying trial %d target=%s", res.verdict, sc.cursor.Trial(), sc.cursor.Target())
	}
	sc.pushStatus()

	if sc.onExported != nil {
		go sc.onExported(res.path, res.records, res.verdict)
	}
}

// scheduleFeedbackClear refreshes the monitor after the failure-display
// window so stale error feedback does not linger on the dashboard.
func (sc *SessionController) scheduleFeedbackClear() {
	if sc.monitor == nil {
		return
	}
	delay := time.Duration(sc.cfg.Session.FeedbackClearMs) * time.Millisecond
	if delay <= 0 {
		delay = 3 * time.Second
	}
	sc.feedbackCh = sc.clock.After(delay)
}

// teardown releases the session on context cancellation. Channel sources are
// stopped by the same context; the buffer is closed cleanly so no record
// corruption results from interrupting the settle delay. An in-flight export
// already holds its snapshot and completes or fails on its own.
func (sc *SessionController) teardown() {
	if s := sc.State(); s == StateRecording || s == StateAwaitingSettle {
		sc.buffer.End()
		utils.L().Warn("session %s interrupted by shutdown (%d records dropped unexported)",
			sc.sessionID, sc.buffer.Len())
	}
	sc.setState(StateIdle)
	utils.L().Info("session controller stopped")
}

func (sc *SessionController) setState(s State) {
	sc.state.Store(int32(s))
	sc.pushStatus()
}

func (sc *SessionController) pushStatus() {
	if sc.monitor == nil {
		return
	}
	sc.monitor(views.MonitorStatus{
		State:       sc.State().String(),
		SessionID:   sc.sessionID,
		TrialNumber: sc.cursor.Trial(),
		TargetPIN:   sc.cursor.Target(),
		SampleCount: sc.buffer.Len(),
		UpdatedMs:   sc.clock.NowMillis(),
	})
}
