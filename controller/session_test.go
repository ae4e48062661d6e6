package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
	"github.com/jithu2111/SenseKey/views"
)

// fakeClock drives the settle delay deterministically: After hands out
// channels the test fires explicitly.
type fakeClock struct {
	mu     sync.Mutex
	ms     int64
	timers []chan time.Time
}

func (c *fakeClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

func (c *fakeClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	c.timers = append(c.timers, ch)
	c.mu.Unlock()
	return ch
}

func (c *fakeClock) advance(ms int64) {
	c.mu.Lock()
	c.ms += ms
	c.mu.Unlock()
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// fire releases every pending timer.
func (c *fakeClock) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.timers {
		select {
		case ch <- time.Time{}:
		default:
		}
	}
	c.timers = nil
}

type exportCall struct {
	records     []models.SensorRecord
	participant string
	trial       int
	target      string
	verdict     views.Verdict
}

type fakeExporter struct {
	mu    sync.Mutex
	err   error
	gate  chan struct{} // when non-nil, Export blocks until closed
	calls []exportCall
}

func (f *fakeExporter) Export(records []models.SensorRecord, participant string, trial int, target string, verdict views.Verdict) (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, exportCall{
		records:     records,
		participant: participant,
		trial:       trial,
		target:      target,
		verdict:     verdict,
	})
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("fake_%d.csv", len(f.calls)), nil
}

func (f *fakeExporter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExporter) call(i int) exportCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type sessionHarness struct {
	sc      *SessionController
	clock   *fakeClock
	exp     *fakeExporter
	sources *SourcesController
	obs     chan int
}

// statusLog is a thread-safe monitor sink capturing every status push.
type statusLog struct {
	mu       sync.Mutex
	statuses []views.MonitorStatus
}

func (l *statusLog) push(s views.MonitorStatus) {
	l.mu.Lock()
	l.statuses = append(l.statuses, s)
	l.mu.Unlock()
}

func (l *statusLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.statuses)
}

func (l *statusLog) last() views.MonitorStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statuses[len(l.statuses)-1]
}

func newSessionHarness(t *testing.T, exp *fakeExporter) *sessionHarness {
	return newMonitoredHarness(t, exp, nil)
}

func newMonitoredHarness(t *testing.T, exp *fakeExporter, monitor func(views.MonitorStatus)) *sessionHarness {
	t.Helper()

	cfg := &utils.SessionConfig{}
	cfg.Session.ParticipantID = "P01"
	cfg.Session.TargetPINs = []string{"1478", "2580"}
	cfg.Session.SettleDelayMs = 800
	cfg.Session.MinRecordIntervalMs = 10
	cfg.Session.FeedbackClearMs = 100

	clock := &fakeClock{ms: 1_000_000}
	if exp == nil {
		exp = &fakeExporter{}
	}

	sc := NewSessionController(cfg, exp, clock, nil)
	if monitor != nil {
		sc.SetMonitor(monitor)
	}
	obs := make(chan int, 256)
	sc.SetObserver(obs)

	sources := &SourcesController{
		AccelCh:    make(chan models.AccelSample, 16),
		GyroCh:     make(chan models.GyroSample, 16),
		RotationCh: make(chan models.RotationSample, 16),
		KeyCh:      make(chan models.KeyPress, 16),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sc.Run(ctx, sources)

	return &sessionHarness{sc: sc, clock: clock, exp: exp, sources: sources, obs: obs}
}

func (h *sessionHarness) waitState(t *testing.T, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.sc.State() == want },
		time.Second, 2*time.Millisecond, "state never reached %s", want)
}

// pressDigits sends one key press per digit, advancing the fake clock
// between presses.
func (h *sessionHarness) pressDigits(pin string) {
	for i := 0; i < len(pin); i++ {
		h.clock.advance(150)
		h.sc.KeyPress(models.KeyPress{Digit: pin[i], Position: i})
	}
}

// feedAccel pushes one accel sample and waits for the buffer to register it.
func (h *sessionHarness) feedAccel(t *testing.T, s models.AccelSample) {
	t.Helper()
	before := len(h.obs)
	h.sources.AccelCh <- s
	require.Eventually(t, func() bool { return len(h.obs) > before },
		time.Second, time.Millisecond, "sample never appended")
}

func TestSessionFullCorrectTrial(t *testing.T) {
	h := newSessionHarness(t, nil)

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)

	h.clock.advance(20)
	h.feedAccel(t, models.AccelSample{X: 0.1, Z: 9.8})

	h.pressDigits("1478")
	h.waitState(t, StateAwaitingSettle)

	// Idle logging continues during the settle window.
	h.clock.advance(50)
	h.feedAccel(t, models.AccelSample{X: 0.2, Z: 9.8})

	h.clock.advance(800)
	h.clock.fire()
	h.waitState(t, StateIdle)

	require.Equal(t, 1, h.exp.callCount())
	call := h.exp.call(0)
	assert.Equal(t, "P01", call.participant)
	assert.Equal(t, 1, call.trial)
	assert.Equal(t, "1478", call.target)
	assert.Equal(t, views.VerdictCorrect, call.verdict)

	recs := call.records
	require.GreaterOrEqual(t, len(recs), 7)
	assert.Equal(t, models.EventRecordingStart, recs[0].Event)
	assert.Equal(t, models.EventRecordingStop, recs[len(recs)-1].Event)

	// The settle-window idle sits between the final press and the stop.
	var sawIdleAfterLastPress bool
	lastPress := -1
	for i, r := range recs {
		if r.Event == models.EventButtonPress {
			lastPress = i
		}
	}
	require.GreaterOrEqual(t, lastPress, 0)
	for _, r := range recs[lastPress+1 : len(recs)-1] {
		if r.Event == models.EventIdle {
			sawIdleAfterLastPress = true
		}
	}
	assert.True(t, sawIdleAfterLastPress, "settle period should keep logging idle records")

	final := recs[lastPress]
	require.NotNil(t, final.Press)
	assert.Equal(t, byte('8'), final.Press.Digit)
	assert.Equal(t, 3, final.Press.Position)
	assert.True(t, final.IsCorrect)

	var last int64 = -1
	for _, r := range recs {
		assert.GreaterOrEqual(t, r.TimeFromStartMs, last)
		last = r.TimeFromStartMs
	}

	t.Run("cursor advanced on correct entry", func(t *testing.T) {
		assert.Equal(t, 2, h.sc.Trial())
		assert.Equal(t, "2580", h.sc.Target())
	})
}

func TestSessionWrongEntryRetriesSameTrial(t *testing.T) {
	h := newSessionHarness(t, nil)

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)

	h.pressDigits("1479") // mismatch on the final digit
	h.waitState(t, StateAwaitingSettle)
	h.clock.fire()
	h.waitState(t, StateIdle)

	require.Equal(t, 1, h.exp.callCount())
	assert.Equal(t, views.VerdictWrong, h.exp.call(0).verdict)

	assert.Equal(t, 1, h.sc.Trial(), "trial number unchanged after a wrong entry")
	assert.Equal(t, "1478", h.sc.Target(), "same target retried")
}

func TestSessionExportFailureFreezesCursor(t *testing.T) {
	h := newSessionHarness(t, &fakeExporter{err: errors.New("disk full")})

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)
	h.pressDigits("1478")
	h.waitState(t, StateAwaitingSettle)
	h.clock.fire()
	h.waitState(t, StateIdle)

	assert.Equal(t, 1, h.sc.Trial(), "cursor must not advance on export failure")
	assert.Equal(t, "1478", h.sc.Target())

	t.Run("engine is retry-capable", func(t *testing.T) {
		require.NoError(t, h.sc.StartRecording())
		h.waitState(t, StateRecording)
	})
}

func TestSessionExportFailureFeedbackClears(t *testing.T) {
	log := &statusLog{}
	h := newMonitoredHarness(t, &fakeExporter{err: errors.New("disk full")}, log.push)

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)
	h.pressDigits("1478")
	h.waitState(t, StateAwaitingSettle)
	h.clock.fire()
	h.waitState(t, StateIdle)

	// The failure armed the feedback-clear timer on the fake clock.
	require.Eventually(t, func() bool { return h.clock.pending() > 0 },
		time.Second, time.Millisecond, "feedback-clear timer never armed")

	before := log.count()
	require.Positive(t, before, "state transitions should have pushed statuses")

	h.clock.fire()
	require.Eventually(t, func() bool { return log.count() > before },
		time.Second, time.Millisecond, "no status refresh after the feedback window")

	refreshed := log.last()
	assert.Equal(t, StateIdle.String(), refreshed.State)
	assert.Equal(t, 1, refreshed.TrialNumber, "failure must leave the cursor in the refreshed status")
	assert.Equal(t, "1478", refreshed.TargetPIN)
}

func TestSessionDuplicateStartRejected(t *testing.T) {
	h := newSessionHarness(t, nil)

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)

	err := h.sc.StartRecording()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in progress")
}

func TestSessionSettleSuppressesExtraInput(t *testing.T) {
	h := newSessionHarness(t, nil)

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)
	h.pressDigits("1478")
	h.waitState(t, StateAwaitingSettle)

	// Duplicate completion / stray presses while settling.
	h.sc.KeyPress(models.KeyPress{Digit: '9', Position: 3})
	h.sc.KeyPress(models.KeyPress{Digit: '9', Position: 3})

	h.clock.fire()
	h.waitState(t, StateIdle)

	recs := h.exp.call(0).records
	presses := 0
	for _, r := range recs {
		if r.Event == models.EventButtonPress {
			presses++
		}
	}
	assert.Equal(t, 4, presses, "stray input during settle must not be recorded")
	assert.Equal(t, 1, h.exp.callCount(), "completion must not be processed twice")
}

func TestSessionExternalStopExportsUnknown(t *testing.T) {
	h := newSessionHarness(t, nil)

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)

	h.pressDigits("14") // only two digits in
	h.sc.StopRecording()
	h.waitState(t, StateIdle)

	require.Equal(t, 1, h.exp.callCount())
	call := h.exp.call(0)
	assert.Equal(t, views.VerdictUnknown, call.verdict)
	assert.Equal(t, models.EventRecordingStop, call.records[len(call.records)-1].Event)
	assert.Equal(t, 1, h.sc.Trial(), "partial entry never advances the cursor")
}

func TestSessionNoInterleaveAcrossSessions(t *testing.T) {
	gate := make(chan struct{})
	h := newSessionHarness(t, &fakeExporter{gate: gate})

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)
	h.pressDigits("1478")
	h.waitState(t, StateAwaitingSettle)
	h.clock.fire()
	h.waitState(t, StateExporting)

	t.Run("start is rejected while the export is in flight", func(t *testing.T) {
		require.Error(t, h.sc.StartRecording())
	})

	close(gate)
	h.waitState(t, StateIdle)

	require.NoError(t, h.sc.StartRecording())
	h.waitState(t, StateRecording)
	h.pressDigits("2581") // wrong on purpose, second target is 2580
	h.waitState(t, StateAwaitingSettle)
	h.clock.fire()
	h.waitState(t, StateIdle)

	require.Equal(t, 2, h.exp.callCount())
	first, second := h.exp.call(0), h.exp.call(1)

	require.NotEmpty(t, first.records)
	require.NotEmpty(t, second.records)
	assert.NotEqual(t, first.records[0].SessionID, second.records[0].SessionID)

	for _, r := range first.records {
		assert.Equal(t, first.records[0].SessionID, r.SessionID)
	}
	for _, r := range second.records {
		assert.Equal(t, second.records[0].SessionID, r.SessionID)
	}
}
