package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/oraclemonitor/internal/monitor"
	"github.com/hamed0406/oraclemonitor/internal/notify"
	"github.com/hamed0406/oraclemonitor/internal/repo/memory"
	"github.com/hamed0406/oraclemonitor/internal/source"
)

// ---- fakes ----

type reading struct {
	n   int64
	err error
}

// scriptSource replays readings; once exhausted it repeats the last one.
type scriptSource struct {
	mu    sync.Mutex
	steps []reading
	calls int
}

func (s *scriptSource) Fetch(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i].n, s.steps[i].err
}

func (s *scriptSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func counts(ns ...int64) *scriptSource {
	src := &scriptSource{}
	for _, n := range ns {
		src.steps = append(src.steps, reading{n: n})
	}
	return src
}

type memNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *memNotifier) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	return m.err
}

// fakeClock advances by step every time it is read.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func cfg() RunnerConfig {
	return RunnerConfig{
		Policy: monitor.Policy{
			Tolerance:       5,
			TolerancePeriod: time.Hour,
			Cooldown:        300 * time.Second,
		},
		Interval:  10 * time.Second,
		Validator: "kujiravaloper1test",
	}
}

func newTestRunner(src source.CounterSource, n notify.Notifier, rc RunnerConfig) (*Runner, *memory.Store, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := memory.New(10)
	r := NewRunner(zap.New(core), src, n, store, rc)
	clk := &fakeClock{now: start, step: rc.Interval}
	r.Now = clk.Now
	return r, store, logs
}

func tickAll(t *testing.T, r *Runner, n int) []error {
	t.Helper()
	errs := make([]error, 0, n)
	for i := 0; i < n; i++ {
		errs = append(errs, r.Tick(context.Background()))
	}
	return errs
}

// ---- tests ----

func TestRunner_ScenarioA_SingleAlertAtThreshold(t *testing.T) {
	nt := &memNotifier{}
	r, store, logs := newTestRunner(counts(100, 100, 104, 106), nt, cfg())

	for _, err := range tickAll(t, r, 4) {
		require.NoError(t, err)
	}

	require.Equal(t, []string{notify.AlertText(6)}, nt.sent)
	st, seeded := r.State()
	require.True(t, seeded)
	require.Equal(t, int64(106), st.Baseline)
	require.Equal(t, 1, logs.FilterMessage("alert_sent").Len())

	snap, _ := store.Snapshot(context.Background())
	require.True(t, snap.Healthy())
	require.Equal(t, int64(4), snap.Ticks)
	require.Equal(t, int64(1), snap.Alerts)

	alerts, _ := store.Alerts(context.Background(), 0)
	require.Len(t, alerts, 1)
	require.True(t, alerts[0].Delivered)
	require.Equal(t, int64(6), alerts[0].MissDifference)
}

func TestRunner_ScenarioB_CooldownSuppressesSecondAlert(t *testing.T) {
	nt := &memNotifier{}
	r, store, logs := newTestRunner(counts(100, 106, 112), nt, cfg())

	tickAll(t, r, 3)

	require.Len(t, nt.sent, 1)
	require.Equal(t, 1, logs.FilterMessage("alert_skipped_cooldown").Len())
	snap, _ := store.Snapshot(context.Background())
	require.Equal(t, int64(1), snap.Suppressed)
}

func TestRunner_ScenarioD_FetchErrorLeavesStateUntouched(t *testing.T) {
	boom := errors.New("connection refused")
	src := &scriptSource{steps: []reading{{n: 100}, {n: 104}, {err: boom}, {n: 106}}}
	nt := &memNotifier{}
	r, store, _ := newTestRunner(src, nt, cfg())

	tickAll(t, r, 2)
	before, _ := r.State()

	err := r.Tick(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.ErrorIs(t, err, boom)

	after, _ := r.State()
	require.Equal(t, before, after)

	snap, _ := store.Snapshot(context.Background())
	require.False(t, snap.Healthy())
	require.Equal(t, int64(1), snap.FetchErrors)

	// next tick carries on as if the failed one never happened
	require.NoError(t, r.Tick(context.Background()))
	require.Equal(t, []string{notify.AlertText(6)}, nt.sent)
	snap, _ = store.Snapshot(context.Background())
	require.True(t, snap.Healthy())
}

func TestRunner_NotifyFailureStillAdvancesCooldown(t *testing.T) {
	nt := &memNotifier{err: errors.New("telegram: 502 Bad Gateway")}
	r, store, _ := newTestRunner(counts(100, 106, 113), nt, cfg())

	require.NoError(t, r.Tick(context.Background()))
	err := r.Tick(context.Background())
	var ne *NotifyError
	require.ErrorAs(t, err, &ne)
	require.Equal(t, int64(6), ne.MissDifference)

	st, _ := r.State()
	require.Equal(t, int64(106), st.Baseline)
	require.False(t, st.LastAlert.IsZero())

	// within cooldown: no retry storm
	require.NoError(t, r.Tick(context.Background()))
	require.Len(t, nt.sent, 1)

	alerts, _ := store.Alerts(context.Background(), 0)
	require.Len(t, alerts, 1)
	require.False(t, alerts[0].Delivered)
	require.Contains(t, alerts[0].Error, "502")
}

func TestRunner_CounterDecreaseIsTolerated(t *testing.T) {
	nt := &memNotifier{}
	r, _, logs := newTestRunner(counts(500, 2, 3), nt, cfg())

	for _, err := range tickAll(t, r, 3) {
		require.NoError(t, err)
	}
	require.Empty(t, nt.sent)
	require.Equal(t, 1, logs.FilterMessage("miss_counter_decreased").Len())
}

func TestRunner_RunOnce_SeedsThenTicksOnce(t *testing.T) {
	src := counts(100, 106)
	nt := &memNotifier{}
	rc := cfg()
	rc.Once = true
	r, _, _ := newTestRunner(src, nt, rc)

	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, 2, src.Calls())
	require.Len(t, nt.sent, 1)
}

func TestRunner_RunOnce_ReturnsTickError(t *testing.T) {
	src := &scriptSource{steps: []reading{{n: 1}, {err: errors.New("bad gateway")}}}
	rc := cfg()
	rc.Once = true
	r, _, logs := newTestRunner(src, &memNotifier{}, rc)

	err := r.Run(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, 1, logs.FilterMessage("tick_fetch_error").Len())
}

func TestRunner_Run_LoopsUntilCancelled(t *testing.T) {
	src := &scriptSource{steps: []reading{{err: errors.New("node syncing")}, {n: 10}, {n: 11}}}
	rc := cfg()
	rc.Interval = time.Millisecond
	core, logs := observer.New(zapcore.InfoLevel)
	r := NewRunner(zap.New(core), src, &memNotifier{}, nil, rc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return src.Calls() >= 5 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.Equal(t, 1, logs.FilterMessage("tick_fetch_error").Len())
	require.Equal(t, 1, logs.FilterMessage("monitor_seeded").Len())
	require.Equal(t, 1, logs.FilterMessage("monitor_stopped").Len())
}
