package suite

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/pageflow/pkg/config"
	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/driver/mock"
	"github.com/devicelab-dev/pageflow/pkg/report"
	"github.com/devicelab-dev/pageflow/pkg/screen"
	"github.com/devicelab-dev/pageflow/pkg/screen/screentest"
)

func testEnv() *config.Environment {
	return &config.Environment{
		Name:           "test",
		Platform:       "Android",
		Device:         "emulator-5554",
		OSVersion:      "14",
		App:            "/apps/rider.apk",
		AppVersion:     "1.2.3",
		AutomationName: "UiAutomator2",
		Branch:         "main",
		Timeouts:       screentest.Timeouts(),
		Capture:        core.DefaultCaptureConfig(),
	}
}

type fixture struct {
	backend *mock.Backend
	sink    *report.MemorySink
	rep     *report.Reporter
}

func newFixture() *fixture {
	sink := report.NewMemorySink()
	return &fixture{
		backend: mock.New(screentest.Script(screentest.Options{})),
		sink:    sink,
		rep:     report.New(sink),
	}
}

func (f *fixture) suite(t *testing.T, env *config.Environment, workers int, retry RetryPolicy) *Suite {
	t.Helper()
	s, err := New(Config{Env: env, Backend: f.backend, Reporter: f.rep, Workers: workers, Retry: retry})
	require.NoError(t, err)
	return s
}

func onboarding(name string) Scenario {
	return Scenario{Name: name, Run: func(t *T) error {
		_, err := screen.NewOnboardingScreen(t.Deps())
		return err
	}}
}

func recordsNamed(rep *report.Reporter, name string) []report.TestRecord {
	var out []report.TestRecord
	for _, r := range rep.Tests() {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

func hasEvent(rec report.TestRecord, kind report.EventKind, prefix string) bool {
	for _, ev := range rec.Events {
		if ev.Kind == kind && strings.HasPrefix(ev.Message, prefix) {
			return true
		}
	}
	return false
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Config{Backend: mock.New(nil)})
	assert.True(t, core.IsConfigError(err))

	_, err = New(Config{Env: testEnv()})
	assert.True(t, core.IsConfigError(err))

	s, err := New(Config{Env: testEnv(), Backend: mock.New(nil)})
	require.NoError(t, err)
	assert.Equal(t, 1, s.workers)
	assert.Equal(t, LimitRetry{Limit: DefaultRetryLimit}, s.retry)

	_, err = s.Run(context.Background(), nil)
	assert.True(t, core.IsConfigError(err))
}

func TestRun_AllPassInParallel(t *testing.T) {
	f := newFixture()
	s := f.suite(t, testEnv(), 2, NoRetry{})

	res, err := s.Run(context.Background(), []Scenario{onboarding("a"), onboarding("b"), onboarding("c")})
	require.NoError(t, err)

	assert.Equal(t, core.StatusPassed, res.Status)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Passed)
	for _, tr := range res.Tests {
		assert.Equal(t, 1, tr.Attempts)
		assert.Contains(t, []string{"unit-1", "unit-2"}, tr.Unit)
	}

	assert.Equal(t, 3, f.backend.Opens())
	for _, sess := range f.backend.Sessions() {
		assert.Equal(t, 1, sess.Closes())
	}

	tests := f.rep.Tests()
	require.Len(t, tests, 3)
	for _, rec := range tests {
		assert.Equal(t, core.StatusPassed, rec.Status)
		require.NotEmpty(t, rec.Events)
		assert.Equal(t, 1, rec.Events[0].Step)
		last := rec.Events[len(rec.Events)-1]
		assert.Equal(t, report.KindPass, last.Kind)
		assert.Equal(t, "Test passed", last.Message)
		assert.True(t, hasEvent(rec, report.KindInfo, " -------- Environment: test"))
		assert.True(t, hasEvent(rec, report.KindInfo, " -------- Branch name: main"))
		assert.False(t, hasEvent(rec, report.KindScreenshot, "Screenshot of"))
	}

	require.Equal(t, 1, f.sink.Writes())
	assert.Equal(t, 3, f.sink.Last().Summary.Passed)
	assert.Equal(t, testEnv().Summary(), f.sink.Last().Meta)
}

func TestRun_FailureIsIsolated(t *testing.T) {
	f := newFixture()
	s := f.suite(t, testEnv(), 2, NoRetry{})

	broken := Scenario{Name: "home", Run: func(t *T) error {
		_, err := screen.NewHomeRidesScreen(t.Deps())
		return err
	}}
	res, err := s.Run(context.Background(), []Scenario{broken, onboarding("ok")})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, res.Status)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Passed)
	assert.Contains(t, res.Tests[0].Error, "HomeRidesScreen not loaded")

	recs := recordsNamed(f.rep, "home")
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, core.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "HomeRidesScreen not loaded")

	var shot *report.Event
	for i := range rec.Events {
		if rec.Events[i].Message == "Screenshot of failed test" {
			shot = &rec.Events[i]
		}
	}
	require.NotNil(t, shot)
	assert.Equal(t, report.KindScreenshot, shot.Kind)
	assert.NotEmpty(t, shot.Media)

	last := rec.Events[len(rec.Events)-1]
	assert.Equal(t, report.KindFail, last.Kind)
	assert.Equal(t, rec.Error, last.Message)

	assert.Equal(t, core.StatusPassed, recordsNamed(f.rep, "ok")[0].Status)
}

func TestRun_RetriesUntilPass(t *testing.T) {
	f := newFixture()
	s := f.suite(t, testEnv(), 1, LimitRetry{Limit: 2})

	var runs atomic.Int32
	flaky := Scenario{Name: "flaky", Run: func(t *T) error {
		if runs.Add(1) < 3 {
			return core.ErrAssertionFailed.WithMessage("not yet")
		}
		return nil
	}}
	res, err := s.Run(context.Background(), []Scenario{flaky})
	require.NoError(t, err)

	assert.Equal(t, core.StatusPassed, res.Status)
	assert.Equal(t, 3, res.Tests[0].Attempts)

	recs := recordsNamed(f.rep, "flaky")
	require.Len(t, recs, 3)
	for i, rec := range recs[:2] {
		assert.Equal(t, i+1, rec.Attempt)
		assert.Equal(t, core.StatusSkipped, rec.Status)
		assert.True(t, hasEvent(rec, report.KindScreenshot, "Screenshot of skipped test"))
		assert.True(t, hasEvent(rec, report.KindInfo, "Test failure skipped, retry test"))
	}
	assert.Equal(t, 3, recs[2].Attempt)
	assert.Equal(t, core.StatusPassed, recs[2].Status)
}

func TestRun_RetryLimitReached(t *testing.T) {
	f := newFixture()
	s := f.suite(t, testEnv(), 1, LimitRetry{Limit: 2})

	always := Scenario{Name: "always", Run: func(t *T) error {
		return t.Assert(false, "never true")
	}}
	res, err := s.Run(context.Background(), []Scenario{always})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, res.Status)
	assert.Equal(t, 3, res.Tests[0].Attempts)
	recs := recordsNamed(f.rep, "always")
	require.Len(t, recs, 3)
	assert.Equal(t, core.StatusFailed, recs[2].Status)
	assert.Equal(t, "never true", recs[2].Error)
}

func TestRun_ConfigErrorsAreNotRetried(t *testing.T) {
	f := newFixture()
	s := f.suite(t, testEnv(), 1, LimitRetry{Limit: 2})
	sc := Scenario{Name: "bad-data", Run: func(t *T) error {
		return core.ErrInvalidConfig.WithMessage("unknown region ZZ")
	}}

	res, err := s.Run(context.Background(), []Scenario{sc})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Tests[0].Attempts)
	assert.Equal(t, core.StatusFailed, res.Tests[0].Status)

	recs := recordsNamed(f.rep, "bad-data")
	require.Len(t, recs, 1)
	assert.True(t, hasEvent(recs[0], report.KindScreenshot, "Screenshot of failed test"))
}

func TestRun_ConfigErrorAbortsBeforeSessions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(env *config.Environment)
	}{
		{"unknown driver mode", func(env *config.Environment) { env.DriverMode = "grid" }},
		{"missing device", func(env *config.Environment) { env.Device = "" }},
		{"non-scalar capability", func(env *config.Environment) {
			env.Capabilities = map[string]interface{}{"appium:options": []string{"a"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			env := testEnv()
			tt.mutate(env)
			s := f.suite(t, env, 3, NoRetry{})

			res, err := s.Run(context.Background(), []Scenario{onboarding("a"), onboarding("b"), onboarding("c")})
			require.Error(t, err)
			assert.True(t, core.IsConfigError(err), "got %v", err)

			var loading *core.LoadingError
			assert.False(t, errors.As(err, &loading))
			assert.Nil(t, res)
			assert.Empty(t, f.rep.Tests())
			assert.Empty(t, f.backend.Sessions())
			assert.Zero(t, f.sink.Writes())
		})
	}
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	f := newFixture()
	s := f.suite(t, testEnv(), 1, NoRetry{})

	res, err := s.Run(context.Background(), []Scenario{{Name: "boom", Run: func(*T) error { panic("boom") }}})
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, res.Tests[0].Status)
	assert.Contains(t, res.Tests[0].Error, "panicked: boom")
}

func TestRun_CancelledSkipsRemaining(t *testing.T) {
	f := newFixture()
	s := f.suite(t, testEnv(), 2, LimitRetry{Limit: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx, []Scenario{onboarding("a"), onboarding("b")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	require.NotNil(t, res)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, core.StatusPassed, res.Status)
	assert.Zero(t, f.backend.Opens())
	assert.Equal(t, 1, f.sink.Writes())
	for _, rec := range f.rep.Tests() {
		assert.Equal(t, core.StatusSkipped, rec.Status)
	}
}

func TestLimitRetry(t *testing.T) {
	p := LimitRetry{Limit: 2}
	flaky := core.ErrElementNotFound

	assert.True(t, p.ShouldRetry("x", 1, flaky))
	assert.True(t, p.ShouldRetry("x", 2, flaky))
	assert.False(t, p.ShouldRetry("x", 3, flaky))
	assert.False(t, p.ShouldRetry("x", 1, nil))
	assert.False(t, p.ShouldRetry("x", 1, core.ErrUnknownMode))
	assert.False(t, NoRetry{}.ShouldRetry("x", 1, flaky))
}

func TestT_Assertions(t *testing.T) {
	tt := &T{}
	assert.NoError(t, tt.Assert(true, "fine"))
	assert.ErrorIs(t, tt.Assert(false, "broken"), core.ErrAssertionFailed)

	assert.NoError(t, tt.Equal("a", "a", "same"))
	err := tt.Equal("got", "want", "title")
	require.ErrorIs(t, err, core.ErrAssertionFailed)
	assert.Contains(t, err.Error(), "title (-want +got)")
	assert.Equal(t, core.ErrCategoryAssertion, core.CategoryOf(err))
}

func TestScenario_HasTag(t *testing.T) {
	sc := Scenario{Tags: []string{"smoke"}}
	assert.True(t, sc.HasTag("smoke"))
	assert.False(t, sc.HasTag("full-regression"))
}
