package suite

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/devicelab-dev/pageflow/pkg/config"
	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/report"
	"github.com/devicelab-dev/pageflow/pkg/screen"
	"github.com/devicelab-dev/pageflow/pkg/session"
)

// Scenario is one end-to-end test.
type Scenario struct {
	Name string
	Tags []string
	Run  func(t *T) error
}

// HasTag reports whether the scenario carries tag.
func (s Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// T is what a scenario sees of the running attempt.
type T struct {
	ctx      context.Context
	unit     string
	handle   *session.Handle
	steps    *report.Steps
	timeouts config.Timeouts
}

// Context is cancelled when the suite is interrupted.
func (t *T) Context() context.Context { return t.ctx }

// Unit returns the execution unit running the scenario.
func (t *T) Unit() string { return t.unit }

// Deps returns the dependencies for the first node of a flow.
func (t *T) Deps() screen.Deps {
	return screen.Deps{
		Ctx:      t.ctx,
		Driver:   t.handle,
		Steps:    t.steps,
		Timeouts: t.timeouts,
	}
}

// Info records an informational step.
func (t *T) Info(message string) {
	t.steps.Info(message)
}

// Assert fails with message unless cond holds.
func (t *T) Assert(cond bool, message string) error {
	if cond {
		return nil
	}
	return core.ErrAssertionFailed.WithMessage(message)
}

// Equal fails with message and a diff unless got equals want.
func (t *T) Equal(got, want interface{}, message string) error {
	if diff := cmp.Diff(want, got); diff != "" {
		return core.ErrAssertionFailed.WithMessage(fmt.Sprintf("%s (-want +got):\n%s", message, diff))
	}
	return nil
}
