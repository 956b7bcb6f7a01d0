// Package screen implements the page objects of the rider app.
//
// Every node waits for its anchor element when it is constructed, records a
// load-time screenshot, and exposes actions that either stay on the node or
// return the node the app navigates to. A node that fails to load returns a
// *core.LoadingError instead.
package screen

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pageflow/pkg/config"
	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/logger"
	"github.com/devicelab-dev/pageflow/pkg/report"
	"github.com/devicelab-dev/pageflow/pkg/wait"
)

// Driver is what a node needs from the session. *session.Handle satisfies it.
type Driver interface {
	Perform(cmd core.Command) (*core.CommandResult, error)
	Screenshot() ([]byte, error)
}

// Deps is passed from node to node along a flow.
type Deps struct {
	Ctx      context.Context
	Driver   Driver
	Steps    *report.Steps
	Timeouts config.Timeouts
}

// Kind separates full screens from widgets layered on top of them.
type Kind int

const (
	KindScreen Kind = iota
	KindWidget
)

func (k Kind) String() string {
	if k == KindWidget {
		return "widget"
	}
	return "screen"
}

// Surface holds the wait, act and gesture helpers shared by all nodes.
type Surface struct {
	deps    Deps
	name    string
	kind    Kind
	timeout time.Duration
	log     *logrus.Entry
}

func newSurface(d Deps, name string, kind Kind) *Surface {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Timeouts == (config.Timeouts{}) {
		d.Timeouts = config.DefaultTimeouts()
	}
	unit := ""
	if d.Steps != nil {
		unit = d.Steps.Unit()
	}
	s := &Surface{
		deps: d,
		name: name,
		kind: kind,
		log:  logger.ForUnit(unit).WithField("node", name),
	}
	s.timeout = d.Timeouts.Screen
	if kind == KindWidget {
		s.timeout = d.Timeouts.Widget
	}
	return s
}

// Name returns the node name used in steps and errors.
func (s *Surface) Name() string { return s.name }

// Kind returns whether the node is a screen or a widget.
func (s *Surface) Kind() Kind { return s.kind }

// Deps returns the dependencies to hand to the next node.
func (s *Surface) Deps() Deps { return s.deps }

// Step records an informational step.
func (s *Surface) Step(message string) {
	s.log.Info(message)
	if s.deps.Steps != nil {
		s.deps.Steps.Info(message)
	}
}

// Screenshot records a step with the current screen attached.
func (s *Surface) Screenshot(message string) {
	if s.deps.Steps != nil {
		s.deps.Steps.Screenshot(message)
	}
}

// WaitLoaded blocks until anchor is visible or the load timeout expires.
func (s *Surface) WaitLoaded(anchor core.Locator) error {
	start := time.Now()
	if _, err := s.WaitVisible(anchor, s.timeout); err != nil {
		s.log.WithError(err).Warnf("%s %s did not load", s.kind, s.name)
		// A session that cannot be configured is not a load failure.
		if core.IsConfigError(err) {
			return err
		}
		return core.NewLoadingError(s.name+" not loaded", err)
	}
	s.Screenshot(fmt.Sprintf("%s load time %d milliseconds", s.name, time.Since(start).Milliseconds()))
	return nil
}

func (s *Surface) perform(cmd core.Command) (*core.CommandResult, error) {
	return s.deps.Driver.Perform(cmd)
}

func (s *Surface) policy(timeout time.Duration) wait.Policy {
	return wait.Policy{Interval: s.deps.Timeouts.Poll, Timeout: timeout}
}

// pollErr stops polling on errors that more time will not fix.
func pollErr(err error) error {
	switch core.CategoryOf(err) {
	case core.ErrCategoryConfig, core.ErrCategoryConnection:
		return wait.Fatal(err)
	}
	return err
}

func (s *Surface) present(loc core.Locator) func() (string, error) {
	return func() (string, error) {
		res, err := s.perform(core.Command{Kind: core.CmdFindElement, Locator: loc})
		if err != nil {
			return "", pollErr(err)
		}
		return res.ElementID, nil
	}
}

func (s *Surface) visible(loc core.Locator) func() (string, error) {
	return func() (string, error) {
		res, err := s.perform(core.Command{Kind: core.CmdIsDisplayed, Locator: loc})
		if err != nil {
			return "", pollErr(err)
		}
		if !res.Bool {
			return "", core.ErrElementNotVisible.WithMessage(loc.String() + " is not displayed")
		}
		return res.ElementID, nil
	}
}

func (s *Surface) clickable(loc core.Locator) func() (string, error) {
	isVisible := s.visible(loc)
	return func() (string, error) {
		id, err := isVisible()
		if err != nil {
			return "", err
		}
		res, err := s.perform(core.Command{Kind: core.CmdIsEnabled, ElementID: id})
		if err != nil {
			return "", pollErr(err)
		}
		if !res.Bool {
			return "", core.ErrElementNotVisible.WithMessage(loc.String() + " is not enabled")
		}
		return id, nil
	}
}

// WaitPresent waits until loc is in the hierarchy and returns its element id.
func (s *Surface) WaitPresent(loc core.Locator, timeout time.Duration) (string, error) {
	return wait.Until(s.deps.Ctx, s.policy(timeout), s.present(loc))
}

// WaitVisible waits until loc is displayed and returns its element id.
func (s *Surface) WaitVisible(loc core.Locator, timeout time.Duration) (string, error) {
	return wait.Until(s.deps.Ctx, s.policy(timeout), s.visible(loc))
}

// WaitClickable waits until loc is displayed and enabled.
func (s *Surface) WaitClickable(loc core.Locator, timeout time.Duration) (string, error) {
	return wait.Until(s.deps.Ctx, s.policy(timeout), s.clickable(loc))
}

// Tap waits for loc to become clickable and clicks it.
func (s *Surface) Tap(loc core.Locator) error {
	id, err := s.WaitClickable(loc, s.timeout)
	if err != nil {
		return fmt.Errorf("tap %s on %s: %w", loc, s.name, err)
	}
	if _, err := s.perform(core.Command{Kind: core.CmdClick, ElementID: id}); err != nil {
		return fmt.Errorf("tap %s on %s: %w", loc, s.name, err)
	}
	return nil
}

// TypeInto replaces the text of the field at loc.
func (s *Surface) TypeInto(loc core.Locator, text string) error {
	id, err := s.WaitVisible(loc, s.timeout)
	if err != nil {
		return fmt.Errorf("type into %s on %s: %w", loc, s.name, err)
	}
	return s.typeInto(id, text)
}

func (s *Surface) typeInto(id, text string) error {
	if _, err := s.perform(core.Command{Kind: core.CmdClear, ElementID: id}); err != nil {
		return fmt.Errorf("clear %s: %w", id, err)
	}
	if _, err := s.perform(core.Command{Kind: core.CmdSendKeys, ElementID: id, Text: text}); err != nil {
		return fmt.Errorf("send keys to %s: %w", id, err)
	}
	return nil
}

// TextOf waits for loc to be displayed and returns its text.
func (s *Surface) TextOf(loc core.Locator) (string, error) {
	id, err := s.WaitVisible(loc, s.timeout)
	if err != nil {
		return "", fmt.Errorf("read %s on %s: %w", loc, s.name, err)
	}
	res, err := s.perform(core.Command{Kind: core.CmdGetText, ElementID: id})
	if err != nil {
		return "", fmt.Errorf("read %s on %s: %w", loc, s.name, err)
	}
	return res.Text, nil
}

// IsDisplayed reports whether loc becomes visible within the node timeout.
func (s *Surface) IsDisplayed(loc core.Locator) bool {
	if _, err := s.WaitVisible(loc, s.timeout); err != nil {
		s.log.WithError(err).Debugf("%s not displayed", loc)
		return false
	}
	return true
}

// HideKeyboard dismisses the soft keyboard. Failures are only logged.
func (s *Surface) HideKeyboard() {
	if _, err := s.perform(core.Command{Kind: core.CmdHideKeyboard}); err != nil {
		s.log.WithError(err).Debug("hide keyboard")
	}
}

// FindAll returns the ids of every element matching loc, possibly none.
func (s *Surface) FindAll(loc core.Locator) ([]string, error) {
	res, err := s.perform(core.Command{Kind: core.CmdFindElements, Locator: loc})
	if err != nil {
		return nil, fmt.Errorf("find %s on %s: %w", loc, s.name, err)
	}
	return res.ElementIDs, nil
}
