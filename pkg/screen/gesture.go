package screen

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/wait"
)

// Fractions of the window used to place swipes.
const (
	anchorFrac    = 0.5
	startFrac     = 0.5
	newStartFrac  = 0.8
	longStartFrac = 0.95
	endFrac       = 0.1

	scrollUpFrom = 0.3
	scrollUpTo   = 0.8
)

// Swipe is a single press-move-release gesture.
type Swipe struct {
	From     core.Point
	To       core.Point
	Duration time.Duration
}

func at(total int, frac float64) int {
	return int(float64(total) * frac)
}

// verticalSwipe moves along the vertical centre line between two fractions
// of the height.
func verticalSwipe(size core.Size, from, to float64, d time.Duration) Swipe {
	x := at(size.Width, anchorFrac)
	return Swipe{
		From:     core.Point{X: x, Y: at(size.Height, from)},
		To:       core.Point{X: x, Y: at(size.Height, to)},
		Duration: d,
	}
}

// swipeWithin scrolls down inside b.
func swipeWithin(b core.Bounds, d time.Duration) Swipe {
	x := int(float64(b.Width+b.X) * anchorFrac)
	return Swipe{
		From:     core.Point{X: x, Y: at(b.Height, startFrac) + b.Y},
		To:       core.Point{X: x, Y: at(b.Height, endFrac) + b.Y},
		Duration: d,
	}
}

// horizontalSwipe moves along row y between two fractions of the width.
func horizontalSwipe(size core.Size, y int, from, to float64, d time.Duration) Swipe {
	return Swipe{
		From:     core.Point{X: at(size.Width, from), Y: y},
		To:       core.Point{X: at(size.Width, to), Y: y},
		Duration: d,
	}
}

// pressDuration is how long a swipe holds before moving.
func (s *Surface) pressDuration() time.Duration {
	if s.kind == KindWidget {
		return s.deps.Timeouts.LongPress
	}
	return s.deps.Timeouts.Press
}

// WindowSize returns the current viewport size.
func (s *Surface) WindowSize() (core.Size, error) {
	res, err := s.perform(core.Command{Kind: core.CmdWindowSize})
	if err != nil {
		return core.Size{}, fmt.Errorf("window size: %w", err)
	}
	return res.Size, nil
}

// Swipe performs sw.
func (s *Surface) Swipe(sw Swipe) error {
	s.log.Debugf("swipe (%d,%d) -> (%d,%d) in %s", sw.From.X, sw.From.Y, sw.To.X, sw.To.Y, sw.Duration)
	_, err := s.perform(core.Command{Kind: core.CmdSwipe, From: sw.From, To: sw.To, Duration: sw.Duration})
	if err != nil {
		return fmt.Errorf("swipe on %s: %w", s.name, err)
	}
	return nil
}

func (s *Surface) swipeWindow(build func(core.Size) Swipe) error {
	size, err := s.WindowSize()
	if err != nil {
		return err
	}
	return s.Swipe(build(size))
}

// TapCenter taps the middle of the window.
func (s *Surface) TapCenter() error {
	size, err := s.WindowSize()
	if err != nil {
		return err
	}
	p := core.Bounds{Width: size.Width, Height: size.Height}.Center()
	if _, err := s.perform(core.Command{Kind: core.CmdTap, From: p, To: p}); err != nil {
		return fmt.Errorf("tap center on %s: %w", s.name, err)
	}
	return nil
}

// ScrollDown scrolls half a window.
func (s *Surface) ScrollDown() error {
	return s.swipeWindow(func(size core.Size) Swipe {
		return verticalSwipe(size, startFrac, endFrac, s.pressDuration())
	})
}

// LongScroll scrolls almost a full window.
func (s *Surface) LongScroll() error {
	return s.swipeWindow(func(size core.Size) Swipe {
		return verticalSwipe(size, longStartFrac, endFrac, s.pressDuration())
	})
}

// ScrollUp brings earlier content into view.
func (s *Surface) ScrollUp() error {
	return s.swipeWindow(func(size core.Size) Swipe {
		return verticalSwipe(size, scrollUpFrom, scrollUpTo, time.Second)
	})
}

// ScrollDownWithin scrolls inside the container at loc.
func (s *Surface) ScrollDownWithin(loc core.Locator) error {
	id, err := s.WaitPresent(loc, s.deps.Timeouts.Element)
	if err != nil {
		return fmt.Errorf("scroll within %s: %w", loc, err)
	}
	res, err := s.perform(core.Command{Kind: core.CmdGetRect, ElementID: id})
	if err != nil {
		return fmt.Errorf("scroll within %s: %w", loc, err)
	}
	return s.Swipe(swipeWithin(res.Bounds, s.pressDuration()))
}

// SwipeLeftOnLast swipes the last element matching loc out to the left.
func (s *Surface) SwipeLeftOnLast(loc core.Locator) error {
	ids, err := s.FindAll(loc)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return core.ErrElementNotFound.WithMessage("nothing to swipe at " + loc.String())
	}
	return s.swipeRow(ids[len(ids)-1], anchorFrac, 0)
}

// SwipeRightOn swipes the element at loc to the right.
func (s *Surface) SwipeRightOn(loc core.Locator) error {
	id, err := s.WaitVisible(loc, s.timeout)
	if err != nil {
		return fmt.Errorf("swipe right on %s: %w", loc, err)
	}
	return s.swipeRow(id, endFrac, newStartFrac)
}

func (s *Surface) swipeRow(id string, from, to float64) error {
	res, err := s.perform(core.Command{Kind: core.CmdGetRect, ElementID: id})
	if err != nil {
		return fmt.Errorf("locate %s: %w", id, err)
	}
	y := res.Bounds.Y
	return s.swipeWindow(func(size core.Size) Swipe {
		return horizontalSwipe(size, y, from, to, s.pressDuration())
	})
}

// ScrollGesture selects the swipe ScrollToElement uses between attempts.
type ScrollGesture int

const (
	GestureShort ScrollGesture = iota
	GestureLong
	GestureUp
)

// ScrollPolicy bounds ScrollToElement.
type ScrollPolicy struct {
	Gesture  ScrollGesture
	MaxTries int
}

// Default scroll policies.
var (
	ShortScrollPolicy = ScrollPolicy{Gesture: GestureShort, MaxTries: 5}
	LongScrollPolicy  = ScrollPolicy{Gesture: GestureLong, MaxTries: 3}
)

func (s *Surface) gesture(g ScrollGesture) func() error {
	switch g {
	case GestureLong:
		return s.LongScroll
	case GestureUp:
		return s.ScrollUp
	default:
		return s.ScrollDown
	}
}

// ScrollToElement scrolls until loc is visible. Each look waits up to the
// scroll timeout; after p.MaxTries misses it scrolls once more and makes a
// last look whose error is returned.
func (s *Surface) ScrollToElement(loc core.Locator, p ScrollPolicy) (string, error) {
	look := func() (string, error) {
		return s.WaitVisible(loc, s.deps.Timeouts.Scroll)
	}
	id, err := wait.RetryWithAction(s.deps.Ctx, wait.RetryPolicy{MaxAttempts: p.MaxTries}, look, s.gesture(p.Gesture))
	if err != nil {
		return "", fmt.Errorf("scroll to %s on %s: %w", loc, s.name, err)
	}
	return id, nil
}
