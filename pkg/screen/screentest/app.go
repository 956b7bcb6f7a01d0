// Package screentest scripts a mock session that behaves like the rider app,
// so flows over pkg/screen can run without a device.
package screentest

import (
	"context"
	"testing"
	"time"

	"github.com/devicelab-dev/pageflow/pkg/config"
	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/driver/mock"
	"github.com/devicelab-dev/pageflow/pkg/report"
	"github.com/devicelab-dev/pageflow/pkg/screen"
)

// Texts the app shows.
const (
	PhoneTitle       = "Enter your phone number"
	PhoneDescription = "We will text you to verify your number. Standard rates apply."
	CodeTitle        = "Enter the code we sent you"
	DefaultFirstName = "Jane"
	DefaultLastName  = "Rider"
)

// Options change how the scripted app behaves.
type Options struct {
	// CodeFields is the number of code input fields. Zero means 6.
	CodeFields int
	// FirstSignIn shows the permissions request after the code.
	FirstSignIn bool
	// CountryScrolls is how many scroll-ups reveal Afghanistan in the picker.
	CountryScrolls int
	// NoHome leaves the screen blank after sign in.
	NoHome bool
	// NoRidesTitle hides the rides header on the home screen.
	NoRidesTitle bool
}

// Timeouts keeps waits short enough for unit tests.
func Timeouts() config.Timeouts {
	return config.Timeouts{
		Screen:    300 * time.Millisecond,
		Widget:    300 * time.Millisecond,
		Element:   300 * time.Millisecond,
		Poll:      5 * time.Millisecond,
		Scroll:    20 * time.Millisecond,
		Press:     time.Millisecond,
		LongPress: time.Millisecond,
	}
}

// Script returns a mock.Backend script that starts on onboarding.
func Script(o Options) func(s *mock.Screen) {
	if o.CodeFields == 0 {
		o.CodeFields = 6
	}
	return func(s *mock.Screen) {
		app := &riderApp{opts: o}
		app.install(s)
	}
}

// Open opens a scripted session on a fresh mock backend.
func Open(t testing.TB, o Options) *mock.Session {
	t.Helper()
	native, err := mock.New(Script(o)).Open(nil, "")
	if err != nil {
		t.Fatalf("open mock session: %v", err)
	}
	return native.(*mock.Session)
}

// Deps wires a session and a fresh test on rep into screen.Deps.
func Deps(sess *mock.Session, rep *report.Reporter, unit string) screen.Deps {
	rep.StartTest(unit, "screentest")
	return screen.Deps{
		Ctx:      context.Background(),
		Driver:   sess,
		Steps:    rep.ForUnit(unit, sess),
		Timeouts: Timeouts(),
	}
}

type riderApp struct {
	opts    Options
	scrolls int
	picking bool
}

func (a *riderApp) install(s *mock.Screen) {
	s.Show(screen.OnboardingContainer, "")
	s.Show(screen.GetStartedButton, "Get started")

	s.OnTap(screen.GetStartedButton, func(s *mock.Screen) {
		s.Hide(screen.OnboardingContainer)
		s.Hide(screen.GetStartedButton)
		a.showPhone(s)
	})
	s.OnTap(screen.CountryCodeButton, func(s *mock.Screen) {
		a.picking = true
		a.scrolls = 0
		s.Show(screen.CountryDropdown, "")
		s.ShowList(screen.CountryItems, "Zambia (+260)", "Zimbabwe (+263)")
	})
	s.OnSwipe(func(s *mock.Screen, from, to core.Point) {
		if !a.picking || to.Y <= from.Y {
			return
		}
		a.scrolls++
		if a.scrolls >= a.opts.CountryScrolls {
			s.ShowList(screen.CountryItems, "Afghanistan (+93)", "Åland Islands (+358)", "Albania (+355)")
		}
	})
	s.OnTap(screen.CountryItems, func(s *mock.Screen) {
		a.picking = false
		s.Hide(screen.CountryDropdown)
		s.Hide(screen.CountryItems)
	})
	s.OnTap(screen.ContinueButton, func(s *mock.Screen) {
		a.hidePhone(s)
		s.Show(screen.CodeTitle, CodeTitle)
		s.Show(screen.CodeContinueButton, "Continue")
		s.ShowList(screen.CodeInputFields, make([]string, a.opts.CodeFields)...)
	})
	s.OnTap(screen.CodeContinueButton, func(s *mock.Screen) {
		s.Hide(screen.CodeTitle)
		s.Hide(screen.CodeContinueButton)
		s.Hide(screen.CodeInputFields)
		if a.opts.FirstSignIn {
			a.showPermissions(s)
			return
		}
		a.showHome(s)
	})

	s.OnTap(screen.AllowLocationButton, func(s *mock.Screen) {
		s.Show(screen.PermissionDialog, "")
		s.Show(screen.AllowWhileUsingAppButton, "While using the app")
	})
	s.OnTap(screen.AllowWhileUsingAppButton, func(s *mock.Screen) {
		s.Hide(screen.PermissionDialog)
		s.Hide(screen.AllowWhileUsingAppButton)
	})
	s.OnTap(screen.AllowNotificationsButton, func(s *mock.Screen) {
		s.Show(screen.PermissionDialog, "")
		s.Show(screen.AllowSendNotifications, "Allow")
	})
	s.OnTap(screen.AllowSendNotifications, func(s *mock.Screen) {
		s.Hide(screen.PermissionDialog)
		s.Hide(screen.AllowSendNotifications)
	})
	s.OnTap(screen.PermissionsContinue, func(s *mock.Screen) {
		for _, loc := range []core.Locator{screen.PermissionsTitle, screen.PermissionsContinue, screen.AllowLocationButton, screen.AllowNotificationsButton} {
			s.Hide(loc)
		}
		a.showHome(s)
	})

	s.OnTap(screen.SideMenuButton, func(s *mock.Screen) {
		a.showMenu(s, DefaultFirstName+" "+DefaultLastName)
	})
	s.OnTap(screen.ProfileButton, func(s *mock.Screen) {
		a.hideMenu(s)
		s.Show(screen.ProfilePicture, "")
		s.Show(screen.FirstNameField, DefaultFirstName)
		s.Show(screen.LastNameField, DefaultLastName)
		s.Show(screen.DoneButton, "Done")
	})
	s.OnTap(screen.DoneButton, func(s *mock.Screen) {
		name := s.Text(screen.FirstNameField) + " " + s.Text(screen.LastNameField)
		for _, loc := range []core.Locator{screen.ProfilePicture, screen.FirstNameField, screen.LastNameField, screen.DoneButton} {
			s.Hide(loc)
		}
		a.showMenu(s, name)
		s.Show(screen.ProfileUpdated, "Profile updated successfully")
	})
	s.OnTap(screen.LogoutButton, func(s *mock.Screen) {
		a.hideMenu(s)
		s.Hide(screen.ProfileUpdated)
		for _, loc := range []core.Locator{screen.Content, screen.SideMenuButton, screen.RidesTitle} {
			s.Hide(loc)
		}
		a.showPhone(s)
	})
}

func (a *riderApp) showPhone(s *mock.Screen) {
	s.Show(screen.PhoneNumberField, "")
	s.Show(screen.CountryCodeButton, "+1")
	s.Show(screen.ContinueButton, "Continue")
	s.Show(screen.PhoneTitle, PhoneTitle)
	s.Show(screen.PhoneDescription, PhoneDescription)
}

func (a *riderApp) hidePhone(s *mock.Screen) {
	for _, loc := range []core.Locator{screen.PhoneNumberField, screen.CountryCodeButton, screen.ContinueButton, screen.PhoneTitle, screen.PhoneDescription} {
		s.Hide(loc)
	}
}

func (a *riderApp) showPermissions(s *mock.Screen) {
	s.Show(screen.PermissionsTitle, "Permissions")
	s.Show(screen.PermissionsContinue, "Continue")
	s.Show(screen.AllowLocationButton, "Allow location")
	s.Show(screen.AllowNotificationsButton, "Allow notifications")
}

func (a *riderApp) showHome(s *mock.Screen) {
	if a.opts.NoHome {
		return
	}
	s.Show(screen.Content, "")
	s.Show(screen.SideMenuButton, "")
	if !a.opts.NoRidesTitle {
		s.Show(screen.RidesTitle, "Rides")
	}
}

func (a *riderApp) showMenu(s *mock.Screen, name string) {
	s.Show(screen.ProfileButton, "")
	s.Show(screen.ProfileNameLabel, name)
	s.Show(screen.LogoutButton, "Log out")
}

func (a *riderApp) hideMenu(s *mock.Screen) {
	for _, loc := range []core.Locator{screen.ProfileButton, screen.ProfileNameLabel, screen.LogoutButton} {
		s.Hide(loc)
	}
}

// CodeEntered returns the characters typed into each code field, joined.
func CodeEntered(s *mock.Screen) string {
	out := ""
	for _, t := range s.Texts(screen.CodeInputFields) {
		out += t
	}
	return out
}

