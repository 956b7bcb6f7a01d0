package screen_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/driver/mock"
	"github.com/devicelab-dev/pageflow/pkg/report"
	"github.com/devicelab-dev/pageflow/pkg/screen"
	"github.com/devicelab-dev/pageflow/pkg/screen/screentest"
)

const unit = "unit-1"

func setup(t *testing.T, o screentest.Options) (*mock.Session, *report.Reporter, screen.Deps) {
	t.Helper()
	sess := screentest.Open(t, o)
	rep := report.New(report.NewMemorySink())
	return sess, rep, screentest.Deps(sess, rep, unit)
}

func events(rep *report.Reporter) []report.Event {
	tests := rep.Tests()
	if len(tests) == 0 {
		return nil
	}
	return tests[len(tests)-1].Events
}

func countKind(cmds []core.Command, kind core.CommandKind) int {
	n := 0
	for _, c := range cmds {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func signIn(t *testing.T, d screen.Deps) *screen.ValidateCodeWidget {
	t.Helper()
	onboarding, err := screen.NewOnboardingScreen(d)
	require.NoError(t, err)
	phone, err := onboarding.GetStarted()
	require.NoError(t, err)
	phone, err = phone.SetCountryCode("AF", "+93")
	require.NoError(t, err)
	phone, err = phone.SetPhoneNumber("701111112")
	require.NoError(t, err)
	code, err := phone.ClickContinue()
	require.NoError(t, err)
	return code
}

func TestOnboarding_RecordsLoadTime(t *testing.T) {
	_, rep, d := setup(t, screentest.Options{})

	s, err := screen.NewOnboardingScreen(d)
	require.NoError(t, err)
	assert.Equal(t, "OnboardingScreen", s.Name())
	assert.Equal(t, screen.KindScreen, s.Kind())

	evs := events(rep)
	require.Len(t, evs, 1)
	assert.Equal(t, report.KindScreenshot, evs[0].Kind)
	assert.True(t, strings.HasPrefix(evs[0].Message, "OnboardingScreen load time "), evs[0].Message)
	assert.True(t, strings.HasSuffix(evs[0].Message, " milliseconds"), evs[0].Message)
	assert.NotEmpty(t, evs[0].Media)
}

func TestNode_AnchorAlreadyVisibleNeedsOneProbe(t *testing.T) {
	sess, _, d := setup(t, screentest.Options{})

	_, err := screen.NewOnboardingScreen(d)
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(sess.Commands(), core.CmdIsDisplayed))
}

func TestNode_NotLoaded(t *testing.T) {
	_, rep, d := setup(t, screentest.Options{NoHome: true})
	code := signIn(t, d)
	code, err := code.EnterValueInEachField("123456")
	require.NoError(t, err)

	home, err := code.AcceptAndGoToHomeRides()
	assert.Nil(t, home)
	require.Error(t, err)

	var loadErr *core.LoadingError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "HomeRidesScreen not loaded", loadErr.Message)
	assert.ErrorIs(t, err, core.ErrWaitTimeout)
	assert.Equal(t, core.ErrCategoryTimeout, core.CategoryOf(err))

	for _, ev := range events(rep) {
		assert.False(t, strings.HasPrefix(ev.Message, "HomeRidesScreen load time"))
	}
}

func TestPhoneNumberWidget_Texts(t *testing.T) {
	_, _, d := setup(t, screentest.Options{})
	onboarding, err := screen.NewOnboardingScreen(d)
	require.NoError(t, err)
	phone, err := onboarding.GetStarted()
	require.NoError(t, err)

	assert.True(t, phone.IsTitleDisplayed())
	title, err := phone.TitleText()
	require.NoError(t, err)
	assert.Equal(t, screentest.PhoneTitle, title)

	assert.True(t, phone.IsDescriptionDisplayed())
	desc, err := phone.DescriptionText()
	require.NoError(t, err)
	assert.Equal(t, screentest.PhoneDescription, desc)
}

func TestSetCountryCode_ScrollsUntilFound(t *testing.T) {
	sess, _, d := setup(t, screentest.Options{CountryScrolls: 3})
	onboarding, err := screen.NewOnboardingScreen(d)
	require.NoError(t, err)
	phone, err := onboarding.GetStarted()
	require.NoError(t, err)

	_, err = phone.SetCountryCode("AF", "+93")
	require.NoError(t, err)
	assert.Equal(t, 3, countKind(sess.Commands(), core.CmdSwipe))
	assert.False(t, sess.Screen().Has(screen.CountryDropdown))
}

func TestSetCountryCode_GivesUp(t *testing.T) {
	sess, _, d := setup(t, screentest.Options{CountryScrolls: 1000})
	onboarding, err := screen.NewOnboardingScreen(d)
	require.NoError(t, err)
	phone, err := onboarding.GetStarted()
	require.NoError(t, err)

	_, err = phone.SetCountryCode("AF", "+93")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrElementNotFound)
	assert.Contains(t, err.Error(), "Afghanistan (+93)")
	assert.Equal(t, 24, countKind(sess.Commands(), core.CmdFindElements))
	assert.Equal(t, 23, countKind(sess.Commands(), core.CmdSwipe))
}

func TestSetCountryCode_UnknownRegion(t *testing.T) {
	_, _, d := setup(t, screentest.Options{})
	onboarding, err := screen.NewOnboardingScreen(d)
	require.NoError(t, err)
	phone, err := onboarding.GetStarted()
	require.NoError(t, err)

	_, err = phone.SetCountryCode("??", "+0")
	assert.True(t, core.IsConfigError(err))
}

func TestValidateCode_EntersOneCharPerField(t *testing.T) {
	sess, _, d := setup(t, screentest.Options{})
	code := signIn(t, d)

	_, err := code.EnterValueInEachField("1234")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "", ""}, sess.Screen().Texts(screen.CodeInputFields))
}

func TestValidateCode_TooLong(t *testing.T) {
	sess, _, d := setup(t, screentest.Options{})
	code := signIn(t, d)

	_, err := code.EnterValueInEachField("1234567")
	assert.ErrorIs(t, err, core.ErrCodeTooLong)
	assert.Equal(t, "", screentest.CodeEntered(sess.Screen()))
}

func TestFirstSignIn_ReachesRides(t *testing.T) {
	sess, _, d := setup(t, screentest.Options{FirstSignIn: true, CountryScrolls: 2})
	code := signIn(t, d)
	assert.False(t, sess.Screen().Has(screen.PhoneNumberField))

	code, err := code.EnterValueInEachField("123456")
	require.NoError(t, err)
	assert.Equal(t, "123456", screentest.CodeEntered(sess.Screen()))

	perms, err := code.AcceptAndGoToPermissions()
	require.NoError(t, err)
	home, err := perms.AllowAndContinueToHomeRides()
	require.NoError(t, err)
	assert.True(t, home.IsRidesTitleDisplayed())

	assert.False(t, sess.Screen().Has(screen.PermissionDialog))
}

func TestPermissions_NoDialog(t *testing.T) {
	sess, _, d := setup(t, screentest.Options{FirstSignIn: true})
	code := signIn(t, d)
	perms, err := code.AcceptAndGoToPermissions()
	require.NoError(t, err)

	// Location was granted before, so no system dialog follows the tap.
	sess.Screen().OnTap(screen.AllowLocationButton, func(*mock.Screen) {})
	_, err = perms.AllowLocation()
	require.NoError(t, err)
	_, err = perms.AllowNotifications()
	require.NoError(t, err)
	assert.False(t, sess.Screen().Has(screen.AllowSendNotifications))
}

func TestHome_RidesTitleMissing(t *testing.T) {
	_, _, d := setup(t, screentest.Options{NoRidesTitle: true})
	code := signIn(t, d)
	home, err := code.AcceptAndGoToHomeRides()
	require.NoError(t, err)
	assert.False(t, home.IsRidesTitleDisplayed())
}

func TestProfileUpdateAndLogout(t *testing.T) {
	_, _, d := setup(t, screentest.Options{})
	code := signIn(t, d)
	home, err := code.AcceptAndGoToHomeRides()
	require.NoError(t, err)

	menu, err := home.OpenSideMenu()
	require.NoError(t, err)
	name, err := menu.ProfileName()
	require.NoError(t, err)
	assert.Equal(t, screentest.DefaultFirstName+" "+screentest.DefaultLastName, name)
	assert.False(t, menu.IsProfileUpdatedSuccessfully())

	profile, err := menu.OpenProfile()
	require.NoError(t, err)
	assert.True(t, profile.IsPictureDisplayed())
	profile, err = profile.EnterFirstName("abcdefgh")
	require.NoError(t, err)
	profile, err = profile.EnterLastName("hgfedcba")
	require.NoError(t, err)
	menu, err = profile.ClickDone()
	require.NoError(t, err)

	name, err = menu.ProfileName()
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh hgfedcba", name)
	assert.True(t, menu.IsProfileUpdatedSuccessfully())

	phone, err := menu.Logout()
	require.NoError(t, err)
	assert.True(t, phone.IsTitleDisplayed())
}

func scrollScreen(t *testing.T, revealAfter int) (*mock.Session, *screen.OnboardingScreen) {
	t.Helper()
	target := core.XPath("//*[@text='Footer']")
	backend := mock.New(func(s *mock.Screen) {
		s.Show(screen.OnboardingContainer, "")
		swipes := 0
		s.OnSwipe(func(s *mock.Screen, _, _ core.Point) {
			swipes++
			if swipes == revealAfter {
				s.Show(target, "Footer")
			}
		})
	})
	native, err := backend.Open(nil, "")
	require.NoError(t, err)
	sess := native.(*mock.Session)

	rep := report.New(nil)
	onboarding, err := screen.NewOnboardingScreen(screentest.Deps(sess, rep, unit))
	require.NoError(t, err)
	return sess, onboarding
}

func TestScrollToElement_Found(t *testing.T) {
	sess, s := scrollScreen(t, 2)

	id, err := s.ScrollToElement(core.XPath("//*[@text='Footer']"), screen.ShortScrollPolicy)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 2, countKind(sess.Commands(), core.CmdSwipe))
}

func TestScrollToElement_FinalAttemptError(t *testing.T) {
	sess, s := scrollScreen(t, -1)

	_, err := s.ScrollToElement(core.XPath("//*[@text='Footer']"), screen.ScrollPolicy{Gesture: screen.GestureLong, MaxTries: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrWaitTimeout)
	assert.ErrorIs(t, err, core.ErrElementNotFound)
	assert.Equal(t, 3, countKind(sess.Commands(), core.CmdSwipe))
}

func TestGestures_UseWindowSize(t *testing.T) {
	sess, s := scrollScreen(t, -1)

	require.NoError(t, s.TapCenter())
	require.NoError(t, s.ScrollUp())

	var taps, swipes []core.Command
	for _, c := range sess.Commands() {
		switch c.Kind {
		case core.CmdTap:
			taps = append(taps, c)
		case core.CmdSwipe:
			swipes = append(swipes, c)
		}
	}
	require.Len(t, taps, 1)
	assert.Equal(t, core.Point{X: 540, Y: 960}, taps[0].From)
	require.Len(t, swipes, 1)
	assert.Equal(t, core.Point{X: 540, Y: 576}, swipes[0].From)
	assert.Equal(t, core.Point{X: 540, Y: 1536}, swipes[0].To)
}

func TestSwipeLeftOnLast(t *testing.T) {
	sess, s := scrollScreen(t, -1)
	rows := core.XPath("//android.widget.ListView/*")
	sess.Screen().ShowList(rows, "a", "b", "c")

	require.NoError(t, s.SwipeLeftOnLast(rows))
	cmds := sess.Commands()
	last := cmds[len(cmds)-1]
	assert.Equal(t, core.CmdSwipe, last.Kind)
	assert.Equal(t, core.Point{X: 540, Y: 300}, last.From)
	assert.Equal(t, core.Point{X: 0, Y: 300}, last.To)

	assert.ErrorIs(t, s.SwipeLeftOnLast(core.XPath("//none")), core.ErrElementNotFound)
}

func TestSwipeRightOn(t *testing.T) {
	sess, s := scrollScreen(t, -1)
	row := core.XPath("//android.widget.ListView/*")
	sess.Screen().ShowList(row, "first", "second")

	require.NoError(t, s.SwipeRightOn(row))
	cmds := sess.Commands()
	last := cmds[len(cmds)-1]
	assert.Equal(t, core.CmdSwipe, last.Kind)
	assert.Equal(t, core.Point{X: 108, Y: 100}, last.From)
	assert.Equal(t, core.Point{X: 864, Y: 100}, last.To)
}

func TestScrollDownWithin(t *testing.T) {
	sess, s := scrollScreen(t, -1)
	list := core.XPath("//android.widget.ScrollView")
	sess.Screen().Show(list, "")

	require.NoError(t, s.ScrollDownWithin(list))
	cmds := sess.Commands()
	last := cmds[len(cmds)-1]
	assert.Equal(t, core.CmdSwipe, last.Kind)
	assert.Equal(t, core.Point{X: 540, Y: 140}, last.From)
	assert.Equal(t, core.Point{X: 540, Y: 108}, last.To)

	assert.Error(t, s.ScrollDownWithin(core.XPath("//none")))
}

type configFault struct{ calls int }

func (d *configFault) Perform(core.Command) (*core.CommandResult, error) {
	d.calls++
	return nil, core.ErrUnknownMode.WithMessage(`unknown driver mode "grid"`)
}

func (d *configFault) Screenshot() ([]byte, error) { return nil, errors.New("no session") }

func TestNode_ConfigErrorIsNotALoadFailure(t *testing.T) {
	drv := &configFault{}
	_, err := screen.NewOnboardingScreen(screen.Deps{Driver: drv, Timeouts: screentest.Timeouts()})
	require.Error(t, err)

	var loadErr *core.LoadingError
	assert.False(t, errors.As(err, &loadErr))
	assert.True(t, core.IsConfigError(err))
	assert.ErrorIs(t, err, core.ErrUnknownMode)
	assert.Equal(t, 1, drv.calls)
}
