// Package scenarios holds the rider app end-to-end scenarios.
package scenarios

import (
	"crypto/rand"
	"math/big"

	"github.com/devicelab-dev/pageflow/pkg/screen"
	"github.com/devicelab-dev/pageflow/pkg/suite"
)

// Test data shared by every scenario.
const (
	Country     = "AF"
	AreaCode    = "+93"
	PhoneNumber = "701111112"
	SMSCode     = "123456"

	ExpectedTitle       = "Enter your phone number"
	ExpectedDescription = "We will text you to verify your number. Standard rates apply."

	nameLength = 8
)

// Tags
const (
	TagSmoke          = "smoke"
	TagFullRegression = "full-regression"
)

// All returns every scenario in declaration order.
func All() []suite.Scenario {
	return []suite.Scenario{
		{Name: "successfullyLogin", Tags: []string{TagSmoke, TagFullRegression}, Run: SuccessfullyLogin},
		{Name: "updateProfileAccount", Tags: []string{TagSmoke, TagFullRegression}, Run: UpdateProfileAccount},
		{Name: "successfullyLogout", Tags: []string{TagSmoke, TagFullRegression}, Run: SuccessfullyLogout},
	}
}

// Select returns the scenarios whose name or tag matches one of filters.
// No filters selects everything.
func Select(all []suite.Scenario, filters ...string) []suite.Scenario {
	if len(filters) == 0 {
		return all
	}
	var out []suite.Scenario
	for _, sc := range all {
		for _, f := range filters {
			if sc.Name == f || sc.HasTag(f) {
				out = append(out, sc)
				break
			}
		}
	}
	return out
}

// signIn walks from onboarding to the home screen of a first-time rider.
func signIn(t *suite.T) (*screen.HomeRidesScreen, error) {
	t.Info("Launch a basic login")
	onboarding, err := screen.NewOnboardingScreen(t.Deps())
	if err != nil {
		return nil, err
	}
	phone, err := onboarding.GetStarted()
	if err != nil {
		return nil, err
	}
	if phone, err = phone.SetCountryCode(Country, AreaCode); err != nil {
		return nil, err
	}
	if phone, err = phone.SetPhoneNumber(PhoneNumber); err != nil {
		return nil, err
	}
	code, err := phone.ClickContinue()
	if err != nil {
		return nil, err
	}
	if code, err = code.EnterValueInEachField(SMSCode); err != nil {
		return nil, err
	}
	perms, err := code.AcceptAndGoToPermissions()
	if err != nil {
		return nil, err
	}
	return perms.AllowAndContinueToHomeRides()
}

// SuccessfullyLogin signs in and expects the rides list.
func SuccessfullyLogin(t *suite.T) error {
	home, err := signIn(t)
	if err != nil {
		return err
	}
	t.Info("Assert if the rides title is present in the home page")
	return t.Assert(home.IsRidesTitleDisplayed(), "The rides title is not present in the home page")
}

// UpdateProfileAccount renames the rider and expects a confirmation.
func UpdateProfileAccount(t *suite.T) error {
	first, err := RandomName(nameLength)
	if err != nil {
		return err
	}
	last, err := RandomName(nameLength)
	if err != nil {
		return err
	}

	home, err := signIn(t)
	if err != nil {
		return err
	}
	menu, err := home.OpenSideMenu()
	if err != nil {
		return err
	}
	profile, err := menu.OpenProfile()
	if err != nil {
		return err
	}
	if profile, err = profile.EnterFirstName(first); err != nil {
		return err
	}
	if profile, err = profile.EnterLastName(last); err != nil {
		return err
	}
	if menu, err = profile.ClickDone(); err != nil {
		return err
	}

	t.Info("Assert if profile update success popup is present in the side menu")
	return t.Assert(menu.IsProfileUpdatedSuccessfully(), "The profile update success popup is not present in the side menu")
}

// SuccessfullyLogout signs in, logs out and checks the phone number widget.
func SuccessfullyLogout(t *suite.T) error {
	home, err := signIn(t)
	if err != nil {
		return err
	}
	menu, err := home.OpenSideMenu()
	if err != nil {
		return err
	}
	phone, err := menu.Logout()
	if err != nil {
		return err
	}

	t.Info("Assert if the title is present in the login screen")
	if err := t.Assert(phone.IsTitleDisplayed(), "The title is not present in the login screen"); err != nil {
		return err
	}
	t.Info("Assert if the description is present in the login screen")
	if err := t.Assert(phone.IsDescriptionDisplayed(), "The description is not present in the login screen"); err != nil {
		return err
	}

	t.Info("Assert the title on login screen")
	title, err := phone.TitleText()
	if err != nil {
		return err
	}
	if err := t.Equal(title, ExpectedTitle, "The title does not match"); err != nil {
		return err
	}

	t.Info("Assert the description on login screen")
	desc, err := phone.DescriptionText()
	if err != nil {
		return err
	}
	return t.Equal(desc, ExpectedDescription, "The description does not match")
}

const lowercase = "abcdefghijklmnopqrstuvwxyz"

// RandomName returns n random lowercase letters.
func RandomName(n int) (string, error) {
	b := make([]byte, n)
	limit := big.NewInt(int64(len(lowercase)))
	for i := range b {
		k, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = lowercase[k.Int64()]
	}
	return string(b), nil
}
