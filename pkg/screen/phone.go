package screen

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/wait"
)

// maxCountryLooks bounds how many times the country picker list is scanned.
// The picker is scrolled up between consecutive scans.
const maxCountryLooks = 24

// PhoneNumberWidget collects the phone number used to sign in.
type PhoneNumberWidget struct {
	*Surface
}

// NewPhoneNumberWidget waits for the phone number field.
func NewPhoneNumberWidget(d Deps) (*PhoneNumberWidget, error) {
	s := newSurface(d, "PhoneNumberWidget", KindWidget)
	s.timeout = s.deps.Timeouts.Element
	w := &PhoneNumberWidget{Surface: s}

	w.Step("Initialising the phone number widget")
	w.HideKeyboard()
	if err := w.WaitLoaded(PhoneNumberField); err != nil {
		return nil, err
	}
	return w, nil
}

// SetCountryCode picks "<country name> (<areaCode>)" from the country picker.
// region is an ISO 3166 code such as "AF".
func (w *PhoneNumberWidget) SetCountryCode(region, areaCode string) (*PhoneNumberWidget, error) {
	w.Step("Set country code on phone number widget")
	name, err := CountryName(region)
	if err != nil {
		return nil, err
	}
	label := countryLabel(name, areaCode)

	if err := w.Tap(CountryCodeButton); err != nil {
		return nil, err
	}

	pick := func() (string, error) {
		if _, err := w.WaitPresent(CountryDropdown, w.timeout); err != nil {
			return "", err
		}
		ids, err := w.FindAll(CountryItems)
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			res, err := w.perform(core.Command{Kind: core.CmdGetText, ElementID: id})
			if err != nil {
				return "", err
			}
			if strings.Contains(res.Text, label) {
				if _, err := w.perform(core.Command{Kind: core.CmdClick, ElementID: id}); err != nil {
					return "", err
				}
				return id, nil
			}
		}
		return "", core.ErrElementNotFound.WithMessage(label + " not in country list")
	}

	// Guarded looks plus a last look that reports the miss.
	policy := wait.RetryPolicy{MaxAttempts: maxCountryLooks - 1}
	if _, err := wait.RetryWithAction(w.deps.Ctx, policy, pick, w.ScrollUp); err != nil {
		return nil, fmt.Errorf("set country code %s: %w", label, err)
	}
	return w, nil
}

// SetPhoneNumber replaces the phone number.
func (w *PhoneNumberWidget) SetPhoneNumber(number string) (*PhoneNumberWidget, error) {
	w.Step("Setting phone number as: " + number)
	if err := w.TypeInto(PhoneNumberField, number); err != nil {
		return nil, err
	}
	return w, nil
}

// ClickContinue submits the number and waits for the code widget.
func (w *PhoneNumberWidget) ClickContinue() (*ValidateCodeWidget, error) {
	w.Step("Clicks on continue button")
	if err := w.Tap(ContinueButton); err != nil {
		return nil, err
	}
	return NewValidateCodeWidget(w.deps)
}

// IsTitleDisplayed reports whether the title is shown.
func (w *PhoneNumberWidget) IsTitleDisplayed() bool {
	w.Step("Checking if the title is displayed")
	return w.IsDisplayed(PhoneTitle)
}

// TitleText returns the title.
func (w *PhoneNumberWidget) TitleText() (string, error) {
	w.Step("Getting the text of the title")
	text, err := w.TextOf(PhoneTitle)
	if err != nil {
		return "", err
	}
	w.Step("Title text: " + text)
	return text, nil
}

// IsDescriptionDisplayed reports whether the description is shown.
func (w *PhoneNumberWidget) IsDescriptionDisplayed() bool {
	w.Step("Checking if the description is displayed")
	return w.IsDisplayed(PhoneDescription)
}

// DescriptionText returns the description.
func (w *PhoneNumberWidget) DescriptionText() (string, error) {
	w.Step("Getting the text of the description")
	text, err := w.TextOf(PhoneDescription)
	if err != nil {
		return "", err
	}
	w.log.Infof("description text: %s", text)
	return text, nil
}
