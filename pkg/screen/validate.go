package screen

import (
	"fmt"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

// ValidateCodeWidget takes the one-time code, one character per field.
type ValidateCodeWidget struct {
	*Surface
}

// NewValidateCodeWidget waits for the code title.
func NewValidateCodeWidget(d Deps) (*ValidateCodeWidget, error) {
	w := &ValidateCodeWidget{Surface: newSurface(d, "ValidateCodeWidget", KindWidget)}
	w.Step("Initialising the validate code widget")
	w.HideKeyboard()
	if err := w.WaitLoaded(CodeTitle); err != nil {
		return nil, err
	}
	return w, nil
}

// EnterValueInEachField types code[i] into the i-th input field. It fails
// with core.ErrCodeTooLong before typing anything if code has more
// characters than there are fields.
func (w *ValidateCodeWidget) EnterValueInEachField(code string) (*ValidateCodeWidget, error) {
	w.Step("Starting to enter value in each input field")
	if _, err := w.WaitPresent(CodeInputFields, w.timeout); err != nil {
		return nil, fmt.Errorf("code fields: %w", err)
	}
	fields, err := w.FindAll(CodeInputFields)
	if err != nil {
		return nil, err
	}

	chars := []rune(code)
	if len(chars) > len(fields) {
		w.log.Errorf("%d characters for %d fields", len(chars), len(fields))
		return nil, core.ErrCodeTooLong
	}
	for i, c := range chars {
		w.log.Debugf("sending %q to field %d", c, i)
		if _, err := w.perform(core.Command{Kind: core.CmdSendKeys, ElementID: fields[i], Text: string(c)}); err != nil {
			return nil, fmt.Errorf("code field %d: %w", i, err)
		}
	}
	return w, nil
}

func (w *ValidateCodeWidget) accept() error {
	w.Step("Clicks on continue button")
	return w.Tap(CodeContinueButton)
}

// AcceptAndGoToPermissions continues to the permissions request, shown on
// first sign in.
func (w *ValidateCodeWidget) AcceptAndGoToPermissions() (*PermissionsRequestWidget, error) {
	if err := w.accept(); err != nil {
		return nil, err
	}
	return NewPermissionsRequestWidget(w.deps)
}

// AcceptAndGoToHomeRides continues straight to the home screen.
func (w *ValidateCodeWidget) AcceptAndGoToHomeRides() (*HomeRidesScreen, error) {
	if err := w.accept(); err != nil {
		return nil, err
	}
	return NewHomeRidesScreen(w.deps)
}
