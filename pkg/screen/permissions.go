package screen

import "github.com/devicelab-dev/pageflow/pkg/core"

// PermissionsRequestWidget asks for location and notification access.
type PermissionsRequestWidget struct {
	*Surface
}

// NewPermissionsRequestWidget waits for the continue button.
func NewPermissionsRequestWidget(d Deps) (*PermissionsRequestWidget, error) {
	w := &PermissionsRequestWidget{Surface: newSurface(d, "PermissionsRequestWidget", KindWidget)}
	w.log.Debug("initialising permissions request widget")
	w.HideKeyboard()
	if err := w.WaitLoaded(PermissionsContinue); err != nil {
		return nil, err
	}
	return w, nil
}

// grant taps the in-app button, then accepts the system dialog if it shows.
// A missing dialog means the permission was granted earlier.
func (w *PermissionsRequestWidget) grant(button, allow core.Locator) error {
	if err := w.Tap(button); err != nil {
		return err
	}
	if _, err := w.WaitPresent(PermissionDialog, w.deps.Timeouts.Element); err != nil {
		w.log.WithError(err).Debug("no permission dialog")
		return nil
	}
	return w.Tap(allow)
}

// AllowLocation grants location access while the app is in use.
func (w *PermissionsRequestWidget) AllowLocation() (*PermissionsRequestWidget, error) {
	w.log.Debug("allow location")
	if err := w.grant(AllowLocationButton, AllowWhileUsingAppButton); err != nil {
		return nil, err
	}
	return w, nil
}

// AllowNotifications grants notification access.
func (w *PermissionsRequestWidget) AllowNotifications() (*PermissionsRequestWidget, error) {
	w.log.Debug("allow notifications")
	if err := w.grant(AllowNotificationsButton, AllowSendNotifications); err != nil {
		return nil, err
	}
	return w, nil
}

// AllowPermissionsRequests grants location then notifications.
func (w *PermissionsRequestWidget) AllowPermissionsRequests() (*PermissionsRequestWidget, error) {
	if _, err := w.AllowLocation(); err != nil {
		return nil, err
	}
	return w.AllowNotifications()
}

// AllowAndContinueToHomeRides grants everything and continues home.
func (w *PermissionsRequestWidget) AllowAndContinueToHomeRides() (*HomeRidesScreen, error) {
	if _, err := w.WaitVisible(PermissionsContinue, w.timeout); err != nil {
		return nil, err
	}
	if _, err := w.AllowPermissionsRequests(); err != nil {
		return nil, err
	}
	if err := w.Tap(PermissionsContinue); err != nil {
		return nil, err
	}
	return NewHomeRidesScreen(w.deps)
}
