package screen

// SideMenu is the navigation drawer.
type SideMenu struct {
	*Surface
}

// NewSideMenu waits for the profile name.
func NewSideMenu(d Deps) (*SideMenu, error) {
	m := &SideMenu{Surface: newSurface(d, "SideMenu", KindWidget)}
	if err := m.WaitLoaded(ProfileNameLabel); err != nil {
		return nil, err
	}
	return m, nil
}

// OpenProfile opens the profile editor.
func (m *SideMenu) OpenProfile() (*ProfileWidget, error) {
	if err := m.Tap(ProfileButton); err != nil {
		return nil, err
	}
	return NewProfileWidget(m.deps)
}

// ProfileName returns the name shown at the top of the menu.
func (m *SideMenu) ProfileName() (string, error) {
	return m.TextOf(ProfileNameLabel)
}

// Logout signs out and lands back on the phone number widget.
func (m *SideMenu) Logout() (*PhoneNumberWidget, error) {
	if err := m.Tap(LogoutButton); err != nil {
		return nil, err
	}
	m.log.Info("logout button clicked")
	return NewPhoneNumberWidget(m.deps)
}

// IsProfileUpdatedSuccessfully reports whether the update confirmation shows.
func (m *SideMenu) IsProfileUpdatedSuccessfully() bool {
	return m.IsDisplayed(ProfileUpdated)
}
