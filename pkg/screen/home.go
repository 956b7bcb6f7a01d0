package screen

// HomeRidesScreen is the landing screen of a signed-in rider.
type HomeRidesScreen struct {
	*Surface
}

// NewHomeRidesScreen waits for the home screen to load.
func NewHomeRidesScreen(d Deps) (*HomeRidesScreen, error) {
	s := &HomeRidesScreen{Surface: newSurface(d, "HomeRidesScreen", KindScreen)}
	s.log.Debug("initialising home rides screen")
	if err := s.WaitLoaded(Content); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSideMenu opens the navigation drawer.
func (s *HomeRidesScreen) OpenSideMenu() (*SideMenu, error) {
	if err := s.Tap(SideMenuButton); err != nil {
		return nil, err
	}
	return NewSideMenu(s.deps)
}

// IsRidesTitleDisplayed reports whether the rides list header is shown.
func (s *HomeRidesScreen) IsRidesTitleDisplayed() bool {
	s.Step("Check if the rides title is present in the home page")
	return s.IsDisplayed(RidesTitle)
}
