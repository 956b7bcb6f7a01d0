package screen

// OnboardingScreen is the first screen after launch.
type OnboardingScreen struct {
	*Surface
}

// NewOnboardingScreen waits for the onboarding screen to load.
func NewOnboardingScreen(d Deps) (*OnboardingScreen, error) {
	s := &OnboardingScreen{Surface: newSurface(d, "OnboardingScreen", KindScreen)}
	s.log.Debug("initialising onboarding screen")
	if err := s.WaitLoaded(OnboardingContainer); err != nil {
		return nil, err
	}
	return s, nil
}

// GetStarted leaves onboarding for the phone number widget.
func (s *OnboardingScreen) GetStarted() (*PhoneNumberWidget, error) {
	s.log.Debug("get started")
	if err := s.Tap(GetStartedButton); err != nil {
		return nil, err
	}
	return NewPhoneNumberWidget(s.deps)
}
