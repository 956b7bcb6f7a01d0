package screen

// ProfileWidget edits the rider's name.
type ProfileWidget struct {
	*Surface
}

// NewProfileWidget waits for the profile picture.
func NewProfileWidget(d Deps) (*ProfileWidget, error) {
	w := &ProfileWidget{Surface: newSurface(d, "ProfileWidget", KindWidget)}
	if err := w.WaitLoaded(ProfilePicture); err != nil {
		return nil, err
	}
	return w, nil
}

// IsPictureDisplayed reports whether the profile picture shows.
func (w *ProfileWidget) IsPictureDisplayed() bool {
	return w.IsDisplayed(ProfilePicture)
}

// EnterFirstName replaces the first name.
func (w *ProfileWidget) EnterFirstName(name string) (*ProfileWidget, error) {
	w.log.Debugf("entering first name: %s", name)
	if err := w.TypeInto(FirstNameField, name); err != nil {
		return nil, err
	}
	return w, nil
}

// EnterLastName replaces the last name.
func (w *ProfileWidget) EnterLastName(name string) (*ProfileWidget, error) {
	w.log.Debugf("entering last name: %s", name)
	if err := w.TypeInto(LastNameField, name); err != nil {
		return nil, err
	}
	return w, nil
}

// ClickDone saves the profile and returns to the side menu.
func (w *ProfileWidget) ClickDone() (*SideMenu, error) {
	if err := w.Tap(DoneButton); err != nil {
		return nil, err
	}
	return NewSideMenu(w.deps)
}
