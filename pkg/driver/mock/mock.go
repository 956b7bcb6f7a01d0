// Package mock provides a scriptable backend for testing without a real device.
package mock

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

// PNG is the screenshot payload every mock session returns.
var PNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Backend is a mock implementation of core.Backend for testing.
type Backend struct {
	// Script prepares the screen of every newly opened session.
	Script func(s *Screen)
	// OpenErr makes every Open fail.
	OpenErr error
	// CloseErr makes every session Close fail.
	CloseErr error
	// ScreenshotErr makes every Screenshot fail.
	ScreenshotErr error

	mu       sync.Mutex
	sessions []*Session
}

// New creates a mock backend that scripts every session with script.
func New(script func(s *Screen)) *Backend {
	return &Backend{Script: script}
}

// Open creates a new mock session.
func (b *Backend) Open(capabilities map[string]interface{}, endpoint string) (core.NativeSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.OpenErr != nil {
		return nil, b.OpenErr
	}

	s := &Session{
		id:           "mock-" + strconv.Itoa(len(b.sessions)+1),
		backend:      b,
		screen:       NewScreen(),
		Capabilities: capabilities,
		Endpoint:     endpoint,
	}
	if b.Script != nil {
		b.Script(s.screen)
	}
	b.sessions = append(b.sessions, s)
	return s, nil
}

// Opens returns how many sessions were opened.
func (b *Backend) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Sessions returns every session opened so far.
func (b *Backend) Sessions() []*Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Session, len(b.sessions))
	copy(out, b.sessions)
	return out
}

// Session is a mock core.NativeSession.
type Session struct {
	Capabilities map[string]interface{}
	Endpoint     string

	id      string
	backend *Backend
	screen  *Screen

	mu       sync.Mutex
	closes   int
	commands []core.Command
}

// ID returns the mock session id.
func (s *Session) ID() string { return s.id }

// Screen returns the scripted screen behind this session.
func (s *Session) Screen() *Screen { return s.screen }

// Closes returns how many times Close was called.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Commands returns every command performed, in order.
func (s *Session) Commands() []core.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Close records the call and returns the backend's CloseErr.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return s.backend.CloseErr
}

// Screenshot returns PNG or the backend's ScreenshotErr.
func (s *Session) Screenshot() ([]byte, error) {
	if s.backend.ScreenshotErr != nil {
		return nil, s.backend.ScreenshotErr
	}
	return PNG, nil
}

// Perform simulates a command against the scripted screen.
func (s *Session) Perform(cmd core.Command) (*core.CommandResult, error) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()

	sc := s.screen
	switch cmd.Kind {
	case core.CmdFindElement:
		el, err := sc.resolve(cmd)
		if err != nil {
			return nil, err
		}
		return &core.CommandResult{ElementID: el.id}, nil
	case core.CmdFindElements:
		return &core.CommandResult{ElementIDs: sc.findAll(cmd.Locator)}, nil
	case core.CmdIsDisplayed:
		el, err := sc.resolve(cmd)
		if err != nil {
			return nil, err
		}
		return &core.CommandResult{ElementID: el.id, Bool: el.Visible}, nil
	case core.CmdIsEnabled:
		el, err := sc.resolve(cmd)
		if err != nil {
			return nil, err
		}
		return &core.CommandResult{ElementID: el.id, Bool: !el.Disabled}, nil
	case core.CmdClick:
		el, err := sc.resolve(cmd)
		if err != nil {
			return nil, err
		}
		if !el.Visible {
			return nil, core.ErrElementNotVisible.WithMessage(fmt.Sprintf("element %s is not visible", el.id))
		}
		sc.fireTap(el)
		return &core.CommandResult{ElementID: el.id}, nil
	case core.CmdClear:
		el, err := sc.resolve(cmd)
		if err != nil {
			return nil, err
		}
		sc.setText(el, "")
		return &core.CommandResult{ElementID: el.id}, nil
	case core.CmdSendKeys:
		el, err := sc.resolve(cmd)
		if err != nil {
			return nil, err
		}
		sc.setText(el, el.Text+cmd.Text)
		return &core.CommandResult{ElementID: el.id}, nil
	case core.CmdGetText:
		el, err := sc.resolve(cmd)
		if err != nil {
			return nil, err
		}
		return &core.CommandResult{ElementID: el.id, Text: sc.text(el)}, nil
	case core.CmdGetRect:
		el, err := sc.resolve(cmd)
		if err != nil {
			return nil, err
		}
		return &core.CommandResult{ElementID: el.id, Bounds: el.Bounds}, nil
	case core.CmdWindowSize:
		return &core.CommandResult{Size: sc.Size}, nil
	case core.CmdTap:
		return &core.CommandResult{}, nil
	case core.CmdSwipe:
		sc.fireSwipe(cmd.From, cmd.To)
		return &core.CommandResult{}, nil
	case core.CmdHideKeyboard:
		return &core.CommandResult{}, nil
	default:
		return nil, fmt.Errorf("unsupported command: %s", cmd.Kind)
	}
}

// Element is one scripted UI element.
type Element struct {
	Text     string
	Visible  bool
	Disabled bool
	Bounds   core.Bounds

	id string
}

// Screen is the mutable UI model a mock session acts on.
type Screen struct {
	Size core.Size

	mu      sync.Mutex
	byKey   map[string][]*Element
	byID    map[string]*Element
	onTap   map[string]func(s *Screen)
	onSwipe []func(s *Screen, from, to core.Point)
}

// NewScreen creates an empty 1080x1920 screen.
func NewScreen() *Screen {
	return &Screen{
		Size:  core.Size{Width: 1080, Height: 1920},
		byKey: make(map[string][]*Element),
		byID:  make(map[string]*Element),
		onTap: make(map[string]func(s *Screen)),
	}
}

// Show places a single visible element at loc.
func (s *Screen) Show(loc core.Locator, text string) *Element {
	return s.ShowList(loc, text)[0]
}

// ShowList places one visible element per text at loc. Calling it again
// replaces whatever was at loc.
func (s *Screen) ShowList(loc core.Locator, texts ...string) []*Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := loc.String()
	for _, old := range s.byKey[key] {
		delete(s.byID, old.id)
	}
	if len(texts) == 0 {
		texts = []string{""}
	}
	els := make([]*Element, len(texts))
	for i, text := range texts {
		el := &Element{
			Text:    text,
			Visible: true,
			Bounds:  core.Bounds{X: 0, Y: 100 * (i + 1), Width: 1080, Height: 80},
			id:      key + "#" + strconv.Itoa(i),
		}
		els[i] = el
		s.byID[el.id] = el
	}
	s.byKey[key] = els
	return els
}

// Hide removes every element at loc.
func (s *Screen) Hide(loc core.Locator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := loc.String()
	for _, el := range s.byKey[key] {
		delete(s.byID, el.id)
	}
	delete(s.byKey, key)
}

// Has reports whether any element is at loc.
func (s *Screen) Has(loc core.Locator) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey[loc.String()]) > 0
}

// Text returns the text of the first element at loc.
func (s *Screen) Text(loc core.Locator) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	els := s.byKey[loc.String()]
	if len(els) == 0 {
		return ""
	}
	return els[0].Text
}

// Texts returns the text of every element at loc.
func (s *Screen) Texts(loc core.Locator) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, el := range s.byKey[loc.String()] {
		out = append(out, el.Text)
	}
	return out
}

// OnTap runs fn whenever an element at loc is clicked.
func (s *Screen) OnTap(loc core.Locator, fn func(s *Screen)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTap[loc.String()] = fn
}

// OnSwipe runs fn on every swipe gesture.
func (s *Screen) OnSwipe(fn func(s *Screen, from, to core.Point)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSwipe = append(s.onSwipe, fn)
}

func (s *Screen) resolve(cmd core.Command) (*Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cmd.ElementID != "" {
		if el, ok := s.byID[cmd.ElementID]; ok {
			return el, nil
		}
		return nil, core.ErrElementNotFound.WithMessage("stale element " + cmd.ElementID)
	}
	els := s.byKey[cmd.Locator.String()]
	if len(els) == 0 {
		return nil, core.ErrElementNotFound.WithMessage("no element matches " + cmd.Locator.String())
	}
	return els[0], nil
}

func (s *Screen) findAll(loc core.Locator) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, el := range s.byKey[loc.String()] {
		ids = append(ids, el.id)
	}
	return ids
}

func (s *Screen) text(el *Element) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return el.Text
}

func (s *Screen) setText(el *Element, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el.Text = text
}

func (s *Screen) fireTap(el *Element) {
	s.mu.Lock()
	key := el.id[:strings.LastIndex(el.id, "#")]
	fn := s.onTap[key]
	s.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

func (s *Screen) fireSwipe(from, to core.Point) {
	s.mu.Lock()
	fns := append([]func(s *Screen, from, to core.Point){}, s.onSwipe...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(s, from, to)
	}
}
