package appium

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

// Backend opens Appium sessions. It implements core.Backend.
type Backend struct {
	// HTTPTimeout bounds every request; zero uses the client default.
	HTTPTimeout time.Duration
}

// NewBackend creates an Appium backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Open creates a session on the Appium server at endpoint.
func (b *Backend) Open(capabilities map[string]interface{}, endpoint string) (core.NativeSession, error) {
	client := NewClient(endpoint, b.HTTPTimeout)
	if err := client.Connect(capabilities); err != nil {
		return nil, core.ErrSessionCreate.
			WithDetails(map[string]interface{}{"endpoint": endpoint}).
			WithCause(err)
	}
	return &Session{client: client, id: client.SessionID()}, nil
}

// Session implements core.NativeSession on top of Client.
type Session struct {
	client *Client
	id     string
}

// NewSession wraps an already connected client.
func NewSession(client *Client) *Session {
	return &Session{client: client, id: client.SessionID()}
}

// ID returns the Appium session id.
func (s *Session) ID() string {
	return s.id
}

// Close deletes the session on the server.
func (s *Session) Close() error {
	return s.client.Disconnect()
}

// Screenshot implements core.NativeSession.
func (s *Session) Screenshot() ([]byte, error) {
	return s.client.Screenshot()
}

// Perform implements core.NativeSession.
func (s *Session) Perform(cmd core.Command) (*core.CommandResult, error) {
	start := time.Now()
	result, err := s.perform(cmd)
	if result != nil {
		result.Duration = time.Since(start)
	}
	return result, err
}

func (s *Session) perform(cmd core.Command) (*core.CommandResult, error) {
	switch cmd.Kind {
	case core.CmdFindElement:
		id, err := s.client.FindElement(string(cmd.Locator.Strategy), cmd.Locator.Value)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", cmd.Locator, err)
		}
		return &core.CommandResult{ElementID: id}, nil
	case core.CmdFindElements:
		ids, err := s.client.FindElements(string(cmd.Locator.Strategy), cmd.Locator.Value)
		if err != nil {
			return nil, fmt.Errorf("find all %s: %w", cmd.Locator, err)
		}
		return &core.CommandResult{ElementIDs: ids}, nil
	case core.CmdIsDisplayed:
		return s.withElement(cmd, func(id string) (*core.CommandResult, error) {
			ok, err := s.client.IsElementDisplayed(id)
			return &core.CommandResult{ElementID: id, Bool: ok}, err
		})
	case core.CmdIsEnabled:
		return s.withElement(cmd, func(id string) (*core.CommandResult, error) {
			ok, err := s.client.IsElementEnabled(id)
			return &core.CommandResult{ElementID: id, Bool: ok}, err
		})
	case core.CmdClick:
		return s.withElement(cmd, func(id string) (*core.CommandResult, error) {
			return &core.CommandResult{ElementID: id}, s.client.ClickElement(id)
		})
	case core.CmdClear:
		return s.withElement(cmd, func(id string) (*core.CommandResult, error) {
			return &core.CommandResult{ElementID: id}, s.client.ClearElement(id)
		})
	case core.CmdSendKeys:
		return s.withElement(cmd, func(id string) (*core.CommandResult, error) {
			return &core.CommandResult{ElementID: id}, s.client.SetElementValue(id, cmd.Text)
		})
	case core.CmdGetText:
		return s.withElement(cmd, func(id string) (*core.CommandResult, error) {
			text, err := s.client.GetElementText(id)
			return &core.CommandResult{ElementID: id, Text: text}, err
		})
	case core.CmdGetRect:
		return s.withElement(cmd, func(id string) (*core.CommandResult, error) {
			b, err := s.client.GetElementRect(id)
			return &core.CommandResult{ElementID: id, Bounds: b}, err
		})
	case core.CmdWindowSize:
		size, err := s.client.WindowSize()
		if err != nil {
			return nil, fmt.Errorf("window size: %w", err)
		}
		return &core.CommandResult{Size: size}, nil
	case core.CmdTap:
		return &core.CommandResult{}, s.client.Tap(cmd.From.X, cmd.From.Y)
	case core.CmdSwipe:
		err := s.client.Swipe(cmd.From.X, cmd.From.Y, cmd.To.X, cmd.To.Y, int(cmd.Duration.Milliseconds()))
		return &core.CommandResult{}, err
	case core.CmdHideKeyboard:
		return &core.CommandResult{}, s.client.HideKeyboard()
	default:
		return nil, fmt.Errorf("unsupported command: %s", cmd.Kind)
	}
}

// withElement resolves the command's target element and runs fn on it.
func (s *Session) withElement(cmd core.Command, fn func(id string) (*core.CommandResult, error)) (*core.CommandResult, error) {
	id := cmd.ElementID
	if id == "" {
		found, err := s.client.FindElement(string(cmd.Locator.Strategy), cmd.Locator.Value)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", cmd.Kind, cmd.Locator, err)
		}
		id = found
	}
	result, err := fn(id)
	if err != nil {
		return result, fmt.Errorf("%s %s: %w", cmd.Kind, cmd.Locator, err)
	}
	return result, nil
}
