// Package appium implements core.Backend using an Appium server via the W3C WebDriver protocol.
package appium

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// legacyElementKey is sent by pre-W3C servers.
const legacyElementKey = "ELEMENT"

// Client handles HTTP communication with Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
}

// NewClient creates a new Appium client.
func NewClient(serverURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute // Session creation installs the app
	}
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

// Every W3C response wraps its payload in "value".
type envelope struct {
	Value json.RawMessage `json:"value"`
}

type w3cError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// elementRef is a web element reference as returned by find commands.
type elementRef map[string]string

func (r elementRef) id() string {
	if id := r[w3cElementKey]; id != "" {
		return id
	}
	return r[legacyElementKey]
}

type rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type locatorBody struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
			"firstMatch":  []map[string]interface{}{{}},
		},
	}

	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.call(http.MethodPost, "/session", body, &created); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if created.SessionID == "" {
		return fmt.Errorf("no session ID in response")
	}
	c.sessionID = created.SessionID
	return nil
}

// Disconnect deletes the session. It is a no-op once disconnected.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	err := c.call(http.MethodDelete, c.sessionPath(), nil, nil)
	c.sessionID = ""
	return err
}

// SessionID returns the current session id, empty when disconnected.
func (c *Client) SessionID() string {
	return c.sessionID
}

// WindowSize returns the viewport dimensions.
func (c *Client) WindowSize() (core.Size, error) {
	var r rect
	if err := c.call(http.MethodGet, c.sessionPath()+"/window/rect", nil, &r); err != nil {
		return core.Size{}, err
	}
	return core.Size{Width: int(r.Width), Height: int(r.Height)}, nil
}

// FindElement returns the id of the first element matching the locator.
func (c *Client) FindElement(strategy, value string) (string, error) {
	var ref elementRef
	if err := c.call(http.MethodPost, c.sessionPath()+"/element", locatorBody{strategy, value}, &ref); err != nil {
		return "", err
	}
	id := ref.id()
	if id == "" {
		return "", core.ErrElementNotFound.WithMessage(fmt.Sprintf("no element reference for %s=%s", strategy, value))
	}
	return id, nil
}

// FindElements returns the ids of every element matching the locator.
func (c *Client) FindElements(strategy, value string) ([]string, error) {
	var refs []elementRef
	if err := c.call(http.MethodPost, c.sessionPath()+"/elements", locatorBody{strategy, value}, &refs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if id := ref.id(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ClickElement clicks an element.
func (c *Client) ClickElement(elementID string) error {
	return c.call(http.MethodPost, c.elementPath(elementID)+"/click", struct{}{}, nil)
}

// ClearElement clears an input element.
func (c *Client) ClearElement(elementID string) error {
	return c.call(http.MethodPost, c.elementPath(elementID)+"/clear", struct{}{}, nil)
}

// SetElementValue types text into an element. Both the W3C "text" and the
// per-character "value" forms are sent.
func (c *Client) SetElementValue(elementID, text string) error {
	chars := make([]string, 0, len(text))
	for _, ch := range text {
		chars = append(chars, string(ch))
	}
	body := struct {
		Text  string   `json:"text"`
		Value []string `json:"value"`
	}{text, chars}
	return c.call(http.MethodPost, c.elementPath(elementID)+"/value", body, nil)
}

// GetElementText returns the visible text of an element.
func (c *Client) GetElementText(elementID string) (string, error) {
	var text string
	err := c.call(http.MethodGet, c.elementPath(elementID)+"/text", nil, &text)
	return text, err
}

// GetElementRect returns the element bounds in viewport coordinates.
func (c *Client) GetElementRect(elementID string) (core.Bounds, error) {
	var r rect
	if err := c.call(http.MethodGet, c.elementPath(elementID)+"/rect", nil, &r); err != nil {
		return core.Bounds{}, err
	}
	return core.Bounds{X: int(r.X), Y: int(r.Y), Width: int(r.Width), Height: int(r.Height)}, nil
}

// IsElementDisplayed checks if element is displayed.
func (c *Client) IsElementDisplayed(elementID string) (bool, error) {
	var displayed bool
	err := c.call(http.MethodGet, c.elementPath(elementID)+"/displayed", nil, &displayed)
	return displayed, err
}

// IsElementEnabled checks if element is enabled.
func (c *Client) IsElementEnabled(elementID string) (bool, error) {
	var enabled bool
	err := c.call(http.MethodGet, c.elementPath(elementID)+"/enabled", nil, &enabled)
	return enabled, err
}

// W3C pointer actions

type pointerAction map[string]interface{}

func moveTo(x, y, durationMs int) pointerAction {
	return pointerAction{"type": "pointerMove", "duration": durationMs, "x": x, "y": y, "origin": "viewport"}
}

func press() pointerAction   { return pointerAction{"type": "pointerDown", "button": 0} }
func release() pointerAction { return pointerAction{"type": "pointerUp", "button": 0} }

func hold(durationMs int) pointerAction {
	return pointerAction{"type": "pause", "duration": durationMs}
}

func (c *Client) touch(actions ...pointerAction) error {
	finger := map[string]interface{}{
		"type":       "pointer",
		"id":         "finger1",
		"parameters": map[string]interface{}{"pointerType": "touch"},
		"actions":    actions,
	}
	body := map[string]interface{}{"actions": []interface{}{finger}}
	return c.call(http.MethodPost, c.sessionPath()+"/actions", body, nil)
}

// Tap taps the viewport point (x, y).
func (c *Client) Tap(x, y int) error {
	return c.touch(moveTo(x, y, 0), press(), hold(50), release())
}

// Swipe presses at start, holds for durationMs, moves to end, and releases.
func (c *Client) Swipe(startX, startY, endX, endY, durationMs int) error {
	return c.touch(moveTo(startX, startY, 0), press(), hold(durationMs), moveTo(endX, endY, 200), release())
}

// HideKeyboard hides the soft keyboard.
func (c *Client) HideKeyboard() error {
	return c.call(http.MethodPost, c.sessionPath()+"/appium/device/hide_keyboard", struct{}{}, nil)
}

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	var encoded string
	if err := c.call(http.MethodGet, c.sessionPath()+"/screenshot", nil, &encoded); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

// call sends one command and decodes the response value into out.
// A nil out discards the value.
func (c *Client) call(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.serverURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return core.ErrServerUnreachable.WithCause(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: failed to parse response (HTTP %d): %w", method, path, resp.StatusCode, err)
	}

	value := bytes.TrimSpace(env.Value)
	if len(value) > 0 && value[0] == '{' {
		var we w3cError
		if json.Unmarshal(value, &we) == nil && we.Error != "" {
			return webDriverError(we.Error, we.Message)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if out == nil || len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(value, out); err != nil {
		return fmt.Errorf("%s %s: unexpected value: %w", method, path, err)
	}
	return nil
}

// webDriverError maps W3C error codes onto the core taxonomy.
func webDriverError(errType, msg string) error {
	cause := fmt.Errorf("%s: %s", errType, msg)
	switch errType {
	case "no such element", "stale element reference":
		return core.ErrElementNotFound.WithCause(cause)
	case "element not interactable":
		return core.ErrElementNotVisible.WithCause(cause)
	case "invalid session id":
		return core.ErrNoActiveSession.WithCause(cause)
	case "session not created":
		return core.ErrSessionCreate.WithCause(cause)
	default:
		return cause
	}
}
