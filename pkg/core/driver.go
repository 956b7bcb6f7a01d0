package core

import (
	"time"
)

// Backend opens native automation sessions.
// Implementations: Appium (W3C WebDriver over HTTP), mock.
type Backend interface {
	// Open creates a session on the server at endpoint with the given capabilities
	Open(capabilities map[string]interface{}, endpoint string) (NativeSession, error)
}

// NativeSession is one live session on the automation server.
// A NativeSession is used by a single execution unit at a time.
type NativeSession interface {
	// ID returns the server-assigned session id
	ID() string

	// Perform executes a single command and returns its result
	Perform(cmd Command) (*CommandResult, error)

	// Screenshot captures the current screen as PNG
	Screenshot() ([]byte, error)

	// Close terminates the session on the server
	Close() error
}

// Strategy is a W3C element location strategy.
type Strategy string

// Supported location strategies
const (
	ByXPath         Strategy = "xpath"
	ByID            Strategy = "id"
	ByAccessibility Strategy = "accessibility id"
	ByUIAutomator   Strategy = "-android uiautomator"
	ByClassName     Strategy = "class name"
)

// Locator identifies an element on screen.
type Locator struct {
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	Value    string   `json:"value" yaml:"value"`
}

// XPath returns an xpath locator.
func XPath(expr string) Locator {
	return Locator{Strategy: ByXPath, Value: expr}
}

// ID returns a resource-id locator.
func ID(resourceID string) Locator {
	return Locator{Strategy: ByID, Value: resourceID}
}

// String returns a readable form for logs and reports.
func (l Locator) String() string {
	return string(l.Strategy) + "=" + l.Value
}

// CommandKind names a native command.
type CommandKind string

// Command kinds understood by every backend
const (
	CmdFindElement  CommandKind = "findElement"
	CmdFindElements CommandKind = "findElements"
	CmdIsDisplayed  CommandKind = "isDisplayed"
	CmdIsEnabled    CommandKind = "isEnabled"
	CmdClick        CommandKind = "click"
	CmdClear        CommandKind = "clear"
	CmdSendKeys     CommandKind = "sendKeys"
	CmdGetText      CommandKind = "getText"
	CmdGetRect      CommandKind = "getRect"
	CmdWindowSize   CommandKind = "windowSize"
	CmdTap          CommandKind = "tap"
	CmdSwipe        CommandKind = "swipe"
	CmdHideKeyboard CommandKind = "hideKeyboard"
)

// Command is a single request to a native session.
// Element commands address either an element id from a previous find or a
// locator that the backend resolves first.
type Command struct {
	Kind      CommandKind
	Locator   Locator
	ElementID string
	Text      string
	From      Point
	To        Point
	Duration  time.Duration
}

// CommandResult represents the outcome of executing a single command
type CommandResult struct {
	// Element ids for find commands
	ElementID  string   `json:"elementId,omitempty"`
	ElementIDs []string `json:"elementIds,omitempty"`

	// Scalar outputs
	Text   string `json:"text,omitempty"`
	Bool   bool   `json:"bool,omitempty"`
	Bounds Bounds `json:"bounds"`
	Size   Size   `json:"size"`

	Duration time.Duration `json:"duration"`
}

// Point is a screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a viewport size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}
