// Package session owns the per-unit automation sessions of a suite run.
package session

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pageflow/pkg/caps"
	"github.com/devicelab-dev/pageflow/pkg/config"
	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/logger"
)

// State is the lifecycle state of a Handle.
type State int

const (
	StateUninitialized State = iota // No native session yet, or dropped by Reset
	StateActive                     // Native session open
	StateClosed                     // Native session closed
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handle wraps at most one live native session for one execution unit.
// A closed handle opens a fresh session on the next EnsureActive.
type Handle struct {
	unit    string
	env     *config.Environment
	backend core.Backend
	log     *logrus.Entry

	mu     sync.Mutex
	native core.NativeSession
	state  State
}

func newHandle(unit string, env *config.Environment, backend core.Backend) *Handle {
	return &Handle{
		unit:    unit,
		env:     env,
		backend: backend,
		log:     logger.ForUnit(unit),
	}
}

// UnitID returns the owning execution unit.
func (h *Handle) UnitID() string {
	return h.unit
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// SessionID returns the native session id, or "" when none is open.
func (h *Handle) SessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.native == nil {
		return ""
	}
	return h.native.ID()
}

// EnsureActive returns the cached native session, opening one first if needed.
func (h *Handle) EnsureActive() (core.NativeSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.native != nil {
		return h.native, nil
	}

	capabilities, err := caps.FromEnvironment(h.env)
	if err != nil {
		return nil, err
	}
	endpoint, err := caps.ResolveEndpoint(h.env.DriverMode)
	if err != nil {
		return nil, err
	}

	h.log.WithFields(logrus.Fields{
		"platform":  capabilities.String(caps.PlatformName),
		"device":    capabilities.String(caps.DeviceName),
		"osVersion": capabilities.String(caps.PlatformVersion),
		"app":       capabilities.String(caps.App),
	}).Info("opening session")
	h.log.WithField("capabilities", capabilities.Redact()).Debug("session capabilities")

	native, err := h.backend.Open(capabilities.AsMap(), endpoint)
	if err != nil {
		if core.CategoryOf(err) != core.ErrCategoryNone {
			return nil, fmt.Errorf("unit %s: %w", h.unit, err)
		}
		return nil, core.ErrSessionCreate.
			WithDetails(map[string]interface{}{"unit": h.unit, "endpoint": endpoint}).
			WithCause(err)
	}

	h.native = native
	h.state = StateActive
	h.log.WithField("session", native.ID()).Info("session opened")
	return native, nil
}

// Reset drops the native session reference without closing it remotely.
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.native != nil {
		h.log.WithField("session", h.native.ID()).Debug("session reference dropped")
	}
	h.native = nil
	h.state = StateUninitialized
}

// Close terminates the native session if one is open. It is idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	native := h.native
	h.native = nil
	h.state = StateClosed
	h.mu.Unlock()

	if native == nil {
		return nil
	}
	if err := native.Close(); err != nil {
		return fmt.Errorf("close session %s: %w", native.ID(), err)
	}
	h.log.WithField("session", native.ID()).Info("session closed")
	return nil
}

// Perform ensures a session is open and runs cmd on it.
func (h *Handle) Perform(cmd core.Command) (*core.CommandResult, error) {
	native, err := h.EnsureActive()
	if err != nil {
		return nil, err
	}
	return native.Perform(cmd)
}

// Screenshot captures the screen of the active session. It never opens one.
func (h *Handle) Screenshot() ([]byte, error) {
	h.mu.Lock()
	native := h.native
	state := h.state
	h.mu.Unlock()

	if state != StateActive || native == nil {
		return nil, core.ErrNoActiveSession.WithDetails(map[string]interface{}{"unit": h.unit})
	}
	return native.Screenshot()
}
