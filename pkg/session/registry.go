package session

import (
	"sync"

	"github.com/devicelab-dev/pageflow/pkg/config"
	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/logger"
)

// Registry maps execution units to their handles. The same unit always
// resolves to the same handle; every handle ever created is kept for CloseAll.
type Registry struct {
	env     *config.Environment
	backend core.Backend

	units sync.Map // unit id -> *Handle

	mu  sync.Mutex
	all []*Handle
}

// NewRegistry creates a registry whose handles open sessions on backend.
func NewRegistry(env *config.Environment, backend core.Backend) *Registry {
	return &Registry{env: env, backend: backend}
}

// Get returns the unit's handle, creating it on first use.
func (r *Registry) Get(unit string) (*Handle, error) {
	if unit == "" {
		return nil, core.ErrInvalidConfig.WithMessage("execution unit id must not be empty")
	}
	if h, ok := r.units.Load(unit); ok {
		return h.(*Handle), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.units.Load(unit); ok {
		return h.(*Handle), nil
	}
	if r.backend == nil {
		return nil, core.ErrInvalidConfig.WithMessage("no automation backend configured")
	}

	h := newHandle(unit, r.env, r.backend)
	r.all = append(r.all, h)
	r.units.Store(unit, h)
	logger.ForUnit(unit).Debug("session handle created")
	return h, nil
}

// Reset drops the unit's native session without closing it.
func (r *Registry) Reset(unit string) {
	h, ok := r.units.Load(unit)
	if !ok {
		logger.ForUnit(unit).Debug("reset requested for unknown unit")
		return
	}
	h.(*Handle).Reset()
}

// CloseAll closes every handle ever created and forgets the unit mapping.
// Close failures are logged and do not stop teardown.
func (r *Registry) CloseAll() {
	for _, h := range r.Handles() {
		if err := h.Close(); err != nil {
			logger.ForUnit(h.UnitID()).WithError(err).Error("failed to close session")
		}
	}

	r.units.Range(func(key, _ interface{}) bool {
		r.units.Delete(key)
		return true
	})
}

// Handles returns every handle created so far.
func (r *Registry) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, len(r.all))
	copy(out, r.all)
	return out
}
