package app

import (
	"errors"
	"fmt"

	"github.com/launchdarkly/app-test-harness/appenv"
	"github.com/launchdarkly/app-test-harness/framework"
)

// ErrApplicationExists is returned by Handle.Create if an application is already live. The
// previous one must be Reset first, so that it can release any process-wide registrations.
var ErrApplicationExists = errors.New("an application instance already exists; reset it first")

// Handle owns the single live application instance. Every component that needs the application
// gets it from the Handle instead of from ambient global state.
//
// A Handle is not safe for concurrent use; the harness runs one test at a time.
type Handle struct {
	registry           *Registry
	current            Application
	includePathEnabled bool
	generation         int
	logger             framework.Logger
}

// NewHandle creates a Handle that creates applications from the given Registry.
func NewHandle(registry *Registry, logger framework.Logger) *Handle {
	if registry == nil {
		registry = DefaultRegistry
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Handle{registry: registry, includePathEnabled: true, logger: logger}
}

// DisableIncludePath turns off ambient resource lookups for every application created afterward.
func (h *Handle) DisableIncludePath() {
	h.includePathEnabled = false
}

// IncludePathEnabled reports whether applications will be allowed to use ambient resource lookups.
func (h *Handle) IncludePathEnabled() bool {
	return h.includePathEnabled
}

// Create creates the application from the Factory registered for settings.Class.
func (h *Handle) Create(settings Settings, serverVars appenv.Vars) (Application, error) {
	if h.current != nil {
		return nil, ErrApplicationExists
	}
	factory, ok := h.registry.Factory(settings.Class)
	if !ok {
		return nil, fmt.Errorf("no application factory registered for class %q", settings.Class)
	}
	a, err := factory(settings, BootOptions{
		IncludePathEnabled: h.includePathEnabled,
		ServerVars:         serverVars.Clone(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application %q: %w", settings.Class, err)
	}
	h.current = a
	h.generation++
	h.logger.Printf("Created application %q (instance %d)", settings.Class, h.generation)
	return a, nil
}

// Current returns the live application, or nil if there is none.
func (h *Handle) Current() Application {
	return h.current
}

// Generation returns the number of applications this Handle has created.
func (h *Handle) Generation() int {
	return h.generation
}

// Reset closes and discards the live application, if any. The Handle is empty afterward even if
// Close returned an error.
func (h *Handle) Reset() error {
	if h.current == nil {
		return nil
	}
	a := h.current
	h.current = nil
	h.logger.Printf("Resetting application (instance %d)", h.generation)
	if err := a.Close(); err != nil {
		return fmt.Errorf("error closing application: %w", err)
	}
	return nil
}
