package app

import (
	"errors"
	"sync"

	"github.com/launchdarkly/app-test-harness/appenv"
)

// ErrBridgeNotInstalled is returned when no Bridge has been installed in a Registry.
var ErrBridgeNotInstalled = errors.New("application bridge is not installed")

// BootOptions is passed to a Factory along with the Settings.
type BootOptions struct {
	// IncludePathEnabled tells the application whether it may resolve resources through an
	// ambient search path. The harness always disables this so that boots are deterministic.
	IncludePathEnabled bool

	// ServerVars are the simulated server variables at the time the application is created.
	ServerVars appenv.Vars
}

// Factory creates an application instance.
type Factory func(settings Settings, opts BootOptions) (Application, error)

// Bridge installs whatever test-specific overrides an application framework needs before an
// application can run inside the harness (for instance, replacing components that would write
// response headers or terminate the process). It is launched before every boot, so it must be
// safe to call repeatedly.
type Bridge interface {
	Launch() error
}

// BridgeFunc adapts a function to the Bridge interface.
type BridgeFunc func() error

func (f BridgeFunc) Launch() error { return f() }

// Registry holds the application factories, keyed by Settings.Class, and the installed Bridge.
//
// Applications normally register themselves with DefaultRegistry from an init function, in the
// same way that database/sql drivers do.
type Registry struct {
	factories map[string]Factory
	bridge    Bridge
	lock      sync.RWMutex
}

// DefaultRegistry is the registry used by a harness module unless another one is specified.
var DefaultRegistry = NewRegistry() //nolint:gochecknoglobals

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterFactory associates an application class name with a Factory, replacing any previous one.
func (r *Registry) RegisterFactory(class string, factory Factory) {
	r.lock.Lock()
	r.factories[class] = factory
	r.lock.Unlock()
}

// Factory returns the Factory registered for a class, if any.
func (r *Registry) Factory(class string) (Factory, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	f, ok := r.factories[class]
	return f, ok
}

// InstallBridge sets the Bridge that is launched before every application boot.
func (r *Registry) InstallBridge(bridge Bridge) {
	r.lock.Lock()
	r.bridge = bridge
	r.lock.Unlock()
}

// Bridge returns the installed Bridge, or nil.
func (r *Registry) Bridge() Bridge {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.bridge
}

// LaunchBridge launches the installed Bridge, or returns ErrBridgeNotInstalled.
func (r *Registry) LaunchBridge() error {
	b := r.Bridge()
	if b == nil {
		return ErrBridgeNotInstalled
	}
	return b.Launch()
}

// RegisterFactory registers a Factory with DefaultRegistry.
func RegisterFactory(class string, factory Factory) {
	DefaultRegistry.RegisterFactory(class, factory)
}

// InstallBridge installs a Bridge in DefaultRegistry.
func InstallBridge(bridge Bridge) {
	DefaultRegistry.InstallBridge(bridge)
}
