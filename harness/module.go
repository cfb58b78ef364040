package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/appenv"
	"github.com/launchdarkly/app-test-harness/config"
	"github.com/launchdarkly/app-test-harness/fixtures"
	"github.com/launchdarkly/app-test-harness/framework"
	"github.com/launchdarkly/app-test-harness/framework/helpers"
	"github.com/launchdarkly/app-test-harness/transaction"
)

var (
	// ErrNotInitialized is returned by test lifecycle methods called before Module.Initialize.
	ErrNotInitialized = errors.New("harness module has not been initialized")

	// ErrTestInProgress is returned by Module.BeforeTest if the previous test was not ended with
	// Module.AfterTest.
	ErrTestInProgress = errors.New("previous test has not ended")

	// ErrInitOnly is returned by Module.Client when only the initialization part of the module is
	// enabled.
	ErrInitOnly = errors.New("harness module is configured with part \"init\", so it has no client")

	// ErrNoClient is returned by Module.Client before the first test has started.
	ErrNoClient = errors.New("no test has started yet")

	// ErrNoApplication is returned when an operation needs the live application but none exists.
	ErrNoApplication = errors.New("no application is running")
)

// ModuleOption is a configuration option for New.
type ModuleOption helpers.ConfigOption[Module]

// WithLogger sets the Logger for the module's debug output. The default is framework.NullLogger().
func WithLogger(logger framework.Logger) ModuleOption {
	return helpers.ConfigOptionFunc[Module](func(m *Module) error {
		m.logger = logger
		return nil
	})
}

// WithIsolator replaces the standard transaction.Wrapper.
func WithIsolator(isolator transaction.Isolator) ModuleOption {
	return helpers.ConfigOptionFunc[Module](func(m *Module) error {
		m.isolator = isolator
		return nil
	})
}

// WithFixtureStores adds external stores to be reset before each test.
func WithFixtureStores(stores ...fixtures.Store) ModuleOption {
	return helpers.ConfigOptionFunc[Module](func(m *Module) error {
		m.stores = append(m.stores, stores...)
		return nil
	})
}

// WithEnvironmentSource sets the function that captures the global environment snapshot. The
// default is appenv.CaptureProcessEnvironment.
func WithEnvironmentSource(source func() appenv.Vars) ModuleOption {
	return helpers.ConfigOptionFunc[Module](func(m *Module) error {
		m.environ = source
		return nil
	})
}

// WithRegistry sets the Registry that application factories and the bridge are taken from. The
// default is app.DefaultRegistry.
func WithRegistry(registry *app.Registry) ModuleOption {
	return helpers.ConfigOptionFunc[Module](func(m *Module) error {
		m.registry = registry
		return nil
	})
}

// WithConstants sets where the test-mode runtime constants are defined. The default is
// app.ProcessConstants, the process environment.
func WithConstants(store app.ConstantStore) ModuleOption {
	return helpers.ConfigOptionFunc[Module](func(m *Module) error {
		m.constants = store
		return nil
	})
}

// Module manages the lifecycle of an application under test. It is created once per suite.
//
// A Module runs one test at a time. Its methods can be called from any goroutine, but calling
// BeforeTest for a second test before AfterTest for the first is an error.
type Module struct {
	config    config.HarnessConfig
	registry  *app.Registry
	handle    *app.Handle
	isolator  transaction.Isolator
	constants app.ConstantStore
	environ   func() appenv.Vars
	stores    []fixtures.Store
	logger    framework.Logger

	settings       app.Settings
	snapshot       appenv.Vars
	vars           appenv.Vars
	requestContext *RequestContext
	client         *Client
	initialized    bool
	currentTest    string
	testActive     bool
	lock           sync.Mutex
}

// New creates a Module. The configuration is validated by Initialize, not here.
func New(cfg config.HarnessConfig, options ...ModuleOption) (*Module, error) {
	m := &Module{
		config:         cfg,
		requestContext: NewRequestContext(),
	}
	if err := helpers.ApplyOptions(m, options...); err != nil {
		return nil, err
	}
	if m.logger == nil {
		m.logger = framework.NullLogger()
	}
	if m.registry == nil {
		m.registry = app.DefaultRegistry
	}
	if m.constants == nil {
		m.constants = app.ProcessConstants{}
	}
	if m.environ == nil {
		m.environ = appenv.CaptureProcessEnvironment
	}
	if m.isolator == nil {
		m.isolator = transaction.NewWrapper(framework.LoggerWithPrefix(m.logger, "[transaction] "))
	}
	m.handle = app.NewHandle(m.registry, m.logger)
	return m, nil
}

// Initialize loads the application settings, puts the process into test mode, captures the
// environment snapshot, and boots the application for the first time. Any error is fatal for the
// suite; configuration problems are reported as *config.ConfigError.
func (m *Module) Initialize() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.initialized {
		return nil
	}
	if err := m.config.Validate(); err != nil {
		return err
	}
	settings, err := app.LoadSettings(m.config.AppEntryPath)
	if err != nil {
		return err
	}
	m.settings = settings

	defined, err := app.DefineConstants(m.constants)
	if err != nil {
		return fmt.Errorf("failed to define runtime constants: %w", err)
	}
	if len(defined) != 0 {
		m.logger.Printf("Defined runtime constants: %v", defined)
	}

	m.snapshot = m.environ()
	m.vars = appenv.Merge(m.snapshot, m.synthesize().Vars())

	if m.registry.Bridge() == nil {
		return &config.ConfigError{
			Field:   "bridge",
			Message: "bridge not installed; an application bridge must be installed with app.InstallBridge to load the test overrides",
			Err:     app.ErrBridgeNotInstalled,
		}
	}
	if err := m.bootApplication(); err != nil {
		return err
	}
	m.initialized = true
	return nil
}

func (m *Module) synthesize() appenv.ServerEnvironment {
	return appenv.Synthesize(m.config.AppEntryPath, m.config.AppURL)
}

// bootApplication (re)creates the application. It can be called any number of times.
func (m *Module) bootApplication() error {
	if err := m.registry.LaunchBridge(); err != nil {
		return fmt.Errorf("failed to launch application bridge: %w", err)
	}
	m.handle.DisableIncludePath()
	if m.client != nil {
		m.client.ResetApplication()
	}
	if _, err := m.handle.Create(m.settings, m.vars); err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			return err
		}
		return &config.ConfigError{Field: "class", Path: m.config.AppEntryPath,
			Message: "cannot create application", Err: err}
	}
	return nil
}

// BeforeTest prepares for a test: it resets the fixture stores, creates a new Client, boots a new
// application, and begins the test transaction if transactions are enabled. If the application
// has no usable database component, the test runs without a transaction.
func (m *Module) BeforeTest(id string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	if m.testActive {
		return fmt.Errorf("cannot start %q: %w (%q)", id, ErrTestInProgress, m.currentTest)
	}
	m.logger.Printf("Starting test %q", id)

	ctx := context.Background()
	if err := fixtures.ResetAll(ctx, m.stores, m.logger); err != nil {
		return err
	}

	client, err := newClient(m.synthesize(), m.config.AppEntryPath, m.config.AppURL, m.settings, m.handle,
		m.requestContext, m.Vars, framework.LoggerWithPrefix(m.logger, "[client] "))
	if err != nil {
		return err
	}
	m.client = client
	if err := m.bootApplication(); err != nil {
		return err
	}

	if m.config.TransactionEnabled() {
		if err := m.isolator.Begin(ctx, m.dbConnection()); err != nil {
			m.client.ResetApplication()
			return fmt.Errorf("failed to begin test transaction: %w", err)
		}
	}
	m.testActive = true
	m.currentTest = id
	return nil
}

// AfterTest cleans up after a test, whatever its outcome: it empties the RequestContext, restores
// the server variables, rolls back the test transaction, and shuts down the application.
func (m *Module) AfterTest(id string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.requestContext.Reset()
	m.vars = appenv.Merge(m.snapshot, m.synthesize().Vars())
	if m.client != nil {
		if m.config.TransactionEnabled() {
			m.isolator.Rollback(context.Background())
		}
		m.client.ResetApplication()
	}
	m.testActive = false
	m.currentTest = ""
	m.logger.Printf("Finished test %q", id)
}

// dbConnection returns the application's database connection, or nil if there is none.
func (m *Module) dbConnection() transaction.Connection {
	a := m.handle.Current()
	if a == nil {
		return nil
	}
	component, ok := a.Component(app.DBComponent)
	if !ok || component == nil {
		m.logger.Printf("Application has no %q component; test will run without a transaction", app.DBComponent)
		return nil
	}
	conn, ok := component.(transaction.Connection)
	if !ok {
		m.logger.Printf("Application's %q component (%T) does not support transactions; test will run without a transaction",
			app.DBComponent, component)
		return nil
	}
	return conn
}

// Parts returns the partial-activation modes the module supports.
func (m *Module) Parts() framework.Parts {
	return framework.Parts{string(config.PartInit), string(config.PartInitialize)}
}

// Client returns the Client of the current or most recent test.
func (m *Module) Client() (*Client, error) {
	if m.Parts().Has(string(m.config.Part)) {
		return nil, ErrInitOnly
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.client == nil {
		return nil, ErrNoClient
	}
	return m.client, nil
}

// Config returns the module configuration.
func (m *Module) Config() config.HarnessConfig {
	return m.config
}

// Settings returns the application settings, which are loaded by Initialize.
func (m *Module) Settings() app.Settings {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.settings
}

// Vars returns a copy of the live server variables: the environment snapshot overlaid with the
// synthesized server environment.
func (m *Module) Vars() appenv.Vars {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.vars.Clone()
}

// SetVar changes a live server variable. The change lasts until the end of the current test.
func (m *Module) SetVar(name, value string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.vars == nil {
		m.vars = make(appenv.Vars)
	}
	m.vars[name] = value
}

// Application returns the live application, or nil.
func (m *Module) Application() app.Application {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.handle.Current()
}

// Handle returns the Handle that owns the live application.
func (m *Module) Handle() *app.Handle {
	return m.handle
}

// RequestContext returns the request-scoped state shared by the application and the tests.
func (m *Module) RequestContext() *RequestContext {
	return m.requestContext
}

// Close shuts down the live application, if any.
func (m *Module) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.handle.Reset()
}
