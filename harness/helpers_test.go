package harness

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/appenv"
	"github.com/launchdarkly/app-test-harness/config"
	"github.com/launchdarkly/app-test-harness/framework"
)

const (
	stubClass    = "stub.App"
	stubEntry    = "class: " + stubClass + "\nconfig:\n  name: stub\n"
	stubAppURL   = "http://localhost/app/index.php"
	stubHostInfo = "http://localhost"
)

type stubConnection struct {
	open      bool
	begins    int
	rollbacks int
}

func (c *stubConnection) BeginTransaction(context.Context) error {
	c.begins++
	c.open = true
	return nil
}

func (c *stubConnection) Rollback(context.Context) error {
	c.rollbacks++
	c.open = false
	return nil
}

func (c *stubConnection) InTransaction() bool { return c.open }

type stubURLManager struct {
	format string
	rules  []app.URLRule
}

func (m stubURLManager) Format() string       { return m.format }
func (m stubURLManager) Rules() []app.URLRule { return m.rules }

type stubApp struct {
	hostInfo   string
	components map[string]interface{}
	urlManager app.URLManager
	handler    http.Handler
	opts       app.BootOptions
	closed     bool
}

func (a *stubApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.handler == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.handler.ServeHTTP(w, r)
}

func (a *stubApp) Component(name string) (interface{}, bool) {
	c, ok := a.components[name]
	return c, ok
}

func (a *stubApp) HostInfo() string           { return a.hostInfo }
func (a *stubApp) URLManager() app.URLManager { return a.urlManager }

func (a *stubApp) Close() error {
	a.closed = true
	return nil
}

// stubFixture describes the applications that a test module will create.
type stubFixture struct {
	registry   *app.Registry
	apps       []*stubApp
	launches   int
	conn       *stubConnection
	db         interface{}
	urlManager app.URLManager
	handler    http.Handler
	hostInfo   string
	logger     *framework.CapturingLogger
	constants  app.MapConstants
	environ    appenv.Vars
}

func newStubFixture() *stubFixture {
	f := &stubFixture{
		registry:   app.NewRegistry(),
		conn:       &stubConnection{},
		urlManager: stubURLManager{format: app.URLFormatPath},
		hostInfo:   stubHostInfo,
		logger:     &framework.CapturingLogger{},
		constants:  app.MapConstants{},
		environ:    appenv.Vars{"PATH": "/usr/bin", "HOME": "/home/tester"},
	}
	f.db = f.conn
	f.registry.RegisterFactory(stubClass, func(s app.Settings, opts app.BootOptions) (app.Application, error) {
		a := &stubApp{
			hostInfo:   f.hostInfo,
			components: map[string]interface{}{},
			urlManager: f.urlManager,
			handler:    f.handler,
			opts:       opts,
		}
		if f.db != nil {
			a.components[app.DBComponent] = f.db
		}
		f.apps = append(f.apps, a)
		return a, nil
	})
	f.registry.InstallBridge(app.BridgeFunc(func() error {
		f.launches++
		return nil
	}))
	return f
}

func (f *stubFixture) lastApp() *stubApp {
	if len(f.apps) == 0 {
		return nil
	}
	return f.apps[len(f.apps)-1]
}

func writeEntry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entry.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (f *stubFixture) config(t *testing.T) config.HarnessConfig {
	return config.HarnessConfig{AppEntryPath: writeEntry(t, stubEntry), AppURL: stubAppURL}
}

func (f *stubFixture) newModule(t *testing.T, cfg config.HarnessConfig, options ...ModuleOption) *Module {
	t.Helper()
	defaults := []ModuleOption{
		WithRegistry(f.registry),
		WithLogger(f.logger),
		WithConstants(f.constants),
		WithEnvironmentSource(func() appenv.Vars { return f.environ.Clone() }),
	}
	m, err := New(cfg, append(defaults, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func (f *stubFixture) initializedModule(t *testing.T, options ...ModuleOption) *Module {
	t.Helper()
	m := f.newModule(t, f.config(t), options...)
	require.NoError(t, m.Initialize())
	return m
}
