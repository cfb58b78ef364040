package muxapp

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/framework"
	"github.com/launchdarkly/app-test-harness/framework/helpers"
)

// Option is a configuration option for New.
type Option helpers.ConfigOption[Application]

// WithComponent registers a named component, such as the database connection under
// app.DBComponent.
func WithComponent(name string, component interface{}) Option {
	return helpers.ConfigOptionFunc[Application](func(a *Application) error {
		a.components[name] = component
		return nil
	})
}

// WithCloser adds a function to be called when the application is closed. Closers run in the
// reverse of the order they were added.
func WithCloser(closer func() error) Option {
	return helpers.ConfigOptionFunc[Application](func(a *Application) error {
		a.closers = append(a.closers, closer)
		return nil
	})
}

// WithURLFormat sets the routing mode reported by the URL manager. The default is
// app.URLFormatPath.
func WithURLFormat(format string) Option {
	return helpers.ConfigOptionFunc[Application](func(a *Application) error {
		a.format = format
		return nil
	})
}

// WithLogger sets the logger for problems found while listing routes. The default discards them.
func WithLogger(logger framework.Logger) Option {
	return helpers.ConfigOptionFunc[Application](func(a *Application) error {
		a.logger = logger
		return nil
	})
}

// Application is an app.Application backed by a mux.Router.
type Application struct {
	router     *mux.Router
	hostInfo   string
	format     string
	components map[string]interface{}
	closers    []func() error
	logger     framework.Logger
}

// New creates an Application. hostInfo is the scheme and host the application considers its own,
// such as "http://localhost".
func New(router *mux.Router, hostInfo string, options ...Option) (*Application, error) {
	a := &Application{
		router:     router,
		hostInfo:   hostInfo,
		format:     app.URLFormatPath,
		components: make(map[string]interface{}),
		logger:     framework.NullLogger(),
	}
	if err := helpers.ApplyOptions(a, options...); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *Application) Component(name string) (interface{}, bool) {
	c, ok := a.components[name]
	return c, ok
}

func (a *Application) HostInfo() string {
	return a.hostInfo
}

func (a *Application) URLManager() app.URLManager {
	return urlManager{router: a.router, format: a.format, logger: a.logger}
}

// Router returns the underlying router.
func (a *Application) Router() *mux.Router {
	return a.router
}

func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
