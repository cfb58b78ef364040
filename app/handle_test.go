package app

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/app-test-harness/appenv"
)

type stubApp struct {
	opts     BootOptions
	closed   bool
	closeErr error
}

func (a *stubApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (a *stubApp) Component(string) (interface{}, bool) { return nil, false }
func (a *stubApp) HostInfo() string                     { return "http://localhost" }
func (a *stubApp) URLManager() URLManager               { return nil }
func (a *stubApp) Close() error {
	a.closed = true
	return a.closeErr
}

func newStubRegistry(created *[]*stubApp) *Registry {
	r := NewRegistry()
	r.RegisterFactory("stub", func(s Settings, opts BootOptions) (Application, error) {
		a := &stubApp{opts: opts}
		*created = append(*created, a)
		return a, nil
	})
	return r
}

func TestHandleCreateAndReset(t *testing.T) {
	var created []*stubApp
	h := NewHandle(newStubRegistry(&created), nil)
	h.DisableIncludePath()

	a, err := h.Create(Settings{Class: "stub"}, appenv.Vars{"SERVER_NAME": "localhost"})
	require.NoError(t, err)
	assert.Same(t, created[0], a)
	assert.Same(t, a, h.Current())
	assert.False(t, created[0].opts.IncludePathEnabled)
	assert.Equal(t, "localhost", created[0].opts.ServerVars["SERVER_NAME"])

	_, err = h.Create(Settings{Class: "stub"}, nil)
	assert.Equal(t, ErrApplicationExists, err)

	require.NoError(t, h.Reset())
	assert.True(t, created[0].closed)
	assert.Nil(t, h.Current())
	require.NoError(t, h.Reset())

	_, err = h.Create(Settings{Class: "stub"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Generation())
}

func TestHandleResetClearsEvenIfCloseFails(t *testing.T) {
	r := NewRegistry()
	r.RegisterFactory("stub", func(Settings, BootOptions) (Application, error) {
		return &stubApp{closeErr: errors.New("busy")}, nil
	})
	h := NewHandle(r, nil)
	_, err := h.Create(Settings{Class: "stub"}, nil)
	require.NoError(t, err)
	assert.Error(t, h.Reset())
	assert.Nil(t, h.Current())
}

func TestHandleUnknownClass(t *testing.T) {
	h := NewHandle(NewRegistry(), nil)
	_, err := h.Create(Settings{Class: "nope"}, nil)
	assert.ErrorContains(t, err, `"nope"`)
}

func TestRegistryBridge(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, ErrBridgeNotInstalled, r.LaunchBridge())

	launches := 0
	r.InstallBridge(BridgeFunc(func() error { launches++; return nil }))
	require.NoError(t, r.LaunchBridge())
	require.NoError(t, r.LaunchBridge())
	assert.Equal(t, 2, launches)
}
