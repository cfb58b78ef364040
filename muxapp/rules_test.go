package muxapp

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/framework"
)

func noop(http.ResponseWriter, *http.Request) {}

func TestConvertTemplate(t *testing.T) {
	for _, p := range []struct {
		in, out string
		params  map[string]string
	}{
		{"example.com", "example.com", map[string]string{}},
		{"{lang}.example.com", "<lang>.example.com", map[string]string{"lang": defaultHostVarPattern}},
		{"{lang:[a-z]{2}}.example.com", "<lang>.example.com", map[string]string{"lang": "[a-z]{2}"}},
		{"{sub}.{domain:example|sample}.com", "<sub>.<domain>.com",
			map[string]string{"sub": defaultHostVarPattern, "domain": "example|sample"}},
	} {
		t.Run(p.in, func(t *testing.T) {
			out, params, err := convertTemplate(p.in, defaultHostVarPattern)
			require.NoError(t, err)
			assert.Equal(t, p.out, out)
			assert.Equal(t, p.params, params)
		})
	}
}

func TestConvertTemplateErrors(t *testing.T) {
	for _, in := range []string{"{lang.example.com", "{:x}.example.com"} {
		t.Run(in, func(t *testing.T) {
			_, _, err := convertTemplate(in, defaultHostVarPattern)
			assert.Error(t, err)
		})
	}
}

func TestRulesFromRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/notes/{id:[0-9]+}", noop)
	router.Host("{lang:en|fr}.example.com").Subrouter().HandleFunc("/", noop)
	router.Host("admin.example.com").HandlerFunc(noop)
	a, err := New(router, "http://localhost")
	require.NoError(t, err)

	lister, ok := a.URLManager().(app.RuleLister)
	require.True(t, ok)
	rules := lister.Rules()

	assert.Contains(t, rules, app.URLRule{
		Template: "/notes/<id>",
		Params:   map[string]string{"id": "[0-9]+"},
	})
	assert.Contains(t, rules, app.URLRule{
		Template:    "<lang>.example.com",
		Params:      map[string]string{"lang": "en|fr"},
		HasHostInfo: true,
	})
	assert.Contains(t, rules, app.URLRule{
		Template:    "admin.example.com",
		Params:      map[string]string{},
		HasHostInfo: true,
	})
}

func TestRulesSkipRoutesWithInvalidTemplates(t *testing.T) {
	router := mux.NewRouter()
	router.Path("/{broken")
	router.HandleFunc("/notes", noop)
	logger := &framework.CapturingLogger{}
	a, err := New(router, "http://localhost", WithLogger(logger))
	require.NoError(t, err)

	rules := a.URLManager().(app.RuleLister).Rules()

	assert.Equal(t, []app.URLRule{{Template: "/notes", Params: map[string]string{}}}, rules)
	require.Len(t, logger.Output(), 1)
	assert.Contains(t, logger.Output()[0].Message, "Skipping route with invalid template")
}
