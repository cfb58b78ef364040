package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/app-test-harness/appenv"
	"github.com/launchdarkly/app-test-harness/framework/ldtest"
	"github.com/launchdarkly/app-test-harness/harness"
	"github.com/launchdarkly/app-test-harness/testapp"
)

const smokeMarkerVar = "HARNESS_SMOKE_MARKER"

// runSmokeSuite checks that the harness lifecycle works against the configured application. Each
// top-level test gets its own application instance and transaction.
func runSmokeSuite(module *harness.Module, testLogger ldtest.TestLogger) ldtest.Results {
	config := ldtest.TestConfiguration{
		TestLogger: testLogger,
		Hooks:      []ldtest.TestHooks{module.Hooks()},
		Context:    module,
	}
	return ldtest.Run(config, func(t *ldtest.T) {
		t.Run("application is booted", checkApplicationBooted)
		t.Run("server environment is synthesized", checkServerEnvironment)
		t.Run("server variables can be changed", changeServerVariables)
		t.Run("server variables are restored", checkServerVariablesRestored)
		t.Run("entry URL responds", checkEntryURL)
		t.Run("internal domains include the application host", checkInternalDomains)
		t.Run("notes can be written", writeNote)
		t.Run("notes are rolled back", checkNotesRolledBack)
	})
}

func requireModule(t *ldtest.T) *harness.Module {
	return t.Context().(*harness.Module)
}

func requireClient(t *ldtest.T) *harness.Client {
	client, err := requireModule(t).Client()
	if errors.Is(err, harness.ErrInitOnly) {
		t.SkipWithReason("module is init-only")
	}
	require.NoError(t, err)
	return client
}

func requireNotesApp(t *ldtest.T) {
	if requireModule(t).Settings().Class != testapp.Class {
		t.SkipWithReason("application is not " + testapp.Class)
	}
}

func checkApplicationBooted(t *ldtest.T) {
	module := requireModule(t)
	require.NotNil(t, module.Application())
	t.Debug("application instance %d", module.Handle().Generation())
	assert.False(t, module.Handle().IncludePathEnabled())
}

func checkServerEnvironment(t *ldtest.T) {
	module := requireModule(t)
	cfg := module.Config()
	expected := appenv.Synthesize(cfg.AppEntryPath, cfg.AppURL).Vars()
	vars := module.Vars()
	for _, k := range expected.Keys() {
		assert.Equal(t, expected[k], vars.Get(k), k)
	}
}

func changeServerVariables(t *ldtest.T) {
	module := requireModule(t)
	module.SetVar(smokeMarkerVar, "set")
	module.SetVar(appenv.VarServerName, "changed.invalid")
	assert.Equal(t, "set", module.Vars().Get(smokeMarkerVar))
}

func checkServerVariablesRestored(t *ldtest.T) {
	module := requireModule(t)
	assert.NotContains(t, module.Vars(), smokeMarkerVar)
	assert.NotEqual(t, "changed.invalid", module.Vars().Get(appenv.VarServerName))
}

func checkEntryURL(t *ldtest.T) {
	client := requireClient(t)
	resp, err := client.Do(context.Background(), harness.Request{})
	require.NoError(t, err)
	t.Debug("entry URL returned status %d", resp.Status)
	assert.Less(t, resp.Status, http.StatusInternalServerError)
}

func checkInternalDomains(t *ldtest.T) {
	module := requireModule(t)
	domains, err := module.InternalDomains()
	require.NoError(t, err)
	require.NotEmpty(t, domains)
	for _, d := range domains {
		t.Debug("internal domain: %s", d)
	}
	assert.True(t, module.IsInternalURL(module.Config().AppURL))
}

func listNotes(t *ldtest.T, client *harness.Client) []testapp.Note {
	resp, err := client.Get(context.Background(), "/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	var notes []testapp.Note
	require.NoError(t, json.Unmarshal(resp.Body, &notes))
	return notes
}

func writeNote(t *ldtest.T) {
	requireNotesApp(t)
	client := requireClient(t)
	before := len(listNotes(t, client))
	resp, err := client.PostForm(context.Background(), "/notes", url.Values{"body": {"smoke test"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status)
	assert.Len(t, listNotes(t, client), before+1)
}

func checkNotesRolledBack(t *ldtest.T) {
	requireNotesApp(t)
	if !requireModule(t).Config().TransactionEnabled() {
		t.SkipWithReason("transactions are disabled")
	}
	client := requireClient(t)
	for _, note := range listNotes(t, client) {
		assert.NotEqual(t, "smoke test", note.Body)
	}
}
