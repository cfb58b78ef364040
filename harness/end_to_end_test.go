package harness_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/appenv"
	"github.com/launchdarkly/app-test-harness/config"
	"github.com/launchdarkly/app-test-harness/framework"
	"github.com/launchdarkly/app-test-harness/harness"
	"github.com/launchdarkly/app-test-harness/testapp"
)

func newNotesModule(t *testing.T) (*harness.Module, *testapp.Bridge) {
	t.Helper()
	dir := t.TempDir()
	entry, err := testapp.WriteEntryDescriptor(dir, filepath.Join(dir, "notes.db"))
	require.NoError(t, err)

	registry := app.NewRegistry()
	bridge := testapp.Install(registry)
	mod, err := harness.New(
		config.HarnessConfig{AppEntryPath: entry, AppURL: "http://localhost/index.php"},
		harness.WithRegistry(registry),
		harness.WithConstants(app.MapConstants{}),
		harness.WithEnvironmentSource(func() appenv.Vars { return appenv.Vars{"HOME": "/home/tester"} }),
		harness.WithLogger(framework.NullLogger()),
	)
	require.NoError(t, err)
	require.NoError(t, mod.Initialize())
	t.Cleanup(func() { _ = mod.Close() })
	return mod, bridge
}

func listNotes(t *testing.T, c *harness.Client) []testapp.Note {
	t.Helper()
	resp, err := c.Get(context.Background(), "/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	var notes []testapp.Note
	require.NoError(t, json.Unmarshal(resp.Body, &notes))
	return notes
}

func TestNotesAreRolledBackAfterEachTest(t *testing.T) {
	defer goleak.VerifyNone(t)
	mod, bridge := newNotesModule(t)

	for i, name := range []string{"first", "second"} {
		require.NoError(t, mod.BeforeTest(name))
		c, err := mod.Client()
		require.NoError(t, err)

		assert.Len(t, listNotes(t, c), 0, "test %d should start with no notes", i+1)
		resp, err := c.PostForm(context.Background(), "/notes", url.Values{"body": {name}})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.Status)
		assert.Equal(t, []testapp.Note{{ID: 1, Body: name}}, listNotes(t, c))

		mod.AfterTest(name)
	}
	assert.Equal(t, 3, bridge.Launches())
	require.NoError(t, mod.Close())
}

func TestCommittedNotesSurviveRollback(t *testing.T) {
	mod, _ := newNotesModule(t)

	require.NoError(t, mod.BeforeTest("commit"))
	c, _ := mod.Client()
	_, err := c.PostForm(context.Background(), "/notes", url.Values{"body": {"kept"}, "commit": {"true"}})
	require.NoError(t, err)
	mod.AfterTest("commit")

	require.NoError(t, mod.BeforeTest("check"))
	c, _ = mod.Client()
	assert.Equal(t, []testapp.Note{{ID: 1, Body: "kept"}}, listNotes(t, c))
	mod.AfterTest("check")
}

func TestSessionLastsForOneTest(t *testing.T) {
	mod, _ := newNotesModule(t)

	for _, name := range []string{"first", "second"} {
		t.Run(name, func(t *testing.T) {
			c := mod.Attach(t)
			for visit := 1; visit <= 2; visit++ {
				resp, err := c.Get(context.Background(), "/visits")
				require.NoError(t, err)
				var body map[string]int
				require.NoError(t, json.Unmarshal(resp.Body, &body))
				assert.Equal(t, visit, body["visits"])
			}
			require.Len(t, c.Cookies(), 1)
			assert.Equal(t, "2", c.Cookies()[0].Value)
		})
	}
}

func TestApplicationSeesServerEnvironment(t *testing.T) {
	mod, _ := newNotesModule(t)
	c := mod.Attach(t)

	resp, err := c.Get(context.Background(), "/server")
	require.NoError(t, err)
	var vars map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &vars))
	assert.Equal(t, "/index.php", vars[appenv.VarScriptName])
	assert.Equal(t, "localhost", vars[appenv.VarServerName])
	assert.Equal(t, "80", vars[appenv.VarServerPort])
	assert.Equal(t, "off", vars[appenv.VarHTTPS])
	assert.Equal(t, "/server", vars[appenv.VarRequestURI])
	assert.Equal(t, "false", vars["TLS"])
}

func TestNotesInternalDomains(t *testing.T) {
	mod, _ := newNotesModule(t)
	c := mod.Attach(t)

	domains, err := mod.InternalDomains()
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, `(?i)^localhost$`, domains[0].String())
	assert.Equal(t, `(?i)^(?:en|fr)\.notes\.test$`, domains[1].String())

	assert.True(t, mod.IsInternalURL("http://en.notes.test/"))
	assert.False(t, mod.IsInternalURL("http://de.notes.test/"))

	resp, err := c.Get(context.Background(), "http://fr.notes.test/")
	require.NoError(t, err)
	assert.Equal(t, "fr", string(resp.Body))
}
