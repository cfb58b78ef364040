package harness

import (
	"github.com/launchdarkly/app-test-harness/framework/ldtest"
)

// Hooks returns the module's test lifecycle as ldtest hooks, for use in
// ldtest.TestConfiguration.Hooks.
func (m *Module) Hooks() ldtest.TestHooks {
	return ldtest.TestHooksFuncs{
		Before: func(id ldtest.TestID) error { return m.BeforeTest(id.String()) },
		After:  func(id ldtest.TestID) { m.AfterTest(id.String()) },
	}
}

// TestScope is the part of testing.TB that Attach uses.
type TestScope interface {
	Helper()
	Name() string
	Cleanup(func())
	Fatalf(format string, args ...interface{})
}

// Attach starts a test in the standard testing package. It calls BeforeTest, registers AfterTest
// as a cleanup, and returns the test's Client. The Client is nil if the module is init-only.
//
//	func TestCreateNote(t *testing.T) {
//		client := module.Attach(t)
//		resp, err := client.PostForm(context.Background(), "/notes", url.Values{"body": {"x"}})
//		...
//	}
func (m *Module) Attach(t TestScope) *Client {
	t.Helper()
	name := t.Name()
	if err := m.BeforeTest(name); err != nil {
		t.Fatalf("test setup failed: %s", err)
		return nil
	}
	t.Cleanup(func() { m.AfterTest(name) })
	client, err := m.Client()
	if err != nil {
		return nil
	}
	return client
}
