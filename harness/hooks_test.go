package harness

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/app-test-harness/framework/ldtest"
)

func TestHooksRunLifecycleAroundLdtestTests(t *testing.T) {
	f := newStubFixture()
	mod := f.initializedModule(t)

	var generations []int
	results := ldtest.Run(ldtest.TestConfiguration{Hooks: []ldtest.TestHooks{mod.Hooks()}}, func(t *ldtest.T) {
		for _, name := range []string{"first", "second"} {
			t.Run(name, func(t *ldtest.T) {
				generations = append(generations, mod.Handle().Generation())
				assert.True(t, f.conn.InTransaction())
				t.Run("subtest", func(t *ldtest.T) {
					assert.True(t, f.conn.InTransaction())
				})
			})
		}
	})

	assert.True(t, results.OK())
	assert.Equal(t, []int{2, 3}, generations)
	assert.Equal(t, 2, f.conn.begins)
	assert.Equal(t, 2, f.conn.rollbacks)
	assert.Contains(t, f.logger.Output().ToString(""), `Finished test "second"`)
}

func TestHooksFailTestIfSetupFails(t *testing.T) {
	f := newStubFixture()
	mod := f.newModule(t, f.config(t)) // not initialized

	executed := false
	results := ldtest.Run(ldtest.TestConfiguration{Hooks: []ldtest.TestHooks{mod.Hooks()}}, func(t *ldtest.T) {
		t.Run("test", func(t *ldtest.T) {
			executed = true
		})
	})

	assert.False(t, executed)
	require.Len(t, results.Failures, 1)
	assert.Contains(t, fmt.Sprint(results.Failures[0].Errors), ErrNotInitialized.Error())
}

type fakeTestScope struct {
	name     string
	fatal    string
	cleanups []func()
}

func (s *fakeTestScope) Helper()          {}
func (s *fakeTestScope) Name() string     { return s.name }
func (s *fakeTestScope) Cleanup(f func()) { s.cleanups = append(s.cleanups, f) }

func (s *fakeTestScope) Fatalf(format string, args ...interface{}) {
	s.fatal = fmt.Sprintf(format, args...)
}

func (s *fakeTestScope) finish() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
}

func TestAttach(t *testing.T) {
	f := newStubFixture()
	mod := f.initializedModule(t)
	scope := &fakeTestScope{name: "TestSomething"}

	client := mod.Attach(scope)
	require.NotNil(t, client)
	assert.Empty(t, scope.fatal)
	assert.True(t, f.conn.InTransaction())
	require.Len(t, scope.cleanups, 1)

	scope.finish()
	assert.False(t, f.conn.InTransaction())
	assert.Equal(t, 1, f.conn.rollbacks)
}

func TestAttachReportsSetupFailure(t *testing.T) {
	f := newStubFixture()
	mod := f.newModule(t, f.config(t))
	scope := &fakeTestScope{name: "TestSomething"}

	assert.Nil(t, mod.Attach(scope))
	assert.Contains(t, scope.fatal, "test setup failed")
	assert.Len(t, scope.cleanups, 0)
}

func TestAttachInitOnly(t *testing.T) {
	f := newStubFixture()
	cfg := f.config(t)
	cfg.Part = "init"
	mod := f.newModule(t, cfg)
	require.NoError(t, mod.Initialize())
	scope := &fakeTestScope{name: "TestSomething"}

	assert.Nil(t, mod.Attach(scope))
	assert.Empty(t, scope.fatal)
	assert.True(t, f.conn.InTransaction())
	scope.finish()
}
