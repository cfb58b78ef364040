package ldtest

// TestHooks is implemented by anything that needs to be notified around each test, such as a
// harness module that resets application state.
//
// Hooks apply to the outermost test scopes only: if a test has subtests, BeforeTest is called once
// when the test starts and AfterTest once when it and all of its subtests are done. This keeps a
// single set of per-test state (like an open database transaction) for the whole tree.
type TestHooks interface {
	// BeforeTest is called before the test body runs. If it returns an error, the test fails
	// without running and AfterTest is not called.
	BeforeTest(id TestID) error

	// AfterTest is called after the test body and all of its cleanups, whatever the outcome.
	AfterTest(id TestID)
}

// TestHooksFuncs adapts a pair of functions to the TestHooks interface. Either may be nil.
type TestHooksFuncs struct {
	Before func(TestID) error
	After  func(TestID)
}

func (h TestHooksFuncs) BeforeTest(id TestID) error {
	if h.Before == nil {
		return nil
	}
	return h.Before(id)
}

func (h TestHooksFuncs) AfterTest(id TestID) {
	if h.After != nil {
		h.After(id)
	}
}
