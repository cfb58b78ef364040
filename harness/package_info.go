// Package harness runs an application in the same process as the tests, giving each test a freshly
// booted application, a synthetic request environment, and a database transaction that is rolled
// back when the test ends.
//
// A Module is created once per suite and initialized before the first test. Each test is bracketed
// by Module.BeforeTest and Module.AfterTest, which can be wired to a test runner with Module.Hooks
// (for ldtest) or Module.Attach (for the standard testing package). During a test, the Client
// sends simulated requests straight into the application's http.Handler.
package harness
