// Package ldtest contains a small test runner that is similar to Go's testing package, but runs as
// regular application code. It is used by the harness smoke command; its TestHooks interface is
// how a harness module gets called before and after each test.
package ldtest
