// Package framework contains the low-level pieces shared by the rest of the test harness: the
// Logger abstraction, output capturing for individual tests, and the Parts type.
//
// The general model is:
//
// 1. A harness module (see package harness) owns one in-process application and manages its
// lifecycle around every test.
//
// 2. A host test runner (either Go's testing package or the ldtest runner in this repository)
// calls the module before and after each test.
//
// 3. Tests dispatch simulated HTTP requests into the application through a per-test client, and
// anything the application writes to its database during a test is rolled back afterward.
package framework
