// Package testapp is a small notes application backed by SQLite. It is used to exercise the
// harness end to end, both in tests and from the smoke-test command.
package testapp
