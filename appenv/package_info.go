// Package appenv builds the simulated server environment that an in-process request sees, and
// provides the Vars map type used to snapshot and restore that environment between tests.
package appenv
