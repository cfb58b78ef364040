package app

import (
	"os"
)

// Runtime constants that put an application framework into test mode.
const (
	ConstDebug                  = "APP_DEBUG"
	ConstEnv                    = "APP_ENV"
	ConstEnableExceptionHandler = "APP_ENABLE_EXCEPTION_HANDLER"
	ConstEnableErrorHandler     = "APP_ENABLE_ERROR_HANDLER"
)

type constantDefinition struct {
	name, value string
}

var testModeConstants = []constantDefinition{ //nolint:gochecknoglobals
	{ConstDebug, "true"},
	{ConstEnv, "test"},
	{ConstEnableExceptionHandler, "false"},
	{ConstEnableErrorHandler, "false"},
}

// ConstantStore is where runtime constants live. A constant can be defined once; defining it
// again has no effect.
type ConstantStore interface {
	Lookup(name string) (string, bool)
	Define(name, value string) error
}

// ProcessConstants stores constants as process environment variables.
type ProcessConstants struct{}

func (ProcessConstants) Lookup(name string) (string, bool) { return os.LookupEnv(name) }
func (ProcessConstants) Define(name, value string) error   { return os.Setenv(name, value) }

// MapConstants stores constants in a map.
type MapConstants map[string]string

func (m MapConstants) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MapConstants) Define(name, value string) error {
	m[name] = value
	return nil
}

// DefineConstants defines each test-mode constant that is not already defined, and returns the
// names of the ones it defined. Constants that already have a value keep it.
func DefineConstants(store ConstantStore) ([]string, error) {
	var defined []string
	for _, c := range testModeConstants {
		if _, ok := store.Lookup(c.name); ok {
			continue
		}
		if err := store.Define(c.name, c.value); err != nil {
			return defined, err
		}
		defined = append(defined, c.name)
	}
	return defined, nil
}
