package config

import "fmt"

// ConfigError describes a configuration problem that prevents the harness from starting. It is
// always fatal: the suite should abort when it sees one.
type ConfigError struct { //nolint:revive
	// Field is the name of the configuration option involved, if any, such as "appPath".
	Field string
	// Path is the file involved, if any.
	Path string
	// Message describes the problem.
	Message string
	// Err is the underlying error, if any.
	Err error
}

func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in %q", e.Field)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func missingField(field string) error {
	return &ConfigError{Field: field, Message: "required option is not set"}
}
