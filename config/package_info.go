// Package config defines the harness module configuration, how it is read from a suite file or
// command-line flags, and the ConfigError type used for every fatal configuration problem.
package config
