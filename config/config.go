package config

import (
	"fmt"
	"os"

	"github.com/launchdarkly/app-test-harness/framework/opt"
)

// Part selects how much of the harness module is active.
type Part string

const (
	// PartFull enables the lifecycle and the test-action surface. This is the default.
	PartFull Part = "full"

	// PartInit enables only the lifecycle, so the module can share a suite with a browser
	// automation module without both exposing test actions.
	PartInit Part = "init"

	// PartInitialize is an alias for PartInit.
	PartInitialize Part = "initialize"
)

// HarnessConfig is the configuration of a harness module. It is treated as immutable once the
// module has been initialized.
type HarnessConfig struct {
	// AppEntryPath is the filesystem path of the application bootstrap descriptor. Required.
	AppEntryPath string `json:"appPath"`

	// AppURL is the fully-qualified URL of the application entry point, used to synthesize the
	// request environment and to recognize internal links. Required.
	AppURL string `json:"url"`

	// Transaction enables per-test transactional rollback. Defaults to true.
	Transaction opt.Maybe[bool] `json:"transaction"`

	// Part optionally restricts the module to its initialization lifecycle.
	Part Part `json:"part,omitempty"`
}

// TransactionEnabled returns the effective value of the Transaction option.
func (c HarnessConfig) TransactionEnabled() bool {
	return c.Transaction.OrElse(true)
}

// Validate checks that all required options are present and that Part is recognized.
func (c HarnessConfig) Validate() error {
	if c.AppEntryPath == "" {
		return missingField("appPath")
	}
	if c.AppURL == "" {
		return missingField("url")
	}
	switch c.Part {
	case "", PartFull, PartInit, PartInitialize:
	default:
		return &ConfigError{Field: "part", Message: fmt.Sprintf("unknown part %q (expected %q or %q)",
			c.Part, PartInit, PartFull)}
	}
	return nil
}

// Load reads a HarnessConfig from a YAML or JSON file and validates it.
func Load(path string) (HarnessConfig, error) {
	var c HarnessConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return c, &ConfigError{Path: path, Message: "cannot read harness configuration", Err: err}
	}
	if err := ParseJSONOrYAML(data, &c); err != nil {
		return c, &ConfigError{Path: path, Message: "malformed harness configuration", Err: err}
	}
	if err := c.Validate(); err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.Path = path
		}
		return c, err
	}
	return c, nil
}
