package app

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/app-test-harness/config"
)

// Settings is the application bootstrap information read from the entry descriptor.
type Settings struct {
	// Class selects the Factory that creates the application.
	Class string

	// Config is the application configuration, passed to the Factory unchanged.
	Config ldvalue.ValueMap
}

type entryDescriptor struct {
	Class  string          `json:"class"`
	Config json.RawMessage `json:"config"`
}

// LoadSettings reads the bootstrap descriptor at entryPath, a YAML or JSON file such as:
//
//	class: notes.App
//	config: protected/config/test.yml
//
// The config property is either an inline mapping or the path of a second YAML or JSON file that
// contains the mapping. A relative path is resolved against the descriptor's directory.
//
// Every failure is a *config.ConfigError.
func LoadSettings(entryPath string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(entryPath)
	if err != nil {
		return s, &config.ConfigError{Field: "appPath", Path: entryPath,
			Message: "cannot load application bootstrap descriptor; provide a bootstrap file configured for testing",
			Err:     err}
	}
	var desc entryDescriptor
	if err := config.ParseJSONOrYAML(data, &desc); err != nil {
		return s, &config.ConfigError{Field: "appPath", Path: entryPath,
			Message: "malformed application bootstrap descriptor", Err: err}
	}
	if desc.Class == "" {
		return s, &config.ConfigError{Field: "class", Path: entryPath,
			Message: "bootstrap descriptor does not name an application class"}
	}
	s.Class = desc.Class

	configValue := ldvalue.Parse(desc.Config)
	switch configValue.Type() {
	case ldvalue.ObjectType:
		if err := json.Unmarshal(desc.Config, &s.Config); err != nil {
			return s, &config.ConfigError{Field: "config", Path: entryPath,
				Message: "malformed inline application configuration", Err: err}
		}
	case ldvalue.StringType:
		configPath := configValue.StringValue()
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(filepath.Dir(entryPath), configPath)
		}
		if s.Config, err = loadConfigFile(configPath); err != nil {
			return s, err
		}
	default:
		return s, &config.ConfigError{Field: "config", Path: entryPath,
			Message: "bootstrap descriptor must provide a config mapping or the path of a config file"}
	}
	return s, nil
}

func loadConfigFile(path string) (ldvalue.ValueMap, error) {
	var m ldvalue.ValueMap
	data, err := os.ReadFile(path)
	if err != nil {
		return m, &config.ConfigError{Field: "config", Path: path,
			Message: "cannot load application configuration file; provide a valid config parameter", Err: err}
	}
	if err := config.ParseJSONOrYAML(data, &m); err != nil {
		return m, &config.ConfigError{Field: "config", Path: path,
			Message: "malformed application configuration file", Err: err}
	}
	return m, nil
}
