package testapp

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/launchdarkly/app-test-harness/app"
)

// Bridge is the application bridge for the notes application. It has nothing to override; it
// only counts how many times it was launched.
type Bridge struct {
	launches atomic.Int32
}

func (b *Bridge) Launch() error {
	b.launches.Add(1)
	return nil
}

// Launches returns the number of times Launch was called.
func (b *Bridge) Launches() int {
	return int(b.launches.Load())
}

// Install registers the notes application with a registry and installs a new Bridge.
func Install(registry *app.Registry) *Bridge {
	b := &Bridge{}
	registry.RegisterFactory(Class, NewApplication)
	registry.InstallBridge(b)
	return b
}

// WriteEntryDescriptor writes an entry descriptor for the notes application, using the database
// file dsn, into dir. It returns the descriptor's path.
func WriteEntryDescriptor(dir, dsn string) (string, error) {
	data, err := yaml.Marshal(map[string]interface{}{
		"class":  Class,
		"config": map[string]string{ConfigDSN: dsn},
	})
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "entry.yml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
