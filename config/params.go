package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/launchdarkly/app-test-harness/framework/opt"
)

// Params holds command-line overrides for a HarnessConfig. Any option that is given on the
// command line takes precedence over the same option in the configuration file.
type Params struct {
	ConfigFile  string
	AppPath     string
	URL         string
	Part        string
	Transaction opt.Maybe[bool]
	Debug       bool
}

// AddFlags defines the harness command-line flags on fs.
func (p *Params) AddFlags(fs *flag.FlagSet) {
	fs.StringVar(&p.ConfigFile, "config", "", "YAML or JSON file with the harness configuration")
	fs.StringVar(&p.AppPath, "app-path", "", "application entry descriptor (overrides appPath)")
	fs.StringVar(&p.URL, "url", "", "application entry URL (overrides url)")
	fs.StringVar(&p.Part, "part", "", `"init" to enable only the initialization lifecycle`)
	fs.Func("transaction", "enable per-test transaction rollback (true/false)", func(s string) error {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		p.Transaction = opt.Some(b)
		return nil
	})
	fs.BoolVar(&p.Debug, "debug", false, "enable debug logging")
}

// Check returns an error if the flags cannot describe a complete configuration.
func (p Params) Check() error {
	if p.ConfigFile == "" && (p.AppPath == "" || p.URL == "") {
		return errors.New("either -config, or both -app-path and -url, are required")
	}
	return nil
}

// Read parses the command-line arguments (not including the program name). If they are invalid,
// it writes the error and usage to errOut and returns false.
func (p *Params) Read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(errOut)
	p.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return false
	}
	if err := p.Check(); err != nil {
		fmt.Fprintln(errOut, err)
		fs.Usage()
		return false
	}
	return true
}

// Config builds the effective HarnessConfig from the configuration file, if any, and the
// command-line overrides.
func (p Params) Config() (HarnessConfig, error) {
	var c HarnessConfig
	if p.ConfigFile != "" {
		loaded, err := Load(p.ConfigFile)
		if err != nil {
			if ce, ok := err.(*ConfigError); !ok || ce.Field == "" {
				return c, err
			}
			// a missing field may still be supplied by a flag
		}
		c = loaded
	}
	if p.AppPath != "" {
		c.AppEntryPath = p.AppPath
	}
	if p.URL != "" {
		c.AppURL = p.URL
	}
	if p.Part != "" {
		c.Part = Part(p.Part)
	}
	if p.Transaction.IsDefined() {
		c.Transaction = p.Transaction
	}
	return c, c.Validate()
}
