package main

import (
	"fmt"
	"log"
	"os"

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/framework"
	"github.com/launchdarkly/app-test-harness/framework/ldtest"
	"github.com/launchdarkly/app-test-harness/harness"
	"github.com/launchdarkly/app-test-harness/testapp"
)

func main() {
	fmt.Println("app-test-harness")

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*ldtest.Results, error) {
	cfg, err := params.harness.Config()
	if err != nil {
		return nil, err
	}

	mainDebugLogger := framework.NullLogger()
	if params.harness.Debug {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	stores, err := params.fixtureStores()
	if err != nil {
		return nil, err
	}

	testapp.Install(app.DefaultRegistry)
	module, err := harness.New(cfg,
		harness.WithLogger(mainDebugLogger),
		harness.WithFixtureStores(stores...),
	)
	if err != nil {
		return nil, err
	}
	if err := module.Initialize(); err != nil {
		return nil, err
	}
	defer func() {
		if err := module.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shut down application: %s\n", err)
		}
	}()

	testLogger := ldtest.ConsoleTestLogger{
		DebugOutputOnFailure: params.harness.Debug,
	}
	results := runSmokeSuite(module, testLogger)

	fmt.Println()
	ldtest.PrintResults(results, os.Stdout, os.Stderr)
	return &results, nil
}
