package framework

import "github.com/launchdarkly/app-test-harness/framework/helpers"

// Parts is a list of the partial-activation modes that a harness module supports. A suite can
// enable just one of these parts to get the module's lifecycle behavior without its test actions.
type Parts []string

// Has returns true if the specified part name appears in the list.
func (ps Parts) Has(name string) bool {
	return helpers.SliceContains(name, ps)
}
