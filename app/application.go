package app

import (
	"net/http"
)

// URL manager formats. Only URLFormatPath exposes host-aware routing rules.
const (
	URLFormatPath = "path"
	URLFormatGet  = "get"
)

// DBComponent is the component name under which an application registers its database connection.
const DBComponent = "db"

// Application is an application under test, running in the same process as the tests.
type Application interface {
	// ServeHTTP handles one simulated request.
	http.Handler

	// Component returns a named application component, such as DBComponent.
	Component(name string) (interface{}, bool)

	// HostInfo returns the scheme and host that the application considers its own, such as
	// "http://localhost:8080".
	HostInfo() string

	// URLManager returns the application's routing component.
	URLManager() URLManager

	// Close releases everything the application holds. It is called whenever the harness resets
	// the application, so it must undo any process-wide registration the application made.
	Close() error
}

// URLManager is the routing component of an application.
type URLManager interface {
	// Format returns the routing mode, such as URLFormatPath.
	Format() string
}

// RuleLister is implemented by a URLManager that can enumerate its routing rules.
type RuleLister interface {
	Rules() []URLRule
}

// URLRule is one routing rule, as needed for recognizing the application's own domains.
type URLRule struct {
	// Template is the rule pattern with named placeholders in angle brackets, such as
	// "http://<lang>.example.com/<page>". It may or may not include a scheme and host.
	Template string

	// Params maps each placeholder name to the regular expression that its value must match.
	Params map[string]string

	// HasHostInfo is true if the template includes a host part.
	HasHostInfo bool
}
