package appenv

import (
	"os"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/launchdarkly/app-test-harness/framework/helpers"
)

// Vars is a set of server or process environment variables.
type Vars map[string]string

// Merge returns a new Vars containing base overlaid with each of the overlays in order, so that
// later maps win. None of the inputs are modified, and applying the same merge twice gives the
// same result.
func Merge(base Vars, overlays ...Vars) Vars {
	ret := make(Vars, len(base))
	maps.Copy(ret, base)
	for _, o := range overlays {
		maps.Copy(ret, o)
	}
	return ret
}

// Clone returns a copy of the map. A nil Vars clones to an empty map.
func (v Vars) Clone() Vars {
	return Merge(v)
}

// Keys returns the variable names in sorted order.
func (v Vars) Keys() []string {
	return helpers.Sorted(maps.Keys(v))
}

// Get returns the value of a variable, or "" if it is not set.
func (v Vars) Get(name string) string {
	return v[name]
}

// ParseEnviron converts a list of "name=value" strings, as returned by os.Environ, into Vars.
// Entries without "=" are ignored.
func ParseEnviron(environ []string) Vars {
	ret := make(Vars, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		ret[name] = value
	}
	return ret
}

// CaptureProcessEnvironment returns the current process environment as Vars.
func CaptureProcessEnvironment() Vars {
	return ParseEnviron(os.Environ())
}
