package appenv

import (
	"net/url"
	"strings"

	"github.com/launchdarkly/app-test-harness/framework/helpers"
)

// DefaultServerPort is used when the application URL does not specify a port.
const DefaultServerPort = "80"

// Keys of the server variables produced by ServerEnvironment.Vars.
const (
	VarScriptFilename = "SCRIPT_FILENAME"
	VarScriptName     = "SCRIPT_NAME"
	VarServerName     = "SERVER_NAME"
	VarServerPort     = "SERVER_PORT"
	VarHTTPS          = "HTTPS"
)

// ServerEnvironment is a synthetic snapshot of the request-context variables that a real web
// server would provide to the application. It is derived only from the entry path and URL.
type ServerEnvironment struct {
	// ScriptFilename is the filesystem path of the application entry point.
	ScriptFilename string
	// ScriptName is the URL path of the entry point, such as "/index.php".
	ScriptName string
	// ServerName is the host name, without any port.
	ServerName string
	// ServerPort is the port from the URL, or DefaultServerPort.
	ServerPort string
	// IsHTTPS is true if the URL scheme is https.
	IsHTTPS bool
}

// Synthesize derives a ServerEnvironment from the configured entry path and application URL.
//
// This is a best-effort simulation: it never fails. If appURL cannot be parsed, the path and host
// components are empty strings and the port is the default.
func Synthesize(appEntryPath, appURL string) ServerEnvironment {
	env := ServerEnvironment{
		ScriptFilename: appEntryPath,
		ServerPort:     DefaultServerPort,
	}
	u, err := url.Parse(appURL)
	if err != nil {
		return env
	}
	env.ScriptName = u.Path
	env.ServerName = u.Hostname()
	if port := u.Port(); port != "" {
		env.ServerPort = port
	}
	env.IsHTTPS = strings.EqualFold(u.Scheme, "https")
	return env
}

// Vars returns the environment as server variables. Every key is always present; HTTPS is "on"
// or "off".
func (e ServerEnvironment) Vars() Vars {
	return Vars{
		VarScriptFilename: e.ScriptFilename,
		VarScriptName:     e.ScriptName,
		VarServerName:     e.ServerName,
		VarServerPort:     e.ServerPort,
		VarHTTPS:          helpers.IfElse(e.IsHTTPS, "on", "off"),
	}
}

// Keys of the per-request variables produced by RequestVars.
const (
	VarRequestMethod = "REQUEST_METHOD"
	VarRequestURI    = "REQUEST_URI"
	VarQueryString   = "QUERY_STRING"
)

// RequestVars returns the server variables that describe a single request.
func RequestVars(method, requestURI, rawQuery string) Vars {
	return Vars{
		VarRequestMethod: method,
		VarRequestURI:    requestURI,
		VarQueryString:   rawQuery,
	}
}
