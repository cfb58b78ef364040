package muxapp

import (
	"fmt"
	"strings"

	"github.com/gorilla/mux"

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/framework"
)

// Patterns that mux uses for a variable with no explicit pattern.
const (
	defaultHostVarPattern = "[^.]+"
	defaultPathVarPattern = "[^/]+"
)

type urlManager struct {
	router *mux.Router
	format string
	logger framework.Logger
}

func (u urlManager) Format() string {
	return u.format
}

// Rules returns a rule for every route, including subrouter routes, that matches on host. Routes
// without a host template are returned with HasHostInfo false.
func (u urlManager) Rules() []app.URLRule {
	var rules []app.URLRule
	err := u.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if err := route.GetError(); err != nil {
			u.logger.Printf("Skipping route with invalid template: %s", err)
			return nil
		}
		if host, err := route.GetHostTemplate(); err == nil && host != "" {
			template, params, err := convertTemplate(host, defaultHostVarPattern)
			if err != nil {
				// keep the rule so that it is reported when the pattern is built
				rules = append(rules, app.URLRule{Template: host, HasHostInfo: true})
				return nil
			}
			rules = append(rules, app.URLRule{Template: template, Params: params, HasHostInfo: true})
			return nil
		}
		if path, err := route.GetPathTemplate(); err == nil {
			template, params, err := convertTemplate(path, defaultPathVarPattern)
			if err == nil {
				rules = append(rules, app.URLRule{Template: template, Params: params})
			}
		}
		return nil
	})
	if err != nil {
		u.logger.Printf("Failed to list all routes: %s", err)
	}
	return rules
}

// convertTemplate turns a mux template such as "{lang:[a-z]{2}}.example.com" into
// "<lang>.example.com" with params {"lang": "[a-z]{2}"}.
func convertTemplate(muxTemplate, defaultPattern string) (string, map[string]string, error) {
	var b strings.Builder
	params := make(map[string]string)
	rest := muxTemplate
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		end, err := closingBrace(rest, start)
		if err != nil {
			return "", nil, fmt.Errorf("%s in %q", err, muxTemplate)
		}
		name, pattern, found := strings.Cut(rest[start+1:end], ":")
		if name == "" {
			return "", nil, fmt.Errorf("missing variable name in %q", muxTemplate)
		}
		if !found || pattern == "" {
			pattern = defaultPattern
		}
		params[name] = pattern
		b.WriteString("<" + name + ">")
		rest = rest[end+1:]
	}
	return b.String(), params, nil
}

func closingBrace(s string, start int) (int, error) {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced braces")
}
