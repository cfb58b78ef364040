package harness

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/launchdarkly/app-test-harness/app"
)

// DomainPattern is a compiled pattern that matches one of the host names the application serves.
// Patterns are anchored and case-insensitive.
type DomainPattern struct {
	re *regexp.Regexp
}

func (p DomainPattern) String() string { return p.re.String() }

// Regexp returns the compiled pattern.
func (p DomainPattern) Regexp() *regexp.Regexp { return p.re }

// MatchString reports whether host matches the pattern.
func (p DomainPattern) MatchString(host string) bool { return p.re.MatchString(host) }

// DomainPatternError describes a routing rule whose template could not be turned into a pattern.
// Such rules are skipped.
type DomainPatternError struct {
	Template string
	Reason   string
}

func (e *DomainPatternError) Error() string {
	return fmt.Sprintf("cannot build domain pattern from rule template %q: %s", e.Template, e.Reason)
}

// NewDomainPattern builds a pattern from a routing template such as "http://<lang>.example.com".
//
// If the template has a scheme, only its host is used, without any port. Each "<name>"
// placeholder is replaced by the regular expression params[name]; all other text is matched
// literally.
func NewDomainPattern(template string, params map[string]string) (DomainPattern, error) {
	source, err := domainRegexSource(template, params)
	if err != nil {
		return DomainPattern{}, err
	}
	re, err := regexp.Compile(source)
	if err != nil {
		return DomainPattern{}, &DomainPatternError{Template: template, Reason: err.Error()}
	}
	return DomainPattern{re: re}, nil
}

func domainRegexSource(template string, params map[string]string) (string, error) {
	fail := func(format string, args ...interface{}) (string, error) {
		return "", &DomainPatternError{Template: template, Reason: fmt.Sprintf(format, args...)}
	}
	rest := templateHost(template)
	var b strings.Builder
	b.WriteString("(?i)^")
	for rest != "" {
		open := strings.IndexAny(rest, "<>")
		if open < 0 {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		if rest[open] == '>' {
			return fail("unexpected '>'")
		}
		b.WriteString(regexp.QuoteMeta(rest[:open]))
		rest = rest[open+1:]
		end := strings.IndexAny(rest, "<>")
		if end < 0 || rest[end] != '>' {
			return fail("unterminated placeholder")
		}
		name := rest[:end]
		rest = rest[end+1:]
		if name == "" {
			return fail("empty placeholder name")
		}
		value, ok := params[name]
		if !ok {
			return fail("no pattern for placeholder %q", name)
		}
		if _, err := regexp.Compile(value); err != nil {
			return fail("invalid pattern for placeholder %q: %s", name, err)
		}
		b.WriteString("(?:" + value + ")")
	}
	b.WriteString("$")
	return b.String(), nil
}

// templateHost returns the host part of a template that has a scheme, or the whole template
// otherwise. This is done by hand because url.Parse rejects the angle brackets of placeholders.
func templateHost(template string) string {
	scheme, rest, ok := strings.Cut(template, "://")
	if !ok || scheme == "" || strings.ContainsAny(scheme, "/<>.") {
		return template
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 && isDigits(rest[i+1:]) {
		rest = rest[:i]
	}
	if rest == "" {
		return template
	}
	return rest
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// InternalDomains returns patterns for every host name the live application considers its own:
// the host of its HostInfo first, then the host of each host-aware routing rule if the URL manager
// uses path format. Duplicates are removed. Rules that cannot be converted are logged and skipped.
func (m *Module) InternalDomains() ([]DomainPattern, error) {
	m.lock.Lock()
	a := m.handle.Current()
	m.lock.Unlock()
	if a == nil {
		return nil, ErrNoApplication
	}

	var ret []DomainPattern
	seen := make(map[string]bool)
	add := func(template string, params map[string]string) error {
		p, err := NewDomainPattern(template, params)
		if err != nil {
			return err
		}
		if !seen[p.String()] {
			seen[p.String()] = true
			ret = append(ret, p)
		}
		return nil
	}

	if err := add(a.HostInfo(), nil); err != nil {
		return nil, err
	}
	manager := a.URLManager()
	if manager == nil || manager.Format() != app.URLFormatPath {
		return ret, nil
	}
	lister, ok := manager.(app.RuleLister)
	if !ok {
		return ret, nil
	}
	for _, rule := range lister.Rules() {
		if !rule.HasHostInfo {
			continue
		}
		if err := add(rule.Template, rule.Params); err != nil {
			m.logger.Printf("Skipping routing rule: %s", err)
		}
	}
	return ret, nil
}

// IsInternalURL reports whether a link points at the application: either it is relative, or its
// host matches one of InternalDomains. A pattern built from a template with a path and no scheme
// is matched against the host followed by the path.
func (m *Module) IsInternalURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return u.Scheme == ""
	}
	domains, err := m.InternalDomains()
	if err != nil {
		return false
	}
	for _, d := range domains {
		if d.MatchString(u.Hostname()) || d.MatchString(u.Host) || d.MatchString(u.Hostname()+u.Path) {
			return true
		}
	}
	return false
}
