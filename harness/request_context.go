package harness

import (
	"context"
	"mime/multipart"
	"net/url"
	"sync"

	"github.com/launchdarkly/app-test-harness/appenv"
)

// RequestContext is the request-scoped state that an application reads while handling a simulated
// request: the session, uploaded files, and the query, body, cookie and combined request
// parameters. The Client fills it in for each request and the Module empties it after each test.
//
// The session persists across requests within a test, like a real session would.
type RequestContext struct {
	Session map[string]interface{}
	Files   map[string][]*multipart.FileHeader
	Query   url.Values
	Post    url.Values
	Cookies map[string]string
	Request url.Values

	forms []*multipart.Form
	lock  sync.Mutex
}

// NewRequestContext creates an empty RequestContext.
func NewRequestContext() *RequestContext {
	rc := &RequestContext{}
	rc.Reset()
	return rc
}

// Reset replaces every map with an empty one, and removes any temporary files that were created
// for uploads.
func (rc *RequestContext) Reset() {
	rc.lock.Lock()
	defer rc.lock.Unlock()
	for _, form := range rc.forms {
		_ = form.RemoveAll()
	}
	rc.forms = nil
	rc.Session = make(map[string]interface{})
	rc.Files = make(map[string][]*multipart.FileHeader)
	rc.Query = make(url.Values)
	rc.Post = make(url.Values)
	rc.Cookies = make(map[string]string)
	rc.Request = make(url.Values)
}

// IsEmpty returns true if every map is empty.
func (rc *RequestContext) IsEmpty() bool {
	rc.lock.Lock()
	defer rc.lock.Unlock()
	return len(rc.Session) == 0 && len(rc.Files) == 0 && len(rc.Query) == 0 && len(rc.Post) == 0 &&
		len(rc.Cookies) == 0 && len(rc.Request) == 0
}

// SessionValue returns a session value.
func (rc *RequestContext) SessionValue(key string) (interface{}, bool) {
	rc.lock.Lock()
	defer rc.lock.Unlock()
	v, ok := rc.Session[key]
	return v, ok
}

// SetSessionValue sets a session value.
func (rc *RequestContext) SetSessionValue(key string, value interface{}) {
	rc.lock.Lock()
	rc.Session[key] = value
	rc.lock.Unlock()
}

func (rc *RequestContext) beginRequest(query, post url.Values, files map[string][]*multipart.FileHeader,
	cookies map[string]string) {
	rc.lock.Lock()
	defer rc.lock.Unlock()
	rc.Query = query
	rc.Post = post
	rc.Files = files
	rc.Cookies = cookies
	rc.Request = make(url.Values, len(query)+len(post))
	for k, vs := range query {
		rc.Request[k] = append([]string(nil), vs...)
	}
	for k, vs := range post {
		rc.Request[k] = append([]string(nil), vs...)
	}
}

// trackForm keeps a parsed multipart form until the next Reset, so that its uploaded files stay
// readable for the rest of the test.
func (rc *RequestContext) trackForm(form *multipart.Form) {
	rc.lock.Lock()
	rc.forms = append(rc.forms, form)
	rc.lock.Unlock()
}

type requestContextKey struct{}

type serverVarsKey struct{}

// RequestContextFrom returns the RequestContext of a simulated request. Application handlers call
// this with the request's Context.
func RequestContextFrom(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok
}

// ServerVarsFrom returns the server variables of a simulated request.
func ServerVarsFrom(ctx context.Context) appenv.Vars {
	vars, _ := ctx.Value(serverVarsKey{}).(appenv.Vars)
	return vars
}

// WithRequestState returns a copy of ctx that carries a RequestContext and server variables, as
// seen by an application handler. The Client does this for every request; tests of individual
// handlers can use it directly.
func WithRequestState(ctx context.Context, rc *RequestContext, vars appenv.Vars) context.Context {
	ctx = context.WithValue(ctx, requestContextKey{}, rc)
	return context.WithValue(ctx, serverVarsKey{}, vars)
}
