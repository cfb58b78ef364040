package harness

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/appenv"
	"github.com/launchdarkly/app-test-harness/framework"
)

const (
	simulatedRemoteAddr = "127.0.0.1:40000"
	formContentType     = "application/x-www-form-urlencoded"
	maxMultipartMemory  = 32 << 20
)

// Request describes a simulated request. Path is resolved against the application URL, so a
// relative path is relative to the entry point and an absolute one replaces its path.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header

	// Form is sent as a URL-encoded body, unless Body is also set.
	Form url.Values

	// Body is sent as is. Set a Content-Type header along with it.
	Body []byte
}

// Response is what the application wrote for a simulated request.
type Response struct {
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Body    []byte
}

// Client sends simulated requests into the live application. A new Client is created for each
// test, so cookies never carry over from one test to the next.
type Client struct {
	env            appenv.ServerEnvironment
	appEntryPath   string
	appURL         string
	baseURL        *url.URL
	settings       app.Settings
	handle         *app.Handle
	requestContext *RequestContext
	serverVars     func() appenv.Vars
	jar            http.CookieJar
	logger         framework.Logger
}

func newClient(
	env appenv.ServerEnvironment,
	appEntryPath, appURL string,
	settings app.Settings,
	handle *app.Handle,
	requestContext *RequestContext,
	serverVars func() appenv.Vars,
	logger framework.Logger,
) (*Client, error) {
	baseURL, err := url.Parse(appURL)
	if err != nil {
		return nil, fmt.Errorf("invalid application URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		env:            env,
		appEntryPath:   appEntryPath,
		appURL:         appURL,
		baseURL:        baseURL,
		settings:       settings,
		handle:         handle,
		requestContext: requestContext,
		serverVars:     serverVars,
		jar:            jar,
		logger:         logger,
	}, nil
}

// Environment returns the server environment that the Client was created with.
func (c *Client) Environment() appenv.ServerEnvironment { return c.env }

// AppEntryPath returns the configured entry descriptor path.
func (c *Client) AppEntryPath() string { return c.appEntryPath }

// AppURL returns the configured application URL.
func (c *Client) AppURL() string { return c.appURL }

// AppSettings returns the application settings that the Client's application was created from.
func (c *Client) AppSettings() app.Settings { return c.settings }

// Do dispatches a request to the live application and returns its response.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	a := c.handle.Current()
	if a == nil {
		return nil, ErrNoApplication
	}
	req, err := c.newHTTPRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}
	post, form, err := parseBody(req)
	if err != nil {
		return nil, err
	}
	files := make(map[string][]*multipart.FileHeader)
	if form != nil {
		c.requestContext.trackForm(form)
		for k, fs := range form.File {
			files[k] = fs
		}
	}
	cookies := make(map[string]string)
	for _, cookie := range req.Cookies() {
		cookies[cookie.Name] = cookie.Value
	}
	c.requestContext.beginRequest(req.URL.Query(), post, files, cookies)

	vars := appenv.Merge(c.serverVars(), appenv.RequestVars(req.Method, req.RequestURI, req.URL.RawQuery))
	req = req.WithContext(WithRequestState(req.Context(), c.requestContext, vars))

	c.logger.Printf("%s %s", req.Method, req.URL)
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	result := rec.Result()
	defer result.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, err
	}
	resp := &Response{
		Status:  result.StatusCode,
		Header:  result.Header,
		Cookies: result.Cookies(),
		Body:    body,
	}
	c.jar.SetCookies(req.URL, resp.Cookies)
	c.logger.Printf("Response status %d, %d bytes", resp.Status, len(body))
	return resp, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// PostForm sends a POST request with a URL-encoded form body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Form: form})
}

// Cookies returns the cookies that the Client would send to the application URL.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// ResetApplication tears down the live application, so that the next boot starts clean.
func (c *Client) ResetApplication() {
	if err := c.handle.Reset(); err != nil {
		c.logger.Printf("Error resetting application: %s", err)
	}
}

func (c *Client) newHTTPRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	ref, err := url.Parse(r.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", r.Path, err)
	}
	u := c.baseURL.ResolveReference(ref)
	if len(r.Query) != 0 {
		q := u.Query()
		for k, vs := range r.Query {
			q[k] = append(q[k], vs...)
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.Body != nil:
		body = bytes.NewReader(r.Body)
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = formContentType
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if req.Body == nil {
		req.Body = http.NoBody
	}
	for k, vs := range r.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.RequestURI = u.RequestURI()
	req.RemoteAddr = simulatedRemoteAddr
	if c.env.IsHTTPS {
		req.TLS = &tls.ConnectionState{
			Version:           tls.VersionTLS12,
			HandshakeComplete: true,
			ServerName:        c.env.ServerName,
		}
	}
	return req, nil
}

// parseBody reads the form fields of a request, and the multipart form if there is one, leaving
// the body readable again for the application.
func parseBody(req *http.Request) (url.Values, *multipart.Form, error) {
	post := make(url.Values)
	if req.Body == nil || req.Body == http.NoBody {
		return post, nil, nil
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(data))

	mediaType, params, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	switch mediaType {
	case formContentType:
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, nil, fmt.Errorf("malformed form body: %w", err)
		}
		post = values
	case "multipart/form-data":
		form, err := multipart.NewReader(bytes.NewReader(data), params["boundary"]).ReadForm(maxMultipartMemory)
		if err != nil {
			return nil, nil, fmt.Errorf("malformed multipart body: %w", err)
		}
		for k, vs := range form.Value {
			post[k] = vs
		}
		return post, form, nil
	}
	return post, nil, nil
}
