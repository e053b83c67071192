package interceptor

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Well-known keys of Request.Params.
const (
	ParamURL     = "url"
	ParamMethod  = "method"
	ParamQuery   = "params"
	ParamJSON    = "json"
	ParamHeaders = "headers"
)

// Request represents one outbound call passing through the chain.
type Request struct {
	// ID uniquely identifies the call on its connection.
	ID string

	// Method is the request method (GET, POST, ...).
	Method string

	// URL is the absolute target URL, query string included.
	URL string

	// Params is the structural parameter set matched by fixtures.
	// It always carries ParamURL and, when set, ParamMethod, ParamQuery,
	// ParamJSON and ParamHeaders.
	Params map[string]any

	// BaseURL is the owning connection's base URL.
	BaseURL string

	// Connection is the owning connection's name.
	Connection string

	// Timestamp is when the call was issued.
	Timestamp time.Time
}

// Path returns the path component of the request URL, query string ignored.
func (r *Request) Path() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		path, _, _ := strings.Cut(r.URL, "?")
		return path
	}
	return u.Path
}

// RelativeURL returns the request URL with the connection base URL prefix removed.
func (r *Request) RelativeURL() string {
	if r.BaseURL == "" {
		return r.URL
	}
	return strings.TrimPrefix(r.URL, r.BaseURL)
}

// Interceptor is any value implementing RequestHandler, ResponseObserver or both.
type Interceptor any

// RequestHandler is the request-phase capability.
// A non-nil Response terminates the walk; nil means continue.
type RequestHandler interface {
	HandleRequest(ctx context.Context, req *Request) (*Response, error)
}

// ResponseObserver is the response-phase capability.
type ResponseObserver interface {
	ObserveResponse(ctx context.Context, req *Request, resp *Response)
}

// FuncInterceptor adapts plain functions to the interceptor capabilities.
// Either function may be nil.
type FuncInterceptor struct {
	Handle  func(ctx context.Context, req *Request) (*Response, error)
	Observe func(ctx context.Context, req *Request, resp *Response)
}

// Func returns an interceptor backed by the given functions.
// The returned pointer is the identity to pass to Pop.
func Func(
	handle func(ctx context.Context, req *Request) (*Response, error),
	observe func(ctx context.Context, req *Request, resp *Response),
) *FuncInterceptor {
	return &FuncInterceptor{Handle: handle, Observe: observe}
}

// HandleRequest calls Handle, or continues when Handle is nil.
func (f *FuncInterceptor) HandleRequest(ctx context.Context, req *Request) (*Response, error) {
	if f.Handle == nil {
		return nil, nil
	}
	return f.Handle(ctx, req)
}

// ObserveResponse calls Observe when it is set.
func (f *FuncInterceptor) ObserveResponse(ctx context.Context, req *Request, resp *Response) {
	if f.Observe != nil {
		f.Observe(ctx, req, resp)
	}
}

var (
	_ RequestHandler   = (*FuncInterceptor)(nil)
	_ ResponseObserver = (*FuncInterceptor)(nil)
)
