package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/getmockd/restmock/pkg/interceptor"
)

// ErrNoHTTPTransport is returned by RoundTripper for an unhandled request
// when it wraps no http.RoundTripper.
var ErrNoHTTPTransport = errors.New("request was not mocked and no HTTP transport is configured")

// RoundTripper is an http.RoundTripper that sends requests through a
// Connection's chain. Query values become the "params" mapping (one value
// as a string, several as a sequence) and a JSON body becomes "json".
// Requests no interceptor answers go to Next; a nil Next fails them.
type RoundTripper struct {
	Conn *Connection
	Next http.RoundTripper
}

// NewRoundTripper creates a RoundTripper for conn falling back to next.
func NewRoundTripper(conn *Connection, next http.RoundTripper) *RoundTripper {
	return &RoundTripper{Conn: conn, Next: next}
}

// Client returns an http.Client using the RoundTripper.
func (rt *RoundTripper) Client() *http.Client {
	return &http.Client{Transport: rt}
}

// RoundTrip implements http.RoundTripper.
func (rt *RoundTripper) RoundTrip(hr *http.Request) (*http.Response, error) {
	body, err := readBody(hr)
	if err != nil {
		return nil, err
	}

	call := Call{
		Method:  hr.Method,
		URL:     hr.URL.String(),
		Headers: flattenHeader(hr.Header),
	}
	if q := hr.URL.Query(); len(q) > 0 {
		call.Params = queryParams(q)
	}
	if len(body) > 0 && isJSON(hr.Header.Get("Content-Type")) {
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decoding request body: %w", err)
		}
		call.JSON = v
	}

	var passthrough *http.Response
	fallback := TransportFunc(func(ctx context.Context, _ *interceptor.Request) (*interceptor.Response, error) {
		if rt.Next == nil {
			return nil, ErrNoHTTPTransport
		}
		out := hr.Clone(ctx)
		out.Body = http.NoBody
		if len(body) > 0 {
			out.Body = io.NopCloser(bytes.NewReader(body))
		}
		resp, err := rt.Next.RoundTrip(out)
		if err != nil {
			return nil, err
		}
		passthrough, err = bufferResponse(resp)
		if err != nil {
			return nil, err
		}
		return fromHTTPResponse(passthrough)
	})

	resp, err := rt.Conn.dispatch(hr.Context(), rt.Conn.NewRequest(call), fallback)
	if err != nil {
		return nil, err
	}
	if passthrough != nil {
		return passthrough, nil
	}
	return toHTTPResponse(hr, resp)
}

func readBody(hr *http.Request) ([]byte, error) {
	if hr.Body == nil || hr.Body == http.NoBody {
		return nil, nil
	}
	defer func() { _ = hr.Body.Close() }()
	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return body, nil
}

func queryParams(q map[string][]string) map[string]any {
	params := make(map[string]any, len(q))
	for k, vs := range q {
		if len(vs) == 1 {
			params[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		params[k] = list
	}
	return params
}

func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// bufferResponse reads resp.Body so it can be decoded and still returned.
func bufferResponse(resp *http.Response) (*http.Response, error) {
	orig := resp.Body
	defer func() { _ = orig.Close() }()
	data, err := io.ReadAll(orig)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))
	resp.Header.Set("Content-Length", strconv.Itoa(len(data)))
	return resp, nil
}

// fromHTTPResponse converts a buffered response for the response phase.
// Bodies that are not JSON are passed as strings.
func fromHTTPResponse(resp *http.Response) (*interceptor.Response, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))

	if len(data) == 0 {
		if resp.StatusCode == http.StatusNoContent {
			return interceptor.EmptyResponse(), nil
		}
		return interceptor.StatusResponse(resp.StatusCode), nil
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		body = string(data)
	}
	return &interceptor.Response{Kind: interceptor.KindBody, StatusCode: resp.StatusCode, Body: body, Source: "transport"}, nil
}

func toHTTPResponse(hr *http.Request, resp *interceptor.Response) (*http.Response, error) {
	out := &http.Response{
		StatusCode: resp.StatusCode,
		Status:     fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
		Body:       http.NoBody,
		Request:    hr,
	}
	if !resp.HasBody() {
		return out, nil
	}
	data, err := resp.JSON()
	if err != nil {
		return nil, fmt.Errorf("encoding mocked body: %w", err)
	}
	out.Header.Set("Content-Type", "application/json")
	out.Header.Set("Content-Length", strconv.Itoa(len(data)))
	out.Body = io.NopCloser(bytes.NewReader(data))
	out.ContentLength = int64(len(data))
	return out, nil
}
