package interceptor

import (
	"encoding/json"
	"net/http"
)

// Kind identifies the shape of a synthesized response.
type Kind int

// Response kinds.
const (
	// KindEmpty is a no-content response.
	KindEmpty Kind = iota
	// KindStatus carries a status code and no body.
	KindStatus
	// KindBody carries a structured payload.
	KindBody
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindStatus:
		return "status"
	case KindBody:
		return "body"
	default:
		return "unknown"
	}
}

// Response is the result of a request, synthesized or real.
type Response struct {
	Kind       Kind
	StatusCode int
	// Body is a mapping or a sequence when Kind is KindBody, nil otherwise.
	Body any
	// Source names what produced the response, e.g. "fixture" or "transport".
	Source string
}

// EmptyResponse returns a no-content response.
func EmptyResponse() *Response {
	return &Response{Kind: KindEmpty, StatusCode: http.StatusNoContent}
}

// StatusResponse returns a status-only response.
func StatusResponse(code int) *Response {
	return &Response{Kind: KindStatus, StatusCode: code}
}

// BodyResponse returns a payload response. A zero code means 200.
func BodyResponse(body any, code int) *Response {
	if code == 0 {
		code = http.StatusOK
	}
	return &Response{Kind: KindBody, StatusCode: code, Body: body}
}

// HasBody reports whether the response carries a payload.
func (r *Response) HasBody() bool {
	return r != nil && r.Kind == KindBody
}

// JSON encodes the payload. Responses without a body encode to nil.
func (r *Response) JSON() ([]byte, error) {
	if !r.HasBody() {
		return nil, nil
	}
	return json.Marshal(r.Body)
}
