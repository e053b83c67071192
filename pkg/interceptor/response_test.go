package interceptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseConstructors(t *testing.T) {
	empty := EmptyResponse()
	assert.Equal(t, KindEmpty, empty.Kind)
	assert.Equal(t, 204, empty.StatusCode)
	assert.False(t, empty.HasBody())

	status := StatusResponse(404)
	assert.Equal(t, KindStatus, status.Kind)
	assert.Equal(t, 404, status.StatusCode)
	assert.Nil(t, status.Body)

	body := BodyResponse(map[string]any{"id": 1}, 0)
	assert.Equal(t, KindBody, body.Kind)
	assert.Equal(t, 200, body.StatusCode)
	assert.True(t, body.HasBody())

	created := BodyResponse([]any{1, 2}, 201)
	assert.Equal(t, 201, created.StatusCode)
}

func TestResponse_JSON(t *testing.T) {
	data, err := BodyResponse(map[string]any{"id": 1}, 0).JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(data))

	data, err = StatusResponse(404).JSON()
	require.NoError(t, err)
	assert.Nil(t, data)

	var nilResp *Response
	assert.False(t, nilResp.HasBody())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "empty", KindEmpty.String())
	assert.Equal(t, "status", KindStatus.String())
	assert.Equal(t, "body", KindBody.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestRequestPath(t *testing.T) {
	req := &Request{URL: "http://api.local/thing/?id=5", BaseURL: "http://api.local/"}
	assert.Equal(t, "/thing/", req.Path())
	assert.Equal(t, "thing/?id=5", req.RelativeURL())

	bad := &Request{URL: "http://[::1/thing/?x=1"}
	assert.Equal(t, "http://[::1/thing/", bad.Path())
}
