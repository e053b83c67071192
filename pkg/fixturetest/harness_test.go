package fixturetest

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/restmock/pkg/connection"
	"github.com/getmockd/restmock/pkg/fixture"
	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/logging"
	"github.com/getmockd/restmock/pkg/responder"
)

const base = "http://api.test/v1/"

func thingFixtures(t *testing.T) fixture.Fixtures {
	t.Helper()
	f, err := fixture.New(fixture.Entry{
		URL: "/thing/",
		Candidates: []fixture.Candidate{{
			Filter: []any{map[string]any{"params": map[string]any{"id": 5}}},
			Data:   map[string]any{"id": 5, "name": "x"},
		}},
	})
	require.NoError(t, err)
	return f
}

// recorder captures failures and cleanups so harness teardown can be
// checked without failing the real test.
type recorder struct {
	testing.TB
	errors   []string
	cleanups []func()
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recorder) Fatalf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
	runtime.Goexit()
}

// run calls f on its own goroutine so Fatalf can stop it.
func (r *recorder) run(f func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	<-done
}

func (r *recorder) Cleanup(f func()) {
	r.cleanups = append(r.cleanups, f)
}

func (r *recorder) runCleanups() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

func TestSetupDefault_Scenario(t *testing.T) {
	conn := connection.New("api", base)
	SetupDefault(t, conn, thingFixtures(t), WithLogger(logging.ForTest(t)))

	resp, err := conn.Do(context.Background(), connection.Call{
		URL:    "/thing/",
		Params: map[string]any{"id": 5, "extra": "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 5, "name": "x"}, resp.Body)
	assert.Equal(t, 200, resp.StatusCode)

	_, err = conn.Do(context.Background(), connection.Call{
		URL:    "/thing/",
		Params: map[string]any{"id": 6},
	})
	var nf *responder.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "/thing/", nf.URL)

	_, err = conn.Do(context.Background(), connection.Call{URL: "other/"})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "other/", nf.URL)
}

func TestSetup_CleanupRestoresChain(t *testing.T) {
	conn := connection.New("api", base)

	t.Run("inner", func(t *testing.T) {
		SetupDefault(t, conn, thingFixtures(t))
		TrackQueries(t, conn)
		MockAPI(t, conn, "x/", map[string]any{}, nil, 0)
		assert.Equal(t, 3, conn.Chain().Len())
	})

	assert.Equal(t, 0, conn.Chain().Len())
}

func TestSetup_FailedPopFailsTest(t *testing.T) {
	conn := connection.New("api", base)
	rec := &recorder{TB: t}

	h := SetupDefault(rec, conn, thingFixtures(t))
	require.NoError(t, conn.PopMiddleware(h.Responder("api")))

	rec.runCleanups()
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "popping fixtures")
	assert.Contains(t, rec.errors[0], interceptor.ErrNotInChain.Error())
}

func TestSetup_MultipleConnectionsShareVariables(t *testing.T) {
	api := connection.New("api", base)
	auth := connection.New("auth", "http://auth.test/")
	reg, err := connection.NewRegistry(api, auth)
	require.NoError(t, err)

	login, err := fixture.New(fixture.Entry{
		URL: "login/",
		Candidates: []fixture.Candidate{{
			Data:    map[string]any{"token": "abc"},
			Capture: map[string]string{"token": "$.token"},
		}},
	})
	require.NoError(t, err)
	me, err := fixture.New(fixture.Entry{
		URL: "me/",
		Candidates: []fixture.Candidate{{
			Filter: []any{map[string]any{"headers": map[string]any{"Authorization": "{{token}}"}}},
			Data:   map[string]any{"user": "{{user}}"},
		}},
	})
	require.NoError(t, err)

	h := Setup(t, reg, map[string]fixture.Fixtures{
		"auth": login,
		"":     me,
	}, WithVariables(map[string]any{"user": "ada"}))

	assert.NotNil(t, h.Responder("auth"))
	assert.Same(t, h.Responder("api"), h.Responder(""))

	_, err = auth.Do(context.Background(), connection.Call{Method: "POST", URL: "login/"})
	require.NoError(t, err)
	token, ok := h.Vars().Get("token")
	require.True(t, ok)
	assert.Equal(t, "abc", token)

	resp, err := api.Do(context.Background(), connection.Call{
		URL:     "me/",
		Headers: map[string]string{"Authorization": "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": "ada"}, resp.Body)
}

func TestSetup_UnknownConnection(t *testing.T) {
	reg, err := connection.NewRegistry(connection.New("api", base))
	require.NoError(t, err)
	rec := &recorder{TB: t}

	rec.run(func() {
		Setup(rec, reg, map[string]fixture.Fixtures{"billing": nil})
	})
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], `unknown connection "billing"`)
}
