package fixturetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/restmock/pkg/connection"
	"github.com/getmockd/restmock/pkg/fixture"
)

func usersFixtures(t *testing.T) fixture.Fixtures {
	t.Helper()
	f, err := fixture.New(
		fixture.Entry{URL: "users/", Candidates: []fixture.Candidate{{Data: []any{map[string]any{"id": 1}}}}},
		fixture.Entry{URL: "/v1/orders/", Candidates: []fixture.Candidate{{Data: []any{}}}},
	)
	require.NoError(t, err)
	return f
}

func TestMockAPI_OverridesFixtures(t *testing.T) {
	conn := connection.New("api", base)
	SetupDefault(t, conn, usersFixtures(t))
	tr := TrackQueries(t, conn)

	undo := MockAPI(t, conn, "users/", map[string]any{"override": true}, nil, 201)

	resp, err := conn.Do(context.Background(), connection.Call{URL: "users/"})
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, map[string]any{"override": true}, resp.Body)

	// not mocked by the override, falls through to fixtures
	resp, err = conn.Do(context.Background(), connection.Call{URL: "orders/"})
	require.NoError(t, err)
	assert.Equal(t, []any{}, resp.Body)

	undo()
	undo()

	resp, err = conn.Do(context.Background(), connection.Call{URL: "users/"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []any{map[string]any{"id": 1}}, resp.Body)

	AssertQueryCount(t, tr, "users/", 2)
	AssertQueried(t, tr, "orders/")
	AssertNotQueried(t, tr, "payments/")

	users := tr.QueriesFor("users/")
	require.Len(t, users, 2)
	assert.Equal(t, 201, users[0].StatusCode())
	assert.Equal(t, 200, users[1].StatusCode())
}

func TestMockAPI_TypedResult(t *testing.T) {
	conn := connection.New("api", base)
	MockAPI(t, conn, "users/", []map[string]any{{"id": 1}, {"id": 2}}, nil, 0)

	resp, err := conn.Do(context.Background(), connection.Call{URL: "users/"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []map[string]any{{"id": 1}, {"id": 2}}, resp.Body)

	data, err := resp.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": 1}, {"id": 2}]`, string(data))
}

func TestMockAPI_Params(t *testing.T) {
	conn := connection.New("api", base)
	SetupDefault(t, conn, usersFixtures(t))
	tr := TrackQueries(t, conn)

	MockAPI(t, conn, "users/", []any{}, map[string]any{"params": map[string]any{"active": false}}, 0)

	resp, err := conn.Do(context.Background(), connection.Call{URL: "users/", Params: map[string]any{"active": false}})
	require.NoError(t, err)
	assert.Equal(t, []any{}, resp.Body)

	resp, err = conn.Do(context.Background(), connection.Call{URL: "users/", Params: map[string]any{"active": true}})
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"id": 1}}, resp.Body)

	queries := tr.QueriesFor("users/")
	require.Len(t, queries, 2)
	AssertParams(t, queries[0], map[string]any{"params": map[string]any{"active": false}})
	AssertParams(t, queries[1], map[string]any{"method": "GET"})
}

func TestAssertions_Report(t *testing.T) {
	conn := connection.New("api", base)
	tr := TrackQueries(t, conn)
	MockAPI(t, conn, "users/", []any{}, nil, 0)

	_, err := conn.Do(context.Background(), connection.Call{URL: "users/", Params: map[string]any{"page": 1}})
	require.NoError(t, err)

	rec := &recorder{TB: t}
	assert.False(t, AssertQueryCount(rec, tr, "users/", 2))
	assert.False(t, AssertQueried(rec, tr, "orders/"))
	assert.False(t, AssertNotQueried(rec, tr, "users/"))
	assert.False(t, AssertParams(rec, tr.All()[0], map[string]any{"params": map[string]any{"page": 2}}))
	require.Len(t, rec.errors, 4)
	assert.Contains(t, rec.errors[0], `expected 2 queries to "users/", got 1`)
	assert.Contains(t, rec.errors[3], `"page":1`)
}

func TestMockAPI_MissWithoutFixturesReachesTransport(t *testing.T) {
	conn := connection.New("api", base)
	MockAPI(t, conn, "users/", []any{}, nil, 0)

	_, err := conn.Do(context.Background(), connection.Call{URL: "orders/"})
	assert.ErrorIs(t, err, connection.ErrNoTransport)
}
