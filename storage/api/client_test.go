package api

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/testutil"
)

type student struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	BranchID string `json:"branchId"`
}

func (s student) Key() string { return s.ID }

func newClient(up *testutil.Upstream, token string) *Client {
	return NewClientWith(up.URL+"/api/", token, nil, &testutil.Logger{})
}

func TestClient_ErrorKinds(t *testing.T) {
	up := testutil.NewUpstream(t)
	client := newClient(up, "")

	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    core.Kind
		message string
	}{
		{"rejected envelope", func(w http.ResponseWriter, _ *http.Request) { testutil.Reject(w, "branch is archived") }, core.KindRejected, "branch is archived"},
		{"not found", func(w http.ResponseWriter, _ *http.Request) { testutil.Fail(w, 404, "student not found") }, core.KindNotFound, "student not found"},
		{"unauthorized", func(w http.ResponseWriter, _ *http.Request) { testutil.Fail(w, 401, "token expired") }, core.KindUnauthorized, "token expired"},
		{"forbidden", func(w http.ResponseWriter, _ *http.Request) { testutil.Fail(w, 403, "") }, core.KindUnauthorized, "Forbidden"},
		{"validation", func(w http.ResponseWriter, _ *http.Request) { testutil.Fail(w, 422, "name is required") }, core.KindValidation, "name is required"},
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(502) }, core.KindNetwork, "Bad Gateway"},
		{"malformed", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>")) }, core.KindNetwork, "malformed response envelope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up.Handle(http.MethodGet, "/api/things", tt.handler)
			err := client.Get(context.Background(), "/things", nil, nil)
			require.Error(t, err)

			var apiErr *core.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestClient_Token(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.Seed("api/students")

	client := newClient(up, "static")
	require.NoError(t, client.Get(context.Background(), "students", nil, nil))
	require.NoError(t, client.Get(WithToken(context.Background(), "caller"), "students", nil, nil))

	reqs := up.RequestsTo(http.MethodGet, "/api/students")
	require.Len(t, reqs, 2)
	assert.Equal(t, "static", reqs[0].Token)
	assert.Equal(t, "caller", reqs[1].Token)
}

func TestClient_Canceled(t *testing.T) {
	up := testutil.NewUpstream(t)
	release := make(chan struct{})
	up.Handle(http.MethodGet, "/api/slow", func(w http.ResponseWriter, _ *http.Request) {
		<-release
		testutil.OK(w, nil)
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := newClient(up, "").Get(ctx, "slow", nil, nil)
	assert.Equal(t, core.KindCanceled, core.KindOf(err))
}

func TestResource_CRUD(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.Seed("api/students",
		student{ID: "s1", Name: "Amani", BranchID: "b1"},
		student{ID: "s2", Name: "Baraka", BranchID: "b2"},
	)
	res := NewResource[student](newClient(up, ""), "students")
	ctx := context.Background()

	items, err := res.List(ctx, url.Values{"branchId": {"b1"}})
	require.NoError(t, err)
	assert.Equal(t, []student{{ID: "s1", Name: "Amani", BranchID: "b1"}}, items)

	created, err := res.Create(ctx, map[string]string{"name": "Chiku", "branchId": "b1"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Chiku", created.Name)

	updated, err := res.Update(ctx, "s2", map[string]string{"name": "Baraka O."})
	require.NoError(t, err)
	assert.Equal(t, student{ID: "s2", Name: "Baraka O.", BranchID: "b2"}, updated)

	require.NoError(t, res.Delete(ctx, "s1"))
	err = res.Delete(ctx, "s1")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	assert.Len(t, up.Items("api/students"), 2)
}
