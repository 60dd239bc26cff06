package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterreg/clusterreg/pkg/cluster"
	"github.com/clusterreg/clusterreg/pkg/registry"
)

type fakeLeaderChecker struct {
	leader bool
	url    string
}

func (f fakeLeaderChecker) IsLeader() bool  { return f.leader }
func (f fakeLeaderChecker) LeaderURL() string { return f.url }

func newTestRouter(t *testing.T, isLeader bool) (http.Handler, *registry.Service) {
	t.Helper()
	sm := registry.NewStateMachine(nil)
	svc := registry.NewService(sm, fakeLeaderChecker{leader: isLeader, url: "http://leader:1"})
	view := cluster.NewView([]string{"http://a:1"}, "http://a:1", "a")
	return NewRouter(svc, view), svc
}

func doRequest(r http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterThenFindAll(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, true)

	body, err := json.Marshal(registry.InstanceMeta{Scheme: "http", Host: "h", Port: 8080})
	require.NoError(t, err)

	rec := doRequest(r, http.MethodPost, "/reg?service=UserService", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodGet, "/findAll?service=UserService", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var instances []registry.InstanceMeta
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &instances))
	assert.Len(t, instances, 1)
}

func TestRegisterMissingServiceParamIsBadRequest(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, true)
	rec := doRequest(r, http.MethodPost, "/reg", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterOnFollowerIsForbidden(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, false)
	body, _ := json.Marshal(registry.InstanceMeta{Scheme: "http", Host: "h", Port: 1})
	rec := doRequest(r, http.MethodPost, "/reg?service=S", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "http://leader:1", payload["leader"])
}

func TestRenewsBatchAndVersions(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, true)
	inst := registry.InstanceMeta{Scheme: "http", Host: "h", Port: 1}
	body, _ := json.Marshal(inst)

	rec := doRequest(r, http.MethodPost, "/renews?services=X,Y", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodPost, "/versions?services=X,Y", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var versions map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &versions))
	assert.EqualValues(t, 1, versions["X"])
	assert.EqualValues(t, 1, versions["Y"])
}

func TestFindAllUnknownServiceReturnsEmptyList(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, true)
	rec := doRequest(r, http.MethodGet, "/findAll?service=Unknown", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSnapshotEndpoint(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, true)
	rec := doRequest(r, http.MethodGet, "/snapshot", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var snap registry.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
}

func TestClusterEndpoints(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, true)

	rec := doRequest(r, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodGet, "/cluster", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var servers []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &servers))
	assert.Len(t, servers, 1)

	rec = doRequest(r, http.MethodGet, "/leader", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, true)
	rec := doRequest(r, http.MethodGet, "/health/", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
