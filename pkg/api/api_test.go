package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/sat-graph-features/pkg/cnf"
	"github.com/gilchrisn/sat-graph-features/pkg/features"
	"github.com/gilchrisn/sat-graph-features/pkg/louvain"
	"github.com/gilchrisn/sat-graph-features/pkg/metrics"
)

const twoTrianglesCNF = `p cnf 6 6
1 2 0
2 3 0
-1 3 0
4 5 0
-5 6 0
4 6 0
`

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID string          `json:"requestId"`
}

func newTestConfig() *louvain.Config {
	config := louvain.NewConfig()
	config.Set("algorithm.random_seed", int64(3))
	config.SetOutput(io.Discard)
	return config
}

func newTestServer(t *testing.T, config *louvain.Config) (*httptest.Server, *metrics.Registry) {
	t.Helper()
	registry := metrics.NewRegistry()
	server := NewServer(features.NewService(config, registry), registry)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		server.jobs.Close()
	})
	return ts, registry
}

func do(t *testing.T, method, url, body string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestHealthCheck(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	resp, env := do(t, "GET", ts.URL+"/api/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, resp.Header.Get(RequestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	req, err := http.NewRequest("GET", ts.URL+"/api/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestListFeatures(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	_, env := do(t, "GET", ts.URL+"/api/v1/features", "")
	var names []string
	require.NoError(t, json.Unmarshal(env.Data, &names))
	assert.Equal(t, "all", names[0])
	assert.Len(t, names, len(features.AllFeatures)+1)
}

func TestComputeFeatures(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"ModularityVIG", "?feature=modularity-vig", twoTrianglesCNF, http.StatusOK},
		{"All", "", twoTrianglesCNF, http.StatusOK},
		{"UnknownFeature", "?feature=entropy", twoTrianglesCNF, http.StatusBadRequest},
		{"Malformed", "?feature=modularity-vig", "p cnf 2 1\n1 x 0\n", http.StatusBadRequest},
		{"Unavailable", "?feature=scale-free-var", twoTrianglesCNF, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := do(t, "POST", ts.URL+"/api/v1/features"+tt.query, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.status == http.StatusOK, env.Success)
			if !env.Success {
				assert.NotEmpty(t, env.Error)
			}
		})
	}
}

func TestComputeFeaturesReturnsValues(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	_, env := do(t, "POST", ts.URL+"/api/v1/features?feature=modularity-vig", twoTrianglesCNF)
	var report features.CommunityReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.InDelta(t, 0.5, report.Modularity, 1e-12)
	assert.Equal(t, 2, report.NumCommunities)

	_, env = do(t, "POST", ts.URL+"/api/v1/features?name=tri.cnf", twoTrianglesCNF)
	var summary features.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "tri.cnf", summary.Instance)
	assert.InDelta(t, 0.5, summary.Modularity, 1e-12)
	assert.Equal(t, float64(features.Unavailable), summary.AlphaVar)
}

func TestBodyLimit(t *testing.T) {
	config := newTestConfig()
	config.Set("server.max_body_bytes", int64(10))
	ts, _ := newTestServer(t, config)

	resp, env := do(t, "POST", ts.URL+"/api/v1/features", twoTrianglesCNF)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestComputeCommunities(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	resp, env := do(t, "POST", ts.URL+"/api/v1/communities?graph=vig&method=components", twoTrianglesCNF)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report features.CommunityReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.NumCommunities)
	require.Len(t, report.Ranking, 2)
	assert.Equal(t, []int{1, 2, 3}, report.Ranking[0].Members)
	assert.Equal(t, []int{4, 5, 6}, report.Ranking[1].Members)

	resp, _ = do(t, "POST", ts.URL+"/api/v1/communities?graph=cvig", twoTrianglesCNF)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, "POST", ts.URL+"/api/v1/communities?graph=hypergraph", twoTrianglesCNF)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, "POST", ts.URL+"/api/v1/communities?method=spectral", twoTrianglesCNF)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJobLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	resp, env := do(t, "POST", ts.URL+"/api/v1/jobs?name=tri.cnf", twoTrianglesCNF)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, "tri.cnf", job.Instance)

	deadline := time.Now().Add(10 * time.Second)
	for job.Status != JobStatusCompleted && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
		_, env := do(t, "GET", ts.URL+"/api/v1/jobs/"+job.ID, "")
		require.NoError(t, json.Unmarshal(env.Data, &job))
	}
	require.Equal(t, JobStatusCompleted, job.Status, job.Error)

	require.NotNil(t, job.Summary)
	assert.InDelta(t, 0.5, job.Summary.Modularity, 1e-12)
	assert.NotNil(t, job.CompletedAt)

	// finished jobs stay finished
	_, env = do(t, "DELETE", ts.URL+"/api/v1/jobs/"+job.ID, "")
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, JobStatusCompleted, job.Status)

	resp, _ = do(t, "GET", ts.URL+"/api/v1/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, "DELETE", ts.URL+"/api/v1/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobCancelWhileQueued(t *testing.T) {
	service := features.NewService(newTestConfig(), nil)
	jobs := NewJobService(service, zerolog.Nop(), 1, time.Hour)
	defer jobs.Close()

	// occupy the only worker slot
	jobs.workers <- struct{}{}

	f, err := cnf.Parse(strings.NewReader(twoTrianglesCNF))
	require.NoError(t, err)

	job := jobs.Submit("queued.cnf", f)
	assert.Equal(t, JobStatusQueued, job.Status)

	job, err = jobs.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCancelled, job.Status)

	<-jobs.workers
	jobs.wg.Wait()

	job, err = jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCancelled, job.Status)
	assert.Nil(t, job.Summary)
}

func TestJobCleanup(t *testing.T) {
	service := features.NewService(newTestConfig(), nil)
	jobs := NewJobService(service, zerolog.Nop(), 2, time.Minute)
	defer jobs.Close()

	f, err := cnf.Parse(strings.NewReader(twoTrianglesCNF))
	require.NoError(t, err)

	job := jobs.Submit("a.cnf", f)
	jobs.wg.Wait()

	assert.Zero(t, jobs.cleanup(time.Now()), "fresh jobs are kept")
	assert.Equal(t, 1, jobs.cleanup(time.Now().Add(2*time.Minute)))

	_, err = jobs.Get(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	do(t, "GET", ts.URL+"/api/v1/health", "")
	do(t, "GET", ts.URL+"/api/v1/jobs/missing", "")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `satfeat_http_requests_total{method="GET",path="/api/v1/health",status="200"} 1`)
	assert.Contains(t, text, `path="/api/v1/jobs/{jobId}",status="404"`)
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, newTestConfig())

	req, err := http.NewRequest("OPTIONS", ts.URL+"/api/v1/features", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Message)
}
