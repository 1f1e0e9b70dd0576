// internal/api/routes/routes_test.go
package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fawad-mazhar/delos/internal/config"
	"github.com/fawad-mazhar/delos/internal/loader"
	"github.com/fawad-mazhar/delos/internal/metrics"
	"github.com/fawad-mazhar/delos/internal/models"
	"github.com/fawad-mazhar/delos/internal/orchestrator"
	"github.com/fawad-mazhar/delos/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	registry := worker.NewRegistry()
	require.NoError(t, registry.Register("loadFn", func(ctx context.Context, data map[string]interface{}) error {
		return nil
	}))

	cfg := &config.Config{Loader: config.LoaderConfig{MaxThreads: 2}}
	total := &metrics.AtomicGauge{}
	active := &metrics.AtomicGauge{}
	ld := loader.New(total, active, cfg.Loader.MaxThreads, false)
	ld.Start()
	t.Cleanup(ld.Stop)

	orch, err := orchestrator.NewOrchestrator(cfg, ld, registry, total, active)
	require.NoError(t, err)

	server := httptest.NewServer(SetupRouter(orch))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestLoadPlanLifecycle(t *testing.T) {
	server := newTestServer(t)

	plan := models.LoadPlan{
		ID:   "table-online",
		Name: "bring a table online",
		Jobs: []models.JobSpec{
			{ID: "schema", FunctionName: "loadFn"},
			{ID: "data", FunctionName: "loadFn", DependsOn: []string{"schema"}},
		},
	}

	resp := postJSON(t, server.URL+"/api/v1/load-plans", plan)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate registration is rejected.
	resp = postJSON(t, server.URL+"/api/v1/load-plans", plan)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(server.URL + "/api/v1/load-plans/table-online")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.LoadPlan
	decodeJSON(t, resp, &got)
	assert.Equal(t, plan.ID, got.ID)
	assert.Len(t, got.Jobs, 2)

	resp = postJSON(t, server.URL+"/api/v1/load-plans/table-online/execute", map[string]string{"table": "events"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var exec map[string]string
	decodeJSON(t, resp, &exec)
	executionID := exec["executionId"]
	require.NotEmpty(t, executionID)

	// Poll until the execution finishes.
	statusURL := fmt.Sprintf("%s/api/v1/executions/%s/status", server.URL, executionID)
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(statusURL)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var state models.ExecutionState
		decodeJSON(t, resp, &state)
		if state.Status == models.ExecutionOK {
			require.Len(t, state.Jobs, 2)
			break
		}
		require.False(t, time.Now().After(deadline), "execution did not finish in time")
		time.Sleep(time.Millisecond)
	}
}

func TestExecuteUnknownPlan(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/load-plans/nope/execute", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownExecutionEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/executions/nope/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/api/v1/executions/nope/cancel", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/api/v1/executions/nope/prioritize", map[string]any{"jobId": "a", "priority": 9})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSystemEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/system/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var state models.SystemState
	decodeJSON(t, resp, &state)
	assert.Equal(t, 2, state.MaxThreads)

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/v1/system/max-threads",
		bytes.NewReader([]byte(`{"maxThreads": 5}`)))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/v1/system/status")
	require.NoError(t, err)
	decodeJSON(t, resp, &state)
	assert.Equal(t, 5, state.MaxThreads)

	req, err = http.NewRequest(http.MethodPut, server.URL+"/api/v1/system/max-threads",
		bytes.NewReader([]byte(`{"maxThreads": 0}`)))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
