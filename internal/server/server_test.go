package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yapay-ai/aws-budget-guardian/internal/server"
	"github.com/yapay-ai/aws-budget-guardian/pkg/model"
)

// stubJob returns a canned result and remembers being run.
type stubJob struct {
	result model.RunResult
	runs   int
}

func (j *stubJob) Run(context.Context) model.RunResult {
	j.runs++
	return j.result
}

func setupServer(t *testing.T, sync, harvest *stubJob) *server.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return server.NewServer(sync, harvest, logger)
}

func TestServer_Health(t *testing.T) {
	srv := setupServer(t, &stubJob{}, &stubJob{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

func TestServer_SyncJob(t *testing.T) {
	sync := &stubJob{result: model.RunResult{
		RunID:   "run-1",
		Job:     model.JobSync,
		Status:  model.StatusSuccess,
		Budgets: 3,
	}}
	srv := setupServer(t, sync, &stubJob{})

	req := httptest.NewRequest("POST", "/api/v1/jobs/sync", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sync.runs)

	var result model.RunResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 3, result.Budgets)
}

func TestServer_HarvestJob(t *testing.T) {
	harvest := &stubJob{result: model.RunResult{
		RunID:   "run-2",
		Job:     model.JobHarvest,
		Status:  model.StatusSuccess,
		Records: 42,
	}}
	srv := setupServer(t, &stubJob{}, harvest)

	req := httptest.NewRequest("POST", "/api/v1/jobs/harvest", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, harvest.runs)

	var result model.RunResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, 42, result.Records)
}

func TestServer_FailedJobAnswers500(t *testing.T) {
	sync := &stubJob{result: model.RunResult{
		Job:     model.JobSync,
		Status:  model.StatusError,
		Message: "could not list accounts: expired token",
	}}
	srv := setupServer(t, sync, &stubJob{})

	req := httptest.NewRequest("POST", "/api/v1/jobs/sync", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var result model.RunResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Contains(t, result.Message, "could not list accounts")
}

func TestServer_JobNeedsPost(t *testing.T) {
	srv := setupServer(t, &stubJob{}, &stubJob{})

	req := httptest.NewRequest("GET", "/api/v1/jobs/sync", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv := setupServer(t, &stubJob{}, &stubJob{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "budget_guardian_budgets_reconciled_total")
}
