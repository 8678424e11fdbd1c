package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aimeter/internal/config"
	"aimeter/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux, deps, err := NewRouter(&config.Config{Backend: config.BackendMemory})
	require.NoError(t, err)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		deps.Close(context.Background())
	})
	return srv
}

func postUsage(t *testing.T, srv *httptest.Server, params models.RecordParams) models.UsageRecord {
	t.Helper()
	body, err := json.Marshal(params)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/usage", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec models.UsageRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	return rec
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestPostUsageCreatesRecord(t *testing.T) {
	srv := newTestServer(t)

	rec := postUsage(t, srv, models.RecordParams{
		Kind:             "chat.completions",
		Model:            "gpt-4o",
		UserID:           "u-1",
		PromptTokens:     1000,
		CompletionTokens: 500,
		TotalTokens:      1500,
	})

	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.CreatedAt)
	assert.Equal(t, "gpt-4o", rec.Model)
	assert.Equal(t, int64(1500), rec.TotalTokens)
}

func TestPostUsageValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not JSON", "{nope"},
		{"missing kind", `{"model":"gpt-4o"}`},
		{"missing model", `{"kind":"chat.completions"}`},
		{"negative tokens", `{"kind":"chat.completions","model":"gpt-4o","promptTokens":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/usage", "application/json",
				bytes.NewReader([]byte(tt.body)))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetUsageListsRecords(t *testing.T) {
	srv := newTestServer(t)

	postUsage(t, srv, models.RecordParams{Kind: "chat.completions", Model: "gpt-4o",
		UserID: "u-1", PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500})
	postUsage(t, srv, models.RecordParams{Kind: "embeddings", Model: "text-embedding-3-small",
		UserID: "u-2", TotalTokens: 800})

	var list models.ListResponse
	code := getJSON(t, srv, "/v1/usage", &list)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, 2, list.Total)
	assert.Equal(t, models.OrderDesc, list.Order)
	assert.Equal(t, models.DefaultLimit, list.Limit)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "text-embedding-3-small", list.Items[0].Model, "newest first")

	code = getJSON(t, srv, "/v1/usage?model=gpt-4o", &list)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, list.Total)

	code = getJSON(t, srv, "/v1/usage?userId=u-2&order=asc", &list)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "u-2", list.Items[0].UserID)
}

func TestGetUsageParamValidation(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/v1/usage?limit=abc",
		"/v1/usage?limit=-1",
		"/v1/usage?offset=x",
		"/v1/usage?order=sideways",
		"/v1/usage?from=yesterday",
		"/v1/usage?to=2026-13-99",
	} {
		assert.Equal(t, http.StatusBadRequest, getJSON(t, srv, path, nil), path)
	}

	// Oversized limits clamp rather than fail.
	var list models.ListResponse
	code := getJSON(t, srv, "/v1/usage?limit=9999", &list)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.MaxLimit, list.Limit)
}

// Time bounds arrive at whatever precision and offset the caller uses; the
// handler re-serializes them so they compare correctly against the
// fixed-width stored timestamps.
func TestGetUsageTimeBoundsNormalized(t *testing.T) {
	srv := newTestServer(t)

	postUsage(t, srv, models.RecordParams{Kind: "chat.completions", Model: "gpt-4o",
		TotalTokens: 10})

	var list models.ListResponse
	code := getJSON(t, srv, "/v1/usage?from=2000-01-01T00:00:00.5Z", &list)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, list.Total)

	code = getJSON(t, srv, "/v1/usage?from=2100-01-01T02:00:00.5%2B02:00", &list)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, list.Total)
}

func TestGetSummary(t *testing.T) {
	srv := newTestServer(t)

	postUsage(t, srv, models.RecordParams{Kind: "chat.completions", Model: "gpt-4o",
		UserID: "u-1", PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500})

	var sum models.SummaryResponse
	code := getJSON(t, srv, "/v1/usage/summary", &sum)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), sum.Global.Calls)
	assert.InDelta(t, 1000.0/1e6*2.5+500.0/1e6*10, sum.Global.CostUSD, 1e-12)
	require.Len(t, sum.ByModel, 1)
	require.Len(t, sum.ByUser, 1)

	var scoped models.SummaryResponse
	code = getJSON(t, srv, "/v1/usage/summary?model=gpt-4o&userId=u-1", &scoped)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, scoped.ModelUser)
	assert.Equal(t, int64(1), scoped.ModelUser.Calls)

	assert.Equal(t, http.StatusBadRequest,
		getJSON(t, srv, "/v1/usage/summary?topModels=-2", nil))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/usage", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/usage/summary", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/healthz", nil))
}
