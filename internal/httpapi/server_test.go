package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxgate/fluxgate/internal/activity"
	"github.com/fluxgate/fluxgate/internal/auth"
	"github.com/fluxgate/fluxgate/internal/catalog"
	"github.com/fluxgate/fluxgate/internal/engine"
	"github.com/fluxgate/fluxgate/internal/metrics"
	"github.com/fluxgate/fluxgate/internal/model"
	"github.com/fluxgate/fluxgate/internal/registry"
	"github.com/fluxgate/fluxgate/internal/tools"
)

func newTestServer(t *testing.T, requireAuth bool) (*Server, *httptest.Server) {
	t.Helper()

	store, err := catalog.Open(filepath.Join(t.TempDir(), "fluxgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg := registry.New()
	a := auth.NewAuthenticator(store)
	require.NoError(t, a.EnsureUser(context.Background(), "admin", "swordfish"))

	s := &Server{
		Dispatcher: &tools.Dispatcher{
			Registry: reg,
			Engine:   engine.NewLocal(),
		},
		Registry:    reg,
		Catalog:     store,
		Auth:        a,
		Activity:    activity.New(50),
		Latency:     metrics.NewLatencyTracker(0.2),
		RequireAuth: requireAuth,
		Version:     "test",
	}
	s.Dispatcher.Activity = s.Activity
	s.Dispatcher.Latency = s.Latency

	mux := http.NewServeMux()
	s.Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&decoded))
	return res, decoded
}

func loadTextbook(t *testing.T, ts *httptest.Server) {
	t.Helper()
	res, body := doJSON(t, http.MethodPost, ts.URL+"/tools/load_model", map[string]any{"model_id": "textbook"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, body["success"])
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, false)

	res, body := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "fluxgate", body["service"])
	assert.Equal(t, float64(0), body["cached_models"])
}

func TestListTools(t *testing.T) {
	_, ts := newTestServer(t, false)

	res, body := doJSON(t, http.MethodGet, ts.URL+"/tools", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	list, ok := body["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 6)

	names := map[string]bool{}
	for _, item := range list {
		tool := item.(map[string]any)
		names[tool["name"].(string)] = true
	}
	for _, want := range []string{"load_model", "get_model_stats", "optimize_model", "get_reaction_info", "run_fva", "gene_knockout"} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestToolCallEnvelope(t *testing.T) {
	_, ts := newTestServer(t, false)
	loadTextbook(t, ts)

	res, body := doJSON(t, http.MethodPost, ts.URL+"/tools/optimize_model", map[string]any{"model_id": "textbook"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["error"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "optimal", result["status"])
	assert.InDelta(t, engine.TextbookGrowth, result["objective_value"].(float64), 1e-9)
}

func TestToolCallStatusMapping(t *testing.T) {
	_, ts := newTestServer(t, false)
	loadTextbook(t, ts)

	cases := []struct {
		name       string
		tool       string
		params     map[string]any
		wantStatus int
	}{
		{"missing_param", "optimize_model", map[string]any{}, http.StatusBadRequest},
		{"unloaded_model", "optimize_model", map[string]any{"model_id": "ghost"}, http.StatusBadRequest},
		{"unknown_reaction", "get_reaction_info", map[string]any{"model_id": "textbook", "reaction_id": "NOPE"}, http.StatusNotFound},
		{"unknown_gene", "gene_knockout", map[string]any{"model_id": "textbook", "gene_id": "b9999"}, http.StatusNotFound},
		{"unknown_tool", "reticulate_splines", map[string]any{}, http.StatusNotFound},
		{"unknown_builtin", "load_model", map[string]any{"model_id": "iJO1366"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, body := doJSON(t, http.MethodPost, ts.URL+"/tools/"+tc.tool, tc.params)
			assert.Equal(t, tc.wantStatus, res.StatusCode)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestToolCallRejectsBadBody(t *testing.T) {
	_, ts := newTestServer(t, false)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/tools/load_model", bytes.NewReader([]byte("[1,2,3]")))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestListModels(t *testing.T) {
	_, ts := newTestServer(t, false)

	res, body := doJSON(t, http.MethodGet, ts.URL+"/models", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, float64(0), body["cached_models"])

	loadTextbook(t, ts)

	_, body = doJSON(t, http.MethodGet, ts.URL+"/models", nil)
	assert.Equal(t, float64(1), body["cached_models"])

	models := body["models"].([]any)
	require.Len(t, models, 1)
	entry := models[0].(map[string]any)
	assert.Equal(t, "textbook", entry["model_id"])
	assert.Equal(t, float64(12), entry["reactions"])
}

func TestDeleteModel(t *testing.T) {
	_, ts := newTestServer(t, false)
	loadTextbook(t, ts)

	res, body := doJSON(t, http.MethodDelete, ts.URL+"/models/textbook", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])

	res, _ = doJSON(t, http.MethodDelete, ts.URL+"/models/textbook", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRemoveThenReload(t *testing.T) {
	s, ts := newTestServer(t, false)
	loadTextbook(t, ts)

	// Dirty the loaded copy, remove it, reload: the new copy is pristine.
	ent, err := s.Registry.Get("textbook")
	require.NoError(t, err)
	require.NoError(t, ent.Do(func(m *model.Model) error {
		_, err := m.KnockOutGene("b4025")
		return err
	}))

	res, _ := doJSON(t, http.MethodDelete, ts.URL+"/models/textbook", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	loadTextbook(t, ts)
	res, body := doJSON(t, http.MethodPost, ts.URL+"/tools/optimize_model", map[string]any{"model_id": "textbook"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	result := body["result"].(map[string]any)
	assert.InDelta(t, engine.TextbookGrowth, result["objective_value"].(float64), 1e-9)
}

func TestAPIKeyGate(t *testing.T) {
	s, ts := newTestServer(t, true)

	res, err := http.Get(ts.URL + "/tools")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Health stays open even with auth required.
	res2, _ := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, res2.StatusCode)

	key, _, err := s.Auth.GenerateKey(context.Background(), "test")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/tools", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+key)
	res3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res3.Body.Close()
	assert.Equal(t, http.StatusOK, res3.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	_, ts := newTestServer(t, false)
	loadTextbook(t, ts)

	// Unauthenticated admin access is rejected.
	res, err := http.Get(ts.URL + "/admin/activity")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	adminGet := func(path string) (*http.Response, map[string]any) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		require.NoError(t, err)
		req.SetBasicAuth("admin", "swordfish")
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Body.Close() })
		var body map[string]any
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		return res, body
	}

	res2, body := adminGet("/admin/activity")
	assert.Equal(t, http.StatusOK, res2.StatusCode)
	events := body["events"].([]any)
	assert.NotEmpty(t, events)

	res3, body := adminGet("/admin/latency")
	assert.Equal(t, http.StatusOK, res3.StatusCode)
	lat := body["tools"].(map[string]any)
	assert.Contains(t, lat, "load_model")
}
