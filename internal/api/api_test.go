package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/observability"
	"github.com/matzehuels/forcegraph/pkg/observability/prom"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/store"
)

const smallLayout = `{
	"generator": "watts-strogatz",
	"params": {"nodes": 12, "avg_degree": 4, "probability": 0.1},
	"seed": 7
}`

type testServer struct {
	*httptest.Server
	store *store.MemoryStore
	reg   *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	st := store.NewMemoryStore()
	reg := prometheus.NewRegistry()

	srv := New(Config{
		Runner:   pipeline.NewRunner(nil, nil, logger),
		Store:    st,
		Logger:   logger,
		Gatherer: reg,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: st, reg: reg}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestListGenerators(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/v1/generators", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string][]string](t, resp)
	assert.Equal(t, generate.Names(), body["generators"])
}

func TestCreateAndGetLayout(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/v1/layouts", smallLayout)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[layoutResponse](t, resp)
	require.NotNil(t, created.Run)
	assert.Equal(t, "/v1/layouts/"+created.ID, resp.Header.Get("Location"))
	assert.Equal(t, "watts-strogatz", created.Generator)
	assert.Equal(t, pipeline.AlgorithmForce, created.Algorithm)
	assert.Equal(t, uint64(7), created.Seed)
	assert.Equal(t, 12, created.Stats.NodeCount)
	assert.Equal(t, 24, created.Stats.EdgeCount)
	assert.NotEmpty(t, created.GraphHash)
	require.NotNil(t, created.Graph)
	for _, n := range created.Graph.Nodes {
		assert.NotNil(t, n.Position, "node %s has no position", n.ID)
	}
	assert.Empty(t, created.Artifacts)

	resp = ts.do(t, http.MethodGet, "/v1/layouts/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[store.Run](t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.GraphHash, got.GraphHash)
}

func TestCreateLayoutWithoutCacheRecomputes(t *testing.T) {
	ts := newTestServer(t)

	first := decode[layoutResponse](t, ts.do(t, http.MethodPost, "/v1/layouts", smallLayout))
	second := decode[layoutResponse](t, ts.do(t, http.MethodPost, "/v1/layouts", smallLayout))

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, pipeline.CacheInfo{}, second.Cache)
	assert.Equal(t, first.GraphHash, second.GraphHash)
}

func TestCreateLayoutInlinesTextArtifacts(t *testing.T) {
	ts := newTestServer(t)

	body := `{"generator": "erdos-renyi", "params": {"nodes": 5, "probability": 1}, "formats": ["json", "dot"]}`
	resp := ts.do(t, http.MethodPost, "/v1/layouts", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[layoutResponse](t, resp)
	require.Contains(t, created.Artifacts, pipeline.FormatDOT)
	assert.NotContains(t, created.Artifacts, pipeline.FormatJSON)
	assert.True(t, strings.HasPrefix(created.Artifacts[pipeline.FormatDOT], "graph G {"))
}

func TestCreateLayoutSphere(t *testing.T) {
	ts := newTestServer(t)

	body := `{"generator": "erdos-renyi", "params": {"nodes": 8, "probability": 0.5}, "algorithm": "sphere", "radius": 50}`
	resp := ts.do(t, http.MethodPost, "/v1/layouts", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[layoutResponse](t, resp)
	assert.Equal(t, pipeline.AlgorithmSphere, created.Algorithm)
	assert.Equal(t, 50.0, created.Radius)
	assert.Nil(t, created.Force)
	for _, n := range created.Graph.Nodes {
		require.NotNil(t, n.Position)
		assert.InDelta(t, 50.0, n.Position.Len(), 1e-9)
	}
}

func TestCreateLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"malformed json", `{"generator":`, errors.ErrCodeInvalidInput},
		{"unknown field", `{"generator": "geometric", "colour": "red"}`, errors.ErrCodeInvalidInput},
		{"no input", `{}`, errors.ErrCodeInvalidInput},
		{"unknown generator", `{"generator": "lattice", "params": {"nodes": 4}}`, errors.ErrCodeInvalidGenerator},
		{"bad generator params", `{"generator": "erdos-renyi", "params": {"nodes": 4, "probability": 2}}`, errors.ErrCodeInvalidGenerator},
		{"unknown algorithm", `{"generator": "geometric", "params": {"nodes": 4, "radius": 0.5}, "algorithm": "spring"}`, errors.ErrCodeInvalidInput},
		{"unknown format", `{"generator": "geometric", "params": {"nodes": 4, "radius": 0.5}, "formats": ["gif"]}`, errors.ErrCodeInvalidFormat},
		{"bad edge", `{"graph": {"nodes": [{"id": "a"}], "edges": [{"source": 0, "target": 3}]}}`, errors.ErrCodeInvalidEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			resp := ts.do(t, http.MethodPost, "/v1/layouts", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			body := decode[errorResponse](t, resp)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)

			runs, err := ts.store.List(context.Background(), store.ListOptions{})
			require.NoError(t, err)
			assert.Empty(t, runs)
		})
	}
}

func TestGetLayoutNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/v1/layouts/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeNotFound, decode[errorResponse](t, resp).Code)

	resp = ts.do(t, http.MethodGet, "/v1/layouts/bad.id", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteLayout(t *testing.T) {
	ts := newTestServer(t)

	created := decode[layoutResponse](t, ts.do(t, http.MethodPost, "/v1/layouts", smallLayout))

	resp := ts.do(t, http.MethodDelete, "/v1/layouts/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/v1/layouts/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/v1/layouts/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListLayouts(t *testing.T) {
	ts := newTestServer(t)

	for range 3 {
		resp := ts.do(t, http.MethodPost, "/v1/layouts", smallLayout)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := ts.do(t, http.MethodGet, "/v1/layouts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[listResponse](t, resp)
	assert.Len(t, all.Runs, 3)
	assert.Equal(t, store.DefaultListLimit, all.Limit)

	resp = ts.do(t, http.MethodGet, "/v1/layouts?limit=2&offset=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[listResponse](t, resp)
	require.Len(t, page.Runs, 1)
	assert.Equal(t, all.Runs[2].ID, page.Runs[0].ID)

	resp = ts.do(t, http.MethodGet, "/v1/layouts?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListLayoutsEmpty(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/v1/layouts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"runs":[]`)
}

func TestGetLayoutSVG(t *testing.T) {
	ts := newTestServer(t)

	created := decode[layoutResponse](t, ts.do(t, http.MethodPost, "/v1/layouts", smallLayout))

	resp := ts.do(t, http.MethodGet, "/v1/layouts/"+created.ID+"/svg?projection=xz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<svg")

	resp = ts.do(t, http.MethodGet, "/v1/layouts/"+created.ID+"/svg?projection=uv", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	m := prom.New(ts.reg)
	m.Install()
	t.Cleanup(observability.Reset)

	ts.do(t, http.MethodGet, "/healthz", "")
	ts.do(t, http.MethodGet, "/v1/layouts/"+uuid.NewString(), "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/layouts/{id}", "404")))

	resp := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "forcegraph_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidConfig, "x"), http.StatusBadRequest},
		{fmt.Errorf("layout: %w", errors.New(errors.ErrCodeInvalidEdge, "x")), http.StatusBadRequest},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{fmt.Errorf("layout: %w", errors.New(errors.ErrCodeTimeout, "x")), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New(errors.ErrCodeNetwork, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
