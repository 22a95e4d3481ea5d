package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/koshadb/pkg/kosha"
	"github.com/ssargent/koshadb/pkg/semantics"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func gacchati() semantics.Tinanta {
	return semantics.Tinanta{
		Dhatu:       &semantics.Dhatu{Text: "gam"},
		Purusha:     semantics.Ptr(semantics.Prathama),
		Vacana:      semantics.Ptr(semantics.Eka),
		Lakara:      semantics.Ptr(semantics.Lat),
		PadaPrayoga: semantics.Ptr(semantics.Parasmaipada),
	}
}

func gacchatiLocative() semantics.Subanta {
	return semantics.Subanta{
		Pratipadika: semantics.Pratipadika{Text: "gacCat"},
		Linga:       semantics.Ptr(semantics.Pum),
		Vibhakti:    semantics.Ptr(semantics.V7),
		Vacana:      semantics.Ptr(semantics.Eka),
	}
}

// openTestKosha builds a small store and opens it.
func openTestKosha(t *testing.T) *kosha.Kosha {
	t.Helper()

	dir := t.TempDir()
	b, err := kosha.NewBuilder(dir)
	require.NoError(t, err)
	require.NoError(t, b.Insert("ca", semantics.Avyaya{Pratipadika: semantics.Pratipadika{Text: "ca"}}))
	require.NoError(t, b.Insert("gacCati", gacchati()))
	require.NoError(t, b.Insert("gacCati", gacchatiLocative()))
	require.NoError(t, b.Insert("rama", semantics.Subanta{Pratipadika: semantics.Pratipadika{Text: "rama"}}))
	require.NoError(t, b.Insert("ramau", semantics.Subanta{Pratipadika: semantics.Pratipadika{Text: "rama"}}))
	require.NoError(t, b.Insert("ramya", semantics.Subanta{Pratipadika: semantics.Pratipadika{Text: "ramya"}}))
	require.NoError(t, b.Finish())

	k, err := kosha.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { k.Close() })
	return k
}

type testServer struct {
	server  *Server
	handler http.Handler
	reg     *prometheus.Registry
	hook    *test.Hook
}

func setupTestServer(t *testing.T, lexicon Lexicon, config ServerConfig) *testServer {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	// A private registry per test avoids duplicate registration panics.
	reg := prometheus.NewRegistry()
	server, err := NewServer(lexicon, config, NewMetrics(reg), logger)
	require.NoError(t, err)

	return &testServer{
		server:  server,
		handler: NewRouter(server, reg),
		reg:     reg,
		hook:    hook,
	}
}

func (ts *testServer) do(t *testing.T, path string, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(path, "/api/") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	}
	return w, env
}

func TestServer_Health(t *testing.T) {
	ts := setupTestServer(t, openTestKosha(t), ServerConfig{})

	w, env := ts.do(t, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"healthy"}`, string(env.Data))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.server.metrics.healthChecksTotal.WithLabelValues(statusSuccess)))
}

func TestServer_GetPadas(t *testing.T) {
	ts := setupTestServer(t, openTestKosha(t), ServerConfig{CacheSize: 8})

	w, env := ts.do(t, "/api/v1/padas/gacCati", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Key   string            `json:"key"`
		Padas []json.RawMessage `json:"padas"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "gacCati", resp.Key)
	require.Len(t, resp.Padas, 2)

	first, err := semantics.UnmarshalPada(resp.Padas[0])
	require.NoError(t, err)
	second, err := semantics.UnmarshalPada(resp.Padas[1])
	require.NoError(t, err)
	assert.True(t, gacchati().Equal(first))
	assert.True(t, gacchatiLocative().Equal(second))

	// The second request is served from the cache.
	w, _ = ts.do(t, "/api/v1/padas/gacCati", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ts.server.cache.len())
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.server.metrics.cacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.server.metrics.cacheTotal.WithLabelValues("miss")))
}

func TestServer_GetPadasNotFound(t *testing.T) {
	ts := setupTestServer(t, openTestKosha(t), ServerConfig{})

	w, env := ts.do(t, "/api/v1/padas/ram", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Key not found", env.Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.server.metrics.lookupsTotal.WithLabelValues("get", statusError)))
}

func TestServer_Contains(t *testing.T) {
	ts := setupTestServer(t, openTestKosha(t), ServerConfig{})

	testCases := []struct {
		key    string
		exists bool
		prefix bool
	}{
		{"rama", true, true},
		{"ram", false, true},
		{"ramy", false, true},
		{"ramz", false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			w, env := ts.do(t, "/api/v1/contains/"+tc.key, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp ContainsResponse
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, tc.key, resp.Key)
			assert.Equal(t, tc.exists, resp.Exists)
			assert.Equal(t, tc.prefix, resp.Prefix)
		})
	}
}

func TestServer_Prefix(t *testing.T) {
	ts := setupTestServer(t, openTestKosha(t), ServerConfig{})

	testCases := []struct {
		path   string
		status int
		keys   []string
		limit  int
	}{
		{"/api/v1/prefix/ram", http.StatusOK, []string{"rama", "ramau", "ramya"}, defaultPrefixLimit},
		{"/api/v1/prefix/ram?limit=2", http.StatusOK, []string{"rama", "ramau"}, 2},
		{"/api/v1/prefix/ram?limit=5000", http.StatusOK, []string{"rama", "ramau", "ramya"}, maxPrefixLimit},
		{"/api/v1/prefix/x", http.StatusOK, []string{}, defaultPrefixLimit},
		{"/api/v1/prefix/", http.StatusOK, []string{"ca", "gacCati", "rama", "ramau", "ramya"}, defaultPrefixLimit},
		{"/api/v1/prefix/?limit=1", http.StatusOK, []string{"ca"}, 1},
		{"/api/v1/prefix/ram?limit=0", http.StatusBadRequest, nil, 0},
		{"/api/v1/prefix/ram?limit=abc", http.StatusBadRequest, nil, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			w, env := ts.do(t, tc.path, nil)
			require.Equal(t, tc.status, w.Code)
			if tc.status != http.StatusOK {
				assert.False(t, env.Success)
				return
			}

			var resp PrefixResponse
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, tc.keys, resp.Keys)
			assert.Equal(t, tc.limit, resp.Limit)
		})
	}
}

func TestServer_Stats(t *testing.T) {
	k := openTestKosha(t)
	ts := setupTestServer(t, k, ServerConfig{})

	w, env := ts.do(t, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 5, resp.Keys)
	assert.Equal(t, uint64(6), resp.Records)
	assert.Equal(t, k.Manifest().BuildID, resp.BuildID)
	assert.Equal(t, "zstd", resp.IndexCompression)
	assert.Equal(t, 5.0, testutil.ToFloat64(ts.server.metrics.koshaKeys))
}

func TestServer_Auth(t *testing.T) {
	ts := setupTestServer(t, openTestKosha(t), ServerConfig{APIKey: "secret"})

	w, env := ts.do(t, "/api/v1/padas/ca", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Missing X-API-Key header", env.Error)

	w, _ = ts.do(t, "/api/v1/padas/ca", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = ts.do(t, "/api/v1/padas/ca", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.server.metrics.authRequestsTotal.WithLabelValues(statusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.server.metrics.authRequestsTotal.WithLabelValues(statusSuccess)))

	// Metrics stay reachable without a key.
	w, _ = ts.do(t, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kosha_http_requests_total")
}

// brokenLexicon wraps a kosha and makes decoding fail for one key.
type brokenLexicon struct {
	Lexicon
	partial bool
}

func (b *brokenLexicon) GetAllPadas(key string) ([]semantics.Pada, error) {
	padas, _ := b.Lexicon.GetAllPadas(key)
	var result *multierror.Error
	result = multierror.Append(result, errors.New("record 1: invalid tag"))
	if !b.partial {
		padas = nil
	}
	return padas, result
}

func TestServer_GetPadasDecodeErrors(t *testing.T) {
	k := openTestKosha(t)

	t.Run("partial", func(t *testing.T) {
		ts := setupTestServer(t, &brokenLexicon{Lexicon: k, partial: true}, ServerConfig{})

		w, env := ts.do(t, "/api/v1/padas/gacCati", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp PadasResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Len(t, resp.Padas, 2)
		assert.Equal(t, []string{"record 1: invalid tag"}, resp.Errors)
	})

	t.Run("nothing decodable", func(t *testing.T) {
		ts := setupTestServer(t, &brokenLexicon{Lexicon: k}, ServerConfig{})

		w, env := ts.do(t, "/api/v1/padas/gacCati", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, env.Success)
	})
}

func TestStartServer_Shutdown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Port 0 picks a free port; the cancelled context shuts the server down.
	err := StartServer(ctx, openTestKosha(t), ServerConfig{Bind: "127.0.0.1", Port: 0}, logger)
	assert.NoError(t, err)
}
