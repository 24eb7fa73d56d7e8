package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/ragsearch/internal/config"
	"github.com/kailas-cloud/ragsearch/internal/db/memory"
	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/method"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/outcome"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
	chiTransport "github.com/kailas-cloud/ragsearch/internal/transport/chi"
)

const testSeed = `[
  {"id": "a", "content": "급식 식단표 안내", "category": "급식", "tags": ["급식"], "embedding": [1, 0, 0]},
  {"id": "b", "content": "기말고사 일정", "category": "학사", "embedding": [0, 1, 0]}
]`

// newEmbeddingServer answers OpenAI embedding requests with vec, or 500 when vec is nil.
func newEmbeddingServer(t *testing.T, vec []float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if vec == nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-ada-002",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": vec}},
			"usage":  map[string]int{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

const unembeddedSeed = `[
  {"id": "a", "content": "급식 식단표 안내", "category": "급식", "tags": ["급식"]},
  {"id": "b", "content": "기말고사 일정", "category": "학사"}
]`

func testConfig(t *testing.T, embeddingURL string) config.Config {
	t.Helper()
	return testConfigWithSeed(t, embeddingURL, testSeed)
}

func testConfigWithSeed(t *testing.T, embeddingURL, seedJSON string) config.Config {
	t.Helper()
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(seedJSON), 0o600))

	cfg := config.Config{
		Database:  config.DatabaseConfig{Driver: config.DriverMemory, SeedFile: seed},
		Embedding: config.EmbeddingConfig{APIKey: "sk-test", BaseURL: embeddingURL, Dimensions: 3},
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBuildServices_VectorSearch(t *testing.T) {
	emb := newEmbeddingServer(t, []float32{1, 0, 0})
	cfg := testConfig(t, emb.URL)

	svc, err := buildServices(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.close()

	assert.False(t, svc.search.RerankEnabled())

	out := svc.search.Search(context.Background(), "급식")
	require.True(t, out.Success(), "err: %v", out.Err())
	assert.Equal(t, "vector_search", string(out.Method()))
	require.Len(t, out.Results(), 1)
	assert.Equal(t, "a", out.Results()[0].ID())
}

func TestBuildServices_EmbeddingDownFallsBackToText(t *testing.T) {
	emb := newEmbeddingServer(t, nil)
	cfg := testConfig(t, emb.URL)

	svc, err := buildServices(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.close()

	out := svc.search.Search(context.Background(), "기말고사")
	require.True(t, out.Success(), "err: %v", out.Err())
	assert.Equal(t, "text_search", string(out.Method()))
	require.Len(t, out.Results(), 1)
	assert.Equal(t, "b", out.Results()[0].ID())
}

func TestBuildServices_RerankEnabledByKey(t *testing.T) {
	emb := newEmbeddingServer(t, []float32{1, 0, 0})
	cfg := testConfig(t, emb.URL)
	cfg.Rerank.APIKey = "co-test"

	svc, err := buildServices(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.close()

	assert.True(t, svc.search.RerankEnabled())
}

func TestBuildServices_MissingSeed(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.Database.SeedFile = filepath.Join(t.TempDir(), "absent.json")

	_, err := buildServices(context.Background(), &cfg, zap.NewNop())
	require.Error(t, err)
}

func TestBuildServices_FillsMissingSeedEmbeddings(t *testing.T) {
	emb := newEmbeddingServer(t, []float32{1, 0, 0})
	cfg := testConfigWithSeed(t, emb.URL, unembeddedSeed)

	svc, err := buildServices(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.close()

	out := svc.search.Search(context.Background(), "급식")
	require.True(t, out.Success(), "err: %v", out.Err())
	assert.Equal(t, "vector_search", string(out.Method()))
	assert.Len(t, out.Results(), 2)
}

func TestBuildServices_SeedFillFailureStillServes(t *testing.T) {
	emb := newEmbeddingServer(t, nil)
	cfg := testConfigWithSeed(t, emb.URL, unembeddedSeed)
	core, logs := observer.New(zap.WarnLevel)

	svc, err := buildServices(context.Background(), &cfg, zap.New(core))
	require.NoError(t, err)
	defer svc.close()

	assert.Equal(t, 1, logs.FilterMessageSnippet("Seed embeddings incomplete").Len())
	out := svc.search.Search(context.Background(), "기말고사")
	require.True(t, out.Success(), "err: %v", out.Err())
	assert.Equal(t, "text_search", string(out.Method()))
}

func TestEmbedSeed_WritesVectors(t *testing.T) {
	emb := newEmbeddingServer(t, []float32{0, 1, 0})
	cfg := testConfigWithSeed(t, emb.URL, unembeddedSeed)
	out := filepath.Join(t.TempDir(), "embedded.json")

	var buf bytes.Buffer
	require.NoError(t, embedSeed(context.Background(), &cfg, out, &buf, zap.NewNop()))
	assert.Contains(t, buf.String(), "embedded 2 records")

	store, err := memory.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 0, store.Missing())

	// Source file is left alone when an output path is given.
	src, err := memory.LoadFile(cfg.Database.SeedFile)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Missing())
}

func TestEmbedSeed_ProviderDownWritesNothing(t *testing.T) {
	emb := newEmbeddingServer(t, nil)
	cfg := testConfigWithSeed(t, emb.URL, unembeddedSeed)
	out := filepath.Join(t.TempDir(), "embedded.json")

	err := embedSeed(context.Background(), &cfg, out, io.Discard, zap.NewNop())
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEmbedSeed_AlreadyEmbedded(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")

	var buf bytes.Buffer
	require.NoError(t, embedSeed(context.Background(), &cfg, "", &buf, zap.NewNop()))
	assert.Contains(t, buf.String(), "already embedded")
}

func TestEmbedSeed_RequiresMemoryDriver(t *testing.T) {
	cfg := config.Config{
		Database:  config.DatabaseConfig{Driver: config.DriverPostgres, DSN: "postgres://localhost/school"},
		Embedding: config.EmbeddingConfig{APIKey: "sk-test"},
	}
	cfg.ApplyDefaults()

	err := embedSeed(context.Background(), &cfg, "", io.Discard, zap.NewNop())
	require.ErrorIs(t, err, errSeedDriver)
}

func TestRouter_EndToEnd(t *testing.T) {
	emb := newEmbeddingServer(t, []float32{1, 0, 0})
	cfg := testConfig(t, emb.URL)
	cfg.Auth.APIKeys = []string{"secret"}

	svc, err := buildServices(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.close()

	h := newRouter(&cfg, chiTransport.NewServer(svc.search, svc.health, zap.NewNop()), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, chiTransport.EdgeSearchPath, strings.NewReader(`{"query":"급식"}`))
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body chiTransport.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "vector_search", body.Method)
	require.Len(t, body.Results, 1)
	require.NotNil(t, body.Results[0].Similarity)

	// Preflight passes without a token.
	pre := httptest.NewRequest(http.MethodOptions, chiTransport.SearchPath, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, pre)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := jsonRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal error"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestWideEventMiddleware_LogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := wideEventMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusTeapot), entries[0].ContextMap()["status"])
	assert.Equal(t, "/health", entries[0].ContextMap()["path"])
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	rec := domain.ContentRecord{ID: "a", Content: "급식 <안내>", Category: "급식"}
	err := printOutcome(&buf, outcome.OK([]result.Result{result.FromRecord(rec)}, method.TextSearch))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"method": "text_search"`)
	assert.Contains(t, buf.String(), "<안내>")
	assert.Contains(t, buf.String(), `"tags": []`)

	buf.Reset()
	err = printOutcome(&buf, outcome.OK(nil, method.VectorSearch))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"results": []`)

	buf.Reset()
	err = printOutcome(&buf, outcome.Failed(domain.ErrSearchUnavailable))
	require.ErrorIs(t, err, errQueryFailed)
	require.ErrorIs(t, err, domain.ErrSearchUnavailable)
	assert.Contains(t, buf.String(), `"success": false`)
}

// runLoadConfig parses args with the real root flags and returns what loadConfig resolved.
func runLoadConfig(t *testing.T, args ...string) (string, config.Config, error) {
	t.Helper()
	var (
		env    string
		cfg    config.Config
		runErr error
	)
	app := newApp()
	app.Commands = nil
	app.DefaultCommand = ""
	app.Action = func(_ context.Context, cmd *cli.Command) error {
		env, cfg, runErr = loadConfig(cmd)
		return nil
	}
	require.NoError(t, app.Run(context.Background(), append([]string{"ragsearch"}, args...)))
	return env, cfg, runErr
}

// unsetForTest clears variables for the test and restores them afterwards.
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestLoadConfig_EnvFromDotEnv(t *testing.T) {
	unsetForTest(t, "ENV", "DATABASE_URL", "OPENAI_API_KEY")
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(
		"ENV=prod\nDATABASE_URL=postgres://localhost/school\nOPENAI_API_KEY=sk-dotenv\n",
	), 0o600))

	env, cfg, err := runLoadConfig(t, "--dotenv", dotenv)
	require.NoError(t, err)
	assert.Equal(t, "prod", env)
	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "sk-dotenv", cfg.Embedding.APIKey)
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	env, cfg, err := runLoadConfig(t, "--dotenv", "", "--env", "local")
	require.NoError(t, err)
	assert.Equal(t, "local", env)
	assert.Equal(t, config.DriverMemory, cfg.Database.Driver)
}

func TestLoadConfig_DefaultsToLocal(t *testing.T) {
	unsetForTest(t, "ENV")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	env, _, err := runLoadConfig(t, "--dotenv", "")
	require.NoError(t, err)
	assert.Equal(t, "local", env)
}
