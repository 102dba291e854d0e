package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/herdcomp/entity"
	"github.com/thisisjab/herdcomp/executor"
	"github.com/thisisjab/herdcomp/metrics"
)

const testSecret = "test-secret"

type stubBackend struct {
	count    int64
	tenantID string
}

func (b *stubBackend) ListAnimals(_ context.Context, q entity.ListQuery) (entity.ListPage, error) {
	b.tenantID = q.TenantID
	return entity.ListPage{}, nil
}

func (b *stubBackend) CountAnimals(_ context.Context, q entity.CountQuery) (int64, error) {
	b.tenantID = q.TenantID
	return b.count, nil
}

func (b *stubBackend) CountByGroup(context.Context, entity.CountQuery) ([]entity.GroupCount, error) {
	return nil, nil
}

func (b *stubBackend) Aggregate(context.Context, entity.AggregateQuery) ([]entity.AggregateRow, error) {
	return nil, nil
}

func (b *stubBackend) ListEvents(context.Context, entity.EventQuery) ([]entity.EventRecord, error) {
	return nil, nil
}

func (b *stubBackend) CallProcedure(context.Context, string, map[string]any) ([]map[string]any, error) {
	return nil, errors.New("no procedures")
}

type stubPinger struct{ err error }

func (p stubPinger) Name() string { return "stub" }
func (p stubPinger) Connect(context.Context) error { return p.err }

func newTestServer(t *testing.T, backend executor.Backend, pinger Pinger) (*server, *prometheus.Registry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	s, err := NewServer(Config{
		Addr: "localhost:0",
		CORS: CORSConfig{TrustedOrigins: []string{"http://app.local"}},
		Auth: AuthConfig{Secret: testSecret},
	}, logger, Services{
		Executor: executor.New(backend, logger),
		Metrics:  metrics.New(reg),
		Storage:  pinger,
		Gatherer: reg,
	})
	require.NoError(t, err)

	return s, reg
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorKind string          `json:"errorKind"`
	Data      json.RawMessage `json:"data"`
	Metadata  map[string]any  `json:"metadata"`
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}

	return w, env
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, stubPinger{})
	w, env := do(t, s.routes(), http.MethodGet, "/api/healthcheck", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"storage":"stub"}`, string(env.Data))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthCheckUnreachableStorage(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, stubPinger{err: errors.New("connection refused")})
	w, env := do(t, s.routes(), http.MethodGet, "/api/healthcheck", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, env.Success)
}

func TestRequestIDIsKeptWhenValid(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)

	id := "3f1c2a5e-8d4b-4b8e-9a57-0c3f6d7e8a91"
	w, _ := do(t, s.routes(), http.MethodGet, "/api/healthcheck", "", map[string]string{"X-Request-ID": id})
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))

	w, _ = do(t, s.routes(), http.MethodGet, "/api/healthcheck", "", map[string]string{"X-Request-ID": "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get("X-Request-ID"))
}

func TestParseHandler(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)
	w, env := do(t, s.routes(), http.MethodPost, "/api/commands/parse", `{"command":"LIST ID FOR RC=3 DIM>60"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Command struct {
			Command string   `json:"command"`
			Items   []string `json:"items"`
		} `json:"command"`
		Section string `json:"section"`
		Route   string `json:"route"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))

	assert.Equal(t, "LIST", out.Command.Command)
	assert.Equal(t, []string{"ID"}, out.Command.Items)
	assert.Equal(t, "to-breed", out.Section)
	assert.Equal(t, "/animals?filter=to-breed", out.Route)
}

func TestParseHandlerErrors(t *testing.T) {
	tests := map[string]struct {
		body   string
		status int
		kind   string
	}{
		"unknown command": {`{"command":"FROB ID"}`, http.StatusBadRequest, "parse"},
		"unsupported":     {`{"command":"GRAPH MILK"}`, http.StatusNotImplemented, "not_implemented"},
		"missing command": {`{}`, http.StatusUnprocessableEntity, "bad_input"},
		"unknown key":     {`{"command":"LIST","extra":1}`, http.StatusUnprocessableEntity, "bad_input"},
		"bad json":        {`{"command":`, http.StatusBadRequest, "bad_input"},
		"empty body":      {``, http.StatusBadRequest, "bad_input"},
		"two values":      {`{"command":"LIST"} {}`, http.StatusBadRequest, "bad_input"},
	}

	s, _ := newTestServer(t, &stubBackend{}, nil)

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w, env := do(t, s.routes(), http.MethodPost, "/api/commands/parse", tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
			assert.Equal(t, tt.kind, env.ErrorKind)
		})
	}
}

func TestExecuteRequiresToken(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)

	w, env := do(t, s.routes(), http.MethodPost, "/api/commands/execute", `{"command":"COUNT"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required", env.Message)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	bad := signToken(t, "other-secret", jwt.MapClaims{"sub": "user-1", "tenant_id": "t1"})
	w, _ = do(t, s.routes(), http.MethodPost, "/api/commands/execute", `{"command":"COUNT"}`, map[string]string{"Authorization": "Bearer " + bad})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, s.routes(), http.MethodPost, "/api/commands/execute", `{"command":"COUNT"}`, map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "tenant_id": "t1", "exp": time.Now().Add(-time.Hour).Unix()})
	w, _ = do(t, s.routes(), http.MethodPost, "/api/commands/execute", `{"command":"COUNT"}`, map[string]string{"Authorization": "Bearer " + expired})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExecuteHandler(t *testing.T) {
	backend := &stubBackend{count: 42}
	s, _ := newTestServer(t, backend, nil)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":           "user-1",
		"user_metadata": map[string]any{"tenant_id": "farm-7"},
		"exp":           time.Now().Add(time.Hour).Unix(),
	})

	w, env := do(t, s.routes(), http.MethodPost, "/api/commands/execute", `{"command":"COUNT FOR RC=5"}`, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var res executor.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, executor.TypeCount, res.Type)
	require.NotNil(t, res.Count)
	assert.EqualValues(t, 42, *res.Count)
	assert.Equal(t, "farm-7", backend.tenantID)
}

func TestExecuteHandlerReportsCommandErrorsInResult(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1"})
	w, env := do(t, s.routes(), http.MethodPost, "/api/commands/execute", `{"command":"COUNT"}`, map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "No tenant associated with user", env.Message)
	assert.Equal(t, "auth", env.ErrorKind)

	var res executor.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, executor.TypeError, res.Type)
	assert.Equal(t, "auth", string(res.ErrorKind))
}

func TestSuggestHandler(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)
	w, env := do(t, s.routes(), http.MethodPost, "/api/commands/suggest", `{"text":"LI"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Context     string `json:"context"`
		Suggestions []struct {
			Value string `json:"value"`
		} `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))

	assert.Equal(t, "command", out.Context)
	require.NotEmpty(t, out.Suggestions)
	assert.Equal(t, "LIST", out.Suggestions[0].Value)
}

func TestSuggestHandlerRejectsNegativeCursor(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)
	w, env := do(t, s.routes(), http.MethodPost, "/api/commands/suggest", `{"text":"LI","cursor":-1}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Metadata["fields"], "cursor")
}

func TestCompleteHandler(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)
	body := `{"text":"LIST ID PE","cursor":10,"suggestion":{"type":"item","value":"PEN","label":"PEN"}}`
	w, env := do(t, s.routes(), http.MethodPost, "/api/commands/complete", body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"LIST ID PEN ","cursor":12}`, string(env.Data))
}

func TestHighlightHandler(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)

	w, env := do(t, s.routes(), http.MethodPost, "/api/commands/highlight", `{"text":"LIST ID"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"keyword"`)

	_, env = do(t, s.routes(), http.MethodPost, "/api/commands/highlight", `{"text":"  "}`, nil)
	assert.JSONEq(t, `{"segments":[]}`, string(env.Data))
}

func TestSectionsHandler(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)
	w, env := do(t, s.routes(), http.MethodGet, "/api/sections", "", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Sections []sectionOutput `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.Sections, 6)
	assert.Equal(t, "fresh-cows", string(out.Sections[0].Name))
	assert.Equal(t, "LIST ID PEN LACT DIM FOR DIM<21", out.Sections[0].Template)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)
	w, _ := do(t, s.routes(), http.MethodOptions, "/api/commands/parse", "", map[string]string{
		"Origin":                        "http://app.local",
		"Access-Control-Request-Method": "POST",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{}, nil)
	h := s.routes()

	do(t, h, http.MethodGet, "/api/healthcheck", "", nil)

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte(`herdcomp_api_requests_total{route="GET /api/healthcheck",status="200"} 1`)))
}

func TestNewServerValidatesConfig(t *testing.T) {
	_, err := NewServer(Config{Addr: "localhost:0"}, slog.Default(), Services{})
	assert.Error(t, err)

	_, err = NewServer(Config{Addr: "localhost:0", CertFile: "cert.pem", Auth: AuthConfig{Secret: "x"}}, slog.Default(), Services{})
	assert.Error(t, err)
}
