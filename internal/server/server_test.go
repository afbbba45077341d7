package server_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/jtdguard/internal/bindfile"
	"github.com/reoring/jtdguard/internal/config"
	"github.com/reoring/jtdguard/internal/server"
)

const routes = `
routes:
  - method: POST
    path: /users/{id}
    bindings:
      - property: params
        schema: {properties: {id: {type: string}}}
      - property: body
        sample: {name: ""}
        schema: {properties: {name: {type: string}}}
`

func newServer(t *testing.T, logs *bytes.Buffer) *server.Server {
	t.Helper()
	f, err := bindfile.Parse([]byte(routes))
	require.NoError(t, err)
	cfg := &config.Config{Server: config.ServerConfig{Addr: ":0"}}
	cfg.Validator.SampleCheck = true
	s, err := server.New(cfg, f.Routes, slog.New(slog.NewTextHandler(logs, nil)))
	require.NoError(t, err)
	return s
}

func TestServer_EchoesParsed(t *testing.T) {
	logs := &bytes.Buffer{}
	s := newServer(t, logs)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/7", strings.NewReader(`{"name":"Kyle"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		RequestID string         `json:"request_id"`
		Parsed    map[string]any `json:"parsed"`
	}
	require.NoError(t, j.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), out.RequestID)
	assert.NotEmpty(t, out.RequestID)
	assert.Equal(t, map[string]any{"id": "7"}, out.Parsed["params"])
	assert.Equal(t, map[string]any{"name": "Kyle"}, out.Parsed["body"])
	assert.Contains(t, logs.String(), "request completed")
}

func TestServer_RejectsInvalidBody(t *testing.T) {
	s := newServer(t, &bytes.Buffer{})
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/7", strings.NewReader(`{"name":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "JTDSchemaParsingError")
}

func TestServer_Healthz(t *testing.T) {
	s := newServer(t, &bytes.Buffer{})
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_BadSchema(t *testing.T) {
	f, err := bindfile.Parse([]byte(`
routes:
  - method: GET
    path: /x
    bindings:
      - property: query
        schema: {ref: missing}
`))
	require.NoError(t, err)
	_, err = server.New(&config.Config{}, f.Routes, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
