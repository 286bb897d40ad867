package restapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mideind/straeto/internal/app"
	"github.com/mideind/straeto/internal/appconf"
	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/logging"
)

// requestLogLines serves the requests through the full handler chain and
// returns the decoded http_request log records.
func requestLogLines(t *testing.T, api *RestAPI, reqs ...*http.Request) []map[string]any {
	t.Helper()

	var buf bytes.Buffer
	api.Logger = logging.NewStructuredLogger(&buf, slog.LevelInfo)
	handler := api.Handler()
	for _, req := range reqs {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record), line)
		if record["msg"] == "http_request" {
			records = append(records, record)
		}
	}
	return records
}

func TestRequestLoggingDepartureQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/where/arrivals/14?stop=Fiskisl%C3%B3%C3%B0&date=2024-03-11&key=TEST", nil)
	req.Header.Set("User-Agent", "skilti/2.1")

	records := requestLogLines(t, createTestApi(t), req)
	require.Len(t, records, 1)
	record := records[0]

	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "GET", record["method"])
	assert.Equal(t, "/api/where/arrivals/14", record["path"], "query string is not logged")
	assert.EqualValues(t, 200, record["status"])
	assert.Greater(t, record["bytes"], float64(0))
	assert.Contains(t, record, "duration_ms")
	assert.Equal(t, "skilti/2.1", record["user_agent"])
	assert.Equal(t, "http_server", record["component"])
}

func TestRequestLoggingStatusLevels(t *testing.T) {
	unloaded := NewRestAPI(&app.Application{
		Config: appconf.Config{
			Env:       appconf.EnvFlagToEnvironment("test"),
			ApiKeys:   []string{"TEST"},
			RateLimit: 100,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Engine: engine.New(),
	})

	tests := []struct {
		name   string
		api    *RestAPI
		req    *http.Request
		status int
		level  string
	}{
		{
			name:   "unknown stop",
			api:    createTestApi(t),
			req:    httptest.NewRequest(http.MethodGet, "/api/where/stop/S404.json?key=TEST", nil),
			status: http.StatusNotFound,
			level:  "INFO",
		},
		{
			name:   "missing key",
			api:    createTestApi(t),
			req:    httptest.NewRequest(http.MethodGet, "/api/where/current-time.json", nil),
			status: http.StatusUnauthorized,
			level:  "INFO",
		},
		{
			name:   "reload needs POST",
			api:    createTestApi(t),
			req:    httptest.NewRequest(http.MethodGet, "/api/admin/reload?key=TEST", nil),
			status: http.StatusMethodNotAllowed,
			level:  "INFO",
		},
		{
			name:   "no schedule loaded",
			api:    unloaded,
			req:    httptest.NewRequest(http.MethodGet, "/api/where/stops-named.json?name=Hlemmur&key=TEST", nil),
			status: http.StatusServiceUnavailable,
			level:  "WARN",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := requestLogLines(t, tt.api, tt.req)
			require.Len(t, records, 1)
			assert.EqualValues(t, tt.status, records[0]["status"])
			assert.Equal(t, tt.level, records[0]["level"])
		})
	}
}

func TestRequestLoggingKeepsKeyOutOfLog(t *testing.T) {
	var buf bytes.Buffer
	handler := NewRequestLoggingMiddleware(logging.NewStructuredLogger(&buf, slog.LevelInfo))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/api/where/stop-closest.json?key=s3cr3t&lat=64.1466&lon=-21.9426", nil))

	output := buf.String()
	assert.Contains(t, output, `"path":"/api/where/stop-closest.json"`)
	assert.Contains(t, output, `"bytes":0`)
	assert.NotContains(t, output, "s3cr3t")
	assert.NotContains(t, output, "64.1466")
}

func TestRequestLoggingContextLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := NewRequestLoggingMiddleware(logging.NewStructuredLogger(&buf, slog.LevelInfo))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("resolved stop", slog.String("stop", "S6"))
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/where/stop/S6.json", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"resolved stop"`)
	assert.Contains(t, lines[0], `"stop":"S6"`)
	assert.Contains(t, lines[1], `"msg":"http_request"`)
}

func TestRequestLoggingObservers(t *testing.T) {
	var statuses []int
	middleware := NewRequestLoggingMiddleware(logging.NewStructuredLogger(io.Discard, slog.LevelInfo),
		func(status int) { statuses = append(statuses, status) })

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/where/stop/S404.json" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/where/stop/S1.json", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/where/stop/S404.json", nil))

	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, statuses)
}
