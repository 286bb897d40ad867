package restapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mideind/straeto/internal/app"
	"github.com/mideind/straeto/internal/appconf"
	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/feed/feedtest"
	"github.com/mideind/straeto/internal/logging"
	"github.com/mideind/straeto/internal/models"
)

// testNow is a Monday morning in the test network.
var testNow = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

// createTestApi creates a new restAPI instance with the test network loaded.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiAt(t, testNow)
}

// createTestApiAt is createTestApi with the engine clock stopped at now.
func createTestApiAt(t *testing.T, now time.Time) *RestAPI {
	t.Helper()

	e := engine.New(engine.WithClock(func() time.Time { return now }))
	require.NoError(t, e.Reload(context.Background(), feedtest.ReykjavikArchive(t)))

	application := &app.Application{
		Config: appconf.Config{
			Env:       appconf.EnvFlagToEnvironment("test"),
			ApiKeys:   []string{"TEST"},
			RateLimit: 100,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Engine: e,
	}

	return NewRestAPI(application)
}

// serveAndRetrieveEndpoint sets up a test server, makes a request to the specified endpoint, and returns the response
// and decoded model.
func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	return requestApiEndpoint(t, api, http.MethodGet, endpoint)
}

func requestApiEndpoint(t *testing.T, api *RestAPI, method, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()

	server := httptest.NewServer(api.Handler())
	defer server.Close()

	req, err := http.NewRequest(method, server.URL+endpoint, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var response models.ResponseModel
	err = json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	return resp, response
}

// entry returns data.entry of a response as a map.
func entry(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	e, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "data.entry should be an object")
	return e
}

// list returns data.list of a response.
func list(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	l, ok := data["list"].([]interface{})
	require.True(t, ok, "data.list should be an array")
	return l
}
