package restapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mideind/straeto/internal/realtime"
	"github.com/mideind/straeto/internal/realtime/realtimetest"
)

// withTracker attaches a tracker that has fetched the given positions once.
func withTracker(t *testing.T, api *RestAPI, positions ...realtimetest.Position) {
	t.Helper()

	body := realtimetest.VehiclePositions(t, positions...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-protobuf")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	tracker := realtime.NewTracker(realtime.Config{VehiclePositionsURL: server.URL}, server.Client(), api.Logger)
	require.NoError(t, tracker.Refresh(context.Background()))
	api.Tracker = tracker
}

func busPositions() []realtimetest.Position {
	return []realtimetest.Position{
		{VehicleID: "bus-1", TripID: "T1", RouteID: "ST.14", Lat: 64.1475, Lon: -21.935,
			Timestamp: time.Date(2024, 3, 11, 8, 28, 0, 0, time.UTC)},
		{VehicleID: "bus-2", TripID: "T9", RouteID: "ST.99", Lat: 64.1433, Lon: -21.9154,
			Timestamp: time.Date(2024, 3, 11, 8, 28, 0, 0, time.UTC)},
	}
}

func TestPredictedArrivalsWithoutTracker(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/where/predicted-arrivals/14?stop=S5&key=TEST")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get("Retry-After"))
	assert.Equal(t, "real-time data unavailable", model.Text)
}

func TestPredictedArrivalsHandler(t *testing.T) {
	api := createTestApiAt(t, time.Date(2024, 3, 11, 8, 28, 30, 0, time.UTC))
	withTracker(t, api, busPositions()...)

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/predicted-arrivals/14?stop=Mj%C3%B3dd&key=TEST")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e := entry(t, model)
	assert.Equal(t, "ST.14", e["routeId"])
	assert.Equal(t, "Mjódd", e["stop"])
	assert.Equal(t, true, e["found"])

	predicted, ok := e["predicted"].([]interface{})
	require.True(t, ok)
	require.Len(t, predicted, 1)
	p := predicted[0].(map[string]interface{})
	assert.Equal(t, "outbound", p["direction"])
	assert.Equal(t, "08:43:00", p["time"])
	assert.Equal(t, "bus-1", p["vehicleId"])
	assert.Equal(t, "T1", p["tripId"])
	assert.EqualValues(t, 180, p["delaySeconds"])
}

func TestPredictedArrivalsRouteNotServed(t *testing.T) {
	api := createTestApi(t)
	withTracker(t, api, busPositions()...)

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/predicted-arrivals/99?stop=S1&key=TEST")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	e := entry(t, model)
	assert.Equal(t, false, e["found"])
	assert.Empty(t, e["predicted"])

	resp, _ = serveApiAndRetrieveEndpoint(t, api, "/api/where/predicted-arrivals/14?stop=Nowhere&key=TEST")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVehiclesForRouteHandler(t *testing.T) {
	api := createTestApi(t)
	withTracker(t, api, busPositions()...)

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/vehicles-for-route/14?key=TEST")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	vehicles := list(t, model)
	require.Len(t, vehicles, 1)
	v := vehicles[0].(map[string]interface{})
	assert.Equal(t, "bus-1", v["vehicleId"])
	assert.Equal(t, "T1", v["tripId"])
	assert.EqualValues(t, time.Date(2024, 3, 11, 8, 28, 0, 0, time.UTC).UnixMilli(), v["lastUpdateTime"])

	resp, _ = serveApiAndRetrieveEndpoint(t, api, "/api/where/vehicles-for-route/77?key=TEST")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVehiclesForRouteWithoutTracker(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/where/vehicles-for-route/ST.99?key=TEST")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, list(t, model))
}

func TestVehiclesForRouteNegativeBearing(t *testing.T) {
	api := createTestApi(t)
	westward := float32(-90)
	withTracker(t, api, realtimetest.Position{
		VehicleID: "bus-7", TripID: "T3", RouteID: "ST.14",
		Lat: 64.1475, Lon: -21.935, Bearing: &westward,
	})

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/vehicles-for-route/14?key=TEST")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	vehicles := list(t, model)
	require.Len(t, vehicles, 1)
	v := vehicles[0].(map[string]interface{})
	assert.Equal(t, "W", v["heading"])
	assert.EqualValues(t, 270, v["bearing"])
}
