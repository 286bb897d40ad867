package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReloadObserve(t *testing.T) {
	c := NewCollector(time.Hour)

	c.ReloadObserve(250*time.Millisecond, nil)
	c.ReloadObserve(0, assert.AnError)
	c.ReloadObserve(0, assert.AnError)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.FeedReloads.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.FeedReloads.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.FeedLoadDuration))
	assert.Greater(t, testutil.ToFloat64(c.SnapshotBuiltAt), 0.0)
}

func TestSnapshotSet(t *testing.T) {
	c := NewCollector(time.Hour)
	c.SnapshotSet(6, 4, 5, 14, 2)

	assert.Equal(t, 6.0, testutil.ToFloat64(c.SnapshotSize.WithLabelValues("stops")))
	assert.Equal(t, 14.0, testutil.ToFloat64(c.SnapshotSize.WithLabelValues("halts")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.FeedRowsDropped))
	assert.Equal(t, 3600.0, testutil.ToFloat64(c.RefreshInterval))
}

func TestCountersAndGauges(t *testing.T) {
	c := NewCollector(0)

	c.ArrivalsQueried(true)
	c.ArrivalsQueried(false)
	c.ArrivalsQueried(true)
	c.VehiclesSet(12)
	c.RequestServed(200)
	c.RequestServed(404)
	c.NATSPublishedInc()
	c.NATSPublishErrInc()
	c.NATSSetConnected(true)
	c.PublishObserve(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ArrivalQueries.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ArrivalQueries.WithLabelValues("false")))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.RealtimeVehicles))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSPublishErrs))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSConnected))

	c.NATSSetConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.NATSConnected))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector(time.Minute)
	c.ArrivalsQueried(true)

	server := httptest.NewServer(c.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `straeto_arrival_queries_total{found="true"} 1`)
	assert.Contains(t, string(body), "straeto_refresh_interval_seconds 60")
}
