// Package metrics exposes Prometheus metrics for the schedule service.
package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mideind/straeto/internal/logging"
)

type Collector struct {
	reg *prometheus.Registry

	FeedReloads      *prometheus.CounterVec // result label: ok|error
	FeedLoadDuration prometheus.Histogram
	SnapshotSize     *prometheus.GaugeVec // kind label: stops|routes|trips|halts
	FeedRowsDropped  prometheus.Gauge
	SnapshotBuiltAt  prometheus.Gauge

	ArrivalQueries *prometheus.CounterVec // found label: true|false

	RealtimeVehicles prometheus.Gauge

	HTTPRequests *prometheus.CounterVec // code label

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	RefreshInterval prometheus.Gauge // seconds
}

func NewCollector(refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FeedReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "straeto_feed_reloads_total",
			Help: "Feed reload attempts by result.",
		}, []string{"result"}),
		FeedLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "straeto_feed_load_duration_seconds",
			Help:    "Time to decode a feed and build a snapshot.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		SnapshotSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "straeto_snapshot_size",
			Help: "Number of records in the current snapshot.",
		}, []string{"kind"}),
		FeedRowsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "straeto_feed_rows_dropped",
			Help: "Rows dropped while loading the current snapshot.",
		}),
		SnapshotBuiltAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "straeto_snapshot_built_timestamp_seconds",
			Help: "Unix time the current snapshot was installed.",
		}),
		ArrivalQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "straeto_arrival_queries_total",
			Help: "Arrival queries by whether the route serves the stop.",
		}, []string{"found"}),
		RealtimeVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "straeto_realtime_vehicles",
			Help: "Vehicles in the latest real-time fetch.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "straeto_http_requests_total",
			Help: "HTTP requests by status code.",
		}, []string{"code"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "straeto_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "straeto_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "straeto_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "straeto_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "straeto_refresh_interval_seconds",
			Help: "Feed refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.FeedReloads, c.FeedLoadDuration, c.SnapshotSize, c.FeedRowsDropped, c.SnapshotBuiltAt,
		c.ArrivalQueries, c.RealtimeVehicles, c.HTTPRequests,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.RefreshInterval,
	)

	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

// ReloadObserve records one reload attempt.
func (c *Collector) ReloadObserve(d time.Duration, err error) {
	if err != nil {
		c.FeedReloads.WithLabelValues("error").Inc()
		return
	}
	c.FeedReloads.WithLabelValues("ok").Inc()
	c.FeedLoadDuration.Observe(d.Seconds())
	c.SnapshotBuiltAt.Set(float64(time.Now().Unix()))
}

func (c *Collector) SnapshotSet(stops, routes, trips, halts, dropped int) {
	c.SnapshotSize.WithLabelValues("stops").Set(float64(stops))
	c.SnapshotSize.WithLabelValues("routes").Set(float64(routes))
	c.SnapshotSize.WithLabelValues("trips").Set(float64(trips))
	c.SnapshotSize.WithLabelValues("halts").Set(float64(halts))
	c.FeedRowsDropped.Set(float64(dropped))
}

func (c *Collector) ArrivalsQueried(found bool) {
	c.ArrivalQueries.WithLabelValues(strconv.FormatBool(found)).Inc()
}

func (c *Collector) VehiclesSet(n int) {
	c.RealtimeVehicles.Set(float64(n))
}

func (c *Collector) RequestServed(status int) {
	c.HTTPRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(b bool) {
	if b {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError(logger, "metrics server error", err, slog.String("addr", addr))
		}
	}()
	logging.LogOperation(logger, "metrics_listening", slog.String("addr", addr))
	return srv
}
