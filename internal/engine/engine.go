// Package engine answers stop and arrival queries against the current feed
// snapshot and swaps in new snapshots atomically.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/logging"
	"github.com/mideind/straeto/internal/realtime"
	"github.com/mideind/straeto/internal/schedule"
)

// Recorder receives engine measurements.
type Recorder interface {
	ReloadObserve(d time.Duration, err error)
	SnapshotSet(stops, routes, trips, halts, dropped int)
	ArrivalsQueried(found bool)
}

// Notifier is told about every installed snapshot.
type Notifier interface {
	SnapshotReloaded(info Info)
}

type NotifierFunc func(info Info)

func (f NotifierFunc) SnapshotReloaded(info Info) { f(info) }

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithAreaPriority sets the area prefixes tried for bare route numbers.
func WithAreaPriority(areas []string) Option {
	return func(e *Engine) {
		if len(areas) > 0 {
			e.areaPriority = append([]string(nil), areas...)
		}
	}
}

// WithLocation sets the time zone the service day is reckoned in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// Engine is safe for concurrent use. Every query reads the snapshot
// pointer once, so it never mixes data from two snapshots.
type Engine struct {
	current atomic.Pointer[Snapshot]

	// Reloads are numbered when they start. A build that finishes after a
	// later-started build was installed is discarded.
	started   atomic.Uint64
	installMu sync.Mutex
	installed uint64

	build func(ctx context.Context, archive []byte, source string) (*Snapshot, error)

	logger       *slog.Logger
	recorder     Recorder
	notifier     Notifier
	areaPriority []string
	location     *time.Location
	clock        func() time.Time
}

func New(opts ...Option) *Engine {
	e := &Engine{
		logger:       slog.Default(),
		areaPriority: schedule.DefaultAreaPriority,
		location:     time.UTC,
		clock:        time.Now,
		build:        Build,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "schedule_engine"))
	return e
}

// Reload builds a snapshot from a zipped feed and installs it. On error the
// current snapshot stays in place. When reloads overlap, the one started last
// wins; an older build finishing late is dropped and Reload returns nil.
func (e *Engine) Reload(ctx context.Context, archive []byte) error {
	return e.ReloadSource(ctx, archive, "")
}

// ReloadSource is Reload with the feed's origin recorded on the snapshot.
func (e *Engine) ReloadSource(ctx context.Context, archive []byte, source string) error {
	generation := e.started.Add(1)
	start := time.Now()
	snap, err := e.build(ctx, archive, source)
	if e.recorder != nil {
		e.recorder.ReloadObserve(time.Since(start), err)
	}
	if err != nil {
		logging.LogError(e.logger, "feed reload failed", err, slog.String("source", source))
		return err
	}
	snap.areaPriority = e.areaPriority

	if !e.install(generation, snap) {
		logging.LogOperation(e.logger, "snapshot_superseded",
			slog.String("source", source),
			slog.Uint64("generation", generation))
		return nil
	}

	info := snap.Info()
	logging.LogLoadStats(e.logger, snap.LoadStats)
	logging.LogOperation(e.logger, "snapshot_installed",
		slog.String("source", source),
		slog.Int("stops", info.Stops),
		slog.Int("routes", info.Routes),
		slog.Int("trips", info.Trips),
		slog.Int("halts", info.Halts),
		slog.Duration("duration", info.Elapsed))
	if e.recorder != nil {
		e.recorder.SnapshotSet(info.Stops, info.Routes, info.Trips, info.Halts, info.Dropped)
	}
	if e.notifier != nil {
		e.notifier.SnapshotReloaded(info)
	}
	return nil
}

func (e *Engine) install(generation uint64, snap *Snapshot) bool {
	e.installMu.Lock()
	defer e.installMu.Unlock()
	if generation < e.installed {
		return false
	}
	e.installed = generation
	e.current.Store(snap)
	return true
}

// Snapshot returns the current snapshot, or nil before the first load.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

func (e *Engine) snapshot() (*Snapshot, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Now is the current time in the engine's time zone.
func (e *Engine) Now() time.Time {
	return e.clock().In(e.location)
}

func (e *Engine) Location() *time.Location {
	return e.location
}

// ClosestStop returns the stop nearest the coordinate.
func (e *Engine) ClosestStop(lat, lon float64) (feed.Stop, error) {
	snap, err := e.snapshot()
	if err != nil {
		return feed.Stop{}, err
	}
	stop, err := snap.Stops.ClosestTo(lat, lon)
	if err != nil {
		return feed.Stop{}, ErrNotFound
	}
	return stop, nil
}

// ClosestStops returns up to n stops by increasing distance, optionally
// limited to withinKm.
func (e *Engine) ClosestStops(lat, lon float64, n int, withinKm float64) ([]feed.Stop, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Stops.ClosestToList(lat, lon, n, withinKm), nil
}

func (e *Engine) Stop(id string) (feed.Stop, error) {
	snap, err := e.snapshot()
	if err != nil {
		return feed.Stop{}, err
	}
	stop, err := snap.Stops.ByID(id)
	if err != nil {
		return feed.Stop{}, ErrNotFound
	}
	return stop, nil
}

// StopsNamed returns the stops matching name, see stops.Index.Named.
func (e *Engine) StopsNamed(name string, fuzzy bool) ([]feed.Stop, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Stops.Named(name, fuzzy), nil
}

// Arrivals returns the arrivals of a route at a stop on date d. With now
// set only arrivals at or after it are returned. A positive limit caps the
// number per direction.
func (e *Engine) Arrivals(routeID, stopIDOrName string, d feed.Date, now *feed.TimeOfDay, limit int) (schedule.Arrivals, bool, error) {
	res, err := e.Query(ArrivalsRequest{
		Route: routeID,
		Stop:  stopIDOrName,
		Date:  d,
		After: now,
		Limit: limit,
	})
	if err != nil {
		return nil, false, err
	}
	return res.Arrivals, res.Found, nil
}

// Query is Arrivals with every option and the resolved route and stops.
func (e *Engine) Query(req ArrivalsRequest) (ArrivalsResult, error) {
	snap, err := e.snapshot()
	if err != nil {
		return ArrivalsResult{}, err
	}
	res, err := snap.Arrivals(req)
	if err != nil {
		return ArrivalsResult{}, err
	}
	if e.recorder != nil {
		e.recorder.ArrivalsQueried(res.Found)
	}
	return res, nil
}

// PredictArrivals estimates the next arrival per direction of route at stop
// from the given vehicle positions.
func (e *Engine) PredictArrivals(routeRef, stopRef string, vehicles []realtime.Vehicle) (map[feed.Direction]Prediction, bool, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, false, err
	}
	return snap.PredictArrivals(routeRef, stopRef, vehicles, e.Now())
}

// ResolveRoute maps a route id or bare number to a route.
func (e *Engine) ResolveRoute(ref string) (feed.Route, error) {
	snap, err := e.snapshot()
	if err != nil {
		return feed.Route{}, err
	}
	route, ok := snap.ResolveRoute(ref)
	if !ok {
		return feed.Route{}, ErrNotFound
	}
	return route, nil
}

// Visits lists the routes calling at a stop.
func (e *Engine) Visits(stopID string) ([]StopVisit, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	if _, err := snap.Stops.ByID(stopID); err != nil {
		return nil, ErrNotFound
	}
	return snap.Visits(stopID), nil
}
