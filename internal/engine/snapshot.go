package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mideind/straeto/internal/calendar"
	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/schedule"
	"github.com/mideind/straeto/internal/stops"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNoSnapshot = errors.New("no schedule loaded")
)

// Snapshot is one fully built feed. It is never modified after Build.
type Snapshot struct {
	Source    string
	BuiltAt   time.Time
	Elapsed   time.Duration
	LoadStats feed.LoadStats
	Stops     *stops.Index
	Schedule  *schedule.Index
	Calendar  *calendar.ServiceCalendar

	areaPriority []string
}

// Info summarizes a snapshot.
type Info struct {
	Source  string        `json:"source"`
	BuiltAt time.Time     `json:"builtAt"`
	Elapsed time.Duration `json:"elapsed"`
	Stops   int           `json:"stops"`
	Routes  int           `json:"routes"`
	Trips   int           `json:"trips"`
	Pairs   int           `json:"pairs"`
	Halts   int           `json:"halts"`
	Dropped int           `json:"dropped"`
}

// Build decodes archive and indexes it.
func Build(ctx context.Context, archive []byte, source string) (*Snapshot, error) {
	start := time.Now()
	f, err := feed.Load(ctx, archive)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal := calendar.New(f.Calendar, f.Exceptions)
	return &Snapshot{
		Source:       source,
		BuiltAt:      time.Now(),
		Elapsed:      time.Since(start),
		LoadStats:    f.Stats,
		Stops:        stops.NewIndex(f.Stops),
		Schedule:     schedule.Build(f, cal),
		Calendar:     cal,
		areaPriority: schedule.DefaultAreaPriority,
	}, nil
}

func (s *Snapshot) Info() Info {
	st := s.Schedule.Stats()
	return Info{
		Source:  s.Source,
		BuiltAt: s.BuiltAt,
		Elapsed: s.Elapsed,
		Stops:   s.Stops.Len(),
		Routes:  st.Routes,
		Trips:   st.Trips,
		Pairs:   st.Pairs,
		Halts:   st.Halts,
		Dropped: s.LoadStats.Dropped(),
	}
}

// ResolveStops maps a stop id, or failing that an exact stop name, to the
// stops it denotes.
func (s *Snapshot) ResolveStops(ref string) ([]feed.Stop, error) {
	if stop, err := s.Stops.ByID(ref); err == nil {
		return []feed.Stop{stop}, nil
	}
	found, err := s.Stops.ByName(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: stop %q", ErrNotFound, ref)
	}
	return found, nil
}

func (s *Snapshot) ResolveRoute(ref string) (feed.Route, bool) {
	return s.Schedule.ResolveRoute(ref, s.areaPriority)
}

// ArrivalsRequest is a schedule lookup for one route at one stop.
type ArrivalsRequest struct {
	// Route is a route id or a bare route number.
	Route string
	// Stop is a stop id or an exact stop name.
	Stop            string
	Date            feed.Date
	After           *feed.TimeOfDay
	Limit           int
	ExcludeTerminus bool
}

type ArrivalsResult struct {
	Route feed.Route
	Stops []feed.Stop
	// Found is false when the route never calls at any of Stops.
	Found    bool
	Arrivals schedule.Arrivals
	// Destinations names where each direction is heading.
	Destinations map[feed.Direction]string
}

// Arrivals answers req. An unknown route is reported as not found without
// an error; an unknown stop is ErrNotFound. When a name denotes several
// stops their arrivals are merged.
func (s *Snapshot) Arrivals(req ArrivalsRequest) (ArrivalsResult, error) {
	matched, err := s.ResolveStops(req.Stop)
	if err != nil {
		return ArrivalsResult{}, err
	}
	res := ArrivalsResult{Stops: matched, Arrivals: schedule.Arrivals{}}

	route, ok := s.ResolveRoute(req.Route)
	if !ok {
		return res, nil
	}
	res.Route = route

	q := schedule.Query{After: req.After, Limit: req.Limit, ExcludeTerminus: req.ExcludeTerminus}
	for _, stop := range matched {
		got, found := s.Schedule.Arrivals(route.ID, stop.ID, req.Date, q)
		if !found {
			continue
		}
		res.Found = true
		for dir, times := range got {
			res.Arrivals[dir] = append(res.Arrivals[dir], times...)
		}
	}
	if len(matched) > 1 {
		for dir, times := range res.Arrivals {
			sort.SliceStable(times, func(a, b int) bool { return times[a].Before(times[b]) })
			if req.Limit > 0 && len(times) > req.Limit {
				res.Arrivals[dir] = times[:req.Limit]
			}
		}
	}
	res.Destinations = s.destinations(route.ID, res.Arrivals)
	return res, nil
}

func (s *Snapshot) destinations(routeID string, arrivals schedule.Arrivals) map[feed.Direction]string {
	out := make(map[feed.Direction]string, len(arrivals))
	for dir := range arrivals {
		var names []string
		for _, id := range s.Schedule.Destinations(routeID, dir) {
			stop, err := s.Stops.ByID(id)
			if err != nil {
				continue
			}
			if !containsName(names, stop.Name) {
				names = append(names, stop.Name)
			}
		}
		if len(names) > 0 {
			out[dir] = strings.Join(names, " / ")
		}
	}
	return out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// StopVisit is a route calling at a stop.
type StopVisit struct {
	Route      feed.Route       `json:"route"`
	Directions []feed.Direction `json:"directions"`
}

// Visits lists the routes calling at stopID ordered by route id.
func (s *Snapshot) Visits(stopID string) []StopVisit {
	visits := s.Schedule.Visits(stopID)
	out := make([]StopVisit, 0, len(visits))
	for id, dirs := range visits {
		route, ok := s.Schedule.Route(id)
		if !ok {
			continue
		}
		out = append(out, StopVisit{Route: route, Directions: dirs})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Route.ID < out[b].Route.ID })
	return out
}
