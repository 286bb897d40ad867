// Package schedule precomputes, for every (route, stop) pair of a feed, the
// scheduled arrival times per direction.
package schedule

import (
	"sort"

	"github.com/mideind/straeto/internal/calendar"
	"github.com/mideind/straeto/internal/feed"
)

// Halt is one scheduled call of a trip at a stop.
type Halt struct {
	Time      feed.TimeOfDay
	TripID    string
	ServiceID string
	Sequence  int
	// Terminus marks the final call of the trip.
	Terminus bool
}

type pairKey struct {
	route string
	stop  string
}

// Query narrows an arrivals lookup.
type Query struct {
	// After keeps arrivals at or after this time of day.
	After *feed.TimeOfDay
	// Limit caps the number of arrivals per direction; zero or less means
	// no cap.
	Limit int
	// ExcludeTerminus drops calls that end their trip at the stop.
	ExcludeTerminus bool
}

// Arrivals maps each direction to its arrival times in service-day order.
type Arrivals map[feed.Direction][]feed.TimeOfDay

type Stats struct {
	Routes int `json:"routes"`
	Trips  int `json:"trips"`
	Pairs  int `json:"pairs"`
	Halts  int `json:"halts"`
}

// Index is immutable after Build and safe for concurrent readers.
type Index struct {
	calendar     *calendar.ServiceCalendar
	routes       map[string]feed.Route
	routeOrder   []string
	trips        map[string]*TripPlan
	halts        map[pairKey]map[feed.Direction][]Halt
	visits       map[string]map[string][]feed.Direction
	destinations map[string]map[feed.Direction][]string
	stats        Stats
}

// Build joins stop times to trips and routes. Stop times of unknown trips
// are ignored; feed.Load has already dropped them.
func Build(f *feed.Feed, cal *calendar.ServiceCalendar) *Index {
	idx := &Index{
		calendar:     cal,
		routes:       make(map[string]feed.Route, len(f.Routes)),
		trips:        make(map[string]*TripPlan, len(f.Trips)),
		halts:        make(map[pairKey]map[feed.Direction][]Halt),
		visits:       make(map[string]map[string][]feed.Direction),
		destinations: make(map[string]map[feed.Direction][]string),
	}

	for _, r := range f.Routes {
		if _, dup := idx.routes[r.ID]; dup {
			continue
		}
		idx.routes[r.ID] = r
		idx.routeOrder = append(idx.routeOrder, r.ID)
	}

	tripOrder := make([]string, 0, len(f.Trips))
	for _, t := range f.Trips {
		if _, ok := idx.routes[t.RouteID]; !ok {
			continue
		}
		if _, dup := idx.trips[t.ID]; dup {
			continue
		}
		idx.trips[t.ID] = &TripPlan{Trip: t}
		tripOrder = append(tripOrder, t.ID)
	}

	for _, st := range f.StopTimes {
		plan, ok := idx.trips[st.TripID]
		if !ok {
			continue
		}
		plan.Halts = append(plan.Halts, st)
	}

	for _, id := range tripOrder {
		plan := idx.trips[id]
		if len(plan.Halts) == 0 {
			continue
		}
		sort.SliceStable(plan.Halts, func(a, b int) bool {
			return plan.Halts[a].Sequence < plan.Halts[b].Sequence
		})
		idx.addTrip(plan)
	}

	for _, byDir := range idx.halts {
		for _, halts := range byDir {
			sort.SliceStable(halts, func(a, b int) bool {
				return halts[a].Time.Before(halts[b].Time)
			})
		}
	}

	idx.stats = Stats{
		Routes: len(idx.routes),
		Trips:  len(idx.trips),
		Pairs:  len(idx.halts),
	}
	for _, byDir := range idx.halts {
		for _, halts := range byDir {
			idx.stats.Halts += len(halts)
		}
	}
	return idx
}

func (idx *Index) addTrip(plan *TripPlan) {
	trip := plan.Trip
	lastSeq := plan.Halts[len(plan.Halts)-1].Sequence
	lastStop := plan.LastStop()

	dests := idx.destinations[trip.RouteID]
	if dests == nil {
		dests = make(map[feed.Direction][]string)
		idx.destinations[trip.RouteID] = dests
	}
	if !containsString(dests[trip.Direction], lastStop) {
		dests[trip.Direction] = append(dests[trip.Direction], lastStop)
	}

	for _, st := range plan.Halts {
		k := pairKey{route: trip.RouteID, stop: st.StopID}
		byDir := idx.halts[k]
		if byDir == nil {
			byDir = make(map[feed.Direction][]Halt, 2)
			idx.halts[k] = byDir
		}
		byDir[trip.Direction] = append(byDir[trip.Direction], Halt{
			Time:      st.Arrival,
			TripID:    trip.ID,
			ServiceID: trip.ServiceID,
			Sequence:  st.Sequence,
			Terminus:  st.Sequence == lastSeq,
		})

		routes := idx.visits[st.StopID]
		if routes == nil {
			routes = make(map[string][]feed.Direction)
			idx.visits[st.StopID] = routes
		}
		if !containsDirection(routes[trip.RouteID], trip.Direction) {
			routes[trip.RouteID] = append(routes[trip.RouteID], trip.Direction)
		}
	}
}

// Arrivals returns the arrivals of route at stop on date d. found is false
// when the route never calls at the stop in this feed. A direction with no
// matching arrival is left out of the result.
func (idx *Index) Arrivals(routeID, stopID string, d feed.Date, q Query) (Arrivals, bool) {
	byDir, ok := idx.halts[pairKey{route: routeID, stop: stopID}]
	if !ok {
		return Arrivals{}, false
	}

	active := make(map[string]bool)
	isActive := func(serviceID string) bool {
		v, seen := active[serviceID]
		if !seen {
			v = idx.calendar.IsActive(serviceID, d)
			active[serviceID] = v
		}
		return v
	}

	result := make(Arrivals, len(byDir))
	for dir, halts := range byDir {
		start := 0
		if q.After != nil {
			after := *q.After
			start = sort.Search(len(halts), func(i int) bool {
				return !halts[i].Time.Before(after)
			})
		}
		var times []feed.TimeOfDay
		for _, h := range halts[start:] {
			if q.ExcludeTerminus && h.Terminus {
				continue
			}
			if !isActive(h.ServiceID) {
				continue
			}
			times = append(times, h.Time)
			if q.Limit > 0 && len(times) == q.Limit {
				break
			}
		}
		if len(times) > 0 {
			result[dir] = times
		}
	}
	return result, true
}

// Halts returns every scheduled call of route at stop regardless of date,
// per direction in time order.
func (idx *Index) Halts(routeID, stopID string) (map[feed.Direction][]Halt, bool) {
	byDir, ok := idx.halts[pairKey{route: routeID, stop: stopID}]
	if !ok {
		return nil, false
	}
	out := make(map[feed.Direction][]Halt, len(byDir))
	for dir, halts := range byDir {
		out[dir] = append([]Halt(nil), halts...)
	}
	return out, true
}

// Serves reports whether route calls at stop at all.
func (idx *Index) Serves(routeID, stopID string) bool {
	_, ok := idx.halts[pairKey{route: routeID, stop: stopID}]
	return ok
}

// Visits returns the routes calling at stop and their directions.
func (idx *Index) Visits(stopID string) map[string][]feed.Direction {
	routes := idx.visits[stopID]
	out := make(map[string][]feed.Direction, len(routes))
	for id, dirs := range routes {
		out[id] = append([]feed.Direction(nil), dirs...)
	}
	return out
}

// Destinations lists the final stop ids of the route's trips in direction
// dir, in order of first appearance.
func (idx *Index) Destinations(routeID string, dir feed.Direction) []string {
	return append([]string(nil), idx.destinations[routeID][dir]...)
}

func (idx *Index) Calendar() *calendar.ServiceCalendar {
	return idx.calendar
}

func (idx *Index) Stats() Stats {
	return idx.stats
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsDirection(list []feed.Direction, d feed.Direction) bool {
	for _, v := range list {
		if v == d {
			return true
		}
	}
	return false
}
