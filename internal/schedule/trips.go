package schedule

import (
	"strings"

	"github.com/mideind/straeto/internal/feed"
)

// DefaultAreaPriority is the order in which area prefixes are tried when a
// bare route number is resolved. Straeto route ids look like "ST.14".
var DefaultAreaPriority = []string{"ST", "SU", "VL", "SN", "NO", "RY", "AF"}

// TripPlan is a trip with its calls in stop sequence order.
type TripPlan struct {
	Trip  feed.Trip
	Halts []feed.StopTime
}

func (p TripPlan) FirstStop() string {
	if len(p.Halts) == 0 {
		return ""
	}
	return p.Halts[0].StopID
}

func (p TripPlan) LastStop() string {
	if len(p.Halts) == 0 {
		return ""
	}
	return p.Halts[len(p.Halts)-1].StopID
}

// Position returns the index in Halts of the first call at stopID, or -1.
func (p TripPlan) Position(stopID string) int {
	for i, h := range p.Halts {
		if h.StopID == stopID {
			return i
		}
	}
	return -1
}

// Trip returns the plan of a trip by id.
func (idx *Index) Trip(id string) (TripPlan, bool) {
	plan, ok := idx.trips[id]
	if !ok || len(plan.Halts) == 0 {
		return TripPlan{}, false
	}
	return TripPlan{Trip: plan.Trip, Halts: append([]feed.StopTime(nil), plan.Halts...)}, true
}

func (idx *Index) Route(id string) (feed.Route, bool) {
	r, ok := idx.routes[id]
	return r, ok
}

// Routes returns the routes in load order.
func (idx *Index) Routes() []feed.Route {
	out := make([]feed.Route, 0, len(idx.routeOrder))
	for _, id := range idx.routeOrder {
		out = append(out, idx.routes[id])
	}
	return out
}

// ResolveRoute maps a route reference to a route. An exact id wins. A bare
// reference without an area prefix is tried against each area in priority
// order, then against route short names in load order.
func (idx *Index) ResolveRoute(ref string, priority []string) (feed.Route, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return feed.Route{}, false
	}
	if r, ok := idx.routes[ref]; ok {
		return r, true
	}
	if !strings.Contains(ref, ".") {
		for _, area := range priority {
			if r, ok := idx.routes[area+"."+ref]; ok {
				return r, true
			}
		}
	}
	for _, id := range idx.routeOrder {
		if r := idx.routes[id]; r.ShortName == ref {
			return r, true
		}
	}
	return feed.Route{}, false
}
