// Package stops indexes the stops of a feed for lookup by id, by name and
// by proximity.
package stops

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/utils"
)

var ErrNotFound = errors.New("stop not found")

// Index holds the stops of one feed snapshot in load order. It is safe for
// concurrent use because it is never modified after NewIndex returns.
type Index struct {
	stops  []feed.Stop
	byID   map[string]int
	byName map[string][]int
	keys   []nameKey
}

// nameKey is a distinct display name and its normalized search form.
type nameKey struct {
	name  string
	skey  string
	voice string
}

// NewIndex indexes stops. A repeated id keeps its first occurrence.
func NewIndex(stops []feed.Stop) *Index {
	idx := &Index{
		stops:  make([]feed.Stop, 0, len(stops)),
		byID:   make(map[string]int, len(stops)),
		byName: make(map[string][]int),
	}
	for _, s := range stops {
		if _, dup := idx.byID[s.ID]; dup {
			continue
		}
		i := len(idx.stops)
		idx.stops = append(idx.stops, s)
		idx.byID[s.ID] = i
		if _, seen := idx.byName[s.Name]; !seen {
			idx.keys = append(idx.keys, nameKey{
				name:  s.Name,
				skey:  searchKey(s.Name),
				voice: searchKey(voiceNames[s.Name]),
			})
		}
		idx.byName[s.Name] = append(idx.byName[s.Name], i)
	}
	return idx
}

func (idx *Index) Len() int {
	return len(idx.stops)
}

// All returns the stops in load order.
func (idx *Index) All() []feed.Stop {
	out := make([]feed.Stop, len(idx.stops))
	copy(out, idx.stops)
	return out
}

func (idx *Index) ByID(id string) (feed.Stop, error) {
	i, ok := idx.byID[id]
	if !ok {
		return feed.Stop{}, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	return idx.stops[i], nil
}

// ByName returns every stop with exactly this display name, in load order.
func (idx *Index) ByName(name string) ([]feed.Stop, error) {
	positions := idx.byName[name]
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: name %q", ErrNotFound, name)
	}
	return idx.collect(positions), nil
}

func (idx *Index) collect(positions []int) []feed.Stop {
	out := make([]feed.Stop, len(positions))
	for i, p := range positions {
		out[i] = idx.stops[p]
	}
	return out
}

// ClosestTo returns the stop nearest the coordinate. Equal distances go to
// the stop loaded first.
func (idx *Index) ClosestTo(lat, lon float64) (feed.Stop, error) {
	best := -1
	bestDist := 0.0
	for i, s := range idx.stops {
		d := utils.Distance(lat, lon, s.Lat, s.Lon)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return feed.Stop{}, ErrNotFound
	}
	return idx.stops[best], nil
}

// ClosestToList returns up to n stops ordered by increasing distance. A
// positive withinKm drops stops farther away than that.
func (idx *Index) ClosestToList(lat, lon float64, n int, withinKm float64) []feed.Stop {
	if n < 1 {
		return nil
	}
	type candidate struct {
		pos  int
		dist float64
	}
	candidates := make([]candidate, 0, len(idx.stops))
	for i, s := range idx.stops {
		d := utils.Distance(lat, lon, s.Lat, s.Lon)
		if withinKm > 0 && d > withinKm {
			continue
		}
		candidates = append(candidates, candidate{pos: i, dist: d})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].dist < candidates[b].dist
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]feed.Stop, len(candidates))
	for i, c := range candidates {
		out[i] = idx.stops[c.pos]
	}
	return out
}

// SortByProximity orders stops by increasing distance from the coordinate.
func SortByProximity(stops []feed.Stop, lat, lon float64) {
	sort.SliceStable(stops, func(a, b int) bool {
		return utils.Distance(lat, lon, stops[a].Lat, stops[a].Lon) <
			utils.Distance(lat, lon, stops[b].Lat, stops[b].Lon)
	})
}
