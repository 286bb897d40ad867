package models

import (
	"sort"
	"time"

	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/feed"
)

type DirectionArrivals struct {
	Direction   feed.Direction   `json:"direction"`
	Destination string           `json:"destination,omitempty"`
	Times       []feed.TimeOfDay `json:"times"`
}

type ArrivalsEntry struct {
	RouteID     string              `json:"routeId"`
	StopIDs     []string            `json:"stopIds"`
	ServiceDate string              `json:"serviceDate"`
	Found       bool                `json:"found"`
	Directions  []DirectionArrivals `json:"directions"`
}

// NewArrivalsEntry flattens an arrivals result into directions ordered
// outbound first.
func NewArrivalsEntry(res engine.ArrivalsResult, d feed.Date) ArrivalsEntry {
	entry := ArrivalsEntry{
		RouteID:     res.Route.ID,
		StopIDs:     make([]string, 0, len(res.Stops)),
		ServiceDate: d.String(),
		Found:       res.Found,
		Directions:  make([]DirectionArrivals, 0, len(res.Arrivals)),
	}
	for _, s := range res.Stops {
		entry.StopIDs = append(entry.StopIDs, s.ID)
	}
	for dir, times := range res.Arrivals {
		entry.Directions = append(entry.Directions, DirectionArrivals{
			Direction:   dir,
			Destination: res.Destinations[dir],
			Times:       times,
		})
	}
	sortDirections(entry.Directions, func(i int) feed.Direction { return entry.Directions[i].Direction })
	return entry
}

type PredictedArrival struct {
	Direction    feed.Direction `json:"direction"`
	Time         feed.TimeOfDay `json:"time"`
	VehicleID    string         `json:"vehicleId"`
	TripID       string         `json:"tripId"`
	DelaySeconds int            `json:"delaySeconds"`
}

type PredictedArrivalsEntry struct {
	RouteID    string             `json:"routeId"`
	StopRef    string             `json:"stop"`
	Found      bool               `json:"found"`
	Predicted  []PredictedArrival `json:"predicted"`
	VehicleAge int64              `json:"vehicleDataAgeMs,omitempty"`
}

func NewPredictedArrivals(predictions map[feed.Direction]engine.Prediction) []PredictedArrival {
	out := make([]PredictedArrival, 0, len(predictions))
	for dir, p := range predictions {
		out = append(out, PredictedArrival{
			Direction:    dir,
			Time:         p.Time,
			VehicleID:    p.VehicleID,
			TripID:       p.TripID,
			DelaySeconds: int(p.Delay / time.Second),
		})
	}
	sortDirections(out, func(i int) feed.Direction { return out[i].Direction })
	return out
}

func sortDirections[T any](s []T, dir func(int) feed.Direction) {
	sort.Slice(s, func(i, j int) bool { return dir(i) < dir(j) })
}
