package models

import (
	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/utils"
)

type Stop struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Location string   `json:"location"`
	Distance *float64 `json:"distanceKm,omitempty"`
	// Direction is the compass heading from the queried point to the stop.
	Direction string   `json:"direction,omitempty"`
	RouteIDs []string `json:"routeIds"`
}

func NewStop(s feed.Stop, routeIDs []string) Stop {
	if routeIDs == nil {
		routeIDs = []string{}
	}
	return Stop{
		ID:       s.ID,
		Name:     s.Name,
		Lat:      s.Lat,
		Lon:      s.Lon,
		Location: utils.FormatLocation(s.Lat, s.Lon),
		RouteIDs: routeIDs,
	}
}

// From sets the distance in kilometres and the heading from (lat, lon).
func (s Stop) From(lat, lon float64) Stop {
	d := utils.Distance(lat, lon, s.Lat, s.Lon)
	s.Distance = &d
	s.Direction = utils.CompassFrom(lat, lon, s.Lat, s.Lon)
	return s
}

// StopVisit lists the directions in which a route calls at a stop.
type StopVisit struct {
	RouteID    string           `json:"routeId"`
	Directions []feed.Direction `json:"directions"`
}

// StopEntry is a stop with the routes calling at it.
type StopEntry struct {
	Stop
	Visits []StopVisit `json:"visits"`
}
