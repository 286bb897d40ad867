// Package realtime keeps the latest GTFS-Realtime vehicle positions.
package realtime

import (
	"fmt"
	"time"

	"github.com/jamespfennell/gtfs"
)

// Vehicle is the last reported position of one vehicle.
type Vehicle struct {
	ID        string    `json:"vehicleId"`
	TripID    string    `json:"tripId,omitempty"`
	RouteID   string    `json:"routeId,omitempty"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Bearing   *float64  `json:"bearing,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Decode parses a GTFS-Realtime vehicle positions message. Vehicles without
// a position are skipped. A vehicle without its own timestamp gets
// fetchedAt.
func Decode(b []byte, fetchedAt time.Time) ([]Vehicle, error) {
	msg, err := gtfs.ParseRealtime(b, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, fmt.Errorf("parsing vehicle positions: %w", err)
	}

	vehicles := make([]Vehicle, 0, len(msg.Vehicles))
	for _, v := range msg.Vehicles {
		if v.Position == nil || v.Position.Latitude == nil || v.Position.Longitude == nil {
			continue
		}
		out := Vehicle{
			Lat:       float64(*v.Position.Latitude),
			Lon:       float64(*v.Position.Longitude),
			Timestamp: fetchedAt,
		}
		if v.ID != nil {
			out.ID = v.ID.ID
		}
		if v.Trip != nil {
			out.TripID = v.Trip.ID.ID
			out.RouteID = v.Trip.ID.RouteID
		}
		if out.ID == "" {
			out.ID = out.TripID
		}
		if v.Position.Bearing != nil {
			b := float64(*v.Position.Bearing)
			out.Bearing = &b
		}
		if v.Timestamp != nil {
			out.Timestamp = *v.Timestamp
		}
		vehicles = append(vehicles, out)
	}
	return vehicles, nil
}
