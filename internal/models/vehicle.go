package models

import (
	"math"

	"github.com/mideind/straeto/internal/realtime"
	"github.com/mideind/straeto/internal/utils"
)

type VehicleStatus struct {
	VehicleID      string   `json:"vehicleId"`
	TripID         string   `json:"tripId,omitempty"`
	RouteID        string   `json:"routeId,omitempty"`
	Location       Location `json:"location"`
	Bearing        *float64 `json:"bearing,omitempty"`
	Heading        string   `json:"heading,omitempty"`
	LastUpdateTime int64    `json:"lastUpdateTime,omitempty"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewVehicleStatus(v realtime.Vehicle) VehicleStatus {
	status := VehicleStatus{
		VehicleID: v.ID,
		TripID:    v.TripID,
		RouteID:   v.RouteID,
		Location:  Location{Lat: v.Lat, Lon: v.Lon},
	}
	if v.Bearing != nil {
		if b := utils.NormalizeBearing(*v.Bearing); !math.IsNaN(b) {
			status.Bearing = &b
			status.Heading = utils.Compass(b)
		}
	}
	if !v.Timestamp.IsZero() {
		status.LastUpdateTime = v.Timestamp.UnixMilli()
	}
	return status
}
