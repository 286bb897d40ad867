package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mideind/straeto/internal/realtime"
)

func TestNewVehicleStatus(t *testing.T) {
	bearing := 95.0
	ts := time.Date(2024, 3, 11, 8, 28, 0, 0, time.UTC)

	status := NewVehicleStatus(realtime.Vehicle{
		ID: "bus-1", TripID: "T1", RouteID: "ST.14",
		Lat: 64.1475, Lon: -21.935, Bearing: &bearing, Timestamp: ts,
	})

	assert.Equal(t, "bus-1", status.VehicleID)
	assert.Equal(t, Location{Lat: 64.1475, Lon: -21.935}, status.Location)
	assert.Equal(t, "E", status.Heading)
	assert.Equal(t, ts.UnixMilli(), status.LastUpdateTime)
}

func TestNewVehicleStatusWithoutBearing(t *testing.T) {
	status := NewVehicleStatus(realtime.Vehicle{ID: "bus-2"})
	assert.Nil(t, status.Bearing)
	assert.Empty(t, status.Heading)
	assert.Zero(t, status.LastUpdateTime)
}

func TestNewVehicleStatusOddBearings(t *testing.T) {
	tests := []struct {
		bearing float64
		heading string
		want    *float64
	}{
		{-90, "W", ptr(270.0)},
		{720, "N", ptr(0.0)},
		{math.NaN(), "", nil},
	}
	for _, tt := range tests {
		b := tt.bearing
		status := NewVehicleStatus(realtime.Vehicle{ID: "bus-3", Bearing: &b})
		assert.Equal(t, tt.heading, status.Heading, "bearing %v", tt.bearing)
		assert.Equal(t, tt.want, status.Bearing, "bearing %v", tt.bearing)
	}
}

func ptr(f float64) *float64 {
	return &f
}
