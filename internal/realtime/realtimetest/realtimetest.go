// Package realtimetest builds GTFS-Realtime messages for tests.
package realtimetest

import (
	"testing"
	"time"

	p "github.com/jamespfennell/gtfs/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

type Position struct {
	VehicleID string
	TripID    string
	RouteID   string
	Lat       float32
	Lon       float32
	Bearing   *float32
	Timestamp time.Time
}

// VehiclePositions encodes the positions as a full-dataset feed message.
func VehiclePositions(t testing.TB, positions ...Position) []byte {
	t.Helper()

	entity := make([]*p.FeedEntity, 0, len(positions))
	for _, pos := range positions {
		vp := &p.VehiclePosition{
			Position: &p.Position{
				Latitude:  proto.Float32(pos.Lat),
				Longitude: proto.Float32(pos.Lon),
				Bearing:   pos.Bearing,
			},
		}
		if pos.VehicleID != "" {
			vp.Vehicle = &p.VehicleDescriptor{Id: proto.String(pos.VehicleID)}
		}
		if pos.TripID != "" || pos.RouteID != "" {
			vp.Trip = &p.TripDescriptor{
				TripId:  proto.String(pos.TripID),
				RouteId: proto.String(pos.RouteID),
			}
		}
		if !pos.Timestamp.IsZero() {
			vp.Timestamp = proto.Uint64(uint64(pos.Timestamp.Unix()))
		}
		entity = append(entity, &p.FeedEntity{
			Id:      proto.String(pos.VehicleID),
			Vehicle: vp,
		})
	}

	incrementality := p.FeedHeader_FULL_DATASET
	header := &p.FeedHeader{
		GtfsRealtimeVersion: proto.String("2.0"),
		Incrementality:      &incrementality,
		Timestamp:           proto.Uint64(uint64(time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC).Unix())),
	}

	data, err := proto.Marshal(&p.FeedMessage{Header: header, Entity: entity})
	require.NoError(t, err)
	return data
}
