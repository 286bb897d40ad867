package feed

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, table *TableReader) []Row {
	t.Helper()
	var rows []Row
	for table.Next() {
		rows = append(rows, table.Row())
	}
	return rows
}

func TestTableReaderLocatesColumnsByName(t *testing.T) {
	input := "stop_lon,stop_name,stop_id,stop_lat\n" +
		"-21.9512,Fiskislóð,S1,64.1569\n" +
		"-21.9154,\"Hlemmur, bus terminal\",S2,64.1433\n"

	table, err := NewTableReader("stops.txt", strings.NewReader(input), stopsSchema)
	require.NoError(t, err)

	rows := readAll(t, table)
	require.NoError(t, table.Err())
	require.Len(t, rows, 2)

	assert.Equal(t, "S1", rows[0]["stop_id"])
	assert.Equal(t, "Fiskislóð", rows[0]["stop_name"])
	assert.Equal(t, "64.1569", rows[0]["stop_lat"])
	assert.Equal(t, "Hlemmur, bus terminal", rows[1]["stop_name"])
	assert.Equal(t, "", rows[1]["location_type"], "absent optional column reads as empty")
}

func TestTableReaderToleratesRaggedRows(t *testing.T) {
	input := "trip_id,arrival_time,departure_time,stop_id,stop_sequence,stop_headsign,pickup_type\n" +
		"T1,08:15:00,08:15:00,S1,1,,0\n" +
		"T1,08:25:00,08:25:00,S2,2,\n" +
		"T1,08:35:00,08:35:00,S3,3,,0,extra\n"

	table, err := NewTableReader("stop_times.txt", strings.NewReader(input), stopTimesSchema)
	require.NoError(t, err)

	rows := readAll(t, table)
	require.NoError(t, table.Err())
	require.Len(t, rows, 3)
	assert.Equal(t, "S2", rows[1]["stop_id"])
	assert.Equal(t, "S3", rows[2]["stop_id"])
	assert.Equal(t, 0, table.Skipped())
}

func TestTableReaderSkipsRowsWithoutRequiredValues(t *testing.T) {
	input := "stop_id,stop_name,stop_lat,stop_lon\n" +
		",No id,64.1,-21.9\n" +
		"S1,Fiskislóð,64.1569,-21.9512\n" +
		"\n" +
		"S2\n"

	table, err := NewTableReader("stops.txt", strings.NewReader(input), stopsSchema)
	require.NoError(t, err)

	rows := readAll(t, table)
	require.NoError(t, table.Err())
	require.Len(t, rows, 2)
	assert.Equal(t, "S1", rows[0]["stop_id"])
	assert.Equal(t, "S2", rows[1]["stop_id"])
	assert.Equal(t, "", rows[1]["stop_lat"])
	assert.Equal(t, 1, table.Skipped())
}

func TestTableReaderHeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty table", input: "", wantErr: ErrMissingHeader},
		{name: "missing required column", input: "stop_name,stop_lat\nA,1\n", wantErr: ErrMissingColumn},
		{name: "invalid encoding", input: "stop_id,stop_na\xffme\n", wantErr: ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTableReader("stops.txt", strings.NewReader(tt.input), stopsSchema)
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, "stops.txt", parseErr.Table)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTableReaderStripsByteOrderMark(t *testing.T) {
	input := "\ufeffStop_ID , stop_name,stop_lat,stop_lon\nS1,Fiskislóð,64.1,-21.9\n"

	table, err := NewTableReader("stops.txt", strings.NewReader(input), stopsSchema)
	require.NoError(t, err)
	require.True(t, table.Next())
	assert.Equal(t, "S1", table.Row()["stop_id"])
}

func TestTableReaderRowErrors(t *testing.T) {
	t.Run("undecodable bytes", func(t *testing.T) {
		input := "stop_id,stop_name,stop_lat,stop_lon\nS1,Fisk\xffislóð,64.1,-21.9\n"
		table, err := NewTableReader("stops.txt", strings.NewReader(input), stopsSchema)
		require.NoError(t, err)

		assert.False(t, table.Next())
		assert.ErrorIs(t, table.Err(), ErrInvalidEncoding)

		var parseErr *ParseError
		require.True(t, errors.As(table.Err(), &parseErr))
		assert.Equal(t, 2, parseErr.Line)
	})

	t.Run("broken quoting", func(t *testing.T) {
		input := "stop_id,stop_name,stop_lat,stop_lon\nS1,\"Fisk\"islóð,64.1,-21.9\n"
		table, err := NewTableReader("stops.txt", strings.NewReader(input), stopsSchema)
		require.NoError(t, err)

		assert.False(t, table.Next())
		var parseErr *ParseError
		require.True(t, errors.As(table.Err(), &parseErr))
		assert.Equal(t, "stops.txt", parseErr.Table)
	})
}

func TestDecoders(t *testing.T) {
	t.Run("stop with bad coordinates is rejected", func(t *testing.T) {
		_, err := decodeStop(Row{"stop_id": "S1", "stop_lat": "abc", "stop_lon": "-21.9"})
		assert.Error(t, err)
		_, err = decodeStop(Row{"stop_id": "S1", "stop_lat": "64.1", "stop_lon": "-200"})
		assert.Error(t, err)
	})

	t.Run("station entrances are not stops", func(t *testing.T) {
		_, err := decodeStop(Row{"stop_id": "E1", "stop_lat": "64.1", "stop_lon": "-21.9", "location_type": "2"})
		assert.Error(t, err)
	})

	t.Run("route kinds", func(t *testing.T) {
		assert.Equal(t, Bus, ParseRouteKind("3"))
		assert.Equal(t, Bus, ParseRouteKind("700"))
		assert.Equal(t, Rail, ParseRouteKind("109"))
		assert.Equal(t, Ferry, ParseRouteKind("4"))
		assert.Equal(t, RouteKindUnknown, ParseRouteKind(""))
		assert.Equal(t, "bus", Bus.String())
	})

	t.Run("trip direction", func(t *testing.T) {
		trip, err := decodeTrip(Row{"trip_id": "T1", "route_id": "R", "service_id": "S", "direction_id": "1"})
		require.NoError(t, err)
		assert.Equal(t, Inbound, trip.Direction)

		trip, err = decodeTrip(Row{"trip_id": "T1", "route_id": "R", "service_id": "S"})
		require.NoError(t, err)
		assert.Equal(t, DirectionUnknown, trip.Direction)

		_, err = decodeTrip(Row{"trip_id": "T1", "route_id": "R", "service_id": "S", "direction_id": "north"})
		assert.Error(t, err)
	})

	t.Run("stop time falls back to departure", func(t *testing.T) {
		st, err := decodeStopTime(Row{"trip_id": "T1", "stop_id": "S1", "stop_sequence": "4", "departure_time": "25:01:00"})
		require.NoError(t, err)
		assert.Equal(t, TimeOfDay{25, 1, 0}, st.Arrival)
		assert.Equal(t, 4, st.Sequence)

		_, err = decodeStopTime(Row{"trip_id": "T1", "stop_id": "S1", "stop_sequence": "4"})
		assert.Error(t, err)
		_, err = decodeStopTime(Row{"trip_id": "T1", "stop_id": "S1", "stop_sequence": "x", "arrival_time": "08:00:00"})
		assert.Error(t, err)
	})

	t.Run("calendar entry", func(t *testing.T) {
		entry, err := decodeCalendarEntry(Row{
			"service_id": "WKD", "monday": "1", "tuesday": "1", "wednesday": "1", "thursday": "1",
			"friday": "1", "saturday": "0", "sunday": "0", "start_date": "20240101", "end_date": "20241231",
		})
		require.NoError(t, err)
		assert.Equal(t, [7]bool{true, true, true, true, true, false, false}, entry.Weekdays)

		_, err = decodeCalendarEntry(Row{
			"service_id": "WKD", "monday": "yes", "tuesday": "1", "wednesday": "1", "thursday": "1",
			"friday": "1", "saturday": "0", "sunday": "0", "start_date": "20240101", "end_date": "20241231",
		})
		assert.Error(t, err)
	})

	t.Run("service exception kind", func(t *testing.T) {
		ex, err := decodeServiceException(Row{"service_id": "X", "date": "20240317", "exception_type": "1"})
		require.NoError(t, err)
		assert.Equal(t, Added, ex.Kind)

		_, err = decodeServiceException(Row{"service_id": "X", "date": "20240317", "exception_type": "3"})
		assert.Error(t, err)
	})
}
