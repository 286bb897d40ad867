package feed_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/feed/feedtest"
)

func TestLoadReykjavik(t *testing.T) {
	f, err := feed.Load(context.Background(), feedtest.ReykjavikArchive(t))
	require.NoError(t, err)

	assert.Len(t, f.Stops, 6)
	assert.Len(t, f.Routes, 4)
	assert.Len(t, f.Trips, 5)
	assert.Len(t, f.Calendar, 2)
	assert.Len(t, f.Exceptions, 2)

	// TX and S404 do not exist.
	assert.Len(t, f.StopTimes, 14)
	assert.Equal(t, 2, f.Stats.OrphanStopTimes)
	assert.Equal(t, 16, f.Stats.Tables[feed.StopTimesTable].Rows)
	assert.Equal(t, 2, f.Stats.Dropped())

	assert.Equal(t, "Fiskislóð", f.Stops[0].Name)
	assert.InDelta(t, 64.156896, f.Stops[0].Lat, 1e-9)
	assert.Equal(t, feed.Bus, f.Routes[0].Kind)
	assert.Equal(t, feed.Inbound, f.Trips[2].Direction)
	assert.Equal(t, feed.TimeOfDay{Hour: 24, Minute: 10}, f.StopTimes[8].Arrival)
}

func TestLoadKeepsDuplicateStopTimes(t *testing.T) {
	f, err := feed.Load(context.Background(), feedtest.ReykjavikArchive(t))
	require.NoError(t, err)

	var atLaekjartorg []feed.StopTime
	for _, st := range f.StopTimes {
		if st.TripID == "T2" && st.StopID == "S3" {
			atLaekjartorg = append(atLaekjartorg, st)
		}
	}
	require.Len(t, atLaekjartorg, 2)
	assert.Equal(t, atLaekjartorg[0].Arrival, atLaekjartorg[1].Arrival)
	assert.NotEqual(t, atLaekjartorg[0].Sequence, atLaekjartorg[1].Sequence)
}

func TestLoadDropsMalformedRows(t *testing.T) {
	tables := feedtest.Reykjavik()
	tables["stops.txt"] = append(tables["stops.txt"],
		"S7,Nowhere,north,-21.9,0",
		"S1,Duplicate Fiskislóð,64.0,-21.0,0",
	)
	tables["trips.txt"] = append(tables["trips.txt"], "ST.404,WKD,T404,Nowhere,0")
	tables["stop_times.txt"] = append(tables["stop_times.txt"], "T1,8:61:00,8:61:00,S2,9,,0")

	f, err := feed.Load(context.Background(), feedtest.Archive(t, tables))
	require.NoError(t, err)

	assert.Equal(t, 1, f.Stats.Tables[feed.StopsTable].Malformed)
	assert.Equal(t, 1, f.Stats.DuplicateStops)
	assert.Equal(t, 1, f.Stats.OrphanTrips)
	assert.Equal(t, 1, f.Stats.Tables[feed.StopTimesTable].Malformed)
	assert.Len(t, f.Stops, 6)
	assert.Equal(t, "Fiskislóð", f.Stops[0].Name, "first definition wins")
}

func TestLoadErrors(t *testing.T) {
	t.Run("not a zip archive", func(t *testing.T) {
		_, err := feed.Load(context.Background(), []byte("definitely not a zip"))
		var parseErr *feed.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "archive", parseErr.Table)
	})

	t.Run("missing stops table", func(t *testing.T) {
		tables := feedtest.Reykjavik()
		delete(tables, "stops.txt")
		_, err := feed.Load(context.Background(), feedtest.Archive(t, tables))
		assert.ErrorIs(t, err, feed.ErrMissingTable)
	})

	t.Run("no calendar of any kind", func(t *testing.T) {
		tables := feedtest.Reykjavik()
		delete(tables, "calendar.txt")
		delete(tables, "calendar_dates.txt")
		_, err := feed.Load(context.Background(), feedtest.Archive(t, tables))
		assert.ErrorIs(t, err, feed.ErrMissingTable)
	})

	t.Run("calendar_dates alone is enough", func(t *testing.T) {
		tables := feedtest.Reykjavik()
		delete(tables, "calendar.txt")
		f, err := feed.Load(context.Background(), feedtest.Archive(t, tables))
		require.NoError(t, err)
		assert.Empty(t, f.Calendar)
		assert.Len(t, f.Exceptions, 2)
	})

	t.Run("header without a required column", func(t *testing.T) {
		tables := feedtest.Reykjavik()
		tables["trips.txt"] = []string{"route_id,trip_id", "ST.14,T1"}
		_, err := feed.Load(context.Background(), feedtest.Archive(t, tables))
		assert.ErrorIs(t, err, feed.ErrMissingColumn)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := feed.Load(ctx, feedtest.ReykjavikArchive(t))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{}
	for name, lines := range feedtest.Reykjavik() {
		content := ""
		for _, line := range lines {
			content += line + "\n"
		}
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}

	f, err := feed.LoadFS(context.Background(), fsys)
	require.NoError(t, err)
	assert.Len(t, f.Stops, 6)
}
