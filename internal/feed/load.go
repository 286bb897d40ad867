package feed

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// Feed holds the decoded tables of one archive.
type Feed struct {
	Stops      []Stop
	Routes     []Route
	Trips      []Trip
	StopTimes  []StopTime
	Calendar   []CalendarEntry
	Exceptions []ServiceException
	Stats      LoadStats
}

// TableStats counts what happened to the rows of one table.
type TableStats struct {
	Rows      int `json:"rows"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

type LoadStats struct {
	Tables          map[string]TableStats `json:"tables"`
	DuplicateStops  int                   `json:"duplicateStops"`
	DuplicateTrips  int                   `json:"duplicateTrips"`
	OrphanTrips     int                   `json:"orphanTrips"`
	OrphanStopTimes int                   `json:"orphanStopTimes"`
}

// Dropped is the total number of rows that did not make it into the feed.
func (s LoadStats) Dropped() int {
	n := s.DuplicateStops + s.DuplicateTrips + s.OrphanTrips + s.OrphanStopTimes
	for _, t := range s.Tables {
		n += t.Skipped + t.Malformed
	}
	return n
}

const (
	StopsTable         = "stops.txt"
	RoutesTable        = "routes.txt"
	TripsTable         = "trips.txt"
	StopTimesTable     = "stop_times.txt"
	CalendarTable      = "calendar.txt"
	CalendarDatesTable = "calendar_dates.txt"
)

// Load decodes a zipped feed.
func Load(ctx context.Context, archive []byte) (*Feed, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, &ParseError{Table: "archive", Err: err}
	}
	return LoadFS(ctx, zr)
}

// LoadFS decodes a feed whose tables sit at the root of fsys, such as an
// unpacked directory opened with os.DirFS.
func LoadFS(ctx context.Context, fsys fs.FS) (*Feed, error) {
	f := &Feed{Stats: LoadStats{Tables: make(map[string]TableStats)}}
	var err error

	if f.Stops, _, err = readTable(ctx, fsys, StopsTable, stopsSchema, decodeStop, &f.Stats, true); err != nil {
		return nil, err
	}
	if f.Routes, _, err = readTable(ctx, fsys, RoutesTable, routesSchema, decodeRoute, &f.Stats, true); err != nil {
		return nil, err
	}
	if f.Trips, _, err = readTable(ctx, fsys, TripsTable, tripsSchema, decodeTrip, &f.Stats, true); err != nil {
		return nil, err
	}
	if f.StopTimes, _, err = readTable(ctx, fsys, StopTimesTable, stopTimesSchema, decodeStopTime, &f.Stats, true); err != nil {
		return nil, err
	}

	var haveCalendar, haveDates bool
	if f.Calendar, haveCalendar, err = readTable(ctx, fsys, CalendarTable, calendarSchema, decodeCalendarEntry, &f.Stats, false); err != nil {
		return nil, err
	}
	if f.Exceptions, haveDates, err = readTable(ctx, fsys, CalendarDatesTable, calendarDatesSchema, decodeServiceException, &f.Stats, false); err != nil {
		return nil, err
	}
	if !haveCalendar && !haveDates {
		return nil, &ParseError{
			Table: CalendarTable,
			Err:   fmt.Errorf("%w: neither %s nor %s present", ErrMissingTable, CalendarTable, CalendarDatesTable),
		}
	}

	f.resolveReferences()
	return f, nil
}

func readTable[T any](
	ctx context.Context,
	fsys fs.FS,
	name string,
	schema Schema,
	decode func(Row) (T, error),
	stats *LoadStats,
	required bool,
) ([]T, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	file, err := fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		if required {
			return nil, false, &ParseError{Table: name, Err: ErrMissingTable}
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ParseError{Table: name, Err: err}
	}
	defer file.Close() // nolint

	table, err := NewTableReader(path.Base(name), file, schema)
	if err != nil {
		return nil, true, err
	}

	var (
		records []T
		ts      TableStats
	)
	for table.Next() {
		ts.Rows++
		if ts.Rows%50000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, true, err
			}
		}
		rec, err := decode(table.Row())
		if err != nil {
			ts.Malformed++
			continue
		}
		records = append(records, rec)
	}
	if err := table.Err(); err != nil {
		return nil, true, err
	}
	ts.Skipped = table.Skipped()
	stats.Tables[name] = ts
	return records, true, nil
}

// resolveReferences drops rows that point at entities the feed does not
// define. Stops and trips keep their first definition.
func (f *Feed) resolveReferences() {
	stopIDs := make(map[string]struct{}, len(f.Stops))
	stops := f.Stops[:0]
	for _, s := range f.Stops {
		if _, dup := stopIDs[s.ID]; dup {
			f.Stats.DuplicateStops++
			continue
		}
		stopIDs[s.ID] = struct{}{}
		stops = append(stops, s)
	}
	f.Stops = stops

	routeIDs := make(map[string]struct{}, len(f.Routes))
	for _, r := range f.Routes {
		routeIDs[r.ID] = struct{}{}
	}

	tripIDs := make(map[string]struct{}, len(f.Trips))
	trips := f.Trips[:0]
	for _, t := range f.Trips {
		if _, ok := routeIDs[t.RouteID]; !ok {
			f.Stats.OrphanTrips++
			continue
		}
		if _, dup := tripIDs[t.ID]; dup {
			f.Stats.DuplicateTrips++
			continue
		}
		tripIDs[t.ID] = struct{}{}
		trips = append(trips, t)
	}
	f.Trips = trips

	stopTimes := f.StopTimes[:0]
	for _, st := range f.StopTimes {
		_, knownStop := stopIDs[st.StopID]
		_, knownTrip := tripIDs[st.TripID]
		if !knownStop || !knownTrip {
			f.Stats.OrphanStopTimes++
			continue
		}
		stopTimes = append(stopTimes, st)
	}
	f.StopTimes = stopTimes
}
