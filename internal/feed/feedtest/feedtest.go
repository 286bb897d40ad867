// Package feedtest builds small in-memory feed archives for tests.
package feedtest

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Tables maps a table file name to its lines, header first.
type Tables map[string][]string

// Archive zips the given tables.
func Archive(t testing.TB, tables Tables) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for name, lines := range tables {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(lines, "\n") + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// Reykjavik returns a copy of a small capital-area network.
//
// Route ST.14 runs T1 (Mondays), T2 and T3 (weekdays, except Monday
// 2024-03-18) and T4 (only Sunday 2024-03-17, by calendar_dates). T2 stops
// twice at Lækjartorg at the same minute. T3 runs after midnight. Route ST.99
// never calls at Fiskislóð. Two stops share the name Fiskislóð.
func Reykjavik() Tables {
	return Tables{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon,location_type",
			"S1,Fiskislóð,64.156896,-21.951200,0",
			"S2,Hlemmur,64.143300,-21.915400,0",
			"S3,Lækjartorg,64.147500,-21.935000,0",
			"S4,Fiskislóð,64.157100,-21.950800,0",
			"S5,Mjódd,64.111000,-21.843000,0",
			"S6,BSÍ,64.137500,-21.938000,",
		},
		"routes.txt": {
			"route_id,agency_id,route_short_name,route_long_name,route_type",
			"ST.14,straeto,14,Fiskislóð - Mjódd,3",
			"ST.99,straeto,99,Hlemmur - Mjódd,3",
			"ST.1,straeto,1,Hlemmur - Hafnarfjörður,3",
			"AF.1,straeto,1,Egilsstaðir - Seyðisfjörður,3",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"MON,1,0,0,0,0,0,0,20240101,20241231",
			"WKD,1,1,1,1,1,0,0,20240101,20241231",
		},
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"WKD,20240318,2",
			"XTRA,20240317,1",
		},
		"trips.txt": {
			"route_id,service_id,trip_id,trip_headsign,direction_id",
			"ST.14,MON,T1,Mjódd,0",
			"ST.14,WKD,T2,Mjódd,0",
			"ST.14,WKD,T3,Fiskislóð,1",
			"ST.14,XTRA,T4,Mjódd,0",
			"ST.99,WKD,T9,Mjódd,0",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence,stop_headsign,pickup_type",
			"T1,08:15:00,08:15:00,S1,1,,0",
			"T1,08:25:00,08:25:00,S3,2,,0",
			"T1,08:40:00,08:40:00,S5,3,,0",
			"T2,07:00:00,07:00:00,S1,1,",
			"T2,07:10:00,07:10:00,S3,2,",
			"T2,07:10:00,07:10:00,S3,3,",
			"T2,07:30:00,07:30:00,S5,4,",
			"T3,23:50:00,23:50:00,S5,1,,0",
			"T3,24:10:00,24:10:00,S3,2,,0",
			"T3,24:25:00,24:25:00,S4,3,,0",
			"T4,12:00:00,12:00:00,S1,1,,0",
			"T4,12:30:00,12:30:00,S5,2,,0",
			"T9,09:00:00,09:00:00,S2,1,,0",
			"T9,09:20:00,09:20:00,S5,2,,0",
			"TX,09:00:00,09:00:00,S1,1,,0",
			"T1,08:50:00,08:50:00,S404,4,,0",
		},
	}
}

// ReykjavikArchive is Reykjavik zipped.
func ReykjavikArchive(t testing.TB) []byte {
	t.Helper()
	return Archive(t, Reykjavik())
}
