package feed

import (
	"fmt"
	"strconv"
)

type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// RouteKind is the mode of transport of a route, from route_type.
type RouteKind int

const (
	Tram RouteKind = iota
	Subway
	Rail
	Bus
	Ferry
	CableTram
	AerialLift
	Funicular
	Trolleybus RouteKind = 11
	Monorail   RouteKind = 12
	// RouteKindUnknown covers blank and unrecognised values.
	RouteKindUnknown RouteKind = -1
)

var routeKindNames = map[RouteKind]string{
	Tram:             "tram",
	Subway:           "subway",
	Rail:             "rail",
	Bus:              "bus",
	Ferry:            "ferry",
	CableTram:        "cable_tram",
	AerialLift:       "aerial_lift",
	Funicular:        "funicular",
	Trolleybus:       "trolleybus",
	Monorail:         "monorail",
	RouteKindUnknown: "unknown",
}

func (k RouteKind) String() string {
	if name, ok := routeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k RouteKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseRouteKind maps basic and extended GTFS route types onto RouteKind.
func ParseRouteKind(s string) RouteKind {
	v, err := strconv.Atoi(s)
	if err != nil {
		return RouteKindUnknown
	}
	switch {
	case v >= 0 && v <= 7, v == 11, v == 12:
		return RouteKind(v)
	case v >= 100 && v < 200:
		return Rail
	case v >= 200 && v < 300, v >= 700 && v < 800:
		return Bus
	case v >= 400 && v < 500:
		return Subway
	case v == 800:
		return Trolleybus
	case v >= 900 && v < 1000:
		return Tram
	case v == 1000, v == 1200:
		return Ferry
	case v == 1300:
		return AerialLift
	case v == 1400:
		return Funicular
	}
	return RouteKindUnknown
}

type Route struct {
	ID        string
	ShortName string
	LongName  string
	Kind      RouteKind
}

// Direction is the orientation of a trip along its route.
type Direction int8

const (
	DirectionUnknown Direction = -1
	Outbound         Direction = 0
	Inbound          Direction = 1
)

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "":
		return DirectionUnknown, nil
	case "0":
		return Outbound, nil
	case "1":
		return Inbound, nil
	}
	return DirectionUnknown, fmt.Errorf("invalid direction_id %q", s)
}

func (d Direction) String() string {
	switch d {
	case Outbound:
		return "outbound"
	case Inbound:
		return "inbound"
	}
	return "unknown"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "outbound", "0":
		*d = Outbound
	case "inbound", "1":
		*d = Inbound
	case "unknown", "":
		*d = DirectionUnknown
	default:
		return fmt.Errorf("invalid direction %q", string(b))
	}
	return nil
}

type Trip struct {
	ID        string
	RouteID   string
	ServiceID string
	Direction Direction
	Headsign  string
}

type StopTime struct {
	TripID    string
	StopID    string
	Sequence  int
	Arrival   TimeOfDay
	Departure TimeOfDay
}

// CalendarEntry is a weekly service pattern. Weekdays is indexed Monday
// first, as in the calendar table.
type CalendarEntry struct {
	ServiceID string
	Weekdays  [7]bool
	Start     Date
	End       Date
}

type ExceptionKind int

const (
	Added   ExceptionKind = 1
	Removed ExceptionKind = 2
)

func (k ExceptionKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	}
	return "unknown"
}

type ServiceException struct {
	ServiceID string
	Date      Date
	Kind      ExceptionKind
}

var (
	stopsSchema = Schema{
		Required: []string{"stop_id"},
		Optional: []string{"stop_name", "stop_lat", "stop_lon", "location_type"},
	}
	routesSchema = Schema{
		Required: []string{"route_id"},
		Optional: []string{"route_short_name", "route_long_name", "route_type"},
	}
	tripsSchema = Schema{
		Required: []string{"route_id", "service_id", "trip_id"},
		Optional: []string{"direction_id", "trip_headsign"},
	}
	stopTimesSchema = Schema{
		Required: []string{"trip_id", "stop_id", "stop_sequence"},
		Optional: []string{"arrival_time", "departure_time"},
	}
	calendarSchema = Schema{
		Required: []string{
			"service_id", "monday", "tuesday", "wednesday", "thursday",
			"friday", "saturday", "sunday", "start_date", "end_date",
		},
	}
	calendarDatesSchema = Schema{
		Required: []string{"service_id", "date", "exception_type"},
	}
)

func decodeStop(row Row) (Stop, error) {
	// Entrances, generic nodes and boarding areas are not places a
	// vehicle stops at.
	if lt := row["location_type"]; lt != "" && lt != "0" && lt != "1" {
		return Stop{}, fmt.Errorf("stop %s: location_type %s", row["stop_id"], lt)
	}
	lat, err := strconv.ParseFloat(row["stop_lat"], 64)
	if err != nil || lat < -90 || lat > 90 {
		return Stop{}, fmt.Errorf("stop %s: invalid stop_lat %q", row["stop_id"], row["stop_lat"])
	}
	lon, err := strconv.ParseFloat(row["stop_lon"], 64)
	if err != nil || lon < -180 || lon > 180 {
		return Stop{}, fmt.Errorf("stop %s: invalid stop_lon %q", row["stop_id"], row["stop_lon"])
	}
	return Stop{
		ID:   row["stop_id"],
		Name: row["stop_name"],
		Lat:  lat,
		Lon:  lon,
	}, nil
}

func decodeRoute(row Row) (Route, error) {
	return Route{
		ID:        row["route_id"],
		ShortName: row["route_short_name"],
		LongName:  row["route_long_name"],
		Kind:      ParseRouteKind(row["route_type"]),
	}, nil
}

func decodeTrip(row Row) (Trip, error) {
	direction, err := ParseDirection(row["direction_id"])
	if err != nil {
		return Trip{}, fmt.Errorf("trip %s: %w", row["trip_id"], err)
	}
	return Trip{
		ID:        row["trip_id"],
		RouteID:   row["route_id"],
		ServiceID: row["service_id"],
		Direction: direction,
		Headsign:  row["trip_headsign"],
	}, nil
}

func decodeStopTime(row Row) (StopTime, error) {
	seq, err := strconv.Atoi(row["stop_sequence"])
	if err != nil || seq < 0 {
		return StopTime{}, fmt.Errorf("trip %s: invalid stop_sequence %q", row["trip_id"], row["stop_sequence"])
	}

	arrivalRaw, departureRaw := row["arrival_time"], row["departure_time"]
	if arrivalRaw == "" {
		arrivalRaw = departureRaw
	}
	if departureRaw == "" {
		departureRaw = arrivalRaw
	}
	if arrivalRaw == "" {
		return StopTime{}, fmt.Errorf("trip %s: stop_sequence %d has no time", row["trip_id"], seq)
	}
	arrival, err := ParseTimeOfDay(arrivalRaw)
	if err != nil {
		return StopTime{}, fmt.Errorf("trip %s: arrival_time: %w", row["trip_id"], err)
	}
	departure, err := ParseTimeOfDay(departureRaw)
	if err != nil {
		return StopTime{}, fmt.Errorf("trip %s: departure_time: %w", row["trip_id"], err)
	}

	return StopTime{
		TripID:    row["trip_id"],
		StopID:    row["stop_id"],
		Sequence:  seq,
		Arrival:   arrival,
		Departure: departure,
	}, nil
}

var weekdayColumns = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func decodeCalendarEntry(row Row) (CalendarEntry, error) {
	entry := CalendarEntry{ServiceID: row["service_id"]}
	for i, col := range weekdayColumns {
		switch row[col] {
		case "1":
			entry.Weekdays[i] = true
		case "0":
		default:
			return CalendarEntry{}, fmt.Errorf("service %s: invalid %s %q", entry.ServiceID, col, row[col])
		}
	}
	var err error
	if entry.Start, err = ParseDate(row["start_date"]); err != nil {
		return CalendarEntry{}, fmt.Errorf("service %s: start_date: %w", entry.ServiceID, err)
	}
	if entry.End, err = ParseDate(row["end_date"]); err != nil {
		return CalendarEntry{}, fmt.Errorf("service %s: end_date: %w", entry.ServiceID, err)
	}
	return entry, nil
}

func decodeServiceException(row Row) (ServiceException, error) {
	d, err := ParseDate(row["date"])
	if err != nil {
		return ServiceException{}, fmt.Errorf("service %s: %w", row["service_id"], err)
	}
	var kind ExceptionKind
	switch row["exception_type"] {
	case "1":
		kind = Added
	case "2":
		kind = Removed
	default:
		return ServiceException{}, fmt.Errorf("service %s: invalid exception_type %q", row["service_id"], row["exception_type"])
	}
	return ServiceException{ServiceID: row["service_id"], Date: d, Kind: kind}, nil
}
