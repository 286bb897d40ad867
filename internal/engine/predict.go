package engine

import (
	"math"
	"time"

	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/realtime"
	"github.com/mideind/straeto/internal/schedule"
	"github.com/mideind/straeto/internal/utils"
)

const secondsPerDay = 24 * 60 * 60

// Prediction is the expected next arrival in one direction.
type Prediction struct {
	Time      feed.TimeOfDay `json:"time"`
	VehicleID string         `json:"vehicleId"`
	TripID    string         `json:"tripId"`
	// Delay is positive when the vehicle runs late.
	Delay time.Duration `json:"delay"`
}

// PredictArrivals estimates when the next vehicle of route reaches stop.
// Each vehicle is matched to the halt of its trip nearest its position,
// its delay against that halt is carried forward to the later calls at
// stop, and the earliest estimate not in the past is kept per direction.
// Times are rounded down to the minute.
func (s *Snapshot) PredictArrivals(routeRef, stopRef string, vehicles []realtime.Vehicle, now time.Time) (map[feed.Direction]Prediction, bool, error) {
	targets, err := s.ResolveStops(stopRef)
	if err != nil {
		return nil, false, err
	}
	route, ok := s.ResolveRoute(routeRef)
	if !ok {
		return map[feed.Direction]Prediction{}, false, nil
	}

	targetIDs := make(map[string]struct{}, len(targets))
	found := false
	for _, t := range targets {
		targetIDs[t.ID] = struct{}{}
		if s.Schedule.Serves(route.ID, t.ID) {
			found = true
		}
	}
	out := make(map[feed.Direction]Prediction)
	if !found {
		return out, false, nil
	}

	today := feed.DateOf(now)
	clock := feed.ClockOf(now).Seconds()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, v := range vehicles {
		plan, ok := s.Schedule.Trip(v.TripID)
		if !ok || plan.Trip.RouteID != route.ID {
			continue
		}
		at := s.nearestHalt(plan, v.Lat, v.Lon)
		if at < 0 {
			continue
		}
		// Seconds since today's midnight, negative for a report from yesterday.
		seen := int(v.Timestamp.Sub(midnight) / time.Second)
		offset, delay, ok := s.serviceDayDelay(plan, at, seen, today)
		if !ok {
			continue
		}

		for j := at + 1; j < len(plan.Halts); j++ {
			if _, ok := targetIDs[plan.Halts[j].StopID]; !ok {
				continue
			}
			expected := plan.Halts[j].Arrival.Seconds() + delay
			if expected < clock+offset {
				continue
			}
			p := Prediction{
				Time:      truncateToMinute(feed.TimeOfDayFromSeconds(expected - offset)),
				VehicleID: v.ID,
				TripID:    v.TripID,
				Delay:     time.Duration(delay) * time.Second,
			}
			if best, ok := out[plan.Trip.Direction]; !ok || p.Time.Before(best.Time) {
				out[plan.Trip.Direction] = p
			}
			break
		}
	}
	return out, true, nil
}

// serviceDayDelay decides which service day a running trip belongs to:
// today, or yesterday for a trip past midnight. When the service runs on
// both days the reading with the smallest delay wins. offset is the length
// of the service day before today's midnight, 0 or a whole day.
func (s *Snapshot) serviceDayDelay(plan schedule.TripPlan, halt, seen int, today feed.Date) (offset, delay int, ok bool) {
	scheduled := plan.Halts[halt].Arrival.Seconds()
	for days := 0; days <= 1; days++ {
		if !s.Calendar.IsActive(plan.Trip.ServiceID, today.AddDays(-days)) {
			continue
		}
		o := days * secondsPerDay
		d := seen + o - scheduled
		if !ok || absInt(d) < absInt(delay) {
			offset, delay, ok = o, d, true
		}
	}
	return offset, delay, ok
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// nearestHalt returns the index of the halt of plan closest to the
// coordinate, or -1 when none of its stops are known.
func (s *Snapshot) nearestHalt(plan schedule.TripPlan, lat, lon float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, h := range plan.Halts {
		stop, err := s.Stops.ByID(h.StopID)
		if err != nil {
			continue
		}
		if d := utils.Distance(lat, lon, stop.Lat, stop.Lon); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func truncateToMinute(t feed.TimeOfDay) feed.TimeOfDay {
	return feed.TimeOfDay{Hour: t.Hour, Minute: t.Minute}
}
