package feed

import (
	"fmt"
	"time"
	"unicode"
)

// TimeOfDay is a wall-clock reading scoped to a service day. Hour may exceed
// 23 for trips that run past midnight on the previous day's service.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses GTFS times such as "8:15:00", "08:15:00" and
// "25:03:10". Surrounding whitespace is ignored.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var pieces [3]int
	var digits [3]int
	i := 0
	for _, c := range s {
		switch {
		case '0' <= c && c <= '9':
			pieces[i] = 10*pieces[i] + int(c-'0')
			digits[i]++
		case c == ':':
			i++
			if i > 2 {
				return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
			}
		case unicode.IsSpace(c):
			continue
		default:
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if i != 2 || digits[0] == 0 || digits[1] != 2 || digits[2] != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	if pieces[1] > 59 || pieces[2] > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day out of range %q", s)
	}
	return TimeOfDay{Hour: pieces[0], Minute: pieces[1], Second: pieces[2]}, nil
}

// TimeOfDayFromSeconds converts seconds since the start of the service day.
// Negative input is clamped to zero.
func TimeOfDayFromSeconds(s int) TimeOfDay {
	if s < 0 {
		s = 0
	}
	return TimeOfDay{Hour: s / 3600, Minute: (s / 60) % 60, Second: s % 60}
}

// ClockOf returns the wall-clock reading of t in its own location.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// RoundToMinute rounds t to hh:mm:00. Half a minute rounds to the even
// minute. With down set the seconds are simply dropped.
func RoundToMinute(t time.Time, down bool) TimeOfDay {
	h, m, s := t.Hour(), t.Minute(), t.Second()
	if down {
		return TimeOfDay{Hour: h, Minute: m}
	}
	if s > 30 || (s == 30 && m%2 == 1) {
		m++
		if m >= 60 {
			m -= 60
			h++
			if h >= 24 {
				h -= 24
			}
		}
	}
	return TimeOfDay{Hour: h, Minute: m}
}

// Seconds since the start of the service day.
func (t TimeOfDay) Seconds() int {
	return (t.Hour*60+t.Minute)*60 + t.Second
}

// Compare returns -1, 0 or +1 following service-day order.
func (t TimeOfDay) Compare(o TimeOfDay) int {
	a, b := t.Seconds(), o.Seconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Seconds() < o.Seconds()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// MarshalText renders the time as HH:MM:SS so it can be used in JSON.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
