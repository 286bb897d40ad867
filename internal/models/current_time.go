package models

import (
	"time"

	"github.com/mideind/straeto/internal/feed"
)

// CurrentTime is the service clock. ServiceDate and Clock are what an
// arrivals query without date or time parameters would use.
type CurrentTime struct {
	ReadableTime string         `json:"readableTime"`
	Time         int64          `json:"time"`
	TimeZone     string         `json:"timeZone"`
	ServiceDate  string         `json:"serviceDate"`
	Clock        feed.TimeOfDay `json:"clock"`
}

// NewCurrentTime describes now in its own location.
func NewCurrentTime(now time.Time) CurrentTime {
	return CurrentTime{
		ReadableTime: now.Format(time.RFC3339),
		Time:         now.UnixMilli(),
		TimeZone:     now.Location().String(),
		ServiceDate:  feed.DateOf(now).String(),
		Clock:        feed.ClockOf(now),
	}
}
