package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mideind/straeto/internal/feed"
)

func date(y int, m time.Month, d int) feed.Date {
	return feed.Date{Year: y, Month: m, Day: d}
}

func testCalendar() *ServiceCalendar {
	entries := []feed.CalendarEntry{
		{
			ServiceID: "MON",
			Weekdays:  [7]bool{true, false, false, false, false, false, false},
			Start:     date(2024, 1, 1),
			End:       date(2024, 12, 31),
		},
		{
			ServiceID: "WKD",
			Weekdays:  [7]bool{true, true, true, true, true, false, false},
			Start:     date(2024, 1, 1),
			End:       date(2024, 6, 30),
		},
		{
			ServiceID: "NEVER",
			Start:     date(2024, 1, 1),
			End:       date(2024, 12, 31),
		},
	}
	exceptions := []feed.ServiceException{
		{ServiceID: "WKD", Date: date(2024, 3, 18), Kind: feed.Removed},
		{ServiceID: "WKD", Date: date(2024, 3, 16), Kind: feed.Added},
		{ServiceID: "XTRA", Date: date(2024, 3, 17), Kind: feed.Added},
		{ServiceID: "MON", Date: date(2024, 3, 25), Kind: feed.Added},
		{ServiceID: "MON", Date: date(2024, 3, 25), Kind: feed.Removed},
	}
	return New(entries, exceptions)
}

func TestIsActive(t *testing.T) {
	cal := testCalendar()

	tests := []struct {
		name     string
		service  string
		date     feed.Date
		expected bool
	}{
		{"weekly pattern on a Monday", "MON", date(2024, 3, 11), true},
		{"weekly pattern on a Sunday", "MON", date(2024, 3, 17), false},
		{"first day of range", "MON", date(2024, 1, 1), true},
		{"before range", "MON", date(2023, 12, 25), false},
		{"after range", "WKD", date(2024, 7, 1), false},
		{"last day of range", "WKD", date(2024, 6, 28), true},
		{"removed exception overrides weekly pattern", "WKD", date(2024, 3, 18), false},
		{"added exception on a Saturday", "WKD", date(2024, 3, 16), true},
		{"service known only from added exceptions", "XTRA", date(2024, 3, 17), true},
		{"service known only from added exceptions on other dates", "XTRA", date(2024, 3, 18), false},
		{"removed wins over added on the same date", "MON", date(2024, 3, 25), false},
		{"weekday bit unset and no exception", "NEVER", date(2024, 3, 11), false},
		{"unknown service", "NOPE", date(2024, 3, 11), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cal.IsActive(tt.service, tt.date))
		})
	}
}

func TestActiveOn(t *testing.T) {
	cal := testCalendar()

	assert.Equal(t, map[string]struct{}{"MON": {}, "WKD": {}}, cal.ActiveOn(date(2024, 3, 11)))
	assert.Equal(t, map[string]struct{}{"XTRA": {}}, cal.ActiveOn(date(2024, 3, 17)))
	assert.Equal(t, map[string]struct{}{"MON": {}}, cal.ActiveOn(date(2024, 3, 18)))
	assert.Empty(t, cal.ActiveOn(date(2025, 1, 1)))
}

func TestServices(t *testing.T) {
	cal := testCalendar()
	assert.Equal(t, []string{"MON", "NEVER", "WKD", "XTRA"}, cal.Services())
	assert.Equal(t, 4, cal.Len())
}

func TestWeekdayIndex(t *testing.T) {
	assert.Equal(t, 0, weekdayIndex(time.Monday))
	assert.Equal(t, 5, weekdayIndex(time.Saturday))
	assert.Equal(t, 6, weekdayIndex(time.Sunday))
}
