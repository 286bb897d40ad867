// Package calendar resolves which services run on a given date.
package calendar

import (
	"sort"
	"time"

	"github.com/mideind/straeto/internal/feed"
)

type service struct {
	weekly  *feed.CalendarEntry
	added   map[feed.Date]struct{}
	removed map[feed.Date]struct{}
}

// ServiceCalendar merges weekly patterns and date exceptions per service id.
// It is immutable once built.
type ServiceCalendar struct {
	services map[string]*service
}

func New(entries []feed.CalendarEntry, exceptions []feed.ServiceException) *ServiceCalendar {
	c := &ServiceCalendar{services: make(map[string]*service, len(entries))}

	for _, entry := range entries {
		s := c.get(entry.ServiceID)
		if s.weekly == nil {
			s.weekly = &entry
		}
	}
	for _, ex := range exceptions {
		s := c.get(ex.ServiceID)
		switch ex.Kind {
		case feed.Added:
			s.added[ex.Date] = struct{}{}
		case feed.Removed:
			s.removed[ex.Date] = struct{}{}
		}
	}
	return c
}

func (c *ServiceCalendar) get(id string) *service {
	s, ok := c.services[id]
	if !ok {
		s = &service{
			added:   make(map[feed.Date]struct{}),
			removed: make(map[feed.Date]struct{}),
		}
		c.services[id] = s
	}
	return s
}

// IsActive reports whether the service runs on d. A REMOVED exception wins
// over both the weekly pattern and an ADDED exception for the same date.
func (c *ServiceCalendar) IsActive(serviceID string, d feed.Date) bool {
	s, ok := c.services[serviceID]
	if !ok {
		return false
	}
	return s.activeOn(d)
}

func (s *service) activeOn(d feed.Date) bool {
	if _, removed := s.removed[d]; removed {
		return false
	}
	if _, added := s.added[d]; added {
		return true
	}
	if s.weekly == nil {
		return false
	}
	if d.Compare(s.weekly.Start) < 0 || d.Compare(s.weekly.End) > 0 {
		return false
	}
	return s.weekly.Weekdays[weekdayIndex(d.Weekday())]
}

// weekdayIndex maps time.Weekday onto the Monday-first calendar columns.
func weekdayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// ActiveOn returns the set of services running on d.
func (c *ServiceCalendar) ActiveOn(d feed.Date) map[string]struct{} {
	active := make(map[string]struct{})
	for id, s := range c.services {
		if s.activeOn(d) {
			active[id] = struct{}{}
		}
	}
	return active
}

// Services lists every known service id in sorted order.
func (c *ServiceCalendar) Services() []string {
	ids := make([]string, 0, len(c.services))
	for id := range c.services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *ServiceCalendar) Len() int {
	return len(c.services)
}
