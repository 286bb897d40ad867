package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mideind/straeto/internal/feed"
)

func invalidField(fieldErrors map[string][]string, key string) {
	fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
}

// ParseFloatParam retrieves a float64 value from the provided URL query parameters.
// If the key is not present or the value is invalid, it returns 0 and updates the fieldErrors map.
// - params: URL query parameters.
// - key: The key to look for in the query parameters.
// - fieldErrors: A map to collect validation errors for fields.
// Returns:
// - The parsed float64 value (or 0 if invalid).
// - The updated fieldErrors map containing any validation errors.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return 0, fieldErrors
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		invalidField(fieldErrors, key)
	}
	return f, fieldErrors
}

// ParseIntParam is ParseFloatParam for non-negative integers; def is returned when the key is absent.
func ParseIntParam(params url.Values, key string, def int, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return def, fieldErrors
	}

	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		invalidField(fieldErrors, key)
		return def, fieldErrors
	}
	return n, fieldErrors
}

// ParseBoolParam accepts the forms understood by strconv.ParseBool. An absent key is false.
func ParseBoolParam(params url.Values, key string, fieldErrors map[string][]string) (bool, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return false, fieldErrors
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		invalidField(fieldErrors, key)
	}
	return b, fieldErrors
}

// ParseDateParam reads a YYYY-MM-DD date. When the key is absent the date of now is used.
func ParseDateParam(params url.Values, key string, now time.Time, fieldErrors map[string][]string) (feed.Date, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return feed.DateOf(now), fieldErrors
	}

	d, err := feed.ParseISODate(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], "invalid date format, use YYYY-MM-DD")
	}
	return d, fieldErrors
}

// ParseTimeOfDayParam reads an HH:MM or HH:MM:SS time. It returns nil when the key is absent.
func ParseTimeOfDayParam(params url.Values, key string, fieldErrors map[string][]string) (*feed.TimeOfDay, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return nil, fieldErrors
	}

	if strings.Count(val, ":") == 1 {
		val += ":00"
	}
	t, err := feed.ParseTimeOfDay(val)
	if err != nil {
		invalidField(fieldErrors, key)
		return nil, fieldErrors
	}
	return &t, fieldErrors
}
