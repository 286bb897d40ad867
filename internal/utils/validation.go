package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxIDLength bounds route, stop and vehicle ids taken from a request.
	MaxIDLength = 64
	// MaxStopQueryLength bounds a stop id or name query, in runes.
	MaxStopQueryLength = 100
	// MaxRadiusKm bounds the stop-closest search radius.
	MaxRadiusKm = 25.0
)

// GTFS ids in the wild: "ST.14", "90000295", "S1", "1:100", "WKD-1".
var transitIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// Punctuation that occurs in stop names, e.g. "Hlemmur / Laugavegur" or "Mjódd (B)".
const stopNamePunctuation = ".,-'/()&:_"

// ValidateID checks a route, stop or vehicle id taken from a URL.
func ValidateID(id string) error {
	switch {
	case id == "":
		return errors.New("id cannot be empty")
	case len(id) > MaxIDLength:
		return fmt.Errorf("id too long (max %d characters)", MaxIDLength)
	case !transitIDPattern.MatchString(id):
		return errors.New("id contains invalid characters")
	}
	return nil
}

// NormalizeStopQuery prepares a stop id or stop name for lookup. The result
// is NFC with runs of whitespace collapsed to one space, so a name typed
// with combining accents ("Fiskislóð") matches the feed's "Fiskislóð".
// An empty query yields "" and no error.
func NormalizeStopQuery(query string) (string, error) {
	if !utf8.ValidString(query) {
		return "", errors.New("stop is not valid UTF-8")
	}
	query = strings.Join(strings.Fields(norm.NFC.String(query)), " ")
	if utf8.RuneCountInString(query) > MaxStopQueryLength {
		return "", fmt.Errorf("stop too long (max %d characters)", MaxStopQueryLength)
	}
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == ' ' {
			continue
		}
		if !strings.ContainsRune(stopNamePunctuation, r) {
			return "", fmt.Errorf("stop contains invalid character %q", r)
		}
	}
	return query, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateLatitude accepts finite values in [-90, 90].
func ValidateLatitude(lat float64) error {
	if !finite(lat) || lat < -90 || lat > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude accepts finite values in [-180, 180].
func ValidateLongitude(lon float64) error {
	if !finite(lon) || lon < -180 || lon > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateRadiusKm accepts finite values in [0, MaxRadiusKm]. Zero means unbounded.
func ValidateRadiusKm(radius float64) error {
	switch {
	case !finite(radius):
		return errors.New("radius must be a number of kilometres")
	case radius < 0:
		return errors.New("radius must be non-negative")
	case radius > MaxRadiusKm:
		return fmt.Errorf("radius too large (max %g km)", MaxRadiusKm)
	}
	return nil
}

// ValidateLocationParams validates a coordinate and a search radius in km,
// keyed by query parameter.
func ValidateLocationParams(lat, lon, radiusKm float64) map[string][]string {
	fieldErrors := make(map[string][]string)
	if err := ValidateLatitude(lat); err != nil {
		fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
	}
	if err := ValidateLongitude(lon); err != nil {
		fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
	}
	if err := ValidateRadiusKm(radiusKm); err != nil {
		fieldErrors["radius"] = append(fieldErrors["radius"], err.Error())
	}
	return fieldErrors
}
