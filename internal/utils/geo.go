package utils

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0088

// Distance returns the great-circle distance in kilometers between two
// points using the haversine formula. Longitudes on either side of the
// antimeridian are handled without wrapping.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	sLat := math.Sin(dLat / 2)
	sLon := math.Sin(dLon / 2)

	a := sLat*sLat + math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sLon*sLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// FormatLocation renders a coordinate as "(lat,lon)" with six decimals.
func FormatLocation(lat, lon float64) string {
	return fmt.Sprintf("(%.6f,%.6f)", lat, lon)
}
