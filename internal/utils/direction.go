package utils

import "math"

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// InitialBearing is the compass bearing in degrees, in [0, 360), of the
// great circle leaving (lat1, lon1) towards (lat2, lon2).
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := toRadians(lat1), toRadians(lat2)
	dLon := toRadians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	return NormalizeBearing(math.Atan2(y, x) * 180 / math.Pi)
}

// NormalizeBearing folds any finite bearing into [0, 360). Vehicle feeds
// report bearings such as -90 or 450. NaN and infinities are returned as NaN.
func NormalizeBearing(b float64) float64 {
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return math.NaN()
	}
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	return b
}

// Compass names the nearest of the eight principal compass points, or ""
// when the bearing is not a number.
func Compass(bearing float64) string {
	b := NormalizeBearing(bearing)
	if math.IsNaN(b) {
		return ""
	}
	return compassPoints[int(math.Floor((b+22.5)/45))%len(compassPoints)]
}

// CompassFrom names the compass point of (lat2, lon2) as seen from (lat1, lon1).
func CompassFrom(lat1, lon1, lat2, lon2 float64) string {
	return Compass(InitialBearing(lat1, lon1, lat2, lon2))
}
