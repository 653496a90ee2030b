// Package geo provides the spherical-earth geometry used by the discovery
// core: great-circle distance, bearings, forward projection, and relative
// direction bucketing.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by all spherical formulas.
const EarthRadiusMeters = 6_371_000.0

// Direction buckets for a place relative to the observer's heading.
const (
	DirectionAhead  = "directly ahead"
	DirectionBehind = "behind you"
	DirectionRight  = "to your right"
	DirectionLeft   = "to your left"
)

// Bucket boundaries in degrees of absolute angular difference from the
// heading. At or below aheadMaxDeg is "directly ahead"; at or above
// behindMinDeg is "behind you".
const (
	aheadMaxDeg  = 22.5
	behindMinDeg = 157.5
)

// Haversine returns the great-circle distance in meters between two
// lat/lon points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// InitialBearing returns the initial great-circle bearing from point 1 to
// point 2 in degrees clockwise from true north, normalised to [0, 360).
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	theta := math.Atan2(y, x)
	return normalizeDeg(degrees(theta))
}

// Project advances from (lat, lon) along the great circle with the given
// initial bearing (degrees) for distanceMeters and returns the destination
// point in degrees.
func Project(lat, lon, bearingDeg, distanceMeters float64) (float64, float64) {
	phi1 := radians(lat)
	lambda1 := radians(lon)
	theta := radians(bearingDeg)
	delta := distanceMeters / EarthRadiusMeters

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	destLat := degrees(phi2)
	destLon := degrees(lambda2)
	// Keep longitude in [-180, 180).
	destLon = math.Mod(destLon+540, 360) - 180
	return destLat, destLon
}

// AngleDiff returns the signed smallest difference to - from in degrees,
// in (-180, 180]. Positive means "to" is clockwise of "from".
func AngleDiff(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}

// RelativeDirection buckets the bearing toward a target against the
// observer's heading: "directly ahead" within 22.5 degrees, "behind you" at
// 157.5 degrees or more, otherwise left/right by the sign of the signed
// difference.
func RelativeDirection(headingDeg, bearingDeg float64) string {
	diff := AngleDiff(headingDeg, bearingDeg)
	abs := math.Abs(diff)
	switch {
	case abs <= aheadMaxDeg:
		return DirectionAhead
	case abs >= behindMinDeg:
		return DirectionBehind
	case diff > 0:
		return DirectionRight
	default:
		return DirectionLeft
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func normalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
