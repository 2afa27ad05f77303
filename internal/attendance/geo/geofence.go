// Package geo evaluates whether a check-in/out location falls within
// one of the office premises. It never rejects a request, only flags
// it for the attendance engine to record.
package geo

import "math"

const earthRadiusMeters = 6371000.0

const maxAcceptableAccuracyMeters = 50.0

// Office is the subset of an office location the evaluator needs.
type Office struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Result is the outcome of evaluating a single reading against the
// active office list.
type Result struct {
	Valid   bool
	Flagged bool
	Reason  string
}

// Evaluate checks (lat, lng, accuracyMeters) against the active office
// list. accuracyMeters may be nil when the device didn't report one.
func Evaluate(lat, lng float64, accuracyMeters *float64, offices []Office) Result {
	if len(offices) == 0 {
		return Result{Valid: true, Flagged: true, Reason: "No office locations configured"}
	}

	if accuracyMeters != nil && *accuracyMeters > maxAcceptableAccuracyMeters {
		return Result{Valid: true, Flagged: true, Reason: "GPS accuracy too low"}
	}

	for _, office := range offices {
		if haversineMeters(lat, lng, office.Latitude, office.Longitude) <= office.RadiusMeters {
			return Result{Valid: true, Flagged: false}
		}
	}

	return Result{Valid: true, Flagged: true, Reason: "Outside office premises"}
}

// haversineMeters returns the great-circle distance between two
// lat/lng points, in meters.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
