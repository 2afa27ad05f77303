package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_NoOffices(t *testing.T) {
	r := Evaluate(12.9, 77.6, nil, nil)
	assert.True(t, r.Valid)
	assert.True(t, r.Flagged)
	assert.Equal(t, "No office locations configured", r.Reason)
}

func TestEvaluate_PoorAccuracy(t *testing.T) {
	acc := 75.0
	offices := []Office{{Latitude: 12.9, Longitude: 77.6, RadiusMeters: 100}}
	r := Evaluate(12.9, 77.6, &acc, offices)
	assert.True(t, r.Valid)
	assert.True(t, r.Flagged)
	assert.Equal(t, "GPS accuracy too low", r.Reason)
}

func TestEvaluate_WithinRadius(t *testing.T) {
	offices := []Office{{Latitude: 12.9716, Longitude: 77.5946, RadiusMeters: 200}}
	acc := 10.0
	r := Evaluate(12.9716, 77.5946, &acc, offices)
	assert.True(t, r.Valid)
	assert.False(t, r.Flagged)
	assert.Empty(t, r.Reason)
}

func TestEvaluate_OutsideAllOffices(t *testing.T) {
	offices := []Office{{Latitude: 12.9716, Longitude: 77.5946, RadiusMeters: 100}}
	r := Evaluate(13.05, 77.6, nil, offices)
	assert.True(t, r.Valid)
	assert.True(t, r.Flagged)
	assert.Equal(t, "Outside office premises", r.Reason)
}

func TestEvaluate_NeverRejects(t *testing.T) {
	// Even wildly out-of-range coordinates are never invalid; the
	// evaluator only flags.
	offices := []Office{{Latitude: 0, Longitude: 0, RadiusMeters: 10}}
	r := Evaluate(89.9, 179.9, nil, offices)
	assert.True(t, r.Valid)
	assert.True(t, r.Flagged)
}

func TestHaversineMeters_ZeroDistance(t *testing.T) {
	d := haversineMeters(12.9716, 77.5946, 12.9716, 77.5946)
	assert.InDelta(t, 0, d, 0.001)
}
