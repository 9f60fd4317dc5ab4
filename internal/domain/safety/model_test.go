package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_BucketKeyRoundsCoordinates(t *testing.T) {
	a := Location{Coordinates: &Coordinates{Lat: 48.8566, Lng: 2.3522}}
	b := Location{Coordinates: &Coordinates{Lat: 48.8571, Lng: 2.3519}}

	keyA, okA := a.BucketKey()
	keyB, okB := b.BucketKey()

	assert.True(t, okA)
	assert.True(t, okB)
	assert.Equal(t, "48.86,2.35", keyA)
	assert.Equal(t, keyA, keyB, "nearby points share a ~1.1 km grid cell")
}

func TestLocation_BucketKeyFallsBackToPlaceName(t *testing.T) {
	key, ok := Location{City: " Tokyo ", Country: "Japan"}.BucketKey()
	assert.True(t, ok)
	assert.Equal(t, "tokyo,japan", key)

	key, ok = Location{Country: "Japan"}.BucketKey()
	assert.True(t, ok)
	assert.Equal(t, ",japan", key)
}

func TestLocation_BucketKeyAbsentWithoutContext(t *testing.T) {
	_, ok := Location{}.BucketKey()
	assert.False(t, ok)

	_, ok = Location{Region: "Kanto"}.BucketKey()
	assert.False(t, ok, "region alone is not enough context")
}

func TestLocation_DisplayName(t *testing.T) {
	assert.Equal(t, "Tokyo, Japan", Location{City: "Tokyo", Country: "Japan"}.DisplayName())
	assert.Equal(t, "Japan", Location{Country: "Japan"}.DisplayName())
	assert.Equal(t, "Tokyo", Location{City: "Tokyo"}.DisplayName())
	assert.Equal(t, "Unknown location", Location{}.DisplayName())
}

func TestReport_Sourced(t *testing.T) {
	assert.True(t, Report{Origin: OriginLive}.Sourced())
	assert.True(t, Report{Origin: OriginCache}.Sourced())
	assert.False(t, Report{Origin: OriginSynthesized}.Sourced())
	assert.False(t, Report{Origin: OriginStatic}.Sourced())
}
