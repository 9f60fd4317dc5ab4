package location

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayguard/internal/domain/safety"
)

func coords(lat, lng float64) safety.Location {
	return safety.Location{Coordinates: &safety.Coordinates{Lat: lat, Lng: lng}}
}

func TestTracker_UpdateAndGet(t *testing.T) {
	tr := NewTracker(5 * time.Minute)

	tr.UpdateLocation("u1", coords(48.8566, 2.3522))

	loc, ok := tr.GetLocation("u1")
	require.True(t, ok)
	assert.Equal(t, 48.8566, loc.Coordinates.Lat)

	_, ok = tr.GetLocation("unknown")
	assert.False(t, ok)
}

func TestTracker_RecordExpires(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(5 * time.Minute)
	tr.now = func() time.Time { return now }

	tr.UpdateLocation("u1", coords(35.6762, 139.6503))

	now = now.Add(5*time.Minute + time.Second)

	_, ok := tr.GetLocation("u1")
	assert.False(t, ok, "stale record should be evicted")
}

func TestTracker_ClearLocation(t *testing.T) {
	tr := NewTracker(5 * time.Minute)

	tr.UpdateLocation("u1", coords(35.6762, 139.6503))
	tr.ClearLocation("u1")

	_, ok := tr.GetLocation("u1")
	assert.False(t, ok)
}

func TestTracker_HasMovedSignificantly(t *testing.T) {
	tr := NewTracker(5 * time.Minute)

	assert.True(t, tr.HasMovedSignificantly("u1", coords(0, 0), 5),
		"no prior record counts as moved")

	tr.UpdateLocation("u1", coords(0, 0))

	// ~10 km at the equator
	assert.True(t, tr.HasMovedSignificantly("u1", coords(0, 0.09), 5))

	// ~1.1 km at the equator
	assert.False(t, tr.HasMovedSignificantly("u1", coords(0, 0.01), 5))
}

func TestTracker_MovementWithoutCoordinates(t *testing.T) {
	tr := NewTracker(5 * time.Minute)

	tr.UpdateLocation("u1", safety.Location{City: "Tokyo", Country: "Japan"})

	assert.True(t, tr.HasMovedSignificantly("u1", coords(35.6762, 139.6503), 5),
		"a record without coordinates cannot anchor a distance check")
}

func TestDistanceKm(t *testing.T) {
	// Paris to London, roughly 344 km great-circle
	paris := safety.Coordinates{Lat: 48.8566, Lng: 2.3522}
	london := safety.Coordinates{Lat: 51.5074, Lng: -0.1278}

	d := DistanceKm(paris, london)
	assert.InDelta(t, 344, d, 5)

	assert.Zero(t, DistanceKm(paris, paris))

	// One hundredth of a degree of longitude at the equator
	d = DistanceKm(safety.Coordinates{}, safety.Coordinates{Lng: 0.01})
	assert.InDelta(t, 1.11, d, 0.02)
}
