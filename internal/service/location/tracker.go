// Package location tracks each user's last known location in process memory
// and detects significant movement.
package location

import (
	"math"
	"sync"
	"time"

	"wayguard/internal/domain/safety"
)

// earthRadiusKm is the Haversine Earth radius. Fixed at 6371 for parity with
// the distance figures in the movement tests.
const earthRadiusKm = 6371.0

type record struct {
	location safety.Location
	storedAt time.Time
}

// Tracker implements safety.Tracker over a mutex-guarded map. Records expire
// after the TTL and are evicted on read.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]record
	ttl     time.Duration

	now func() time.Time
}

// NewTracker creates a tracker whose records live for ttl.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		records: make(map[string]record),
		ttl:     ttl,
		now:     time.Now,
	}
}

// UpdateLocation overwrites the user's record with the current time.
func (t *Tracker) UpdateLocation(userID string, loc safety.Location) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[userID] = record{location: loc, storedAt: t.now()}
}

// GetLocation returns the user's location while the record is fresh. A stale
// record is evicted and reported absent.
func (t *Tracker) GetLocation(userID string) (safety.Location, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[userID]
	if !ok {
		return safety.Location{}, false
	}
	if t.now().Sub(r.storedAt) > t.ttl {
		delete(t.records, userID)
		return safety.Location{}, false
	}
	return r.location, true
}

// ClearLocation removes the user's record.
func (t *Tracker) ClearLocation(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, userID)
}

// HasMovedSignificantly reports whether loc is farther than thresholdKm from
// the user's last known location. With no prior record, or when either side
// lacks coordinates, the location counts as new.
func (t *Tracker) HasMovedSignificantly(userID string, loc safety.Location, thresholdKm float64) bool {
	last, ok := t.GetLocation(userID)
	if !ok {
		return true
	}
	if last.Coordinates == nil || loc.Coordinates == nil {
		return true
	}
	return DistanceKm(*last.Coordinates, *loc.Coordinates) > thresholdKm
}

// DistanceKm returns the Haversine great-circle distance between two points.
func DistanceKm(a, b safety.Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
