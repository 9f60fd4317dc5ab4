package safety

import (
	"context"
)

// Source wraps one upstream capability. Fetch never panics and never lets an
// upstream error escape uncontrolled: implementations run an internal
// fallback chain whose terminal strategy is static content, so the returned
// error is nil by construction unless the context is cancelled.
type Source interface {
	// Name returns the source name used for attribution and rate keys.
	Name() string

	// Fetch returns the source's normalized contribution for a location.
	// A location with no bucketable context gets static content without
	// any upstream call.
	Fetch(ctx context.Context, loc Location) (Report, error)
}

// Aggregator produces the merged safety picture for a location.
type Aggregator interface {
	// Aggregate returns a structurally valid document for the location.
	// It never fails: missing context or total upstream failure degrade to
	// default documents.
	Aggregate(ctx context.Context, loc Location) Document
}

// Tracker keeps each user's last known location.
type Tracker interface {
	// UpdateLocation overwrites the user's record with the current time.
	UpdateLocation(userID string, loc Location)

	// GetLocation returns the location if the record is within its TTL.
	GetLocation(userID string) (Location, bool)

	// ClearLocation removes the user's record.
	ClearLocation(userID string)

	// HasMovedSignificantly reports whether the new location is farther than
	// thresholdKm from the last known one. No prior record counts as moved.
	HasMovedSignificantly(userID string, loc Location, thresholdKm float64) bool
}
