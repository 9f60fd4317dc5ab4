package safety

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wayguard/internal/domain/safety"
)

// Service is the presentation-facing facade: it joins the aggregator with the
// per-user location tracker and owns the background refreshes triggered by
// significant movement.
type Service struct {
	aggregator      safety.Aggregator
	tracker         safety.Tracker
	moveThresholdKm float64
	refreshTimeout  time.Duration
	log             *logrus.Entry
	wg              sync.WaitGroup
}

// NewService creates the facade.
func NewService(aggregator safety.Aggregator, tracker safety.Tracker, moveThresholdKm float64) *Service {
	return &Service{
		aggregator:      aggregator,
		tracker:         tracker,
		moveThresholdKm: moveThresholdKm,
		refreshTimeout:  30 * time.Second,
		log:             logrus.WithField("component", "safety-service"),
	}
}

// Aggregate returns the safety document for a location.
func (s *Service) Aggregate(ctx context.Context, loc safety.Location) safety.Document {
	return s.aggregator.Aggregate(ctx, loc)
}

// UpdateUserLocation records the user's location. When the user has moved
// significantly (or reports for the first time) a background refresh is
// dispatched for the new bucket so the next read is warm. The dispatch is
// tracked: errors surface in the log and Close drains in-flight refreshes.
func (s *Service) UpdateUserLocation(userID string, loc safety.Location) {
	moved := s.tracker.HasMovedSignificantly(userID, loc, s.moveThresholdKm)
	s.tracker.UpdateLocation(userID, loc)

	if !moved {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()

		doc := s.aggregator.Aggregate(ctx, loc)
		s.log.Debugf("background refresh for user %s: %s scored %d", userID, doc.Location, doc.SafetyScore)
	}()
}

// ClearUserLocation removes the user's record (e.g. on logout).
func (s *Service) ClearUserLocation(userID string) {
	s.tracker.ClearLocation(userID)
}

// UserLocationAlerts returns the active alerts for the user's last known
// location, or an empty list when none is known.
func (s *Service) UserLocationAlerts(ctx context.Context, userID string) []safety.Alert {
	loc, ok := s.tracker.GetLocation(userID)
	if !ok {
		return []safety.Alert{}
	}
	return s.aggregator.Aggregate(ctx, loc).ActiveAlerts
}

// UserSafetyScore returns the score, risk level and band summary for the
// user's last known location. An unknown location degrades to the generic
// default document; the contract stays total.
func (s *Service) UserSafetyScore(ctx context.Context, userID string) safety.ScoreSummary {
	loc, _ := s.tracker.GetLocation(userID)
	doc := s.aggregator.Aggregate(ctx, loc)
	return safety.ScoreSummary{
		Score:     doc.SafetyScore,
		RiskLevel: doc.RiskLevel,
		Summary:   summaryFor(doc.RiskLevel),
	}
}

// Close waits for in-flight background refreshes to finish.
func (s *Service) Close() {
	s.wg.Wait()
}
