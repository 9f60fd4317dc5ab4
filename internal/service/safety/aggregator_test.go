package safety

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayguard/internal/cache"
	"wayguard/internal/domain/safety"
	"wayguard/internal/source"
)

// stubSource returns a fixed report and counts upstream invocations.
type stubSource struct {
	name   string
	report safety.Report
	calls  int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, loc safety.Location) (safety.Report, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.report, nil
}

func (s *stubSource) callCount() int { return int(atomic.LoadInt32(&s.calls)) }

func liveAssessor(score int, alerts ...safety.Alert) *stubSource {
	return &stubSource{name: source.AssessorName, report: safety.Report{
		Source:           source.AssessorName,
		Origin:           safety.OriginLive,
		SafetyScore:      &score,
		Alerts:           alerts,
		CommonScams:      []string{"Taxi overcharging"},
		EmergencyNumbers: []string{"110", "119"},
	}}
}

func liveSource(name string, alerts ...safety.Alert) *stubSource {
	return &stubSource{name: name, report: safety.Report{
		Source: name,
		Origin: safety.OriginLive,
		Alerts: alerts,
	}}
}

func staticSource(name string) *stubSource {
	return &stubSource{name: name, report: safety.Report{
		Source: name,
		Origin: safety.OriginStatic,
		Alerts: []safety.Alert{{ID: name + "-static", Type: safety.AlertSafety, Severity: safety.SeverityLow, Title: "generic"}},
	}}
}

func newAggregator(sources ...safety.Source) *SafetyAggregator {
	return NewAggregator(sources, cache.New[safety.Document](5*time.Minute, 50), nil, "safety.updated")
}

func tokyo() safety.Location {
	return safety.Location{
		Coordinates: &safety.Coordinates{Lat: 35.6762, Lng: 139.6503},
		City:        "Tokyo",
		Country:     "Japan",
	}
}

func TestAggregate_CleanAssessmentKeepsAIScore(t *testing.T) {
	agg := newAggregator(liveAssessor(88))

	doc := agg.Aggregate(context.Background(), tokyo())

	assert.Equal(t, 88, doc.SafetyScore)
	assert.Equal(t, safety.RiskLow, doc.RiskLevel)
	assert.Equal(t, "Tokyo, Japan", doc.Location)
	assert.Equal(t, []string{"110", "119"}, doc.EmergencyNumbers)
	assert.False(t, doc.Synthesized)
}

func TestAggregate_ScamAndCrimeAlertsDeduct(t *testing.T) {
	scams := liveSource(source.ScamWatchName,
		safety.Alert{ID: "s1", Type: safety.AlertScam, Severity: safety.SeverityHigh, Title: "Fake taxi meters"},
		safety.Alert{ID: "s2", Type: safety.AlertScam, Severity: safety.SeverityMedium, Title: "Bar tab scam"},
	)
	news := liveSource(source.NewsName,
		safety.Alert{ID: "n1", Type: safety.AlertCrime, Severity: safety.SeverityMedium, Title: "Robbery spree"},
	)

	agg := newAggregator(liveAssessor(88), news, scams)
	doc := agg.Aggregate(context.Background(), tokyo())

	assert.Equal(t, 48, doc.SafetyScore, "88 - 2*15 - 10")
	assert.Equal(t, safety.RiskHigh, doc.RiskLevel)
	assert.Len(t, doc.ActiveAlerts, 3)
	assert.Contains(t, doc.CommonScams, "Fake taxi meters")
	assert.Contains(t, doc.CommonScams, "Bar tab scam")
}

func TestAggregate_CacheIdempotence(t *testing.T) {
	assessor := liveAssessor(88)
	agg := newAggregator(assessor)

	first := agg.Aggregate(context.Background(), tokyo())
	second := agg.Aggregate(context.Background(), tokyo())

	assert.Equal(t, first.LastUpdated, second.LastUpdated, "second call must be a pure cache hit")
	assert.Equal(t, 1, assessor.callCount(), "cache hit must trigger zero upstream calls")
}

func TestAggregate_BucketRounding(t *testing.T) {
	assessor := liveAssessor(88)
	agg := newAggregator(assessor)

	a := agg.Aggregate(context.Background(), safety.Location{Coordinates: &safety.Coordinates{Lat: 48.8566, Lng: 2.3522}, Country: "France"})
	b := agg.Aggregate(context.Background(), safety.Location{Coordinates: &safety.Coordinates{Lat: 48.8571, Lng: 2.3519}, Country: "France"})

	assert.Equal(t, a.LastUpdated, b.LastUpdated, "nearby coordinates must share a bucket")
	assert.Equal(t, 1, assessor.callCount())
}

func TestAggregate_AllSourcesStaticServesDefault(t *testing.T) {
	agg := newAggregator(
		staticSource(source.AssessorName),
		staticSource(source.NewsName),
		staticSource(source.ScamWatchName),
	)

	doc := agg.Aggregate(context.Background(), tokyo())

	assert.Equal(t, 75, doc.SafetyScore)
	assert.Equal(t, safety.RiskMedium, doc.RiskLevel)
	assert.NotEmpty(t, doc.CommonScams)
	assert.NotEmpty(t, doc.EmergencyNumbers)
	assert.True(t, doc.Synthesized)
}

func TestAggregate_NoLocationContextServesDefaultWithoutUpstreamCalls(t *testing.T) {
	assessor := liveAssessor(88)
	agg := newAggregator(assessor)

	doc := agg.Aggregate(context.Background(), safety.Location{})

	assert.Equal(t, 75, doc.SafetyScore)
	assert.Equal(t, safety.RiskMedium, doc.RiskLevel)
	assert.NotEmpty(t, doc.EmergencyNumbers)
	assert.Equal(t, 0, assessor.callCount(), "no cache key means no upstream calls")
}

func TestAggregate_DuplicateAlertIDsLastWriteWins(t *testing.T) {
	first := liveSource(source.NewsName,
		safety.Alert{ID: "dup", Type: safety.AlertNews, Severity: safety.SeverityLow, Title: "early version"},
		safety.Alert{ID: "other", Type: safety.AlertNews, Severity: safety.SeverityLow, Title: "other"},
	)
	second := liveSource(source.ScamWatchName,
		safety.Alert{ID: "dup", Type: safety.AlertNews, Severity: safety.SeverityLow, Title: "late version"},
	)

	agg := newAggregator(first, second)
	doc := agg.Aggregate(context.Background(), tokyo())

	require.Len(t, doc.ActiveAlerts, 2)
	assert.Equal(t, "late version", doc.ActiveAlerts[0].Title, "last write wins in place")
	assert.Equal(t, "other", doc.ActiveAlerts[1].Title)
}

func TestAggregate_MissingEmergencyNumbersFallBack(t *testing.T) {
	news := liveSource(source.NewsName,
		safety.Alert{ID: "n1", Type: safety.AlertNews, Severity: safety.SeverityLow, Title: "quiet day"},
	)

	agg := newAggregator(news)
	doc := agg.Aggregate(context.Background(), tokyo())

	assert.Equal(t, source.StaticEmergencyNumbers, doc.EmergencyNumbers)
	assert.Equal(t, 80, doc.SafetyScore, "no assessor score means the fixed baseline")
}

func TestAggregate_ScoreAlwaysInRange(t *testing.T) {
	var alerts []safety.Alert
	for i := 0; i < 12; i++ {
		alerts = append(alerts, safety.Alert{
			ID: string(rune('a' + i)), Type: safety.AlertScam,
			Severity: safety.SeverityHigh, Title: "scam",
		})
	}

	agg := newAggregator(liveAssessor(30), liveSource(source.ScamWatchName, alerts...))
	doc := agg.Aggregate(context.Background(), tokyo())

	assert.GreaterOrEqual(t, doc.SafetyScore, 0)
	assert.LessOrEqual(t, doc.SafetyScore, 100)
	assert.Equal(t, safety.RiskCritical, doc.RiskLevel)
}

func TestSubjectForBucket_SanitizesTokens(t *testing.T) {
	assert.Equal(t, "safety.updated.48_86_2_35", SubjectForBucket("safety.updated", "48.86,2.35"))
	assert.Equal(t, "safety.updated.tokyo_japan", SubjectForBucket("safety.updated", "tokyo,japan"))
}
