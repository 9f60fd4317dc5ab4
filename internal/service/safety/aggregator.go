package safety

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"wayguard/internal/cache"
	"wayguard/internal/domain/safety"
	"wayguard/internal/source"
)

// SafetyAggregator merges the sources' normalized reports into one scored
// document per location bucket. Its contract is total: it always returns a
// structurally valid document, degrading to generic default data when the
// location has no usable context or every source fell through to static
// content.
type SafetyAggregator struct {
	sources       []safety.Source
	docs          *cache.Cache[safety.Document]
	events        *nats.Conn
	subjectPrefix string
	log           *logrus.Entry

	now func() time.Time
}

// NewAggregator creates an aggregator over the given sources and document
// cache. events may be nil; publishing is then skipped entirely.
func NewAggregator(sources []safety.Source, docs *cache.Cache[safety.Document], events *nats.Conn, subjectPrefix string) *SafetyAggregator {
	if subjectPrefix == "" {
		subjectPrefix = "safety.updated"
	}
	return &SafetyAggregator{
		sources:       sources,
		docs:          docs,
		events:        events,
		subjectPrefix: subjectPrefix,
		log:           logrus.WithField("component", "aggregator"),
		now:           time.Now,
	}
}

// Aggregate implements safety.Aggregator.
func (a *SafetyAggregator) Aggregate(ctx context.Context, loc safety.Location) safety.Document {
	key, ok := loc.BucketKey()
	if !ok {
		// Not an error: with neither coordinates nor a place string there is
		// no cache key and no location-specific query to make.
		return a.defaultDocument(loc)
	}

	if doc, hit := a.docs.Get(key); hit {
		return doc
	}

	reports := a.collect(ctx, loc)
	doc := a.merge(loc, reports)

	a.docs.Set(key, doc)
	a.publish(key, doc)
	return doc
}

// collect fans out to all sources concurrently and waits for every one to
// settle. A failing source contributes nothing; it cannot block or poison
// the others.
func (a *SafetyAggregator) collect(ctx context.Context, loc safety.Location) []safety.Report {
	results := make(map[string]safety.Report, len(a.sources))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, src := range a.sources {
		wg.Add(1)
		go func(s safety.Source) {
			defer wg.Done()

			report, err := s.Fetch(ctx, loc)
			if err != nil {
				a.log.Warnf("source %s yielded nothing: %v", s.Name(), err)
				return
			}
			mu.Lock()
			results[s.Name()] = report
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	// Declared source order keeps the merged alert order deterministic.
	reports := make([]safety.Report, 0, len(results))
	for _, src := range a.sources {
		if r, ok := results[src.Name()]; ok {
			reports = append(reports, r)
		}
	}
	return reports
}

func (a *SafetyAggregator) merge(loc safety.Location, reports []safety.Report) safety.Document {
	anySourced := false
	for _, r := range reports {
		if r.Sourced() {
			anySourced = true
			break
		}
	}
	if !anySourced {
		// Every source degraded to fabricated content; serve the static
		// default document rather than scoring fabricated alerts.
		return a.defaultDocument(loc)
	}

	var merged []scoredAlert
	index := make(map[string]int)
	var scams []string
	var emergency []string
	base := baselineScore
	synthesizedOnly := true

	for _, r := range reports {
		if r.Sourced() {
			synthesizedOnly = false
		}
		for _, alert := range r.Alerts {
			sa := scoredAlert{alert: alert, sourced: r.Sourced()}
			if i, dup := index[alert.ID]; dup {
				merged[i] = sa
				continue
			}
			index[alert.ID] = len(merged)
			merged = append(merged, sa)
		}
		if r.Source == source.AssessorName {
			if r.Sourced() && r.SafetyScore != nil {
				base = *r.SafetyScore
			}
			scams = append(scams, r.CommonScams...)
			if len(r.EmergencyNumbers) > 0 {
				emergency = r.EmergencyNumbers
			}
		}
	}

	alerts := make([]safety.Alert, 0, len(merged))
	for _, sa := range merged {
		alerts = append(alerts, sa.alert)
		if sa.alert.Type == safety.AlertScam {
			scams = append(scams, sa.alert.Title)
		}
	}

	if len(emergency) == 0 {
		emergency = source.StaticEmergencyNumbers
	}

	score, newsDriven := deriveScore(base, merged)

	return safety.Document{
		Location:         loc.DisplayName(),
		Country:          loc.Country,
		Coordinates:      loc.Coordinates,
		SafetyScore:      score,
		RiskLevel:        riskFor(score, newsDriven),
		ActiveAlerts:     alerts,
		CommonScams:      dedupeStrings(scams),
		EmergencyNumbers: emergency,
		LastUpdated:      a.now(),
		Synthesized:      synthesizedOnly,
	}
}

// defaultDocument is the terminal degradation path: generic advice, score 75,
// medium risk.
func (a *SafetyAggregator) defaultDocument(loc safety.Location) safety.Document {
	return safety.Document{
		Location:    loc.DisplayName(),
		Country:     loc.Country,
		Coordinates: loc.Coordinates,
		SafetyScore: defaultScore,
		RiskLevel:   riskFor(defaultScore, false),
		ActiveAlerts: []safety.Alert{
			{
				ID:             "default-advisory",
				Type:           safety.AlertSafety,
				Severity:       safety.SeverityLow,
				Title:          "General travel precautions",
				Description:    "Location-specific safety data is unavailable. Exercise the usual precautions.",
				ActionRequired: "Check official travel advisories for your destination.",
				Source:         "default",
			},
		},
		CommonScams:      source.StaticCommonScams,
		EmergencyNumbers: source.StaticEmergencyNumbers,
		LastUpdated:      a.now(),
		Synthesized:      true,
	}
}

// publish announces a refreshed document on the event bus. Failures are
// logged and swallowed; the bus is an outer surface, never a dependency of
// the aggregation contract.
func (a *SafetyAggregator) publish(bucket string, doc safety.Document) {
	if a.events == nil {
		return
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		a.log.Errorf("marshaling document for bucket %s: %v", bucket, err)
		return
	}
	if err := a.events.Publish(SubjectForBucket(a.subjectPrefix, bucket), payload); err != nil {
		a.log.Errorf("publishing document for bucket %s: %v", bucket, err)
	}
}

// SubjectForBucket maps a cache bucket to a NATS subject token.
func SubjectForBucket(prefix, bucket string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, bucket)
	return prefix + "." + token
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
