package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wayguard/internal/cache"
	"wayguard/internal/domain/safety"
	"wayguard/internal/fallback"
	"wayguard/internal/ratelimit"
)

// ScamWatchName is the source name and rate key of the scam/news aggregator
// adapter.
const ScamWatchName = "scamwatch"

// scamWatchResponse is the upstream shape: location-scoped records that
// already carry partial structure (severity, areas, recommendations).
type scamWatchResponse struct {
	Alerts []scamWatchAlert `json:"alerts"`
}

type scamWatchAlert struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	AffectedAreas  []string `json:"affected_areas"`
	ValidUntil     string   `json:"valid_until"`
}

// ScamWatch is the scam/news aggregator source adapter.
type ScamWatch struct {
	baseURL string
	httpc   *http.Client
	cache   *cache.Cache[safety.Report]
	limiter *ratelimit.Limiter
	synth   *Synthesizer
	log     *logrus.Entry
}

// NewScamWatch creates the adapter. synth may be nil.
func NewScamWatch(baseURL string, timeout time.Duration, c *cache.Cache[safety.Report], l *ratelimit.Limiter, synth *Synthesizer) *ScamWatch {
	return &ScamWatch{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		cache:   c,
		limiter: l,
		synth:   synth,
		log:     logrus.WithField("source", ScamWatchName),
	}
}

// Name implements safety.Source.
func (s *ScamWatch) Name() string { return ScamWatchName }

// Fetch implements safety.Source with the same degradation order as the news
// adapter.
func (s *ScamWatch) Fetch(ctx context.Context, loc safety.Location) (safety.Report, error) {
	key, ok := loc.BucketKey()
	if !ok {
		return staticScamReport(), nil
	}

	strategies := []fallback.Strategy[safety.Report]{
		{
			Name: "cache",
			Run: func(context.Context) (safety.Report, error) {
				if r, ok := s.cache.Get(key); ok {
					r.Origin = safety.OriginCache
					return r, nil
				}
				return safety.Report{}, ErrCacheMiss
			},
			Accept: hasAlerts,
		},
		{
			Name: "live",
			Run: func(ctx context.Context) (safety.Report, error) {
				return s.query(ctx, loc, key)
			},
			Accept: hasAlerts,
		},
	}
	if s.synth != nil {
		strategies = append(strategies, fallback.Strategy[safety.Report]{
			Name: "synthesized",
			Run: func(ctx context.Context) (safety.Report, error) {
				alerts, err := s.synth.SynthesizeAlerts(ctx, loc, safety.AlertScam, 3)
				if err != nil {
					return safety.Report{}, err
				}
				return safety.Report{Source: ScamWatchName, Origin: safety.OriginSynthesized, Alerts: alerts}, nil
			},
		})
	}
	strategies = append(strategies, fallback.Strategy[safety.Report]{
		Name: "static",
		Run: func(context.Context) (safety.Report, error) {
			return staticScamReport(), nil
		},
	})

	report, _, err := fallback.New(s.log, strategies...).Execute(ctx)
	return report, err
}

func (s *ScamWatch) query(ctx context.Context, loc safety.Location, key string) (safety.Report, error) {
	if !s.limiter.TryAcquire(ScamWatchName) {
		return safety.Report{}, ErrRateLimited
	}

	q := url.Values{}
	q.Set("location", loc.QueryString())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/alerts?"+q.Encode(), nil)
	if err != nil {
		return safety.Report{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		s.log.Warnf("live query failed: %v", err)
		return safety.Report{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed scamWatchResponse
	if err := decodeJSON(resp, &parsed); err != nil {
		s.log.Warnf("discarding scamwatch response: %v", err)
		return safety.Report{}, err
	}

	report := safety.Report{Source: ScamWatchName}
	for _, rec := range parsed.Alerts {
		alert, err := normalizeScamRecord(rec)
		if err != nil {
			// One bad record poisons the response: fail closed rather
			// than let a partially valid record into the merge step.
			s.log.Warnf("discarding scamwatch response: %v", err)
			return safety.Report{}, err
		}
		report.Alerts = append(report.Alerts, alert)
	}

	if len(report.Alerts) > 0 {
		s.cache.Set(key, report)
	}
	report.Origin = safety.OriginLive
	return report, nil
}

func normalizeScamRecord(rec scamWatchAlert) (safety.Alert, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return safety.Alert{}, fmt.Errorf("%w: record without title", ErrMalformed)
	}
	if !validSeverity(rec.Severity) {
		return safety.Alert{}, fmt.Errorf("%w: unknown severity %q", ErrMalformed, rec.Severity)
	}

	kind := safety.AlertScam
	if validAlertType(rec.Type) {
		kind = safety.AlertType(rec.Type)
	}

	id := rec.ID
	if id == "" {
		id = "scamwatch-" + uuid.New().String()
	}

	var validUntil *time.Time
	if until, err := time.Parse(time.RFC3339, rec.ValidUntil); err == nil {
		validUntil = &until
	}

	return safety.Alert{
		ID:             id,
		Type:           kind,
		Severity:       safety.Severity(rec.Severity),
		Title:          rec.Title,
		Description:    rec.Description,
		ActionRequired: rec.Recommendation,
		AffectedAreas:  rec.AffectedAreas,
		Source:         ScamWatchName,
		ValidUntil:     validUntil,
	}, nil
}
