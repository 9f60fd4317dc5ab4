package source

import (
	"context"
	"fmt"
	"hash/fnv"
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

// NewsName is the source name and rate key of the news adapter.
const NewsName = "news"

// newsResponse is the upstream search result shape.
type newsResponse struct {
	TotalArticles int       `json:"totalArticles"`
	Articles      []article `json:"articles"`
}

type article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

// News is the news-search source adapter. The upstream returns untyped
// articles; category and severity are derived client-side by keyword
// classification.
type News struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	cache   *cache.Cache[safety.Report]
	limiter *ratelimit.Limiter
	synth   *Synthesizer
	log     *logrus.Entry
}

// NewNews creates the adapter. synth may be nil, in which case the chain goes
// straight from a failed live call to static content.
func NewNews(baseURL, apiKey string, timeout time.Duration, c *cache.Cache[safety.Report], l *ratelimit.Limiter, synth *Synthesizer) *News {
	return &News{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
		cache:   c,
		limiter: l,
		synth:   synth,
		log:     logrus.WithField("source", NewsName),
	}
}

// Name implements safety.Source.
func (n *News) Name() string { return NewsName }

// Fetch implements safety.Source: fresh cache, then a live search within
// budget, then synthesized substitute advisories, then static content.
func (n *News) Fetch(ctx context.Context, loc safety.Location) (safety.Report, error) {
	// A location without context would collapse onto a single shared cache
	// and rate key; there is nothing to search for, so answer statically.
	key, ok := loc.BucketKey()
	if !ok {
		return staticNewsReport(), nil
	}

	strategies := []fallback.Strategy[safety.Report]{
		{
			Name: "cache",
			Run: func(context.Context) (safety.Report, error) {
				if r, ok := n.cache.Get(key); ok {
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
				return n.search(ctx, loc, key)
			},
			Accept: hasAlerts,
		},
	}
	if n.synth != nil {
		strategies = append(strategies, fallback.Strategy[safety.Report]{
			Name: "synthesized",
			Run: func(ctx context.Context) (safety.Report, error) {
				alerts, err := n.synth.SynthesizeAlerts(ctx, loc, safety.AlertNews, 3)
				if err != nil {
					return safety.Report{}, err
				}
				return safety.Report{Source: NewsName, Origin: safety.OriginSynthesized, Alerts: alerts}, nil
			},
		})
	}
	strategies = append(strategies, fallback.Strategy[safety.Report]{
		Name: "static",
		Run: func(context.Context) (safety.Report, error) {
			return staticNewsReport(), nil
		},
	})

	report, _, err := fallback.New(n.log, strategies...).Execute(ctx)
	return report, err
}

func (n *News) search(ctx context.Context, loc safety.Location, key string) (safety.Report, error) {
	if !n.limiter.TryAcquire(NewsName) {
		return safety.Report{}, ErrRateLimited
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s safety OR scam OR crime OR warning", loc.QueryString()))
	q.Set("max", "10")
	q.Set("lang", "en")
	q.Set("apikey", n.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return safety.Report{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := n.httpc.Do(req)
	if err != nil {
		n.log.Warnf("live search failed: %v", err)
		return safety.Report{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed newsResponse
	if err := decodeJSON(resp, &parsed); err != nil {
		n.log.Warnf("discarding news response: %v", err)
		return safety.Report{}, err
	}

	report := safety.Report{Source: NewsName}
	for _, art := range parsed.Articles {
		if strings.TrimSpace(art.Title) == "" {
			continue
		}
		report.Alerts = append(report.Alerts, normalizeArticle(art))
	}

	// An empty match set is not worth a cache slot: it would pin "nothing
	// happened" for the TTL while the chain falls back anyway.
	if len(report.Alerts) > 0 {
		n.cache.Set(key, report)
	}
	report.Origin = safety.OriginLive
	return report, nil
}

// normalizeArticle reduces an article to the shared alert shape. The ID is a
// hash of the article URL so the same story keeps the same identity across
// refreshes and deduplicates in the merge step.
func normalizeArticle(art article) safety.Alert {
	kind, severity := classifyArticle(art.Title, art.Description)

	id := "news-" + uuid.New().String()
	if art.URL != "" {
		h := fnv.New64a()
		h.Write([]byte(art.URL))
		id = fmt.Sprintf("news-%x", h.Sum64())
	}

	src := art.Source.Name
	if src == "" {
		src = NewsName
	}

	var validUntil *time.Time
	if published, err := time.Parse(time.RFC3339, art.PublishedAt); err == nil {
		expiry := published.Add(72 * time.Hour)
		validUntil = &expiry
	}

	return safety.Alert{
		ID:          id,
		Type:        kind,
		Severity:    severity,
		Title:       art.Title,
		Description: art.Description,
		Source:      src,
		ValidUntil:  validUntil,
	}
}

var categoryKeywords = []struct {
	kind     safety.AlertType
	keywords []string
}{
	{safety.AlertScam, []string{"scam", "fraud", "phishing", "con artist", "swindle"}},
	{safety.AlertCrime, []string{"crime", "robbery", "theft", "assault", "shooting", "stabbing", "burglary", "kidnap"}},
	{safety.AlertWeather, []string{"storm", "hurricane", "typhoon", "flood", "earthquake", "wildfire", "heatwave", "blizzard", "weather"}},
	{safety.AlertPolitical, []string{"protest", "riot", "unrest", "election violence", "coup", "demonstration"}},
	{safety.AlertHealth, []string{"outbreak", "epidemic", "pandemic", "virus", "disease", "contamination"}},
	{safety.AlertTransport, []string{"strike", "rail disruption", "flight cancel", "road closure", "transit", "derail"}},
	{safety.AlertSafety, []string{"travel advisory", "travel warning", "tourist", "safety alert", "curfew"}},
}

var severityKeywords = []struct {
	severity safety.Severity
	keywords []string
}{
	{safety.SeverityCritical, []string{"evacuate", "evacuation", "state of emergency", "catastrophic", "deadly", "fatal"}},
	{safety.SeverityHigh, []string{"urgent", "breaking", "emergency", "severe", "attack", "major"}},
	{safety.SeverityMedium, []string{"warning", "alert", "caution", "advisory", "disruption"}},
}

// classifyArticle derives an alert type and severity from article text. The
// upstream carries no taxonomy, so this keyword pass is the adapter's own
// normalization responsibility.
func classifyArticle(title, description string) (safety.AlertType, safety.Severity) {
	text := strings.ToLower(title + " " + description)

	kind := safety.AlertNews
	for _, c := range categoryKeywords {
		if containsAny(text, c.keywords) {
			kind = c.kind
			break
		}
	}

	severity := safety.SeverityLow
	for _, s := range severityKeywords {
		if containsAny(text, s.keywords) {
			severity = s.severity
			break
		}
	}

	return kind, severity
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
