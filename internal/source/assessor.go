package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wayguard/internal/cache"
	"wayguard/internal/domain/safety"
	"wayguard/internal/fallback"
	"wayguard/internal/ratelimit"
)

// Completer is the narrow contract the adapter holds on the language model:
// prompt in, raw text out. Everything else about the model is opaque.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatClient is a Completer over an OpenAI-compatible chat completions API.
type ChatClient struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

// NewChatClient creates a client for the given endpoint and model.
func NewChatClient(baseURL, apiKey, model string, timeout time.Duration) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the first choice's content.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed chatResponse
	if err := decodeJSON(resp, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformed)
	}
	return parsed.Choices[0].Message.Content, nil
}

// assessment is the structured JSON shape the model is asked to produce.
type assessment struct {
	SafetyScore      int               `json:"safetyScore"`
	RiskLevel        string            `json:"riskLevel"`
	ActiveAlerts     []assessmentAlert `json:"activeAlerts"`
	CommonScams      []string          `json:"commonScams"`
	EmergencyNumbers []string          `json:"emergencyNumbers"`
}

type assessmentAlert struct {
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ActionRequired string   `json:"actionRequired"`
	AffectedAreas  []string `json:"affectedAreas"`
	Source         string   `json:"source"`
}

// Assessor is the AI-safety-assessor source adapter.
type Assessor struct {
	client  Completer
	cache   *cache.Cache[safety.Report]
	limiter *ratelimit.Limiter
	log     *logrus.Entry
}

// AssessorName is the source name and rate key of the assessor adapter.
const AssessorName = "assessor"

// NewAssessor creates the adapter with its own cache and rate limiter.
func NewAssessor(client Completer, c *cache.Cache[safety.Report], l *ratelimit.Limiter) *Assessor {
	return &Assessor{
		client:  client,
		cache:   c,
		limiter: l,
		log:     logrus.WithField("source", AssessorName),
	}
}

// Name implements safety.Source.
func (a *Assessor) Name() string { return AssessorName }

// Fetch implements safety.Source. The chain is cached assessment, then a live
// model call within budget, then static generic content.
func (a *Assessor) Fetch(ctx context.Context, loc safety.Location) (safety.Report, error) {
	key, ok := loc.BucketKey()
	if !ok {
		return staticAssessorReport(), nil
	}

	chain := fallback.New(a.log,
		fallback.Strategy[safety.Report]{
			Name: "cache",
			Run: func(context.Context) (safety.Report, error) {
				if r, ok := a.cache.Get(key); ok {
					r.Origin = safety.OriginCache
					return r, nil
				}
				return safety.Report{}, ErrCacheMiss
			},
		},
		fallback.Strategy[safety.Report]{
			Name: "live",
			Run: func(ctx context.Context) (safety.Report, error) {
				return a.assess(ctx, loc, key)
			},
		},
		fallback.Strategy[safety.Report]{
			Name: "static",
			Run: func(context.Context) (safety.Report, error) {
				return staticAssessorReport(), nil
			},
		},
	)

	report, _, err := chain.Execute(ctx)
	return report, err
}

func (a *Assessor) assess(ctx context.Context, loc safety.Location, key string) (safety.Report, error) {
	if !a.limiter.TryAcquire(AssessorName) {
		return safety.Report{}, ErrRateLimited
	}

	raw, err := a.client.Complete(ctx, assessmentPrompt(loc))
	if err != nil {
		a.log.Warnf("live assessment failed: %v", err)
		return safety.Report{}, err
	}

	parsed, err := parseAssessment(raw)
	if err != nil {
		a.log.Warnf("discarding malformed assessment: %v", err)
		return safety.Report{}, err
	}

	report := normalizeAssessment(parsed)
	a.cache.Set(key, report)
	report.Origin = safety.OriginLive
	return report, nil
}

func assessmentPrompt(loc safety.Location) string {
	var b strings.Builder
	b.WriteString("You are a travel safety analyst. Assess the current safety situation for ")
	b.WriteString(loc.QueryString())
	if loc.Coordinates != nil {
		fmt.Fprintf(&b, " (coordinates %.4f, %.4f)", loc.Coordinates.Lat, loc.Coordinates.Lng)
	}
	b.WriteString(`. Respond with a single JSON object and nothing else, using exactly this shape:
{"safetyScore": <0-100>, "riskLevel": "low|medium|high|critical", "activeAlerts": [{"type": "scam|crime|weather|political|health|transport|safety|news", "severity": "low|medium|high|critical", "title": "...", "description": "...", "actionRequired": "...", "affectedAreas": ["..."], "source": "..."}], "commonScams": ["..."], "emergencyNumbers": ["..."]}`)
	return b.String()
}

// parseAssessment extracts and validates the model's JSON. The model may wrap
// the object in prose or a code fence; only the outermost object is read.
// Any structural defect fails the whole response, so no partially valid
// assessment reaches the merge step.
func parseAssessment(raw string) (assessment, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return assessment{}, fmt.Errorf("%w: no JSON object in completion", ErrMalformed)
	}

	var parsed assessment
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return assessment{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.SafetyScore < 0 || parsed.SafetyScore > 100 {
		return assessment{}, fmt.Errorf("%w: safetyScore %d out of range", ErrMalformed, parsed.SafetyScore)
	}
	switch safety.RiskLevel(parsed.RiskLevel) {
	case safety.RiskLow, safety.RiskMedium, safety.RiskHigh, safety.RiskCritical:
	default:
		return assessment{}, fmt.Errorf("%w: unknown riskLevel %q", ErrMalformed, parsed.RiskLevel)
	}
	for _, al := range parsed.ActiveAlerts {
		if strings.TrimSpace(al.Title) == "" {
			return assessment{}, fmt.Errorf("%w: alert without title", ErrMalformed)
		}
		if !validAlertType(al.Type) {
			return assessment{}, fmt.Errorf("%w: unknown alert type %q", ErrMalformed, al.Type)
		}
		if !validSeverity(al.Severity) {
			return assessment{}, fmt.Errorf("%w: unknown severity %q", ErrMalformed, al.Severity)
		}
	}
	return parsed, nil
}

func normalizeAssessment(parsed assessment) safety.Report {
	score := parsed.SafetyScore
	report := safety.Report{
		Source:           AssessorName,
		SafetyScore:      &score,
		CommonScams:      parsed.CommonScams,
		EmergencyNumbers: parsed.EmergencyNumbers,
	}
	for _, al := range parsed.ActiveAlerts {
		src := al.Source
		if src == "" {
			src = AssessorName
		}
		report.Alerts = append(report.Alerts, safety.Alert{
			ID:             uuid.New().String(),
			Type:           safety.AlertType(al.Type),
			Severity:       safety.Severity(al.Severity),
			Title:          al.Title,
			Description:    al.Description,
			ActionRequired: al.ActionRequired,
			AffectedAreas:  al.AffectedAreas,
			Source:         src,
		})
	}
	return report
}

func validAlertType(t string) bool {
	switch safety.AlertType(t) {
	case safety.AlertScam, safety.AlertCrime, safety.AlertWeather, safety.AlertPolitical,
		safety.AlertHealth, safety.AlertTransport, safety.AlertSafety, safety.AlertNews:
		return true
	}
	return false
}

func validSeverity(s string) bool {
	switch safety.Severity(s) {
	case safety.SeverityLow, safety.SeverityMedium, safety.SeverityHigh, safety.SeverityCritical:
		return true
	}
	return false
}
