package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wayguard/internal/domain/safety"
)

// SynthesizedName is the per-alert source token for model-generated
// substitute content. Alerts keep it after the merge step flattens reports,
// so consumers can still label generated advisories individually.
const SynthesizedName = "synthesized"

// Synthesizer authors substitute alert content with the language model when a
// live source is down or out of budget. Its output is always marked
// synthesized so downstream consumers can label it as generated rather than
// sourced.
type Synthesizer struct {
	client Completer
	log    *logrus.Entry
}

// NewSynthesizer wraps a Completer for substitute-content generation.
func NewSynthesizer(client Completer) *Synthesizer {
	return &Synthesizer{client: client, log: logrus.WithField("source", "synthesizer")}
}

// SynthesizeAlerts asks the model for up to max plausible advisory alerts of
// the given type for the location. Malformed output fails the call; the
// caller's chain then proceeds to its static strategy.
func (s *Synthesizer) SynthesizeAlerts(ctx context.Context, loc safety.Location, kind safety.AlertType, max int) ([]safety.Alert, error) {
	prompt := fmt.Sprintf(
		`You are a travel safety analyst. Write up to %d current %s advisories a traveller in %s should know about. Respond with a single JSON array and nothing else, each element shaped as {"severity": "low|medium|high|critical", "title": "...", "description": "...", "actionRequired": "..."}.`,
		max, kind, loc.QueryString(),
	)

	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in completion", ErrMalformed)
	}

	var items []struct {
		Severity       string `json:"severity"`
		Title          string `json:"title"`
		Description    string `json:"description"`
		ActionRequired string `json:"actionRequired"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var alerts []safety.Alert
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" || !validSeverity(it.Severity) {
			return nil, fmt.Errorf("%w: invalid synthesized alert", ErrMalformed)
		}
		alerts = append(alerts, safety.Alert{
			ID:             uuid.New().String(),
			Type:           kind,
			Severity:       safety.Severity(it.Severity),
			Title:          it.Title,
			Description:    it.Description,
			ActionRequired: it.ActionRequired,
			Source:         SynthesizedName,
		})
	}
	return alerts, nil
}
