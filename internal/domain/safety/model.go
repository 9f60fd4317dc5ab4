package safety

import (
	"fmt"
	"strings"
	"time"
)

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location identifies a place a user may be in. Coordinates are optional;
// a location with neither coordinates nor a city/country string cannot be
// bucketed and is served generic default data.
type Location struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	City        string       `json:"city,omitempty"`
	Country     string       `json:"country,omitempty"`
	Region      string       `json:"region,omitempty"`
}

// BucketKey returns the cache bucket this location falls into. Coordinates
// are rounded to 2 decimal places (~1.1 km grid cell) so nearby users share
// a bucket; without coordinates the normalized "city,country" string is used.
// The second return is false when the location carries no usable context.
func (l Location) BucketKey() (string, bool) {
	if l.Coordinates != nil {
		return fmt.Sprintf("%.2f,%.2f", l.Coordinates.Lat, l.Coordinates.Lng), true
	}
	city := strings.ToLower(strings.TrimSpace(l.City))
	country := strings.ToLower(strings.TrimSpace(l.Country))
	if city == "" && country == "" {
		return "", false
	}
	return city + "," + country, true
}

// DisplayName returns the human-readable place name for a document.
func (l Location) DisplayName() string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.City != "":
		return l.City
	case l.Country != "":
		return l.Country
	default:
		return "Unknown location"
	}
}

// QueryString returns the free-text form of the location used in upstream
// search queries.
func (l Location) QueryString() string {
	if name := strings.TrimSpace(strings.Trim(l.DisplayName(), ",")); name != "Unknown location" {
		return name
	}
	if l.Coordinates != nil {
		return fmt.Sprintf("%.4f,%.4f", l.Coordinates.Lat, l.Coordinates.Lng)
	}
	return ""
}

// AlertType categorizes an alert.
type AlertType string

const (
	AlertScam      AlertType = "scam"
	AlertCrime     AlertType = "crime"
	AlertWeather   AlertType = "weather"
	AlertPolitical AlertType = "political"
	AlertHealth    AlertType = "health"
	AlertTransport AlertType = "transport"
	AlertSafety    AlertType = "safety"
	AlertNews      AlertType = "news"
)

// Severity grades how serious an alert is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskLevel is the banded risk classification of a SafetyDocument.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskElevated RiskLevel = "elevated"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Alert is the normalized shape every upstream record is reduced to.
// Immutable once constructed.
type Alert struct {
	ID             string     `json:"id"`
	Type           AlertType  `json:"type"`
	Severity       Severity   `json:"severity"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ActionRequired string     `json:"actionRequired,omitempty"`
	AffectedAreas  []string   `json:"affectedAreas,omitempty"`
	Source         string     `json:"source"`
	ValidUntil     *time.Time `json:"validUntil,omitempty"`
}

// Document is the merged, scored safety picture for one location bucket.
// It is cached and replaced wholesale on refresh, never partially mutated.
type Document struct {
	Location         string       `json:"location"`
	Country          string       `json:"country"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	SafetyScore      int          `json:"safetyScore"`
	RiskLevel        RiskLevel    `json:"riskLevel"`
	ActiveAlerts     []Alert      `json:"activeAlerts"`
	CommonScams      []string     `json:"commonScams"`
	EmergencyNumbers []string     `json:"emergencyNumbers"`
	LastUpdated      time.Time    `json:"lastUpdated"`
	Synthesized      bool         `json:"synthesized,omitempty"`
}

// Origin says which fallback strategy produced a report.
type Origin string

const (
	OriginCache       Origin = "cache"
	OriginLive        Origin = "live"
	OriginSynthesized Origin = "synthesized"
	OriginStatic      Origin = "static"
)

// Report is a single source's normalized contribution to a document.
// Only the assessor populates SafetyScore, CommonScams and EmergencyNumbers.
type Report struct {
	Source           string
	Origin           Origin
	Alerts           []Alert
	SafetyScore      *int
	CommonScams      []string
	EmergencyNumbers []string
}

// Sourced reports carry real upstream data; synthesized and static reports
// are locally fabricated stand-ins.
func (r Report) Sourced() bool {
	return r.Origin == OriginCache || r.Origin == OriginLive
}

// ScoreSummary is the presentation-facing per-user safety readout.
type ScoreSummary struct {
	Score     int       `json:"score"`
	RiskLevel RiskLevel `json:"riskLevel"`
	Summary   string    `json:"summary"`
}
