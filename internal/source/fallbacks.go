package source

import (
	"wayguard/internal/domain/safety"
)

// Terminal static content for each adapter's fallback chain. Location-
// agnostic by design: when everything upstream is down the contract is still
// "some safety data", never an error.

// StaticEmergencyNumbers are the generic numbers served when no
// location-specific ones are known.
var StaticEmergencyNumbers = []string{"112", "911"}

// StaticCommonScams is generic scam awareness advice.
var StaticCommonScams = []string{
	"Taxi overcharging and rigged meters",
	"Fake police officers asking to inspect your wallet",
	"Distraction pickpocketing in crowded areas",
	"ATM card skimming",
	"Too-good-to-be-true tour or ticket offers",
}

func staticAssessorReport() safety.Report {
	score := 75
	return safety.Report{
		Source:           AssessorName,
		Origin:           safety.OriginStatic,
		SafetyScore:      &score,
		CommonScams:      StaticCommonScams,
		EmergencyNumbers: StaticEmergencyNumbers,
		Alerts: []safety.Alert{
			{
				ID:             "static-assessor-advisory",
				Type:           safety.AlertSafety,
				Severity:       safety.SeverityLow,
				Title:          "General travel precautions",
				Description:    "Live safety assessment is unavailable. Keep valuables secure, stay aware of your surroundings, and follow guidance from local authorities.",
				ActionRequired: "Check official government travel advisories before heading out.",
				Source:         AssessorName,
			},
		},
	}
}

func staticNewsReport() safety.Report {
	return safety.Report{
		Source: NewsName,
		Origin: safety.OriginStatic,
		Alerts: []safety.Alert{
			{
				ID:             "static-news-advisory",
				Type:           safety.AlertNews,
				Severity:       safety.SeverityLow,
				Title:          "Local news unavailable",
				Description:    "Current local news could not be retrieved. Consult local media for breaking developments.",
				ActionRequired: "Check a local news outlet or official city channels.",
				Source:         NewsName,
			},
		},
	}
}

func staticScamReport() safety.Report {
	return safety.Report{
		Source:      ScamWatchName,
		Origin:      safety.OriginStatic,
		CommonScams: StaticCommonScams,
		Alerts: []safety.Alert{
			{
				ID:             "static-scam-advisory",
				Type:           safety.AlertScam,
				Severity:       safety.SeverityLow,
				Title:          "Common tourist scams",
				Description:    "Location-specific scam reports are unavailable. The usual patterns apply: overcharging, distraction theft, and impersonation scams.",
				ActionRequired: "Agree on prices in advance and keep documents out of reach.",
				Source:         ScamWatchName,
			},
		},
	}
}
