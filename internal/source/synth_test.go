package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayguard/internal/cache"
	"wayguard/internal/domain/safety"
	"wayguard/internal/ratelimit"
)

const synthCompletion = `Here you go:
[
	{"severity": "medium", "title": "Ticket resale fraud near stadium", "description": "Fake match tickets reported", "actionRequired": "Buy from official outlets only"}
]`

func TestSynthesizer_AlertsCarryTheSynthesizedSourceToken(t *testing.T) {
	synth := NewSynthesizer(&stubCompleter{response: synthCompletion})

	alerts, err := synth.SynthesizeAlerts(context.Background(), tokyoLoc(), safety.AlertScam, 3)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	assert.Equal(t, SynthesizedName, alerts[0].Source,
		"generated advisories must not be attributed to a real upstream")
	assert.Equal(t, safety.AlertScam, alerts[0].Type)
	assert.Equal(t, safety.SeverityMedium, alerts[0].Severity)
	assert.NotEmpty(t, alerts[0].ID)
}

func TestSynthesizer_MalformedCompletionFails(t *testing.T) {
	cases := map[string]string{
		"no array":         "I cannot help with that.",
		"missing title":    `[{"severity": "low", "title": ""}]`,
		"unknown severity": `[{"severity": "apocalyptic", "title": "x"}]`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			synth := NewSynthesizer(&stubCompleter{response: response})
			_, err := synth.SynthesizeAlerts(context.Background(), tokyoLoc(), safety.AlertNews, 3)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestNews_EmptyLiveResultUsesSynthesizedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalArticles": 0, "articles": []}`))
	}))
	t.Cleanup(srv.Close)

	adapter := NewNews(srv.URL, "test-key", 2*time.Second,
		cache.New[safety.Report](5*time.Minute, 50),
		ratelimit.New(10, time.Minute),
		NewSynthesizer(&stubCompleter{response: synthCompletion}),
	)

	report, err := adapter.Fetch(context.Background(), tokyoLoc())
	require.NoError(t, err)

	assert.Equal(t, safety.OriginSynthesized, report.Origin)
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, SynthesizedName, report.Alerts[0].Source)
}
