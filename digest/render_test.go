package digest_test

import (
	"testing"
	"time"

	"dailydigest/digest"
	"dailydigest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDigest() models.Digest {
	return models.Digest{
		Title: "Daily Digest",
		Date:  time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC),
		Sections: []models.Section{
			{
				Name:  "headlines",
				Title: "Top Headlines",
				Entries: []models.Entry{
					{Title: "Canucks Win 4-2", Link: "https://example.com/1"},
					{Title: "Rates <held>"},
				},
			},
			{Name: "weather", Title: "Weather", Lines: []string{"Vancouver: 🌦 +11°C"}},
			models.Failed("horoscope", "Horoscope", models.ReasonTimeout, nil),
			models.Failed("market", "market", models.ReasonDisabled, nil),
		},
	}
}

func TestRenderText(t *testing.T) {
	expected := `Daily Digest
Friday, March 01, 2024

Top Headlines
-------------
1. Canucks Win 4-2
   https://example.com/1
2. Rates <held>

Weather
-------
Vancouver: 🌦 +11°C

Horoscope
---------
Horoscope unavailable.

More updates soon!
`
	assert.Equal(t, expected, digest.RenderText(sampleDigest()))
}

func TestRenderHTML(t *testing.T) {
	page, err := digest.RenderHTML(sampleDigest())
	require.NoError(t, err)

	assert.Contains(t, page, "<title>Daily Digest – Friday, March 01, 2024</title>")
	assert.Contains(t, page, "<h1>🗞️ Daily Digest</h1>")
	assert.Contains(t, page, "<h2>Friday, March 01, 2024</h2>")
	assert.Contains(t, page, "<h3>Top Headlines</h3>")
	assert.Contains(t, page, `<li><a href="https://example.com/1">Canucks Win 4-2</a></li>`)
	assert.Contains(t, page, "<li>Rates &lt;held&gt;</li>")
	assert.Contains(t, page, "<p>Horoscope unavailable.</p>")
	assert.Contains(t, page, "<p>More updates soon!</p>")
	assert.NotContains(t, page, "<h3>market</h3>")
}

func TestRenderHTMLUnsafeLink(t *testing.T) {
	d := models.Digest{
		Title: "Daily Digest",
		Date:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Sections: []models.Section{{
			Name:    "headlines",
			Title:   "Top Headlines",
			Entries: []models.Entry{{Title: "Click", Link: "javascript:alert(1)"}},
		}},
	}

	page, err := digest.RenderHTML(d)
	require.NoError(t, err)
	assert.NotContains(t, page, "javascript:")
}

func TestVisible(t *testing.T) {
	visible := digest.Visible(sampleDigest())
	names := make([]string, len(visible))
	for i, s := range visible {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"headlines", "weather", "horoscope"}, names)
}
