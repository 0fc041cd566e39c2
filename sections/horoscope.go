package sections

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"dailydigest/config"
	"dailydigest/models"

	"github.com/PuerkitoBio/goquery"
)

// Horoscope scrapes the first non-empty block matching a selector
type Horoscope struct {
	client   *HTTPClient
	title    string
	url      string
	selector string
}

func NewHoroscope(client *HTTPClient, cfg config.TomlHoroscope) *Horoscope {
	return &Horoscope{
		client:   client,
		title:    cfg.Title,
		url:      config.ExpandTemplate(cfg.URL, map[string]string{"sign": strings.ToLower(cfg.Sign)}),
		selector: cfg.Selector,
	}
}

func (h *Horoscope) Name() string { return config.SectionHoroscope }

func (h *Horoscope) Fetch(ctx context.Context) models.Section {
	body, err := h.client.Get(ctx, h.url, map[string]string{"Accept": "text/html"})
	if err != nil {
		return failed(h.Name(), h.title, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return failed(h.Name(), h.title, &MalformedError{Err: err})
	}

	text := FirstText(doc.Selection, h.selector)
	if text == "" {
		return models.Failed(h.Name(), h.title, models.ReasonEmpty, errors.New("no text matched "+h.selector))
	}

	return models.Section{
		Name:  h.Name(),
		Title: h.title,
		Lines: []string{text},
	}
}

// FirstText returns the whitespace-normalised text of the first non-empty match
func FirstText(sel *goquery.Selection, selector string) string {
	var text string
	sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text = strings.Join(strings.Fields(s.Text()), " ")
		return text == ""
	})
	return text
}
