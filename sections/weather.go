package sections

import (
	"context"
	"errors"
	"strings"

	"dailydigest/config"
	"dailydigest/models"
)

// Weather reads a one line text forecast such as wttr.in's format=3
type Weather struct {
	client *HTTPClient
	title  string
	url    string
}

func NewWeather(client *HTTPClient, cfg config.TomlWeather) *Weather {
	return &Weather{
		client: client,
		title:  cfg.Title,
		url:    config.ExpandTemplate(cfg.URL, map[string]string{"city": cfg.City}),
	}
}

func (w *Weather) Name() string { return config.SectionWeather }

func (w *Weather) Fetch(ctx context.Context) models.Section {
	body, err := w.client.Get(ctx, w.url, map[string]string{"Accept": "text/plain"})
	if err != nil {
		return failed(w.Name(), w.title, err)
	}

	text := strings.Join(strings.Fields(string(body)), " ")
	if text == "" {
		return models.Failed(w.Name(), w.title, models.ReasonEmpty, errors.New("empty forecast"))
	}

	return models.Section{
		Name:  w.Name(),
		Title: w.title,
		Lines: []string{text},
	}
}
