package sections

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"dailydigest/config"
	"dailydigest/models"
)

// Joke reads a JSON joke API in the icanhazdadjoke shape
type Joke struct {
	client *HTTPClient
	title  string
	url    string
}

type jokeResponse struct {
	ID     string `json:"id"`
	Joke   string `json:"joke"`
	Status int    `json:"status"`
}

func NewJoke(client *HTTPClient, cfg config.TomlJoke) *Joke {
	return &Joke{
		client: client,
		title:  cfg.Title,
		url:    cfg.URL,
	}
}

func (j *Joke) Name() string { return config.SectionJoke }

func (j *Joke) Fetch(ctx context.Context) models.Section {
	body, err := j.client.Get(ctx, j.url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return failed(j.Name(), j.title, err)
	}

	var resp jokeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return failed(j.Name(), j.title, &MalformedError{Err: err})
	}

	joke := strings.TrimSpace(resp.Joke)
	if joke == "" {
		return models.Failed(j.Name(), j.title, models.ReasonEmpty, errors.New("response carried no joke"))
	}

	return models.Section{
		Name:  j.Name(),
		Title: j.title,
		Lines: []string{joke},
	}
}
