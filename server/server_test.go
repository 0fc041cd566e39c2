package server_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"dailydigest/models"
	"dailydigest/server"
	"dailydigest/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, dates ...string) *fiber.App {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)

	for _, d := range dates {
		date, err := time.Parse(store.DateLayout, d)
		require.NoError(t, err)
		_, err = s.WriteDigest(date, "digest for "+d)
		require.NoError(t, err)
	}
	_, err = s.WriteHTML("index.html", "<html><body>latest</body></html>")
	require.NoError(t, err)

	return server.Server(&server.ServerConfig{Store: s, Index: "index.html"})
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestListDigests(t *testing.T) {
	app := newApp(t, "2024-02-28", "2024-03-01", "2024-02-29")

	status, body := get(t, app, "/api/digests")
	require.Equal(t, fiber.StatusOK, status)

	var files []models.DigestFile
	require.NoError(t, json.Unmarshal([]byte(body), &files))
	require.Len(t, files, 3)
	assert.Equal(t, "DailyDigest_2024-03-01.txt", files[0].Name)
	assert.Equal(t, "2024-02-28", files[2].Date)
}

func TestLatest(t *testing.T) {
	app := newApp(t, "2024-02-28", "2024-03-01")

	status, body := get(t, app, "/latest")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "digest for 2024-03-01", body)

	status, _ = get(t, newApp(t), "/latest")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestGetDigest(t *testing.T) {
	app := newApp(t, "2024-02-28")

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{path: "/api/digests/DailyDigest_2024-02-28.txt", status: fiber.StatusOK, body: "digest for 2024-02-28"},
		{path: "/api/digests/DailyDigest_2024-01-01.txt", status: fiber.StatusNotFound},
		{path: "/api/digests/index.html", status: fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, app, tt.path)
			assert.Equal(t, tt.status, status)
			if tt.body != "" {
				assert.Equal(t, tt.body, body)
			}
		})
	}
}

func TestIndexAndHealth(t *testing.T) {
	app := newApp(t)

	status, body := get(t, app, "/")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "latest")

	status, body = get(t, app, "/healthz")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, body = get(t, app, "/metrics")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "dailydigest_http_requests_total")
}
