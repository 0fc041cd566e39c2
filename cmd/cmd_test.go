package cmd_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dailydigest/cmd"
	"dailydigest/models"
	"dailydigest/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/news":
			fmt.Fprint(w, `<rss version="2.0"><channel><title>News</title>
				<item><title>Canucks Win 4-2</title><link>https://example.com/1</link></item>
				<item><title>Budget Passed</title><link>https://example.com/2</link></item>
			</channel></rss>`)
		case "/sports":
			fmt.Fprint(w, `<rss version="2.0"><channel><title>Sports</title>
				<item><title>Canucks Win 4-2</title><link>https://example.com/3</link></item>
				<item><title>Canucks Sign Goalie</title><link>https://example.com/4</link></item>
			</channel></rss>`)
		case "/weather":
			fmt.Fprint(w, "Vancouver: +11°C\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, body string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	path := filepath.Join(dir, "digest.toml")
	content := fmt.Sprintf("[digest]\noutput_dir = %q\nhtml_file = \"index.html\"\n\n%s", out, body)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path, out
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := cmd.RootApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"dailydigest", "--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	return out.String(), err
}

func sourcesConfig(srv *httptest.Server) string {
	return fmt.Sprintf(`
[headlines]
per_source_limit = 5
total_limit = 10

[[headlines.sources]]
name = "news"
url = "%[1]s/news"

[[headlines.sources]]
name = "sports"
url = "%[1]s/sports"

[[headlines.sources]]
name = "gone"
url = "%[1]s/gone"

[weather]
url = "%[1]s/{city}"
city = "weather"

[horoscope]
url = "%[1]s/horoscope/{sign}"
sign = "leo"
`, srv.URL)
}

func TestRunCommand(t *testing.T) {
	t.Setenv("DIGEST_SMTP_PASSWORD", "")
	srv := feedServer(t)
	path, out := writeConfig(t, sourcesConfig(srv)+`
[mail]
host = "127.0.0.1"
from = "digest@example.com"
to = ["reader@example.com"]
`)
	metricsFile := filepath.Join(t.TempDir(), "digest.prom")

	stdout, err := run(t, "--config", path, "--metrics-file", metricsFile, "run")
	require.NoError(t, err, "failures never fail the run")

	name := store.FileName(time.Now())
	data, err := os.ReadFile(filepath.Join(out, name))
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "1. Canucks Win 4-2\n2. Budget Passed\n3. Canucks Sign Goalie\n")
	assert.Contains(t, text, "Vancouver: +11°C")
	assert.Contains(t, text, "Horoscope unavailable.")
	assert.Contains(t, text, "More updates soon!")
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.FileExists(t, metricsFile)

	assert.Contains(t, stdout, name+" written.")
	assert.Contains(t, stdout, "Horoscope unavailable (bad_status)")
	assert.Contains(t, stdout, "Email skipped")
}

func TestPreviewCommand(t *testing.T) {
	srv := feedServer(t)
	path, out := writeConfig(t, sourcesConfig(srv))

	stdout, err := run(t, "--config", path, "preview")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Daily Digest\n"))
	assert.Contains(t, stdout, "Top Headlines\n-------------\n1. Canucks Win 4-2")
	assert.NoDirExists(t, out, "preview does not write files")

	stdout, err = run(t, "--config", path, "preview", "--html")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<h3>Top Headlines</h3>")
}

func TestHeadlinesCommand(t *testing.T) {
	srv := feedServer(t)
	path, _ := writeConfig(t, sourcesConfig(srv))

	stdout, err := run(t, "--config", path, "headlines", "--keyword", "canucks")
	require.NoError(t, err)
	assert.Equal(t, "1. Canucks Win 4-2\n2. Canucks Sign Goalie\n", stdout)

	stdout, err = run(t, "--config", path, "headlines", "--json", "--limit", "1")
	require.NoError(t, err)
	var entry models.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entry))
	assert.Equal(t, models.Entry{Title: "Canucks Win 4-2", Link: "https://example.com/1", Source: "news"}, entry)
}

func TestHeadlinesLimit(t *testing.T) {
	srv := feedServer(t)
	path, _ := writeConfig(t, sourcesConfig(srv))

	tests := []struct {
		name     string
		limit    string
		expected string
		wantErr  string
	}{
		{name: "zero", limit: "0", expected: ""},
		{name: "two", limit: "2", expected: "1. Canucks Win 4-2\n2. Budget Passed\n"},
		{name: "negative", limit: "-1", wantErr: "--limit must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, err := run(t, "--config", path, "headlines", "--limit", tt.limit)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, stdout)
		})
	}
}

func TestTidyCommand(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(dir)
	require.NoError(t, err)
	_, err = s.WriteDigest(time.Now().AddDate(0, 0, -40), "old")
	require.NoError(t, err)
	_, err = s.WriteDigest(time.Now(), "new")
	require.NoError(t, err)

	stdout, err := run(t, "tidy", "--dir", dir, "--keep-days", "30")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed 1 digest(s).")

	files, err := s.List()
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestConfigErrors(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "run")
	assert.Error(t, err)

	path, _ := writeConfig(t, `
[mail]
host = "smtp.example.com"
from = "digest@example.com"
to = ["reader@example.com"]
password = "hunter2"
`)
	_, err = run(t, "--config", path, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "looks like a secret")
}
