package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailydigest/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := metrics.New()

	m.FeedFetched("cbc", 3)
	m.FeedFetched("cbc", 2)
	m.FeedFailed("nhl", "unreachable")
	m.SectionDone("weather", "")
	m.SectionDone("joke", "timeout")
	m.MailAttempt(errors.New("boom"))
	m.MailAttempt(nil)

	count, err := testutil.GatherAndCount(m.Registry(), "dailydigest_feed_fetches_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(m.Registry(), "dailydigest_section_outcomes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.FeedFetched("a", 1)
		m.FeedFailed("a", "timeout")
		m.SectionDone("a", "")
		m.MailAttempt(nil)
		m.RunFinished(time.Now(), time.Now())
	})
	assert.NoError(t, m.WriteTextfile("/nonexistent/metrics.prom"))
	assert.NotPanics(t, func() {
		assert.Nil(t, m.Registry())
	})
}

func TestWriteTextfile(t *testing.T) {
	m := metrics.New()
	m.FeedFetched("cbc", 4)
	m.RunFinished(time.Unix(100, 0), time.Unix(103, 0))

	path := filepath.Join(t.TempDir(), "digest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dailydigest_feed_entries_total{source="cbc"} 4`)
	assert.Contains(t, string(data), "dailydigest_run_duration_seconds 3")
}
