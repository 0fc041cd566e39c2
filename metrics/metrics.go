// Package metrics keeps the counters of a single digest run.
//
// The digest runs as a short-lived job, so metrics live on a per-run registry and are
// written to a textfile for the node exporter instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

type Metrics struct {
	registry *prometheus.Registry

	feedFetches     *prometheus.CounterVec
	feedEntries     *prometheus.CounterVec
	sectionOutcomes *prometheus.CounterVec
	mailAttempts    prometheus.Counter
	mailFailures    prometheus.Counter
	lastRun         prometheus.Gauge
	runDuration     prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		feedFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailydigest_feed_fetches_total",
			Help: "Feed fetches by source and outcome",
		}, []string{"source", "outcome"}),
		feedEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailydigest_feed_entries_total",
			Help: "Entries taken from each feed source",
		}, []string{"source"}),
		sectionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailydigest_section_outcomes_total",
			Help: "Digest sections by name and failure reason (ok when data was present)",
		}, []string{"section", "reason"}),
		mailAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailydigest_mail_attempts_total",
			Help: "SMTP send attempts",
		}),
		mailFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailydigest_mail_failures_total",
			Help: "SMTP send attempts that failed",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dailydigest_last_run_timestamp_seconds",
			Help: "Unix time the digest run finished",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dailydigest_run_duration_seconds",
			Help: "Wall time of the last digest run",
		}),
	}
}

// All recorders are safe to call on a nil *Metrics.

func (m *Metrics) FeedFetched(source string, entries int) {
	if m == nil {
		return
	}
	m.feedFetches.WithLabelValues(source, "ok").Inc()
	m.feedEntries.WithLabelValues(source).Add(float64(entries))
}

func (m *Metrics) FeedFailed(source string, reason string) {
	if m == nil {
		return
	}
	m.feedFetches.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) SectionDone(section string, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "ok"
	}
	m.sectionOutcomes.WithLabelValues(section, reason).Inc()
}

func (m *Metrics) MailAttempt(err error) {
	if m == nil {
		return
	}
	m.mailAttempts.Inc()
	if err != nil {
		m.mailFailures.Inc()
	}
}

func (m *Metrics) RunFinished(started, finished time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(finished.Unix()))
	m.runDuration.Set(finished.Sub(started).Seconds())
}

// Registry exposes the run registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile dumps the registry in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"path": path,
	}).Debug("Wrote metrics textfile")
	return nil
}
