package digest

import (
	"context"
	"errors"
	"time"

	"dailydigest/mailer"
	"dailydigest/metrics"
	"dailydigest/models"
	"dailydigest/sections"
	"dailydigest/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Sender mails a rendered digest
type Sender interface {
	Send(ctx context.Context, date time.Time, text, html string) error
}

var _ Sender = (*mailer.Mailer)(nil)

// Report describes what a run produced. Failures are recorded here, never returned.
type Report struct {
	RunID  string
	Digest models.Digest
	Text   string
	HTML   string

	TextPath string
	HTMLPath string

	// Sections that were configured but produced no data
	Failed []models.Section

	RenderErr  error
	PersistErr error
	MailErr    error
	MailSent   bool
	// No password was available so the mail step did nothing
	MailSkipped bool

	Duration time.Duration
}

// Runner executes fetch, render, persist and send in that order
type Runner struct {
	title       string
	providers   []sections.Provider
	store       *store.Store
	htmlFile    string
	sender      Sender
	metrics     *metrics.Metrics
	metricsFile string
	now         func() time.Time
}

type Option func(*Runner)

// WithStore enables writing the digest files
func WithStore(s *store.Store, htmlFile string) Option {
	return func(r *Runner) {
		r.store = s
		r.htmlFile = htmlFile
	}
}

// WithSender enables mailing the digest
func WithSender(s Sender) Option {
	return func(r *Runner) { r.sender = s }
}

// WithMetrics records run metrics and writes them to path when it is not empty
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(r *Runner) {
		r.metrics = m
		r.metricsFile = path
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(title string, providers []sections.Provider, opts ...Option) *Runner {
	r := &Runner{
		title:     title,
		providers: providers,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build fetches every section in order
func (r *Runner) Build(ctx context.Context) models.Digest {
	return r.build(ctx, r.now())
}

func (r *Runner) build(ctx context.Context, date time.Time) models.Digest {
	d := models.Digest{
		Title:    r.title,
		Date:     date,
		Sections: make([]models.Section, 0, len(r.providers)),
	}

	for _, provider := range r.providers {
		section := provider.Fetch(ctx)
		r.metrics.SectionDone(section.Name, string(section.Reason))
		d.Sections = append(d.Sections, section)
	}

	return d
}

// Run builds the digest, writes it and mails it. Each stage runs even when an earlier
// one failed.
func (r *Runner) Run(ctx context.Context) Report {
	started := r.now()
	report := Report{RunID: uuid.NewString()}
	logger := log.WithFields(log.Fields{
		"run": report.RunID,
	})
	logger.Info("Starting digest run")

	report.Digest = r.build(ctx, started)
	for _, section := range Visible(report.Digest) {
		if !section.OK() {
			report.Failed = append(report.Failed, section)
		}
	}

	report.Text = RenderText(report.Digest)
	report.HTML, report.RenderErr = RenderHTML(report.Digest)
	if report.RenderErr != nil {
		logger.Errorf("Failed to render html digest: %v", report.RenderErr)
	}

	if r.store != nil {
		r.persist(logger, &report)
	}

	if r.sender != nil {
		err := r.sender.Send(ctx, report.Digest.Date, report.Text, report.HTML)
		switch {
		case errors.Is(err, mailer.ErrNoPassword):
			report.MailSkipped = true
			logger.Warn("Mail skipped: no SMTP password available")
		case err != nil:
			report.MailErr = err
			logger.Errorf("Failed to send email: %v", err)
		default:
			report.MailSent = true
		}
	}

	finished := r.now()
	report.Duration = finished.Sub(started)
	r.metrics.RunFinished(started, finished)
	if err := r.metrics.WriteTextfile(r.metricsFile); err != nil {
		logger.Warnf("Failed to write metrics: %v", err)
	}

	logger.WithFields(log.Fields{
		"failed":   len(report.Failed),
		"mailed":   report.MailSent,
		"duration": report.Duration,
	}).Info("Digest run finished")

	return report
}

func (r *Runner) persist(logger *log.Entry, report *Report) {
	path, err := r.store.WriteDigest(report.Digest.Date, report.Text)
	if err != nil {
		report.PersistErr = err
		logger.Errorf("Failed to save digest: %v", err)
	}
	report.TextPath = path

	if r.htmlFile == "" || report.HTML == "" {
		return
	}
	path, err = r.store.WriteHTML(r.htmlFile, report.HTML)
	if err != nil {
		report.PersistErr = errors.Join(report.PersistErr, err)
		logger.Errorf("Failed to save html page: %v", err)
	}
	report.HTMLPath = path
}
