// Package mailer delivers the digest over authenticated, encrypted SMTP
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailydigest/config"
	"dailydigest/metrics"
	"dailydigest/models"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// DefaultSubject is used when mail.subject is not set. {date} takes the long date.
const DefaultSubject = "🗞️ Your Daily Digest – {date}"

const dialTimeout = 30 * time.Second

var ErrNoPassword = errors.New("no SMTP password; set " + config.EnvSMTPPassword + " or pass --ask-password")

// Sender delivers messages; *mail.Client satisfies it
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

var _ Sender = (*mail.Client)(nil)

type Mailer struct {
	cfg        config.TomlMail
	sender     Sender
	metrics    *metrics.Metrics
	newBackOff func() backoff.BackOff
}

type Option func(*Mailer)

// WithSender replaces the SMTP client
func WithSender(s Sender) Option {
	return func(m *Mailer) { m.sender = s }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Mailer) { m.metrics = mt }
}

// WithBackOff sets the policy between retries
func WithBackOff(f func() backoff.BackOff) Option {
	return func(m *Mailer) { m.newBackOff = f }
}

// New prepares a mailer. Without a password and without an injected sender every
// Send returns ErrNoPassword.
func New(cfg config.TomlMail, creds config.Credentials, opts ...Option) (*Mailer, error) {
	m := &Mailer{
		cfg:        cfg,
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.sender == nil && creds.Password != "" {
		client, err := NewClient(cfg, creds)
		if err != nil {
			return nil, err
		}
		m.sender = client
	}

	return m, nil
}

// NewClient builds an SMTP client using implicit TLS or mandatory STARTTLS
func NewClient(cfg config.TomlMail, creds config.Credentials) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(creds.Username),
		mail.WithPassword(creds.Password),
		mail.WithTimeout(dialTimeout),
	}
	if cfg.TLS == config.TLSModeStartTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithSSL())
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating SMTP client: %w", err)
	}
	return client, nil
}

// Subject renders the subject line for the digest date
func (m *Mailer) Subject(date time.Time) string {
	subject := m.cfg.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	return strings.ReplaceAll(subject, "{date}", date.Format(models.LongDateLayout))
}

// Message builds the plain text mail with an optional HTML alternative
func (m *Mailer) Message(date time.Time, text, html string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(m.Subject(date))
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, text)
	if html != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, html)
	}
	return msg, nil
}

// Send delivers the digest, retrying mail.retries times with exponential backoff.
// Each attempt opens and closes its own connection.
func (m *Mailer) Send(ctx context.Context, date time.Time, text, html string) error {
	if m.sender == nil {
		return ErrNoPassword
	}

	msg, err := m.Message(date, text, html)
	if err != nil {
		return err
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := m.sender.DialAndSendWithContext(ctx, msg)
		m.metrics.MailAttempt(err)
		if err != nil {
			log.WithFields(log.Fields{
				"host":    m.cfg.Host,
				"attempt": attempt,
			}).Warnf("Failed to send mail: %v", err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(m.newBackOff(), uint64(m.cfg.Retries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("error sending digest mail after %d attempt(s): %w", attempt, err)
	}

	log.WithFields(log.Fields{
		"host":       m.cfg.Host,
		"recipients": len(m.cfg.To),
		"attempts":   attempt,
	}).Info("Digest mail sent")
	return nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.Multiplier = 1.5
	return b
}
