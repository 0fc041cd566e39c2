/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dailydigest/config"
	"dailydigest/feeds"
	"dailydigest/metrics"
	"dailydigest/sections"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "dailydigest",
		Usage: "Build and mail a daily news digest",
		Description: `Collects headlines from RSS and Atom feeds together with weather,
		horoscope, market quotes and a joke, writes the result to
		DailyDigest_<YYYY-MM-DD>.txt and mails it over SMTP.

		Meant to be run once a day from cron. Failing sources are reported in the
		digest and in the log but never stop the run.

		Flags can generally be set via environment variables, e.g.:

		--config => DIGEST_CONFIG=digest.toml
		--log-level => DIGEST_LOG_LEVEL=debug

		The SMTP password is only read from DIGEST_SMTP_PASSWORD, which may be
		placed in a .env file, or asked for with run --ask-password.
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "digest.toml",
				Usage:   "Path to the digest configuration file",
				EnvVars: []string{"DIGEST_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "Optional file with environment variables such as DIGEST_SMTP_PASSWORD",
				EnvVars: []string{"DIGEST_ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"DIGEST_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "log-json",
				Usage:   "Log as JSON",
				EnvVars: []string{"DIGEST_LOG_JSON"},
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write run metrics to this file in the Prometheus text format",
				EnvVars: []string{"DIGEST_METRICS_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			// Logs go to stderr so command output can be piped
			log.SetOutput(ctx.App.ErrWriter)

			level, err := log.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return err
			}
			log.SetLevel(level)

			if ctx.Bool("log-json") {
				log.SetFormatter(&log.JSONFormatter{})
			}

			return config.LoadEnv(ctx.String("env-file"))
		},
		Commands: []*cli.Command{
			runCmd(),
			previewCmd(),
			headlinesCmd(),
			serveCmd(),
			tidyCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return cli.ShowAppHelp(ctx)
		},
	}
}

// Execute runs the app with a context cancelled on SIGINT and SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (*config.TomlConfig, error) {
	path := ctx.String("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"config":   path,
		"sections": cfg.Digest.Sections,
		"sources":  len(cfg.Headlines.Sources),
	}).Debug("Loaded config")
	return cfg, nil
}

func newAggregator(cfg *config.TomlConfig, m *metrics.Metrics) *feeds.Aggregator {
	return feeds.NewAggregator(
		feeds.WithMetrics(m),
		feeds.WithUserAgent(cfg.Headlines.UserAgent),
		feeds.WithTimeout(cfg.Headlines.Timeout),
	)
}

func newProviders(cfg *config.TomlConfig, m *metrics.Metrics) []sections.Provider {
	return sections.FromConfig(cfg, sections.Deps{
		Aggregator: newAggregator(cfg, m),
		HTTP:       sections.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.UserAgent),
		Quotes:     sections.NewFinanceQuotes(cfg.HTTP.Timeout),
	})
}
