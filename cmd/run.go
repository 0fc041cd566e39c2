/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"dailydigest/digest"
	"dailydigest/mailer"
	"dailydigest/metrics"
	"dailydigest/store"
	"dailydigest/ui"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// runCmd builds, saves and mails today's digest
func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Build, save and mail today's digest",
		Description: `Fetches every configured section, writes DailyDigest_<YYYY-MM-DD>.txt
(and the HTML page when digest.html_file is set) to digest.output_dir and mails
the digest when a [mail] block is configured.

Sections that fail are replaced by a placeholder. Failing to save or to send is
logged and reported; the command still exits successfully.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "ask-password",
				Usage:   "Prompt for the SMTP password when DIGEST_SMTP_PASSWORD is not set",
				EnvVars: []string{"DIGEST_ASK_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "no-mail",
				Usage: "Save the digest without mailing it",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			m := metrics.New()
			opts := []digest.Option{digest.WithMetrics(m, ctx.String("metrics-file"))}

			s, err := store.New(cfg.Digest.OutputDir)
			if err != nil {
				log.Errorf("Digest will not be saved: %v", err)
			} else {
				opts = append(opts, digest.WithStore(s, cfg.Digest.HTMLFile))
			}

			if cfg.Mail != nil && !ctx.Bool("no-mail") {
				creds := cfg.Mail.Credentials()
				if creds.Password == "" && ctx.Bool("ask-password") {
					creds.Password, err = prompt.New().Ask("SMTP password:").Input("", input.WithEchoMode(input.EchoNone))
					if err != nil {
						return err
					}
				}

				sender, err := mailer.New(*cfg.Mail, creds, mailer.WithMetrics(m))
				if err != nil {
					log.Errorf("Digest will not be mailed: %v", err)
				} else {
					opts = append(opts, digest.WithSender(sender))
				}
			}

			report := digest.NewRunner(cfg.Digest.Title, newProviders(cfg, m), opts...).Run(ctx.Context)
			ui.PrintReport(ctx.App.Writer, report)
			return nil
		},
	}
}
