/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"dailydigest/digest"
	"dailydigest/metrics"

	"github.com/urfave/cli/v2"
)

func previewCmd() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Print today's digest without saving or mailing it",
		Description: `Builds the digest exactly like run does and prints it to stdout.

Log messages are written to stderr.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "html",
				Usage: "Print the HTML page instead of the plain text digest",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			m := metrics.New()
			d := digest.NewRunner(cfg.Digest.Title, newProviders(cfg, m)).Build(ctx.Context)

			if !ctx.Bool("html") {
				_, err = fmt.Fprint(ctx.App.Writer, digest.RenderText(d))
				return err
			}

			page, err := digest.RenderHTML(d)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(ctx.App.Writer, page)
			return err
		},
	}
}
