/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"dailydigest/store"
	"dailydigest/ui"

	"github.com/urfave/cli/v2"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Remove old digests",
		Description: `Tidy up the output directory by removing digests that are old.

Removes DailyDigest_<YYYY-MM-DD>.txt files dated more than --keep-days days ago.
Other files in the directory are left alone.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "keep-days",
				Value:   30,
				Usage:   "Number of days of digests to keep",
				EnvVars: []string{"DIGEST_KEEP_DAYS"},
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Digest directory, overrides digest.output_dir and skips loading the config",
				EnvVars: []string{"DIGEST_OUTPUT_DIR"},
			},
		},
		Action: func(ctx *cli.Context) error {
			dir, _, err := outputDir(ctx)
			if err != nil {
				return err
			}

			s, err := store.New(dir)
			if err != nil {
				return err
			}

			removed, err := s.Tidy(ctx.Int("keep-days"), time.Now())
			for _, name := range removed {
				fmt.Fprintln(ctx.App.Writer, ui.DimStyle.Render("removed "+name))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, ui.Success(fmt.Sprintf("Removed %d digest(s).", len(removed))))
			return nil
		},
	}
}
