/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"dailydigest/feeds"
	"dailydigest/metrics"
	"dailydigest/models"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func headlinesCmd() *cli.Command {
	return &cli.Command{
		Name:  "headlines",
		Usage: "Print the aggregated headlines",
		Description: `Fetches the configured feed sources and prints the deduplicated
headlines, one per line.

With --json each headline is printed as a JSON object on a single line, including
its link and source. Use a tool like jq to process the output.

Prints all other log messages to stderr.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "keyword",
				Aliases: []string{"k"},
				Usage:   "Only keep headlines containing this keyword (overrides headlines.keyword)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of headlines (overrides headlines.total_limit)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON lines",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			keyword := cfg.Headlines.Keyword
			if ctx.IsSet("keyword") {
				keyword = ctx.String("keyword")
			}
			limit := cfg.Headlines.TotalLimit
			if ctx.IsSet("limit") {
				limit = ctx.Int("limit")
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}

			agg := newAggregator(cfg, metrics.New())
			sources := feeds.SourcesFromConfig(cfg.Headlines.Sources)

			// The keyword is applied before truncation
			var entries []models.Entry
			var errs []error
			if ctx.Bool("json") {
				entries, errs = agg.AggregateUniqueItems(ctx.Context, sources, cfg.Headlines.PerSourceLimit, math.MaxInt)
				entries = (&feeds.KeywordFilter{Keyword: keyword}).ApplyFilter(entries)
			} else {
				var titles []string
				titles, errs = agg.AggregateUnique(ctx.Context, sources, cfg.Headlines.PerSourceLimit, math.MaxInt)
				entries = lo.Map(feeds.FilterByKeyword(titles, keyword), func(title string, _ int) models.Entry {
					return models.Entry{Title: title}
				})
			}
			if len(entries) > limit {
				entries = entries[:limit]
			}

			for _, err := range errs {
				log.Warn(err)
			}

			if ctx.Bool("json") {
				return printJSON(ctx.App.Writer, entries)
			}
			for i, entry := range entries {
				fmt.Fprintf(ctx.App.Writer, "%d. %s\n", i+1, entry.Title)
			}
			return nil
		},
	}
}

// printJSON prints every entry as a single line JSON object
func printJSON(w io.Writer, entries []models.Entry) error {
	enc := json.NewEncoder(w)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}
