/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"dailydigest/server"
	"dailydigest/store"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the written digests over HTTP",
		Description: `Starts a read-only HTTP server for the digests in the output directory.

Routes:

/                     the HTML page (digest.html_file)
/latest               the newest digest as plain text
/api/digests          JSON list of digests, newest first
/api/digests/:name    a single digest
/metrics              request metrics
/healthz              liveness`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "",
				Usage:   "Host to listen on",
				EnvVars: []string{"DIGEST_HOST"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3000,
				Usage:   "Port to listen on",
				EnvVars: []string{"DIGEST_PORT"},
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Digest directory, overrides digest.output_dir and skips loading the config",
				EnvVars: []string{"DIGEST_OUTPUT_DIR"},
			},
			&cli.DurationFlag{
				Name:  "cache",
				Value: time.Minute,
				Usage: "How long to cache API responses, 0 to disable",
			},
		},
		Action: func(ctx *cli.Context) error {
			dir, index, err := outputDir(ctx)
			if err != nil {
				return err
			}

			s, err := store.New(dir)
			if err != nil {
				return err
			}

			app := server.Server(&server.ServerConfig{
				Store:           s,
				Index:           index,
				CacheExpiration: ctx.Duration("cache"),
			})

			// Graceful shutdown
			go func() {
				<-ctx.Context.Done()
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.Errorf("Failed to shut down server: %v", err)
				}
			}()

			addr := fmt.Sprintf("%s:%d", ctx.String("host"), ctx.Int("port"))
			log.WithFields(log.Fields{
				"addr": addr,
				"dir":  dir,
			}).Info("Starting server")
			return app.Listen(addr)
		},
	}
}

// outputDir resolves the digest directory from --dir or the config
func outputDir(ctx *cli.Context) (string, string, error) {
	if dir := ctx.String("dir"); dir != "" {
		return dir, "index.html", nil
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return "", "", err
	}
	return cfg.Digest.OutputDir, cfg.Digest.HTMLFile, nil
}
