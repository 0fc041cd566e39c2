package server

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"dailydigest/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type ServerConfig struct {
	// Where the digests are read from
	Store *store.Store

	// The HTML page served at /, relative to the store directory
	Index string

	// How long listings are cached. Zero disables the cache.
	CacheExpiration time.Duration
}

// Returns a fiber.App that serves the written digests read-only
func Server(config *ServerConfig) *fiber.App {
	reg := prometheus.NewRegistry()
	requests := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "dailydigest_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		stop := time.Now()
		requests.WithLabelValues(c.Route().Path, strconv.Itoa(c.Response().StatusCode())).Inc()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	if config.CacheExpiration > 0 {
		app.Use(cache.New(cache.Config{
			Expiration: config.CacheExpiration,
			Next: func(c *fiber.Ctx) bool {
				// Only cache api requests
				return c.Method() != fiber.MethodGet || !strings.HasPrefix(c.Path(), "/api")
			},
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	app.Get("/api/digests", func(c *fiber.Ctx) error {
		files, err := config.Store.List()
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error listing digests")
			return c.Status(fiber.StatusInternalServerError).SendString("Error listing digests")
		}
		return c.JSON(files)
	})

	app.Get("/api/digests/:name", func(c *fiber.Ctx) error {
		return sendDigest(c, config.Store, c.Params("name"))
	})

	app.Get("/latest", func(c *fiber.Ctx) error {
		latest, err := config.Store.Latest()
		if errors.Is(err, store.ErrNoDigests) {
			return c.Status(fiber.StatusNotFound).SendString("No digest written yet")
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error listing digests")
		}
		return sendDigest(c, config.Store, latest.Name)
	})

	if config.Index != "" {
		app.Use("/", filesystem.New(filesystem.Config{
			Browse: false,
			Index:  config.Index,
			Root:   http.Dir(config.Store.Dir()),
			Next: func(c *fiber.Ctx) bool {
				// Only the index page is public, other files go through the api
				return c.Path() != "/" && c.Path() != "/"+config.Index
			},
		}))
	}

	return app
}

func sendDigest(c *fiber.Ctx, s *store.Store, name string) error {
	data, err := s.Read(name)
	if errors.Is(err, os.ErrNotExist) {
		return c.Status(fiber.StatusNotFound).SendString("Digest not found")
	}
	if err != nil {
		log.WithFields(log.Fields{
			"name":  name,
			"error": err,
		}).Error("Error reading digest")
		return c.Status(fiber.StatusInternalServerError).SendString("Error reading digest")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(data)
}
