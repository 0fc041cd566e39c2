package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Section names, in the default rendering order
const (
	SectionHeadlines = "headlines"
	SectionWeather   = "weather"
	SectionHoroscope = "horoscope"
	SectionMarket    = "market"
	SectionJoke      = "joke"
)

var DefaultSections = []string{SectionHeadlines, SectionWeather, SectionHoroscope, SectionMarket, SectionJoke}

// Environment variables holding mail credentials. Secrets never live in the TOML file.
const (
	EnvSMTPUsername = "DIGEST_SMTP_USERNAME"
	EnvSMTPPassword = "DIGEST_SMTP_PASSWORD"
)

const (
	TLSModeSSL      = "ssl"
	TLSModeStartTLS = "starttls"
)

var secretKeys = []string{"password", "app_password", "secret", "token"}

// TomlSource represents one feed source
type TomlSource struct {
	Name      string            `toml:"name"`
	URL       string            `toml:"url"`
	Params    map[string]string `toml:"params,omitempty"`
	Limit     int               `toml:"limit,omitempty"`
	Languages []string          `toml:"languages,omitempty"`
}

// TomlDigest holds output settings
type TomlDigest struct {
	Title     string   `toml:"title"`
	OutputDir string   `toml:"output_dir"`
	HTMLFile  string   `toml:"html_file,omitempty"`
	Sections  []string `toml:"sections,omitempty"`
}

// TomlHTTP configures auxiliary HTTP calls (weather, horoscope, joke)
type TomlHTTP struct {
	Timeout   time.Duration `toml:"timeout"`
	UserAgent string        `toml:"user_agent"`
}

// TomlHeadlines configures the feed aggregation section
type TomlHeadlines struct {
	Title          string        `toml:"title"`
	PerSourceLimit int           `toml:"per_source_limit"`
	TotalLimit     int           `toml:"total_limit"`
	Keyword        string        `toml:"keyword,omitempty"`
	Exclude        []string      `toml:"exclude,omitempty"`
	Links          bool          `toml:"links"`
	UserAgent      string        `toml:"user_agent,omitempty"`
	Timeout        time.Duration `toml:"timeout,omitempty"` // zero means no timeout
	Sources        []TomlSource  `toml:"sources"`
}

type TomlWeather struct {
	Title string `toml:"title"`
	URL   string `toml:"url"`
	City  string `toml:"city"`
}

type TomlHoroscope struct {
	Title    string `toml:"title"`
	URL      string `toml:"url"`
	Sign     string `toml:"sign"`
	Selector string `toml:"selector"`
}

type TomlMarket struct {
	Title   string   `toml:"title"`
	Symbols []string `toml:"symbols"`
}

type TomlJoke struct {
	Title string `toml:"title"`
	URL   string `toml:"url"`
}

// TomlMail configures the SMTP transport. The password is read from the environment.
type TomlMail struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	TLS      string   `toml:"tls"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
	Username string   `toml:"username,omitempty"`
	Subject  string   `toml:"subject,omitempty"`
	Retries  int      `toml:"retries,omitempty"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Digest    TomlDigest     `toml:"digest"`
	HTTP      TomlHTTP       `toml:"http"`
	Headlines TomlHeadlines  `toml:"headlines"`
	Weather   *TomlWeather   `toml:"weather"`
	Horoscope *TomlHoroscope `toml:"horoscope"`
	Market    *TomlMarket    `toml:"market"`
	Joke      *TomlJoke      `toml:"joke"`
	Mail      *TomlMail      `toml:"mail"`
}

// Credentials for the mail server
type Credentials struct {
	Username string
	Password string
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes, defaults and validates a TOML document
func Parse(data string) (*TomlConfig, error) {
	var config TomlConfig
	meta, err := toml.Decode(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		for _, key := range undecoded {
			last := key[len(key)-1]
			if lo.Contains(secretKeys, strings.ToLower(last)) {
				return nil, fmt.Errorf("config key %q looks like a secret; set %s in the environment instead", key.String(), EnvSMTPPassword)
			}
		}
		keys := lo.Map(undecoded, func(k toml.Key, _ int) string { return k.String() })
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults fills zero values with their defaults
func (c *TomlConfig) ApplyDefaults() {
	if c.Digest.Title == "" {
		c.Digest.Title = "Daily Digest"
	}
	if c.Digest.OutputDir == "" {
		c.Digest.OutputDir = "."
	}
	if len(c.Digest.Sections) == 0 {
		c.Digest.Sections = DefaultSections
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 10 * time.Second
	}

	h := &c.Headlines
	if h.Title == "" {
		h.Title = "Top Headlines"
	}
	if h.PerSourceLimit == 0 {
		h.PerSourceLimit = 5
	}
	if h.TotalLimit == 0 {
		h.TotalLimit = 10
	}
	for i := range h.Sources {
		if h.Sources[i].Name == "" {
			h.Sources[i].Name = hostOf(h.Sources[i].URL)
		}
	}

	if w := c.Weather; w != nil {
		if w.Title == "" {
			w.Title = "Weather"
		}
		if w.URL == "" {
			w.URL = "https://wttr.in/{city}?format=3"
		}
	}
	if hs := c.Horoscope; hs != nil {
		if hs.Title == "" {
			hs.Title = "Horoscope"
		}
		if hs.Selector == "" {
			hs.Selector = "p"
		}
	}
	if m := c.Market; m != nil && m.Title == "" {
		m.Title = "Markets"
	}
	if j := c.Joke; j != nil {
		if j.Title == "" {
			j.Title = "Joke of the Day"
		}
		if j.URL == "" {
			j.URL = "https://icanhazdadjoke.com/"
		}
	}
	if m := c.Mail; m != nil {
		if m.TLS == "" {
			m.TLS = TLSModeSSL
		}
		if m.Port == 0 {
			m.Port = lo.Ternary(m.TLS == TLSModeSSL, 465, 587)
		}
	}
}

// Validate reports the first configuration problem found
func (c *TomlConfig) Validate() error {
	for _, name := range c.Digest.Sections {
		if !lo.Contains(DefaultSections, name) {
			return fmt.Errorf("unknown section %q in digest.sections", name)
		}
	}
	if dup := lo.FindDuplicates(c.Digest.Sections); len(dup) > 0 {
		return fmt.Errorf("section %q listed twice in digest.sections", dup[0])
	}

	h := c.Headlines
	if h.PerSourceLimit < 0 || h.TotalLimit < 0 {
		return errors.New("headlines limits must be positive")
	}
	for i, src := range h.Sources {
		if src.URL == "" {
			return fmt.Errorf("headlines.sources[%d]: url is required", i)
		}
		if !isHTTPURL(ExpandTemplate(src.URL, src.Params)) {
			return fmt.Errorf("headlines.sources[%d]: %s is not an http(s) url", i, src.URL)
		}
		if src.Limit < 0 {
			return fmt.Errorf("headlines.sources[%d]: limit must not be negative", i)
		}
	}

	if hs := c.Horoscope; hs != nil && hs.URL == "" {
		return errors.New("horoscope.url is required")
	}
	if m := c.Market; m != nil && len(m.Symbols) == 0 {
		return errors.New("market.symbols must list at least one symbol")
	}

	if m := c.Mail; m != nil {
		if m.Host == "" {
			return errors.New("mail.host is required")
		}
		if m.From == "" {
			return errors.New("mail.from is required")
		}
		if len(m.To) == 0 {
			return errors.New("mail.to must list at least one recipient")
		}
		if m.TLS != TLSModeSSL && m.TLS != TLSModeStartTLS {
			return fmt.Errorf("mail.tls must be %q or %q", TLSModeSSL, TLSModeStartTLS)
		}
		if m.Retries < 0 {
			return errors.New("mail.retries must not be negative")
		}
	}

	return nil
}

// Credentials resolves the SMTP login from the environment
func (m *TomlMail) Credentials() Credentials {
	username := os.Getenv(EnvSMTPUsername)
	if username == "" {
		username = lo.Ternary(m.Username != "", m.Username, m.From)
	}
	return Credentials{
		Username: username,
		Password: os.Getenv(EnvSMTPPassword),
	}
}

// LoadEnv loads variables from .env style files. Missing files are ignored.
func LoadEnv(paths ...string) error {
	existing := lo.Filter(paths, func(p string, _ int) bool {
		_, err := os.Stat(p)
		return err == nil
	})
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ExpandTemplate replaces {key} placeholders with query-escaped parameter values
func ExpandTemplate(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}
	pairs := make([]string, 0, len(params)*2)
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", url.QueryEscape(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
