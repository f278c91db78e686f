package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/xeptore/beatportdl/redact"
)

const defaultFilename = "config.yaml"

type Config struct {
	Log      Log      `yaml:"log"`
	Beatport Beatport `yaml:"beatport"`
	Session  Session  `yaml:"session"`
	Download Download `yaml:"download"`
}

func (c *Config) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Dict("log", c.Log.ToDict()).
		Dict("beatport", c.Beatport.ToDict()).
		Dict("session", c.Session.ToDict()).
		Dict("download", c.Download.ToDict())
}

func (c *Config) setDefaults() {
	c.Log.setDefaults()
	c.Beatport.setDefaults()
	c.Session.setDefaults()
	c.Download.setDefaults()
}

func (c *Config) validate() error {
	if err := c.Log.validate(); nil != err {
		return fmt.Errorf("log config validation failed: %v", err)
	}

	if err := c.Beatport.validate(); nil != err {
		return fmt.Errorf("beatport config validation failed: %v", err)
	}

	if err := c.Session.validate(); nil != err {
		return fmt.Errorf("session config validation failed: %v", err)
	}

	if err := c.Download.validate(); nil != err {
		return fmt.Errorf("download config validation failed: %v", err)
	}

	return nil
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Log) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("level", c.Level).
		Str("format", c.Format)
}

func (c *Log) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "pretty"
	}
}

func (c *Log) validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error", "fatal", "panic"}, c.Level) {
		return fmt.Errorf(
			"level must be one of: debug, info, warn, error, fatal, panic, got: %s",
			c.Level,
		)
	}

	if !slices.Contains([]string{"json", "pretty"}, c.Format) {
		return fmt.Errorf("format must be 'json' or 'pretty', got: %s", c.Format)
	}

	return nil
}

type Beatport struct {
	Username          string    `yaml:"username"`
	Password          string    `yaml:"-"`
	Anonymous         bool      `yaml:"anonymous"`
	APIURL            string    `yaml:"api_url"`
	WebURL            string    `yaml:"web_url"`
	SubscriptionCheck *bool     `yaml:"subscription_check"`
	CoverSize         int       `yaml:"cover_size"`
	ValidateStreamURL *bool     `yaml:"validate_stream_url"`
	RateLimit         RateLimit `yaml:"rate_limit"`
	Timeouts          Timeouts  `yaml:"timeouts"`
}

func (c *Beatport) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("username", c.Username).
		Str("password", redact.String(c.Password)).
		Bool("anonymous", c.Anonymous).
		Str("api_url", c.APIURL).
		Str("web_url", c.WebURL).
		Bool("subscription_check", c.ShouldCheckSubscription()).
		Int("cover_size", c.CoverSize).
		Bool("validate_stream_url", c.ShouldValidateStreamURL()).
		Dict("rate_limit", c.RateLimit.ToDict()).
		Dict("timeouts", c.Timeouts.ToDict())
}

func (c *Beatport) ShouldCheckSubscription() bool {
	return nil == c.SubscriptionCheck || *c.SubscriptionCheck
}

func (c *Beatport) ShouldValidateStreamURL() bool {
	return nil == c.ValidateStreamURL || *c.ValidateStreamURL
}

func (c *Beatport) setDefaults() {
	if c.APIURL == "" {
		c.APIURL = "https://api.beatport.com/v4/"
	}

	if c.WebURL == "" {
		c.WebURL = "https://www.beatport.com/"
	}

	if c.CoverSize == 0 {
		c.CoverSize = 1400
	}

	c.RateLimit.setDefaults()
	c.Timeouts.setDefaults()
}

func (c *Beatport) validate() error {
	for name, v := range map[string]string{"api_url": c.APIURL, "web_url": c.WebURL} {
		u, err := url.Parse(v)
		if nil != err {
			return fmt.Errorf("%s is not a valid url: %v", name, err)
		}

		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) url, got: %s", name, v)
		}

		if !strings.HasSuffix(u.Path, "/") {
			return fmt.Errorf("%s must end with a slash, got: %s", name, v)
		}
	}

	if c.CoverSize < 0 {
		return errors.New("cover_size must be greater than 0")
	}

	if err := c.RateLimit.validate(); nil != err {
		return fmt.Errorf("rate_limit config validation failed: %v", err)
	}

	if err := c.Timeouts.validate(); nil != err {
		return fmt.Errorf("timeouts config validation failed: %v", err)
	}

	return nil
}

type RateLimit struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

func (c *RateLimit) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Float64("per_second", c.PerSecond).
		Int("burst", c.Burst)
}

func (c *RateLimit) setDefaults() {
	if c.PerSecond == 0 {
		c.PerSecond = 5
	}

	if c.Burst == 0 {
		c.Burst = 5
	}
}

func (c *RateLimit) validate() error {
	if c.PerSecond < 0 {
		return errors.New("per_second must be greater than 0")
	}

	if c.Burst < 0 {
		return errors.New("burst must be greater than 0")
	}

	return nil
}

// Timeouts are in seconds.
type Timeouts struct {
	Auth        int `yaml:"auth"`
	Catalog     int `yaml:"catalog"`
	StreamCheck int `yaml:"stream_check"`
	Download    int `yaml:"download"`
}

func (c *Timeouts) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Int("auth", c.Auth).
		Int("catalog", c.Catalog).
		Int("stream_check", c.StreamCheck).
		Int("download", c.Download)
}

func (c *Timeouts) setDefaults() {
	if c.Auth == 0 {
		c.Auth = 10
	}

	if c.Catalog == 0 {
		c.Catalog = 10
	}

	if c.StreamCheck == 0 {
		c.StreamCheck = 5
	}

	if c.Download == 0 {
		c.Download = 120
	}
}

func (c *Timeouts) validate() error {
	if c.Auth < 0 {
		return errors.New("auth must be greater than 0")
	}

	if c.Catalog < 0 {
		return errors.New("catalog must be greater than 0")
	}

	if c.StreamCheck < 0 {
		return errors.New("stream_check must be greater than 0")
	}

	if c.Download < 0 {
		return errors.New("download must be greater than 0")
	}

	return nil
}

type Session struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

func (c *Session) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("backend", c.Backend).
		Str("path", c.Path)
}

func (c *Session) setDefaults() {
	if c.Backend == "" {
		c.Backend = "bolt"
	}

	if c.Path == "" {
		c.Path = lo.Ternary(c.Backend == "file", "./beatport-session.json", "./beatport.db")
	}
}

func (c *Session) validate() error {
	if !slices.Contains([]string{"bolt", "file"}, c.Backend) {
		return fmt.Errorf("backend must be 'bolt' or 'file', got: %s", c.Backend)
	}

	return nil
}

type Download struct {
	Dir         string `yaml:"dir"`
	Quality     string `yaml:"quality"`
	MaxRetries  int    `yaml:"max_retries"`
	Concurrency int    `yaml:"concurrency"`
}

func (c *Download) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("dir", c.Dir).
		Str("quality", c.Quality).
		Int("max_retries", c.MaxRetries).
		Int("concurrency", c.Concurrency)
}

func (c *Download) setDefaults() {
	if c.Dir == "" {
		c.Dir = "./downloads"
	}

	if c.Quality == "" {
		c.Quality = "lossless"
	}

	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}

	if c.Concurrency == 0 {
		c.Concurrency = 2
	}
}

func (c *Download) validate() error {
	if !slices.Contains([]string{"minimum", "low", "medium", "high", "lossless", "hifi"}, c.Quality) {
		return fmt.Errorf(
			"quality must be one of: minimum, low, medium, high, lossless, hifi, got: %s",
			c.Quality,
		)
	}

	if c.MaxRetries < 0 {
		return errors.New("max_retries must be greater than 0")
	}

	if c.Concurrency < 1 || c.Concurrency > 8 {
		return fmt.Errorf("concurrency must be between 1 and 8, got: %d", c.Concurrency)
	}

	if i, err := os.Stat(c.Dir); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat dir: %v", err)
		}
	} else if !i.IsDir() {
		return errors.New("dir must be a directory")
	}

	return nil
}

// Load reads filename, falling back to config.yaml. A missing default file
// is not an error; the configuration is then built from defaults and the
// environment alone.
func Load(filename string) (*Config, error) {
	name := lo.Ternary(len(filename) > 0, filename, defaultFilename)

	var conf Config
	data, err := os.ReadFile(name)
	switch {
	case nil == err:
		if err := yaml.Unmarshal(data, &conf); nil != err {
			return nil, fmt.Errorf("failed to parse config file %s: %v", name, err)
		}
	case errors.Is(err, os.ErrNotExist) && len(filename) == 0:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %v", name, err)
	}

	if username := os.Getenv("BEATPORT_USERNAME"); username != "" {
		conf.Beatport.Username = username
	}
	conf.Beatport.Password = os.Getenv("BEATPORT_PASSWORD")
	conf.setDefaults()

	if err := conf.validate(); nil != err {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return &conf, nil
}
