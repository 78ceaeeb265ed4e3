// Package config loads server settings from an optional YAML file overlaid
// with environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	platformgithub "github.com/tilsley/repomark/apps/server/internal/platform/github"
)

// Config is the full server configuration. Every field can come from the
// YAML file named by REPOMARK_CONFIG; environment variables win.
type Config struct {
	Port         string `yaml:"port"`
	GitHubAPIURL string `yaml:"githubApiUrl"`

	OAuth OAuth `yaml:"oauth"`

	RedisAddr   string `yaml:"redisAddr"`
	PostgresURL string `yaml:"postgresUrl"`
	OTelEnabled bool   `yaml:"otelEnabled"`

	ConversionTimeout time.Duration `yaml:"conversionTimeout"`
	FetchConcurrency  int           `yaml:"fetchConcurrency"`

	DefaultExcludes Excludes `yaml:"defaultExcludes"`
}

// OAuth identifies the GitHub OAuth application used by the login flow.
type OAuth struct {
	ClientID     string        `yaml:"clientId"`
	ClientSecret string        `yaml:"clientSecret"`
	RedirectURL  string        `yaml:"redirectUrl"`
	AuthURL      string        `yaml:"authUrl"`
	TokenURL     string        `yaml:"tokenUrl"`
	StateTTL     time.Duration `yaml:"stateTtl"`
}

// Excludes are comma-separated rule lists applied to every conversion in
// addition to the request's own.
type Excludes struct {
	Types string `yaml:"types"`
	Dirs  string `yaml:"dirs"`
	Files string `yaml:"files"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:              "8080",
		GitHubAPIURL:      "https://api.github.com",
		ConversionTimeout: 2 * time.Minute,
		FetchConcurrency:  4,
		OAuth:             OAuth{StateTTL: 10 * time.Minute},
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from defaults, then the YAML file named by
// REPOMARK_CONFIG (if any), then the environment as seen through getenv.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Defaults()

	if path := getenv("REPOMARK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	env := envReader{getenv: getenv}
	env.str("PORT", &cfg.Port)
	env.str("GITHUB_API_URL", &cfg.GitHubAPIURL)
	env.str("GITHUB_CLIENT_ID", &cfg.OAuth.ClientID)
	env.str("GITHUB_CLIENT_SECRET", &cfg.OAuth.ClientSecret)
	env.str("GITHUB_OAUTH_REDIRECT_URL", &cfg.OAuth.RedirectURL)
	env.str("GITHUB_OAUTH_AUTH_URL", &cfg.OAuth.AuthURL)
	env.str("GITHUB_OAUTH_TOKEN_URL", &cfg.OAuth.TokenURL)
	env.duration("OAUTH_STATE_TTL", &cfg.OAuth.StateTTL)
	env.str("REDIS_ADDR", &cfg.RedisAddr)
	env.str("POSTGRES_URL", &cfg.PostgresURL)
	env.boolean("OTEL_ENABLED", &cfg.OTelEnabled)
	env.duration("CONVERSION_TIMEOUT", &cfg.ConversionTimeout)
	env.integer("FETCH_CONCURRENCY", &cfg.FetchConcurrency)
	env.str("DEFAULT_EXCLUDE_TYPES", &cfg.DefaultExcludes.Types)
	env.str("DEFAULT_EXCLUDE_DIRS", &cfg.DefaultExcludes.Dirs)
	env.str("DEFAULT_EXCLUDE_FILES", &cfg.DefaultExcludes.Files)
	if env.err != nil {
		return Config{}, env.err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	if c.GitHubAPIURL == "" {
		errs = append(errs, errors.New("githubApiUrl must be set"))
	} else if _, err := platformgithub.ParseAPIURL(c.GitHubAPIURL); err != nil {
		errs = append(errs, fmt.Errorf("githubApiUrl: %w", err))
	}
	if c.FetchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("fetchConcurrency must be at least 1, got %d", c.FetchConcurrency))
	}
	if c.ConversionTimeout < 0 {
		errs = append(errs, fmt.Errorf("conversionTimeout must not be negative, got %s", c.ConversionTimeout))
	}
	return errors.Join(errs...)
}

// envReader overlays set environment variables and keeps the first parse error.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v := e.getenv(key); v != "" {
		*dst = v
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	e.parse(key, func(v string) error {
		b, err := strconv.ParseBool(v)
		*dst = b
		return err
	})
}

func (e *envReader) integer(key string, dst *int) {
	e.parse(key, func(v string) error {
		n, err := strconv.Atoi(v)
		*dst = n
		return err
	})
}

func (e *envReader) duration(key string, dst *time.Duration) {
	e.parse(key, func(v string) error {
		d, err := time.ParseDuration(v)
		*dst = d
		return err
	})
}

func (e *envReader) parse(key string, set func(string) error) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	if err := set(v); err != nil {
		e.err = fmt.Errorf("env %s: %w", key, err)
	}
}
