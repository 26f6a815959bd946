package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	envPrefix = "BOOKREVIEW_"

	defaultAPIBaseURL = "http://localhost:8080/api"
	defaultDBPath     = "bookreview.db"
	defaultLogPath    = "bookreview.log"
	defaultPageLimit  = 10
	maxPageLimit      = 100
)

// Config holds runtime settings for the CLI app.
type Config struct {
	APIBaseURL string
	DBPath     string
	PageLimit  int
	LogPath    string
	LogLevel   string
	LogFormat  string
}

// LoadFromEnv reads BOOKREVIEW_* variables, optionally layered over the YAML
// file named by BOOKREVIEW_CONFIG.
func LoadFromEnv() (Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
	}), nil); err != nil {
		return Config{}, errors.Wrap(err, "load env variables")
	}

	cfg := Config{
		APIBaseURL: k.String("api_base_url"),
		DBPath:     k.String("db_path"),
		LogPath:    k.String("log_path"),
		LogLevel:   k.String("log_level"),
		LogFormat:  k.String("log_format"),
	}

	if raw := strings.TrimSpace(k.String("page_limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse page_limit %q", raw)
		}
		cfg.PageLimit = limit
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.PageLimit == 0 {
		cfg.PageLimit = defaultPageLimit
	}
	if cfg.LogPath == "" {
		cfg.LogPath = defaultLogPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "pretty"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("APIBaseURL is required")
	}
	if c.APIBaseURL[len(c.APIBaseURL)-1] == '/' {
		return errors.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return errors.Wrap(err, "parse APIBaseURL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("APIBaseURL must be an http(s) URL: %s", c.APIBaseURL)
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.PageLimit < 1 || c.PageLimit > maxPageLimit {
		return errors.Errorf("PageLimit must be between 1 and %d: %d", maxPageLimit, c.PageLimit)
	}
	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return errors.Errorf("LogFormat must be pretty or json: %s", c.LogFormat)
	}
	return nil
}
