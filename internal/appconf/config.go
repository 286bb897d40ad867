// Package appconf assembles the service configuration from defaults, an
// optional YAML file, environment variables and command-line flags, in
// increasing order of precedence.
package appconf

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variable of every flag: -feed-source
// is read from STRAETO_FEED_SOURCE.
const EnvPrefix = "STRAETO_"

type Config struct {
	Port      int         `yaml:"port" validate:"gt=0,lte=65535"`
	Env       Environment `yaml:"env"`
	ApiKeys   []string    `yaml:"apiKeys" validate:"required,min=1,dive,required"`
	RateLimit int         `yaml:"rateLimit" validate:"gte=0"`
	LogLevel  string      `yaml:"logLevel" validate:"omitempty,oneof=debug info warn warning error"`

	// Keys never rate limited, e.g. the operator's own monitoring.
	RateLimitExemptKeys []string `yaml:"rateLimitExemptKeys" validate:"dive,required"`

	FeedSource          string        `yaml:"feedSource" validate:"required"`
	FeedCachePath       string        `yaml:"feedCachePath"`
	FeedRefreshInterval time.Duration `yaml:"feedRefreshInterval" validate:"gte=0"`

	VehiclePositionsURL     string        `yaml:"vehiclePositionsURL" validate:"omitempty,url"`
	RealTimeAuthHeaderKey   string        `yaml:"realTimeAuthHeaderKey"`
	RealTimeAuthHeaderValue string        `yaml:"realTimeAuthHeaderValue"`
	RealTimeInterval        time.Duration `yaml:"realTimeInterval" validate:"gte=0"`

	MetricsAddr string `yaml:"metricsAddr" validate:"omitempty,hostname_port"`
	NATSURL     string `yaml:"natsURL" validate:"omitempty,url"`
	NATSSubject string `yaml:"natsSubject"`

	TimeZone     string   `yaml:"timeZone" validate:"required"`
	AreaPriority []string `yaml:"areaPriority" validate:"dive,alphanum"`
}

func Default() Config {
	return Config{
		Port:                4000,
		Env:                 Development,
		ApiKeys:             []string{"test"},
		RateLimit:           100,
		LogLevel:            "info",
		FeedSource:          "https://opendata.straeto.is/data/gtfs/gtfs.zip",
		FeedRefreshInterval: 24 * time.Hour,
		RealTimeInterval:    60 * time.Second,
		TimeZone:            "Atlantic/Reykjavik",
		AreaPriority:        []string{"ST", "SU", "VL", "SN", "NO", "RY", "AF"},
	}
}

// Location loads the configured time zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid time zone: %w", err)
	}
	return nil
}

// stringList is a comma separated flag value.
type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(s string) error {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}

func bind(fs *flag.FlagSet, c *Config) {
	fs.IntVar(&c.Port, "port", c.Port, "API server port")
	fs.Var(&c.Env, "env", "Environment (development|test|production)")
	fs.Var((*stringList)(&c.ApiKeys), "api-keys", "Comma separated API keys")
	fs.IntVar(&c.RateLimit, "rate-limit", c.RateLimit, "Requests per second per API key")
	fs.Var((*stringList)(&c.RateLimitExemptKeys), "rate-limit-exempt", "Comma separated API keys exempt from rate limiting")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&c.FeedSource, "feed-source", c.FeedSource, "Path or URL of the zipped GTFS feed")
	fs.StringVar(&c.FeedCachePath, "feed-cache", c.FeedCachePath, "File keeping the last downloaded feed")
	fs.DurationVar(&c.FeedRefreshInterval, "feed-refresh", c.FeedRefreshInterval, "How often to download the feed")
	fs.StringVar(&c.VehiclePositionsURL, "vehicle-positions-url", c.VehiclePositionsURL, "URL of the GTFS-Realtime vehicle positions feed")
	fs.StringVar(&c.RealTimeAuthHeaderKey, "realtime-auth-header-name", c.RealTimeAuthHeaderKey, "Header sent with real-time requests")
	fs.StringVar(&c.RealTimeAuthHeaderValue, "realtime-auth-header-value", c.RealTimeAuthHeaderValue, "Value of the real-time header")
	fs.DurationVar(&c.RealTimeInterval, "realtime-interval", c.RealTimeInterval, "How often to fetch vehicle positions")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Listen address of the metrics server, empty to disable")
	fs.StringVar(&c.NATSURL, "nats-url", c.NATSURL, "NATS server for reload events, empty to disable")
	fs.StringVar(&c.NATSSubject, "nats-subject", c.NATSSubject, "NATS subject for reload events")
	fs.StringVar(&c.TimeZone, "tz", c.TimeZone, "Time zone of the service day")
	fs.Var((*stringList)(&c.AreaPriority), "area-priority", "Comma separated route area prefixes in lookup order")
}

// EnvName is the environment variable consulted for a flag.
func EnvName(flagName string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// Load parses args. The YAML file named by -config, or by STRAETO_CONFIG,
// is applied over the defaults, then environment variables, then the flags
// given in args. lookupEnv is os.LookupEnv when nil; variables in dotenv
// files are consulted after it.
func Load(args []string, lookupEnv func(string) (string, bool), dotenv ...string) (Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	fileVars := map[string]string{}
	for _, path := range dotenv {
		vars, err := godotenv.Read(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		for k, v := range vars {
			if _, seen := fileVars[k]; !seen {
				fileVars[k] = v
			}
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	var parsed Config
	cli := flag.NewFlagSet("straeto", flag.ContinueOnError)
	cli.SetOutput(io.Discard)
	configPath := cli.String("config", "", "YAML configuration file")
	bind(cli, &parsed)
	if err := cli.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	path := *configPath
	if path == "" {
		path, _ = lookup(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	layer := flag.NewFlagSet("straeto", flag.ContinueOnError)
	bind(layer, &cfg)
	var err error
	layer.VisitAll(func(f *flag.Flag) {
		if v, ok := lookup(EnvName(f.Name)); ok && err == nil {
			if setErr := layer.Set(f.Name, v); setErr != nil {
				err = fmt.Errorf("%s: %w", EnvName(f.Name), setErr)
			}
		}
	})
	cli.Visit(func(f *flag.Flag) {
		if f.Name == "config" || err != nil {
			return
		}
		if setErr := layer.Set(f.Name, f.Value.String()); setErr != nil {
			err = fmt.Errorf("-%s: %w", f.Name, setErr)
		}
	})
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
