package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig locates and decodes the complaint export.
type InputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"` // empty = detect
	Encoding  string `yaml:"encoding" mapstructure:"encoding"`
}

// OutputConfig locates the results file.
type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// GeocodeConfig configures the 2GIS geocoder.
type GeocodeConfig struct {
	APIKey        string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	City          string        `yaml:"city" mapstructure:"city"`
	CityID        string        `yaml:"city_id" mapstructure:"city_id"`
	ResolveCityID bool          `yaml:"resolve_city_id" mapstructure:"resolve_city_id"`
	BBox          []float64     `yaml:"bbox" mapstructure:"bbox"` // lon1, lat1, lon2, lat2
	TimeoutSecs   int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit     float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	CacheSize     int           `yaml:"cache_size" mapstructure:"cache_size"`
	Retry         RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit       CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig configures retries of transient geocoder failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the geocoder circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EnvFiles are loaded into the environment before configuration is read.
// Variables already set are not overridden and missing files are ignored.
var EnvFiles = []string{"configs/.env", ".env"}

// Load reads configuration from .env files, config file and environment.
func Load() (*Config, error) {
	for _, f := range EnvFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// Environment
	v.SetEnvPrefix("NOISEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.path", "data/noise.csv")
	v.SetDefault("input.delimiter", "")
	v.SetDefault("input.encoding", "utf-8")
	v.SetDefault("output.path", "data/noise_analysis_results.json")
	v.SetDefault("geocode.api_key", "")
	v.SetDefault("geocode.base_url", "https://catalog.api.2gis.com/3.0/items/geocode")
	v.SetDefault("geocode.city", "Москва")
	v.SetDefault("geocode.city_id", "")
	v.SetDefault("geocode.resolve_city_id", false)
	v.SetDefault("geocode.bbox", []float64{})
	v.SetDefault("geocode.timeout_secs", 5)
	v.SetDefault("geocode.rate_limit", 10)
	v.SetDefault("geocode.cache_size", 10000)
	v.SetDefault("geocode.retry.max_attempts", 3)
	v.SetDefault("geocode.retry.initial_backoff_ms", 500)
	v.SetDefault("geocode.retry.max_backoff_ms", 10000)
	v.SetDefault("geocode.circuit.failure_threshold", 5)
	v.SetDefault("geocode.circuit.reset_timeout_secs", 30)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "data/noisemap.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot use.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Input.Path) == "" {
		errs = append(errs, eris.New("input.path is required"))
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		errs = append(errs, eris.New("output.path is required"))
	}
	if d := []rune(c.Input.Delimiter); len(d) > 1 && c.Input.Delimiter != `\t` {
		errs = append(errs, eris.Errorf("input.delimiter must be a single character, got %q", c.Input.Delimiter))
	}
	if n := len(c.Geocode.BBox); n != 0 && n != 4 {
		errs = append(errs, eris.Errorf("geocode.bbox needs 4 values (lon1, lat1, lon2, lat2), got %d", n))
	}
	if c.Geocode.RateLimit < 0 {
		errs = append(errs, eris.New("geocode.rate_limit must not be negative"))
	}
	if c.Geocode.TimeoutSecs < 0 {
		errs = append(errs, eris.New("geocode.timeout_secs must not be negative"))
	}

	if len(errs) > 0 {
		return eris.Wrap(errors.Join(errs...), "config: invalid")
	}
	return nil
}

// DelimiterRune returns the configured input delimiter, or 0 to detect it.
// The two-character form `\t` is accepted for tab.
func (c InputConfig) DelimiterRune() rune {
	switch c.Delimiter {
	case "":
		return 0
	case `\t`:
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Geocode.APIKey != "" {
		c.Geocode.APIKey = "***"
	}
	c.Geocode.BBox = append([]float64(nil), c.Geocode.BBox...)
	return c
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
