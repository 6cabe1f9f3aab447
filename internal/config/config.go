package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	// TestMode shortens the license check timings (EXTRA_ICONS_TEST_MODE).
	TestMode  bool            `yaml:"test_mode" envconfig:"TEST_MODE" default:"false"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	License   LicenseConfig   `yaml:"license" envconfig:"LICENSE"`
	Plugins   PluginsConfig   `yaml:"plugins" envconfig:"PLUGINS"`
	Settings  SettingsConfig  `yaml:"settings" envconfig:"SETTINGS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains the diagnostics HTTP server configuration
type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Host            string        `yaml:"host" envconfig:"HOST" default:"127.0.0.1" validate:"required"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"7417" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/extra-icons.log"`
}

// LicenseConfig configures the license verifiers and the periodic check
type LicenseConfig struct {
	ServerURL      string        `yaml:"server_url" envconfig:"SERVER_URL" default:"https://license.extra-icons.dev" validate:"omitempty,url"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"10s" validate:"gt=0"`
	// RequestsPerMinute throttles outbound calls to the license server.
	RequestsPerMinute int    `yaml:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE" default:"10" validate:"min=1"`
	TokenFile         string `yaml:"token_file" envconfig:"TOKEN_FILE" default:"license.jwt"`
	PublicKey         string `yaml:"public_key" envconfig:"PUBLIC_KEY"`
	// ReactivateOnSuccess re-enables gated icons when a later check succeeds.
	ReactivateOnSuccess bool `yaml:"reactivate_on_success" envconfig:"REACTIVATE_ON_SUCCESS" default:"false"`
	// Delay and Period override the timings derived from TestMode when set.
	Delay  time.Duration `yaml:"delay" envconfig:"DELAY"`
	Period time.Duration `yaml:"period" envconfig:"PERIOD"`
}

// PluginsConfig points at the host plugin manifests
type PluginsConfig struct {
	Dir       string `yaml:"dir" envconfig:"DIR" default:"plugins"`
	Component string `yaml:"component" envconfig:"COMPONENT" default:"extra-icons-core" validate:"required"`
}

// SettingsConfig locates the user icon settings
type SettingsConfig struct {
	File  string `yaml:"file" envconfig:"FILE" default:"extra-icons.yaml"`
	Watch bool   `yaml:"watch" envconfig:"WATCH" default:"true"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT" default:"production"`
}

var validate = validator.New()

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration from environment variables and the given YAML
// file. An empty path means env vars and defaults only.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileConfig, flags, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileConfig, flags, cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileFlags records which booleans the YAML file sets, since false cannot be
// told apart from absent in Config.
type fileFlags struct {
	TestMode *bool `yaml:"test_mode"`
	Server   struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"server"`
	License struct {
		ReactivateOnSuccess *bool `yaml:"reactivate_on_success"`
	} `yaml:"license"`
	Settings struct {
		Watch *bool `yaml:"watch"`
	} `yaml:"settings"`
	Telemetry struct {
		EnableMetrics *bool `yaml:"enable_metrics"`
		EnableTracing *bool `yaml:"enable_tracing"`
	} `yaml:"telemetry"`
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, *fileFlags, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, err
	}
	var flags fileFlags
	if err := yaml.Unmarshal(data, &flags); err != nil {
		return nil, nil, err
	}

	return &cfg, &flags, nil
}

// mergeConfigs merges file config with env config. Values explicitly set in the
// environment win; otherwise a value present in the file replaces the env
// default.
func mergeConfigs(file Config, flags *fileFlags, env Config) Config {
	mergeBool(&env.TestMode, flags.TestMode, "TEST_MODE")

	mergeBool(&env.Server.Enabled, flags.Server.Enabled, "SERVER_ENABLED")
	mergeValue(&env.Server.Host, file.Server.Host, "SERVER_HOST")
	mergeValue(&env.Server.Port, file.Server.Port, "SERVER_PORT")
	mergeValue(&env.Server.ReadTimeout, file.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	mergeValue(&env.Server.WriteTimeout, file.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	mergeValue(&env.Server.IdleTimeout, file.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	mergeValue(&env.Server.ShutdownTimeout, file.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	mergeValue(&env.Server.RateLimitRPS, file.Server.RateLimitRPS, "SERVER_RATE_LIMIT_RPS")
	mergeValue(&env.Server.RateLimitBurst, file.Server.RateLimitBurst, "SERVER_RATE_LIMIT_BURST")

	mergeValue(&env.Logging.Level, file.Logging.Level, "LOGGING_LEVEL")
	mergeValue(&env.Logging.Format, file.Logging.Format, "LOGGING_FORMAT")
	mergeValue(&env.Logging.Output, file.Logging.Output, "LOGGING_OUTPUT")
	mergeValue(&env.Logging.FilePath, file.Logging.FilePath, "LOGGING_FILE_PATH")

	mergeValue(&env.License.ServerURL, file.License.ServerURL, "LICENSE_SERVER_URL")
	mergeValue(&env.License.RequestTimeout, file.License.RequestTimeout, "LICENSE_REQUEST_TIMEOUT")
	mergeValue(&env.License.RequestsPerMinute, file.License.RequestsPerMinute, "LICENSE_REQUESTS_PER_MINUTE")
	mergeValue(&env.License.TokenFile, file.License.TokenFile, "LICENSE_TOKEN_FILE")
	mergeValue(&env.License.PublicKey, file.License.PublicKey, "LICENSE_PUBLIC_KEY")
	mergeBool(&env.License.ReactivateOnSuccess, flags.License.ReactivateOnSuccess, "LICENSE_REACTIVATE_ON_SUCCESS")
	mergeValue(&env.License.Delay, file.License.Delay, "LICENSE_DELAY")
	mergeValue(&env.License.Period, file.License.Period, "LICENSE_PERIOD")

	mergeValue(&env.Plugins.Dir, file.Plugins.Dir, "PLUGINS_DIR")
	mergeValue(&env.Plugins.Component, file.Plugins.Component, "PLUGINS_COMPONENT")

	mergeValue(&env.Settings.File, file.Settings.File, "SETTINGS_FILE")
	mergeBool(&env.Settings.Watch, flags.Settings.Watch, "SETTINGS_WATCH")

	mergeBool(&env.Telemetry.EnableMetrics, flags.Telemetry.EnableMetrics, "TELEMETRY_ENABLE_METRICS")
	mergeBool(&env.Telemetry.EnableTracing, flags.Telemetry.EnableTracing, "TELEMETRY_ENABLE_TRACING")
	mergeValue(&env.Telemetry.Environment, file.Telemetry.Environment, "TELEMETRY_ENVIRONMENT")

	return env
}

// mergeValue copies a non-zero file value unless the env var is set
func mergeValue[T comparable](dst *T, fileValue T, suffix string) {
	var zero T
	if fileValue != zero && !envSet(suffix) {
		*dst = fileValue
	}
}

// mergeBool copies a boolean the file sets explicitly unless the env var is set
func mergeBool(dst *bool, fileValue *bool, suffix string) {
	if fileValue != nil && !envSet(suffix) {
		*dst = *fileValue
	}
}

func envSet(suffix string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + suffix)
	return ok
}

// validate validates the configuration
func (c *Config) validate() error {
	// Always JSON, like every other component log stream.
	c.Logging.Format = "json"

	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.License.Delay < 0 || c.License.Period < 0 {
		return fmt.Errorf("license check delay and period must not be negative")
	}

	return nil
}

// CheckTimings returns the initial delay and the period of the periodic license
// check. Explicit overrides win over the test mode toggle.
func (c *Config) CheckTimings() (delay, period time.Duration) {
	delay, period = CheckTimings(c.TestMode)
	if c.License.Delay > 0 {
		delay = c.License.Delay
	}
	if c.License.Period > 0 {
		period = c.License.Period
	}
	return delay, period
}

// CheckTimings returns the production or test mode license check timings.
func CheckTimings(testMode bool) (delay, period time.Duration) {
	if testMode {
		return TestCheckDelay, TestCheckPeriod
	}
	return CheckDelay, CheckPeriod
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	locations := []string{
		"extra-icons.config.yaml",
		"configs/extra-icons.config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Enabled:         true,
			Host:            "127.0.0.1",
			Port:            7417,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    20,
			RateLimitBurst:  10,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/extra-icons.log",
		},
		License: LicenseConfig{
			ServerURL:         DefaultLicenseServerURL,
			RequestTimeout:    LicenseCheckTimeout,
			RequestsPerMinute: 10,
			TokenFile:         "license.jwt",
		},
		Plugins: PluginsConfig{
			Dir:       "plugins",
			Component: ComponentName,
		},
		Settings: SettingsConfig{
			File:  "extra-icons.yaml",
			Watch: true,
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			Environment:   "production",
		},
	}
}
