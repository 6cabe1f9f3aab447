package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the tests touch; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		TestModeEnv,
		"EXTRA_ICONS_CONFIG",
		"EXTRA_ICONS_SERVER_PORT",
		"EXTRA_ICONS_LOGGING_LEVEL",
		"EXTRA_ICONS_LOGGING_OUTPUT",
		"EXTRA_ICONS_LICENSE_SERVER_URL",
		"EXTRA_ICONS_LICENSE_DELAY",
		"EXTRA_ICONS_LICENSE_PERIOD",
		"EXTRA_ICONS_PLUGINS_DIR",
		"EXTRA_ICONS_SERVER_ENABLED",
		"EXTRA_ICONS_SETTINGS_WATCH",
		"EXTRA_ICONS_TELEMETRY_ENABLE_METRICS",
		"EXTRA_ICONS_TELEMETRY_ENABLE_TRACING",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.TestMode)
				assert.Equal(t, 7417, cfg.Server.Port)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, DefaultLicenseServerURL, cfg.License.ServerURL)
				assert.Equal(t, ComponentName, cfg.Plugins.Component)
				assert.False(t, cfg.License.ReactivateOnSuccess)
			},
		},
		{
			name: "test mode from env",
			env:  map[string]string{TestModeEnv: "true"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.TestMode)
			},
		},
		{
			name: "env overrides",
			env: map[string]string{
				"EXTRA_ICONS_SERVER_PORT":        "9000",
				"EXTRA_ICONS_LOGGING_LEVEL":      "debug",
				"EXTRA_ICONS_LICENSE_SERVER_URL": "http://127.0.0.1:8080",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "http://127.0.0.1:8080", cfg.License.ServerURL)
			},
		},
		{
			name: "file values fill in where env is unset",
			file: "server:\n  port: 8123\nplugins:\n  dir: /opt/ide/plugins\nlicense:\n  reactivate_on_success: true\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8123, cfg.Server.Port)
				assert.Equal(t, "/opt/ide/plugins", cfg.Plugins.Dir)
				assert.True(t, cfg.License.ReactivateOnSuccess)
			},
		},
		{
			name: "every file section is merged",
			file: `server:
  enabled: false
  read_timeout: 3s
  rate_limit_rps: 5
  rate_limit_burst: 2
license:
  delay: 5s
  period: 10m
  request_timeout: 2s
  requests_per_minute: 30
plugins:
  component: extra-icons-lite
settings:
  watch: false
telemetry:
  enable_metrics: false
  enable_tracing: true
  environment: staging
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Server.Enabled)
				assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 5.0, cfg.Server.RateLimitRPS)
				assert.Equal(t, 2, cfg.Server.RateLimitBurst)
				assert.Equal(t, 2*time.Second, cfg.License.RequestTimeout)
				assert.Equal(t, 30, cfg.License.RequestsPerMinute)
				assert.Equal(t, "extra-icons-lite", cfg.Plugins.Component)
				assert.False(t, cfg.Settings.Watch)
				assert.False(t, cfg.Telemetry.EnableMetrics)
				assert.True(t, cfg.Telemetry.EnableTracing)
				assert.Equal(t, "staging", cfg.Telemetry.Environment)

				delay, period := cfg.CheckTimings()
				assert.Equal(t, 5*time.Second, delay)
				assert.Equal(t, 10*time.Minute, period)
			},
		},
		{
			name: "env wins over file booleans and timings",
			env: map[string]string{
				"EXTRA_ICONS_SETTINGS_WATCH": "true",
				"EXTRA_ICONS_LICENSE_DELAY":  "1s",
			},
			file: "settings:\n  watch: false\nlicense:\n  delay: 5s\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Settings.Watch)
				assert.Equal(t, time.Second, cfg.License.Delay)
			},
		},
		{
			name: "env wins over file",
			env:  map[string]string{"EXTRA_ICONS_SERVER_PORT": "9001"},
			file: "server:\n  port: 8123\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9001, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"EXTRA_ICONS_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"EXTRA_ICONS_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "malformed boolean",
			env:     map[string]string{TestModeEnv: "sometimes"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [port",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestCheckTimings(t *testing.T) {
	t.Run("production timings", func(t *testing.T) {
		delay, period := CheckTimings(false)
		assert.Equal(t, int64(30000), delay.Milliseconds())
		assert.Equal(t, int64(3600000), period.Milliseconds())
	})

	t.Run("test mode timings", func(t *testing.T) {
		delay, period := CheckTimings(true)
		assert.Equal(t, int64(3000), delay.Milliseconds())
		assert.Equal(t, int64(240000), period.Milliseconds())
	})

	t.Run("env toggle drives config timings", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(TestModeEnv, "true")
		cfg, err := LoadFrom("")
		require.NoError(t, err)
		delay, period := cfg.CheckTimings()
		assert.Equal(t, 3*time.Second, delay)
		assert.Equal(t, 4*time.Minute, period)
	})

	t.Run("unset toggle drives production timings", func(t *testing.T) {
		clearEnv(t)
		cfg, err := LoadFrom("")
		require.NoError(t, err)
		delay, period := cfg.CheckTimings()
		assert.Equal(t, 30*time.Second, delay)
		assert.Equal(t, time.Hour, period)
	})

	t.Run("explicit overrides win", func(t *testing.T) {
		cfg := Default()
		cfg.TestMode = true
		cfg.License.Delay = 50 * time.Millisecond
		cfg.License.Period = 200 * time.Millisecond
		delay, period := cfg.CheckTimings()
		assert.Equal(t, 50*time.Millisecond, delay)
		assert.Equal(t, 200*time.Millisecond, period)
	})
}

func TestValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		cfg := Default()
		assert.NoError(t, cfg.validate())
	})

	t.Run("format is forced to json", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Format = "text"
		require.NoError(t, cfg.validate())
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("negative period rejected", func(t *testing.T) {
		cfg := Default()
		cfg.License.Period = -time.Second
		assert.Error(t, cfg.validate())
	})

	t.Run("bad license url rejected", func(t *testing.T) {
		cfg := Default()
		cfg.License.ServerURL = "not a url"
		assert.Error(t, cfg.validate())
	})
}
