package config

import "time"

// Application constants
const (
	AppName    = "Extra Icons"
	AppSlug    = "extra-icons"
	AppVersion = "2025.1.0"

	// EnvPrefix namespaces every environment variable (EXTRA_ICONS_*).
	EnvPrefix = "EXTRA_ICONS"

	// TestModeEnv selects the short license check timings.
	TestModeEnv = EnvPrefix + "_TEST_MODE"

	// ComponentName identifies this binary to the host plugin registry.
	ComponentName = "extra-icons-core"

	DefaultLicenseServerURL = "https://license.extra-icons.dev"

	// LicenseRequiredMsgKey is the resource bundle key shown when a license is missing.
	LicenseRequiredMsgKey = "license.required.msg"
)

// License check timings
const (
	CheckDelay  = 30 * time.Second
	CheckPeriod = time.Hour

	TestCheckDelay  = 3 * time.Second
	TestCheckPeriod = 4 * time.Minute

	LicenseCheckTimeout = 10 * time.Second
)

// API endpoints
const (
	APIBasePath       = "/api"
	LicenseEndpoint   = "/api/license"
	IconsEndpoint     = "/api/icons"
	HealthEndpoint    = "/api/health"
	SettingsEndpoint  = "/api/settings"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
