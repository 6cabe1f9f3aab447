// Package config provides centralized configuration management for Extra Icons.
// It loads configuration from environment variables and an optional YAML file,
// validates it, and derives the license check timings.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML, EXTRA_ICONS_CONFIG or extra-icons.config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern EXTRA_ICONS_*:
//
//	EXTRA_ICONS_TEST_MODE=true
//	EXTRA_ICONS_SERVER_PORT=7417
//	EXTRA_ICONS_LICENSE_SERVER_URL=https://license.example.com
//	EXTRA_ICONS_LOGGING_LEVEL=debug
//
// # License Check Timings
//
// The periodic license check waits CheckDelay (30s) before the first check and
// then runs every CheckPeriod (1h). With EXTRA_ICONS_TEST_MODE set the timings
// drop to 3s and 4min.
package config
