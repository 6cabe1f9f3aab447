// Package api contains the diagnostics API contracts of Extra Icons.
// Version v1 represents the current stable API version.
package api

import (
	"time"
)

// License API

// LicenseResponse describes the license gate of the running installation
type LicenseResponse struct {
	PluginType  string     `json:"plugin_type"`
	ProductCode string     `json:"product_code,omitempty"`
	Activated   bool       `json:"activated"`
	State       string     `json:"state"`
	DelayMS     int64      `json:"delay_ms"`
	PeriodMS    int64      `json:"period_ms"`
	Checks      int64      `json:"checks"`
	LastVerdict string     `json:"last_verdict,omitempty"`
	LastCheck   *time.Time `json:"last_check,omitempty"`
	NextCheck   *time.Time `json:"next_check,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// LicenseCheckResponse is the outcome of an on-demand license check
type LicenseCheckResponse struct {
	Verdict   string `json:"verdict"`
	Activated bool   `json:"activated"`
}

// Icons API

// IconLookupRequest asks which icon decorates a file
type IconLookupRequest struct {
	File string `json:"file" query:"file" validate:"required,max=4096"`
}

// IconLookupResponse is the icon decorating a file, if any
type IconLookupResponse struct {
	File    string `json:"file"`
	Matched bool   `json:"matched"`
	ModelID string `json:"model_id,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

// IconModel describes one icon model
type IconModel struct {
	ID      string `json:"id"`
	Icon    string `json:"icon"`
	Enabled bool   `json:"enabled"`
}

// SettingsUpdateRequest replaces the user icon settings
type SettingsUpdateRequest struct {
	DisabledModelIDs []string `json:"disabled_model_ids" validate:"dive,required"`
	Locale           string   `json:"locale,omitempty" validate:"omitempty,bcp47_language_tag"`
}

// RefreshResponse reports a refresh broadcast
type RefreshResponse struct {
	Subscribers int `json:"subscribers"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	License   string    `json:"license_state"`
	Clients   int       `json:"websocket_clients"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings API

// SettingsResponse is the current user icon settings
type SettingsResponse struct {
	DisabledModelIDs []string `json:"disabled_model_ids"`
	Locale           string   `json:"locale,omitempty"`
}
