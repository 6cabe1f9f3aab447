package http

import (
	"context"

	"github.com/sarinfocom/intellij-extra-icons/internal/icons"
	"github.com/sarinfocom/intellij-extra-icons/internal/license"
)

// LicenseService is the license gate as seen by the API
type LicenseService interface {
	Status() license.Status
	Tick(ctx context.Context) (license.Verdict, error)
}

// RefreshBroadcaster fans refresh requests out to subscribers
type RefreshBroadcaster interface {
	TriggerAllIconsRefreshAndIconEnablersReinit(ctx context.Context)
	Len() int
}

// IconCatalog resolves files to icons
type IconCatalog interface {
	Icon(file string) (icons.Model, bool)
	All() []icons.Model
	Models() []icons.Model
}

// SettingsRepository reads and writes the user icon settings
type SettingsRepository interface {
	Settings() icons.Settings
	Save(settings icons.Settings) error
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}
