package icons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"

	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
)

// Settings are the user preferences for icon decoration.
type Settings struct {
	DisabledModelIDs []string `yaml:"disabled_model_ids"`
	Locale           string   `yaml:"locale,omitempty"`
}

// SettingsStore persists Settings as YAML.
type SettingsStore struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current Settings
}

// NewSettingsStore creates a store for the file at path. Call Load to read it.
func NewSettingsStore(path string, logger *slog.Logger) *SettingsStore {
	return &SettingsStore{
		path:   path,
		logger: infrastructure.WithComponent(logger, "icons.settings"),
	}
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields empty settings.
func (s *SettingsStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.set(Settings{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	s.set(settings)
	return nil
}

// Save writes settings to disk and makes them current.
func (s *SettingsStore) Save(settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	s.set(settings)
	return nil
}

// Settings returns a copy of the current settings.
func (s *SettingsStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Settings{
		DisabledModelIDs: slices.Clone(s.current.DisabledModelIDs),
		Locale:           s.current.Locale,
	}
}

// DisabledModelIDs returns the ids of models the user switched off.
func (s *SettingsStore) DisabledModelIDs() []string {
	return s.Settings().DisabledModelIDs
}

func (s *SettingsStore) set(settings Settings) {
	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
}

// Watch reloads the settings whenever the file changes and then calls
// onChange. It returns once the watcher is installed; watching stops when ctx
// is cancelled.
func (s *SettingsStore) Watch(ctx context.Context, debounce time.Duration, onChange func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}

	// editors replace files by rename, so watch the directory
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.logger.InfoContext(ctx, "Watching icon settings", slog.String("path", s.path))

	go s.watch(ctx, watcher, debounce, onChange)
	return nil
}

func (s *SettingsStore) watch(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration, onChange func(context.Context)) {
	defer watcher.Close()

	target := filepath.Clean(s.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(debounce)
				fire = timer.C
			}

		case <-fire:
			fire = nil
			if err := s.Load(); err != nil {
				s.logger.WarnContext(ctx, "Ignoring invalid icon settings",
					slog.String("path", s.path),
					slog.String("error", err.Error()))
				continue
			}
			s.logger.InfoContext(ctx, "Icon settings changed",
				slog.Int("disabled_models", len(s.DisabledModelIDs())))
			onChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.WarnContext(ctx, "Settings watcher error", slog.String("error", err.Error()))
		}
	}
}
