package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v2"

	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
)

// ManifestPattern matches plugin manifests below the plugins directory.
const ManifestPattern = "**/plugin.yaml"

// ErrManifestInvalid is returned for manifests that cannot be used.
var ErrManifestInvalid = errors.New("invalid plugin manifest")

// Descriptor describes one plugin installed in the host.
type Descriptor struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Components []string `yaml:"components"`
	// Path is the manifest location relative to the plugins directory.
	Path string `yaml:"-"`
}

// Registry is the host plugin-metadata query surface.
type Registry interface {
	// DescriptorFor returns the descriptor of the plugin owning component,
	// or nil when no plugin claims it.
	DescriptorFor(component string) (*Descriptor, error)
	// RegisteredIDs lists the ids of every registered plugin.
	RegisteredIDs() ([]string, error)
}

// ManifestRegistry reads plugin manifests from a directory tree.
type ManifestRegistry struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewManifestRegistry creates a registry over the plugins directory dir.
func NewManifestRegistry(dir string, logger *slog.Logger) *ManifestRegistry {
	return NewManifestRegistryFS(os.DirFS(dir), logger)
}

// NewManifestRegistryFS creates a registry over an arbitrary file system.
func NewManifestRegistryFS(fsys fs.FS, logger *slog.Logger) *ManifestRegistry {
	return &ManifestRegistry{
		fsys:   fsys,
		logger: infrastructure.WithComponent(logger, "plugin.registry"),
	}
}

// Descriptors loads every valid manifest. Invalid manifests are logged and skipped.
func (r *ManifestRegistry) Descriptors() ([]Descriptor, error) {
	matches, err := doublestar.Glob(r.fsys, ManifestPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan plugin manifests: %w", err)
	}
	sort.Strings(matches)

	descriptors := make([]Descriptor, 0, len(matches))
	for _, match := range matches {
		desc, err := r.load(match)
		if err != nil {
			r.logger.Warn("Skipping plugin manifest",
				slog.String("path", match),
				slog.String("error", err.Error()))
			continue
		}
		descriptors = append(descriptors, *desc)
	}
	return descriptors, nil
}

// DescriptorFor implements Registry.
func (r *ManifestRegistry) DescriptorFor(component string) (*Descriptor, error) {
	descriptors, err := r.Descriptors()
	if err != nil {
		return nil, err
	}
	for i := range descriptors {
		if slices.Contains(descriptors[i].Components, component) {
			return &descriptors[i], nil
		}
	}
	return nil, nil
}

// RegisteredIDs implements Registry.
func (r *ManifestRegistry) RegisteredIDs() ([]string, error) {
	descriptors, err := r.Descriptors()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (r *ManifestRegistry) load(name string) (*Descriptor, error) {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, err
	}

	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestInvalid, name, err)
	}
	if desc.ID == "" {
		return nil, fmt.Errorf("%w: %s: missing id", ErrManifestInvalid, name)
	}
	desc.Path = path.Clean(name)
	return &desc, nil
}
