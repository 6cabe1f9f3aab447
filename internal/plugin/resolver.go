package plugin

import (
	"context"
	"log/slog"
	"time"

	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
)

// Resolver determines which Type the running installation corresponds to.
type Resolver struct {
	registry  Registry
	component string
	logger    *slog.Logger
}

// NewResolver creates a resolver asking registry about component.
func NewResolver(registry Registry, component string, logger *slog.Logger) *Resolver {
	return &Resolver{
		registry:  registry,
		component: component,
		logger:    infrastructure.WithComponent(logger, "plugin.resolver"),
	}
}

// Resolve identifies the installed plugin type. It first asks the registry for
// the plugin owning this component; when the host cannot tell, it scans every
// registered plugin id against FindableTypes. Absence of a match yields
// NotFound, never an error.
func (r *Resolver) Resolve(ctx context.Context) Type {
	start := time.Now()
	t := r.resolve(ctx)
	r.logger.InfoContext(ctx, "Resolved installed plugin type",
		slog.String("plugin_type", t.Name),
		slog.String("plugin_id", t.PluginID),
		slog.Bool("requires_license", t.RequiresLicense),
		slog.Duration("duration", time.Since(start)))
	return t
}

func (r *Resolver) resolve(ctx context.Context) Type {
	desc, err := r.registry.DescriptorFor(r.component)
	if err != nil {
		r.logger.WarnContext(ctx, "Direct plugin lookup failed",
			slog.String("component", r.component),
			slog.String("error", err.Error()))
	}

	if desc != nil {
		r.logger.InfoContext(ctx, "Found installed plugin by component",
			slog.String("plugin_id", desc.ID),
			slog.String("version", desc.Version))
		t, _ := findByPluginID(desc.ID)
		return t
	}

	r.logger.WarnContext(ctx, "Failed to find installed plugin by component, scanning registered plugins",
		slog.String("component", r.component))

	ids, err := r.registry.RegisteredIDs()
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to list registered plugins",
			slog.String("error", err.Error()))
		return NotFound
	}

	registered := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		registered[id] = struct{}{}
	}
	for _, t := range FindableTypes {
		if _, ok := registered[t.PluginID]; ok {
			return t
		}
	}
	return NotFound
}
