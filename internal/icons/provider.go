package icons

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
)

// Activation reports whether licensed icons may be shown.
type Activation interface {
	Activated() bool
}

// DisabledModels lists the model ids switched off by the user.
type DisabledModels interface {
	DisabledModelIDs() []string
}

// Provider resolves file names to icons. The active model list is computed
// lazily and dropped on every refresh request.
type Provider struct {
	all        []Model
	disabled   DisabledModels
	activation Activation
	logger     *slog.Logger

	mu     sync.Mutex
	active []Model
	loads  int
}

// NewProvider creates a provider over models. disabled may be nil.
func NewProvider(models []Model, disabled DisabledModels, activation Activation, logger *slog.Logger) *Provider {
	logger = infrastructure.WithComponent(logger, "icons.provider")

	valid := make([]Model, 0, len(models))
	for _, m := range models {
		if err := m.Validate(); err != nil {
			logger.Warn("Skipping icon model", slog.String("error", err.Error()))
			continue
		}
		valid = append(valid, m)
	}

	return &Provider{
		all:        valid,
		disabled:   disabled,
		activation: activation,
		logger:     logger,
	}
}

// Icon returns the icon decorating file, if any. Nothing is decorated while
// the license is deactivated.
func (p *Provider) Icon(file string) (Model, bool) {
	if p.activation != nil && !p.activation.Activated() {
		return Model{}, false
	}

	name := baseName(file)
	for _, m := range p.Models() {
		if m.Check(name) {
			return m, true
		}
	}
	return Model{}, false
}

// All returns every valid model, enabled or not.
func (p *Provider) All() []Model {
	return slices.Clone(p.all)
}

// Models returns the enabled models, computing them on first use.
func (p *Provider) Models() []Model {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == nil {
		var disabled []string
		if p.disabled != nil {
			disabled = p.disabled.DisabledModelIDs()
		}
		active := make([]Model, 0, len(p.all))
		for _, m := range p.all {
			if !slices.Contains(disabled, m.ID) {
				active = append(active, m)
			}
		}
		p.active = active
		p.loads++
	}
	return p.active
}

// OnRefreshRequested implements notifier.Subscriber.
func (p *Provider) OnRefreshRequested(ctx context.Context) {
	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "Icon models reset")
}

// Loads returns how many times the model list was computed.
func (p *Provider) Loads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads
}
