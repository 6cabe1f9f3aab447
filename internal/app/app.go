package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarinfocom/intellij-extra-icons/internal/config"
	apierrors "github.com/sarinfocom/intellij-extra-icons/internal/errors"
	"github.com/sarinfocom/intellij-extra-icons/internal/i18n"
	"github.com/sarinfocom/intellij-extra-icons/internal/icons"
	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
	"github.com/sarinfocom/intellij-extra-icons/internal/license"
	"github.com/sarinfocom/intellij-extra-icons/internal/notifier"
	"github.com/sarinfocom/intellij-extra-icons/internal/plugin"
	handlers "github.com/sarinfocom/intellij-extra-icons/internal/transport/http"
	ws "github.com/sarinfocom/intellij-extra-icons/internal/websocket"
	"github.com/sarinfocom/intellij-extra-icons/pkg/contracts"
	"github.com/sarinfocom/intellij-extra-icons/pkg/contracts/events"
)

const settingsDebounce = 250 * time.Millisecond

// Application represents the main application container
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	Telemetry  *infrastructure.OTelProviders
	Activation *license.ActivationState
	Notifier   *notifier.Notifier
	Registry   plugin.Registry
	Resolver   *plugin.Resolver
	Verifier   license.Verifier
	Scheduler  *license.Scheduler
	Settings   *icons.SettingsStore
	Icons      *icons.Provider
	Hub        *ws.Hub
	Server     *http.Server

	remote   *license.RemoteVerifier
	subs     []*notifier.Subscription
	listener net.Listener
	cancel   context.CancelFunc
	serveErr chan error
	stopOnce sync.Once
}

// Option customizes an Application
type Option func(*Application)

// WithActivation replaces the process-wide activation state
func WithActivation(state *license.ActivationState) Option {
	return func(a *Application) { a.Activation = state }
}

// WithRegistry replaces the manifest registry read from the plugins directory
func WithRegistry(registry plugin.Registry) Option {
	return func(a *Application) { a.Registry = registry }
}

// WithVerifier replaces the token and remote verifier chain
func WithVerifier(verifier license.Verifier) Option {
	return func(a *Application) { a.Verifier = verifier }
}

// New wires every component. Nothing runs until Start.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	a := &Application{
		Config:     cfg,
		Logger:     logger.With(slog.String("component", "app")),
		Activation: license.DefaultActivation,
	}
	for _, opt := range opts {
		opt(a)
	}

	telemetry, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, apierrors.NewConfigError("initialize telemetry", err)
	}
	a.Telemetry = telemetry

	a.Notifier, err = notifier.New(logger, telemetry.Meter)
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}

	if a.Registry == nil {
		a.Registry = plugin.NewManifestRegistry(cfg.Plugins.Dir, logger)
	}
	a.Resolver = plugin.NewResolver(a.Registry, cfg.Plugins.Component, logger)

	if a.Verifier == nil {
		a.Verifier, err = a.buildVerifier(logger)
		if err != nil {
			return nil, err
		}
	}

	a.Settings = icons.NewSettingsStore(cfg.Settings.File, logger)
	if err := a.Settings.Load(); err != nil {
		// broken settings must not take icons down
		a.Logger.Warn("Ignoring icon settings", slog.String("error", err.Error()))
	}
	a.Icons = icons.NewProvider(icons.DefaultModels, a.Settings, a.Activation, logger)
	a.subs = append(a.subs, a.Notifier.Subscribe(a.Icons))

	metrics, err := license.NewCheckMetrics(telemetry.Meter, a.Activation)
	if err != nil {
		return nil, fmt.Errorf("create license metrics: %w", err)
	}

	delay, period := cfg.CheckTimings()
	a.Scheduler, err = license.NewScheduler(license.SchedulerConfig{
		Resolver:            a.Resolver,
		Verifier:            a.Verifier,
		Refresher:           a.Notifier,
		Localizer:           settingsLocalizer{store: a.Settings},
		Activation:          a.Activation,
		Metrics:             metrics,
		Logger:              logger,
		Delay:               delay,
		Period:              period,
		ReactivateOnSuccess: cfg.License.ReactivateOnSuccess,
	})
	if err != nil {
		return nil, fmt.Errorf("create license scheduler: %w", err)
	}

	a.Hub, err = ws.NewHub(a.Notifier, a.Activation, logger, telemetry.Meter)
	if err != nil {
		return nil, fmt.Errorf("create websocket hub: %w", err)
	}
	// clients also get the gate status with every refresh
	a.subs = append(a.subs, a.Notifier.Subscribe(notifier.SubscriberFunc(a.broadcastLicenseStatus)))

	if cfg.Server.Enabled {
		router, err := handlers.NewRouter(handlers.RouterConfig{
			License:        a.Scheduler,
			Notifier:       a.Notifier,
			Icons:          a.Icons,
			Settings:       a.Settings,
			Hub:            a.Hub,
			Telemetry:      telemetry,
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
			IncludeStack:   cfg.TestMode,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create router: %w", err)
		}

		a.Server = &http.Server{
			Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}
	}

	return a, nil
}

// buildVerifier chains the offline token verifier in front of the license server
func (a *Application) buildVerifier(logger *slog.Logger) (license.Verifier, error) {
	var verifiers []license.Verifier

	if a.Config.License.PublicKey != "" {
		key, err := license.ParsePublicKey(a.Config.License.PublicKey)
		if err != nil {
			return nil, apierrors.NewConfigError("license public key", err)
		}
		verifiers = append(verifiers, license.NewTokenVerifier(a.Config.License.TokenFile, key, logger))
	}

	if a.Config.License.ServerURL != "" {
		a.remote = license.NewRemoteVerifier(license.RemoteConfigFrom(a.Config.License), logger)
		verifiers = append(verifiers, a.remote)
	}

	if len(verifiers) == 0 {
		a.Logger.Warn("No license verifier configured, checks will be inconclusive")
	}
	return license.NewChainVerifier(verifiers...), nil
}

func (a *Application) broadcastLicenseStatus(ctx context.Context) {
	status := a.Scheduler.Status()
	a.Hub.Broadcast(ctx, events.MessageTypeLicenseStatus, events.LicenseStatusData{
		PluginType:  status.PluginType,
		ProductCode: status.ProductCode,
		Activated:   status.Activated,
		State:       string(status.State),
	})
}

// Start starts the hub, the license scheduler, the settings watcher and the
// diagnostics server. It returns once everything is running.
func (a *Application) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.GetVersionString()),
		slog.Bool("test_mode", a.Config.TestMode))

	// bind first so a taken port leaves nothing running
	if a.Server != nil {
		listener, err := net.Listen("tcp", a.Server.Addr)
		if err != nil {
			cancel()
			return apierrors.NewNetworkError("listen "+a.Server.Addr, err).
				WithContext("address", a.Server.Addr)
		}
		a.listener = listener
	}

	a.Hub.Start()
	a.Scheduler.Start(runCtx)

	if a.Config.Settings.Watch {
		err := a.Settings.Watch(runCtx, settingsDebounce, a.Notifier.TriggerAllIconsRefreshAndIconEnablersReinit)
		if err != nil {
			a.Logger.WarnContext(ctx, "Icon settings will not be watched", slog.String("error", err.Error()))
		}
	}

	if a.Server != nil {
		listener := a.listener
		a.serveErr = make(chan error, 1)

		go func() {
			if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.ErrorContext(runCtx, "Server error", slog.String("error", err.Error()))
				a.serveErr <- err
			}
			close(a.serveErr)
		}()

		a.Logger.InfoContext(ctx, "Diagnostics API listening",
			slog.String("address", "http://"+listener.Addr().String()))
	}

	return nil
}

// Addr returns the address the diagnostics server listens on, or "" when it
// is disabled or not started.
func (a *Application) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the application. It is safe to call more than once.
func (a *Application) Stop(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		err = a.stop(ctx)
	})
	return err
}

func (a *Application) stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var g errgroup.Group
	if a.Server != nil && a.listener != nil {
		g.Go(func() error {
			if err := a.Server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := a.Scheduler.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("license scheduler: %w", err)
		}
		return nil
	})
	err := g.Wait()

	if a.cancel != nil {
		a.cancel()
	}
	a.Hub.Stop()
	for _, sub := range a.subs {
		sub.Close()
	}
	if a.remote != nil {
		a.remote.Close()
	}

	if tErr := a.Telemetry.Shutdown(shutdownCtx); tErr != nil {
		err = errors.Join(err, tErr)
	}

	if err != nil {
		a.Logger.ErrorContext(ctx, "Application shutdown incomplete", slog.String("error", err.Error()))
		return err
	}
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run starts the application and blocks until ctx is done, SIGINT or SIGTERM
// arrives, or the server fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return errors.Join(err, a.Stop(context.WithoutCancel(ctx)))
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	case err, ok := <-a.serveErrors():
		if ok {
			serveErr = err
		}
	}

	return errors.Join(serveErr, a.Stop(context.WithoutCancel(ctx)))
}

// serveErrors returns a channel that never fires when no server runs
func (a *Application) serveErrors() <-chan error {
	if a.serveErr == nil {
		return nil
	}
	return a.serveErr
}

// settingsLocalizer renders messages in the locale picked in the icon settings
type settingsLocalizer struct {
	store *icons.SettingsStore
}

func (l settingsLocalizer) Message(key string, args ...any) string {
	locale := l.store.Settings().Locale
	if locale == "" {
		return i18n.Default().Message(key, args...)
	}
	return i18n.ForLocale(locale).Message(key, args...)
}
