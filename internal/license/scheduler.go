package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sarinfocom/intellij-extra-icons/internal/config"
	"github.com/sarinfocom/intellij-extra-icons/internal/i18n"
	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
	"github.com/sarinfocom/intellij-extra-icons/internal/plugin"
)

// State is the lifecycle state of a Scheduler.
type State string

const (
	StateIdle        State = "idle"
	StateIdentified  State = "identified"
	StateNotRequired State = "not_required"
	StateChecking    State = "checking"
	StateStopped     State = "stopped"
	StateFailed      State = "failed"
)

// IdentityResolver determines the installed plugin type.
type IdentityResolver interface {
	Resolve(ctx context.Context) plugin.Type
}

// RefreshTrigger asks every icon consumer to recompute its decorations.
type RefreshTrigger interface {
	TriggerAllIconsRefreshAndIconEnablersReinit(ctx context.Context)
}

// Localizer looks up user-facing messages.
type Localizer interface {
	Message(key string, args ...any) string
}

// SchedulerConfig wires a Scheduler. Resolver, Verifier and Refresher are required.
type SchedulerConfig struct {
	Resolver  IdentityResolver
	Verifier  Verifier
	Refresher RefreshTrigger
	// Localizer defaults to the English bundle.
	Localizer Localizer
	// Activation defaults to DefaultActivation.
	Activation *ActivationState
	Metrics    *CheckMetrics
	Logger     *slog.Logger

	Delay  time.Duration
	Period time.Duration
	// ReactivateOnSuccess re-enables a deactivated license when a later check
	// returns Licensed.
	ReactivateOnSuccess bool
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State       State      `json:"state"`
	PluginType  string     `json:"plugin_type,omitempty"`
	ProductCode string     `json:"product_code,omitempty"`
	Activated   bool       `json:"activated"`
	DelayMS     int64      `json:"delay_ms"`
	PeriodMS    int64      `json:"period_ms"`
	Checks      int64      `json:"checks"`
	LastVerdict *Verdict   `json:"last_verdict,omitempty"`
	LastCheck   *time.Time `json:"last_check,omitempty"`
	NextCheck   *time.Time `json:"next_check,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// checkTask is the periodic check armed for one product.
type checkTask struct {
	pluginType plugin.Type
	schedule   *fixedRateSchedule
	entryID    cron.EntryID

	checks      int64
	lastVerdict Verdict
	lastCheck   time.Time
}

// Scheduler runs the periodic license check for the installed plugin type.
type Scheduler struct {
	resolver   IdentityResolver
	verifier   Verifier
	refresher  RefreshTrigger
	localizer  Localizer
	activation *ActivationState
	metrics    *CheckMetrics
	logger     *slog.Logger

	delay      time.Duration
	period     time.Duration
	reactivate bool

	cron   *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc

	once   sync.Once
	tickMu sync.Mutex

	mu         sync.RWMutex
	state      State
	pluginType *plugin.Type
	task       *checkTask
	err        error
}

// NewScheduler creates an idle scheduler.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Resolver == nil || cfg.Verifier == nil || cfg.Refresher == nil {
		return nil, errors.New("license scheduler requires a resolver, a verifier and a refresher")
	}
	if cfg.Localizer == nil {
		cfg.Localizer = i18n.Default()
	}
	if cfg.Activation == nil {
		cfg.Activation = DefaultActivation
	}
	if cfg.Metrics == nil {
		// the no-op meter never fails
		cfg.Metrics, _ = NewCheckMetrics(nil, nil)
	}
	if cfg.Delay == 0 && cfg.Period == 0 {
		cfg.Delay, cfg.Period = config.CheckTimings(false)
	}

	logger := infrastructure.WithComponent(cfg.Logger, "license.scheduler")
	cl := cronLogger{slog: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		resolver:   cfg.Resolver,
		verifier:   cfg.Verifier,
		refresher:  cfg.Refresher,
		localizer:  cfg.Localizer,
		activation: cfg.Activation,
		metrics:    cfg.Metrics,
		logger:     logger,
		delay:      cfg.Delay,
		period:     cfg.Period,
		reactivate: cfg.ReactivateOnSuccess,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		runCtx: ctx,
		cancel: cancel,
		state:  StateIdle,
	}, nil
}

// Start resolves the installed plugin type and, when it requires a license,
// arms the periodic check. Only the first call does anything. Start never
// fails: setup errors are logged and leave the license activated.
func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.fail(ctx, fmt.Errorf("panic during license check setup: %v", r))
			}
		}()
		if err := s.start(ctx); err != nil {
			s.fail(ctx, err)
		}
	})
}

func (s *Scheduler) start(ctx context.Context) error {
	if s.State() == StateStopped {
		return nil
	}

	t := s.resolver.Resolve(ctx)

	s.mu.Lock()
	s.pluginType = &t
	if s.state == StateIdle {
		s.state = StateIdentified
	}
	s.mu.Unlock()

	if !t.RequiresLicense {
		s.setState(StateNotRequired)
		s.logger.InfoContext(ctx, "Installed plugin type does not require a license",
			slog.String("plugin_type", t.Name))
		return nil
	}

	if s.period <= 0 || s.delay < 0 {
		return fmt.Errorf("invalid license check timings: delay=%s period=%s", s.delay, s.period)
	}

	s.activation.SetActivated(true)

	task := &checkTask{
		pluginType: t,
		schedule:   newFixedRateSchedule(time.Now(), s.delay, s.period),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return nil
	}
	task.entryID = s.cron.Schedule(task.schedule, cron.FuncJob(func() {
		s.check(s.runCtx, task)
	}))
	s.task = task
	s.state = StateChecking
	s.cron.Start()

	s.logger.InfoContext(ctx, "Scheduled periodic license check",
		slog.String("plugin_type", t.Name),
		slog.String("product_code", t.ProductCode),
		slog.Duration("delay", s.delay),
		slog.Duration("period", s.period))
	return nil
}

// Tick runs one license check immediately, serialized with scheduled checks.
func (s *Scheduler) Tick(ctx context.Context) (Verdict, error) {
	s.mu.RLock()
	task, state := s.task, s.state
	s.mu.RUnlock()

	if task == nil || state != StateChecking {
		return Unknown, ErrNotScheduled
	}
	return s.check(ctx, task), nil
}

func (s *Scheduler) check(ctx context.Context, task *checkTask) (verdict Verdict) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	ctx = infrastructure.EnsureTraceID(ctx)
	code := task.pluginType.ProductCode

	ctx, span := startCheckSpan(ctx, code)
	defer func() {
		// a failed tick must not end the schedule
		if r := recover(); r != nil {
			verdict = Unknown
			s.metrics.Panics.Add(ctx, 1, metric.WithAttributes(attribute.String("product_code", code)))
			s.logger.ErrorContext(ctx, "License check panicked, next check stays scheduled",
				slog.String("product_code", code),
				slog.Any("panic", r))
			span.RecordError(fmt.Errorf("panic: %v", r))
		}
		endCheckSpan(span, verdict)
	}()

	start := time.Now()
	verdict = s.verifier.IsLicensed(ctx, code)
	elapsed := time.Since(start)

	s.mu.Lock()
	task.checks++
	task.lastVerdict = verdict
	task.lastCheck = start
	s.mu.Unlock()

	s.metrics.recordCheck(ctx, code, verdict, elapsed)
	s.logger.InfoContext(ctx, "Checked license",
		slog.String("product_code", code),
		slog.String("verdict", verdict.String()),
		slog.Duration("duration", elapsed))

	attrs := metric.WithAttributes(attribute.String("product_code", code))

	switch verdict {
	case Unknown:
		s.logger.WarnContext(ctx, "License check was inconclusive, ignoring for now",
			slog.String("product_code", code))

	case Unlicensed:
		s.activation.SetActivated(false)
		s.metrics.Deactivations.Add(ctx, 1, attrs)
		s.logger.WarnContext(ctx, "Failed to validate license, disabling gated icons until license activation",
			slog.String("product_code", code))

		s.refresher.TriggerAllIconsRefreshAndIconEnablersReinit(ctx)

		s.verifier.RequestLicense(ctx, code, s.localizer.Message(config.LicenseRequiredMsgKey))
		s.metrics.LicenseRequests.Add(ctx, 1, attrs)

	case Licensed:
		if s.reactivate && !s.activation.swap(true) {
			s.metrics.Reactivations.Add(ctx, 1, attrs)
			s.logger.InfoContext(ctx, "License validated again, re-enabling gated icons",
				slog.String("product_code", code))
			s.refresher.TriggerAllIconsRefreshAndIconEnablersReinit(ctx)
		}
	}

	return verdict
}

// Stop cancels the periodic check and waits for a running check to finish or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopped
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.InfoContext(ctx, "License check scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("license check still running: %w", ctx.Err())
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// PluginType returns the resolved plugin type, or false before resolution.
func (s *Scheduler) PluginType() (plugin.Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pluginType == nil {
		return plugin.Type{}, false
	}
	return *s.pluginType, true
}

// Status returns a snapshot for diagnostics.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:     s.state,
		Activated: s.activation.Activated(),
		DelayMS:   s.delay.Milliseconds(),
		PeriodMS:  s.period.Milliseconds(),
	}
	if s.pluginType != nil {
		st.PluginType = s.pluginType.Name
		st.ProductCode = s.pluginType.ProductCode
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	if s.task != nil {
		st.Checks = s.task.checks
		if s.task.checks > 0 {
			verdict, last := s.task.lastVerdict, s.task.lastCheck
			st.LastVerdict = &verdict
			st.LastCheck = &last
		}
		if s.state == StateChecking {
			next := s.task.schedule.after(time.Now())
			st.NextCheck = &next
		}
	}
	return st
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		s.state = state
	}
}

func (s *Scheduler) fail(ctx context.Context, err error) {
	s.mu.Lock()
	if s.state != StateStopped {
		s.state = StateFailed
	}
	s.err = err
	s.mu.Unlock()

	s.logger.WarnContext(ctx, "Failed to set up periodic license check, license stays activated",
		slog.String("error", err.Error()))
}
