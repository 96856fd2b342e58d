package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/managed/component"
	"github.com/kbukum/managed/config"
	"github.com/kbukum/managed/di"
	"github.com/kbukum/managed/logger"
	"github.com/kbukum/managed/observability"
	"github.com/kbukum/managed/version"
)

// App represents an application built around one container, with uniform
// lifecycle management. The type parameter C is the config type, which must
// satisfy the Config interface. Any struct embedding config.Config
// automatically satisfies Config.
//
// Example:
//
//	app, err := bootstrap.NewApp(&myConfig)
//	app.Register(ordersDescriptor, di.Singleton)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*MyConfig]) error {
//	    // a.Cfg is *MyConfig, fully typed; the container is built
//	    return nil
//	})
//	app.Run(context.Background())
type App[C Config] struct {
	Name      string
	Version   string
	Cfg       C
	Container *di.Container
	Logger    *logger.Logger
	Summary   *Summary

	gracefulTimeout time.Duration
	shutdowns       []func(context.Context) error
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, initializes the logger and
// the configured telemetry, and creates the container.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetConfig()
	if base.Version == "" {
		base.Version = version.Get().Short()
	}

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	// Logger: use custom if provided, otherwise init from config.
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Summary = NewSummary(base.Name, base.Version)

	tp, mp, err := app.initTelemetry(base, o)
	if err != nil {
		app.shutdownTelemetry(context.Background())
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	containerOpts := []di.Option{di.WithLogger(app.Logger)}
	if tp != nil {
		containerOpts = append(containerOpts, di.WithTracerProvider(tp))
	}
	if mp != nil {
		containerOpts = append(containerOpts, di.WithMeterProvider(mp))
	}
	container, err := di.NewFromConfig(base.Container, append(containerOpts, o.containerOpts...)...)
	if err != nil {
		app.shutdownTelemetry(context.Background())
		return nil, fmt.Errorf("container: %w", err)
	}
	app.Container = container
	return app, nil
}

// initTelemetry starts the OTLP exporters enabled in config, unless a
// provider was passed in.
func (a *App[C]) initTelemetry(base *config.Config, o *appOptions) (trace.TracerProvider, metric.MeterProvider, error) {
	tp, mp := o.tracerProvider, o.meterProvider
	obs := base.Observability

	if tp == nil && obs.Tracing {
		sdkTP, err := observability.InitTracer(context.Background(), &observability.TracerConfig{
			ServiceName:    base.Name,
			ServiceVersion: base.Version,
			Environment:    base.Environment,
			Endpoint:       obs.Endpoint,
			Insecure:       obs.Insecure,
			SampleRate:     obs.SampleRate,
		})
		if err != nil {
			return nil, nil, err
		}
		a.shutdowns = append(a.shutdowns, sdkTP.Shutdown)
		a.Summary.TrackExporter("tracing", obs.Endpoint, "active")
		tp = sdkTP
	}

	if mp == nil && obs.Metrics {
		sdkMP, err := observability.InitMeter(context.Background(), &observability.MeterConfig{
			ServiceName:    base.Name,
			ServiceVersion: base.Version,
			Environment:    base.Environment,
			Endpoint:       obs.Endpoint,
			Insecure:       obs.Insecure,
			Interval:       obs.MetricsInterval,
		})
		if err != nil {
			return nil, nil, err
		}
		a.shutdowns = append(a.shutdowns, sdkMP.Shutdown)
		a.Summary.TrackExporter("metrics", obs.Endpoint, "active")
		mp = sdkMP
	}
	return tp, mp, nil
}

// Register binds a class descriptor in the application's container.
func (a *App[C]) Register(desc di.ClassDescriptor, scope di.Scope) error {
	return a.Container.Register(desc, scope)
}

// RegisterInstance binds a pre-built value in the application's container.
func (a *App[C]) RegisterInstance(key di.TypeKey, value any, implements ...di.TypeKey) error {
	return a.Container.RegisterInstance(key, value, implements...)
}

// OnConfigure registers a callback to run during the configure phase,
// after the container is built. Use this to resolve the entry points.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck verifies that every managed instance that reports health is healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	results := a.Container.Health(ctx)
	var unhealthy []string
	for _, h := range results {
		if h.Status != component.StatusHealthy {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy instances: %v", unhealthy)
	}
	return nil
}

// Run executes the full application lifecycle for long-running services:
// Build → OnStart hooks → Configure → ReadyCheck → OnReady hooks →
// Block on signal → OnStop hooks → Close.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask executes a finite task with the full bootstrap lifecycle.
// Unlike Run(), it does not block on shutdown signals: it runs the task
// function with the built container and shuts down when the task completes
// or the context is canceled (e.g., via SIGINT/SIGTERM).
//
// Example:
//
//	app, _ := bootstrap.NewApp(&cfg)
//	app.RunTask(ctx, func(ctx context.Context, c *di.Container) error {
//	    job, err := di.Resolve[*Job](c, di.Key("Job"))
//	    if err != nil {
//	        return err
//	    }
//	    return job.Run(ctx)
//	})
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context, c *di.Container) error) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}

	// Set up signal-based cancellation for the task
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx, a.Container)

	if stopErr := a.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}

	return taskErr
}

// startup performs the common initialization sequence shared by Run and RunTask.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	// Phase 1: Build, which seals the registry and in strict mode plans every binding
	if err := a.build(ctx); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	// Phase 2: Configure, resolving the entry points
	if err := a.configure(ctx); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()

	return nil
}

// build seals the container (Phase 1).
func (a *App[C]) build(ctx context.Context) error {
	a.Logger.Info("Phase 1: Building container", map[string]interface{}{
		"bindings": a.Container.Registry().Len(),
	})
	if err := a.Container.Build(ctx); err != nil {
		return err
	}
	a.Logger.Info("Phase 1: Container built")
	return nil
}

// DisplaySummary prints the startup summary collected from the container.
func (a *App[C]) DisplaySummary() {
	a.Summary.DisplaySummary(a.Container, a.Logger)
}

// configure runs registered configuration callbacks (Phase 2).
func (a *App[C]) configure(ctx context.Context) error {
	if len(a.onConfigure) == 0 {
		return nil
	}

	a.Logger.Info("Phase 2: Running configuration callbacks", map[string]interface{}{
		"count": len(a.onConfigure),
	})

	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}

	a.Logger.Info("Phase 2: Configuration complete")
	return nil
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop runs the OnStop hooks, closes the container and flushes telemetry
// within the graceful timeout.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	// Close stops managed singletons in reverse construction order
	if err := a.Container.Close(ctx); err != nil {
		a.Logger.Error("Container close error", map[string]interface{}{
			"error": err.Error(),
		})
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	a.shutdownTelemetry(ctx)

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}

// shutdownTelemetry flushes and stops the providers the app created.
// Export failures are logged, never returned.
func (a *App[C]) shutdownTelemetry(ctx context.Context) {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if err := a.shutdowns[i](ctx); err != nil {
			a.Logger.Warn("Telemetry shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	a.shutdowns = nil
}
