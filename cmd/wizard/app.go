package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"assistance-wizard/internal/assist"
	"assistance-wizard/internal/common/config"
	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/common/observability"
	"assistance-wizard/internal/common/validation"
	"assistance-wizard/internal/persistence"
	"assistance-wizard/internal/submission"
	"assistance-wizard/internal/textgen"
	"assistance-wizard/internal/wizard"
)

// app is the composition root. It owns the session for one command run.
type app struct {
	cfg      *config.Config
	zapLog   *zap.Logger
	log      logger.Logger
	registry *prometheus.Registry
	obs      *observability.Observability
	closers  []func() error

	controller   *wizard.Controller
	coordinator  *assist.Coordinator
	orchestrator *submission.Orchestrator
}

func newApp(opts *rootOptions) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.locale != "" {
		cfg.Validation.DefaultLocale = opts.locale
	}

	zapLog, err := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}

	registry := prometheus.NewRegistry()
	obs, err := observability.New(cfg.App.Name, observability.WithRegisterer(registry), observability.AsGlobal())
	if err != nil {
		zapLog.Sync()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		zapLog:   zapLog,
		log:      logger.NewZapAdapter(zapLog),
		registry: registry,
		obs:      obs,
	}, nil
}

// openSession restores the wizard session and wires the collaborators.
func (a *app) openSession(ctx context.Context) error {
	var (
		slot      persistence.Slot
		closeSlot func() error
	)
	err := retryWithBackoff(func() error {
		var err error
		slot, closeSlot, err = persistence.Open(ctx, a.cfg.Persistence)
		return err
	}, 3, 500*time.Millisecond, a.log, "persistence connection")
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeSlot)

	validator, err := validation.NewValidator(a.cfg.Validation.NarrativeMinLength, a.cfg.Validation.DefaultLocale)
	if err != nil {
		return err
	}

	adapter := persistence.NewAdapter(slot, a.cfg.Persistence.Key, a.log)
	a.controller = wizard.New(ctx, wizard.LoadConfig(a.cfg), adapter, validator, a.log)

	textgenConfig := textgen.LoadConfig(a.cfg)
	generator, err := textgen.New(ctx, textgenConfig, a.log)
	if err != nil {
		return err
	}
	a.coordinator = assist.NewCoordinator(assist.LoadConfig(a.cfg), a.controller, generator, a.obs, a.log)

	submissionConfig := submission.LoadConfig(a.cfg)
	a.orchestrator = submission.NewOrchestrator(
		submissionConfig,
		a.controller,
		submission.NewHTTPClient(submissionConfig),
		a.obs,
		a.log,
	)
	return nil
}

func (a *app) Close() error {
	var errs []error
	if a.controller != nil {
		if err := a.controller.Persist(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("final save: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.obs.Shutdown(context.Background()); err != nil {
		errs = append(errs, err)
	}
	a.zapLog.Sync()
	return errors.Join(errs...)
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// withSession runs fn against a restored session and closes it afterwards.
func withSession(ctx context.Context, opts *rootOptions, fn func(a *app) error) (err error) {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := a.openSession(ctx); err != nil {
		return err
	}
	return fn(a)
}
