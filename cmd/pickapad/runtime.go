package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kingrea/pickapad/internal/account"
	"github.com/kingrea/pickapad/internal/config"
	"github.com/kingrea/pickapad/internal/logbook"
	"github.com/kingrea/pickapad/internal/logging"
	"github.com/kingrea/pickapad/internal/session"
	"github.com/kingrea/pickapad/internal/signup"
	"github.com/kingrea/pickapad/internal/tui"
)

// runtime bundles the services every command works with.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     *account.Repository
	accounts *account.Service
	sessions *session.Context
	book     *logbook.Logbook
	registry *signup.Registry
	closed   bool
}

func openRuntime(ctx context.Context, workDir string, verbose bool) (*runtime, error) {
	if err := config.InitDir(workDir); err != nil {
		return nil, err
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogsDir(), cfg.Settings.Logging.Level, verbose)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}

	rt.repo, err = account.OpenRepository(cfg.DatabasePath())
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.accounts, err = account.NewService(rt.repo,
		account.WithDelay(cfg.Settings.Gateway.Delay),
		account.WithFailure(func() bool { return cfg.Settings.Gateway.SimulateFailure }),
		account.WithLogger(logger.Named("account")),
	)
	if err != nil {
		rt.close()
		return nil, err
	}
	if cfg.SeedDemoUser() {
		if err := rt.accounts.SeedDemo(ctx); err != nil {
			rt.close()
			return nil, fmt.Errorf("seed demo account: %w", err)
		}
	}

	rt.sessions, err = session.New(session.NewFileStore(cfg.SessionPath()),
		session.WithTTL(cfg.Settings.Session.TTL),
		session.WithLogger(logger.Named("session")),
	)
	if err != nil {
		rt.close()
		return nil, err
	}
	if err := rt.sessions.Init(); err != nil {
		rt.close()
		return nil, err
	}

	rt.book, err = logbook.New(filepath.Join(cfg.LogsDir(), logbook.FileName))
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.registry = signup.DefaultRegistry(cfg.SignupOptions())
	logger.Debug("runtime ready",
		zap.String("dir", cfg.Root),
		zap.Duration("gateway_delay", cfg.Settings.Gateway.Delay),
		zap.Bool("simulate_failure", cfg.Settings.Gateway.SimulateFailure),
	)
	return rt, nil
}

func (rt *runtime) deps() tui.Deps {
	return tui.Deps{
		Config:   rt.cfg,
		Registry: rt.registry,
		Accounts: rt.accounts,
		Sessions: rt.sessions,
		Logbook:  rt.book,
		Logger:   rt.logger.Named("tui"),
	}
}

func (rt *runtime) close() {
	if rt == nil || rt.closed {
		return
	}
	rt.closed = true
	if rt.repo != nil {
		if err := rt.repo.Close(); err != nil && rt.logger != nil {
			rt.logger.Warn("close account database", zap.Error(err))
		}
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
}
