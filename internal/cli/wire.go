package cli

import (
	"log/slog"

	"github.com/CrimsonX77/RedVerse/internal/admin"
	"github.com/CrimsonX77/RedVerse/internal/config"
	"github.com/CrimsonX77/RedVerse/internal/ledger"
	"github.com/CrimsonX77/RedVerse/internal/policy"
	"github.com/CrimsonX77/RedVerse/internal/query"
	"github.com/CrimsonX77/RedVerse/internal/session"
)

// services is the wired object graph every command works against.
type services struct {
	cfg      config.Config
	tiers    *policy.Table
	store    *ledger.Store
	registry *session.Registry
	resolver *session.Resolver
	engine   *query.Engine
	admin    *admin.Service
}

// buildServices loads config and wires the full graph. Callers must Close.
func buildServices(opts *RootOptions) (*services, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	tiers := policy.DefaultTable()
	if cfg.PolicyPath != "" {
		tiers, err = policy.LoadOverrides(cfg.PolicyPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load tier policy", err)
		}
	}

	store, err := ledger.Open(cfg.DataDir, ledger.Options{SyncWrites: cfg.SyncWrites})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open ledger", err)
	}
	registry, err := session.Open(cfg.RegistryPath, tiers)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open registry", err)
	}

	resolver := session.NewResolver(registry, slog.Default())
	return &services{
		cfg:      cfg,
		tiers:    tiers,
		store:    store,
		registry: registry,
		resolver: resolver,
		engine:   query.NewEngine(store, tiers, query.Options{Trajectory: cfg.Trajectory}),
		admin:    admin.NewService(registry, store, slog.Default()),
	}, nil
}

func (s *services) Close() error {
	return s.registry.Close()
}
