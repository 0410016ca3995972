package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rezkam/stackit/internal/application/schedule"
	"github.com/rezkam/stackit/internal/config"
	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/infrastructure/observability"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/memory"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/remote"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/sqlite"
)

// app is everything one command invocation needs: configuration,
// telemetry, and the repository chosen by STACKIT_STORAGE_DRIVER.
type app struct {
	cfg *config.Config
	loc *time.Location
	now func() time.Time
	tel *observability.Telemetry

	repo       schedule.Repository
	remote     *remote.Repository // nil for the memory driver
	closeStore func() error
	store      *schedule.Store
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	tel, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Endpoint:    cfg.Observability.OTelEndpoint,
		Insecure:    cfg.Observability.OTelInsecure,
		LogLevel:    cfg.Observability.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init observability: %w", err)
	}

	a := &app{
		cfg: cfg,
		loc: cfg.Schedule.Timezone,
		now: time.Now,
		tel: tel,
	}

	store, closeStore, err := openRemoteStore(ctx, cfg.Storage)
	if err != nil {
		return nil, errors.Join(err, a.shutdownTelemetry())
	}
	if store == nil {
		a.repo = memory.New(a.loc)
		return a, nil
	}

	a.closeStore = closeStore
	a.remote = remote.New(ctx, store, remote.Config{
		UserID:           cfg.Sync.OwnerID(),
		Location:         a.loc,
		OperationTimeout: cfg.Sync.OperationTimeout,
		WriteQueueSize:   cfg.Sync.WriteQueueSize,
		MergePolicy:      cfg.Sync.MergePolicy,
	})
	a.repo = a.remote
	return a, nil
}

// openRemoteStore returns a nil store for the memory driver.
func openRemoteStore(ctx context.Context, cfg config.StorageConfig) (remote.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, store.Close, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, sqlite.DBConfig{
			Path:        cfg.SQLitePath,
			BusyTimeout: cfg.SQLiteBusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, store.Close, nil

	default:
		return nil, nil, nil
	}
}

// openSchedule creates the schedule store on day and waits for its first
// fetch, so the printed view and id lookups see the remote rows.
func (a *app) openSchedule(ctx context.Context, day time.Time, mode domain.ScheduleMode) (*schedule.Store, error) {
	if mode == "" {
		mode = a.cfg.Schedule.DefaultMode
	}

	cfg := schedule.Config{
		Location:     a.loc,
		InitialDate:  day,
		Mode:         mode,
		Now:          a.now,
		FetchTimeout: a.cfg.Sync.FetchTimeout,
	}
	if a.remote != nil {
		cfg.Fetcher = a.remote
	}

	a.store = schedule.NewStore(ctx, a.repo, cfg)
	if err := a.store.Wait(ctx); err != nil {
		return nil, err
	}
	return a.store, nil
}

// Close stops the schedule store, drains pending remote writes and releases
// the database and telemetry.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.store != nil {
		a.store.Close()
	}
	if a.remote != nil {
		if err := a.remote.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush remote writes: %w", err))
		}
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}
	if err := a.shutdownTelemetry(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) shutdownTelemetry() error {
	// Bounded so an unreachable collector cannot hang the process.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.tel.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to shutdown telemetry", slog.String("error", err.Error()))
		return err
	}
	return nil
}
