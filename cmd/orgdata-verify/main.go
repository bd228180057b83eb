// Package main is the orgdata startup verification tool.
//
// It loads configuration, connects to the store with the configured
// retry policy, validates the schema contract against the live
// database, runs a read probe through each repository (inside one
// transaction to exercise the coordinator path), and reports pool
// health. Operators run it after provisioning a database to confirm
// the data-access layer can operate against it before any application
// process is pointed there.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orgdata/internal/config"
	"orgdata/internal/db"
	"orgdata/internal/logger"
	"orgdata/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the verification lifecycle so that main() can
// cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New(cfg.Log, cfg.Service, cfg.Environment)
	log.Info().
		Str("version", cfg.Build.Version).
		Str("commit", cfg.Build.Commit).
		Msg("orgdata verify starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := db.NewProvider(ctx, cfg.Database, log,
		db.WithQueryTracer(logger.NewQueryTracer(log)))
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}
	defer provider.Close()

	if err := db.ValidateSchema(ctx, provider.Pool(), log); err != nil {
		return fmt.Errorf("validating schema contract: %w", err)
	}
	log.Info().Msg("schema contract validated")

	txm := db.NewTxManager(provider.Pool(), log, cfg.Database.TxTimeout)
	counts, err := probeStore(ctx, txm)
	if err != nil {
		return fmt.Errorf("probing repositories: %w", err)
	}
	log.Info().
		Int("departments", counts.departments).
		Int("employees", counts.employees).
		Int("projects", counts.projects).
		Msg("repository probe complete")

	stat := provider.Stat()
	log.Info().
		Int32("total_conns", stat.TotalConns()).
		Int32("idle_conns", stat.IdleConns()).
		Bool("healthy", provider.Healthy(ctx)).
		Msg("store verified")

	return nil
}

type probeCounts struct {
	departments int
	employees   int
	projects    int
}

// probeStore reads one page from each repository inside a single
// transaction, proving that statement execution, row mapping, and the
// transaction coordinator all work against the live store.
func probeStore(ctx context.Context, txm *db.TxManager) (probeCounts, error) {
	var counts probeCounts
	err := txm.RunInTx(ctx, func(ctx context.Context, store *db.Store) error {
		depts, err := store.Departments.List(ctx, types.DepartmentFilter{Limit: probePageSize})
		if err != nil {
			return err
		}
		counts.departments = len(depts)

		emps, err := store.Employees.List(ctx, types.EmployeeFilter{Limit: probePageSize})
		if err != nil {
			return err
		}
		counts.employees = len(emps)

		projs, err := store.Projects.List(ctx, types.ProjectFilter{Limit: probePageSize})
		if err != nil {
			return err
		}
		counts.projects = len(projs)
		return nil
	})
	return counts, err
}

const probePageSize = 100
