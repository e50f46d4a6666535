package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/app"
	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/infra/database"
	"github.com/arklim/campus-records/internal/infra/logger"
	"github.com/arklim/campus-records/internal/infra/security"
	"github.com/arklim/campus-records/internal/usecase"
)

// env carries the configuration and logger shared by every subcommand.
type env struct {
	cfg *config.AppConfig
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "recordsctl",
		Short:         "Operate the campus records service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg.App.Env)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			e.cfg, e.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}

	rootCmd.AddCommand(newMigrateCmd(e), newBootstrapCmd(e), newListCmd(e))
	return rootCmd
}

func newMigrateCmd(e *env) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				pool, err := database.NewPostgresPool(cmd.Context(), e.cfg.Postgres, e.log)
				if err != nil {
					return err
				}
				defer pool.Close()
				return database.RunMigrations(cmd.Context(), pool, e.log)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				pool, err := database.NewPostgresPool(cmd.Context(), e.cfg.Postgres, e.log)
				if err != nil {
					return err
				}
				defer pool.Close()

				version, err := database.MigrationVersion(cmd.Context(), pool)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			},
		},
	)
	return migrateCmd
}

func newBootstrapCmd(e *env) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the configured teacher and student accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := e.cfg.Bootstrap
			if force {
				settings.Enabled = true
			}
			if !settings.Enabled {
				return fmt.Errorf("bootstrap is disabled; set RECORDS_BOOTSTRAP_ENABLED or pass --force")
			}

			store, closeStore, err := app.OpenStore(cmd.Context(), e.cfg, e.log)
			if err != nil {
				return err
			}
			defer closeStore()

			hasher, err := security.NewArgon2Hasher(e.cfg.Argon2.Params())
			if err != nil {
				return err
			}

			report, err := usecase.NewBootstrapService(store, hasher, e.log).Seed(cmd.Context(), settings)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "created: %s\n", strings.Join(report.Created, ", "))
			_, _ = fmt.Fprintf(out, "skipped: %s\n", strings.Join(report.Skipped, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "seed even when bootstrap.enabled is false")
	return cmd
}

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list <students|teachers|courses|departments>",
		Short: "Print every record of a collection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}

			store, closeStore, err := app.OpenStore(cmd.Context(), e.cfg, e.log)
			if err != nil {
				return err
			}
			defer closeStore()

			records, err := listRecords(cmd.Context(), store, kind)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
}

func listRecords(ctx context.Context, repos port.Repositories, kind domain.Kind) (any, error) {
	var (
		records any
		err     error
	)
	switch kind {
	case domain.KindStudent:
		records, err = repos.Students().List(ctx)
	case domain.KindTeacher:
		records, err = repos.Teachers().List(ctx)
	case domain.KindCourse:
		records, err = repos.Courses().List(ctx)
	case domain.KindDepartment:
		records, err = repos.Departments().List(ctx)
	default:
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Segment(), err)
	}
	return records, nil
}
