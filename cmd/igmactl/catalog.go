package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"igma-backend/internal/catalog"
	"igma-backend/internal/shared/config"
	"igma-backend/internal/shared/storage/db"
	"igma-backend/internal/shared/telemetry"
)

func newCatalogCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and publish the indicator catalog",
	}
	cmd.AddCommand(newCatalogValidateCmd(cfg), newCatalogSeedCmd(cfg))
	return cmd
}

func newCatalogValidateCmd(cfg config.Config) *cobra.Command {
	path := cfg.CatalogPath
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report configuration errors in a catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			indicators, err := loadCatalog(path)
			if err != nil {
				return err
			}
			errs := catalog.ValidateAll(indicators)
			for _, e := range errs {
				fmt.Fprintln(cmd.OutOrStdout(), e.Error())
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d configuration error(s) in %d indicator(s)", len(errs), len(indicators))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d indicators\n", len(indicators))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "catalog", path, "indicator catalog YAML (default: embedded reference catalog)")
	return cmd
}

func newCatalogSeedCmd(cfg config.Config) *cobra.Command {
	path := cfg.CatalogPath
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert a catalog file into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			indicators, err := loadCatalog(path)
			if err != nil {
				return err
			}
			if errs := catalog.ValidateAll(indicators); len(errs) > 0 {
				return fmt.Errorf("refusing to seed: %s", errs[0].Error())
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			repo := &catalog.PGRepo{DB: sqlDB}
			if err := repo.Upsert(ctx, indicators); err != nil {
				return err
			}
			telemetry.Info("catalog.seeded", map[string]any{"indicators": len(indicators)})
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d indicators\n", len(indicators))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "catalog", path, "indicator catalog YAML (default: embedded reference catalog)")
	return cmd
}

func newMigrateCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return err
			}
			telemetry.Info("migrate.done", map[string]any{"env": cfg.Env})
			return nil
		},
	}
}
