package main

// Offline scoring and catalog tooling:
//   go run ./cmd/igmactl score --values values.yaml
//   go run ./cmd/igmactl catalog validate --catalog catalog.yaml

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igma-backend/internal/shared/config"
	"igma-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	if err := telemetry.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry init: %v\n", err)
	}
	defer telemetry.Sync()

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "igmactl",
		Short:         "Territorial diagnostic scoring tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScoreCmd(cfg), newCatalogCmd(cfg), newMigrateCmd(cfg))
	return root
}
