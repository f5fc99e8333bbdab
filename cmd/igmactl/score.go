package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igma-backend/internal/catalog"
	"igma-backend/internal/engine"
	"igma-backend/internal/scoring"
	"igma-backend/internal/shared/config"
)

type scoreOptions struct {
	catalogPath  string
	valuesPath   string
	previousPath string
	territoryID  string
	cycle        int
}

// valuesFile is the on-disk shape accepted by the score command.
type valuesFile struct {
	TerritoryID string                   `yaml:"territory_id"`
	CycleNumber int                      `yaml:"cycle_number"`
	Values      []scoring.IndicatorValue `yaml:"values"`
}

func newScoreCmd(cfg config.Config) *cobra.Command {
	opts := scoreOptions{catalogPath: cfg.CatalogPath}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute a diagnostic result from a values file",
		Long: `Runs the full computation pass (normalization, pillars, issues, governance
rules, prescriptions and evolution) on a YAML values file and prints the
result as JSON. --previous takes a result printed by an earlier run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", opts.catalogPath, "indicator catalog YAML (default: embedded reference catalog)")
	cmd.Flags().StringVar(&opts.valuesPath, "values", "", "indicator values YAML")
	cmd.Flags().StringVar(&opts.previousPath, "previous", "", "result JSON of the previous cycle")
	cmd.Flags().StringVar(&opts.territoryID, "territory", "", "territory id (overrides the values file)")
	cmd.Flags().IntVar(&opts.cycle, "cycle", 0, "cycle number (overrides the values file)")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}

func runScore(cmd *cobra.Command, cfg config.Config, opts scoreOptions) error {
	indicators, err := loadCatalog(opts.catalogPath)
	if err != nil {
		return err
	}
	if errs := catalog.ValidateAll(indicators); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", e.Error())
		}
	}

	raw, err := os.ReadFile(opts.valuesPath)
	if err != nil {
		return fmt.Errorf("read values: %w", err)
	}
	var vf valuesFile
	if err := yaml.Unmarshal(raw, &vf); err != nil {
		return fmt.Errorf("parse values: %w", err)
	}
	if opts.territoryID != "" {
		vf.TerritoryID = opts.territoryID
	}
	if opts.cycle > 0 {
		vf.CycleNumber = opts.cycle
	}
	if vf.CycleNumber <= 0 {
		vf.CycleNumber = 1
	}

	in := engine.Input{
		AssessmentID: uuid.NewString(),
		TerritoryID:  vf.TerritoryID,
		CycleNumber:  vf.CycleNumber,
		Catalog:      catalog.New(indicators),
		Values:       vf.Values,
		Now:          time.Now().UTC(),
	}
	for i := range in.Values {
		in.Values[i].IndicatorCode = catalog.NormalizeCode(in.Values[i].IndicatorCode)
		in.Values[i].AssessmentID = in.AssessmentID
	}

	if opts.previousPath != "" {
		prevRaw, err := os.ReadFile(opts.previousPath)
		if err != nil {
			return fmt.Errorf("read previous: %w", err)
		}
		var prev engine.Result
		if err := json.Unmarshal(prevRaw, &prev); err != nil {
			return fmt.Errorf("parse previous: %w", err)
		}
		if in.TerritoryID == "" {
			in.TerritoryID = prev.TerritoryID
		}
		if opts.cycle <= 0 && vf.CycleNumber <= prev.CycleNumber {
			in.CycleNumber = prev.CycleNumber + 1
		}
		in.Previous = prev.Prior()
		in.Alerts = prev.Alerts
	}

	eng := engine.Engine{Concurrency: cfg.Concurrency, Epsilon: cfg.EvolutionEpsilon}
	res := eng.Compute(in)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func loadCatalog(path string) ([]catalog.Indicator, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}
