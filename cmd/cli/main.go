package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"lassosig/adapters/excel"
	"lassosig/adapters/rng"
	"lassosig/app"
	"lassosig/domain/model"
	"lassosig/internal"
	"lassosig/internal/config"
	"lassosig/internal/testkit"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "lassosig",
		Short: "Permutation-based significance testing for lasso logistic regression",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runFlags struct {
	response     string
	permutations int
	seed         int64
	folds        int
	workers      int
	loss         string
	fdr          string
	smooth       bool
	jsonOut      bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.response, "response", "", "Response column name (default: last column)")
	cmd.Flags().IntVar(&f.permutations, "permutations", 0, "Number of label permutations (overrides PERMUTATION_COUNT)")
	cmd.Flags().Int64Var(&f.seed, "seed", -1, "Base random seed (overrides RANDOM_SEED)")
	cmd.Flags().IntVar(&f.folds, "folds", 0, "Cross-validation fold count (overrides FOLD_COUNT)")
	cmd.Flags().IntVar(&f.workers, "workers", -1, "Concurrent permutation workers; 0 runs sequentially")
	cmd.Flags().StringVar(&f.loss, "loss", "", "CV loss: misclassification|deviance")
	cmd.Flags().StringVar(&f.fdr, "fdr", "", "Correction: BH|bonferroni")
	cmd.Flags().BoolVar(&f.smooth, "smooth", false, "Use the (1+k)/(1+N) p-value estimator")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Emit the full result as JSON")
}

func (f *runFlags) apply(cfg *config.PipelineConfig) {
	if f.permutations > 0 {
		cfg.PermutationCount = f.permutations
	}
	if f.seed >= 0 {
		cfg.Seed = f.seed
	}
	if f.folds > 0 {
		cfg.FoldCount = f.folds
	}
	if f.workers >= 0 {
		cfg.Workers = f.workers
	}
	if f.loss != "" {
		cfg.LossMetric = model.LossMetric(f.loss)
	}
	if f.fdr != "" {
		cfg.FDRMethod = model.FDRMethod(f.fdr)
	}
	if f.smooth {
		cfg.SmoothPValues = true
	}
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [data-file]",
		Short: "Run the significance pipeline on an xlsx or csv design matrix",
		Long: `Run the full pipeline against a tabular file: cross-validated lasso fit,
label-permutation null distribution, empirical p-values, and FDR correction.

The first row is the header. One column is the binary {0,1} response
(--response, default last column); every other column is a predictor.

Example: lassosig run trial.xlsx --response outcome --permutations 500 --seed 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := excel.NewDataReader(args[0]).ReadDataset(flags.response)
			if err != nil {
				return err
			}
			return executeRun(cmd.Context(), ds, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func newDemoCmd() *cobra.Command {
	var flags runFlags
	var rows, cols int
	var noise bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the pipeline on a seeded synthetic dataset",
		Long: `Generate a synthetic design matrix and run the pipeline on it. By default
one column drives the response, so its term should surface as significant
while the rest stay null.

Example: lassosig demo --rows 300 --cols 20 --permutations 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := testkit.DefaultGeneratorConfig()
			gen.Rows = rows
			gen.Columns = cols

			var ds *model.Dataset
			var err error
			if noise {
				gen.SignalColumn = -1
				ds, err = testkit.GenerateNoise(gen)
			} else {
				ds, err = testkit.GenerateSignal(gen)
			}
			if err != nil {
				return err
			}
			if !noise {
				fmt.Printf("Synthetic dataset: %dx%d, signal planted on var%d\n\n",
					gen.Rows, gen.Columns, gen.SignalColumn+1)
			}
			return executeRun(cmd.Context(), ds, flags)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 200, "Observations to generate")
	cmd.Flags().IntVar(&cols, "cols", 30, "Predictors to generate")
	cmd.Flags().BoolVar(&noise, "noise", false, "Generate labels independent of every predictor")
	flags.register(cmd)
	return cmd
}

func executeRun(ctx context.Context, ds *model.Dataset, flags runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags.apply(&cfg.Pipeline)
	if err := cfg.Pipeline.Validate(); err != nil {
		return err
	}

	svc, err := app.NewPipelineService(cfg.Pipeline, rng.NewStreamAdapter(), internal.NewDefaultLogger())
	if err != nil {
		return err
	}

	result, err := svc.Run(ctx, ds)
	if err != nil {
		return err
	}

	if flags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printTable(result)
	return nil
}

func printTable(result *app.RunResult) {
	m := result.Manifest
	fmt.Printf("Run %s\n", m.RunID)
	fmt.Printf("  n=%d p=%d permutations=%d seed=%d lambda=%.6g runtime=%dms\n",
		m.Observations, m.Terms, m.PermutationCount, m.Seed, m.SelectedLambda, m.RuntimeMs)
	if m.RetriedShuffles > 0 {
		fmt.Printf("  re-drew %d degenerate shuffles\n", m.RetriedShuffles)
	}
	fmt.Println()

	fmt.Printf("%-20s %12s %10s %10s\n", "term", "estimate", "p", "q")
	for _, row := range result.Table.Rows {
		marker := ""
		if row.QValue <= 0.05 {
			marker = " *"
		}
		fmt.Printf("%-20s %12.6f %10.4f %10.4f%s\n",
			row.Term, row.Estimate, row.PValue, row.QValue, marker)
	}
}
