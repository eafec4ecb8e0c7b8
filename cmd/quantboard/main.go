package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/quantboard-lab/quantboard/internal/catalog"
	"github.com/quantboard-lab/quantboard/internal/dataset"
	"github.com/quantboard-lab/quantboard/internal/executor"
	"github.com/quantboard-lab/quantboard/internal/logger"
	"github.com/quantboard-lab/quantboard/internal/pipeline"
	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// applyAction loads the CSV dataset, loads the indicator catalog, and applies
// every indicator in dependency order, reporting per-indicator outcomes.
func applyAction(ctx context.Context, cmd *cli.Command) error {
	dataPath := cmd.String("data")
	dbPath := cmd.String("db")
	catalogPath := cmd.String("catalog")
	configPath := cmd.String("config")

	logInstance, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logInstance.Sync()

	// Build the pipeline config from the config file, or from the executor
	// flags when no file is given
	config := pipeline.EmptyConfig()

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		config, err = pipeline.ParseConfig(string(content))
		if err != nil {
			return err
		}
	} else {
		config.ExecutorCommand = cmd.String("executor")
		config.ExecutorArgs = cmd.StringSlice("executor-arg")

		if err := config.Validate(); err != nil {
			return err
		}
	}

	// Load the dataset
	store, err := dataset.NewDuckDBStore(dbPath, logInstance)
	if err != nil {
		return fmt.Errorf("failed to open dataset store: %w", err)
	}
	defer store.Close()

	datasetID := datasetIDFromPath(dataPath)

	if err := store.LoadCSV(ctx, datasetID, dataPath); err != nil {
		return err
	}

	// Load the catalog snapshot
	catalogStore, err := catalog.NewDuckDBStore(catalogPath, logInstance)
	if err != nil {
		return fmt.Errorf("failed to open catalog store: %w", err)
	}
	defer catalogStore.Close()

	if err := catalogStore.Initialize(); err != nil {
		return err
	}

	snapshot, err := catalogStore.LoadAll()
	if err != nil {
		return err
	}

	if snapshot.Len() == 0 {
		fmt.Println("Catalog is empty, nothing to apply.")

		return nil
	}

	exec := executor.NewProcessExecutor(config.ExecutorCommand, config.ExecutorArgs, logInstance)

	pipe, err := pipeline.NewPipeline(store, exec, config, logInstance)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onProgress := pipeline.ProgressCallback(func(current, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}

		bar.Set(current)
	})

	result, err := pipe.ApplyAll(ctx, datasetID, snapshot, optional.Some(onProgress))
	if err != nil {
		return err
	}

	printResult(result)

	if len(result.Failed()) > 0 {
		return fmt.Errorf("%d indicator(s) failed", len(result.Failed()))
	}

	return nil
}

// schemaAction prints the JSON schema of the pipeline config file.
func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := pipeline.GenerateSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func printResult(result types.BatchResult) {
	fmt.Printf("\nDataset: %s\n", result.DatasetID)
	fmt.Printf("Catalog: %s\n", result.Validity)

	if len(result.CycleNodes) > 0 {
		fmt.Printf("Cycle nodes: %s\n", strings.Join(result.CycleNodes, ", "))
	}

	fmt.Println()

	for _, outcome := range result.Outcomes {
		switch outcome.Status {
		case types.ApplyStatusSuccess:
			fmt.Printf("  [ok]      %-20s -> %s (%d rows)\n",
				outcome.IndicatorName, strings.Join(outcome.Columns, ", "), outcome.RowCount)
		case types.ApplyStatusFailed:
			fmt.Printf("  [failed]  %-20s %s\n", outcome.IndicatorName, outcome.Error)
		case types.ApplyStatusSkipped:
			fmt.Printf("  [skipped] %-20s %s\n", outcome.IndicatorName, outcome.Error)
		}

		for _, warning := range outcome.Warnings {
			fmt.Printf("            warning: %s\n", warning)
		}
	}

	fmt.Printf("\n%d succeeded, %d failed, %d total\n",
		len(result.Succeeded()), len(result.Failed()), len(result.Outcomes))
}

func datasetIDFromPath(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

func main() {
	cmd := &cli.Command{
		Name:  "quantboard",
		Usage: "Apply scripted indicators to market datasets in dependency order",
		Commands: []*cli.Command{
			{
				Name:  "apply",
				Usage: "Apply the indicator catalog to a CSV dataset",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the CSV dataset",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "db",
						Usage:    "Path to the DuckDB dataset database",
						Value:    "quantboard.duckdb",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "catalog",
						Aliases:  []string{"c"},
						Usage:    "Path to the DuckDB catalog database",
						Value:    "catalog.duckdb",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "config",
						Usage:    "Path to the pipeline YAML config",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "executor",
						Usage:    "Executor command used when no config file is given",
						Value:    "python3",
						Required: false,
					},
					&cli.StringSliceFlag{
						Name:     "executor-arg",
						Usage:    "Extra argument passed to the executor command (repeatable)",
						Required: false,
					},
				},
				Action: applyAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the pipeline config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
