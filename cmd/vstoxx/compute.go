package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vstoxxcli/internal/app"
	"vstoxxcli/internal/infrastructure"
	"vstoxxcli/internal/services"
	"vstoxxcli/internal/vstoxx"
)

func newComputeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Recompute the index for a CSV or XLSX history",
		Long: `Recompute the index for every row of a history file and write the
extended table as CSV and/or XLSX. Relative input names are resolved against
the data directory and relative output names against its reports directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompute(cmd)
		},
	}

	cmd.Flags().StringP("input", "i", "", "history file (default: data.input_file)")
	cmd.Flags().String("output-csv", "", "CSV result file (default: data.output_csv)")
	cmd.Flags().String("output-xlsx", "", "XLSX result file (default: data.output_xlsx)")
	cmd.Flags().String("mode", "", "row error handling: fail_fast or collect_all (default: compute.mode)")
	cmd.Flags().Int("workers", 0, "rows computed in parallel (default: compute.workers)")
	cmd.Flags().Bool("persist", false, "upsert the results into the configured store")
	return cmd
}

func (c *cli) runCompute(cmd *cobra.Command) error {
	input := flagOr(cmd, "input", c.cfg.Data.InputFile)
	if input == "" {
		return fmt.Errorf("no input file: pass --input or set data.input_file")
	}

	// an empty mode keeps the configured default
	var mode vstoxx.Mode
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		parsed, err := vstoxx.ParseMode(v)
		if err != nil {
			return err
		}
		mode = parsed
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers < 0 {
		return fmt.Errorf("--workers must not be negative")
	}
	persist, _ := cmd.Flags().GetBool("persist")
	if persist && !c.cfg.Store.Enabled {
		return fmt.Errorf("--persist requires store.enabled")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	if c.cfg.Compute.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Compute.Timeout)
		defer cancel()
	}

	container, err := app.NewServiceContainer(ctx, c.cfg, c.build, nil, c.logger)
	if err != nil {
		return err
	}
	defer container.Close()

	result, err := container.Index.ComputeFile(ctx,
		container.Paths.DataFile(input),
		services.ExportPaths{
			CSV:  flagOr(cmd, "output-csv", c.cfg.Data.OutputCSV),
			XLSX: flagOr(cmd, "output-xlsx", c.cfg.Data.OutputXLSX),
		},
		services.ComputeRequest{Mode: mode, Workers: workers, Persist: persist},
	)
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, result *services.FileResult) {
	s := result.Summary
	fmt.Fprintf(w, "Input:      %s\n", result.Input)
	fmt.Fprintf(w, "Rows:       %d computed, %d failed\n", s.Rows, len(result.Errors))
	if s.Rows > 0 {
		fmt.Fprintf(w, "Near rows:  %d\n", s.NearRows)
		fmt.Fprintf(w, "Period:     %s .. %s\n", s.FirstDate.Format("2006-01-02"), s.LastDate.Format("2006-01-02"))
		fmt.Fprintf(w, "Deviation:  mean %.6f  mae %.6f  rmse %.6f\n", s.MeanDeviation, s.MeanAbsDeviation, s.RMSE)
		fmt.Fprintf(w, "Max |dev|:  %.6f on %s\n", s.MaxAbsDeviation, s.MaxAbsDeviationDate.Format("2006-01-02"))
	}
	if result.Stored > 0 {
		fmt.Fprintf(w, "Stored:     %d\n", result.Stored)
	}
	for _, path := range result.Outputs {
		fmt.Fprintf(w, "Written:    %s\n", path)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "Row errors:")
		for _, rowErr := range result.Errors {
			fmt.Fprintf(w, "  %s\n", rowErr.Error())
		}
	}
}

func flagOr(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}
