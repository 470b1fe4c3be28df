package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/firmlink/internal/validate"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw and import validation samples",
	Long:  "Draws a stratified sample of a run's results into a labeling workbook, and imports the labeled workbook back.",
}

// -- sample export --

var sampleExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a stratified sample of a run's results for labeling",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := args[0]

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		results, err := st.GetResults(ctx, runID)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return eris.Errorf("run %s has no results to sample", runID)
		}

		vcfg := cfg.Validate
		if size, _ := cmd.Flags().GetInt("size"); size > 0 {
			vcfg.SampleSize = size
		}
		if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
			vcfg.Seed = seed
		}

		sample := validate.Sample(runID, results, vcfg)
		if err := st.SaveSample(ctx, sample); err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if err := validate.ExportXLSX(sample, out); err != nil {
			return err
		}

		fmt.Printf("exported %d of %d results to %s\n", len(sample.Items), len(results), out)
		return nil
	},
}

// -- sample import --

var sampleImportCmd = &cobra.Command{
	Use:   "import <run-id> <workbook>",
	Short: "Import a labeled sample workbook and store the precision report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := args[0]

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sample, err := validate.ImportXLSX(runID, args[1])
		if err != nil {
			return err
		}
		if err := st.SaveSample(ctx, sample); err != nil {
			return err
		}

		report := validate.Precision(sample)
		if err := st.SaveReport(ctx, report); err != nil {
			return err
		}

		fmt.Printf("imported %d labels for run %s (overall precision %.3f)\n",
			len(sample.Items), runID, report.Overall.Precision)
		return nil
	},
}

func init() {
	sampleExportCmd.Flags().String("out", "sample.xlsx", "output workbook path")
	sampleExportCmd.Flags().Int("size", 0, "sample size (default from config)")
	sampleExportCmd.Flags().Int64("seed", 0, "sampling seed (default from config)")

	sampleCmd.AddCommand(sampleExportCmd)
	sampleCmd.AddCommand(sampleImportCmd)
	rootCmd.AddCommand(sampleCmd)
}
