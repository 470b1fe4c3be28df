package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Print the precision report for a run",
	Long:  "Prints the stored precision report as YAML. Requires a labeled sample to have been imported first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := args[0]

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		report, err := st.GetReport(ctx, runID)
		if err != nil {
			return err
		}
		if report == nil {
			return eris.Errorf("no report for run %s; import a labeled sample first", runID)
		}

		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
