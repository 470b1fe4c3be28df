package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/loader"
	"github.com/sells-group/firmlink/internal/match"
	"github.com/sells-group/firmlink/internal/model"
)

var (
	matchFirmsPath    string
	matchEntitiesPath string
	matchRegistry     string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Resolve a batch of raw entities against a firm registry",
	Long:  "Loads a firm registry and a raw-entity batch, runs the full strategy chain, and persists the accepted results as a new run. A failed run stores no results.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("component", "match"))

		firms, firmStats, err := loader.LoadFirms(ctx, matchFirmsPath)
		if err != nil {
			return err
		}
		entities, entityStats, err := loader.LoadEntities(ctx, matchEntitiesPath)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		registry := matchRegistry
		if registry == "" {
			registry = matchFirmsPath
		}
		run, err := st.CreateRun(ctx, registry)
		if err != nil {
			return err
		}
		log.Info("run started",
			zap.String("run_id", run.ID),
			zap.Int("firms", len(firms)),
			zap.Int("entities", len(entities)))

		pipeline := match.NewPipeline(cfg.Match)
		results, stats, err := pipeline.Run(ctx, firms, entities)
		if err != nil {
			if ferr := st.FinishRun(ctx, run.ID, model.RunStatusFailed, nil); ferr != nil {
				log.Error("mark run failed", zap.Error(ferr))
			}
			return eris.Wrapf(err, "match: run %s", run.ID)
		}
		stats.Skips[model.SkipMalformedFirm] += firmStats.Skipped
		stats.Skips[model.SkipMalformedEntity] += entityStats.Skipped

		if err := st.AppendResults(ctx, run.ID, results); err != nil {
			if ferr := st.FinishRun(ctx, run.ID, model.RunStatusFailed, nil); ferr != nil {
				log.Error("mark run failed", zap.Error(ferr))
			}
			return err
		}
		if err := st.FinishRun(ctx, run.ID, model.RunStatusComplete, stats); err != nil {
			return err
		}

		fmt.Printf("run %s complete: %d/%d matched, %d suppressed\n",
			run.ID, stats.Matched, stats.Entities, stats.Suppressed)
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchFirmsPath, "firms", "", "firm registry file (csv or xlsx)")
	matchCmd.Flags().StringVar(&matchEntitiesPath, "entities", "", "raw entity batch file (csv or xlsx)")
	matchCmd.Flags().StringVar(&matchRegistry, "registry", "", "registry snapshot label (default: firms path)")
	matchCmd.MarkFlagRequired("firms")    //nolint:errcheck
	matchCmd.MarkFlagRequired("entities") //nolint:errcheck
	rootCmd.AddCommand(matchCmd)
}
