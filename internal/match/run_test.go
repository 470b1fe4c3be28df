package match

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/firmlink/internal/model"
)

func runPipeline(t *testing.T, cfg Config, firms []model.CanonicalFirm, entities []model.RawEntity) ([]model.MatchResult, *model.RunStats) {
	t.Helper()
	results, stats, err := NewPipeline(cfg).Run(context.Background(), firms, entities)
	require.NoError(t, err)
	return results, stats
}

func TestRun_MicrosoftExact(t *testing.T) {
	results, stats := runPipeline(t, Config{}, testRegistry(), []model.RawEntity{
		{SourceLocator: "pat-1", RawName: "Microsoft"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].FirmID)
	assert.Equal(t, model.StrategyExactName, results[0].Strategy)
	assert.GreaterOrEqual(t, results[0].FinalConfidence, 0.94)
	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 1, stats.ByStrategy[model.StrategyExactName])
}

func TestRun_IBMResearchViaAlias(t *testing.T) {
	results, _ := runPipeline(t, Config{}, testRegistry(), []model.RawEntity{
		{SourceLocator: "pub-1", RawName: "IBM Research"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].FirmID)
	assert.Equal(t, model.StrategyContainedName, results[0].Strategy)
}

func TestRun_ShortAcronymNotFalsePositive(t *testing.T) {
	// "GT" is a registry ticker, but a bare two-letter acronym with no
	// other signal must not produce a match.
	results, stats := runPipeline(t, Config{}, testRegistry(), []model.RawEntity{
		{SourceLocator: "pub-2", RawName: "Unrelated Institute", AuxTokens: []string{"GT"}},
	})

	assert.Empty(t, results)
	assert.Equal(t, 1, stats.Unmatched)
}

func TestRun_MagnetFirmSuppressed(t *testing.T) {
	firms := append(testRegistry(), model.CanonicalFirm{
		FirmID:      "magnet",
		PrimaryName: "Advanced Materials", // generic enough to absorb containment hits
	})
	// Ordinary firms keep the registry-wide median fan-out at 1.
	for i := 0; i < 12; i++ {
		firms = append(firms, model.CanonicalFirm{
			FirmID:      fmt.Sprintf("plain-%d", i),
			PrimaryName: fmt.Sprintf("Plainview Partners %d", i),
		})
	}

	entities := []model.RawEntity{{SourceLocator: "keep-1", RawName: "Microsoft"}}
	for i := 0; i < 12; i++ {
		entities = append(entities, model.RawEntity{
			SourceLocator: fmt.Sprintf("plain-%d", i),
			RawName:       fmt.Sprintf("Plainview Partners %d", i),
		})
	}
	for i := 0; i < 1100; i++ {
		entities = append(entities, model.RawEntity{
			SourceLocator: fmt.Sprintf("noise-%d", i),
			RawName:       fmt.Sprintf("Advanced Materials Laboratory %d", i),
		})
	}

	results, stats := runPipeline(t, Config{}, firms, entities)

	require.Len(t, results, 13)
	for _, r := range results {
		assert.NotEqual(t, "magnet", r.FirmID)
	}
	assert.Equal(t, 1100, stats.Suppressed)
	assert.Equal(t, 1100, stats.AnomalousFirms["magnet"])
	assert.Equal(t, 13, stats.Matched)
	assert.Equal(t, 0, stats.ByStrategy[model.StrategyContainedName])
}

func TestRun_MagnetFirmSuppressedInSparseRun(t *testing.T) {
	// Only two firms receive matches and the magnet is one of them, so a
	// median over matched firms alone would be dominated by the magnet's
	// own fan-out. The registry-wide median must catch it regardless.
	firms := append(testRegistry(), model.CanonicalFirm{
		FirmID:      "magnet",
		PrimaryName: "Advanced Materials",
	})

	entities := []model.RawEntity{{SourceLocator: "keep-1", RawName: "Microsoft"}}
	for i := 0; i < 1200; i++ {
		entities = append(entities, model.RawEntity{
			SourceLocator: fmt.Sprintf("noise-%d", i),
			RawName:       fmt.Sprintf("Advanced Materials Laboratory %d", i),
		})
	}

	results, stats := runPipeline(t, Config{}, firms, entities)

	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].FirmID)
	assert.Equal(t, 1200, stats.Suppressed)
	assert.Equal(t, 1200, stats.AnomalousFirms["magnet"])
	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 0, stats.ByStrategy[model.StrategyContainedName])
}

func TestRun_Deterministic(t *testing.T) {
	firms := testRegistry()
	var entities []model.RawEntity
	for i := 0; i < 200; i++ {
		entities = append(entities,
			model.RawEntity{SourceLocator: fmt.Sprintf("a-%d", i), RawName: "Microsoft Corporation"},
			model.RawEntity{SourceLocator: fmt.Sprintf("b-%d", i), RawName: "IBM Research Division"},
			model.RawEntity{SourceLocator: fmt.Sprintf("c-%d", i), RawName: "Microsfot", CountryHint: "US", AuxText: "cloud computing productivity software"},
			model.RawEntity{SourceLocator: fmt.Sprintf("d-%d", i), RawName: "Nothing Like Anything"},
		)
	}

	cfg := Config{Workers: 8, MinFanout: 10000}
	first, stats1 := runPipeline(t, cfg, firms, entities)
	second, stats2 := runPipeline(t, cfg, firms, entities)

	assert.Equal(t, first, second)
	assert.Equal(t, stats1.Matched, stats2.Matched)

	// Output order follows input order regardless of worker count.
	serial, _ := runPipeline(t, Config{Workers: 1, MinFanout: 10000}, firms, entities)
	assert.Equal(t, serial, first)
}

func TestRun_ThresholdAndAtMostOneInvariants(t *testing.T) {
	firms := testRegistry()
	entities := []model.RawEntity{
		{SourceLocator: "e-1", RawName: "Microsoft"},
		{SourceLocator: "e-2", RawName: "IBM Research"},
		{SourceLocator: "e-3", RawName: "Microsfot", CountryHint: "US", AuxText: "cloud computing productivity software"},
		{SourceLocator: "e-4", RawName: "Goodyear Tire & Rubber Co."},
	}

	cfg := Config{}.withDefaults()
	results, _ := runPipeline(t, cfg, firms, entities)

	seen := make(map[string]bool)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.FinalConfidence, cfg.AcceptThreshold)
		assert.False(t, seen[r.SourceLocator], "entity %s matched twice", r.SourceLocator)
		seen[r.SourceLocator] = true
	}
}

func TestRun_FuzzyNeverOutranksDictionary(t *testing.T) {
	results, _ := runPipeline(t, Config{}, testRegistry(), []model.RawEntity{
		// Exact dictionary hit; also similar enough that fuzzy would fire
		// if it were consulted.
		{SourceLocator: "e-1", RawName: "Microsoft", CountryHint: "US"},
	})

	require.Len(t, results, 1)
	assert.NotEqual(t, model.StrategyFuzzyName, results[0].Strategy)
}

func TestRun_MalformedEntitiesSkipped(t *testing.T) {
	results, stats := runPipeline(t, Config{}, testRegistry(), []model.RawEntity{
		{SourceLocator: "", RawName: "Microsoft"},
		{SourceLocator: "ok-1", RawName: ""},
		{SourceLocator: "ok-2", RawName: "%%%"},
		{SourceLocator: "ok-3", RawName: "Microsoft"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "ok-3", results[0].SourceLocator)
	assert.Equal(t, 3, stats.Skips[model.SkipMalformedEntity])
	assert.Equal(t, 4, stats.Entities)
}

func TestRun_MalformedFirmsCounted(t *testing.T) {
	firms := append(testRegistry(), model.CanonicalFirm{PrimaryName: "No ID Corp"})
	_, stats := runPipeline(t, Config{}, firms, nil)
	assert.Equal(t, 1, stats.Skips[model.SkipMalformedFirm])
}

func TestRun_CancelledContextAbortsWithNoPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var entities []model.RawEntity
	for i := 0; i < 100; i++ {
		entities = append(entities, model.RawEntity{SourceLocator: fmt.Sprintf("e-%d", i), RawName: "Microsoft"})
	}

	results, stats, err := NewPipeline(Config{}).Run(ctx, testRegistry(), entities)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Nil(t, stats)
}
