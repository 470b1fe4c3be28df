package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/firmlink/internal/model"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	return NewGenerator(mustBuildIndex(t, testRegistry(), Config{}), Config{})
}

func generate(g *Generator, e model.RawEntity) []model.MatchCandidate {
	e.NormalizedKey = g.ix.norm.Normalize(e.RawName)
	return g.Generate(&e)
}

func TestGenerate_ExactName(t *testing.T) {
	g := newTestGenerator(t)

	cands := generate(g, model.RawEntity{SourceLocator: "p1", RawName: "Microsoft"})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyExactName, cands[0].Strategy)
	assert.Equal(t, "1", cands[0].Firm.FirmID)
	assert.InDelta(t, confExactName, cands[0].RawConfidence, 1e-9)
}

func TestGenerate_ExactName_SuffixInsensitive(t *testing.T) {
	g := newTestGenerator(t)

	cands := generate(g, model.RawEntity{SourceLocator: "p1", RawName: "Microsoft Corporation GmbH"})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyExactName, cands[0].Strategy)
}

func TestGenerate_AlternateName(t *testing.T) {
	g := newTestGenerator(t)

	cands := generate(g, model.RawEntity{SourceLocator: "p2", RawName: "IBM"})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyAlternateName, cands[0].Strategy)
	assert.Equal(t, "2", cands[0].Firm.FirmID)
}

func TestGenerate_Ticker(t *testing.T) {
	g := newTestGenerator(t)

	cands := generate(g, model.RawEntity{
		SourceLocator: "p3",
		RawName:       "Some Research Organization",
		AuxTokens:     []string{"MSFT"},
	})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyTicker, cands[0].Strategy)
	assert.Equal(t, "1", cands[0].Firm.FirmID)
}

func TestGenerate_Ticker_ParentheticalFallback(t *testing.T) {
	g := newTestGenerator(t)

	cands := generate(g, model.RawEntity{
		SourceLocator: "p4",
		RawName:       "Research Division (MSFT)",
	})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyTicker, cands[0].Strategy)
}

func TestGenerate_Ticker_ShortTokenRejected(t *testing.T) {
	g := newTestGenerator(t)

	// "GT" is a real ticker in the registry but fails the minimum token
	// length, so the entity falls through with no candidates at all.
	cands := generate(g, model.RawEntity{
		SourceLocator: "p5",
		RawName:       "Unrelated Institute",
		AuxTokens:     []string{"GT"},
	})
	assert.Empty(t, cands)
}

func TestGenerate_Ticker_Denylisted(t *testing.T) {
	ix := mustBuildIndex(t, []model.CanonicalFirm{
		{FirmID: "7", PrimaryName: "Techy Things", Ticker: "TECH"},
	}, Config{})
	g := NewGenerator(ix, Config{})

	cands := generate(g, model.RawEntity{
		SourceLocator: "p6",
		RawName:       "Institute of Stuff",
		AuxTokens:     []string{"TECH"},
	})
	assert.Empty(t, cands)
}

func TestGenerate_Domain(t *testing.T) {
	g := newTestGenerator(t)

	cands := generate(g, model.RawEntity{
		SourceLocator: "p7",
		RawName:       "MS Research Labs",
		DomainHint:    "https://www.microsoft.com/research",
	})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyDomain, cands[0].Strategy)
	assert.Equal(t, "1", cands[0].Firm.FirmID)
	assert.True(t, cands[0].Signals.DomainAgreement)
}

func TestGenerate_ContainedName(t *testing.T) {
	g := newTestGenerator(t)

	cands := generate(g, model.RawEntity{
		SourceLocator: "p8",
		RawName:       "International Business Machines Research Laboratory Zurich",
	})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyContainedName, cands[0].Strategy)
	assert.Equal(t, "2", cands[0].Firm.FirmID)
}

func TestGenerate_ContainedName_LeadAlias(t *testing.T) {
	g := newTestGenerator(t)

	cands := generate(g, model.RawEntity{SourceLocator: "p9", RawName: "IBM Research"})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyContainedName, cands[0].Strategy)
	assert.Equal(t, "2", cands[0].Firm.FirmID)
}

func TestGenerate_ContainedName_GenericNameNeverContains(t *testing.T) {
	g := newTestGenerator(t)

	// "Holdings Group" is a registry firm but consists only of stoplisted
	// words; an entity mentioning those words must not hit it.
	cands := generate(g, model.RawEntity{
		SourceLocator: "p10",
		RawName:       "Acme Holdings Group Research",
	})
	assert.Empty(t, cands)
}

func TestGenerate_ShortCircuitOnUnambiguousHit(t *testing.T) {
	g := newTestGenerator(t)

	// Exact hit wins; the domain hint would also match but is never probed.
	cands := generate(g, model.RawEntity{
		SourceLocator: "p11",
		RawName:       "Microsoft",
		DomainHint:    "microsoft.com",
	})
	require.Len(t, cands, 1)
	assert.Equal(t, model.StrategyExactName, cands[0].Strategy)
}

func TestGenerate_AmbiguousHitRecordedAndChainContinues(t *testing.T) {
	firms := []model.CanonicalFirm{
		{FirmID: "20", PrimaryName: "Apex Advisors", Country: "US"},
		{FirmID: "21", PrimaryName: "Apex Advisors", Country: "DE"},
		{FirmID: "22", PrimaryName: "Apex Advisors Holding", Ticker: "APEX"},
	}
	g := NewGenerator(mustBuildIndex(t, firms, Config{}), Config{})

	cands := generate(g, model.RawEntity{
		SourceLocator: "p12",
		RawName:       "Apex Advisors",
		AuxTokens:     []string{"APEX"},
	})

	// Both exact hits are recorded for the resolver, and the chain goes on
	// to the unambiguous ticker hit.
	require.Len(t, cands, 3)
	assert.Equal(t, model.StrategyExactName, cands[0].Strategy)
	assert.Equal(t, model.StrategyExactName, cands[1].Strategy)
	assert.Equal(t, model.StrategyTicker, cands[2].Strategy)
}

func TestStrategyRank_FuzzyAlwaysLast(t *testing.T) {
	for _, spec := range defaultStrategies {
		assert.Less(t, strategyRank(spec.name), strategyRank(model.StrategyFuzzyName))
	}
}
