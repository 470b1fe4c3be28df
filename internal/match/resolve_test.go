package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/firmlink/internal/model"
)

func firmRef(id string) *model.CanonicalFirm {
	return &model.CanonicalFirm{FirmID: id, PrimaryName: "Firm " + id}
}

func TestResolve_NoCandidates(t *testing.T) {
	r := NewResolver(Config{})
	res, tie := r.Resolve(&model.RawEntity{SourceLocator: "x", RawName: "X"}, nil)
	assert.Nil(t, res)
	assert.False(t, tie)
}

func TestResolve_PrecedenceBeatsConfidence(t *testing.T) {
	r := NewResolver(Config{})

	// The fuzzy candidate carries every corroboration bonus, but contained
	// name outranks fuzzy by precedence regardless of numbers.
	cands := []model.MatchCandidate{
		{
			Firm:          firmRef("B"),
			Strategy:      model.StrategyFuzzyName,
			RawConfidence: fuzzyConfCeil,
			Similarity:    0.99,
			Signals:       model.Corroboration{DomainAgreement: true, LocationAgreement: true, DescriptionOverlap: true},
		},
		{
			Firm:          firmRef("A"),
			Strategy:      model.StrategyContainedName,
			RawConfidence: confContainedName,
		},
	}

	res, tie := r.Resolve(&model.RawEntity{SourceLocator: "e1", RawName: "E1"}, cands)
	require.NotNil(t, res)
	assert.False(t, tie)
	assert.Equal(t, "A", res.FirmID)
	assert.Equal(t, model.StrategyContainedName, res.Strategy)
}

func TestResolve_ConfidenceBreaksSameStrategy(t *testing.T) {
	r := NewResolver(Config{})

	cands := []model.MatchCandidate{
		{Firm: firmRef("A"), Strategy: model.StrategyExactName, RawConfidence: confExactName},
		{
			Firm:          firmRef("B"),
			Strategy:      model.StrategyExactName,
			RawConfidence: confExactName,
			Signals:       model.Corroboration{LocationAgreement: true},
		},
	}

	res, tie := r.Resolve(&model.RawEntity{SourceLocator: "e2", RawName: "E2"}, cands)
	require.NotNil(t, res)
	assert.False(t, tie)
	assert.Equal(t, "B", res.FirmID)
}

func TestResolve_TieReportedAndDeterministic(t *testing.T) {
	r := NewResolver(Config{})

	cands := []model.MatchCandidate{
		{Firm: firmRef("Z"), Strategy: model.StrategyExactName, RawConfidence: confExactName},
		{Firm: firmRef("A"), Strategy: model.StrategyExactName, RawConfidence: confExactName},
	}

	res, tie := r.Resolve(&model.RawEntity{SourceLocator: "e3", RawName: "E3"}, cands)
	require.NotNil(t, res)
	assert.True(t, tie)
	assert.Equal(t, "A", res.FirmID) // lowest firm id wins, never an arbitrary pick
}

func TestResolve_BelowThreshold(t *testing.T) {
	r := NewResolver(Config{})

	cands := []model.MatchCandidate{
		{Firm: firmRef("A"), Strategy: model.StrategyFuzzyName, RawConfidence: fuzzyConfFloor, Similarity: 0.86},
	}

	res, _ := r.Resolve(&model.RawEntity{SourceLocator: "e4", RawName: "E4"}, cands)
	assert.Nil(t, res)
}

func TestResolve_CapAt99(t *testing.T) {
	r := NewResolver(Config{})

	cands := []model.MatchCandidate{{
		Firm:          firmRef("A"),
		Strategy:      model.StrategyExactName,
		RawConfidence: confExactName,
		Signals:       model.Corroboration{DomainAgreement: true, LocationAgreement: true, DescriptionOverlap: true},
	}}

	res, _ := r.Resolve(&model.RawEntity{SourceLocator: "e5", RawName: "E5"}, cands)
	require.NotNil(t, res)
	assert.InDelta(t, maxFinalConfidence, res.FinalConfidence, 1e-9)
}

func TestDetectAnomalies_MagnetFirmSuppressed(t *testing.T) {
	var results []model.MatchResult
	// 1200 unrelated entities all land on one generically named firm.
	for i := 0; i < 1200; i++ {
		results = append(results, model.MatchResult{
			SourceLocator:   fmt.Sprintf("doc-%d", i),
			FirmID:          "magnet",
			Strategy:        model.StrategyContainedName,
			FinalConfidence: 0.94,
		})
	}
	// A handful of ordinary firms with one match each.
	for i := 0; i < 10; i++ {
		results = append(results, model.MatchResult{
			SourceLocator:   fmt.Sprintf("ok-%d", i),
			FirmID:          fmt.Sprintf("firm-%d", i),
			Strategy:        model.StrategyExactName,
			FinalConfidence: 0.98,
		})
	}

	clean, suppressed := DetectAnomalies(results, 11, Config{})
	assert.Equal(t, map[string]int{"magnet": 1200}, suppressed)
	assert.Len(t, clean, 10)
	for _, r := range clean {
		assert.NotEqual(t, "magnet", r.FirmID)
	}
	// Surviving results keep their original order.
	assert.Equal(t, "ok-0", clean[0].SourceLocator)
	assert.Equal(t, "ok-9", clean[9].SourceLocator)
}

func TestDetectAnomalies_SparseMatches(t *testing.T) {
	// The magnet is half of the matched firms. The median over matched
	// firms alone would be (1+1200)/2 and the magnet would escape; over
	// the whole registry the unmatched firms count as zero and the limit
	// collapses to the floor.
	var results []model.MatchResult
	for i := 0; i < 1200; i++ {
		results = append(results, model.MatchResult{
			SourceLocator:   fmt.Sprintf("doc-%d", i),
			FirmID:          "magnet",
			Strategy:        model.StrategyContainedName,
			FinalConfidence: 0.94,
		})
	}
	results = append(results, model.MatchResult{
		SourceLocator:   "doc-ok",
		FirmID:          "firm-1",
		Strategy:        model.StrategyExactName,
		FinalConfidence: 0.99,
	})

	clean, suppressed := DetectAnomalies(results, 4, Config{})
	assert.Equal(t, map[string]int{"magnet": 1200}, suppressed)
	require.Len(t, clean, 1)
	assert.Equal(t, "firm-1", clean[0].FirmID)
}

func TestDetectAnomalies_MinFanoutFloor(t *testing.T) {
	// 40 matches to one firm, median fan-out 1: over the median multiple
	// but under the absolute floor, so nothing is suppressed.
	var results []model.MatchResult
	for i := 0; i < 40; i++ {
		results = append(results, model.MatchResult{
			SourceLocator: fmt.Sprintf("doc-%d", i),
			FirmID:        "busy",
			Strategy:      model.StrategyExactName,
		})
	}
	for i := 0; i < 10; i++ {
		results = append(results, model.MatchResult{
			SourceLocator: fmt.Sprintf("solo-%d", i),
			FirmID:        fmt.Sprintf("solo-%d", i),
		})
	}

	clean, suppressed := DetectAnomalies(results, 11, Config{})
	assert.Empty(t, suppressed)
	assert.Len(t, clean, 50)
}

func TestDetectAnomalies_Empty(t *testing.T) {
	clean, suppressed := DetectAnomalies(nil, 0, Config{})
	assert.Empty(t, clean)
	assert.Empty(t, suppressed)
}
