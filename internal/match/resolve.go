package match

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/model"
)

// Resolver applies strategy precedence and the acceptance threshold to pick
// at most one canonical match per raw entity.
type Resolver struct {
	cfg Config
}

// NewResolver creates a Resolver.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg.withDefaults()}
}

// Resolve picks the winning candidate for one entity: highest-precedence
// strategy first, highest final confidence second. A remaining tie is broken
// deterministically by firm id and reported so it is never silent. Returns
// nil when there is no candidate or the winner falls below the acceptance
// threshold.
func (r *Resolver) Resolve(e *model.RawEntity, cands []model.MatchCandidate) (result *model.MatchResult, tie bool) {
	if len(cands) == 0 {
		return nil, false
	}

	bestRank := math.MaxInt
	for _, c := range cands {
		if rank := strategyRank(c.Strategy); rank < bestRank {
			bestRank = rank
		}
	}

	var top []model.MatchCandidate
	bestConf := -1.0
	for _, c := range cands {
		if strategyRank(c.Strategy) != bestRank {
			continue
		}
		conf := FinalConfidence(c)
		switch {
		case conf > bestConf:
			bestConf = conf
			top = top[:0]
			top = append(top, c)
		case conf == bestConf:
			top = append(top, c)
		}
	}

	winner := top[0]
	if len(top) > 1 {
		tie = true
		for _, c := range top[1:] {
			if c.Firm.FirmID < winner.Firm.FirmID {
				winner = c
			}
		}
	}

	if bestConf < r.cfg.AcceptThreshold {
		return nil, tie
	}

	return &model.MatchResult{
		SourceLocator:   e.SourceLocator,
		RawName:         e.RawName,
		FirmID:          winner.Firm.FirmID,
		Strategy:        winner.Strategy,
		FinalConfidence: bestConf,
	}, tie
}

// DetectAnomalies flags firms whose distinct-entity fan-out exceeds a
// multiple of the registry-wide median fan-out and suppresses all of their
// results in bulk. A firm tripping this check has an unreliable matching
// signal (typically a name that is also a common word), so re-scoring its
// individual matches would not help. The median is taken over all
// registrySize firms, so firms that matched nothing count as zero; a magnet
// firm dominating a sparse result set cannot inflate the median with its own
// fan-out. Returns the surviving results in their original order and the
// suppressed firms with their fan-out counts.
func DetectAnomalies(results []model.MatchResult, registrySize int, cfg Config) (clean []model.MatchResult, suppressed map[string]int) {
	cfg = cfg.withDefaults()
	suppressed = make(map[string]int)
	if len(results) == 0 {
		return results, suppressed
	}

	fanout := make(map[string]int)
	for _, r := range results {
		fanout[r.FirmID]++
	}

	counts := make([]int, 0, len(fanout))
	for _, n := range fanout {
		counts = append(counts, n)
	}
	sort.Ints(counts)

	zeros := registrySize - len(counts)
	if zeros < 0 {
		zeros = 0
	}
	med := medianWithZeros(counts, zeros)

	limit := int(math.Ceil(med * cfg.FanoutMultiple))
	if limit < cfg.MinFanout {
		limit = cfg.MinFanout
	}

	for firmID, n := range fanout {
		if n > limit {
			suppressed[firmID] = n
			zap.L().Warn("suppressing anomalous fan-out",
				zap.String("component", "resolver"),
				zap.String("firm_id", firmID),
				zap.Int("fanout", n),
				zap.Int("limit", limit),
			)
		}
	}
	if len(suppressed) == 0 {
		return results, suppressed
	}

	clean = make([]model.MatchResult, 0, len(results))
	for _, r := range results {
		if _, bad := suppressed[r.FirmID]; !bad {
			clean = append(clean, r)
		}
	}
	return clean, suppressed
}

// medianWithZeros computes the median of the sorted counts preceded by the
// given number of virtual zero entries, without materializing them.
func medianWithZeros(sorted []int, zeros int) float64 {
	at := func(i int) float64 {
		if i < zeros {
			return 0
		}
		return float64(sorted[i-zeros])
	}
	n := zeros + len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return at(n / 2)
	}
	return (at(n/2-1) + at(n/2)) / 2
}
