package match

import (
	"sort"

	"github.com/antzucaro/matchr"

	"github.com/sells-group/firmlink/internal/model"
)

// Fuzzy confidence band. Scaled by similarity within the band, so a perfect
// fuzzy score still ranks below every dictionary strategy. That ordering is
// a hard invariant: dictionary strategies have externally validated
// near-100% precision and fuzzy matching does not.
const (
	fuzzyConfFloor = 0.90
	fuzzyConfCeil  = 0.94

	// maxFuzzyCandidates bounds how many near-matches are handed to the
	// resolver per entity.
	maxFuzzyCandidates = 5
)

// Fuzzy is the fallback matcher used when no dictionary strategy hits. It
// compares the entity key against a bounded candidate pool, never the full
// registry.
type Fuzzy struct {
	ix  *Index
	cfg Config
}

// NewFuzzy creates a Fuzzy matcher over a built index.
func NewFuzzy(ix *Index, cfg Config) *Fuzzy {
	return &Fuzzy{ix: ix, cfg: cfg.withDefaults()}
}

// Match scores the entity against its candidate pool with Jaro-Winkler
// similarity and returns candidates at or above the configured threshold,
// best first, capped at maxFuzzyCandidates.
func (fz *Fuzzy) Match(e *model.RawEntity) []model.MatchCandidate {
	key := e.NormalizedKey
	if key == "" {
		key = fz.ix.norm.Normalize(e.RawName)
	}
	if key == "" {
		return nil
	}

	pool := fz.ix.fuzzyPool(key, e.CountryHint)
	if len(pool) == 0 {
		return nil
	}

	var cands []model.MatchCandidate
	for _, f := range pool {
		best := 0.0
		for _, name := range f.names {
			if sim := matchr.JaroWinkler(key, name, false); sim > best {
				best = sim
			}
		}
		if best < fz.cfg.FuzzyThreshold {
			continue
		}
		cands = append(cands, model.MatchCandidate{
			Firm:          f.firm,
			Strategy:      model.StrategyFuzzyName,
			RawConfidence: fuzzyConfidence(best, fz.cfg.FuzzyThreshold),
			Similarity:    best,
			Signals:       corroborate(e, f),
		})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Similarity != cands[j].Similarity {
			return cands[i].Similarity > cands[j].Similarity
		}
		return cands[i].Firm.FirmID < cands[j].Firm.FirmID
	})
	if len(cands) > maxFuzzyCandidates {
		cands = cands[:maxFuzzyCandidates]
	}
	return cands
}

// fuzzyConfidence maps a similarity score in [threshold, 1] linearly onto
// the fuzzy confidence band.
func fuzzyConfidence(sim, threshold float64) float64 {
	if sim <= threshold {
		return fuzzyConfFloor
	}
	span := 1 - threshold
	if span <= 0 {
		return fuzzyConfCeil
	}
	conf := fuzzyConfFloor + (fuzzyConfCeil-fuzzyConfFloor)*(sim-threshold)/span
	if conf > fuzzyConfCeil {
		conf = fuzzyConfCeil
	}
	return conf
}
