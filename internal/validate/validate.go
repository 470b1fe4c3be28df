// Package validate draws stratified samples of match results for human
// labeling and computes the precision estimates that gate acceptance of a
// matching run. It only ever reads results; labels never feed back into the
// run that produced them.
package validate

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sells-group/firmlink/internal/model"
)

// Config configures the validation sampler.
type Config struct {
	SampleSize int   `yaml:"sample_size" mapstructure:"sample_size"`
	Seed       int64 `yaml:"seed" mapstructure:"seed"`

	// Bands are the upper bounds of the confidence bands used for
	// stratification, ascending. The last band should be 1.0.
	Bands []float64 `yaml:"bands" mapstructure:"bands"`
}

func (c Config) withDefaults() Config {
	if c.SampleSize <= 0 {
		c.SampleSize = 200
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if len(c.Bands) == 0 {
		c.Bands = []float64{0.95, 0.97, 1.0}
	}
	return c
}

// Stratum returns the stratum key for a result: strategy crossed with its
// confidence band.
func (c Config) Stratum(r model.MatchResult) string {
	lo := 0.0
	for _, hi := range c.Bands {
		if r.FinalConfidence <= hi {
			return fmt.Sprintf("%s/%.2f-%.2f", r.Strategy, lo, hi)
		}
		lo = hi
	}
	return fmt.Sprintf("%s/%.2f+", r.Strategy, lo)
}

// Sample draws a stratified random sample of size cfg.SampleSize (or fewer
// when results run out). Every non-empty stratum is allocated at least one
// slot and the rest proportionally, so rare low-confidence strategies are
// scrutinized rather than drowned out by common cases. Sampling is
// deterministic for a fixed seed and input.
func Sample(runID string, results []model.MatchResult, cfg Config) model.ValidationSample {
	cfg = cfg.withDefaults()
	sample := model.ValidationSample{RunID: runID, Seed: cfg.Seed}
	if len(results) == 0 {
		return sample
	}

	strata := make(map[string][]model.MatchResult)
	for _, r := range results {
		key := cfg.Stratum(r)
		strata[key] = append(strata[key], r)
	}

	keys := make([]string, 0, len(strata))
	for k := range strata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := cfg.SampleSize
	if n > len(results) {
		n = len(results)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	for _, key := range keys {
		members := strata[key]

		take := n * len(members) / len(results)
		if take < 1 {
			take = 1
		}
		if take > len(members) {
			take = len(members)
		}

		picked := rng.Perm(len(members))[:take]
		sort.Ints(picked)
		for _, i := range picked {
			sample.Items = append(sample.Items, model.SampleItem{
				Result:  members[i],
				Stratum: key,
			})
		}
	}
	return sample
}

// Precision computes the quality report for a labeled sample. Uncertain
// labels are excluded from both numerator and denominator but reported.
// Unlabeled items count as uncertain.
func Precision(sample model.ValidationSample) model.PrecisionReport {
	report := model.PrecisionReport{RunID: sample.RunID}

	perStratum := make(map[string]*model.StratumPrecision)
	var order []string
	for _, item := range sample.Items {
		sp, ok := perStratum[item.Stratum]
		if !ok {
			sp = &model.StratumPrecision{Stratum: item.Stratum}
			perStratum[item.Stratum] = sp
			order = append(order, item.Stratum)
		}
		tally(sp, item.Label)
		tally(&report.Overall, item.Label)
	}
	sort.Strings(order)

	for _, key := range order {
		sp := perStratum[key]
		sp.Precision = precisionOf(*sp)
		report.Strata = append(report.Strata, *sp)
	}
	report.Overall.Stratum = "overall"
	report.Overall.Precision = precisionOf(report.Overall)
	return report
}

func tally(sp *model.StratumPrecision, label model.Label) {
	switch label {
	case model.LabelCorrect:
		sp.Correct++
	case model.LabelIncorrect:
		sp.Incorrect++
	default:
		sp.Uncertain++
	}
}

func precisionOf(sp model.StratumPrecision) float64 {
	denom := sp.Correct + sp.Incorrect
	if denom == 0 {
		return 0
	}
	return float64(sp.Correct) / float64(denom)
}
