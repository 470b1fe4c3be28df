package match

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/firmlink/internal/model"
)

// Pipeline wires the index builder, strategy chain, fuzzy fallback and
// resolver into a full resolution run.
type Pipeline struct {
	cfg  Config
	norm *Normalizer
}

// NewPipeline creates a Pipeline with defaults applied.
func NewPipeline(cfg Config) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{cfg: cfg, norm: NewNormalizer(cfg.LegalSuffixes)}
}

// Run resolves every raw entity against the registry and returns the final
// match table plus run statistics. Entities are resolved concurrently by
// cfg.Workers goroutines over the immutable index; each worker fills its own
// buffers, merged in chunk order afterwards, so output order matches input
// order and two runs over the same inputs are byte-identical. A context
// cancellation aborts the whole run with no partial results. Malformed
// records are skipped and counted, never fatal.
func (p *Pipeline) Run(ctx context.Context, firms []model.CanonicalFirm, entities []model.RawEntity) ([]model.MatchResult, *model.RunStats, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	ix, err := BuildIndex(ctx, firms, p.cfg)
	if err != nil {
		return nil, nil, err
	}

	gen := NewGenerator(ix, p.cfg)
	fz := NewFuzzy(ix, p.cfg)
	res := NewResolver(p.cfg)

	workers := p.cfg.Workers
	if workers > len(entities) {
		workers = len(entities)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(entities) + workers - 1) / workers

	buffers := make([][]model.MatchResult, workers)
	workerStats := make([]*model.RunStats, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(entities))
		buf := make([]model.MatchResult, 0, hi-lo)
		stats := model.NewRunStats()
		buffers[w] = buf
		workerStats[w] = stats

		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				e := entities[i]
				if r := p.resolveOne(&e, gen, fz, res, stats); r != nil {
					buffers[w] = append(buffers[w], *r)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Partial results from an aborted run are not valid output.
		return nil, nil, err
	}

	stats := model.NewRunStats()
	stats.Entities = len(entities)
	stats.Skips[model.SkipMalformedFirm] = ix.Skipped()
	var results []model.MatchResult
	for w := range buffers {
		results = append(results, buffers[w]...)
		stats.Merge(workerStats[w])
	}

	clean, suppressed := DetectAnomalies(results, ix.Firms(), p.cfg)
	for firmID, n := range suppressed {
		stats.AnomalousFirms[firmID] = n
		stats.Suppressed += n
	}
	if len(suppressed) > 0 {
		for _, r := range results {
			if _, bad := suppressed[r.FirmID]; bad {
				stats.ByStrategy[r.Strategy]--
			}
		}
	}
	stats.Matched = len(clean)

	log.Info("resolution run complete",
		zap.Int("entities", stats.Entities),
		zap.Int("matched", stats.Matched),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("ties", stats.Ties),
		zap.Int("suppressed", stats.Suppressed),
		zap.Int("anomalous_firms", len(suppressed)),
	)
	return clean, stats, nil
}

// resolveOne runs the per-entity phase: validate, normalize, dictionary
// strategies, fuzzy fallback, resolve.
func (p *Pipeline) resolveOne(e *model.RawEntity, gen *Generator, fz *Fuzzy, res *Resolver, stats *model.RunStats) *model.MatchResult {
	if err := e.Validate(); err != nil {
		zap.L().Debug("skipping malformed entity",
			zap.String("source_locator", e.SourceLocator),
			zap.Error(err),
		)
		stats.Skip(model.SkipMalformedEntity)
		return nil
	}

	e.NormalizedKey = p.norm.Normalize(e.RawName)
	if e.NormalizedKey == "" {
		stats.Skip(model.SkipMalformedEntity)
		return nil
	}

	cands := gen.Generate(e)
	if len(cands) == 0 {
		cands = fz.Match(e)
	}
	if len(cands) == 0 {
		stats.Skip(model.SkipNoCandidate)
		stats.Unmatched++
		return nil
	}

	r, tie := res.Resolve(e, cands)
	if tie {
		stats.Ties++
	}
	if r == nil {
		stats.Skip(model.SkipBelowThreshold)
		stats.Unmatched++
		return nil
	}

	stats.Matched++
	stats.ByStrategy[r.Strategy]++
	return r
}
