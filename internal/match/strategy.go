package match

import (
	"strings"

	"github.com/sells-group/firmlink/internal/model"
)

// Base confidences per strategy, from validated precision of each signal.
// Domains and registry names are near-unique; substring containment carries
// the highest false-positive risk of the dictionary strategies. Fuzzy
// confidence lives in fuzzy.go and is always strictly below these.
const (
	confExactName     = 0.98
	confAlternateName = 0.98
	confTicker        = 0.97
	confDomain        = 0.98
	confContainedName = 0.94
)

// strategySpec is one registered matching strategy. Order in the table is
// precedence order; adding a strategy means adding a row, not editing a
// conditional.
type strategySpec struct {
	name       model.Strategy
	confidence float64
	probe      func(g *Generator, e *model.RawEntity, key string) []*indexedFirm
}

// defaultStrategies is the ordered strategy table probed by the Generator.
var defaultStrategies = []strategySpec{
	{model.StrategyExactName, confExactName, (*Generator).probeExactName},
	{model.StrategyAlternateName, confAlternateName, (*Generator).probeAlternateName},
	{model.StrategyTicker, confTicker, (*Generator).probeTicker},
	{model.StrategyDomain, confDomain, (*Generator).probeDomain},
	{model.StrategyContainedName, confContainedName, (*Generator).probeContainedName},
}

// strategyRank maps a strategy to its precedence (lower wins). Fuzzy ranks
// below every dictionary strategy whatever its similarity score.
func strategyRank(s model.Strategy) int {
	for i, spec := range defaultStrategies {
		if spec.name == s {
			return i
		}
	}
	return len(defaultStrategies)
}

// Generator probes the reference index with each strategy in precedence
// order. It is stateless across entities and safe for concurrent use.
type Generator struct {
	ix   *Index
	cfg  Config
	deny map[string]struct{}
}

// NewGenerator creates a Generator over a built index.
func NewGenerator(ix *Index, cfg Config) *Generator {
	cfg = cfg.withDefaults()
	deny := make(map[string]struct{}, len(cfg.TickerDenylist))
	for _, t := range cfg.TickerDenylist {
		deny[strings.ToUpper(t)] = struct{}{}
	}
	return &Generator{ix: ix, cfg: cfg, deny: deny}
}

// Generate runs the strategy chain for one entity. It short-circuits on the
// first strategy yielding exactly one firm; a strategy yielding several
// firms records them all as candidates for the resolver to disambiguate and
// continues down the chain. An empty return means no dictionary strategy
// hit and the fuzzy fallback should run.
func (g *Generator) Generate(e *model.RawEntity) []model.MatchCandidate {
	key := e.NormalizedKey
	if key == "" {
		key = g.ix.norm.Normalize(e.RawName)
	}
	if key == "" {
		return nil
	}

	var cands []model.MatchCandidate
	for _, spec := range defaultStrategies {
		firms := spec.probe(g, e, key)
		if len(firms) == 0 {
			continue
		}
		for _, f := range firms {
			cands = append(cands, model.MatchCandidate{
				Firm:          f.firm,
				Strategy:      spec.name,
				RawConfidence: spec.confidence,
				Signals:       corroborate(e, f),
			})
		}
		if len(firms) == 1 {
			break
		}
	}
	return cands
}

// probeExactName matches the entity key against normalized primary names.
func (g *Generator) probeExactName(_ *model.RawEntity, key string) []*indexedFirm {
	return g.nameHits(key, true)
}

// probeAlternateName matches the entity key against normalized alternate
// names. Same index probe as exact-name, split out so results are auditable
// by the name class that produced them.
func (g *Generator) probeAlternateName(_ *model.RawEntity, key string) []*indexedFirm {
	return g.nameHits(key, false)
}

func (g *Generator) nameHits(key string, primary bool) []*indexedFirm {
	var firms []*indexedFirm
	for _, entry := range g.ix.byName[key] {
		if entry.primary == primary {
			firms = append(firms, entry.f)
		}
	}
	return firms
}

// probeTicker matches acronym tokens against the ticker index. Tokens under
// the minimum length and denylisted tickers are rejected outright; short
// tickers were observed to over-match by an order of magnitude.
func (g *Generator) probeTicker(e *model.RawEntity, _ string) []*indexedFirm {
	tokens := e.AuxTokens
	if len(tokens) == 0 {
		tokens = AcronymTokens(e.RawName)
	}

	var firms []*indexedFirm
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if len(tok) < g.cfg.MinTickerLen {
			continue
		}
		if _, denied := g.deny[tok]; denied {
			continue
		}
		for _, f := range g.ix.byTicker[tok] {
			if _, dup := seen[f.firm.FirmID]; dup {
				continue
			}
			seen[f.firm.FirmID] = struct{}{}
			firms = append(firms, f)
		}
	}
	return firms
}

// probeDomain matches the entity's web-domain hint against the domain index.
func (g *Generator) probeDomain(e *model.RawEntity, _ string) []*indexedFirm {
	d := NormalizeDomain(e.DomainHint)
	if d == "" {
		return nil
	}
	return g.ix.byDomain[d]
}

// probeContainedName checks whether a sufficiently long firm name is
// embedded in the entity key, or whether a short curated alias leads it.
// The entity key's contiguous token spans are probed against the index, so
// the check costs O(tokens²) per entity, independent of registry size.
func (g *Generator) probeContainedName(_ *model.RawEntity, key string) []*indexedFirm {
	tokens := strings.Split(key, " ")

	var firms []*indexedFirm
	seen := make(map[string]struct{})
	add := func(hits []*indexedFirm) {
		for _, f := range hits {
			if _, dup := seen[f.firm.FirmID]; dup {
				continue
			}
			seen[f.firm.FirmID] = struct{}{}
			firms = append(firms, f)
		}
	}

	add(g.ix.leadAliases[tokens[0]])
	for i := range tokens {
		for j := i + 1; j <= len(tokens); j++ {
			span := strings.Join(tokens[i:j], " ")
			if len(span) < g.cfg.MinContainLen {
				continue
			}
			add(g.ix.containNames[span])
		}
	}
	return firms
}
