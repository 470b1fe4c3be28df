package match

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/firmlink/internal/model"
)

// indexedFirm carries a registry firm plus keys derived once at build time,
// so per-entity probes never re-normalize registry data.
type indexedFirm struct {
	firm       *model.CanonicalFirm
	names      []string // normalized primary + alternates, deduped, non-empty
	descTokens map[string]struct{}
}

// nameEntry is one normalized-name index posting. primary distinguishes the
// firm's primary name from a curated alternate for auditability.
type nameEntry struct {
	f       *indexedFirm
	primary bool
}

// Index holds the O(1) lookup structures built once per registry snapshot.
// It is immutable after BuildIndex returns and safe for concurrent readers.
type Index struct {
	norm *Normalizer
	cfg  Config

	byName   map[string][]nameEntry
	byTicker map[string][]*indexedFirm
	byDomain map[string][]*indexedFirm

	// containNames holds long normalized firm names; probed with the token
	// spans of an entity key, so containment checks stay O(1) in registry
	// size. leadAliases holds short curated aliases matched only against
	// the entity key's leading token.
	containNames map[string][]*indexedFirm
	leadAliases  map[string][]*indexedFirm

	byCountry map[string][]*indexedFirm
	byBigram  map[string][]*indexedFirm

	firms   int
	skipped int
}

// Firms returns the number of firms indexed.
func (ix *Index) Firms() int { return ix.firms }

// Skipped returns the number of malformed registry records dropped at build.
func (ix *Index) Skipped() int { return ix.skipped }

// BuildIndex consumes the registry once and builds every lookup structure.
// The build is sharded across cfg.Workers goroutines and the shard results
// merged in order, so output is deterministic regardless of parallelism.
// Malformed firm records are skipped and counted, never fatal.
func BuildIndex(ctx context.Context, firms []model.CanonicalFirm, cfg Config) (*Index, error) {
	cfg = cfg.withDefaults()
	norm := NewNormalizer(cfg.LegalSuffixes)
	log := zap.L().With(zap.String("component", "reference_index"))

	workers := cfg.Workers
	if workers > len(firms) {
		workers = len(firms)
	}
	if workers < 1 {
		workers = 1
	}

	shards := make([]*Index, workers)
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(firms) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(firms))
		shard := newShard(norm, cfg)
		shards[w] = shard
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				shard.add(&firms[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := newShard(norm, cfg)
	for _, s := range shards {
		ix.merge(s)
	}

	log.Info("reference index built",
		zap.Int("firms", ix.firms),
		zap.Int("skipped", ix.skipped),
		zap.Int("names", len(ix.byName)),
		zap.Int("tickers", len(ix.byTicker)),
		zap.Int("domains", len(ix.byDomain)),
		zap.Int("containable", len(ix.containNames)+len(ix.leadAliases)),
	)
	return ix, nil
}

func newShard(norm *Normalizer, cfg Config) *Index {
	return &Index{
		norm:         norm,
		cfg:          cfg,
		byName:       make(map[string][]nameEntry),
		byTicker:     make(map[string][]*indexedFirm),
		byDomain:     make(map[string][]*indexedFirm),
		containNames: make(map[string][]*indexedFirm),
		leadAliases:  make(map[string][]*indexedFirm),
		byCountry:    make(map[string][]*indexedFirm),
		byBigram:     make(map[string][]*indexedFirm),
	}
}

// add indexes a single firm into this shard.
func (ix *Index) add(firm *model.CanonicalFirm) {
	if err := firm.Validate(); err != nil {
		zap.L().Warn("skipping malformed firm record",
			zap.String("firm_id", firm.FirmID),
			zap.Error(err),
		)
		ix.skipped++
		return
	}

	f := &indexedFirm{firm: firm, descTokens: keywordSet(firm.Description)}

	seen := make(map[string]struct{}, 1+len(firm.AlternateNames))
	for i, raw := range firm.AllNames() {
		key := ix.norm.Normalize(raw)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		f.names = append(f.names, key)

		ix.byName[key] = append(ix.byName[key], nameEntry{f: f, primary: i == 0})
		ix.addContainable(key, i == 0, f)

		if bg := bigram(key); bg != "" {
			ix.byBigram[bg] = append(ix.byBigram[bg], f)
		}
	}
	if len(f.names) == 0 {
		ix.skipped++
		return
	}

	if t := strings.ToUpper(strings.TrimSpace(firm.Ticker)); t != "" {
		ix.byTicker[t] = append(ix.byTicker[t], f)
	}
	if d := NormalizeDomain(firm.Domain); d != "" {
		ix.byDomain[d] = append(ix.byDomain[d], f)
	}
	if c := strings.ToUpper(strings.TrimSpace(firm.Country)); c != "" {
		ix.byCountry[c] = append(ix.byCountry[c], f)
	}

	ix.firms++
}

// addContainable registers a name for the contained-name strategy. Long
// names match as word-boundary substrings; short curated aliases match only
// as the leading token, and never when every token is a generic word.
func (ix *Index) addContainable(key string, primary bool, f *indexedFirm) {
	if ix.allStoplisted(key) {
		return
	}
	switch {
	case len(key) >= ix.cfg.MinContainLen:
		ix.containNames[key] = append(ix.containNames[key], f)
	case !primary && len(key) >= 3 && !strings.Contains(key, " "):
		ix.leadAliases[key] = append(ix.leadAliases[key], f)
	}
}

// allStoplisted reports whether every token of the name is a generic
// corporate word from the stoplist.
func (ix *Index) allStoplisted(key string) bool {
	tokens := strings.Split(key, " ")
	for _, tok := range tokens {
		stoplisted := false
		for _, stop := range ix.cfg.ContainStoplist {
			if strings.EqualFold(tok, stop) {
				stoplisted = true
				break
			}
		}
		if !stoplisted {
			return false
		}
	}
	return len(tokens) > 0
}

// merge folds a shard into ix. Shards are merged in shard order, keeping
// posting-list order deterministic.
func (ix *Index) merge(s *Index) {
	for k, v := range s.byName {
		ix.byName[k] = append(ix.byName[k], v...)
	}
	for k, v := range s.byTicker {
		ix.byTicker[k] = append(ix.byTicker[k], v...)
	}
	for k, v := range s.byDomain {
		ix.byDomain[k] = append(ix.byDomain[k], v...)
	}
	for k, v := range s.byCountry {
		ix.byCountry[k] = append(ix.byCountry[k], v...)
	}
	for k, v := range s.byBigram {
		ix.byBigram[k] = append(ix.byBigram[k], v...)
	}
	for k, v := range s.containNames {
		ix.containNames[k] = append(ix.containNames[k], v...)
	}
	for k, v := range s.leadAliases {
		ix.leadAliases[k] = append(ix.leadAliases[k], v...)
	}
	ix.firms += s.firms
	ix.skipped += s.skipped
}

// fuzzyPool returns the bounded candidate set for fuzzy matching: the
// entity's country bucket when known, otherwise the bigram bucket of its
// normalized key. Never the whole registry.
func (ix *Index) fuzzyPool(key, countryHint string) []*indexedFirm {
	if c := strings.ToUpper(strings.TrimSpace(countryHint)); c != "" {
		if pool := ix.byCountry[c]; len(pool) > 0 {
			return pool
		}
	}
	if bg := bigram(key); bg != "" {
		return ix.byBigram[bg]
	}
	return nil
}

func bigram(key string) string {
	rs := []rune(key)
	if len(rs) < 2 {
		return ""
	}
	return string(rs[:2])
}
