package loader

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/model"
)

var entityColumns = []string{"source_locator", "raw_name"}

// LoadEntities reads a batch of raw organization mentions. Rows that fail
// validation are skipped with a logged reason.
func LoadEntities(ctx context.Context, path string) ([]model.RawEntity, Stats, error) {
	log := zap.L().With(zap.String("component", "loader"))
	var stats Stats

	all, err := rows(ctx, path)
	if err != nil {
		return nil, stats, err
	}
	if len(all) == 0 {
		return nil, stats, eris.Errorf("loader: %s has no header row", path)
	}

	h := newHeader(all[0])
	if err := h.require(entityColumns...); err != nil {
		return nil, stats, err
	}

	entities := make([]model.RawEntity, 0, len(all)-1)
	for i, row := range all[1:] {
		if blank(row) {
			continue
		}
		stats.Rows++

		e := model.RawEntity{
			SourceLocator: h.get(row, "source_locator"),
			RawName:       h.get(row, "raw_name"),
			AuxTokens:     splitList(h.get(row, "aux_tokens")),
			DomainHint:    h.get(row, "domain_hint"),
			CountryHint:   h.get(row, "country_hint"),
			AuxText:       h.get(row, "aux_text"),
		}

		if err := e.Validate(); err != nil {
			stats.Skipped++
			logSkip(log, path, i+2, err.Error())
			continue
		}

		entities = append(entities, e)
		stats.Loaded++
	}

	log.Info("loaded entity batch",
		zap.String("file", path),
		zap.Int("loaded", stats.Loaded),
		zap.Int("skipped", stats.Skipped))
	return entities, stats, nil
}
