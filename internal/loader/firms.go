package loader

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/model"
)

var firmColumns = []string{"firm_id", "primary_name"}

// LoadFirms reads a canonical firm registry. Rows that fail validation are
// skipped with a logged reason; duplicate firm IDs keep the first occurrence.
func LoadFirms(ctx context.Context, path string) ([]model.CanonicalFirm, Stats, error) {
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
	if err := h.require(firmColumns...); err != nil {
		return nil, stats, err
	}

	seen := make(map[string]bool)
	firms := make([]model.CanonicalFirm, 0, len(all)-1)
	for i, row := range all[1:] {
		if blank(row) {
			continue
		}
		stats.Rows++

		firm := model.CanonicalFirm{
			FirmID:         h.get(row, "firm_id"),
			PrimaryName:    h.get(row, "primary_name"),
			AlternateNames: splitList(h.get(row, "alternate_names")),
			Ticker:         h.get(row, "ticker"),
			Domain:         h.get(row, "domain"),
			Description:    h.get(row, "description"),
			Country:        h.get(row, "country"),
		}

		if err := firm.Validate(); err != nil {
			stats.Skipped++
			logSkip(log, path, i+2, err.Error())
			continue
		}
		if seen[firm.FirmID] {
			stats.Skipped++
			logSkip(log, path, i+2, "duplicate firm_id "+firm.FirmID)
			continue
		}
		seen[firm.FirmID] = true

		firms = append(firms, firm)
		stats.Loaded++
	}

	log.Info("loaded firm registry",
		zap.String("file", path),
		zap.Int("loaded", stats.Loaded),
		zap.Int("skipped", stats.Skipped))
	return firms, stats, nil
}
