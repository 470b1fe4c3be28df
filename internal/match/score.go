package match

import (
	"strings"
	"unicode"

	"github.com/sells-group/firmlink/internal/model"
)

// Corroboration bonuses added to a candidate's raw confidence. Description
// overlap is worth more than a single-field agreement because it requires
// two independent keyword hits.
const (
	bonusDomainAgreement    = 0.01
	bonusLocationAgreement  = 0.01
	bonusDescriptionOverlap = 0.03

	// maxFinalConfidence caps final confidence; no match is certain.
	maxFinalConfidence = 0.99

	// minDescOverlap is the number of shared keyword tokens required before
	// the description-overlap signal fires.
	minDescOverlap = 2
)

// FinalConfidence returns the candidate's raw confidence adjusted by its
// corroboration signals, capped at maxFinalConfidence.
func FinalConfidence(c model.MatchCandidate) float64 {
	conf := c.RawConfidence
	if c.Signals.DomainAgreement {
		conf += bonusDomainAgreement
	}
	if c.Signals.LocationAgreement {
		conf += bonusLocationAgreement
	}
	if c.Signals.DescriptionOverlap {
		conf += bonusDescriptionOverlap
	}
	if conf > maxFinalConfidence {
		conf = maxFinalConfidence
	}
	return conf
}

// corroborate computes the auxiliary agreement signals between an entity and
// an indexed firm. Absent fields never corroborate.
func corroborate(e *model.RawEntity, f *indexedFirm) model.Corroboration {
	var c model.Corroboration

	if d := NormalizeDomain(e.DomainHint); d != "" && d == NormalizeDomain(f.firm.Domain) {
		c.DomainAgreement = true
	}
	if e.CountryHint != "" && f.firm.Country != "" &&
		strings.EqualFold(strings.TrimSpace(e.CountryHint), strings.TrimSpace(f.firm.Country)) {
		c.LocationAgreement = true
	}
	if e.AuxText != "" && len(f.descTokens) > 0 {
		if overlapCount(keywordSet(e.AuxText), f.descTokens) >= minDescOverlap {
			c.DescriptionOverlap = true
		}
	}
	return c
}

// keywordStop lists words too common in business prose to carry signal.
var keywordStop = map[string]struct{}{
	"the": {}, "and": {}, "with": {}, "for": {}, "from": {}, "that": {},
	"this": {}, "company": {}, "business": {}, "services": {}, "products": {},
	"provides": {}, "leading": {}, "global": {}, "solutions": {}, "other": {},
	"their": {}, "which": {}, "through": {}, "based": {}, "also": {},
}

// keywordSet tokenizes free text into a lowercase keyword set, dropping
// stopwords and tokens shorter than four characters.
func keywordSet(text string) map[string]struct{} {
	if text == "" {
		return nil
	}
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(tok) < 4 {
			continue
		}
		if _, stop := keywordStop[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func overlapCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
