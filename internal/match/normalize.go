// Package match resolves free-text organization names against a canonical
// firm registry using an ordered chain of matching strategies backed by
// O(1) lookup indices, with a fuzzy string-similarity fallback.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultLegalSuffixes lists legal-entity suffixes stripped during name
// normalization. Compared as trailing tokens after punctuation removal, so
// "L.L.C." and "LLC" both hit the LLC entry.
var defaultLegalSuffixes = []string{
	"LLC", "INC", "INCORPORATED", "CORP", "CORPORATION",
	"LTD", "LIMITED", "LP", "LLP", "PLLC",
	"PC", "PA", "CO", "PLC", "NA", "DBA",
	"GMBH", "AG", "SA", "SE", "NV", "BV", "AB", "OY", "OYJ",
	"SARL", "SPA", "SRL", "ASA", "KK", "KGAA", "PTY", "PTE", "BHD",
}

// Normalizer canonicalizes free-text names into comparison keys. Two names
// are name-equal iff their normalized forms are byte-identical. The zero
// value is not usable; construct with NewNormalizer.
type Normalizer struct {
	suffixes map[string]struct{}
}

// NewNormalizer creates a Normalizer. An empty suffix list selects the
// default legal-suffix set.
func NewNormalizer(suffixes []string) *Normalizer {
	if len(suffixes) == 0 {
		suffixes = defaultLegalSuffixes
	}
	set := make(map[string]struct{}, len(suffixes))
	for _, s := range suffixes {
		set[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return &Normalizer{suffixes: set}
}

// Normalize standardizes an entity name for matching by:
//  1. Unicode case folding to uppercase with diacritics stripped
//  2. Removing legal-entity suffixes (LLC, Inc, GmbH, ...) as trailing tokens
//  3. Stripping punctuation except internal hyphens ("&" becomes "AND")
//  4. Collapsing whitespace
//
// It is deterministic, total, and idempotent. Unparseable input yields "".
func (n *Normalizer) Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = foldCase(name)
	name = strings.ReplaceAll(name, "&", " AND ")
	name = stripPunct(name)
	name = multiSpaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
	if name == "" {
		return ""
	}

	// Strip trailing legal-suffix tokens, never below one token so a name
	// that IS a suffix word survives.
	tokens := strings.Split(name, " ")
	for len(tokens) > 1 {
		if _, ok := n.suffixes[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// foldCase uppercases and strips combining diacritical marks, so
// "Société Générale" and "SOCIETE GENERALE" normalize identically.
func foldCase(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Upper(language.Und).String(folded)
}

// stripPunct removes punctuation. Hyphens flanked by letters or digits are
// internal and kept; all others become spaces.
func stripPunct(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '-':
			if i > 0 && i < len(rs)-1 && isAlnum(rs[i-1]) && isAlnum(rs[i+1]) {
				b.WriteRune(r)
			} else {
				b.WriteRune(' ')
			}
		}
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

var parenRe = regexp.MustCompile(`\(([^)]{1,12})\)`)

// AcronymTokens extracts parenthetical abbreviation tokens from a raw name,
// e.g. "International Business Machines (IBM)" yields ["IBM"]. Tokens are
// uppercased; only 2-6 character alphanumeric tokens qualify.
func AcronymTokens(raw string) []string {
	var tokens []string
	for _, m := range parenRe.FindAllStringSubmatch(raw, -1) {
		tok := strings.TrimSpace(m[1])
		if len(tok) < 2 || len(tok) > 6 {
			continue
		}
		ok := true
		for _, r := range tok {
			if !isAlnum(r) {
				ok = false
				break
			}
		}
		if ok {
			tokens = append(tokens, strings.ToUpper(tok))
		}
	}
	return tokens
}

// NormalizeDomain canonicalizes a web domain: lowercase, scheme and "www."
// stripped, path and port dropped.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return ""
	}
	for _, scheme := range []string{"https://", "http://"} {
		d = strings.TrimPrefix(d, scheme)
	}
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/:?#"); i >= 0 {
		d = d[:i]
	}
	return d
}
