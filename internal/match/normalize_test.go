package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(nil)
}

func TestNormalize_Empty(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("   "))
	assert.Equal(t, "", n.Normalize("..."))
}

func TestNormalize_Uppercase(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "ACME ADVISORS", n.Normalize("Acme Advisors"))
}

func TestNormalize_StripSuffixes(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "ACME ADVISORS", n.Normalize("Acme Advisors LLC"))
	assert.Equal(t, "ACME ADVISORS", n.Normalize("Acme Advisors L.L.C."))
	assert.Equal(t, "ACME ADVISORS", n.Normalize("Acme Advisors Inc."))
	assert.Equal(t, "ACME ADVISORS", n.Normalize("Acme Advisors Incorporated"))
	assert.Equal(t, "ACME ADVISORS", n.Normalize("Acme Advisors Corporation"))
	assert.Equal(t, "ACME ADVISORS", n.Normalize("Acme Advisors Limited"))
	assert.Equal(t, "SIEMENS", n.Normalize("Siemens GmbH"))
	assert.Equal(t, "BARCLAYS", n.Normalize("Barclays PLC"))
}

func TestNormalize_StackedSuffixes(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "ACME", n.Normalize("Acme Co., Ltd."))
}

func TestNormalize_SuffixMidStringKept(t *testing.T) {
	n := newTestNormalizer()
	// "Limited" mid-string is part of the name, not a suffix.
	assert.Equal(t, "LIMITED BRANDS STORES", n.Normalize("Limited Brands Stores"))
}

func TestNormalize_SuffixOnlyNameSurvives(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "LIMITED", n.Normalize("Limited"))
}

func TestNormalize_Punctuation(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "SMITH AND JONES", n.Normalize("Smith & Jones"))
	assert.Equal(t, "JOES ADVISORS", n.Normalize("Joe's Advisors"))
	assert.Equal(t, "ACME ADVISORS", n.Normalize(`"Acme" Advisors, Inc.`))
}

func TestNormalize_InternalHyphenKept(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "WAL-MART", n.Normalize("Wal-Mart Inc."))
	// A hyphen not flanked by letters is punctuation; "Corp" then strips as
	// a trailing suffix token.
	assert.Equal(t, "ACME", n.Normalize("Acme -Corp"))
}

func TestNormalize_Diacritics(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "SOCIETE GENERALE", n.Normalize("Société Générale SA"))
}

func TestNormalize_CollapseSpaces(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, "ACME ADVISORS", n.Normalize("  Acme   Advisors  "))
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer()
	inputs := []string{
		"Acme Advisors LLC",
		"Smith & Jones, L.P.",
		"Société Générale S.A.",
		"Wal-Mart Stores, Inc.",
		"Acme -Corp",
		"Limited",
		"  spaced   out  Co. Ltd. ",
		"(weird) [input] {here}",
		"",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalize_CustomSuffixes(t *testing.T) {
	n := NewNormalizer([]string{"TRUST"})
	assert.Equal(t, "NORTHERN", n.Normalize("Northern Trust"))
	// Default suffixes are replaced, not extended.
	assert.Equal(t, "ACME LLC", n.Normalize("Acme LLC"))
}

func TestAcronymTokens(t *testing.T) {
	assert.Equal(t, []string{"IBM"}, AcronymTokens("International Business Machines (IBM)"))
	assert.Equal(t, []string{"MIT", "CSAIL"}, AcronymTokens("MIT (MIT) Laboratory (CSAIL)"))
	assert.Nil(t, AcronymTokens("No parentheticals here"))
	assert.Nil(t, AcronymTokens("Too short (A) and too long (ABCDEFG)"))
	assert.Nil(t, AcronymTokens("Not a token (a b)"))
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "example.com", NormalizeDomain("https://www.Example.com/about"))
	assert.Equal(t, "example.com", NormalizeDomain("http://example.com:8080"))
	assert.Equal(t, "sub.example.co.uk", NormalizeDomain("sub.example.co.uk"))
	assert.Equal(t, "", NormalizeDomain("  "))
}
