package model

import "github.com/rotisserie/eris"

// RawEntity is an unresolved, free-text organization mention drawn from an
// affiliation string or patent assignee record. Entities are immutable once
// ingested; the matcher never writes back to them.
type RawEntity struct {
	SourceLocator string   `json:"source_locator"`          // opaque link back to the originating document
	RawName       string   `json:"raw_name"`
	NormalizedKey string   `json:"normalized_key,omitempty"` // derived; filled by the matcher
	AuxTokens     []string `json:"aux_tokens,omitempty"`     // acronym/abbreviation tokens from source metadata
	DomainHint    string   `json:"domain_hint,omitempty"`
	CountryHint   string   `json:"country_hint,omitempty"`
	AuxText       string   `json:"aux_text,omitempty"` // free text accompanying the mention, if any
}

// Validate reports whether the entity carries the fields required for matching.
func (e RawEntity) Validate() error {
	if e.SourceLocator == "" {
		return eris.New("entity: source_locator is required")
	}
	if e.RawName == "" {
		return eris.New("entity: raw_name is required")
	}
	return nil
}
