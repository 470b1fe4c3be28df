package model

import "github.com/rotisserie/eris"

// CanonicalFirm is an authoritative record from the reference registry.
// Firms are loaded once per registry snapshot and are read-only during a
// matching run.
type CanonicalFirm struct {
	FirmID         string   `json:"firm_id"`
	PrimaryName    string   `json:"primary_name"`
	AlternateNames []string `json:"alternate_names,omitempty"`
	Ticker         string   `json:"ticker,omitempty"`
	Domain         string   `json:"domain,omitempty"`
	Description    string   `json:"description,omitempty"` // free-text business description
	Country        string   `json:"country,omitempty"`
}

// Validate reports whether the firm record carries the fields required to
// participate in matching.
func (f CanonicalFirm) Validate() error {
	if f.FirmID == "" {
		return eris.New("firm: firm_id is required")
	}
	if f.PrimaryName == "" {
		return eris.New("firm: primary_name is required")
	}
	return nil
}

// AllNames returns the primary name followed by all alternate names.
func (f CanonicalFirm) AllNames() []string {
	names := make([]string, 0, 1+len(f.AlternateNames))
	names = append(names, f.PrimaryName)
	names = append(names, f.AlternateNames...)
	return names
}
