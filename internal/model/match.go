package model

// Strategy identifies the matching technique that produced a candidate.
// Precedence is defined by the order strategies are registered in the
// match package, not by the enum values themselves.
type Strategy string

const (
	StrategyExactName     Strategy = "exact_name"
	StrategyAlternateName Strategy = "alternate_name"
	StrategyTicker        Strategy = "ticker"
	StrategyDomain        Strategy = "domain"
	StrategyContainedName Strategy = "contained_name"
	StrategyFuzzyName     Strategy = "fuzzy_name"
)

// Corroboration holds auxiliary agreement signals observed for a candidate.
// Each true signal adds a small confidence bonus during scoring.
type Corroboration struct {
	DomainAgreement    bool `json:"domain_agreement,omitempty"`
	LocationAgreement  bool `json:"location_agreement,omitempty"`
	DescriptionOverlap bool `json:"description_overlap,omitempty"`
}

// MatchCandidate is an ephemeral association between one raw entity and one
// canonical firm, produced by a single strategy during a resolution pass.
// Candidates are never persisted standalone.
type MatchCandidate struct {
	Firm          *CanonicalFirm
	Strategy      Strategy
	RawConfidence float64
	Similarity    float64 // fuzzy strategies only; 0 otherwise
	Signals       Corroboration
}

// MatchResult is the accepted final mapping from one raw entity to one
// canonical firm. A run emits at most one result per entity.
type MatchResult struct {
	SourceLocator   string   `json:"source_locator"`
	RawName         string   `json:"raw_name"`
	FirmID          string   `json:"firm_id"`
	Strategy        Strategy `json:"strategy"`
	FinalConfidence float64  `json:"final_confidence"`
}
