package match

import "runtime"

// Config holds the tunable filters and thresholds of the matching engine.
// Strategy base confidences and precedence live in the strategy table; see
// strategy.go.
type Config struct {
	// AcceptThreshold is the global minimum final confidence for a result
	// to be emitted.
	AcceptThreshold float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`

	// FuzzyThreshold is the minimum Jaro-Winkler similarity for a fuzzy
	// candidate to be considered.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`

	// MinTickerLen rejects acronym tokens shorter than this before probing
	// the ticker index. Unfiltered short tickers over-match by an order of
	// magnitude.
	MinTickerLen int `yaml:"min_ticker_len" mapstructure:"min_ticker_len"`

	// TickerDenylist lists tickers never matched on regardless of length
	// because they collide with common abbreviations.
	TickerDenylist []string `yaml:"ticker_denylist" mapstructure:"ticker_denylist"`

	// MinContainLen is the minimum normalized firm-name length eligible for
	// the contained-name strategy.
	MinContainLen int `yaml:"min_contain_len" mapstructure:"min_contain_len"`

	// ContainStoplist lists generic corporate words excluded from the
	// contained-name index.
	ContainStoplist []string `yaml:"contain_stoplist" mapstructure:"contain_stoplist"`

	// LegalSuffixes overrides the normalizer's default legal-entity suffix
	// list when non-empty.
	LegalSuffixes []string `yaml:"legal_suffixes" mapstructure:"legal_suffixes"`

	// FanoutMultiple flags a firm as anomalous when its distinct-entity
	// fan-out exceeds this multiple of the registry-wide median fan-out.
	FanoutMultiple float64 `yaml:"fanout_multiple" mapstructure:"fanout_multiple"`

	// MinFanout is the floor below which a firm is never flagged, so small
	// runs do not trip the anomaly pass on ordinary firms.
	MinFanout int `yaml:"min_fanout" mapstructure:"min_fanout"`

	// Workers sets per-entity resolution parallelism; 0 means NumCPU.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the engine defaults used when a field is unset.
func DefaultConfig() Config {
	return Config{
		AcceptThreshold: 0.94,
		FuzzyThreshold:  0.85,
		MinTickerLen:    4,
		TickerDenylist:  []string{"CORP", "BANK", "GOLD", "TECH", "LIFE", "CARE", "OPEN"},
		MinContainLen:   8,
		ContainStoplist: []string{
			"group", "international", "holdings", "systems", "technologies",
			"solutions", "industries", "enterprises", "services", "global",
		},
		FanoutMultiple: 20.0,
		MinFanout:      50,
		Workers:        runtime.NumCPU(),
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AcceptThreshold == 0 {
		c.AcceptThreshold = d.AcceptThreshold
	}
	if c.FuzzyThreshold == 0 {
		c.FuzzyThreshold = d.FuzzyThreshold
	}
	if c.MinTickerLen == 0 {
		c.MinTickerLen = d.MinTickerLen
	}
	if c.TickerDenylist == nil {
		c.TickerDenylist = d.TickerDenylist
	}
	if c.MinContainLen == 0 {
		c.MinContainLen = d.MinContainLen
	}
	if c.ContainStoplist == nil {
		c.ContainStoplist = d.ContainStoplist
	}
	if c.FanoutMultiple == 0 {
		c.FanoutMultiple = d.FanoutMultiple
	}
	if c.MinFanout == 0 {
		c.MinFanout = d.MinFanout
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}
