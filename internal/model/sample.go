package model

// Label is an externally supplied ground-truth judgment for a sampled match.
type Label string

const (
	LabelUnlabeled Label = ""
	LabelCorrect   Label = "correct"
	LabelIncorrect Label = "incorrect"
	LabelUncertain Label = "uncertain"
)

// SampleItem is one match drawn into a validation sample, together with the
// stratum it was drawn from and the reviewer's label once imported.
type SampleItem struct {
	Result  MatchResult `json:"result"`
	Stratum string      `json:"stratum"` // "<strategy>/<confidence band>"
	Label   Label       `json:"label,omitempty"`
}

// ValidationSample is a stratified subset of a run's results destined for
// human review. It never feeds back into the run that produced it.
type ValidationSample struct {
	RunID string       `json:"run_id"`
	Seed  int64        `json:"seed"`
	Items []SampleItem `json:"items"`
}

// StratumPrecision is the precision estimate for one stratum. Uncertain
// labels are excluded from both numerator and denominator but counted.
type StratumPrecision struct {
	Stratum   string  `json:"stratum"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Uncertain int     `json:"uncertain"`
	Precision float64 `json:"precision"`
}

// PrecisionReport aggregates labeled sample outcomes per stratum and overall.
// It gates whether a run's output is accepted downstream.
type PrecisionReport struct {
	RunID   string             `json:"run_id" yaml:"run_id"`
	Strata  []StratumPrecision `json:"strata" yaml:"strata"`
	Overall StratumPrecision   `json:"overall" yaml:"overall"`
}
