package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mindburn-labs/ledgerly/internal/dedupe"
)

// Policy is the reloadable tuning document for deduplication tolerances
// and rule-engine behavior, loaded from a YAML file separately from the
// rules file itself (which stays pure data — id/pattern/action pairs).
type Policy struct {
	Dedupe struct {
		DateToleranceDays     int     `yaml:"date_tolerance_days"`
		AmountTolerance       float64 `yaml:"amount_tolerance"`
		ConfidenceFloor       float64 `yaml:"confidence_floor"`
		ExactMinConfidence    float64 `yaml:"exact_min_confidence"`
		TransferMinConfidence float64 `yaml:"transfer_min_confidence"`
		FuzzyMinConfidence    float64 `yaml:"fuzzy_min_confidence"`
		AutoApproveConfidence float64 `yaml:"auto_approve_confidence"`
	} `yaml:"dedupe"`
	Rules struct {
		Path string `yaml:"path"`
	} `yaml:"rules"`
}

// DefaultPolicy mirrors dedupe.DefaultTolerances and the default rules
// path, used when no policy file is configured.
func DefaultPolicy() Policy {
	var p Policy
	p.Dedupe.DateToleranceDays = dedupe.DefaultTolerances.DateDays
	p.Dedupe.AmountTolerance = dedupe.DefaultTolerances.AmountTolerance
	p.Dedupe.ConfidenceFloor = dedupe.DefaultTolerances.Floor
	p.Rules.Path = "rules.json"
	return p
}

// LoadPolicy reads and parses a policy YAML document from path.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("config: read policy %q: %w", path, err)
	}

	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("config: parse policy %q: %w", path, err)
	}
	return policy, nil
}

// Tolerances converts the policy's dedupe section into dedupe.Tolerances.
func (p Policy) Tolerances() dedupe.Tolerances {
	return dedupe.Tolerances{
		DateDays:        p.Dedupe.DateToleranceDays,
		AmountTolerance: p.Dedupe.AmountTolerance,
		Floor:           p.Dedupe.ConfidenceFloor,
		ExactMin:        p.Dedupe.ExactMinConfidence,
		TransferMin:     p.Dedupe.TransferMinConfidence,
		FuzzyMin:        p.Dedupe.FuzzyMinConfidence,
		AutoApprove:     p.Dedupe.AutoApproveConfidence,
	}
}
