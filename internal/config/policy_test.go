package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicyOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	doc := "dedupe:\n  date_tolerance_days: 2\n  amount_tolerance: 1.25\n  confidence_floor: 0.80\nrules:\n  path: custom-rules.json\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 2, policy.Dedupe.DateToleranceDays)
	assert.Equal(t, 1.25, policy.Dedupe.AmountTolerance)
	assert.Equal(t, 0.80, policy.Dedupe.ConfidenceFloor)
	assert.Equal(t, "custom-rules.json", policy.Rules.Path)

	tol := policy.Tolerances()
	assert.Equal(t, 2, tol.DateDays)
	assert.Equal(t, 1.25, tol.AmountTolerance)
}

func TestLoadPolicyEmissionThresholds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	doc := "dedupe:\n  exact_min_confidence: 0.90\n  transfer_min_confidence: 0.85\n  fuzzy_min_confidence: 0.75\n  auto_approve_confidence: 0.95\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)

	tol := policy.Tolerances()
	assert.Equal(t, 0.90, tol.ExactMin)
	assert.Equal(t, 0.85, tol.TransferMin)
	assert.Equal(t, 0.75, tol.FuzzyMin)
	assert.Equal(t, 0.95, tol.AutoApprove)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultPolicyMatchesDedupeDefaults(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 1, p.Dedupe.DateToleranceDays)
	assert.Equal(t, 0.50, p.Dedupe.AmountTolerance)
	assert.Equal(t, 0.70, p.Dedupe.ConfidenceFloor)
}
