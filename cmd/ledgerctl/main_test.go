package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `[{"id":"r1","pattern":"*","category":"Uncategorized","confidence":0.1,"priority":1}]`

const sampleChecking = "Date,Description,Amount\n01/15/2024,STARBUCKS,\"$4.50\"\n"

func TestRunUsageWithNoArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerctl"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Usage")
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerctl", "bogus"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
}

func TestRunRulesValidatesFile(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(sampleRules), 0o644))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerctl", "rules", "-rules", rulesPath}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "rules=1")
}

func TestRunRulesFatalOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`[{"pattern":"*","priority":1}]`), 0o644))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerctl", "rules", "-rules", rulesPath}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestRunIngestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(sampleRules), 0o644))
	checkingPath := filepath.Join(dir, "checking.csv")
	require.NoError(t, os.WriteFile(checkingPath, []byte(sampleChecking), 0o644))

	t.Setenv("LEDGERLY_EVENTSTORE_DRIVER", "memory")
	t.Setenv("LEDGERLY_ARCHIVE_BUCKET", "") // keep the batch off S3

	var stdout, stderr bytes.Buffer
	code := Run([]string{"ledgerctl", "ingest", "-path", checkingPath, "-rules", rulesPath, "-json"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var report struct {
		TransactionsImported int `json:"transactions_imported"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, 1, report.TransactionsImported)
}
