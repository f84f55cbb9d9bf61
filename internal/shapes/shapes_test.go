package shapes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindburn-labs/ledgerly/internal/attrs"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	r := attrs.New()
	require.NoError(t, attrs.RegisterDefaults(r))
	return NewBuilder(r)
}

func TestTransactionShape(t *testing.T) {
	b := newTestBuilder(t)
	compiled, err := b.Compile(TransactionShape)
	require.NoError(t, err)

	valid := map[string]any{
		"identity":    "abcdef0123456789",
		"date":        "2024-01-15",
		"amount":      -45.99,
		"description": "STARBUCKS",
		"provenance":  map[string]any{"source_file": "jan.csv"},
	}
	assert.NoError(t, compiled.Validate(valid))

	t.Run("missing required field fails", func(t *testing.T) {
		missing := map[string]any{
			"date":        "2024-01-15",
			"amount":      -45.99,
			"description": "STARBUCKS",
			"provenance":  map[string]any{},
		}
		assert.Error(t, compiled.Validate(missing))
	})

	t.Run("unrecognized attribute is not rejected", func(t *testing.T) {
		open := map[string]any{
			"identity":            "abcdef0123456789",
			"date":                "2024-01-15",
			"amount":              -45.99,
			"description":         "STARBUCKS",
			"provenance":          map[string]any{},
			"some_future_field":   "anything",
		}
		assert.NoError(t, compiled.Validate(open))
	})

	t.Run("bad date format fails", func(t *testing.T) {
		bad := map[string]any{
			"identity":    "abcdef0123456789",
			"date":        "01/15/2024",
			"amount":      -45.99,
			"description": "STARBUCKS",
			"provenance":  map[string]any{},
		}
		assert.Error(t, compiled.Validate(bad))
	})

	t.Run("bad kind enum fails", func(t *testing.T) {
		bad := map[string]any{
			"identity":    "abcdef0123456789",
			"date":        "2024-01-15",
			"amount":      -45.99,
			"description": "STARBUCKS",
			"provenance":  map[string]any{},
			"kind":        "not-a-kind",
		}
		assert.Error(t, compiled.Validate(bad))
	})
}

