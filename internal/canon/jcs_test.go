package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJCSKeyOrdering(t *testing.T) {
	a, err := JCS(map[string]interface{}{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(a))
}

func TestJCSDeterministicAcrossEquivalentMaps(t *testing.T) {
	h1, err := CanonicalHash(map[string]interface{}{"x": 1, "y": "two"})
	require.NoError(t, err)
	h2, err := CanonicalHash(map[string]interface{}{"y": "two", "x": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestJCSNoHTMLEscaping(t *testing.T) {
	b, err := JCS(map[string]interface{}{"desc": "A&B <rule>"})
	require.NoError(t, err)
	assert.Contains(t, string(b), "A&B <rule>")
}
