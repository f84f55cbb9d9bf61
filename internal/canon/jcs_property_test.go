//go:build property
// +build property

package canon_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mindburn-labs/ledgerly/internal/canon"
)

// TestCanonicalHashDeterministic verifies CanonicalHash agrees across
// repeated calls over the same map, independent of Go's randomized map
// iteration order.
func TestCanonicalHashDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("CanonicalHash is deterministic", prop.ForAll(
		func(keys, values []string) bool {
			obj := make(map[string]interface{}, len(keys))
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					obj[keys[i]] = values[i]
				}
			}

			h1, err1 := canon.CanonicalHash(obj)
			h2, err2 := canon.CanonicalHash(obj)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return h1 == h2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestCanonicalHashIgnoresConstructionOrder verifies two maps holding the
// same key/value pairs hash identically no matter the order keys were
// inserted in, since JCS sorts keys before serializing.
func TestCanonicalHashIgnoresConstructionOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("hash is insensitive to key insertion order", prop.ForAll(
		func(keys, values []string) bool {
			n := len(keys)
			if len(values) < n {
				n = len(values)
			}
			forward := make(map[string]interface{}, n)
			backward := make(map[string]interface{}, n)
			for i := 0; i < n; i++ {
				if keys[i] == "" {
					continue
				}
				forward[keys[i]] = values[i]
			}
			for i := n - 1; i >= 0; i-- {
				if keys[i] == "" {
					continue
				}
				if _, seen := backward[keys[i]]; !seen {
					backward[keys[i]] = forward[keys[i]]
				}
			}

			h1, err1 := canon.CanonicalHash(forward)
			h2, err2 := canon.CanonicalHash(backward)
			if err1 != nil || err2 != nil {
				return false
			}
			return h1 == h2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
