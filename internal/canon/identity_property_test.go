//go:build property
// +build property

package canon

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestIdentityDeterministicProperty verifies Identity is a pure function
// of its inputs: computing it twice over the same arguments always agrees.
func TestIdentityDeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Identity is deterministic", prop.ForAll(
		func(year, month, day int, amount float64, merchant, bank string) bool {
			date := normalizedDate(year, month, day)

			id1 := Identity(date, amount, merchant, bank)
			id2 := Identity(date, amount, merchant, bank)
			return id1 == id2
		},
		gen.IntRange(2000, 2030),
		gen.IntRange(1, 12),
		gen.IntRange(1, 28),
		gen.Float64Range(-100000, 100000),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestIdentitySensitiveToEachField verifies changing any one of the four
// identity inputs changes the resulting hash, given the others fixed and
// the change itself is not absorbed by rounding.
func TestIdentitySensitiveToEachField(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("changing amount by more than the rounding digit changes identity", prop.ForAll(
		func(year, month, day int, amount float64, merchant, bank string) bool {
			date := normalizedDate(year, month, day)

			base := Identity(date, amount, merchant, bank)
			shifted := Identity(date, amount+10.0, merchant, bank)
			return base != shifted
		},
		gen.IntRange(2000, 2030),
		gen.IntRange(1, 12),
		gen.IntRange(1, 28),
		gen.Float64Range(-100000, 100000),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("changing date, merchant, or bank changes identity", prop.ForAll(
		func(year, month, day int, amount float64, merchant, bank string) bool {
			date := normalizedDate(year, month, day)

			base := Identity(date, amount, merchant, bank)
			return base != Identity(normalizedDate(year, month, day+1), amount, merchant, bank) &&
				base != Identity(date, amount, merchant+"X", bank) &&
				base != Identity(date, amount, merchant, bank+"X")
		},
		gen.IntRange(2000, 2030),
		gen.IntRange(1, 12),
		gen.IntRange(1, 27),
		gen.Float64Range(-100000, 100000),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestIdentityCollapsesFloatingPointNoise verifies two amounts that agree
// to IdentityRoundingDigits decimal places produce the same identity even
// when they differ in floating-point representation.
func TestIdentityCollapsesFloatingPointNoise(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("sub-cent noise does not change identity", prop.ForAll(
		func(year, month, day int, cents int, noise float64, merchant, bank string) bool {
			date := normalizedDate(year, month, day)
			amount := float64(cents) / 100.0
			noisy := amount + noise*1e-9

			return Identity(date, amount, merchant, bank) == Identity(date, noisy, merchant, bank)
		},
		gen.IntRange(2000, 2030),
		gen.IntRange(1, 12),
		gen.IntRange(1, 28),
		gen.IntRange(-10000000, 10000000),
		gen.Float64Range(-1, 1),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func normalizedDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
