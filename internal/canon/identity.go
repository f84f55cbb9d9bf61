package canon

import (
	"encoding/hex"
	"fmt"
	"math"

	"golang.org/x/crypto/blake2b"
)

// IdentityRoundingDigits is the fixed number of fractional digits the
// canonical amount is rounded to before it enters the identity hash: two
// digits, half-to-even, so floating-point drift never produces two hashes
// for the same logical amount. Transaction.Amount itself is stored with
// its full conversion precision; only the identity input is rounded.
const IdentityRoundingDigits = 2

// Identity computes the content-derived identity hash of a transaction's
// defining attributes: normalized date, canonical amount (rounded to a
// fixed textual form), merchant, and bank. It is a pure function — same
// inputs always yield the same hash, across runs and processes.
func Identity(normalizedDate string, amount float64, merchant, bank string) string {
	fixed := roundHalfToEven(amount, IdentityRoundingDigits)
	input := fmt.Sprintf("%s|%s|%s|%s", normalizedDate, fixed, merchant, bank)

	sum := blake2b.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// roundHalfToEven renders f rounded to digits fractional places using
// banker's rounding, as a fixed-format decimal string, so two amounts that
// differ only in floating-point noise beyond the rounding digit hash
// identically.
func roundHalfToEven(f float64, digits int) string {
	scale := math.Pow(10, float64(digits))
	scaled := f * scale

	floor := math.Floor(scaled)
	diff := scaled - floor

	var rounded float64
	switch {
	case diff < 0.5:
		rounded = floor
	case diff > 0.5:
		rounded = floor + 1
	default: // exactly .5: round to even
		if math.Mod(floor, 2) == 0 {
			rounded = floor
		} else {
			rounded = floor + 1
		}
	}

	return fmt.Sprintf("%.*f", digits, rounded/scale)
}
