// Package dedupe implements the three duplicate-detection strategies:
// exact, transfer-pair, and fuzzy. Each strategy is a pure function over a
// pair of transactions that emits zero or one DuplicateAnnotation; none of
// them mutate or remove a transaction.
package dedupe

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

const (
	exactAmountTolerance = 0.001
	exactConfidence      = 0.95

	transferPairAmountTolerance = 0.01
	transferPairConfidence      = 0.90
)

// Tolerances configures the fuzzy strategy's axis thresholds and the
// per-strategy emission gates, overridable by policy configuration
// (internal/config); the zero value is not usable directly — use
// DefaultTolerances.
type Tolerances struct {
	DateDays        int
	AmountTolerance float64
	Floor           float64

	// Per-strategy emission thresholds: Detect drops an annotation whose
	// confidence falls below its strategy's minimum. Zero means emit
	// unconditionally.
	ExactMin    float64
	TransferMin float64
	FuzzyMin    float64

	// AutoApprove is the confidence at or above which downstream policy
	// may treat an annotation as a decision without a human in the loop.
	// Zero disables auto-approval.
	AutoApprove float64
}

// DefaultTolerances: ±1 day, $0.50, floored at 0.70 confidence.
var DefaultTolerances = Tolerances{DateDays: 1, AmountTolerance: 0.50, Floor: 0.70}

// Detect runs the three strategies against the pair in confidence order
// (exact, transfer-pair, fuzzy) and returns the first annotation that
// clears its strategy's emission threshold.
func Detect(a, b model.Transaction, tol Tolerances) (model.DuplicateAnnotation, bool) {
	if ann, ok := Exact(a, b); ok && ann.Confidence >= tol.ExactMin {
		return ann, true
	}
	if ann, ok := TransferPair(a, b); ok && ann.Confidence >= tol.TransferMin {
		return ann, true
	}
	if ann, ok := Fuzzy(a, b, tol); ok && ann.Confidence >= tol.FuzzyMin {
		return ann, true
	}
	return model.DuplicateAnnotation{}, false
}

// Exact reports a same-day, same-merchant (case-folded), near-equal-amount
// pair as a duplicate.
func Exact(a, b model.Transaction) (model.DuplicateAnnotation, bool) {
	if a.Date != b.Date {
		return model.DuplicateAnnotation{}, false
	}
	if !strings.EqualFold(a.Merchant, b.Merchant) {
		return model.DuplicateAnnotation{}, false
	}
	if math.Abs(a.Amount-b.Amount) > exactAmountTolerance {
		return model.DuplicateAnnotation{}, false
	}

	return model.DuplicateAnnotation{
		IdentityA:  a.Identity,
		IdentityB:  b.Identity,
		Strategy:   model.StrategyExact,
		Confidence: exactConfidence,
		Reason:     fmt.Sprintf("same date %s, amount %.2f, merchant %q", a.Date, a.Amount, a.Merchant),
		DecidedBy:  "system",
		DecidedAt:  time.Now().UTC(),
	}, true
}

// TransferPair reports two transfer-kind transactions on the same date
// with opposite-signed amounts summing near zero as a transfer pair.
func TransferPair(a, b model.Transaction) (model.DuplicateAnnotation, bool) {
	if a.Kind != model.KindTransfer || b.Kind != model.KindTransfer {
		return model.DuplicateAnnotation{}, false
	}
	if a.Date != b.Date {
		return model.DuplicateAnnotation{}, false
	}
	if math.Abs(a.Amount+b.Amount) > transferPairAmountTolerance {
		return model.DuplicateAnnotation{}, false
	}

	return model.DuplicateAnnotation{
		IdentityA:  a.Identity,
		IdentityB:  b.Identity,
		Strategy:   model.StrategyTransferPair,
		Confidence: transferPairConfidence,
		Reason:     fmt.Sprintf("opposite-signed transfer amounts %.2f / %.2f on %s", a.Amount, b.Amount, a.Date),
		DecidedBy:  "system",
		DecidedAt:  time.Now().UTC(),
	}, true
}

// Fuzzy reports a pair as probably duplicate when their date, amount, and
// merchant are each within tol's axis tolerance, blended 30/40/30 and
// floored at tol.Floor.
func Fuzzy(a, b model.Transaction, tol Tolerances) (model.DuplicateAnnotation, bool) {
	dateScore, dateOK := dateSimilarity(a.Date, b.Date, tol.DateDays)
	if !dateOK {
		return model.DuplicateAnnotation{}, false
	}
	amountScore, amountOK := amountSimilarity(a.Amount, b.Amount, tol.AmountTolerance)
	if !amountOK {
		return model.DuplicateAnnotation{}, false
	}
	merchantScore, merchantOK := merchantSimilarity(a.Merchant, b.Merchant)
	if !merchantOK {
		return model.DuplicateAnnotation{}, false
	}

	blended := 0.30*dateScore + 0.40*amountScore + 0.30*merchantScore
	confidence := math.Max(blended, tol.Floor)

	return model.DuplicateAnnotation{
		IdentityA:  a.Identity,
		IdentityB:  b.Identity,
		Strategy:   model.StrategyFuzzy,
		Confidence: confidence,
		Reason: fmt.Sprintf("dates %s/%s, amounts %.2f/%.2f, merchants %q/%q",
			a.Date, b.Date, a.Amount, b.Amount, a.Merchant, b.Merchant),
		DecidedBy: "system",
		DecidedAt: time.Now().UTC(),
	}, true
}

func dateSimilarity(dateA, dateB string, toleranceDays int) (float64, bool) {
	ta, err := time.Parse("2006-01-02", dateA)
	if err != nil {
		return 0, false
	}
	tb, err := time.Parse("2006-01-02", dateB)
	if err != nil {
		return 0, false
	}
	diffDays := math.Abs(ta.Sub(tb).Hours() / 24)
	if diffDays > float64(toleranceDays) {
		return 0, false
	}
	if toleranceDays == 0 {
		if diffDays == 0 {
			return 1.0, true
		}
		return 0, false
	}
	return 1.0 - diffDays/float64(toleranceDays), true
}

func amountSimilarity(a, b, tolerance float64) (float64, bool) {
	diff := math.Abs(a - b)
	if diff > tolerance {
		return 0, false
	}
	if tolerance == 0 {
		if diff == 0 {
			return 1.0, true
		}
		return 0, false
	}
	return 1.0 - diff/tolerance, true
}

func merchantSimilarity(a, b string) (float64, bool) {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == "" || lb == "" {
		return 0, false
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return 1.0, true
	}
	if sharesToken(la, lb) {
		return 1.0, true
	}
	return 0, false
}

// sharesToken reports whether a and b share an alphanumeric token of
// length >= 4 that is not purely digits.
func sharesToken(a, b string) bool {
	tokensA := tokenize(a)
	tokensB := make(map[string]bool)
	for _, t := range tokenize(b) {
		tokensB[t] = true
	}
	for _, t := range tokensA {
		if tokensB[t] {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() >= 4 && !allDigits(current.String()) {
			tokens = append(tokens, current.String())
		}
		current.Reset()
	}
	for _, r := range s {
		if isAlphanumeric(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
