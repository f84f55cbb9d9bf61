// Package parser implements the polymorphic parser framework: one contract
// fulfilled by a small tagged-variant per source kind (checking, credit
// card, payment-processor JSON, multi-currency), dispatched through a table
// rather than a class hierarchy, with two optional capability interfaces a
// parser may compose à la carte.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/time/rate"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// ErrNotImplemented is returned by parsers declared but not yet built
// (the reserved PDF slot).
var ErrNotImplemented = errors.New("parser: not implemented")

// ErrStructureFailure marks a source-structure error: a parser aborts that
// file, but the batch continues with remaining files.
type ErrStructureFailure struct {
	SourceFile string
	Diagnostic string
}

func (e *ErrStructureFailure) Error() string {
	return fmt.Sprintf("parser: structure failure in %s: %s", e.SourceFile, e.Diagnostic)
}

// SourceHandle is the input to Parse: a name (used as SourceFile
// provenance) and a byte reader over exactly one logical statement.
type SourceHandle struct {
	Name   string
	Reader io.Reader
}

// Parser is the contract every source-kind implementation fulfills.
type Parser interface {
	// Parse reads one logical statement and emits its records in source
	// order. It fails fast on structural errors; per-record anomalies
	// become low-confidence RawTransactions instead of errors.
	Parse(ctx context.Context, handle SourceHandle) ([]model.RawTransaction, error)
	SourceKind() model.SourceKind
	Version() string
}

// MerchantExtractor is an optional capability: description text ->
// normalized merchant, when the source offers appropriate heuristics.
type MerchantExtractor interface {
	ExtractMerchant(description string) (merchant string, ok bool)
}

// KindClassifier is an optional capability: (description, signed amount) ->
// transaction kind, when source-specific cues exist.
type KindClassifier interface {
	ClassifyKind(description string, amount float64) model.TransactionKind
}

// BaseParser provides the common bookkeeping every concrete parser embeds:
// an identity, a version string, and an optional rate limiter for
// source-handles that are remote fetches rather than local files.
type BaseParser struct {
	kind    model.SourceKind
	version string
	limiter *rate.Limiter
}

// NewBaseParser creates a BaseParser. version must be a semantic version;
// it is normalized to canonical form before entering provenance, so
// "1.0" and "1.0.0" never read as different parsers. r/b of zero disables
// rate limiting (the common case for local-file sources).
func NewBaseParser(kind model.SourceKind, version string, r rate.Limit, b int) BaseParser {
	var limiter *rate.Limiter
	if b > 0 {
		limiter = rate.NewLimiter(r, b)
	}
	return BaseParser{kind: kind, version: semver.MustParse(version).String(), limiter: limiter}
}

func (b BaseParser) SourceKind() model.SourceKind { return b.kind }
func (b BaseParser) Version() string              { return b.version }

// Wait blocks until the rate limiter (if configured) allows the next read.
func (b BaseParser) Wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

// Registry is the dispatch table of parsers keyed by source kind, standing
// in for a class hierarchy: the pipeline that walks a RawTransaction need
// only require the capability interfaces it uses at that point.
type Registry struct {
	parsers map[model.SourceKind]Parser
}

// NewRegistry creates a Registry pre-populated with the four shipped
// parsers (checking, credit card, payment-processor JSON, multi-currency)
// plus the declared-but-unbuilt PDF slot.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[model.SourceKind]Parser)}
	r.Register(NewCheckingParser())
	r.Register(NewCreditCardParser())
	r.Register(NewProcessorJSONParser())
	r.Register(NewMultiCurrencyParser())
	r.Register(NewPDFParser())
	return r
}

// Register adds or replaces the parser for its source kind.
func (r *Registry) Register(p Parser) {
	r.parsers[p.SourceKind()] = p
}

// Get returns the parser for kind, if any.
func (r *Registry) Get(kind model.SourceKind) (Parser, bool) {
	p, ok := r.parsers[kind]
	return p, ok
}

// sourceVocabulary maps case-insensitive filename substrings to the source
// kind they signal, checked in the order listed (most specific first) so
// e.g. "creditcard" is tried before the generic "card" would be.
var sourceVocabulary = []struct {
	token string
	kind  model.SourceKind
}{
	{"creditcard", model.SourceCreditCard},
	{"credit-card", model.SourceCreditCard},
	{"credit_card", model.SourceCreditCard},
	{"checking", model.SourceChecking},
	{"multicurrency", model.SourceMultiCurrency},
	{"multi-currency", model.SourceMultiCurrency},
	{"multi_currency", model.SourceMultiCurrency},
	{"intl", model.SourceMultiCurrency},
	{"stripe", model.SourceProcessorJSON},
	{"processor", model.SourceProcessorJSON},
	{".pdf", model.SourcePDF},
}

// DetectSource identifies the source kind of name by inspecting filename
// tokens first (case-insensitive substring match), falling back to content
// inspection of sniff (the file's leading bytes) when the name is
// ambiguous. It returns a recoverable error when no source is identified.
func DetectSource(name string, sniff []byte) (model.SourceKind, error) {
	lower := strings.ToLower(name)
	for _, entry := range sourceVocabulary {
		if strings.Contains(lower, entry.token) {
			return entry.kind, nil
		}
	}

	trimmed := strings.TrimSpace(string(sniff))
	switch {
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "%PDF"):
		if strings.HasPrefix(trimmed, "%PDF") {
			return model.SourcePDF, nil
		}
		return model.SourceProcessorJSON, nil
	case strings.HasPrefix(trimmed, "ID,Date,Amount,Currency"):
		return model.SourceMultiCurrency, nil
	case strings.HasPrefix(trimmed, "Date,Description,Amount,Category,Merchant"):
		return model.SourceCreditCard, nil
	case strings.HasPrefix(trimmed, "Date,Description,Amount"):
		return model.SourceChecking, nil
	}

	return "", fmt.Errorf("parser: could not identify source for %q", name)
}
