// Package canon implements canonicalization and identity: turning a
// RawTransaction into an immutable Transaction with a normalized date,
// signed reference-currency amount, and a content-derived identity hash.
package canon

import (
	"fmt"
	"time"

	"github.com/mindburn-labs/ledgerly/internal/model"
	"github.com/mindburn-labs/ledgerly/internal/parser"
)

// Canonicalize transforms a RawTransaction into a Transaction. merchant
// comes first from the record's own field, then from the parser's optional
// MerchantExtractor; kind comes from the parser's optional KindClassifier
// (unclassified without one); the rule engine (internal/rules) may later
// override both with a higher-confidence classification. The metadata map
// is left empty — it is populated downstream by classification and
// duplicate-detection.
func Canonicalize(raw model.RawTransaction, p parser.Parser, now time.Time) (model.Transaction, error) {
	date, err := ParseDate(raw.TextDate)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("canon: %w", err)
	}

	amount, err := ParseAmountText(raw.TextAmount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("canon: %w", err)
	}

	description := raw.Description

	if raw.Source == model.SourceMultiCurrency && raw.ExtraCurrency != "" {
		converted, rate, applied, err := ConvertToReference(amount, raw.ExtraCurrency, raw.ExtraRate)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("canon: %w", err)
		}
		if applied {
			description = fmt.Sprintf("%s (%.2f %s → $%.2f %s @ rate %.4f)",
				description, amount, raw.ExtraCurrency, converted, ReferenceCurrency, rate)
		}
		amount = converted
	}

	merchant := raw.Merchant
	if merchant == "" {
		if me, ok := p.(parser.MerchantExtractor); ok {
			if m, found := me.ExtractMerchant(raw.Description); found {
				merchant = m
			}
		}
	}

	kind := model.KindUnclassified
	if kc, ok := p.(parser.KindClassifier); ok {
		kind = kc.ClassifyKind(raw.Description, amount)
	}

	// The bank label defaults to the source kind when a statement carries
	// no account column of its own; identity hashing needs a stable label
	// either way.
	bank := raw.Account
	if bank == "" {
		bank = string(raw.Source)
	}

	identity := Identity(date, amount, merchant, bank)

	return model.Transaction{
		Identity:           identity,
		Date:               date,
		Amount:             amount,
		OriginalAmountText: raw.TextAmount,
		OriginalCurrency:   originalCurrency(raw),
		Description:        description,
		Merchant:           merchant,
		Kind:               kind,
		Category:           raw.Category,
		Bank:               bank,
		Provenance: model.Provenance{
			SourceFile:    raw.SourceFile,
			RecordIndex:   raw.RecordIndex,
			ExtractedAt:   now,
			ParserVersion: p.Version(),
			Transforms:    raw.TransformNotes,
		},
		Metadata: map[string]any{},
	}, nil
}

func originalCurrency(raw model.RawTransaction) string {
	if raw.ExtraCurrency != "" {
		return raw.ExtraCurrency
	}
	return ReferenceCurrency
}
