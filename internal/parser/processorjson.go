package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// ProcessorJSONParser reads the payment-processor JSON format: a top-level
// object { "object": "list", "data": [ {...} ] } whose elements carry
// cent-integer amounts and epoch-second timestamps.
type ProcessorJSONParser struct {
	BaseParser
}

// NewProcessorJSONParser creates a ProcessorJSONParser.
func NewProcessorJSONParser() *ProcessorJSONParser {
	return &ProcessorJSONParser{BaseParser: NewBaseParser(model.SourceProcessorJSON, "1.0.0", 0, 0)}
}

type processorRecord struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Created     int64  `json:"created"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type processorDocument struct {
	Object string            `json:"object"`
	Data   []processorRecord `json:"data"`
}

func (p *ProcessorJSONParser) Parse(ctx context.Context, handle SourceHandle) ([]model.RawTransaction, error) {
	if err := p.Wait(ctx); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(handle.Reader)
	if err != nil {
		return nil, &ErrStructureFailure{SourceFile: handle.Name, Diagnostic: fmt.Sprintf("read failed: %v", err)}
	}

	var doc processorDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ErrStructureFailure{SourceFile: handle.Name, Diagnostic: fmt.Sprintf("unreadable JSON root: %v", err)}
	}
	if doc.Data == nil {
		return nil, &ErrStructureFailure{SourceFile: handle.Name, Diagnostic: "missing top-level \"data\" array"}
	}

	out := make([]model.RawTransaction, 0, len(doc.Data))
	for i, rec := range doc.Data {
		// The array index (0-indexed in the wire format) is the
		// provenance record index; +1 keeps it 1-indexed like the
		// delimited-text parsers.
		recordIndex := i + 1

		raw, err := json.Marshal(rec)
		if err != nil {
			raw = nil
		}

		rt := model.RawTransaction{
			Source:      model.SourceProcessorJSON,
			SourceFile:  handle.Name,
			RecordIndex: recordIndex,
			RawImage:    string(raw),
			Confidence:  1.0,
		}

		if rec.ID == "" {
			rt.Confidence = 0.0
			rt.TransformNotes = append(rt.TransformNotes, "missing record id")
		}

		rt.TextDate = formatEpochSeconds(rec.Created)
		rt.TextAmount = formatCents(rec.AmountCents)
		rt.Description = rec.Description
		rt.ExtraCurrency = strings.ToUpper(rec.Currency)

		out = append(out, rt)
	}

	return out, nil
}

// ClassifyKind implements KindClassifier from the description text and the
// amount's sign: a "Payment from X" description or a non-negative amount is
// income, anything else an expense. The record's own "type" field is not
// carried past Parse and plays no part.
func (p *ProcessorJSONParser) ClassifyKind(description string, amount float64) model.TransactionKind {
	lower := strings.ToLower(description)
	if strings.Contains(lower, "payment from") {
		return model.KindIncome
	}
	if amount >= 0 {
		return model.KindIncome
	}
	return model.KindExpense
}

// ExtractMerchant implements MerchantExtractor for the "Payment from X"
// description convention used by the processor source.
func (p *ProcessorJSONParser) ExtractMerchant(description string) (string, bool) {
	const marker = "payment from "
	lower := strings.ToLower(description)
	idx := strings.Index(lower, marker)
	if idx < 0 {
		return "", false
	}
	merchant := strings.TrimSpace(description[idx+len(marker):])
	if merchant == "" {
		return "", false
	}
	return merchant, true
}
