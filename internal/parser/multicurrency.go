package parser

import (
	"context"
	"encoding/csv"
	"fmt"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// MultiCurrencyParser reads the international-account delimited format:
// header "ID,Date,Amount,Currency,Description,PayeeName,ExchangeRate,
// FeeAmount,TotalAmount". Amount and Currency carry the original-currency
// figure; TotalAmount is the settled home-currency figure after fee and
// exchange-rate application.
type MultiCurrencyParser struct {
	BaseParser
}

// NewMultiCurrencyParser creates a MultiCurrencyParser.
func NewMultiCurrencyParser() *MultiCurrencyParser {
	return &MultiCurrencyParser{BaseParser: NewBaseParser(model.SourceMultiCurrency, "1.0.0", 0, 0)}
}

var multiCurrencyHeader = []string{
	"ID", "Date", "Amount", "Currency", "Description",
	"PayeeName", "ExchangeRate", "FeeAmount", "TotalAmount",
}

func (p *MultiCurrencyParser) Parse(ctx context.Context, handle SourceHandle) ([]model.RawTransaction, error) {
	if err := p.Wait(ctx); err != nil {
		return nil, err
	}

	r := csv.NewReader(handle.Reader)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &ErrStructureFailure{SourceFile: handle.Name, Diagnostic: fmt.Sprintf("missing header: %v", err)}
	}
	if !equalHeader(header, multiCurrencyHeader) {
		return nil, &ErrStructureFailure{SourceFile: handle.Name, Diagnostic: fmt.Sprintf("unexpected header %v", header)}
	}

	var out []model.RawTransaction
	recordIndex := 1

	for {
		row, err := r.Read()
		if err != nil {
			if isEOF(err) {
				break
			}
			recordIndex++
			out = append(out, model.RawTransaction{
				Source:         model.SourceMultiCurrency,
				SourceFile:     handle.Name,
				RecordIndex:    recordIndex,
				RawImage:       fmt.Sprintf("%v", row),
				Confidence:     0.0,
				TransformNotes: []string{fmt.Sprintf("row parse error: %v", err)},
			})
			continue
		}
		recordIndex++

		if len(row) != 9 {
			out = append(out, model.RawTransaction{
				Source:         model.SourceMultiCurrency,
				SourceFile:     handle.Name,
				RecordIndex:    recordIndex,
				RawImage:       fmt.Sprintf("%v", row),
				Confidence:     0.0,
				TransformNotes: []string{fmt.Sprintf("expected 9 columns, got %d", len(row))},
			})
			continue
		}

		out = append(out, model.RawTransaction{
			Source:        model.SourceMultiCurrency,
			SourceFile:    handle.Name,
			RecordIndex:   recordIndex,
			RawImage:      fmt.Sprintf("%v", row),
			TextDate:      row[1],
			TextAmount:    row[2], // original-currency figure; canon converts via ExtraRate
			Description:   row[4],
			Merchant:      row[5],
			ExtraCurrency: row[3],
			ExtraRate:     row[6],
			ExtraFee:      row[7],
			Confidence:    1.0,
		})
	}

	return out, nil
}

// ClassifyKind implements KindClassifier: sign of the settled amount is the
// only cue this source offers.
func (p *MultiCurrencyParser) ClassifyKind(description string, amount float64) model.TransactionKind {
	if amount < 0 {
		return model.KindExpense
	}
	return model.KindIncome
}
