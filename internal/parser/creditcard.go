package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// CreditCardParser reads the credit-card delimited statement format:
// header "Date,Description,Amount,Category,Merchant"; date MM/DD/YYYY;
// amount unquoted decimal (positive = purchase, negative = payment).
type CreditCardParser struct {
	BaseParser
}

// NewCreditCardParser creates a CreditCardParser.
func NewCreditCardParser() *CreditCardParser {
	return &CreditCardParser{BaseParser: NewBaseParser(model.SourceCreditCard, "1.0.0", 0, 0)}
}

var creditCardHeader = []string{"Date", "Description", "Amount", "Category", "Merchant"}

func (p *CreditCardParser) Parse(ctx context.Context, handle SourceHandle) ([]model.RawTransaction, error) {
	if err := p.Wait(ctx); err != nil {
		return nil, err
	}

	r := csv.NewReader(handle.Reader)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &ErrStructureFailure{SourceFile: handle.Name, Diagnostic: fmt.Sprintf("missing header: %v", err)}
	}
	if !equalHeader(header, creditCardHeader) {
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
				Source:         model.SourceCreditCard,
				SourceFile:     handle.Name,
				RecordIndex:    recordIndex,
				RawImage:       fmt.Sprintf("%v", row),
				Confidence:     0.0,
				TransformNotes: []string{fmt.Sprintf("row parse error: %v", err)},
			})
			continue
		}
		recordIndex++

		if len(row) != 5 {
			out = append(out, model.RawTransaction{
				Source:         model.SourceCreditCard,
				SourceFile:     handle.Name,
				RecordIndex:    recordIndex,
				RawImage:       fmt.Sprintf("%v", row),
				Confidence:     0.0,
				TransformNotes: []string{fmt.Sprintf("expected 5 columns, got %d", len(row))},
			})
			continue
		}

		out = append(out, model.RawTransaction{
			Source:      model.SourceCreditCard,
			SourceFile:  handle.Name,
			RecordIndex: recordIndex,
			RawImage:    fmt.Sprintf("%v", row),
			TextDate:    row[0],
			Description: row[1],
			TextAmount:  row[2],
			Category:    row[3],
			Merchant:    row[4],
			Confidence:  1.0,
		})
	}

	return out, nil
}

// ClassifyKind implements KindClassifier: credit-card sources rarely emit
// inflows other than payments.
func (p *CreditCardParser) ClassifyKind(description string, amount float64) model.TransactionKind {
	if amount < 0 {
		return model.KindCardPayment
	}
	lower := strings.ToLower(description)
	if strings.Contains(lower, "payment") {
		return model.KindCardPayment
	}
	return model.KindExpense
}

