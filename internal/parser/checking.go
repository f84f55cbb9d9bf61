package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// CheckingParser reads the checking-account delimited statement format:
// header row "Date,Description,Amount"; date MM/DD/YYYY; amount as a
// quoted currency string with "$", thousands separators, leading minus.
type CheckingParser struct {
	BaseParser
}

// NewCheckingParser creates a CheckingParser.
func NewCheckingParser() *CheckingParser {
	return &CheckingParser{BaseParser: NewBaseParser(model.SourceChecking, "1.0.0", 0, 0)}
}

var checkingHeader = []string{"Date", "Description", "Amount"}

func (p *CheckingParser) Parse(ctx context.Context, handle SourceHandle) ([]model.RawTransaction, error) {
	if err := p.Wait(ctx); err != nil {
		return nil, err
	}

	r := csv.NewReader(handle.Reader)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &ErrStructureFailure{SourceFile: handle.Name, Diagnostic: fmt.Sprintf("missing header: %v", err)}
	}
	if !equalHeader(header, checkingHeader) {
		return nil, &ErrStructureFailure{SourceFile: handle.Name, Diagnostic: fmt.Sprintf("unexpected header %v", header)}
	}

	var out []model.RawTransaction
	recordIndex := 1 // header counted as record 1

	for {
		row, err := r.Read()
		if err != nil {
			if isEOF(err) {
				break
			}
			// A row-level read failure (e.g. ragged quoting) is a
			// per-record anomaly, not a structural failure: emit a
			// low-confidence placeholder and keep going.
			recordIndex++
			out = append(out, model.RawTransaction{
				Source:         model.SourceChecking,
				SourceFile:     handle.Name,
				RecordIndex:    recordIndex,
				RawImage:       fmt.Sprintf("%v", row),
				Confidence:     0.0,
				TransformNotes: []string{fmt.Sprintf("row parse error: %v", err)},
			})
			continue
		}
		recordIndex++

		if len(row) != 3 {
			out = append(out, model.RawTransaction{
				Source:         model.SourceChecking,
				SourceFile:     handle.Name,
				RecordIndex:    recordIndex,
				RawImage:       fmt.Sprintf("%v", row),
				Confidence:     0.0,
				TransformNotes: []string{fmt.Sprintf("expected 3 columns, got %d", len(row))},
			})
			continue
		}

		out = append(out, model.RawTransaction{
			Source:      model.SourceChecking,
			SourceFile:  handle.Name,
			RecordIndex: recordIndex,
			RawImage:    fmt.Sprintf("%v", row),
			TextDate:    row[0],
			Description: row[1],
			TextAmount:  row[2],
			Confidence:  1.0,
		})
	}

	return out, nil
}

// ClassifyKind implements KindClassifier: checking-account sources see both
// expenses and income with no further cue, so classification is deferred
// to the rule engine — it returns the unclassified kind.
func (p *CheckingParser) ClassifyKind(description string, amount float64) model.TransactionKind {
	return model.KindUnclassified
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
