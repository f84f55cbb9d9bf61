package parser

import (
	"context"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// PDFParser is a declared but unbuilt source kind, reserved so a future
// PDF-statement extractor can register under model.SourcePDF without
// changing the Registry's shape.
type PDFParser struct {
	BaseParser
}

// NewPDFParser creates a PDFParser.
func NewPDFParser() *PDFParser {
	return &PDFParser{BaseParser: NewBaseParser(model.SourcePDF, "0.0.0", 0, 0)}
}

func (p *PDFParser) Parse(ctx context.Context, handle SourceHandle) ([]model.RawTransaction, error) {
	return nil, ErrNotImplemented
}
