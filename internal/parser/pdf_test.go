package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPDFParserNotImplemented(t *testing.T) {
	p := NewPDFParser()
	_, err := p.Parse(context.Background(), SourceHandle{Name: "statement.pdf", Reader: strings.NewReader("%PDF-1.4")})
	assert.True(t, errors.Is(err, ErrNotImplemented))
}
