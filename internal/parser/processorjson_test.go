package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

func TestProcessorJSONParser(t *testing.T) {
	doc := `{
		"object": "list",
		"data": [
			{"id": "ch_1", "amount": 2599, "created": 1705334400, "currency": "usd", "description": "Payment from Jane Doe", "type": "charge"},
			{"id": "ch_2", "amount": -500, "created": 1705420800, "currency": "usd", "description": "Refund issued", "type": "refund"}
		]
	}`

	p := NewProcessorJSONParser()
	out, err := p.Parse(context.Background(), SourceHandle{Name: "events.json", Reader: strings.NewReader(doc)})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, model.SourceProcessorJSON, out[0].Source)
	assert.Equal(t, "25.99", out[0].TextAmount)
	assert.Equal(t, "01/15/2024", out[0].TextDate)
	assert.Equal(t, "USD", out[0].ExtraCurrency)
	assert.Equal(t, 1.0, out[0].Confidence)

	merchant, ok := p.ExtractMerchant(out[0].Description)
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe", merchant)

	assert.Equal(t, model.KindIncome, p.ClassifyKind(out[0].Description, 25.99))
	assert.Equal(t, "-5.00", out[1].TextAmount)
}

func TestProcessorJSONParserMissingData(t *testing.T) {
	p := NewProcessorJSONParser()
	_, err := p.Parse(context.Background(), SourceHandle{Name: "bad.json", Reader: strings.NewReader(`{"object":"list"}`)})
	require.Error(t, err)
}

func TestProcessorJSONParserMissingID(t *testing.T) {
	doc := `{"object":"list","data":[{"amount":100,"created":1705334400,"currency":"usd","description":"x"}]}`
	p := NewProcessorJSONParser()
	out, err := p.Parse(context.Background(), SourceHandle{Name: "x.json", Reader: strings.NewReader(doc)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].Confidence)
}
