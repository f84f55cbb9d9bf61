package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

func TestCreditCardParser(t *testing.T) {
	csv := "Date,Description,Amount,Category,Merchant\n" +
		"02/01/2024,AMZN MKTP,42.10,Shopping,Amazon\n" +
		"02/03/2024,PAYMENT RECEIVED - THANK YOU,-200.00,Payment,\n"

	p := NewCreditCardParser()
	out, err := p.Parse(context.Background(), SourceHandle{Name: "card.csv", Reader: strings.NewReader(csv)})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "Amazon", out[0].Merchant)
	assert.Equal(t, "Shopping", out[0].Category)
	assert.Equal(t, model.KindExpense, p.ClassifyKind(out[0].Description, 42.10))
	assert.Equal(t, model.KindCardPayment, p.ClassifyKind(out[1].Description, -200.00))
}

func TestCreditCardParserBadHeader(t *testing.T) {
	csv := "Date,Description,Amount\n02/01/2024,X,1.00\n"
	p := NewCreditCardParser()
	_, err := p.Parse(context.Background(), SourceHandle{Name: "bad.csv", Reader: strings.NewReader(csv)})
	require.Error(t, err)
}
