package canon

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmountText parses a source-supplied amount string into a signed
// float64. Shipped sources vary in dress: the checking source quotes a
// currency string with a "$" sign, thousands separators, and a leading
// minus ("-$2,500.00"); the credit-card, multi-currency, and
// payment-processor sources emit a bare decimal ("42.10", "-5.00").
func ParseAmountText(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("canon: empty amount text")
	}

	negative := strings.Contains(trimmed, "-")
	stripped := strings.NewReplacer("$", "", ",", "", "-", "").Replace(trimmed)
	stripped = strings.TrimSpace(stripped)

	value, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, fmt.Errorf("canon: unparseable amount %q: %w", text, err)
	}
	if negative {
		value = -value
	}
	return value, nil
}

// ConvertToReference converts a foreign-currency amount to the reference
// currency via division by the exchange rate, per the multi-currency
// source's conversion rule: canonical = original / rate when currency is
// not already the reference currency. It returns the converted amount and
// the parsed rate (for description enrichment); ok reports whether a
// conversion was actually applied.
func ConvertToReference(amount float64, currency, rate string) (converted float64, parsedRate float64, ok bool, err error) {
	if currency == "" || strings.EqualFold(currency, ReferenceCurrency) {
		return amount, 0, false, nil
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("canon: unparseable exchange rate %q: %w", rate, err)
	}
	if r == 0 {
		return 0, 0, false, fmt.Errorf("canon: zero exchange rate for currency %q", currency)
	}
	return amount / r, r, true, nil
}

// ReferenceCurrency is the ledger's single settlement currency.
const ReferenceCurrency = "USD"
