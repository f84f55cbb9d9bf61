package canon

import (
	"fmt"
	"time"
)

// ParseDate normalizes a source-supplied date string (MM/DD/YYYY, the only
// text-date format any shipped parser emits) to the canonical YYYY-MM-DD
// calendar string.
func ParseDate(text string) (string, error) {
	t, err := time.Parse("01/02/2006", text)
	if err != nil {
		return "", fmt.Errorf("canon: unparseable date %q: %w", text, err)
	}
	return t.Format("2006-01-02"), nil
}
