package parser

import (
	"fmt"
	"time"
)

// formatEpochSeconds renders a Unix epoch-second timestamp as MM/DD/YYYY,
// matching the delimited-text sources' date text so canonicalization can
// apply one date parser regardless of origin format.
func formatEpochSeconds(epoch int64) string {
	if epoch == 0 {
		return ""
	}
	return time.Unix(epoch, 0).UTC().Format("01/02/2006")
}

// formatCents renders a cent-integer amount as a decimal string, matching
// the delimited-text sources' unscaled decimal amount text.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
