package projection

import "sort"

// amountEntry pairs an identity with its amount so range queries can
// filter bucket candidates against the real value, not just the bucket.
type amountEntry struct {
	Identity string  `json:"identity"`
	Amount   float64 `json:"amount"`
}

// Index holds the by-attribute lookups derived from a Ledger: by date, by
// merchant, and an amount-range bucket index for quick range scans.
type Index struct {
	byDate         map[string][]string   // date -> identities
	byMerchant     map[string][]string   // lower-cased merchant -> identities
	byAmountBucket map[int][]amountEntry // truncated amount -> entries
}

// BuildIndex derives Index from ledger. It is linear in the number of
// transactions and produces the same content (modulo ordering of
// equal-key entries) whether built incrementally or from scratch.
func BuildIndex(ledger Ledger) Index {
	idx := Index{
		byDate:         make(map[string][]string),
		byMerchant:     make(map[string][]string),
		byAmountBucket: make(map[int][]amountEntry),
	}

	for _, t := range ledger.All() {
		idx.byDate[t.Date] = append(idx.byDate[t.Date], t.Identity)
		idx.byMerchant[lower(t.Merchant)] = append(idx.byMerchant[lower(t.Merchant)], t.Identity)
		b := amountBucket(t.Amount)
		idx.byAmountBucket[b] = append(idx.byAmountBucket[b], amountEntry{Identity: t.Identity, Amount: t.Amount})
	}

	for k := range idx.byDate {
		sort.Strings(idx.byDate[k])
	}
	for k := range idx.byMerchant {
		sort.Strings(idx.byMerchant[k])
	}
	for k := range idx.byAmountBucket {
		entries := idx.byAmountBucket[k]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Identity < entries[j].Identity })
	}

	return idx
}

// DateCount returns the number of distinct dates indexed, for diagnostics.
func (i Index) DateCount() int { return len(i.byDate) }

// ByDate returns the identities of transactions on date, sorted.
func (i Index) ByDate(date string) []string { return i.byDate[date] }

// ByMerchant returns the identities of transactions for merchant
// (case-insensitive), sorted.
func (i Index) ByMerchant(merchant string) []string { return i.byMerchant[lower(merchant)] }

// ByAmountRange returns the identities of transactions whose amount falls
// in [min, max], scanning only the buckets the range spans. Buckets at the
// edges are only partially covered by the range, so every candidate is
// checked against its real amount before it is returned.
func (i Index) ByAmountRange(min, max float64) []string {
	var out []string
	for b := amountBucket(min); b <= amountBucket(max); b++ {
		for _, e := range i.byAmountBucket[b] {
			if e.Amount >= min && e.Amount <= max {
				out = append(out, e.Identity)
			}
		}
	}
	sort.Strings(out)
	return out
}

func amountBucket(amount float64) int {
	return int(amount)
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
