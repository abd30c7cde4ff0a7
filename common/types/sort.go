package types

import "sort"

// CompareTransactions is the canonical total order every producer and
// verifier must apply before a block is assembled or checked: it is
// consensus-critical, so the key is fixed here once rather than left to
// each caller's sort.Slice comparator. Primary key Type ascending, then
// Timestamp ascending, then Amount descending, then ID ascending
// (byte-lexicographic). The ID tie-break guarantees a strict order even
// between two transactions equal on every other field.
func CompareTransactions(a, b *Transaction) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}
	return a.ID.Less(b.ID)
}

// SortTransactions orders txs in place per CompareTransactions.
func SortTransactions(txs []*Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return CompareTransactions(txs[i], txs[j])
	})
}
