package mempool

import "github.com/ddkcore/ddknode/common/types"

// isPotentialConflict reports whether admitting tx alongside pool's current
// contents would require choosing between two pending transactions that
// cannot both apply. It is a pure predicate: it reads pool's indexes but
// never mutates them, and has no collaborator side effects, so it is safe
// to call from outside the Sequence as long as the caller tolerates
// reading a snapshot that may be stale by the time it acts on the answer —
// in practice it is always called with the pool's mutex held (the read lock
// in IsPotentialConflict, the write lock in Push).
func isPotentialConflict(tx *types.Transaction, pool *TransactionPool) bool {
	dependent := pool.dependentSet(tx.SenderID)
	if len(dependent) == 0 {
		return false
	}

	switch tx.Type {
	case types.TransactionSignature:
		// A sender with any pending transaction must not simultaneously
		// rotate keys: every prior transaction was verified against the
		// old key.
		return true
	case types.TransactionVote:
		for _, d := range dependent {
			if d.Type == types.TransactionVote {
				return true
			}
		}
	case types.TransactionReferral:
		for _, d := range dependent {
			if d.Type == types.TransactionReferral {
				return true
			}
		}
	}

	candidate := make([]*types.Transaction, len(dependent)+1)
	copy(candidate, dependent)
	candidate[len(dependent)] = tx
	types.SortTransactions(candidate)

	return candidate[len(candidate)-1] != tx
}
