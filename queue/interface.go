// Package queue implements the transaction Queue: the admission stage that
// sits between raw submission and the Pool. It owns the two-phase verify
// call into the crypto collaborator and the conflict-driven shuffle
// between its main queue and a side conflictedQueue.
package queue

import (
	"github.com/ddkcore/ddknode/common/types"
	"github.com/ddkcore/ddknode/mempool"
)

// Pool is the subset of mempool.TransactionPool the Queue drives. Declaring
// it here — rather than importing the concrete type everywhere — keeps the
// admission loop testable against a fake pool.
type Pool interface {
	Has(tx *types.Transaction) bool
	IsPotentialConflict(tx *types.Transaction) bool
	Push(tx *types.Transaction, broadcast bool, force bool) (bool, error)
	GetLockStatus() bool
}

// VerifyLogic is the two-phase verify surface of the crypto collaborator.
// Phase 1 checks signature, id derivation and schema shape; phase 2 checks
// balance sufficiency and type-specific limits against the sender's
// unconfirmed balance.
type VerifyLogic interface {
	NewVerify(tx *types.Transaction, sender *mempool.Account, checkExists bool) error
	NewVerifyUnconfirmed(tx *types.Transaction, sender *mempool.Account) error
}

// Accounts resolves a transaction's sender, creating the account record if
// this is its first appearance.
type Accounts interface {
	GetOrCreateAccount(publicKey []byte) (*mempool.Account, error)
}

// Sessions delivers the per-account pool/verify notification.
type Sessions interface {
	Send(addr types.Address, channel string, payload interface{})
}
