// Package mempool implements the transaction Pool: the conflict-aware,
// multiply-indexed holding area transactions live in between admission and
// block inclusion. It depends on a handful of collaborators the core does
// not own — signing/crypto, the ledger accounts store, the broadcast bus,
// and per-account session delivery — declared here the way go-vite declares
// its onroad/pool collaborator interfaces next to the package that consumes
// them, rather than in a shared top-level interfaces package.
package mempool

import "github.com/ddkcore/ddknode/common/types"

// Account is the subset of ledger account state the pool and the admission
// pipeline need to reason about. The real account record (owned by the
// Accounts store collaborator) carries more; this is the pool's view.
type Account struct {
	Address                      types.Address
	PublicKey                    []byte
	Balance                      uint64
	UnconfirmedBalance           uint64
	SecondSignature              []byte
	UnconfirmedTotalFrozenAmount uint64
}

// CreateTransactionRequest is the input to TransactionLogic.Create: enough
// to build a signed transaction of any type without the core knowing the
// wire layout.
type CreateTransactionRequest struct {
	Type            types.TransactionType
	SenderPublicKey []byte
	RecipientID     types.Address
	Amount          uint64
	Fee             uint64
	Asset           []byte
	Secret          []byte
}

// TransactionLogic is the signing/crypto collaborator: it owns id
// derivation, signature verification, and unconfirmed-balance application
// against the accounts store. The pool and queue never touch a private key
// or the wire format directly.
type TransactionLogic interface {
	GetID(tx *types.Transaction) (types.Hash, error)
	GetBytes(tx *types.Transaction) ([]byte, error)

	// NewVerify checks signature, id derivation and schema shape. When
	// checkExists is true it also rejects a transaction already confirmed
	// on-chain.
	NewVerify(tx *types.Transaction, sender *Account, checkExists bool) error

	// NewVerifyUnconfirmed checks balance sufficiency and type-specific
	// limits (vote caps, frozen-amount rules) against sender's unconfirmed
	// balance.
	NewVerifyUnconfirmed(tx *types.Transaction, sender *Account) error

	// NewApplyUnconfirmed debits sender's unconfirmed balance for tx.
	NewApplyUnconfirmed(tx *types.Transaction) error

	// NewUndoUnconfirmed reverses a prior NewApplyUnconfirmed.
	NewUndoUnconfirmed(tx *types.Transaction) error

	Create(req CreateTransactionRequest) (*types.Transaction, error)
}

// AccountsStore is the ledger accounts collaborator.
type AccountsStore interface {
	GetOrCreateAccount(publicKey []byte) (*Account, error)
	GetAccountByAddress(addr types.Address) (*Account, error)
}

// Bus is the broadcast collaborator; Publish is fire-and-forget.
type Bus interface {
	Publish(topic string, payload interface{})
}

// TopicTransactionPutInPool is the bus topic emitted by Pool.Push on a
// broadcast admission.
const TopicTransactionPutInPool = "transactionPutInPool"

// AccountSessions delivers per-account notifications, e.g. verify results,
// over whatever transport owns the user's live connection.
type AccountSessions interface {
	Send(addr types.Address, channel string, payload interface{})
}

// ChannelPoolVerify is the AccountSessions channel the queue's verify stage
// reports outcomes on.
const ChannelPoolVerify = "pool/verify"

// VerifyNotification is the payload sent on ChannelPoolVerify.
type VerifyNotification struct {
	TransactionID types.Hash `json:"id"`
	Verified      bool       `json:"verified"`
	Error         string     `json:"error,omitempty"`
}
