// Package verifier implements the pre-apply block Verifier: the pipeline a
// received or locally produced Block runs through before its transactions
// are allowed to touch the ledger. As with mempool and queue, its
// collaborator interfaces are declared here, next to the package that
// consumes them, rather than in a shared top-level interfaces package.
package verifier

import "github.com/ddkcore/ddknode/common/types"

// BlockCrypto is the signing/crypto collaborator's block-facing surface:
// signature verification, id derivation, and the canonical byte layout
// verifyPayload folds into its rolling digest.
type BlockCrypto interface {
	VerifySignature(block *types.Block) bool
	GetID(block *types.Block) (types.Hash, error)
	CanonicalTransactionBytes(tx *types.Transaction) ([]byte, error)
}

// RewardSchedule computes the expected block reward for a height, per the
// emission schedule the rounds/rewards accounting owns.
type RewardSchedule interface {
	CalcReward(height uint64) uint64
}

// VersionTable reports whether a (version, height) pair is one this node
// still accepts.
type VersionTable interface {
	IsValid(version int, height uint64) bool
}

// Delegates is the forging/consensus collaborator this package signals
// fork conditions to; it owns delegate-set membership and slot scheduling,
// neither of which this package tracks itself. The three notifications
// mirror spec's three detectable fork kinds: wrong previousBlock, a
// confirmed transaction resurfacing in a new block, and a block produced
// outside its delegate's slot.
type Delegates interface {
	ValidateBlockSlot(block *types.Block) error
	NotifyForkOne(block *types.Block)
	NotifyForkTwo(block *types.Block, tx *types.Transaction)
	NotifyForkThree(block *types.Block)
}

// BlockStore is the narrow persistence-layer surface the Verifier needs:
// the current chain head, whether a block id has already been committed,
// and whether a transaction id has already been confirmed on-chain.
type BlockStore interface {
	LastBlock() (*types.Block, error)
	BlockExists(id types.Hash) (bool, error)
	IsTransactionConfirmed(id types.Hash) (bool, error)
}

// Pool is the mempool surface processBlock needs to evict a transaction
// that turned out to already be confirmed (a type-2 fork signal).
type Pool interface {
	Remove(tx *types.Transaction) bool
}

// ApplyBlock is the ledger-application collaborator: once a block passes
// every check, applying it (crediting/debiting balances, advancing
// account chains) is owned by the Accounts/TransactionLogic layer, not by
// this package.
type ApplyBlock interface {
	Apply(block *types.Block) error
}

// RewardException is the narrow allow-list collaborator verifyReward
// consults before failing a reward mismatch: blocks whose id it contains
// are grandfathered in regardless of what calcReward(height) says.
type RewardException interface {
	Contains(blockID types.Hash) bool
}
