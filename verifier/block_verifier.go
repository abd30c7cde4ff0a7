package verifier

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ddkcore/ddknode/common/types"
	"github.com/ddkcore/ddknode/config"
	"github.com/inconshreveable/log15"
)

var log = log15.New("module", "verifier")

// BlockVerifier runs the pre-apply validation pipeline a received or
// locally produced Block must pass before its transactions may touch the
// ledger. verifyReceipt and verifyBlock share the bulk of this pipeline;
// verifyBlock additionally requires lastBlock for fork detection.
type BlockVerifier struct {
	crypto     BlockCrypto
	reward     RewardSchedule
	exceptions RewardException
	versions   VersionTable
	delegates  Delegates
	store      BlockStore
	pool       Pool
	apply      ApplyBlock

	ring *blockIDRing

	constants config.Constants
}

// NewBlockVerifier wires the Verifier's collaborators. exceptions may be
// nil, in which case no block id is ever grandfathered past a reward
// mismatch.
func NewBlockVerifier(crypto BlockCrypto, reward RewardSchedule, exceptions RewardException, versions VersionTable, delegates Delegates, store BlockStore, pool Pool, apply ApplyBlock, constants config.Constants) *BlockVerifier {
	return &BlockVerifier{
		crypto:     crypto,
		reward:     reward,
		exceptions: exceptions,
		versions:   versions,
		delegates:  delegates,
		store:      store,
		pool:       pool,
		apply:      apply,
		ring:       newBlockIDRing(constants.BlockSlotWindow),
		constants:  constants,
	}
}

// slot converts a unix timestamp to a forging slot index relative to the
// configured epoch.
func (v *BlockVerifier) slot(timestamp int64) int64 {
	d := v.constants.SlotDuration
	if d <= 0 {
		d = 1
	}
	return (timestamp - v.constants.EpochTime) / d
}

// OnAcceptedBlock records id in the lastNBlockIds ring. Callers invoke this
// once a block has actually been committed — not merely verified — so the
// ring reflects INV-5's "ids of previously accepted blocks" exactly.
func (v *BlockVerifier) OnAcceptedBlock(id types.Hash) {
	v.ring.add(id)
}

// Seed primes the ring buffer at startup (onBlockchainReady in the
// source), so a freshly started node does not treat recently accepted
// blocks as replayable.
func (v *BlockVerifier) Seed(ids []types.Hash) {
	for _, id := range ids {
		v.ring.add(id)
	}
}

// VerifyReceipt runs the lighter pipeline used when receiving a block from
// a peer, before committing to process it: no fork detection, since that
// requires lastBlock, but it does check the anti-replay ring and the slot
// window.
func (v *BlockVerifier) VerifyReceipt(block *types.Block, lastBlock *types.Block, currentSlot int64) *Result {
	r := &Result{}
	v.setHeight(block, lastBlock)
	v.verifySignature(r, block)
	v.verifyPreviousBlock(r, block, lastBlock)
	v.verifyAgainstLastNBlockIds(r, block)
	v.verifyBlockSlotWindow(r, block, currentSlot)
	v.verifyVersion(r, block)
	v.verifyID(r, block)
	v.verifyPayload(r, block)
	v.verifyReward(r, block)
	return r
}

// VerifyBlock runs the full pipeline: the checks shared with VerifyReceipt
// (all but the anti-replay ring and the slot window), plus fork-one and the
// block-slot ordering check.
func (v *BlockVerifier) VerifyBlock(block *types.Block, lastBlock *types.Block, currentSlot int64) *Result {
	r := &Result{}
	v.setHeight(block, lastBlock)
	v.verifySignature(r, block)
	v.verifyPreviousBlock(r, block, lastBlock)
	v.verifyVersion(r, block)
	v.verifyID(r, block)
	v.verifyPayload(r, block)
	v.verifyReward(r, block)
	v.verifyForkOne(r, block, lastBlock)
	v.verifyBlockSlot(r, block, lastBlock, currentSlot)
	return r
}

// setHeight fixes block.height to lastBlock.height+1, the source's
// setHeight step. With no lastBlock (genesis) the block keeps its own height.
func (v *BlockVerifier) setHeight(block *types.Block, lastBlock *types.Block) {
	if lastBlock != nil {
		block.Height = lastBlock.Height + 1
	}
}

// verifySignature defers to the crypto collaborator. MASTER_NODE_MIGRATED_BLOCK
// disables this check for blocks at or below the migration height: those
// blocks were already committed under an earlier signature scheme and must
// continue to verify under the rules they were accepted with.
func (v *BlockVerifier) verifySignature(r *Result, block *types.Block) {
	if block.Height <= v.constants.MasterNodeMigratedBlock {
		return
	}
	if !v.crypto.VerifySignature(block) {
		r.add(newError(ErrSignature))
	}
}

func (v *BlockVerifier) verifyPreviousBlock(r *Result, block *types.Block, lastBlock *types.Block) {
	if block.Height == 1 {
		return
	}
	if lastBlock == nil || block.PreviousID != lastBlock.ID {
		r.add(newError(ErrPreviousBlock))
	}
}

// verifyAgainstLastNBlockIds rejects a block whose id is already present
// in the anti-replay ring — a block this node has already accepted
// recently cannot be accepted again under a different identity.
func (v *BlockVerifier) verifyAgainstLastNBlockIds(r *Result, block *types.Block) {
	if v.ring.contains(block.ID) {
		r.add(newError(ErrReplayedBlockID))
	}
}

func (v *BlockVerifier) verifyBlockSlotWindow(r *Result, block *types.Block, currentSlot int64) {
	blockSlot := v.slot(block.Timestamp)
	delta := currentSlot - blockSlot
	window := int64(v.constants.BlockSlotWindow)
	if delta < 0 {
		r.add(newDetailError(ErrSlotWindowFuture, fmt.Sprintf("blockSlot=%d currentSlot=%d", blockSlot, currentSlot)))
		return
	}
	if delta > window {
		r.add(newDetailError(ErrSlotWindowTooOld, fmt.Sprintf("blockSlot=%d currentSlot=%d window=%d", blockSlot, currentSlot, window)))
	}
}

func (v *BlockVerifier) verifyVersion(r *Result, block *types.Block) {
	if v.versions != nil && !v.versions.IsValid(block.Version, block.Height) {
		r.add(newDetailError(ErrVersion, fmt.Sprintf("version=%d height=%d", block.Version, block.Height)))
	}
}

func (v *BlockVerifier) verifyID(r *Result, block *types.Block) {
	id, err := v.crypto.GetID(block)
	if err != nil {
		r.add(newDetailError(ErrID, err.Error()))
		return
	}
	if id != block.ID {
		r.add(newError(ErrID))
	}
}

// verifyPayload walks the block's transactions in order, accumulating a
// rolling SHA-256 digest and the amount/fee totals the block's header
// claims to carry, and rejects duplicate transaction ids within the same
// block. The length/count checks that compare against the block's own
// declared fields (numberOfTransactions, payloadHash, totalAmount,
// totalFee) are skipped at or below MasterNodeMigratedBlock: those historical
// blocks predate the fields being populated consistently.
func (v *BlockVerifier) verifyPayload(r *Result, block *types.Block) {
	postMigration := block.Height > v.constants.MasterNodeMigratedBlock

	if block.PayloadLength > v.constants.MaxPayloadLength {
		r.add(newDetailError(ErrPayloadLength, fmt.Sprintf("payloadLength=%d max=%d", block.PayloadLength, v.constants.MaxPayloadLength)))
	}

	if postMigration && block.NumberOfTransactions != len(block.Transactions) {
		r.add(newDetailError(ErrTransactionCount, fmt.Sprintf("numberOfTransactions=%d actual=%d", block.NumberOfTransactions, len(block.Transactions))))
	}

	if len(block.Transactions) > v.constants.MaxTxsPerBlock {
		r.add(newDetailError(ErrTooManyTxs, fmt.Sprintf("count=%d max=%d", len(block.Transactions), v.constants.MaxTxsPerBlock)))
	}

	digest := sha256.New()
	seen := make(map[types.Hash]struct{}, len(block.Transactions))
	var totalAmount, totalFee uint64

	for _, tx := range block.Transactions {
		if _, dup := seen[tx.ID]; dup {
			r.add(newDetailError(ErrDuplicateTx, tx.ID.String()))
			continue
		}
		seen[tx.ID] = struct{}{}

		b, err := v.crypto.CanonicalTransactionBytes(tx)
		if err != nil {
			r.add(newDetailError(ErrID, err.Error()))
			continue
		}
		digest.Write(b)
		totalAmount += tx.Amount
		totalFee += tx.Fee
	}

	if !postMigration {
		return
	}

	if hex.EncodeToString(digest.Sum(nil)) != block.PayloadHash.String() {
		r.add(newError(ErrPayloadHash))
	}
	if totalAmount != block.TotalAmount || totalFee != block.TotalFee {
		r.add(newDetailError(ErrPayloadSum, fmt.Sprintf("amount=%d/%d fee=%d/%d", totalAmount, block.TotalAmount, totalFee, block.TotalFee)))
	}
}

// verifyReward checks block.reward against the emission schedule. Past
// height 21,000,000 emission stops entirely: expected reward is coerced to
// zero and the block's own reward is likewise treated as zero for the
// comparison, matching the hard supply cap. Height 1 (genesis) and any
// block id on the exceptions allow-list bypass the check outright.
func (v *BlockVerifier) verifyReward(r *Result, block *types.Block) {
	if block.Height == 1 {
		return
	}
	if v.exceptions != nil && v.exceptions.Contains(block.ID) {
		return
	}

	const emissionCeilingHeight = 21000000

	expected := v.reward.CalcReward(block.Height)
	actual := block.Reward
	if block.Height > emissionCeilingHeight {
		expected = 0
		actual = 0
	}

	if expected != actual {
		r.add(newDetailError(ErrReward, fmt.Sprintf("expected=%d actual=%d height=%d", expected, block.Reward, block.Height)))
	}
}

// verifyForkOne signals a type-1 fork (wrong previousBlock) to the
// delegates collaborator in addition to recording a local error — unlike
// verifyPreviousBlock's receipt-time check, this one runs with a concrete
// lastBlock in hand and is the consensus-visible detection point.
func (v *BlockVerifier) verifyForkOne(r *Result, block *types.Block, lastBlock *types.Block) {
	if lastBlock == nil {
		return
	}
	if block.PreviousID != lastBlock.ID {
		r.add(newError(ErrForkOne))
		v.delegates.NotifyForkOne(block)
	}
}

func (v *BlockVerifier) verifyBlockSlot(r *Result, block *types.Block, lastBlock *types.Block, currentSlot int64) {
	if lastBlock == nil {
		return
	}
	blockSlot := v.slot(block.Timestamp)
	lastSlot := v.slot(lastBlock.Timestamp)
	if blockSlot <= lastSlot || blockSlot > currentSlot {
		r.add(newDetailError(ErrBlockSlot, fmt.Sprintf("blockSlot=%d lastSlot=%d currentSlot=%d", blockSlot, lastSlot, currentSlot)))
	}
}

// ProcessBlock orchestrates admission of a verified (or to-be-verified)
// block: optional verification, optional existence check, delegate-slot
// validation, per-transaction confirmation checks with fork-two handling,
// and finally application to the ledger. It mirrors the source's
// addBlockProperties/normalize/verifyBlock/checkExists/validateBlockSlot/
// checkTransactions/applyBlock waterfall, collapsed into a single Go
// function since there is no async boundary between the steps here.
func (v *BlockVerifier) ProcessBlock(block *types.Block, lastBlock *types.Block, currentSlot int64, checkExists bool, verify bool) *Result {
	r := &Result{}

	if verify {
		r = v.VerifyBlock(block, lastBlock, currentSlot)
		if !r.Verified() {
			return r
		}
	}

	if checkExists && v.store != nil {
		exists, err := v.store.BlockExists(block.ID)
		if err != nil {
			r.add(err)
			return r
		}
		if exists {
			r.add(newDetailError(ErrID, "block already exists"))
			return r
		}
	}

	if err := v.delegates.ValidateBlockSlot(block); err != nil {
		r.add(err)
		v.delegates.NotifyForkThree(block)
		return r
	}

	for _, tx := range block.Transactions {
		confirmed, err := v.store.IsTransactionConfirmed(tx.ID)
		if err != nil {
			log.Error("ProcessBlock: confirmation lookup failed", "tx", tx.ID, "err", err)
			r.add(err)
			return r
		}
		if confirmed {
			r.add(newDetailError(ErrConfirmedTx, tx.ID.String()))
			v.delegates.NotifyForkTwo(block, tx)
			if v.pool != nil {
				v.pool.Remove(tx)
			}
			return r
		}
	}

	if err := v.apply.Apply(block); err != nil {
		r.add(err)
		return r
	}

	v.OnAcceptedBlock(block.ID)
	return r
}
