package mempool

import (
	"sync"

	"github.com/ddkcore/ddknode/common/types"
	"github.com/hashicorp/golang-lru"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
)

// seenDeclinedCacheSize bounds the "previously declined" LRU, matching the
// teacher's own pool/blacklist.go sizing (10 * 10000 entries).
const seenDeclinedCacheSize = 10 * 10000

// TransactionPool is the mempool: transactions admitted past the Queue's
// verify stage live here, each debited against its sender's unconfirmed
// balance, until a block includes them or they are purged.
//
// byId is the source of truth; bySender and byRecipient are derived
// indexes updated together with it whenever a transaction enters or leaves
// so that they never drift (invariant P1). All three are guarded by the same
// mutex — splitting it per-index would only let callers observe a torn
// state between inserts.
type TransactionPool struct {
	mu          sync.RWMutex
	byId        map[types.Hash]*types.Transaction
	bySender    map[types.Address][]*types.Transaction
	byRecipient map[types.Address][]*types.Transaction
	locked      bool

	logic        TransactionLogic
	accounts     AccountsStore
	bus          Bus
	maxSharedTxs int

	// seenDeclined remembers ids that failed applyUnconfirmed once, so a
	// naive peer retry of the same transaction is rejected without
	// re-running the expensive apply path. Grounded on the teacher's
	// pool/blacklist.go lru.Cache-backed Blacklist.
	seenDeclined *lru.Cache

	log log15.Logger
}

// NewTransactionPool constructs an empty pool. maxSharedTxs is the cap
// GetTransactions clamps its requested limit to.
func NewTransactionPool(logic TransactionLogic, accounts AccountsStore, bus Bus, maxSharedTxs int) *TransactionPool {
	seenDeclined, err := lru.New(seenDeclinedCacheSize)
	if err != nil {
		// Only possible if seenDeclinedCacheSize <= 0, which it never is.
		panic(err)
	}
	return &TransactionPool{
		byId:         make(map[types.Hash]*types.Transaction),
		bySender:     make(map[types.Address][]*types.Transaction),
		byRecipient:  make(map[types.Address][]*types.Transaction),
		logic:        logic,
		accounts:     accounts,
		bus:          bus,
		maxSharedTxs: maxSharedTxs,
		seenDeclined: seenDeclined,
		log:          log15.New("module", "mempool"),
	}
}

// dependentSet returns every pool transaction that either originates from
// or is sent to addr — the set isPotentialConflict reasons about. Results
// are deduplicated by id: a self-send (sender == recipient) would
// otherwise double count.
func (p *TransactionPool) dependentSet(addr types.Address) []*types.Transaction {
	seen := make(map[types.Hash]struct{})
	var out []*types.Transaction
	for _, tx := range p.bySender[addr] {
		if _, ok := seen[tx.ID]; !ok {
			seen[tx.ID] = struct{}{}
			out = append(out, tx)
		}
	}
	for _, tx := range p.byRecipient[addr] {
		if _, ok := seen[tx.ID]; !ok {
			seen[tx.ID] = struct{}{}
			out = append(out, tx)
		}
	}
	return out
}

// IsPotentialConflict exposes the ConflictDetector for callers outside this
// package (the Queue's admission loop).
func (p *TransactionPool) IsPotentialConflict(tx *types.Transaction) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return isPotentialConflict(tx, p)
}

// Push admits tx into the pool. It fails (returns false, nil) rather than
// erroring when the rejection is transient and the caller is meant to
// retry later — already present, locked, or conflicting. A non-nil error
// means retrying is pointless: the pool already declined this id once
// (ErrPreviouslyDeclined), or applyUnconfirmed just failed (ErrApplyFailed).
func (p *TransactionPool) Push(tx *types.Transaction, broadcast bool, force bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.locked && !force {
		return false, nil
	}
	if _, exists := p.byId[tx.ID]; exists {
		return false, nil
	}
	if p.seenDeclined.Contains(tx.ID) {
		return false, ErrPreviouslyDeclined
	}
	if isPotentialConflict(tx, p) {
		return false, nil
	}

	p.insertLocked(tx)

	if err := p.logic.NewApplyUnconfirmed(tx); err != nil {
		p.removeLocked(tx)
		_ = tx.SetStatus(types.StatusDeclined)
		p.seenDeclined.Add(tx.ID, struct{}{})
		return false, errors.Wrap(ErrApplyFailed, err.Error())
	}

	if err := tx.SetStatus(types.StatusPutInPool); err != nil {
		p.log.Error("push: status transition rejected", "id", tx.ID, "err", err)
	}
	if err := tx.SetStatus(types.StatusUnconfirmApplied); err != nil {
		p.log.Error("push: status transition rejected", "id", tx.ID, "err", err)
	}

	if broadcast && p.bus != nil {
		p.bus.Publish(TopicTransactionPutInPool, tx)
	}

	return true, nil
}

func (p *TransactionPool) insertLocked(tx *types.Transaction) {
	p.byId[tx.ID] = tx
	p.bySender[tx.SenderID] = append(p.bySender[tx.SenderID], tx)
	if tx.Type == types.TransactionSend {
		p.byRecipient[tx.RecipientID] = append(p.byRecipient[tx.RecipientID], tx)
	}
}

func (p *TransactionPool) removeLocked(tx *types.Transaction) bool {
	if _, exists := p.byId[tx.ID]; !exists {
		return false
	}
	delete(p.byId, tx.ID)
	p.bySender[tx.SenderID] = removeByID(p.bySender[tx.SenderID], tx.ID)
	if len(p.bySender[tx.SenderID]) == 0 {
		delete(p.bySender, tx.SenderID)
	}
	if tx.Type == types.TransactionSend {
		p.byRecipient[tx.RecipientID] = removeByID(p.byRecipient[tx.RecipientID], tx.ID)
		if len(p.byRecipient[tx.RecipientID]) == 0 {
			delete(p.byRecipient, tx.RecipientID)
		}
	}
	return true
}

func removeByID(txs []*types.Transaction, id types.Hash) []*types.Transaction {
	out := txs[:0]
	for _, tx := range txs {
		if tx.ID != id {
			out = append(out, tx)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Remove evicts tx from the pool. undoUnconfirmed failures are logged and
// swallowed: removal proceeds regardless, because the pool's index state
// must stay authoritative even when the ledger-side reversal fails.
func (p *TransactionPool) Remove(tx *types.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.logic.NewUndoUnconfirmed(tx); err != nil {
		p.log.Error("remove: undoUnconfirmed failed, removing anyway", "id", tx.ID, "err", err)
	}
	return p.removeLocked(tx)
}

// Pop removes tx and returns it, or nil if it was not present.
func (p *TransactionPool) Pop(tx *types.Transaction) *types.Transaction {
	if !p.Remove(tx) {
		return nil
	}
	return tx
}

func (p *TransactionPool) Get(id types.Hash) (*types.Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tx, ok := p.byId[id]
	return tx, ok
}

func (p *TransactionPool) Has(tx *types.Transaction) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byId[tx.ID]
	return ok
}

func (p *TransactionPool) GetSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byId)
}

func (p *TransactionPool) GetTransactionsBySenderId(id types.Address) []*types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*types.Transaction{}, p.bySender[id]...)
}

func (p *TransactionPool) GetTransactionsByRecipientId(id types.Address) []*types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*types.Transaction{}, p.byRecipient[id]...)
}

// RemoveTransactionBySenderId purges every pool transaction sent by id,
// snapshotting the bucket before removing from it so the iteration never
// observes the slice mutating under it.
func (p *TransactionPool) RemoveTransactionBySenderId(id types.Address) []*types.Transaction {
	p.mu.Lock()
	snapshot := append([]*types.Transaction{}, p.bySender[id]...)
	p.mu.Unlock()

	for _, tx := range snapshot {
		p.Remove(tx)
	}
	return snapshot
}

// RemoveTransactionByRecipientId purges every pool transaction sent to id.
func (p *TransactionPool) RemoveTransactionByRecipientId(id types.Address) []*types.Transaction {
	p.mu.Lock()
	snapshot := append([]*types.Transaction{}, p.byRecipient[id]...)
	p.mu.Unlock()

	for _, tx := range snapshot {
		p.Remove(tx)
	}
	return snapshot
}

// PopSortedUnconfirmedTransactions snapshots the pool, orders it by the
// canonical comparator, removes and returns the first limit entries. The
// sort-then-remove happens without releasing the lock between the two
// steps, so block production never observes a torn snapshot.
func (p *TransactionPool) PopSortedUnconfirmedTransactions(limit int) []*types.Transaction {
	p.mu.Lock()
	all := make([]*types.Transaction, 0, len(p.byId))
	for _, tx := range p.byId {
		all = append(all, tx)
	}
	types.SortTransactions(all)
	if limit < len(all) {
		all = all[:limit]
	}
	for _, tx := range all {
		p.removeLocked(tx)
	}
	p.mu.Unlock()

	// Unlike Remove, popping for block production does not undo the
	// sender's unconfirmed debit — the transaction is expected to land in
	// a block, not disappear.
	return all
}

// GetTransactionsParams configures GetTransactions.
type GetTransactionsParams struct {
	Limit           int
	SenderPublicKey []byte
}

// GetTransactions returns a view of the pool for RPC/API consumption. When
// SenderPublicKey is set, only that account's dependent set is projected,
// sorted ascending and then reversed; otherwise the whole pool is sorted
// ascending. Limit is always clamped to maxSharedTxs.
func (p *TransactionPool) GetTransactions(params GetTransactionsParams) ([]*types.Transaction, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	limit := params.Limit
	if limit <= 0 || limit > p.maxSharedTxs {
		limit = p.maxSharedTxs
	}

	var txs []*types.Transaction
	if len(params.SenderPublicKey) > 0 {
		sender := types.PubkeyToAddress(params.SenderPublicKey)
		txs = append(txs, p.dependentSet(sender)...)
		types.SortTransactions(txs)
		reverse(txs)
	} else {
		txs = make([]*types.Transaction, 0, len(p.byId))
		for _, tx := range p.byId {
			txs = append(txs, tx)
		}
		types.SortTransactions(txs)
	}

	count := len(txs)
	if limit < len(txs) {
		txs = txs[:limit]
	}
	return txs, count
}

func reverse(txs []*types.Transaction) {
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
}

func (p *TransactionPool) Lock() {
	p.mu.Lock()
	p.locked = true
	p.mu.Unlock()
}

func (p *TransactionPool) Unlock() {
	p.mu.Lock()
	p.locked = false
	p.mu.Unlock()
}

func (p *TransactionPool) GetLockStatus() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.locked
}
