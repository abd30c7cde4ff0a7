package queue

import (
	"sync"
	"time"

	"github.com/ddkcore/ddknode/common"
	"github.com/ddkcore/ddknode/common/types"
	"github.com/ddkcore/ddknode/mempool"
	"github.com/inconshreveable/log15"
)

var log = log15.New("module", "queue")

// sweepInterval computes the conflicted-queue expiry sweeper's tick period
// from the configured TRANSACTION_QUEUE_EXPIRE, floored at one second so a
// very short expiry does not turn the sweeper into a busy loop.
func sweepInterval(transactionQueueExpire int64) time.Duration {
	d := time.Duration(transactionQueueExpire) * time.Second / 4
	if d < time.Second {
		return time.Second
	}
	return d
}

type conflictedEntry struct {
	tx     *types.Transaction
	expire int64
}

// TransactionQueue is the admission stage between submission and the Pool.
// A single process() drain is ever in flight, kicked on the queue's
// empty-to-nonempty transition and re-entered until the queue is drained
// or locked, mirroring the source's tail-recursive process() cycle with a
// goroutine loop instead of recursion.
type TransactionQueue struct {
	mu              sync.Mutex
	queue           []*types.Transaction
	conflictedQueue []conflictedEntry
	locked          bool
	processing      bool

	pool        Pool
	verifyLogic VerifyLogic
	accounts    Accounts
	sessions    Sessions

	transactionQueueExpire int64

	status common.LifecycleStatus
	stopSweep chan struct{}
}

// NewTransactionQueue constructs a Queue. transactionQueueExpire is the
// number of seconds a conflicted-queue entry may live before the sweeper
// declines it.
func NewTransactionQueue(pool Pool, verifyLogic VerifyLogic, accounts Accounts, sessions Sessions, transactionQueueExpire int64) *TransactionQueue {
	return &TransactionQueue{
		pool:                   pool,
		verifyLogic:            verifyLogic,
		accounts:               accounts,
		sessions:               sessions,
		transactionQueueExpire: transactionQueueExpire,
	}
}

// Init is a lifecycle no-op kept symmetric with the rest of the core's
// long-lived components.
func (q *TransactionQueue) Init() {
	q.status.PreInit()
	q.status.PostInit()
}

// Start launches the conflicted-queue expiry sweeper, running Init first if
// it has not run yet. The admission loop itself needs no goroutine of its
// own: it only runs while Push has work to do.
func (q *TransactionQueue) Start() {
	q.Init()
	if !q.status.PreStart() {
		return
	}
	q.stopSweep = make(chan struct{})
	common.Go(func() { q.runSweeper(q.stopSweep) })
	q.status.PostStart()
}

func (q *TransactionQueue) Stop() {
	if !q.status.PreStop() {
		return
	}
	close(q.stopSweep)
	q.status.PostStop()
}

func (q *TransactionQueue) GetStatus() int32 {
	return q.status.GetStatus()
}

func (q *TransactionQueue) runSweeper(stop chan struct{}) {
	ticker := time.NewTicker(sweepInterval(q.transactionQueueExpire))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			q.sweepExpired(time.Now().Unix())
		}
	}
}

// sweepExpired declines every conflicted-queue entry whose expire has
// passed. The Queue's source never reads the expire field it writes; this
// sweep is the resolution of that open question — expiry is enforced, not
// merely advisory.
func (q *TransactionQueue) sweepExpired(now int64) {
	q.mu.Lock()
	var expired []*types.Transaction
	live := q.conflictedQueue[:0]
	for _, entry := range q.conflictedQueue {
		if entry.expire <= now {
			expired = append(expired, entry.tx)
		} else {
			live = append(live, entry)
		}
	}
	q.conflictedQueue = live
	q.mu.Unlock()

	for _, tx := range expired {
		if err := tx.SetStatus(types.StatusDeclined); err != nil {
			log.Error("sweep: status transition rejected", "id", tx.ID, "err", err)
		}
		q.notify(tx, false, newVerifyError("expired", "conflicted queue entry expired"))
	}
}

// Push enqueues tx for admission. If the queue was empty, a process drain
// is kicked; otherwise the queue is re-sorted so the next drain observes
// canonical order.
func (q *TransactionQueue) Push(tx *types.Transaction) {
	q.mu.Lock()
	wasEmpty := len(q.queue) == 0
	q.queue = append(q.queue, tx)
	if !wasEmpty {
		types.SortTransactions(q.queue)
	}
	q.mu.Unlock()

	if err := tx.SetStatus(types.StatusQueued); err != nil {
		log.Error("push: status transition rejected", "id", tx.ID, "err", err)
	}

	if wasEmpty {
		q.kickProcess()
	}
}

func (q *TransactionQueue) pushInConflictedQueue(tx *types.Transaction) {
	q.mu.Lock()
	expire := time.Now().Unix() + q.transactionQueueExpire
	q.conflictedQueue = append(q.conflictedQueue, conflictedEntry{tx: tx, expire: expire})
	q.mu.Unlock()

	if err := tx.SetStatus(types.StatusQueuedAsConflicted); err != nil {
		log.Error("pushInConflictedQueue: status transition rejected", "id", tx.ID, "err", err)
	}
}

// Reshuffle drains conflictedQueue back onto queue. Order is LIFO, which
// the source also does; it is not semantically significant because Push
// immediately re-imposes the canonical sort.
func (q *TransactionQueue) Reshuffle() {
	q.mu.Lock()
	entries := q.conflictedQueue
	q.conflictedQueue = nil
	q.mu.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		q.Push(entries[i].tx)
	}
}

func (q *TransactionQueue) kickProcess() {
	q.mu.Lock()
	if q.processing || q.locked {
		q.mu.Unlock()
		return
	}
	q.processing = true
	q.mu.Unlock()
	common.Go(q.process)
}

// process drains the queue one transaction at a time until it is empty or
// the queue is locked, then yields the single-flight claim so a future
// Push or TriggerProcessing can resume it.
func (q *TransactionQueue) process() {
	for {
		q.mu.Lock()
		if len(q.queue) == 0 || q.locked {
			q.processing = false
			q.mu.Unlock()
			return
		}
		tx := q.queue[0]
		q.queue = q.queue[1:]
		q.mu.Unlock()

		q.processOne(tx)
	}
}

func (q *TransactionQueue) processOne(tx *types.Transaction) {
	if q.pool.Has(tx) {
		return
	}
	if q.pool.IsPotentialConflict(tx) {
		q.pushInConflictedQueue(tx)
		return
	}

	sender, err := q.accounts.GetOrCreateAccount(tx.SenderPublicKey)
	if err != nil {
		q.decline(tx, newVerifyError(VerifyErrSignature, err.Error()))
		return
	}

	if errs := q.verify(tx, sender); len(errs) > 0 {
		q.decline(tx, errs[0])
		return
	}
	q.notify(tx, true, nil)

	if err := tx.SetStatus(types.StatusVerified); err != nil {
		log.Error("process: status transition rejected", "id", tx.ID, "err", err)
	}

	if q.pool.GetLockStatus() {
		q.Push(tx)
		return
	}

	ok, err := q.pool.Push(tx, true, false)
	if ok {
		return
	}
	if err != nil {
		// applyUnconfirmed failed, or the pool has already declined this
		// exact id once: retrying only burns cycles on a result that
		// cannot change, so this is terminal rather than requeued.
		log.Error("process: pool push failed", "id", tx.ID, "err", err)
		q.decline(tx, newVerifyError(VerifyErrUnconfirmed, err.Error()))
		return
	}
	// err == nil && !ok: raced conflict or a pool lock taken after the
	// IsPotentialConflict check above. Both clear on their own, so the
	// transaction goes back on the queue for the next drain to retry.
	q.Push(tx)
}

// verify runs the two-phase check against the crypto collaborator. Either
// phase failing short-circuits the other: there is no reason to check
// balance sufficiency against a transaction whose signature does not even
// verify.
func (q *TransactionQueue) verify(tx *types.Transaction, sender *mempool.Account) []VerifyError {
	if err := q.verifyLogic.NewVerify(tx, sender, true); err != nil {
		return []VerifyError{newVerifyError(VerifyErrSignature, err.Error())}
	}
	if err := q.verifyLogic.NewVerifyUnconfirmed(tx, sender); err != nil {
		return []VerifyError{newVerifyError(VerifyErrUnconfirmed, err.Error())}
	}
	return nil
}

func (q *TransactionQueue) decline(tx *types.Transaction, cause VerifyError) {
	if err := tx.SetStatus(types.StatusDeclined); err != nil {
		log.Error("decline: status transition rejected", "id", tx.ID, "err", err)
	}
	q.notify(tx, false, cause)
}

func (q *TransactionQueue) notify(tx *types.Transaction, verified bool, cause VerifyError) {
	if q.sessions == nil {
		return
	}
	n := mempool.VerifyNotification{TransactionID: tx.ID, Verified: verified}
	if cause != nil {
		n.Error = cause.Code() + ": " + cause.Error()
	}
	q.sessions.Send(tx.SenderID, mempool.ChannelPoolVerify, n)
}

// Lock halts admission without dropping queued work.
func (q *TransactionQueue) Lock() {
	q.mu.Lock()
	q.locked = true
	q.mu.Unlock()
}

// Unlock lifts a prior Lock. It does not itself resume processing —
// callers resume it with TriggerProcessing, matching the source's explicit
// triggerTransactionQueue() call.
func (q *TransactionQueue) Unlock() {
	q.mu.Lock()
	q.locked = false
	q.mu.Unlock()
}

func (q *TransactionQueue) GetLockStatus() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.locked
}

// TriggerProcessing kicks a process drain if the queue is unlocked and has
// work. Safe to call unconditionally after Unlock.
func (q *TransactionQueue) TriggerProcessing() {
	q.kickProcess()
}

// Count reports the combined depth of queue and conflictedQueue.
func (q *TransactionQueue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue) + len(q.conflictedQueue)
}
