package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/ddkcore/ddknode/common/types"
	"github.com/ddkcore/ddknode/mempool"
	"github.com/stretchr/testify/assert"
)

type fakePool struct {
	mu        sync.Mutex
	byId      map[types.Hash]bool
	conflict  map[types.Hash]bool
	pushCalls int
	locked    bool
	pushErr   error
}

func newFakePool() *fakePool {
	return &fakePool{byId: map[types.Hash]bool{}, conflict: map[types.Hash]bool{}}
}

func (p *fakePool) Has(tx *types.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byId[tx.ID]
}

func (p *fakePool) IsPotentialConflict(tx *types.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conflict[tx.ID]
}

func (p *fakePool) Push(tx *types.Transaction, broadcast bool, force bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushCalls++
	if p.pushErr != nil {
		return false, p.pushErr
	}
	if p.locked && !force {
		return false, nil
	}
	p.byId[tx.ID] = true
	return true, nil
}

func (p *fakePool) GetLockStatus() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locked
}

type fakeVerify struct {
	verifyErr   error
	unconfirmed error
}

func (v *fakeVerify) NewVerify(tx *types.Transaction, sender *mempool.Account, checkExists bool) error {
	return v.verifyErr
}
func (v *fakeVerify) NewVerifyUnconfirmed(tx *types.Transaction, sender *mempool.Account) error {
	return v.unconfirmed
}

type fakeAccounts struct{}

func (fakeAccounts) GetOrCreateAccount(publicKey []byte) (*mempool.Account, error) {
	return &mempool.Account{}, nil
}

type fakeSessions struct {
	mu   sync.Mutex
	sent []mempool.VerifyNotification
}

func (s *fakeSessions) Send(addr types.Address, channel string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := payload.(mempool.VerifyNotification); ok {
		s.sent = append(s.sent, n)
	}
}

func newTx(id byte, sender types.Address, timestamp int64) *types.Transaction {
	return types.NewTransaction(types.DataHash([]byte{id}), types.TransactionSend, nil, sender, "DDK-recipient", 1, 1, timestamp, nil, nil)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestQueueAdmitsVerifiedTransaction(t *testing.T) {
	pool := newFakePool()
	q := NewTransactionQueue(pool, &fakeVerify{}, fakeAccounts{}, &fakeSessions{}, 10)

	tx := newTx(1, "DDK1", 100)
	q.Push(tx)

	waitFor(t, func() bool { return pool.Has(tx) })
	// The fake pool stands in for mempool.TransactionPool.Push, which is
	// what actually advances status to UNCONFIRM_APPLIED; the queue's own
	// responsibility ends at VERIFIED.
	assert.Equal(t, types.StatusVerified, tx.Status())
}

func TestQueueDeclinesOnVerifyFailure(t *testing.T) {
	pool := newFakePool()
	sessions := &fakeSessions{}
	q := NewTransactionQueue(pool, &fakeVerify{verifyErr: assert.AnError}, fakeAccounts{}, sessions, 10)

	tx := newTx(1, "DDK1", 100)
	q.Push(tx)

	waitFor(t, func() bool { return tx.Status() == types.StatusDeclined })
	assert.False(t, pool.Has(tx))

	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	assert.Len(t, sessions.sent, 1)
	assert.False(t, sessions.sent[0].Verified)
}

func TestQueueRoutesConflictToConflictedQueue(t *testing.T) {
	pool := newFakePool()
	tx := newTx(1, "DDK1", 100)
	pool.conflict[tx.ID] = true

	q := NewTransactionQueue(pool, &fakeVerify{}, fakeAccounts{}, &fakeSessions{}, 10)
	q.Push(tx)

	waitFor(t, func() bool { return tx.Status() == types.StatusQueuedAsConflicted })
	assert.False(t, pool.Has(tx))
}

func TestQueueSweeperExpiresConflictedEntries(t *testing.T) {
	pool := newFakePool()
	tx := newTx(1, "DDK1", 100)
	pool.conflict[tx.ID] = true

	q := NewTransactionQueue(pool, &fakeVerify{}, fakeAccounts{}, &fakeSessions{}, 1)
	q.Push(tx)
	waitFor(t, func() bool { return tx.Status() == types.StatusQueuedAsConflicted })

	q.sweepExpired(time.Now().Unix() + 100)

	assert.Equal(t, types.StatusDeclined, tx.Status())
	assert.Equal(t, 0, q.Count())
}

func TestQueueLockPreventsAdmission(t *testing.T) {
	pool := newFakePool()
	q := NewTransactionQueue(pool, &fakeVerify{}, fakeAccounts{}, &fakeSessions{}, 10)
	q.Lock()

	tx := newTx(1, "DDK1", 100)
	q.Push(tx)

	time.Sleep(20 * time.Millisecond)
	assert.False(t, pool.Has(tx))
	assert.Equal(t, 1, q.Count())

	q.Unlock()
	q.TriggerProcessing()
	waitFor(t, func() bool { return pool.Has(tx) })
}

func TestQueueDeclinesOnTerminalPoolPushFailure(t *testing.T) {
	pool := newFakePool()
	pool.pushErr = assert.AnError
	sessions := &fakeSessions{}
	q := NewTransactionQueue(pool, &fakeVerify{}, fakeAccounts{}, sessions, 10)

	tx := newTx(1, "DDK1", 100)
	q.Push(tx)

	waitFor(t, func() bool { return tx.Status() == types.StatusDeclined })
	assert.False(t, pool.Has(tx))
	assert.Equal(t, 1, pool.pushCalls, "a terminal pool.Push error must not be retried")
	assert.Equal(t, 0, q.Count())
}

func TestReshuffleMovesConflictedBackToQueue(t *testing.T) {
	pool := newFakePool()
	tx := newTx(1, "DDK1", 100)
	pool.conflict[tx.ID] = true

	q := NewTransactionQueue(pool, &fakeVerify{}, fakeAccounts{}, &fakeSessions{}, 10)
	q.Push(tx)
	waitFor(t, func() bool { return tx.Status() == types.StatusQueuedAsConflicted })

	pool.mu.Lock()
	delete(pool.conflict, tx.ID)
	pool.mu.Unlock()

	q.Reshuffle()
	waitFor(t, func() bool { return pool.Has(tx) })
}
