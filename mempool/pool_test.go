package mempool

import (
	"testing"

	"github.com/ddkcore/ddknode/common/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPushAdmitsAndAppliesUnconfirmed(t *testing.T) {
	pool, logic, bus := newTestPool()
	t1 := tx(1, types.TransactionSend, "DDK1", "DDK2", 10, 100)

	ok, err := pool.Push(t1, true, false)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, pool.Has(t1))
	assert.Equal(t, types.StatusUnconfirmApplied, t1.Status())
	assert.Equal(t, 1, logic.applyCalls)
	assert.Equal(t, []string{TopicTransactionPutInPool}, bus.published)
}

func TestPushRejectsDuplicate(t *testing.T) {
	pool, _, _ := newTestPool()
	t1 := tx(1, types.TransactionSend, "DDK1", "DDK2", 10, 100)
	_, _ = pool.Push(t1, false, false)

	ok, err := pool.Push(t1, false, false)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPushRejectsWhenLockedWithoutForce(t *testing.T) {
	pool, _, _ := newTestPool()
	pool.Lock()

	t1 := tx(1, types.TransactionSend, "DDK1", "DDK2", 10, 100)
	ok, err := pool.Push(t1, false, false)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, pool.Has(t1))
}

func TestPushForceBypassesLock(t *testing.T) {
	pool, _, _ := newTestPool()
	pool.Lock()

	t1 := tx(1, types.TransactionSend, "DDK1", "DDK2", 10, 100)
	ok, err := pool.Push(t1, false, true)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestPushRollsBackOnApplyFailure(t *testing.T) {
	pool, logic, _ := newTestPool()
	logic.applyErr = assert.AnError

	t1 := tx(1, types.TransactionSend, "DDK1", "DDK2", 10, 100)
	ok, err := pool.Push(t1, false, false)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, pool.Has(t1))
	assert.Equal(t, types.StatusDeclined, t1.Status())
	assert.Equal(t, 0, pool.GetSize())
}

func TestPushRejectsPreviouslyDeclinedTransaction(t *testing.T) {
	pool, logic, _ := newTestPool()
	logic.applyErr = assert.AnError

	t1 := tx(1, types.TransactionSend, "DDK1", "DDK2", 10, 100)
	ok, err := pool.Push(t1, false, false)
	assert.Error(t, err)
	assert.False(t, ok)

	logic.applyErr = nil
	ok, err = pool.Push(t1, false, false)
	assert.Equal(t, ErrPreviouslyDeclined, errors.Cause(err))
	assert.False(t, ok)
	assert.Equal(t, 1, logic.applyCalls, "second push must not retry applyUnconfirmed")
}

func TestPushThenRemoveRestoresEmptyPool(t *testing.T) {
	pool, logic, _ := newTestPool()
	t1 := tx(1, types.TransactionSend, "DDK1", "DDK2", 10, 100)
	_, _ = pool.Push(t1, false, false)

	assert.True(t, pool.Remove(t1))
	assert.Equal(t, 0, pool.GetSize())
	assert.Empty(t, pool.GetTransactionsBySenderId("DDK1"))
	assert.Empty(t, pool.GetTransactionsByRecipientId("DDK2"))
	assert.Equal(t, 1, logic.undoCalls)
}

func TestRemoveSwallowsUndoFailure(t *testing.T) {
	pool, logic, _ := newTestPool()
	t1 := tx(1, types.TransactionSend, "DDK1", "DDK2", 10, 100)
	_, _ = pool.Push(t1, false, false)
	logic.undoErr = assert.AnError

	assert.True(t, pool.Remove(t1))
	assert.False(t, pool.Has(t1))
}

func TestByRecipientOnlyIndexesSend(t *testing.T) {
	pool, _, _ := newTestPool()
	vote := tx(1, types.TransactionVote, "DDK1", "", 0, 100)
	_, _ = pool.Push(vote, false, false)

	assert.Empty(t, pool.GetTransactionsByRecipientId(""))
	assert.Len(t, pool.GetTransactionsBySenderId("DDK1"), 1)
}

func TestPopSortedUnconfirmedTransactionsRemovesAndOrders(t *testing.T) {
	pool, _, _ := newTestPool()
	t1 := tx(1, types.TransactionSend, "DDK1", "DDKA", 10, 300)
	t2 := tx(2, types.TransactionSend, "DDK2", "DDKB", 10, 100)
	t3 := tx(3, types.TransactionSend, "DDK3", "DDKC", 10, 200)
	_, _ = pool.Push(t1, false, false)
	_, _ = pool.Push(t2, false, false)
	_, _ = pool.Push(t3, false, false)

	popped := pool.PopSortedUnconfirmedTransactions(2)

	assert.Len(t, popped, 2)
	assert.Equal(t, t2.ID, popped[0].ID)
	assert.Equal(t, t3.ID, popped[1].ID)
	assert.Equal(t, 1, pool.GetSize())
	assert.False(t, pool.Has(t2))
	assert.False(t, pool.Has(t3))
	assert.True(t, pool.Has(t1))
}

func TestRemoveTransactionBySenderIdPurgesEverything(t *testing.T) {
	pool, _, _ := newTestPool()
	t1 := tx(1, types.TransactionSend, "DDK1", "DDKA", 10, 100)
	t2 := tx(2, types.TransactionSend, "DDK1", "DDKB", 10, 200)
	_, _ = pool.Push(t1, false, false)
	_, _ = pool.Push(t2, false, false)

	removed := pool.RemoveTransactionBySenderId("DDK1")

	assert.Len(t, removed, 2)
	assert.Equal(t, 0, pool.GetSize())
	assert.Empty(t, pool.GetTransactionsByRecipientId("DDKA"))
	assert.Empty(t, pool.GetTransactionsByRecipientId("DDKB"))
}

func TestGetTransactionsClampsToMaxSharedTxs(t *testing.T) {
	logic := &fakeLogic{}
	pool := NewTransactionPool(logic, nil, nil, 2)
	t1 := tx(1, types.TransactionSend, "DDK1", "DDKA", 10, 100)
	t2 := tx(2, types.TransactionSend, "DDK2", "DDKB", 10, 200)
	t3 := tx(3, types.TransactionSend, "DDK3", "DDKC", 10, 300)
	_, _ = pool.Push(t1, false, false)
	_, _ = pool.Push(t2, false, false)
	_, _ = pool.Push(t3, false, false)

	txs, count := pool.GetTransactions(GetTransactionsParams{Limit: 100})
	assert.Equal(t, 3, count)
	assert.Len(t, txs, 2)
}

func TestGetLockStatusReflectsLockUnlock(t *testing.T) {
	pool, _, _ := newTestPool()
	assert.False(t, pool.GetLockStatus())
	pool.Lock()
	assert.True(t, pool.GetLockStatus())
	pool.Unlock()
	assert.False(t, pool.GetLockStatus())
}
