package mempool

import (
	"github.com/ddkcore/ddknode/common/types"
)

// fakeLogic is a minimal TransactionLogic double for the pool's tests. It
// tracks how many times each hook fires and can be told to fail on demand.
type fakeLogic struct {
	applyErr  error
	undoErr   error
	applyCalls int
	undoCalls  int
}

func (f *fakeLogic) GetID(tx *types.Transaction) (types.Hash, error) { return tx.ID, nil }
func (f *fakeLogic) GetBytes(tx *types.Transaction) ([]byte, error)  { return nil, nil }
func (f *fakeLogic) NewVerify(tx *types.Transaction, sender *Account, checkExists bool) error {
	return nil
}
func (f *fakeLogic) NewVerifyUnconfirmed(tx *types.Transaction, sender *Account) error {
	return nil
}
func (f *fakeLogic) NewApplyUnconfirmed(tx *types.Transaction) error {
	f.applyCalls++
	return f.applyErr
}
func (f *fakeLogic) NewUndoUnconfirmed(tx *types.Transaction) error {
	f.undoCalls++
	return f.undoErr
}
func (f *fakeLogic) Create(req CreateTransactionRequest) (*types.Transaction, error) {
	return nil, nil
}

type fakeBus struct {
	published []string
}

func (b *fakeBus) Publish(topic string, payload interface{}) {
	b.published = append(b.published, topic)
}

func newTestPool() (*TransactionPool, *fakeLogic, *fakeBus) {
	logic := &fakeLogic{}
	bus := &fakeBus{}
	pool := NewTransactionPool(logic, nil, bus, 1000)
	return pool, logic, bus
}

// tx builds a transaction already advanced to VERIFIED, the status Pool.Push
// expects its caller (the Queue) to have reached before admission.
func tx(id byte, typ types.TransactionType, sender, recipient types.Address, amount uint64, timestamp int64) *types.Transaction {
	t := types.NewTransaction(types.DataHash([]byte{id}), typ, nil, sender, recipient, amount, 1, timestamp, nil, nil)
	_ = t.SetStatus(types.StatusQueued)
	_ = t.SetStatus(types.StatusVerified)
	return t
}
