package types

import (
	"encoding/json"
	"fmt"
)

// TransactionType tags the kind of effect a transaction has on the ledger.
// The ConflictDetector treats several of these specially (§4.2 of
// SPEC_FULL.md); the numeric order below is also transactionSortFunc's
// primary sort key, so it is consensus-visible — do not reorder.
type TransactionType int

const (
	TransactionSend TransactionType = iota
	TransactionSignature
	TransactionVote
	TransactionReferral
	TransactionStake
	TransactionSendStake
)

func (t TransactionType) String() string {
	switch t {
	case TransactionSend:
		return "SEND"
	case TransactionSignature:
		return "SIGNATURE"
	case TransactionVote:
		return "VOTE"
	case TransactionReferral:
		return "REFERRAL"
	case TransactionStake:
		return "STAKE"
	case TransactionSendStake:
		return "SENDSTAKE"
	default:
		return fmt.Sprintf("TransactionType(%d)", int(t))
	}
}

// TransactionStatus is the lifecycle tag described in spec.md §3:
// CREATED -> QUEUED -> {QUEUED_AS_CONFLICTED | VERIFIED | DECLINED};
// VERIFIED -> PUT_IN_POOL -> UNCONFIRM_APPLIED -> (on block) CONFIRMED,
// or -> DECLINED on apply failure.
type TransactionStatus int

const (
	StatusCreated TransactionStatus = iota
	StatusQueued
	StatusQueuedAsConflicted
	StatusVerified
	StatusDeclined
	StatusPutInPool
	StatusUnconfirmApplied
	StatusConfirmed
)

func (s TransactionStatus) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusQueued:
		return "QUEUED"
	case StatusQueuedAsConflicted:
		return "QUEUED_AS_CONFLICTED"
	case StatusVerified:
		return "VERIFIED"
	case StatusDeclined:
		return "DECLINED"
	case StatusPutInPool:
		return "PUT_IN_POOL"
	case StatusUnconfirmApplied:
		return "UNCONFIRM_APPLIED"
	case StatusConfirmed:
		return "CONFIRMED"
	default:
		return fmt.Sprintf("TransactionStatus(%d)", int(s))
	}
}

// validTransitions enumerates every legal status jump. SetStatus refuses
// anything not listed here instead of silently accepting it, the same
// discipline go-vite's producerLifecycle enforces with paired
// PreStart/PostStart CompareAndSwap calls instead of direct assignment.
var validTransitions = map[TransactionStatus][]TransactionStatus{
	StatusCreated:            {StatusQueued},
	StatusQueued:             {StatusQueuedAsConflicted, StatusVerified, StatusDeclined},
	StatusQueuedAsConflicted: {StatusQueued, StatusDeclined},
	StatusVerified:           {StatusPutInPool, StatusDeclined},
	StatusPutInPool:          {StatusUnconfirmApplied, StatusDeclined},
	StatusUnconfirmApplied:   {StatusConfirmed, StatusDeclined},
	StatusConfirmed:          {},
	StatusDeclined:           {},
}

// Transaction is the immutable tuple described in spec.md §3. Id and
// SenderID are derived fields: the TransactionLogic collaborator computes
// them once (SHA-256 over the canonical byte layout, and over the sender's
// public key respectively) and the core never recomputes them except when
// the Verifier re-derives a block's id to catch tampering.
type Transaction struct {
	ID              Hash
	Type            TransactionType
	SenderPublicKey []byte
	SenderID        Address
	RecipientID     Address
	Amount          uint64
	Fee             uint64
	Timestamp       int64 // unix seconds
	Signature       []byte
	Asset           json.RawMessage

	status TransactionStatus
}

// NewTransaction constructs a Transaction in its initial CREATED status.
// Id/SenderID are expected to already be populated by the caller (normally
// the TransactionLogic collaborator); NewTransaction does not derive them.
func NewTransaction(id Hash, typ TransactionType, senderPublicKey []byte, senderID, recipientID Address, amount, fee uint64, timestamp int64, signature []byte, asset json.RawMessage) *Transaction {
	return &Transaction{
		ID:              id,
		Type:            typ,
		SenderPublicKey: senderPublicKey,
		SenderID:        senderID,
		RecipientID:     recipientID,
		Amount:          amount,
		Fee:             fee,
		Timestamp:       timestamp,
		Signature:       signature,
		Asset:           asset,
		status:          StatusCreated,
	}
}

func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// SetStatus applies a lifecycle transition, refusing any jump not listed in
// validTransitions.
func (t *Transaction) SetStatus(next TransactionStatus) error {
	for _, allowed := range validTransitions[t.status] {
		if allowed == next {
			t.status = next
			return nil
		}
	}
	return fmt.Errorf("transaction %s: illegal status transition %s -> %s", t.ID, t.status, next)
}

// TotalDebit is the amount the sender's unconfirmed balance is reduced by
// on admission: the transferred amount plus the fee. Non-SEND types still
// pay a fee but move no funds to a recipient, so Amount is conventionally
// zero for them; TotalDebit is correct either way.
func (t *Transaction) TotalDebit() uint64 {
	return t.Amount + t.Fee
}
