package verifier

import "github.com/pkg/errors"

// Sentinel errors the block verification pipeline can produce. Most checks
// wrap one of these with a Detail() string via newDetailError so callers get
// both a stable cause to switch on and a human-readable reason.
var (
	ErrSignature         = errors.New("verify signature failed")
	ErrPreviousBlock     = errors.New("previousBlock is missing or does not match lastBlock")
	ErrReplayedBlockID   = errors.New("block id already present in lastNBlockIds")
	ErrSlotWindowTooOld  = errors.New("block slot is too old")
	ErrSlotWindowFuture  = errors.New("block slot is in the future")
	ErrVersion           = errors.New("block version not accepted at this height")
	ErrID                = errors.New("recomputed block id does not match")
	ErrPayloadLength     = errors.New("payload length exceeds maxPayloadLength")
	ErrTransactionCount  = errors.New("numberOfTransactions does not match transaction count")
	ErrTooManyTxs        = errors.New("transaction count exceeds maxTxsPerBlock")
	ErrDuplicateTx       = errors.New("encountered duplicate transaction")
	ErrPayloadHash       = errors.New("payload hash does not match")
	ErrPayloadSum        = errors.New("accumulated amount/fee does not match declared totals")
	ErrReward            = errors.New("block reward does not match expected reward")
	ErrForkOne           = errors.New("previousBlock does not match lastBlock.id")
	ErrBlockSlot         = errors.New("block slot is not after lastBlock's slot or is after currentSlot")
	ErrForkThreeSlot     = errors.New("block was not produced in its delegate's slot")
	ErrConfirmedTx       = errors.New("transaction already confirmed on chain")
)

// VerifierError pairs a stable sentinel with an optional human-readable
// detail, mirroring the shape the rest of the core uses for its own
// sentinel-error packages.
type VerifierError struct {
	err    error
	detail *string
}

func (e *VerifierError) Error() string {
	if e.detail == nil {
		return e.err.Error()
	}
	return e.err.Error() + ": " + *e.detail
}

// Cause lets callers recover the stable sentinel via errors.Cause.
func (e *VerifierError) Cause() error {
	return e.err
}

func (e *VerifierError) Detail() string {
	if e.detail == nil {
		return ""
	}
	return *e.detail
}

func newError(err error) *VerifierError {
	return &VerifierError{err: err}
}

func newDetailError(err error, detail string) *VerifierError {
	return &VerifierError{err: err, detail: &detail}
}
