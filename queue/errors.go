package queue

import "github.com/pkg/errors"

var (
	// ErrQueueLocked names the locked-queue condition. No Queue method
	// returns it: Push on a locked queue still enqueues the transaction, and
	// processing waits for Unlock and TriggerProcessing.
	ErrQueueLocked = errors.New("queue: locked")
)

// VerifyError is a verify-stage failure with a stable code, so
// AccountSessions notifications and logs can both render it without
// string-matching on the message.
type VerifyError interface {
	error
	Code() string
}

type verifyError struct {
	code string
	msg  string
}

func (e *verifyError) Error() string { return e.msg }
func (e *verifyError) Code() string  { return e.code }

func newVerifyError(code, msg string) VerifyError {
	return &verifyError{code: code, msg: msg}
}

const (
	// VerifyErrSignature covers phase-1 failures: signature, id
	// derivation, schema shape, not-yet-confirmed.
	VerifyErrSignature = "signature"

	// VerifyErrUnconfirmed covers phase-2 failures: balance sufficiency,
	// vote limits, frozen-amount rules.
	VerifyErrUnconfirmed = "unconfirmed"
)
