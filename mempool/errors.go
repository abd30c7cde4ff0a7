package mempool

import "github.com/pkg/errors"

// Sentinel errors returned by Pool operations. Callers compare with
// errors.Cause against these rather than matching on string content.
//
// ErrNotInPool is not returned by any Pool method: Remove and Pop report an
// absent transaction through their false/nil result.
//
// Push's locked/already-present/conflict rejections are not sentinel
// errors: they return (false, nil), since a caller (the Queue) is meant to
// react to the boolean and retry later, not branch on an error value.
var (
	ErrApplyFailed        = errors.New("mempool: applyUnconfirmed failed")
	ErrNotInPool          = errors.New("mempool: transaction not in pool")
	ErrPreviouslyDeclined = errors.New("mempool: transaction previously declined, not re-attempting apply")
)
