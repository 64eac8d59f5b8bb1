package anchor

import "errors"

var (
	ErrBadCommitment = errors.New("anchor: bad commitment")
	ErrUnknownTx     = errors.New("anchor: unknown transaction")
	ErrUnavailable   = errors.New("anchor: target unavailable")
)
