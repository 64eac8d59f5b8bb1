package chain

import "errors"

var (
	ErrBadGenesis       = errors.New("chain: genesis root must be 64 lowercase hex characters")
	ErrCorridorMismatch = errors.New("chain: receipt belongs to a different corridor")
	ErrSequenceMismatch = errors.New("chain: receipt sequence does not equal chain height")
	ErrPrevRootMismatch = errors.New("chain: receipt prev-root does not equal final-state root")
	ErrSealMismatch     = errors.New("chain: receipt next-root does not match its sealed content")
	ErrZeroTimestamp    = errors.New("chain: receipt timestamp is not set")
	ErrUnknownCorridor  = errors.New("chain: unknown corridor")
	ErrCorridorExists   = errors.New("chain: corridor already established")
)
