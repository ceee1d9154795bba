package domain

import "errors"

// Error taxonomy for the core. Callers match with errors.Is; adapters wrap
// these sentinels with path and operation context.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAFile          = errors.New("not a file")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrTimeout           = errors.New("timed out")
	ErrValidationBlocked = errors.New("blocked by validation")
	ErrTransactionFailed = errors.New("transaction failed")
)
