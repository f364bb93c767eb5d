package journal

import "errors"

// Common errors returned by journal operations.
var (
	// ErrClosed indicates an operation was attempted on a closed journal.
	ErrClosed = errors.New("journal: closed")

	// ErrNoReadBehind indicates FillReadBehind or StopReadBehind was
	// called while the cursor is Inactive.
	ErrNoReadBehind = errors.New("journal: read-behind not active")

	// ErrReadBehindActive indicates StartReadBehind was called while a
	// cursor is already Active.
	ErrReadBehindActive = errors.New("journal: read-behind already active")
)
