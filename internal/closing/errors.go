package closing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidState rejects a transition called outside its source state.
	ErrInvalidState = errors.New("operation not valid in current closing state")
	// ErrOpeningCashSeeded enforces the immutable-once-seeded rule: a day's
	// starting cash cannot change after work has begun against it.
	ErrOpeningCashSeeded = errors.New("opening cash already seeded for this date")
	// ErrNothingToSave rejects a draft save with no remaining entry and no
	// counted cash.
	ErrNothingToSave = errors.New("nothing to save yet")
	// ErrNotReady rejects a lock while a product is uncounted or cash has not
	// been counted.
	ErrNotReady = errors.New("closing not ready to lock")
	// ErrHandoffDone rejects a second next-day opening cash write.
	ErrHandoffDone = errors.New("next day opening cash already set")
	// ErrNegativeAmount rejects negative cash inputs before any I/O.
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// PartialLockError reports a lock whose per-product stock writes did not all
// succeed. The lock is unsuccessful: no final record was written and the
// session stays in draft so the operator can retry.
type PartialLockError struct {
	Applied []string
	Failed  []string
	Causes  []error
}

func (e *PartialLockError) Error() string {
	return fmt.Sprintf(
		"lock aborted: stock writes failed for products [%s] (%d applied, %d failed)",
		strings.Join(e.Failed, ", "), len(e.Applied), len(e.Failed),
	)
}

func (e *PartialLockError) Unwrap() []error {
	return e.Causes
}
