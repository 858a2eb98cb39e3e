package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order mutations.
var (
	// ErrStaleItem is returned when a mutation references a line item id
	// that is no longer part of the current order. The caller holds a stale
	// copy and should refresh from the observable items.
	ErrStaleItem = errors.New("line item no longer present in current order")
)

// ValidationError reports a confirm precondition failure. The in-progress
// order is left untouched and remains editable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order validation: %s", e.Reason)
}
