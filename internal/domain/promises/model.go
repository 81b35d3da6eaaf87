package promises

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

var (
	ErrAlreadyFulfilled = errors.New("promises: already fulfilled")
	ErrInvalidState     = errors.New("promises: not in a fulfillable state")

	// ErrFulfillmentAborted wraps any failure inside the fulfillment
	// transaction; nothing was written, the caller may retry.
	ErrFulfillmentAborted = errors.New("promises: fulfillment aborted")
)

type Promise struct {
	ID            int64
	Number        string // Pxxxx
	MemberID      int64
	Amount        float64
	Category      string
	DueOn         *time.Time
	Status        Status
	FulfilledOn   *time.Time
	ActualAmount  *float64
	Method        *string
	TransactionID *int64
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// checkTransition guards the only legal moves: pending may become
// fulfilled or cancelled, terminal states never move again.
func checkTransition(from Status) error {
	switch from {
	case StatusPending:
		return nil
	case StatusFulfilled:
		return ErrAlreadyFulfilled
	case StatusCancelled:
		return fmt.Errorf("%w: promise is cancelled", ErrInvalidState)
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, from)
	}
}
