package contributions

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindCash   Kind = "cash"    // money, optionally projected to a transaction
	KindInKind Kind = "in_kind" // consumable goods, recorded only
	KindItem   Kind = "item"    // durable goods, projected to inventory
)

func (k Kind) valid() bool {
	return k == KindCash || k == KindInKind || k == KindItem
}

// Contribution is immutable once written, except the verification
// fields and at most one linkage set by a successful projection.
type Contribution struct {
	ID              int64
	MemberID        int64
	Kind            Kind
	Category        string
	Description     string
	Quantity        float64
	Value           float64
	GivenOn         time.Time
	TransactionID   *int64
	InventoryItemID *int64
	VerifiedBy      *int64
	VerifiedAt      *time.Time
	CreatedAt       time.Time
}

// Projection reports the secondary write. A failed projection never
// invalidates the contribution itself; callers must inspect it instead
// of expecting an error from Record.
type Projection struct {
	OK  bool
	Err error
}

type Result struct {
	Contribution *Contribution
	Projection   Projection
}

type RecordInput struct {
	MemberID    int64
	Kind        Kind
	Category    string
	Description string
	Quantity    float64
	Value       float64
	GivenOn     time.Time

	// WithTransaction asks for an income transaction projection for
	// cash contributions. Ignored for the other kinds.
	WithTransaction bool
	Method          string
}

func (in RecordInput) validate() error {
	if !in.Kind.valid() {
		return fmt.Errorf("contributions: unknown kind %q", in.Kind)
	}
	if in.Value < 0 {
		return fmt.Errorf("contributions: value must be >= 0")
	}
	if in.Kind == KindItem && in.Quantity <= 0 {
		return fmt.Errorf("contributions: item contributions need quantity > 0")
	}
	return nil
}
