package inventory

import (
	"fmt"
	"time"
)

type Item struct {
	ID                int64
	Number            string // INVxxxx
	Name              string
	Category          string
	Quantity          float64
	BaseUnitPrice     float64
	LowStockThreshold float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type DonationEvent struct {
	ID             int64
	ItemID         int64
	MemberID       *int64
	Quantity       float64
	EstimatedValue float64
	ContributionID *int64
	Note           string
	CreatedAt      time.Time
}

type ConsumptionEvent struct {
	ID            int64
	ItemID        int64
	Quantity      float64
	ComputedValue float64
	Purpose       string
	ConsumedBy    int64
	TransactionID *int64
	CreatedAt     time.Time
}

// Valuation is recomputed from the event rows on every read; nothing
// here is a stored total.
type Valuation struct {
	Number             string
	Quantity           float64
	TotalDonatedValue  float64
	TotalConsumedValue float64
	CurrentValue       float64
}

// InsufficientQuantityError rejects a consumption that exceeds the
// current stock. No partial write happens.
type InsufficientQuantityError struct {
	Number    string
	Requested float64
	Available float64
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("inventory: item %s has %.2f available, requested %.2f",
		e.Number, e.Available, e.Requested)
}

// avgUnitCost is the running weighted average over everything ever
// donated, falling back to the item's baseline price before the first
// valued donation. Cumulative on purpose: later donations shift the
// average for later consumptions, never for already recorded ones.
func avgUnitCost(donatedQty, donatedValue, basePrice float64) float64 {
	if donatedQty > 0 && donatedValue > 0 {
		return donatedValue / donatedQty
	}
	return basePrice
}

func consumptionValue(qty, donatedQty, donatedValue, basePrice float64) float64 {
	return qty * avgUnitCost(donatedQty, donatedValue, basePrice)
}
