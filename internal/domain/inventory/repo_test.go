package inventory

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avdeyev/parish-ledger/internal/sequence"
)

func testRepo(t *testing.T) (*Repo, context.Context) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewRepo(pool, sequence.NewRepo(pool)), ctx
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDonateConsumeValuation(t *testing.T) {
	r, ctx := testRepo(t)

	item, _, err := r.RecordDonation(ctx, DonationInput{
		NewItem:        &NewItemSpec{Name: "folding chairs", Category: "furniture", BaseUnitPrice: 1},
		Quantity:       10,
		EstimatedValue: 20,
	})
	if err != nil {
		t.Fatalf("first donation: %v", err)
	}
	if _, _, err := r.RecordDonation(ctx, DonationInput{
		ItemNumber: item.Number, Quantity: 10, EstimatedValue: 40,
	}); err != nil {
		t.Fatalf("second donation: %v", err)
	}

	_, ev, err := r.RecordConsumption(ctx, ConsumptionInput{
		ItemNumber: item.Number, Quantity: 5, Purpose: "sunday service", ConsumedBy: 1,
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !approx(ev.ComputedValue, 15) {
		t.Errorf("computed value = %v, want 15", ev.ComputedValue)
	}

	v, err := r.Valuation(ctx, item.Number)
	if err != nil {
		t.Fatalf("valuation: %v", err)
	}
	if !approx(v.Quantity, 15) || !approx(v.TotalDonatedValue, 60) ||
		!approx(v.TotalConsumedValue, 15) || !approx(v.CurrentValue, 45) {
		t.Errorf("valuation = %+v, want qty 15, donated 60, consumed 15, current 45", v)
	}
}

func TestConsumption_Insufficient_NoStateChange(t *testing.T) {
	r, ctx := testRepo(t)

	item, _, err := r.RecordDonation(ctx, DonationInput{
		NewItem:        &NewItemSpec{Name: "candles", Category: "supplies"},
		Quantity:       5,
		EstimatedValue: 10,
	})
	if err != nil {
		t.Fatalf("donation: %v", err)
	}

	_, _, err = r.RecordConsumption(ctx, ConsumptionInput{
		ItemNumber: item.Number, Quantity: 7, Purpose: "vigil", ConsumedBy: 1,
	})
	var iq *InsufficientQuantityError
	if !errors.As(err, &iq) {
		t.Fatalf("expected InsufficientQuantityError, got %v", err)
	}
	if !approx(iq.Available, 5) {
		t.Errorf("available = %v, want 5", iq.Available)
	}

	got, err := r.GetByNumber(ctx, item.Number)
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if !approx(got.Quantity, 5) {
		t.Errorf("quantity changed to %v after rejected consumption", got.Quantity)
	}
}
