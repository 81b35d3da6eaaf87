package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avdeyev/parish-ledger/internal/infra/metrics"
	"github.com/avdeyev/parish-ledger/internal/sequence"
)

type Repo struct {
	pool *pgxpool.Pool
	seq  *sequence.Repo
}

func NewRepo(pool *pgxpool.Pool, seq *sequence.Repo) *Repo {
	return &Repo{pool: pool, seq: seq}
}

// NewItemSpec describes an item created on first donation.
type NewItemSpec struct {
	Name              string
	Category          string
	BaseUnitPrice     float64
	LowStockThreshold float64
}

type DonationInput struct {
	ItemNumber     string       // empty => create via NewItem
	NewItem        *NewItemSpec // required when ItemNumber is empty
	MemberID       *int64
	Quantity       float64
	EstimatedValue float64
	ContributionID *int64
	Note           string
}

type ConsumptionInput struct {
	ItemNumber string
	Quantity   float64
	Purpose    string
	ConsumedBy int64
}

const itemCols = `id, number, name, category, quantity, base_unit_price, low_stock_threshold, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.Number, &it.Name, &it.Category, &it.Quantity,
		&it.BaseUnitPrice, &it.LowStockThreshold, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

// RecordDonation appends a donation event, creating the item first when
// no number was given. Event insert and quantity bump commit together.
// Deliberately not idempotent: every call adds a new event.
func (r *Repo) RecordDonation(ctx context.Context, in DonationInput) (*Item, *DonationEvent, error) {
	if in.Quantity <= 0 {
		return nil, nil, fmt.Errorf("inventory: quantity must be > 0")
	}
	if in.EstimatedValue < 0 {
		return nil, nil, fmt.Errorf("inventory: estimated value must be >= 0")
	}
	if in.ItemNumber == "" && in.NewItem == nil {
		return nil, nil, fmt.Errorf("inventory: either item number or new item spec required")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var item *Item
	if in.ItemNumber == "" {
		n, err := r.seq.NextTx(ctx, tx, "inventory_item")
		if err != nil {
			return nil, nil, err
		}
		item, err = scanItem(tx.QueryRow(ctx, `
			INSERT INTO inventory_items (number, name, category, quantity, base_unit_price, low_stock_threshold)
			VALUES ($1,$2,$3,0,$4,$5)
			RETURNING `+itemCols,
			sequence.Format(sequence.PrefixInventory, n),
			in.NewItem.Name, in.NewItem.Category, in.NewItem.BaseUnitPrice, in.NewItem.LowStockThreshold))
		if err != nil {
			return nil, nil, err
		}
	} else {
		item, err = scanItem(tx.QueryRow(ctx, `
			SELECT `+itemCols+` FROM inventory_items WHERE number = $1 FOR UPDATE
		`, in.ItemNumber))
		if err == pgx.ErrNoRows {
			return nil, nil, fmt.Errorf("inventory: item %s not found", in.ItemNumber)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	var ev DonationEvent
	if err := tx.QueryRow(ctx, `
		INSERT INTO inventory_donations (item_id, member_id, quantity, estimated_value, contribution_id, note)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, item_id, member_id, quantity, estimated_value, contribution_id, note, created_at
	`, item.ID, in.MemberID, in.Quantity, in.EstimatedValue, in.ContributionID, in.Note).Scan(
		&ev.ID, &ev.ItemID, &ev.MemberID, &ev.Quantity, &ev.EstimatedValue, &ev.ContributionID, &ev.Note, &ev.CreatedAt,
	); err != nil {
		return nil, nil, err
	}

	if err := tx.QueryRow(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING quantity, updated_at
	`, item.ID, in.Quantity).Scan(&item.Quantity, &item.UpdatedAt); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	metrics.DonationsRecorded.Inc()
	return item, &ev, nil
}

// RecordConsumption books a withdrawal at the current weighted average
// cost. The value is frozen into the event row; later donations do not
// touch it. Over-consumption is rejected with the available amount and
// no state change.
func (r *Repo) RecordConsumption(ctx context.Context, in ConsumptionInput) (*Item, *ConsumptionEvent, error) {
	if in.Quantity <= 0 {
		return nil, nil, fmt.Errorf("inventory: quantity must be > 0")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	item, err := scanItem(tx.QueryRow(ctx, `
		SELECT `+itemCols+` FROM inventory_items WHERE number = $1 FOR UPDATE
	`, in.ItemNumber))
	if err == pgx.ErrNoRows {
		return nil, nil, fmt.Errorf("inventory: item %s not found", in.ItemNumber)
	}
	if err != nil {
		return nil, nil, err
	}

	if in.Quantity > item.Quantity {
		return nil, nil, &InsufficientQuantityError{
			Number: item.Number, Requested: in.Quantity, Available: item.Quantity,
		}
	}

	var donatedQty, donatedValue float64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity),0), COALESCE(SUM(estimated_value),0)
		FROM inventory_donations WHERE item_id = $1
	`, item.ID).Scan(&donatedQty, &donatedValue); err != nil {
		return nil, nil, err
	}
	value := consumptionValue(in.Quantity, donatedQty, donatedValue, item.BaseUnitPrice)

	var ev ConsumptionEvent
	if err := tx.QueryRow(ctx, `
		INSERT INTO inventory_consumptions (item_id, quantity, computed_value, purpose, consumed_by)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, item_id, quantity, computed_value, purpose, consumed_by, transaction_id, created_at
	`, item.ID, in.Quantity, value, in.Purpose, in.ConsumedBy).Scan(
		&ev.ID, &ev.ItemID, &ev.Quantity, &ev.ComputedValue, &ev.Purpose, &ev.ConsumedBy, &ev.TransactionID, &ev.CreatedAt,
	); err != nil {
		return nil, nil, err
	}

	// Row is locked, but keep the guard so stock can never cross zero.
	tag, err := tx.Exec(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
	`, item.ID, in.Quantity)
	if err != nil {
		return nil, nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, &InsufficientQuantityError{
			Number: item.Number, Requested: in.Quantity, Available: item.Quantity,
		}
	}
	item.Quantity -= in.Quantity

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	metrics.ConsumptionsRecorded.Inc()
	return item, &ev, nil
}

// Valuation recomputes totals from the event rows on every call. The
// stored quantity is never trusted as a cached total here.
func (r *Repo) Valuation(ctx context.Context, number string) (Valuation, error) {
	var v Valuation
	err := r.pool.QueryRow(ctx, `
		SELECT i.number,
		       COALESCE(d.qty,0) - COALESCE(c.qty,0),
		       COALESCE(d.value,0),
		       COALESCE(c.value,0),
		       (COALESCE(d.qty,0) - COALESCE(c.qty,0)) *
		         CASE WHEN COALESCE(d.qty,0) > 0 AND COALESCE(d.value,0) > 0
		              THEN COALESCE(d.value,0) / d.qty
		              ELSE i.base_unit_price END
		FROM inventory_items i
		LEFT JOIN (SELECT item_id, SUM(quantity) qty, SUM(estimated_value) value
		           FROM inventory_donations GROUP BY item_id) d ON d.item_id = i.id
		LEFT JOIN (SELECT item_id, SUM(quantity) qty, SUM(computed_value) value
		           FROM inventory_consumptions GROUP BY item_id) c ON c.item_id = i.id
		WHERE i.number = $1
	`, number).Scan(&v.Number, &v.Quantity, &v.TotalDonatedValue, &v.TotalConsumedValue, &v.CurrentValue)
	if err == pgx.ErrNoRows {
		return Valuation{}, fmt.Errorf("inventory: item %s not found", number)
	}
	return v, err
}

func (r *Repo) GetByNumber(ctx context.Context, number string) (*Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `
		SELECT `+itemCols+` FROM inventory_items WHERE number = $1
	`, number))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *Repo) List(ctx context.Context) ([]Item, error) {
	return r.list(ctx, `SELECT `+itemCols+` FROM inventory_items ORDER BY number`)
}

// ListLowStock returns items at or below their threshold, for the
// nightly sweep and the stock report.
func (r *Repo) ListLowStock(ctx context.Context) ([]Item, error) {
	return r.list(ctx, `
		SELECT `+itemCols+` FROM inventory_items
		WHERE low_stock_threshold > 0 AND quantity <= low_stock_threshold
		ORDER BY number`)
}

func (r *Repo) list(ctx context.Context, q string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Number, &it.Name, &it.Category, &it.Quantity,
			&it.BaseUnitPrice, &it.LowStockThreshold, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
