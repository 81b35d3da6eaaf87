package contributions

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const cols = `id, member_id, kind, category, description, quantity, value, given_on,
	transaction_id, inventory_item_id, verified_by, verified_at, created_at`

func scan(row pgx.Row) (*Contribution, error) {
	var c Contribution
	if err := row.Scan(&c.ID, &c.MemberID, &c.Kind, &c.Category, &c.Description,
		&c.Quantity, &c.Value, &c.GivenOn, &c.TransactionID, &c.InventoryItemID,
		&c.VerifiedBy, &c.VerifiedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) Create(ctx context.Context, in RecordInput) (*Contribution, error) {
	given := in.GivenOn
	if given.IsZero() {
		given = time.Now()
	}
	return scan(r.pool.QueryRow(ctx, `
		INSERT INTO contributions (member_id, kind, category, description, quantity, value, given_on)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+cols,
		in.MemberID, in.Kind, in.Category, in.Description, in.Quantity, in.Value, given))
}

// LinkTransaction sets the single allowed linkage for a cash
// contribution; a CHECK in the schema keeps the two links exclusive.
func (r *Repo) LinkTransaction(ctx context.Context, id, transactionID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contributions SET transaction_id = $2
		WHERE id = $1 AND transaction_id IS NULL AND inventory_item_id IS NULL
	`, id, transactionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contributions: %d already linked or missing", id)
	}
	return nil
}

func (r *Repo) LinkInventoryItem(ctx context.Context, id, itemID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contributions SET inventory_item_id = $2
		WHERE id = $1 AND transaction_id IS NULL AND inventory_item_id IS NULL
	`, id, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contributions: %d already linked or missing", id)
	}
	return nil
}

// Verify sets the only fields that may change after creation.
func (r *Repo) Verify(ctx context.Context, id, verifiedBy int64) (*Contribution, error) {
	c, err := scan(r.pool.QueryRow(ctx, `
		UPDATE contributions SET verified_by = $2, verified_at = now()
		WHERE id = $1
		RETURNING `+cols, id, verifiedBy))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("contributions: %d not found", id)
	}
	return c, err
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Contribution, error) {
	c, err := scan(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM contributions WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repo) ListBetween(ctx context.Context, from, to time.Time) ([]Contribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cols+` FROM contributions
		WHERE given_on >= $1 AND given_on < $2
		ORDER BY given_on, id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contribution
	for rows.Next() {
		var c Contribution
		if err := rows.Scan(&c.ID, &c.MemberID, &c.Kind, &c.Category, &c.Description,
			&c.Quantity, &c.Value, &c.GivenOn, &c.TransactionID, &c.InventoryItemID,
			&c.VerifiedBy, &c.VerifiedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
