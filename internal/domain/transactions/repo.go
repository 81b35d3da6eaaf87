package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avdeyev/parish-ledger/internal/sequence"
)

type Repo struct {
	pool *pgxpool.Pool
	seq  *sequence.Repo
}

func NewRepo(pool *pgxpool.Pool, seq *sequence.Repo) *Repo {
	return &Repo{pool: pool, seq: seq}
}

type CreateInput struct {
	Type            Type
	Amount          float64
	Category        string
	Payee           string
	Method          string
	PromiseID       *int64
	InventoryItemID *int64
	OccurredOn      time.Time
}

func (in CreateInput) validate() error {
	if in.Type != TypeIncome && in.Type != TypeExpense {
		return fmt.Errorf("transactions: unknown type %q", in.Type)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("transactions: amount must be > 0")
	}
	return nil
}

const txCols = `id, number, type, amount, category, payee, method, promise_id, inventory_item_id, occurred_on, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	if err := row.Scan(&t.ID, &t.Number, &t.Type, &t.Amount, &t.Category, &t.Payee,
		&t.Method, &t.PromiseID, &t.InventoryItemID, &t.OccurredOn, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create allocates the T number and inserts the record in one
// transaction, so a failed insert never burns a visible gap on its own.
func (r *Repo) Create(ctx context.Context, in CreateInput) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t, err := r.CreateTx(ctx, tx, in)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTx inserts within a caller-held transaction. Promise
// fulfillment uses this so the financial record and the promise state
// change commit as one unit.
func (r *Repo) CreateTx(ctx context.Context, tx pgx.Tx, in CreateInput) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	n, err := r.seq.NextTx(ctx, tx, "transaction")
	if err != nil {
		return nil, err
	}
	occurred := in.OccurredOn
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return scanTransaction(tx.QueryRow(ctx, `
		INSERT INTO transactions (number, type, amount, category, payee, method, promise_id, inventory_item_id, occurred_on)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+txCols,
		sequence.Format(sequence.PrefixTransaction, n),
		in.Type, in.Amount, in.Category, in.Payee, in.Method,
		in.PromiseID, in.InventoryItemID, occurred))
}

type UpdateInput struct {
	Amount   *float64
	Category *string
	Payee    *string
	Method   *string
}

func (r *Repo) Update(ctx context.Context, number string, in UpdateInput) (*Transaction, error) {
	if in.Amount != nil && *in.Amount <= 0 {
		return nil, fmt.Errorf("transactions: amount must be > 0")
	}
	t, err := scanTransaction(r.pool.QueryRow(ctx, `
		UPDATE transactions SET
			amount   = COALESCE($2, amount),
			category = COALESCE($3, category),
			payee    = COALESCE($4, payee),
			method   = COALESCE($5, method)
		WHERE number = $1
		RETURNING `+txCols,
		number, in.Amount, in.Category, in.Payee, in.Method))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("transactions: %s not found", number)
	}
	return t, err
}

func (r *Repo) GetByNumber(ctx context.Context, number string) (*Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, `
		SELECT `+txCols+` FROM transactions WHERE number = $1
	`, number))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
