package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAllocation means the counter store could not hand out a number.
// Callers must abort the record they were about to create.
var ErrAllocation = errors.New("sequence: allocation failed")

// Prefixes for the human-readable record numbers.
const (
	PrefixInventory   = "INV"
	PrefixTransaction = "T"
	PrefixPromise     = "P"
	PrefixMember      = "M"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const nextSQL = `
	INSERT INTO sequences (name, value)
	VALUES ($1, 1)
	ON CONFLICT (name)
	DO UPDATE SET value = sequences.value + 1, updated_at = now()
	RETURNING value
`

// Next allocates the next value for the named counter. The upsert and
// increment happen in one statement, so concurrent callers can never
// receive the same value.
func (r *Repo) Next(ctx context.Context, name string) (int64, error) {
	var v int64
	if err := r.pool.QueryRow(ctx, nextSQL, name).Scan(&v); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrAllocation, name, err)
	}
	return v, nil
}

// NextTx allocates within a caller-held transaction, so the number and
// the record it labels commit (or roll back) together.
func (r *Repo) NextTx(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	var v int64
	if err := tx.QueryRow(ctx, nextSQL, name).Scan(&v); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrAllocation, name, err)
	}
	return v, nil
}

// Format renders a display number like INV0001. Values past 9999 widen
// instead of wrapping.
func Format(prefix string, v int64) string {
	return fmt.Sprintf("%s%04d", prefix, v)
}
