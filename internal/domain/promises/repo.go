package promises

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avdeyev/parish-ledger/internal/domain/transactions"
	"github.com/avdeyev/parish-ledger/internal/infra/metrics"
	"github.com/avdeyev/parish-ledger/internal/sequence"
)

type Repo struct {
	pool *pgxpool.Pool
	seq  *sequence.Repo
	txs  *transactions.Repo
}

func NewRepo(pool *pgxpool.Pool, seq *sequence.Repo, txs *transactions.Repo) *Repo {
	return &Repo{pool: pool, seq: seq, txs: txs}
}

type CreateInput struct {
	MemberID int64
	Amount   float64
	Category string
	DueOn    *time.Time
	Note     string
}

type FulfillInput struct {
	ActualAmount *float64 // nil => pledged amount
	Method       *string
	Note         string
}

const promiseCols = `id, number, member_id, amount, category, due_on, status,
	fulfilled_on, actual_amount, method, transaction_id, note, created_at, updated_at`

func scanPromise(row pgx.Row) (*Promise, error) {
	var p Promise
	if err := row.Scan(&p.ID, &p.Number, &p.MemberID, &p.Amount, &p.Category, &p.DueOn,
		&p.Status, &p.FulfilledOn, &p.ActualAmount, &p.Method, &p.TransactionID,
		&p.Note, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*Promise, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("promises: amount must be > 0")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := r.seq.NextTx(ctx, tx, "promise")
	if err != nil {
		return nil, err
	}
	p, err := scanPromise(tx.QueryRow(ctx, `
		INSERT INTO promises (number, member_id, amount, category, due_on, status, note)
		VALUES ($1,$2,$3,$4,$5,'pending',$6)
		RETURNING `+promiseCols,
		sequence.Format(sequence.PrefixPromise, n),
		in.MemberID, in.Amount, in.Category, in.DueOn, in.Note))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Fulfill turns a pending promise into an income transaction plus the
// fulfilled state in ONE database transaction. A fulfilled promise
// without its transaction (or the reverse) corrupts the books, so any
// failure past the state check aborts the whole unit.
func (r *Repo) Fulfill(ctx context.Context, number string, in FulfillInput) (*Promise, *transactions.Transaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFulfillmentAborted, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPromise(tx.QueryRow(ctx, `
		SELECT `+promiseCols+` FROM promises WHERE number = $1 FOR UPDATE
	`, number))
	if err == pgx.ErrNoRows {
		return nil, nil, fmt.Errorf("promises: %s not found", number)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFulfillmentAborted, err)
	}
	if err := checkTransition(p.Status); err != nil {
		return nil, nil, err
	}

	amount := p.Amount
	if in.ActualAmount != nil {
		amount = *in.ActualAmount
	}
	method := ""
	if in.Method != nil {
		method = *in.Method
	}

	rec, err := r.txs.CreateTx(ctx, tx, transactions.CreateInput{
		Type:      transactions.TypeIncome,
		Amount:    amount,
		Category:  p.Category,
		Payee:     fmt.Sprintf("member #%d", p.MemberID),
		Method:    method,
		PromiseID: &p.ID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFulfillmentAborted, err)
	}

	p, err = scanPromise(tx.QueryRow(ctx, `
		UPDATE promises SET
			status = 'fulfilled',
			fulfilled_on = now(),
			actual_amount = $2,
			method = NULLIF($3, ''),
			transaction_id = $4,
			note = CASE WHEN $5 <> '' THEN $5 ELSE note END,
			updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+promiseCols,
		p.ID, amount, method, rec.ID, in.Note))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFulfillmentAborted, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFulfillmentAborted, err)
	}
	metrics.PromisesFulfilled.Inc()
	return p, rec, nil
}

// Cancel is the other terminal transition; same locking discipline,
// no financial record involved.
func (r *Repo) Cancel(ctx context.Context, number string) (*Promise, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPromise(tx.QueryRow(ctx, `
		SELECT `+promiseCols+` FROM promises WHERE number = $1 FOR UPDATE
	`, number))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("promises: %s not found", number)
	}
	if err != nil {
		return nil, err
	}
	if err := checkTransition(p.Status); err != nil {
		return nil, err
	}

	p, err = scanPromise(tx.QueryRow(ctx, `
		UPDATE promises SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+promiseCols, p.ID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) GetByNumber(ctx context.Context, number string) (*Promise, error) {
	p, err := scanPromise(r.pool.QueryRow(ctx, `
		SELECT `+promiseCols+` FROM promises WHERE number = $1
	`, number))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
