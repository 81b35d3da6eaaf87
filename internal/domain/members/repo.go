package members

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avdeyev/parish-ledger/internal/sequence"
)

// Minimal registry: the core only needs member rows to reference from
// contributions and promises. Full member management lives elsewhere.
type Repo struct {
	pool *pgxpool.Pool
	seq  *sequence.Repo
}

func NewRepo(pool *pgxpool.Pool, seq *sequence.Repo) *Repo {
	return &Repo{pool: pool, seq: seq}
}

func (r *Repo) Create(ctx context.Context, fullName, contact string) (*Member, error) {
	if fullName == "" {
		return nil, fmt.Errorf("members: name required")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := r.seq.NextTx(ctx, tx, "member")
	if err != nil {
		return nil, err
	}
	var m Member
	if err := tx.QueryRow(ctx, `
		INSERT INTO members (number, full_name, contact)
		VALUES ($1,$2,$3)
		RETURNING id, number, full_name, contact, created_at
	`, sequence.Format(sequence.PrefixMember, n), fullName, contact).Scan(
		&m.ID, &m.Number, &m.FullName, &m.Contact, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) GetByNumber(ctx context.Context, number string) (*Member, error) {
	var m Member
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, full_name, contact, created_at FROM members WHERE number = $1
	`, number).Scan(&m.ID, &m.Number, &m.FullName, &m.Contact, &m.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
