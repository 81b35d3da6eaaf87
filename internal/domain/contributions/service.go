package contributions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avdeyev/parish-ledger/internal/domain/inventory"
	"github.com/avdeyev/parish-ledger/internal/domain/transactions"
	"github.com/avdeyev/parish-ledger/internal/infra/metrics"
)

// Store is what the service needs from the contributions repo.
type Store interface {
	Create(ctx context.Context, in RecordInput) (*Contribution, error)
	LinkTransaction(ctx context.Context, id, transactionID int64) error
	LinkInventoryItem(ctx context.Context, id, itemID int64) error
}

type TransactionCreator interface {
	Create(ctx context.Context, in transactions.CreateInput) (*transactions.Transaction, error)
}

type DonationRecorder interface {
	RecordDonation(ctx context.Context, in inventory.DonationInput) (*inventory.Item, *inventory.DonationEvent, error)
}

type Service struct {
	store Store
	txs   TransactionCreator
	inv   DonationRecorder
	log   *slog.Logger
}

func NewService(store Store, txs TransactionCreator, inv DonationRecorder, log *slog.Logger) *Service {
	return &Service{store: store, txs: txs, inv: inv, log: log}
}

// Record persists the contribution, then projects it to a linked
// transaction (cash) or inventory donation (item). The contribution is
// the source of truth: a projection failure is reported in the result
// and logged, never propagated, and never rolls the primary back.
func (s *Service) Record(ctx context.Context, in RecordInput) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("contributions: create: %w", err)
	}
	metrics.ContributionsRecorded.Inc()

	res := &Result{Contribution: c, Projection: Projection{OK: true}}
	switch in.Kind {
	case KindCash:
		if in.WithTransaction {
			s.projectTransaction(ctx, c, in, res)
		}
	case KindItem:
		s.projectDonation(ctx, c, in, res)
	case KindInKind:
		// recorded only, nothing to project
	}
	return res, nil
}

func (s *Service) projectTransaction(ctx context.Context, c *Contribution, in RecordInput, res *Result) {
	rec, err := s.txs.Create(ctx, transactions.CreateInput{
		Type:       transactions.TypeIncome,
		Amount:     in.Value,
		Category:   in.Category,
		Payee:      fmt.Sprintf("member #%d", in.MemberID),
		Method:     in.Method,
		OccurredOn: c.GivenOn,
	})
	if err == nil {
		err = s.store.LinkTransaction(ctx, c.ID, rec.ID)
		if err == nil {
			res.Contribution.TransactionID = &rec.ID
			return
		}
	}
	s.downgrade(res, c.ID, "transaction", err)
}

func (s *Service) projectDonation(ctx context.Context, c *Contribution, in RecordInput, res *Result) {
	item, _, err := s.inv.RecordDonation(ctx, inventory.DonationInput{
		NewItem: &inventory.NewItemSpec{
			Name:          in.Description,
			Category:      in.Category,
			BaseUnitPrice: in.Value / in.Quantity,
		},
		MemberID:       &c.MemberID,
		Quantity:       in.Quantity,
		EstimatedValue: in.Value,
		ContributionID: &c.ID,
	})
	if err == nil {
		err = s.store.LinkInventoryItem(ctx, c.ID, item.ID)
		if err == nil {
			res.Contribution.InventoryItemID = &item.ID
			return
		}
	}
	s.downgrade(res, c.ID, "inventory", err)
}

// downgrade turns a secondary-write failure into a warning; the
// contribution stands unlinked.
func (s *Service) downgrade(res *Result, id int64, target string, err error) {
	res.Projection = Projection{OK: false, Err: err}
	metrics.ProjectionFailures.WithLabelValues(target).Inc()
	s.log.Warn("contribution projection failed",
		"contribution_id", id, "target", target, "err", err)
}
