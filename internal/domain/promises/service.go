package promises

import (
	"context"

	"github.com/avdeyev/parish-ledger/internal/domain/transactions"
)

// Notifier receives the best-effort admin notice after a successful
// fulfillment. Failures inside it must never surface to the caller.
type Notifier interface {
	PromiseFulfilled(promiseNumber, transactionNumber string, amount float64)
}

type fulfillmentStore interface {
	Fulfill(ctx context.Context, number string, in FulfillInput) (*Promise, *transactions.Transaction, error)
}

// Service is the fulfillment entry point for callers that want the
// admin chat notified; the repo alone stays notification-free.
type Service struct {
	store    fulfillmentStore
	notifier Notifier
}

func NewService(store fulfillmentStore, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

func (s *Service) Fulfill(ctx context.Context, number string, in FulfillInput) (*Promise, *transactions.Transaction, error) {
	p, rec, err := s.store.Fulfill(ctx, number, in)
	if err != nil {
		return nil, nil, err
	}
	if s.notifier != nil {
		s.notifier.PromiseFulfilled(p.Number, rec.Number, rec.Amount)
	}
	return p, rec, nil
}
