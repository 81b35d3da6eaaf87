package promises

import (
	"context"
	"errors"
	"testing"

	"github.com/avdeyev/parish-ledger/internal/domain/transactions"
)

type mockFulfillmentStore struct {
	fail bool
}

func (m *mockFulfillmentStore) Fulfill(_ context.Context, number string, in FulfillInput) (*Promise, *transactions.Transaction, error) {
	if m.fail {
		return nil, nil, ErrFulfillmentAborted
	}
	amount := 100.0
	if in.ActualAmount != nil {
		amount = *in.ActualAmount
	}
	p := &Promise{Number: number, Status: StatusFulfilled}
	rec := &transactions.Transaction{Number: "T0001", Type: transactions.TypeIncome, Amount: amount}
	return p, rec, nil
}

type mockNotifier struct {
	calls   int
	promise string
	tx      string
	amount  float64
}

func (m *mockNotifier) PromiseFulfilled(promiseNumber, transactionNumber string, amount float64) {
	m.calls++
	m.promise = promiseNumber
	m.tx = transactionNumber
	m.amount = amount
}

func TestService_Fulfill_Notifies(t *testing.T) {
	n := &mockNotifier{}
	svc := NewService(&mockFulfillmentStore{}, n)

	actual := 120.0
	_, _, err := svc.Fulfill(context.Background(), "P0001", FulfillInput{ActualAmount: &actual})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if n.calls != 1 {
		t.Fatalf("expected one notification, got %d", n.calls)
	}
	if n.promise != "P0001" || n.tx != "T0001" || n.amount != 120 {
		t.Errorf("notified with %q %q %.2f, want P0001 T0001 120", n.promise, n.tx, n.amount)
	}
}

func TestService_Fulfill_NoNoticeOnFailure(t *testing.T) {
	n := &mockNotifier{}
	svc := NewService(&mockFulfillmentStore{fail: true}, n)

	if _, _, err := svc.Fulfill(context.Background(), "P0001", FulfillInput{}); !errors.Is(err, ErrFulfillmentAborted) {
		t.Fatalf("expected ErrFulfillmentAborted, got %v", err)
	}
	if n.calls != 0 {
		t.Errorf("aborted fulfillment must not notify, got %d calls", n.calls)
	}
}

func TestService_Fulfill_NilNotifier(t *testing.T) {
	svc := NewService(&mockFulfillmentStore{}, nil)
	if _, _, err := svc.Fulfill(context.Background(), "P0001", FulfillInput{}); err != nil {
		t.Fatalf("fulfill without notifier: %v", err)
	}
}
