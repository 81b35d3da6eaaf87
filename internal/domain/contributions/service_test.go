package contributions

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/avdeyev/parish-ledger/internal/domain/inventory"
	"github.com/avdeyev/parish-ledger/internal/domain/transactions"
)

type mockStore struct {
	nextID  int64
	created []*Contribution
	links   map[int64]string
	failOn  string // "create" | "link"
}

func newMockStore() *mockStore { return &mockStore{links: map[int64]string{}} }

func (m *mockStore) Create(_ context.Context, in RecordInput) (*Contribution, error) {
	if m.failOn == "create" {
		return nil, errors.New("store down")
	}
	m.nextID++
	c := &Contribution{
		ID: m.nextID, MemberID: in.MemberID, Kind: in.Kind,
		Category: in.Category, Description: in.Description,
		Quantity: in.Quantity, Value: in.Value, GivenOn: in.GivenOn,
	}
	m.created = append(m.created, c)
	return c, nil
}

func (m *mockStore) LinkTransaction(_ context.Context, id, txID int64) error {
	if m.failOn == "link" {
		return errors.New("link failed")
	}
	m.links[id] = "transaction"
	return nil
}

func (m *mockStore) LinkInventoryItem(_ context.Context, id, itemID int64) error {
	if m.failOn == "link" {
		return errors.New("link failed")
	}
	m.links[id] = "inventory"
	return nil
}

type mockTxs struct {
	fail    bool
	created []transactions.CreateInput
}

func (m *mockTxs) Create(_ context.Context, in transactions.CreateInput) (*transactions.Transaction, error) {
	if m.fail {
		return nil, errors.New("transaction store down")
	}
	m.created = append(m.created, in)
	return &transactions.Transaction{ID: int64(len(m.created)), Number: "T0001", Type: in.Type, Amount: in.Amount}, nil
}

type mockInv struct {
	fail      bool
	donations []inventory.DonationInput
}

func (m *mockInv) RecordDonation(_ context.Context, in inventory.DonationInput) (*inventory.Item, *inventory.DonationEvent, error) {
	if m.fail {
		return nil, nil, errors.New("inventory store down")
	}
	m.donations = append(m.donations, in)
	item := &inventory.Item{ID: int64(len(m.donations)), Number: "INV0001", Quantity: in.Quantity}
	ev := &inventory.DonationEvent{ItemID: item.ID, Quantity: in.Quantity, EstimatedValue: in.EstimatedValue}
	return item, ev, nil
}

func newService(store *mockStore, txs *mockTxs, inv *mockInv) *Service {
	return NewService(store, txs, inv, slog.Default())
}

func TestRecord_Cash_WithTransaction(t *testing.T) {
	store, txs, inv := newMockStore(), &mockTxs{}, &mockInv{}
	svc := newService(store, txs, inv)

	res, err := svc.Record(context.Background(), RecordInput{
		MemberID: 7, Kind: KindCash, Category: "tithe", Value: 100, WithTransaction: true,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !res.Projection.OK {
		t.Errorf("projection should succeed: %v", res.Projection.Err)
	}
	if len(txs.created) != 1 || txs.created[0].Amount != 100 || txs.created[0].Type != transactions.TypeIncome {
		t.Errorf("expected one income transaction of 100, got %+v", txs.created)
	}
	if res.Contribution.TransactionID == nil {
		t.Error("contribution not linked to transaction")
	}
}

func TestRecord_Cash_TransactionFailureDowngraded(t *testing.T) {
	store, txs, inv := newMockStore(), &mockTxs{fail: true}, &mockInv{}
	svc := newService(store, txs, inv)

	res, err := svc.Record(context.Background(), RecordInput{
		MemberID: 7, Kind: KindCash, Category: "tithe", Value: 100, WithTransaction: true,
	})
	if err != nil {
		t.Fatalf("secondary failure must not fail the request: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("contribution should still be persisted")
	}
	if res.Projection.OK || res.Projection.Err == nil {
		t.Errorf("projection should report the failure: %+v", res.Projection)
	}
	if res.Contribution.TransactionID != nil {
		t.Error("failed projection must leave the contribution unlinked")
	}
}

func TestRecord_Item_ProjectsDonation(t *testing.T) {
	store, txs, inv := newMockStore(), &mockTxs{}, &mockInv{}
	svc := newService(store, txs, inv)

	res, err := svc.Record(context.Background(), RecordInput{
		MemberID: 3, Kind: KindItem, Category: "furniture",
		Description: "folding chairs", Quantity: 3, Value: 30,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected exactly one contribution, got %d", len(store.created))
	}
	if len(inv.donations) != 1 {
		t.Fatalf("expected one donation, got %d", len(inv.donations))
	}
	d := inv.donations[0]
	if d.EstimatedValue != 30 || d.Quantity != 3 {
		t.Errorf("donation = %+v, want qty 3 value 30", d)
	}
	if d.NewItem == nil || d.NewItem.Name != "folding chairs" || d.NewItem.BaseUnitPrice != 10 {
		t.Errorf("item spec = %+v, want name from description, unit price 10", d.NewItem)
	}
	if res.Contribution.InventoryItemID == nil {
		t.Error("contribution not linked to inventory item")
	}
}

func TestRecord_Item_InventoryFailureDowngraded(t *testing.T) {
	store, txs, inv := newMockStore(), &mockTxs{}, &mockInv{fail: true}
	svc := newService(store, txs, inv)

	res, err := svc.Record(context.Background(), RecordInput{
		MemberID: 3, Kind: KindItem, Description: "folding chairs", Quantity: 3, Value: 30,
	})
	if err != nil {
		t.Fatalf("secondary failure must not fail the request: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatal("contribution should still be persisted")
	}
	if res.Projection.OK {
		t.Error("projection should report the failure")
	}
	if res.Contribution.InventoryItemID != nil {
		t.Error("failed projection must leave the contribution unlinked")
	}
}

func TestRecord_InKind_NoProjection(t *testing.T) {
	store, txs, inv := newMockStore(), &mockTxs{}, &mockInv{}
	svc := newService(store, txs, inv)

	res, err := svc.Record(context.Background(), RecordInput{
		MemberID: 5, Kind: KindInKind, Description: "groceries", Quantity: 1, Value: 40,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(txs.created) != 0 || len(inv.donations) != 0 {
		t.Error("in-kind contributions must not project anywhere")
	}
	if !res.Projection.OK {
		t.Error("no projection attempted means projection OK")
	}
}

func TestRecord_PrimaryFailureIsFatal(t *testing.T) {
	store := newMockStore()
	store.failOn = "create"
	svc := newService(store, &mockTxs{}, &mockInv{})

	if _, err := svc.Record(context.Background(), RecordInput{
		MemberID: 1, Kind: KindCash, Value: 10,
	}); err == nil {
		t.Fatal("primary-record failure must surface to the caller")
	}
}

func TestRecord_InvalidInput(t *testing.T) {
	svc := newService(newMockStore(), &mockTxs{}, &mockInv{})

	if _, err := svc.Record(context.Background(), RecordInput{Kind: "loan", Value: 10}); err == nil {
		t.Error("unknown kind should be rejected")
	}
	if _, err := svc.Record(context.Background(), RecordInput{Kind: KindItem, Value: 30, Quantity: 0}); err == nil {
		t.Error("item contribution without quantity should be rejected")
	}
	if _, err := svc.Record(context.Background(), RecordInput{Kind: KindCash, Value: -1}); err == nil {
		t.Error("negative value should be rejected")
	}
}
