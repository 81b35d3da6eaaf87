package report

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/avdeyev/parish-ledger/internal/domain/contributions"
	"github.com/avdeyev/parish-ledger/internal/domain/inventory"
)

type inventorySource interface {
	List(ctx context.Context) ([]inventory.Item, error)
	Valuation(ctx context.Context, number string) (inventory.Valuation, error)
}

type contributionSource interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]contributions.Contribution, error)
}

type Service struct {
	inv     inventorySource
	contrib contributionSource
}

func NewService(inv inventorySource, contrib contributionSource) *Service {
	return &Service{inv: inv, contrib: contrib}
}

// StockValuation builds an xlsx with one row per item, valuation
// recomputed from the event history (not the cached quantity).
func (s *Service) StockValuation(ctx context.Context) (*excelize.File, error) {
	items, err := s.inv.List(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"number",
		"name",
		"category",
		"quantity",
		"donated_value",
		"consumed_value",
		"current_value",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	row := 2
	for _, it := range items {
		v, err := s.inv.Valuation(ctx, it.Number)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("report: valuation of %s: %w", it.Number, err)
		}
		excelRow := []interface{}{
			it.Number,
			it.Name,
			it.Category,
			v.Quantity,
			v.TotalDonatedValue,
			v.TotalConsumedValue,
			v.CurrentValue,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			_ = f.Close()
			return nil, err
		}
		row++
	}
	return f, nil
}

// Contributions builds an xlsx listing of contributions in [from, to).
func (s *Service) Contributions(ctx context.Context, from, to time.Time) (*excelize.File, error) {
	list, err := s.contrib.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"id",
		"member_id",
		"kind",
		"category",
		"description",
		"quantity",
		"value",
		"given_on",
		"linked",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	row := 2
	for _, c := range list {
		linked := ""
		switch {
		case c.TransactionID != nil:
			linked = "transaction"
		case c.InventoryItemID != nil:
			linked = "inventory"
		}
		excelRow := []interface{}{
			c.ID,
			c.MemberID,
			string(c.Kind),
			c.Category,
			c.Description,
			c.Quantity,
			c.Value,
			c.GivenOn.Format("2006-01-02"),
			linked,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			_ = f.Close()
			return nil, err
		}
		row++
	}
	return f, nil
}
