package transactions

import "time"

type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

type Transaction struct {
	ID              int64
	Number          string // Txxxx
	Type            Type
	Amount          float64
	Category        string
	Payee           string
	Method          string
	PromiseID       *int64
	InventoryItemID *int64
	OccurredOn      time.Time
	CreatedAt       time.Time
}
