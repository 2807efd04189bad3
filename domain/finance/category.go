package finance

import "time"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether the type is one of the known values.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Settlement category used for the expense created when a closed invoice
// cannot be fully offset by the card balance. Created lazily per user.
const (
	CreditCardCategoryName  = "Cartão de Crédito"
	CreditCardCategoryColor = "#ef4444"
)

// Category groups transactions for reporting. Unique per (owner, name).
type Category struct {
	ID        string
	OwnerID   string
	Name      string
	Type      TransactionType
	Color     string // #RRGGBB, optional
	Icon      string // optional
	CreatedAt time.Time
}

// Validate checks the category's fields.
func (c Category) Validate() error {
	if c.Name == "" {
		return Invalid("name", "must not be empty")
	}
	if len(c.Name) > 100 {
		return Invalid("name", "too long (max 100)")
	}
	if !c.Type.Valid() {
		return Invalid("type", "must be income or expense")
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		return Invalid("color", "must be #RRGGBB")
	}
	if len(c.Icon) > 50 {
		return Invalid("icon", "too long (max 50)")
	}
	return nil
}
