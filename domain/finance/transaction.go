package finance

import "time"

// Transaction is a user-recorded income or expense. Amount is unsigned
// cents; the sign is carried by Type. CardID is set when the transaction
// tops up or draws from a card's prepaid balance, or when it was created
// synthetically by the invoice closing engine.
type Transaction struct {
	ID          string
	OwnerID     string
	Title       string
	Amount      int64 // cents, always positive
	Type        TransactionType
	Date        time.Time
	CategoryID  string // optional
	CardID      string // optional
	Description string // optional
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the transaction's fields.
func (t Transaction) Validate() error {
	if t.Title == "" {
		return Invalid("title", "must not be empty")
	}
	if len(t.Title) > 255 {
		return Invalid("title", "too long (max 255)")
	}
	if t.Amount <= 0 {
		return Invalid("amount", "must be greater than zero")
	}
	if !t.Type.Valid() {
		return Invalid("type", "must be income or expense")
	}
	if t.Date.IsZero() {
		return Invalid("date", "must be set")
	}
	if len(t.Description) > 1000 {
		return Invalid("description", "too long (max 1000)")
	}
	return nil
}
