package finance

import "time"

// PaymentMethod distinguishes credit purchases (which consume the card
// limit) from debit purchases (paid immediately from the balance).
type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
)

// Valid reports whether the method is one of the known values.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCredit || m == PaymentDebit
}

// Purchase is one installment of a card purchase. Amount is the
// per-installment share in cents, not the original total. The invoice an
// installment belongs to is fixed at creation time from that
// installment's own date.
type Purchase struct {
	ID                string
	OwnerID           string
	CardID            string
	InvoiceID         string
	CategoryID        string // optional
	Description       string
	Amount            int64 // cents, per installment
	PurchaseDate      time.Time
	Installments      int // total count, >= 1
	InstallmentNumber int // 1-based
	PaymentMethod     PaymentMethod
	Notes             string // optional
	CreatedAt         time.Time
}
