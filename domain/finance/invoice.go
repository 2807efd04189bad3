package finance

import "time"

// InvoiceStatus represents the lifecycle state of a card invoice.
// open → closed → paid; closed is skipped when the balance covers the
// whole total at closing time.
type InvoiceStatus string

const (
	InvoiceStatusOpen   InvoiceStatus = "open"
	InvoiceStatusClosed InvoiceStatus = "closed"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// Invoice aggregates a card's purchases for one billing period.
// At most one open invoice exists per (card, reference month, reference
// year); the store enforces this with a partial unique index.
type Invoice struct {
	ID             string
	OwnerID        string
	CardID         string
	ReferenceMonth int // 1..12, month of the closing date
	ReferenceYear  int
	ClosingDate    time.Time
	DueDate        time.Time
	Status         InvoiceStatus
	PaidAmount     int64 // cents offset from the card balance at closing
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOpen reports whether purchases can still land on this invoice.
func (i Invoice) IsOpen() bool {
	return i.Status == InvoiceStatusOpen
}
