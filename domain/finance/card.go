// Package finance provides the value types of the personal finance domain:
// cards, categories, transactions, invoices, purchases and the balance
// ledger. Types here carry no persistence concerns.
package finance

import (
	"regexp"
	"time"
)

var (
	colorPattern      = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	lastDigitsPattern = regexp.MustCompile(`^\d{4}$`)
)

// Card represents a credit card owned by a single user.
//
// AvailableBalance is a prepaid, debit-style balance in cents that can be
// used to offset invoice totals when an invoice is closed. It never goes
// negative. CreditLimit caps the card's outstanding purchases.
type Card struct {
	ID               string
	OwnerID          string
	Name             string
	LastDigits       string // last 4 digits, optional
	CreditLimit      int64  // cents
	AvailableBalance int64  // cents
	ClosingDay       int    // 1..31
	DueDay           int    // 1..31
	Color            string // #RRGGBB
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the card's fields.
func (c Card) Validate() error {
	if c.Name == "" {
		return Invalid("name", "must not be empty")
	}
	if len(c.Name) > 100 {
		return Invalid("name", "too long (max 100)")
	}
	if c.LastDigits != "" && !lastDigitsPattern.MatchString(c.LastDigits) {
		return Invalid("last_digits", "must be exactly 4 digits")
	}
	if c.CreditLimit <= 0 {
		return Invalid("credit_limit", "must be greater than zero")
	}
	if c.AvailableBalance < 0 {
		return Invalid("available_balance", "must not be negative")
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return Invalid("closing_day", "must be between 1 and 31")
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return Invalid("due_day", "must be between 1 and 31")
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		return Invalid("color", "must be #RRGGBB")
	}
	return nil
}

// CardStatus is a derived view of a card's financial position.
type CardStatus struct {
	Card            Card
	CurrentDebt     int64 // cents owed across open and closed unpaid invoices
	AvailableCredit int64 // cents of limit not yet consumed
}

// StatusWith derives the card status from the current outstanding debt.
func (c Card) StatusWith(currentDebt int64) CardStatus {
	avail := c.CreditLimit - currentDebt
	if avail < 0 {
		avail = 0
	}
	return CardStatus{Card: c, CurrentDebt: currentDebt, AvailableCredit: avail}
}
