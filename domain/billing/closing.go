package billing

import (
	"strconv"
	"time"

	"github.com/psilva/grana/domain/finance"
)

// Resolution is the outcome of closing an invoice: how much of the total
// the card's prepaid balance absorbs and what remains owed.
type Resolution struct {
	Total             int64 // cents, sum of the invoice's purchases
	AmountFromBalance int64 // cents deducted from the card balance
	AmountToPay       int64 // cents left owed as an expense transaction
	NextStatus        finance.InvoiceStatus
}

// ResolveClosing computes the reconciliation for an invoice total against
// the card's available balance. The balance is applied up to
// min(total, availableBalance), so it never goes negative. An invoice
// fully covered by balance goes straight to paid; otherwise it is closed
// and the remainder becomes an expense.
func ResolveClosing(total, availableBalance int64) Resolution {
	fromBalance := total
	if availableBalance < fromBalance {
		fromBalance = availableBalance
	}

	toPay := total - fromBalance
	status := finance.InvoiceStatusPaid
	if toPay > 0 {
		status = finance.InvoiceStatusClosed
	}

	return Resolution{
		Total:             total,
		AmountFromBalance: fromBalance,
		AmountToPay:       toPay,
		NextStatus:        status,
	}
}

var monthsPtBR = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// SettlementTitle builds the title of the expense transaction created
// for the unpaid remainder of a closed invoice, referencing the card
// name and the invoice's closing month/year ("Fatura Nubank -
// janeiro/2026").
func SettlementTitle(cardName string, closingDate time.Time) string {
	return "Fatura " + cardName + " - " + monthsPtBR[closingDate.Month()-1] + "/" + strconv.Itoa(closingDate.Year())
}
