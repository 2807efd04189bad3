package billing

import (
	"strconv"
	"time"
)

// Installment is one planned share of a purchase: its own date, its own
// invoice period and its cent-exact amount. The store turns a slice of
// these into purchase rows inside a single transaction.
type Installment struct {
	Number      int // 1-based
	Description string
	Amount      int64 // cents
	Date        time.Time
	Period      Period
}

// SplitPurchase expands a purchase total into count installments, one
// calendar month apart, each assigned to its own invoice period.
//
// Amounts use largest-remainder allocation: every installment gets
// total/count cents and the first total%count installments get one
// extra cent, so the sum always reconstructs the total exactly.
// A single-installment purchase keeps the description untouched;
// otherwise each gets an " (i/N)" suffix.
func SplitPurchase(description string, total int64, count int, purchaseDate time.Time, closingDay, dueDay int) []Installment {
	if count < 1 {
		count = 1
	}

	base := total / int64(count)
	remainder := total % int64(count)

	installments := make([]Installment, count)
	for i := 0; i < count; i++ {
		amount := base
		if int64(i) < remainder {
			amount++
		}

		date := AddMonths(purchaseDate, i)
		desc := description
		if count > 1 {
			desc = description + " (" + strconv.Itoa(i+1) + "/" + strconv.Itoa(count) + ")"
		}

		installments[i] = Installment{
			Number:      i + 1,
			Description: desc,
			Amount:      amount,
			Date:        date,
			Period:      PeriodFor(date, closingDay, dueDay),
		}
	}
	return installments
}
