package billing

import "github.com/psilva/grana/domain/finance"

// CheckLimit validates a prospective credit purchase against the card's
// limit. Outstanding is the sum of purchase amounts on the card's open
// and closed-unpaid invoices. Returns a *finance.CreditLimitError
// carrying the shortfall when the purchase would not fit.
//
// Only credit purchases consume the limit; callers skip this check for
// debit. The check runs before any invoice or purchase row is written,
// never retroactively.
func CheckLimit(creditLimit, outstanding, amount int64) error {
	if outstanding+amount > creditLimit {
		return &finance.CreditLimitError{
			Limit:       creditLimit,
			Outstanding: outstanding,
			Amount:      amount,
		}
	}
	return nil
}
