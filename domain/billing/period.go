// Package billing provides the pure functions of the credit-card billing
// engine: invoice period assignment, installment splitting, credit limit
// checks and invoice closing resolution. Nothing here touches storage.
package billing

import "time"

// Period locates the invoice a purchase date belongs to for a given card
// billing cycle. The reference month/year is the calendar month of the
// closing date and identifies the invoice uniquely per card.
type Period struct {
	ClosingDate    time.Time
	DueDate        time.Time
	ReferenceMonth int // 1..12
	ReferenceYear  int
}

// PeriodFor maps a purchase date and a card's billing cycle to the
// period of the invoice the purchase lands on.
//
// A purchase on or before the closing day belongs to the invoice closing
// in its own month; after the closing day it rolls to the next month.
// When the due day numerically precedes the closing day, the real due
// date falls in the month after closing, so it is shifted one further
// month. Days beyond the target month's length clamp to its last day.
func PeriodFor(purchaseDate time.Time, closingDay, dueDay int) Period {
	year, month, day := purchaseDate.Date()

	closingMonth := int(month)
	if day > closingDay {
		closingMonth++
	}

	closing := clampDate(year, closingMonth, closingDay)
	due := clampDate(year, closingMonth, dueDay)
	if dueDay < closingDay {
		due = clampDate(year, closingMonth+1, dueDay)
	}

	return Period{
		ClosingDate:    closing,
		DueDate:        due,
		ReferenceMonth: int(closing.Month()),
		ReferenceYear:  closing.Year(),
	}
}

// AddMonths shifts a date forward by n calendar months, preserving the
// day-of-month where valid and clamping to the last day otherwise
// (Jan 31 + 1 month = Feb 28/29).
func AddMonths(date time.Time, n int) time.Time {
	year, month, day := date.Date()
	return clampDate(year, int(month)+n, day)
}

// clampDate builds a UTC date, normalizing month overflow and clamping
// the day to the target month's length.
func clampDate(year, month, day int) time.Time {
	// Normalize month to 1..12, carrying into the year.
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}

	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the number of days in a month.
func daysIn(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
