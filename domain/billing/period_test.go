package billing_test

import (
	"testing"
	"time"

	"github.com/psilva/grana/domain/billing"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodFor_SameMonth(t *testing.T) {
	// Purchase on or before the closing day closes this month.
	p := billing.PeriodFor(date(2026, 3, 5), 10, 20)

	if !p.ClosingDate.Equal(date(2026, 3, 10)) {
		t.Errorf("ClosingDate = %v, want 2026-03-10", p.ClosingDate)
	}
	if !p.DueDate.Equal(date(2026, 3, 20)) {
		t.Errorf("DueDate = %v, want 2026-03-20", p.DueDate)
	}
	if p.ReferenceMonth != 3 || p.ReferenceYear != 2026 {
		t.Errorf("reference = %d/%d, want 3/2026", p.ReferenceMonth, p.ReferenceYear)
	}
}

func TestPeriodFor_NextMonth(t *testing.T) {
	// Purchase after the closing day rolls to next month's invoice.
	p := billing.PeriodFor(date(2026, 3, 11), 10, 20)

	if !p.ClosingDate.Equal(date(2026, 4, 10)) {
		t.Errorf("ClosingDate = %v, want 2026-04-10", p.ClosingDate)
	}
	if !p.DueDate.Equal(date(2026, 4, 20)) {
		t.Errorf("DueDate = %v, want 2026-04-20", p.DueDate)
	}
}

func TestPeriodFor_ClosingMonthBoundary(t *testing.T) {
	tests := []struct {
		name       string
		purchase   time.Time
		closingDay int
		wantMonth  int
		wantYear   int
	}{
		{"on closing day", date(2026, 5, 15), 15, 5, 2026},
		{"day after closing", date(2026, 5, 16), 15, 6, 2026},
		{"december rollover", date(2026, 12, 28), 20, 1, 2027},
		{"first of month", date(2026, 7, 1), 1, 7, 2026},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := billing.PeriodFor(tt.purchase, tt.closingDay, 10)
			if p.ReferenceMonth != tt.wantMonth || p.ReferenceYear != tt.wantYear {
				t.Errorf("reference = %d/%d, want %d/%d",
					p.ReferenceMonth, p.ReferenceYear, tt.wantMonth, tt.wantYear)
			}
		})
	}
}

func TestPeriodFor_DueBeforeClosing(t *testing.T) {
	// Due day 5 < closing day 25: the real due date is in the month
	// after closing.
	p := billing.PeriodFor(date(2026, 3, 20), 25, 5)

	if !p.ClosingDate.Equal(date(2026, 3, 25)) {
		t.Errorf("ClosingDate = %v, want 2026-03-25", p.ClosingDate)
	}
	if !p.DueDate.Equal(date(2026, 4, 5)) {
		t.Errorf("DueDate = %v, want 2026-04-05", p.DueDate)
	}

	// Due month must be strictly after the closing month.
	if !p.DueDate.After(p.ClosingDate) {
		t.Error("due date must follow closing date")
	}
}

func TestPeriodFor_DueBeforeClosing_YearRollover(t *testing.T) {
	p := billing.PeriodFor(date(2026, 12, 26), 25, 5)

	if !p.ClosingDate.Equal(date(2027, 1, 25)) {
		t.Errorf("ClosingDate = %v, want 2027-01-25", p.ClosingDate)
	}
	if !p.DueDate.Equal(date(2027, 2, 5)) {
		t.Errorf("DueDate = %v, want 2027-02-05", p.DueDate)
	}
}

func TestPeriodFor_ClampsToMonthLength(t *testing.T) {
	tests := []struct {
		name        string
		purchase    time.Time
		closingDay  int
		dueDay      int
		wantClosing time.Time
	}{
		{"day 31 in april", date(2026, 4, 2), 31, 31, date(2026, 4, 30)},
		{"day 30 in february", date(2026, 2, 1), 30, 30, date(2026, 2, 28)},
		{"day 29 in leap february", date(2028, 2, 1), 29, 29, date(2028, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := billing.PeriodFor(tt.purchase, tt.closingDay, tt.dueDay)
			if !p.ClosingDate.Equal(tt.wantClosing) {
				t.Errorf("ClosingDate = %v, want %v", p.ClosingDate, tt.wantClosing)
			}
		})
	}
}

func TestPeriodFor_Deterministic(t *testing.T) {
	// Called repeatedly per installment; must be referentially transparent.
	a := billing.PeriodFor(date(2026, 6, 18), 12, 5)
	b := billing.PeriodFor(date(2026, 6, 18), 12, 5)
	if a != b {
		t.Errorf("PeriodFor not deterministic: %+v vs %+v", a, b)
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		n    int
		want time.Time
	}{
		{"simple", date(2026, 1, 15), 1, date(2026, 2, 15)},
		{"preserves day", date(2026, 1, 5), 3, date(2026, 4, 5)},
		{"clamps jan 31 to feb", date(2026, 1, 31), 1, date(2026, 2, 28)},
		{"clamps to leap feb", date(2028, 1, 31), 1, date(2028, 2, 29)},
		{"year rollover", date(2026, 11, 10), 3, date(2027, 2, 10)},
		{"zero months", date(2026, 8, 8), 0, date(2026, 8, 8)},
		{"many months", date(2026, 1, 31), 11, date(2026, 12, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.AddMonths(tt.from, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.from, tt.n, got, tt.want)
			}
		})
	}
}
