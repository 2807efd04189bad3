package finance_test

import (
	"testing"
	"time"

	"github.com/psilva/grana/domain/finance"
)

func validCard() finance.Card {
	return finance.Card{
		Name:        "Nubank",
		LastDigits:  "4321",
		CreditLimit: 500000,
		ClosingDay:  10,
		DueDay:      20,
		Color:       "#8a05be",
		IsActive:    true,
	}
}

func TestCard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*finance.Card)
		wantErr bool
	}{
		{"valid", func(c *finance.Card) {}, false},
		{"no last digits is fine", func(c *finance.Card) { c.LastDigits = "" }, false},
		{"empty name", func(c *finance.Card) { c.Name = "" }, true},
		{"three digit suffix", func(c *finance.Card) { c.LastDigits = "432" }, true},
		{"zero limit", func(c *finance.Card) { c.CreditLimit = 0 }, true},
		{"negative balance", func(c *finance.Card) { c.AvailableBalance = -1 }, true},
		{"closing day 0", func(c *finance.Card) { c.ClosingDay = 0 }, true},
		{"closing day 32", func(c *finance.Card) { c.ClosingDay = 32 }, true},
		{"due day 0", func(c *finance.Card) { c.DueDay = 0 }, true},
		{"bad color", func(c *finance.Card) { c.Color = "purple" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCard()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCard_StatusWith(t *testing.T) {
	c := validCard()

	st := c.StatusWith(120000)
	if st.CurrentDebt != 120000 {
		t.Errorf("CurrentDebt = %d, want 120000", st.CurrentDebt)
	}
	if st.AvailableCredit != 380000 {
		t.Errorf("AvailableCredit = %d, want 380000", st.AvailableCredit)
	}

	// Debt past the limit never reports negative credit.
	st = c.StatusWith(600000)
	if st.AvailableCredit != 0 {
		t.Errorf("AvailableCredit = %d, want 0", st.AvailableCredit)
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := finance.Transaction{
		Title:  "Salário",
		Amount: 350000,
		Type:   finance.TypeIncome,
		Date:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(*finance.Transaction)
	}{
		{"empty title", func(tr *finance.Transaction) { tr.Title = "" }},
		{"zero amount", func(tr *finance.Transaction) { tr.Amount = 0 }},
		{"negative amount", func(tr *finance.Transaction) { tr.Amount = -100 }},
		{"bad type", func(tr *finance.Transaction) { tr.Type = "transfer" }},
		{"zero date", func(tr *finance.Transaction) { tr.Date = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			if tr.Validate() == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	valid := finance.Category{
		Name:  "Alimentação",
		Type:  finance.TypeExpense,
		Color: "#22c55e",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	bad := valid
	bad.Type = "savings"
	if bad.Validate() == nil {
		t.Error("expected error for unknown type")
	}
}

func TestBalanceDelta(t *testing.T) {
	if got := finance.BalanceDelta(finance.TypeIncome, 500); got != 500 {
		t.Errorf("income delta = %d, want 500", got)
	}
	if got := finance.BalanceDelta(finance.TypeExpense, 500); got != -500 {
		t.Errorf("expense delta = %d, want -500", got)
	}
}

func TestRevertDelta_IsExactInverse(t *testing.T) {
	for _, typ := range []finance.TransactionType{finance.TypeIncome, finance.TypeExpense} {
		apply := finance.BalanceDelta(typ, 1234)
		revert := finance.RevertDelta(typ, 1234)
		if apply+revert != 0 {
			t.Errorf("%s: apply %d + revert %d != 0", typ, apply, revert)
		}
	}
}

func TestOperationFor(t *testing.T) {
	if finance.OperationFor(finance.TypeIncome) != finance.OpTransactionIncome {
		t.Error("income should map to transaction_income")
	}
	if finance.OperationFor(finance.TypeExpense) != finance.OpTransactionExpense {
		t.Error("expense should map to transaction_expense")
	}
}

func TestCreditLimitError_Shortfall(t *testing.T) {
	err := &finance.CreditLimitError{Limit: 100000, Outstanding: 95000, Amount: 10000}
	if err.Shortfall() != 5000 {
		t.Errorf("Shortfall() = %d, want 5000", err.Shortfall())
	}
	if err.Error() == "" {
		t.Error("Error() should describe the rejection")
	}
}
