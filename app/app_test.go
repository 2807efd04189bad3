package app_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/psilva/grana/adapters/auth"
	"github.com/psilva/grana/adapters/clock"
	"github.com/psilva/grana/adapters/hasher"
	"github.com/psilva/grana/adapters/idgen"
	"github.com/psilva/grana/adapters/metrics"
	"github.com/psilva/grana/adapters/sqlite"
	"github.com/psilva/grana/app"
	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// testEnv wires every service against a temp SQLite database.
type testEnv struct {
	db    *sqlite.DB
	clock *clock.Fake

	auth         *app.AuthService
	cards        *app.CardService
	categories   *app.CategoryService
	transactions *app.TransactionService
	purchases    *app.PurchaseService
	closing      *app.ClosingService
	dashboard    *app.DashboardService

	owner string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	f, err := os.CreateTemp("", "grana-app-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(path)
	})

	fc := clock.NewFake(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	ids := idgen.NewSequential("id-")
	m, _ := metrics.New()
	logger := zerolog.Nop()

	users := sqlite.NewUserStore(db)
	cards := sqlite.NewCardStore(db, ids)
	categories := sqlite.NewCategoryStore(db)
	invoices := sqlite.NewInvoiceStore(db, ids)
	purchases := sqlite.NewPurchaseStore(db)
	transactions := sqlite.NewTransactionStore(db, ids)
	ledger := sqlite.NewLedgerStore(db)
	tokens := auth.NewTokenService("test-secret", time.Hour)

	env := &testEnv{
		db:           db,
		clock:        fc,
		auth:         app.NewAuthService(users, hasher.Fake{}, ids, tokens, m, logger),
		cards:        app.NewCardService(cards, purchases, ledger, ids, fc, m, logger),
		categories:   app.NewCategoryService(categories, ids, fc, logger),
		transactions: app.NewTransactionService(transactions, cards, ids, fc, m, logger),
		purchases:    app.NewPurchaseService(purchases, cards, ids, fc, m, logger),
		closing:      app.NewClosingService(invoices, purchases, cards, ids, fc, m, logger),
		dashboard:    app.NewDashboardService(transactions, cards, purchases, fc, logger),
	}

	u, _, err := env.auth.Register(context.Background(), "dev@example.com", "Dev", "password123")
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	env.owner = u.ID
	return env
}

func (e *testEnv) newCard(t *testing.T, balance int64) finance.Card {
	t.Helper()
	c, err := e.cards.Create(context.Background(), finance.Card{
		OwnerID:          e.owner,
		Name:             "Nubank",
		CreditLimit:      500000,
		AvailableBalance: balance,
		ClosingDay:       10,
		DueDay:           20,
		Color:            "#820ad1",
	})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	return c
}

// -----------------------------------------------------------------------------
// AuthService
// -----------------------------------------------------------------------------

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	u, token, err := env.auth.Register(ctx, "Ana@Example.com ", "Ana", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Errorf("email = %q, want normalized lowercase", u.Email)
	}
	if token == "" {
		t.Error("register returned empty token")
	}

	_, token, err = env.auth.Login(ctx, "ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Error("login returned empty token")
	}

	if _, _, err := env.auth.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Errorf("bad password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := env.auth.Login(ctx, "ghost@example.com", "s3cret-pass"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	var vErr *finance.ValidationError
	if _, _, err := env.auth.Register(ctx, "not-an-email", "X", "password123"); !errors.As(err, &vErr) {
		t.Errorf("bad email err = %v, want ValidationError", err)
	}
	if _, _, err := env.auth.Register(ctx, "ok@example.com", "X", "short"); !errors.As(err, &vErr) {
		t.Errorf("short password err = %v, want ValidationError", err)
	}
}

// -----------------------------------------------------------------------------
// PurchaseService
// -----------------------------------------------------------------------------

func TestPurchaseService_SplitAcrossInvoices(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	created, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID:       env.owner,
		CardID:        card.ID,
		Description:   "Notebook",
		TotalAmount:   100001, // does not divide evenly by 3
		Installments:  3,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("installments = %d, want 3", len(created))
	}

	var total int64
	for _, p := range created {
		total += p.Amount
	}
	if total != 100001 {
		t.Errorf("installment sum = %d, want 100001", total)
	}

	invoices, err := env.closing.ListByCard(ctx, env.owner, card.ID)
	if err != nil {
		t.Fatalf("list invoices: %v", err)
	}
	if len(invoices) != 3 {
		t.Fatalf("invoices = %d, want 3 (March, April, May)", len(invoices))
	}
	// Newest first: May, April, March.
	if invoices[0].ReferenceMonth != 5 || invoices[2].ReferenceMonth != 3 {
		t.Errorf("periods = %d..%d, want 5..3", invoices[0].ReferenceMonth, invoices[2].ReferenceMonth)
	}
}

func TestPurchaseService_SameMonthReusesInvoice(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	for _, desc := range []string{"Mercado", "Farmácia"} {
		_, err := env.purchases.Create(ctx, app.PurchaseInput{
			OwnerID: env.owner, CardID: card.ID,
			Description: desc, TotalAmount: 10000, Installments: 1,
			PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			PaymentMethod: finance.PaymentCredit,
		})
		if err != nil {
			t.Fatalf("create %s: %v", desc, err)
		}
	}

	invoices, _ := env.closing.ListByCard(ctx, env.owner, card.ID)
	if len(invoices) != 1 {
		t.Fatalf("invoices = %d, want 1 shared open invoice", len(invoices))
	}

	detail, err := env.closing.Get(ctx, env.owner, invoices[0].ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if len(detail.Purchases) != 2 || detail.Total != 20000 {
		t.Errorf("detail = %d purchases totaling %d, want 2 / 20000", len(detail.Purchases), detail.Total)
	}
}

func TestPurchaseService_CreditLimitRejected(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0) // limit 500000

	_, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Primeira", TotalAmount: 400000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	_, err = env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Estouro", TotalAmount: 150000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	var limitErr *finance.CreditLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("err = %v, want CreditLimitError", err)
	}
	if limitErr.Shortfall() != 50000 {
		t.Errorf("shortfall = %d, want 50000", limitErr.Shortfall())
	}

	// The rejected purchase left nothing behind.
	list, _ := env.purchases.ListByCard(ctx, env.owner, card.ID)
	if len(list) != 1 {
		t.Errorf("purchases = %d, want 1", len(list))
	}
}

func TestPurchaseService_DebitSkipsLimitCheck(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	// 600000 would blow the 500000 limit on credit, but debit purchases
	// are not limited.
	_, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Débito grande", TotalAmount: 600000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentDebit,
	})
	if err != nil {
		t.Fatalf("debit purchase: %v", err)
	}
}

func TestPurchaseService_InactiveCard(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	card.IsActive = false
	if _, err := env.cards.Update(ctx, card); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	var vErr *finance.ValidationError
	_, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 1000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if !errors.As(err, &vErr) {
		t.Errorf("err = %v, want ValidationError for inactive card", err)
	}
}

func TestPurchaseService_InputValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	base := app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 1000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	}

	tests := []struct {
		name   string
		mutate func(*app.PurchaseInput)
	}{
		{"empty description", func(in *app.PurchaseInput) { in.Description = "" }},
		{"zero amount", func(in *app.PurchaseInput) { in.TotalAmount = 0 }},
		{"negative amount", func(in *app.PurchaseInput) { in.TotalAmount = -100 }},
		{"zero installments", func(in *app.PurchaseInput) { in.Installments = 0 }},
		{"too many installments", func(in *app.PurchaseInput) { in.Installments = 49 }},
		{"zero date", func(in *app.PurchaseInput) { in.PurchaseDate = time.Time{} }},
		{"bad method", func(in *app.PurchaseInput) { in.PaymentMethod = "pix" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			var vErr *finance.ValidationError
			if _, err := env.purchases.Create(ctx, in); !errors.As(err, &vErr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ClosingService
// -----------------------------------------------------------------------------

func TestClosingService_FullyCoveredGoesPaid(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 50000)

	_, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 30000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	invoices, _ := env.closing.ListByCard(ctx, env.owner, card.ID)
	result, err := env.closing.Close(ctx, env.owner, invoices[0].ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if result.Invoice.Status != finance.InvoiceStatusPaid {
		t.Errorf("status = %q, want paid", result.Invoice.Status)
	}
	if result.Resolution.AmountFromBalance != 30000 || result.Resolution.AmountToPay != 0 {
		t.Errorf("resolution = %+v", result.Resolution)
	}

	c, _ := env.cards.Get(ctx, env.owner, card.ID)
	if c.AvailableBalance != 20000 {
		t.Errorf("balance = %d, want 20000", c.AvailableBalance)
	}

	// No settlement expense was created.
	list, _ := env.transactions.List(ctx, env.owner, ports.TransactionFilter{Type: finance.TypeExpense})
	if len(list) != 0 {
		t.Errorf("expenses = %d, want 0", len(list))
	}
}

func TestClosingService_RemainderBecomesExpense(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 10000)

	_, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 30000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	invoices, _ := env.closing.ListByCard(ctx, env.owner, card.ID)
	result, err := env.closing.Close(ctx, env.owner, invoices[0].ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if result.Invoice.Status != finance.InvoiceStatusClosed {
		t.Errorf("status = %q, want closed", result.Invoice.Status)
	}
	if result.Invoice.PaidAmount != 10000 {
		t.Errorf("paid amount = %d, want 10000", result.Invoice.PaidAmount)
	}

	c, _ := env.cards.Get(ctx, env.owner, card.ID)
	if c.AvailableBalance != 0 {
		t.Errorf("balance = %d, want 0", c.AvailableBalance)
	}

	expenses, _ := env.transactions.List(ctx, env.owner, ports.TransactionFilter{Type: finance.TypeExpense})
	if len(expenses) != 1 {
		t.Fatalf("expenses = %d, want 1 settlement", len(expenses))
	}
	settle := expenses[0]
	if settle.Amount != 20000 {
		t.Errorf("settlement amount = %d, want 20000", settle.Amount)
	}
	if settle.Title != "Fatura Nubank - março/2026" {
		t.Errorf("settlement title = %q", settle.Title)
	}

	cat, err := env.categories.Get(ctx, env.owner, settle.CategoryID)
	if err != nil {
		t.Fatalf("settlement category: %v", err)
	}
	if cat.Name != finance.CreditCardCategoryName {
		t.Errorf("category = %q, want %q", cat.Name, finance.CreditCardCategoryName)
	}
}

func TestClosingService_SettlementReusesExistingCategory(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	// Category names are unique per owner regardless of type, so a
	// user-created category with the settlement name is reused as-is.
	existing, err := env.categories.Create(ctx, finance.Category{
		OwnerID: env.owner,
		Name:    finance.CreditCardCategoryName,
		Type:    finance.TypeIncome,
		Color:   "#00ff00",
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	_, err = env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 5000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	invoices, _ := env.closing.ListByCard(ctx, env.owner, card.ID)
	if _, err := env.closing.Close(ctx, env.owner, invoices[0].ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	expenses, _ := env.transactions.List(ctx, env.owner, ports.TransactionFilter{Type: finance.TypeExpense})
	if len(expenses) != 1 {
		t.Fatalf("expenses = %d, want 1 settlement", len(expenses))
	}
	if expenses[0].CategoryID != existing.ID {
		t.Errorf("settlement category = %q, want existing %q", expenses[0].CategoryID, existing.ID)
	}
}

func TestClosingService_ExactlyOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 100000)

	_, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 30000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	invoices, _ := env.closing.ListByCard(ctx, env.owner, card.ID)
	if _, err := env.closing.Close(ctx, env.owner, invoices[0].ID); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if _, err := env.closing.Close(ctx, env.owner, invoices[0].ID); !errors.Is(err, finance.ErrInvoiceNotOpen) {
		t.Fatalf("second close err = %v, want ErrInvoiceNotOpen", err)
	}

	c, _ := env.cards.Get(ctx, env.owner, card.ID)
	if c.AvailableBalance != 70000 {
		t.Errorf("balance = %d, want 70000 (deducted once)", c.AvailableBalance)
	}
}

func TestClosingService_EmptyInvoiceGoesPaid(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	// Create then delete the only purchase, leaving an empty open invoice.
	created, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 1000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if err := env.purchases.Delete(ctx, env.owner, created[0].ID); err != nil {
		t.Fatalf("delete purchase: %v", err)
	}

	invoices, _ := env.closing.ListByCard(ctx, env.owner, card.ID)
	result, err := env.closing.Close(ctx, env.owner, invoices[0].ID)
	if err != nil {
		t.Fatalf("close empty invoice: %v", err)
	}
	if result.Invoice.Status != finance.InvoiceStatusPaid {
		t.Errorf("status = %q, want paid (zero total)", result.Invoice.Status)
	}
	if result.Resolution.AmountFromBalance != 0 {
		t.Errorf("from balance = %d, want 0", result.Resolution.AmountFromBalance)
	}
}

// -----------------------------------------------------------------------------
// TransactionService
// -----------------------------------------------------------------------------

func TestTransactionService_CardBalanceLifecycle(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	income, err := env.transactions.Create(ctx, finance.Transaction{
		OwnerID: env.owner, Title: "Recarga", Amount: 20000,
		Type: finance.TypeIncome,
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CardID: card.ID,
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	c, _ := env.cards.Get(ctx, env.owner, card.ID)
	if c.AvailableBalance != 20000 {
		t.Errorf("balance after income = %d, want 20000", c.AvailableBalance)
	}

	// Edit the amount: the old effect is reverted before the new applies.
	income.Amount = 5000
	if _, err := env.transactions.Update(ctx, income); err != nil {
		t.Fatalf("update: %v", err)
	}
	c, _ = env.cards.Get(ctx, env.owner, card.ID)
	if c.AvailableBalance != 5000 {
		t.Errorf("balance after edit = %d, want 5000", c.AvailableBalance)
	}

	if err := env.transactions.Delete(ctx, env.owner, income.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	c, _ = env.cards.Get(ctx, env.owner, card.ID)
	if c.AvailableBalance != 0 {
		t.Errorf("balance after delete = %d, want 0", c.AvailableBalance)
	}
}

func TestTransactionService_ExpenseCannotOverdraw(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 1000)

	_, err := env.transactions.Create(ctx, finance.Transaction{
		OwnerID: env.owner, Title: "Compra", Amount: 1001,
		Type: finance.TypeExpense,
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CardID: card.ID,
	})
	if !errors.Is(err, finance.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	list, _ := env.transactions.List(ctx, env.owner, ports.TransactionFilter{})
	if len(list) != 0 {
		t.Errorf("transactions = %d, want 0 after rollback", len(list))
	}
}

func TestTransactionService_NoCardNoBalanceEffect(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 5000)

	_, err := env.transactions.Create(ctx, finance.Transaction{
		OwnerID: env.owner, Title: "Aluguel", Amount: 150000,
		Type: finance.TypeExpense,
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c, _ := env.cards.Get(ctx, env.owner, card.ID)
	if c.AvailableBalance != 5000 {
		t.Errorf("balance = %d, want 5000 untouched", c.AvailableBalance)
	}
}

// -----------------------------------------------------------------------------
// CardService
// -----------------------------------------------------------------------------

func TestCardService_StatusTracksOutstanding(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	_, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 120000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	status, err := env.cards.Status(ctx, env.owner, card.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.CurrentDebt != 120000 {
		t.Errorf("debt = %d, want 120000", status.CurrentDebt)
	}
	if status.AvailableCredit != 380000 {
		t.Errorf("available credit = %d, want 380000", status.AvailableCredit)
	}
}

func TestCardService_AdjustAndHistory(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 1000)

	if err := env.cards.Adjust(ctx, env.owner, card.ID, 4000, "Correção"); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if err := env.cards.Adjust(ctx, env.owner, card.ID, 0, "nada"); err == nil {
		t.Error("zero adjustment accepted")
	}

	entries, err := env.cards.History(ctx, env.owner, card.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// Initial balance entry plus the manual adjustment.
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Operation != finance.OpManualAdjustment || entries[0].NewBalance != 5000 {
		t.Errorf("head entry = %+v", entries[0])
	}
}

// -----------------------------------------------------------------------------
// DashboardService
// -----------------------------------------------------------------------------

func TestDashboardService_Summary(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	card := env.newCard(t, 0)

	seed := []finance.Transaction{
		{Title: "Salário", Amount: 500000, Type: finance.TypeIncome,
			Date: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{Title: "Mercado", Amount: 30000, Type: finance.TypeExpense,
			Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{Title: "Outro mês", Amount: 99999, Type: finance.TypeExpense,
			Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tr := range seed {
		tr.OwnerID = env.owner
		if _, err := env.transactions.Create(ctx, tr); err != nil {
			t.Fatalf("create %s: %v", tr.Title, err)
		}
	}

	_, err := env.purchases.Create(ctx, app.PurchaseInput{
		OwnerID: env.owner, CardID: card.ID,
		Description: "Compra", TotalAmount: 45000, Installments: 1,
		PurchaseDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: finance.PaymentCredit,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	// The fake clock sits in March 2026, so zero year/month defaults there.
	d, err := env.dashboard.Summary(ctx, env.owner, 0, 0)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if d.Year != 2026 || d.Month != 3 {
		t.Errorf("period = %d/%d, want 3/2026", d.Month, d.Year)
	}
	if d.TotalIncome != 500000 || d.TotalExpenses != 30000 || d.Balance != 470000 {
		t.Errorf("summary = %+v", d.Summary)
	}
	if len(d.Cards) != 1 || d.Cards[0].CurrentDebt != 45000 {
		t.Errorf("cards = %+v", d.Cards)
	}
}
