// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/psilva/grana/domain/finance"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// User represents a user account. All finance records are scoped to a
// user; queries filter on owner, never on primary key alone.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStore persists user accounts.
type UserStore interface {
	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (User, error)

	// Create stores a new user.
	Create(ctx context.Context, u User) error
}

// BalanceAdjustment describes one guarded mutation of a card's available
// balance together with its audit entry. The store applies the delta and
// writes the ledger row in a single transaction; a delta that would take
// the balance negative fails the whole operation.
type BalanceAdjustment struct {
	CardID        string
	OwnerID       string
	Delta         int64 // cents, signed
	Operation     finance.LedgerOperation
	ReferenceType finance.LedgerReference
	ReferenceID   string
	Description   string
}

// CardStore persists credit cards.
type CardStore interface {
	// Get retrieves a card by ID, scoped to its owner.
	Get(ctx context.Context, ownerID, id string) (finance.Card, error)

	// ListByOwner returns all of a user's cards.
	ListByOwner(ctx context.Context, ownerID string) ([]finance.Card, error)

	// Create stores a new card. A non-zero initial balance writes an
	// initial_balance ledger entry in the same transaction.
	Create(ctx context.Context, c finance.Card) error

	// Update modifies a card's configuration. It never touches
	// AvailableBalance; balance changes go through AdjustBalance.
	Update(ctx context.Context, c finance.Card) error

	// Delete removes a card and cascades to its invoices, purchases
	// and ledger history.
	Delete(ctx context.Context, ownerID, id string) error

	// AdjustBalance atomically applies a balance delta and records the
	// ledger entry. Returns finance.ErrInsufficientBalance when the
	// delta would take the balance below zero.
	AdjustBalance(ctx context.Context, adj BalanceAdjustment) error
}

// CategoryStore persists transaction categories.
type CategoryStore interface {
	// Get retrieves a category by ID, scoped to its owner.
	Get(ctx context.Context, ownerID, id string) (finance.Category, error)

	// ListByOwner returns all of a user's categories.
	ListByOwner(ctx context.Context, ownerID string) ([]finance.Category, error)

	// Create stores a new category.
	Create(ctx context.Context, c finance.Category) error

	// Update modifies a category.
	Update(ctx context.Context, c finance.Category) error

	// Delete removes a category. Transactions keep a null category.
	Delete(ctx context.Context, ownerID, id string) error

	// GetOrCreate returns the category with the given name and type,
	// creating it if absent. Idempotent under concurrent calls.
	GetOrCreate(ctx context.Context, c finance.Category) (finance.Category, error)
}

// Closing is the record-level plan for closing one invoice, produced by
// the closing service from a billing.Resolution. The store executes it
// in a single transaction.
type Closing struct {
	OwnerID           string
	InvoiceID         string
	CardID            string
	NextStatus        finance.InvoiceStatus
	AmountFromBalance int64 // cents deducted from the card balance
	LedgerDescription string

	// Remainder, when set, is the expense transaction for the amount
	// the balance did not cover. Category is resolved get-or-create
	// inside the same transaction and assigned to it.
	Remainder *finance.Transaction
	Category  finance.Category
}

// InvoiceStore persists card invoices.
type InvoiceStore interface {
	// Get retrieves an invoice by ID, scoped to its owner.
	Get(ctx context.Context, ownerID, id string) (finance.Invoice, error)

	// ListByCard returns a card's invoices, newest period first.
	ListByCard(ctx context.Context, ownerID, cardID string) ([]finance.Invoice, error)

	// GetOrCreateOpen finds the open invoice for the given card and
	// reference period, inserting it atomically when absent. At most
	// one open invoice ever exists per (card, month, year).
	GetOrCreateOpen(ctx context.Context, inv finance.Invoice) (finance.Invoice, error)

	// SumPurchases returns the total purchase amount on an invoice.
	SumPurchases(ctx context.Context, ownerID, invoiceID string) (int64, error)

	// ApplyClosing executes an invoice closing atomically: flips the
	// open invoice to its next status, deducts the balance offset from
	// the card (with a ledger entry), and, when Remainder is set,
	// gets-or-creates its category and inserts the settlement expense.
	// Returns finance.ErrInvoiceNotOpen when the invoice was already
	// closed, making closing exactly-once.
	ApplyClosing(ctx context.Context, c Closing) error
}

// PurchaseBatch groups the installment rows of one logical purchase.
// The store creates the needed invoices and all purchase rows in a
// single transaction, so a failed insert leaves no stray invoices.
// Purchases reference their invoice by (ReferenceMonth, ReferenceYear)
// through the matching entry in Invoices.
type PurchaseBatch struct {
	Card      finance.Card
	Invoices  []finance.Invoice // one per distinct period
	Purchases []finance.Purchase
	Periods   []PeriodKey // Periods[i] locates Purchases[i]'s invoice
}

// PeriodKey identifies an invoice period within a batch.
type PeriodKey struct {
	Month int
	Year  int
}

// PurchaseStore persists card purchases.
type PurchaseStore interface {
	// Get retrieves a purchase by ID, scoped to its owner.
	Get(ctx context.Context, ownerID, id string) (finance.Purchase, error)

	// ListByCard returns a card's purchases, newest first.
	ListByCard(ctx context.Context, ownerID, cardID string) ([]finance.Purchase, error)

	// ListByInvoice returns the purchases attached to an invoice.
	ListByInvoice(ctx context.Context, ownerID, invoiceID string) ([]finance.Purchase, error)

	// CreateBatch inserts a purchase's installment rows, creating any
	// missing open invoices, atomically.
	CreateBatch(ctx context.Context, batch PurchaseBatch) error

	// Update modifies a purchase's descriptive fields (description,
	// category, notes). The invoice link is immutable.
	Update(ctx context.Context, p finance.Purchase) error

	// Delete removes a single installment row.
	Delete(ctx context.Context, ownerID, id string) error

	// OutstandingByCard sums purchase amounts on the card's invoices
	// that are not yet paid. Feeds the credit limit check.
	OutstandingByCard(ctx context.Context, ownerID, cardID string) (int64, error)
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Type       finance.TransactionType // optional
	CategoryID string                  // optional
	CardID     string                  // optional
	Year       int                     // optional, with Month
	Month      int                     // optional
	Limit      int
	Offset     int
}

// Summary holds a month's aggregated figures for the dashboard.
type Summary struct {
	TotalIncome   int64
	TotalExpenses int64
	Balance       int64
	Count         int
}

// TransactionStore persists income/expense transactions. Writes that
// involve a card apply the balance effect and its ledger entry in the
// same transaction as the row mutation.
type TransactionStore interface {
	// Get retrieves a transaction by ID, scoped to its owner.
	Get(ctx context.Context, ownerID, id string) (finance.Transaction, error)

	// List returns a user's transactions, newest first.
	List(ctx context.Context, ownerID string, f TransactionFilter) ([]finance.Transaction, error)

	// Create inserts a transaction. When adj is non-nil the card
	// balance moves atomically with the insert.
	Create(ctx context.Context, t finance.Transaction, adj *BalanceAdjustment) error

	// Update rewrites a transaction. Revert undoes the old card effect
	// and apply applies the new one; both run in the row's update
	// transaction so a partial application can never be observed.
	Update(ctx context.Context, t finance.Transaction, revert, apply *BalanceAdjustment) error

	// Delete removes a transaction, reverting its card effect when
	// revert is non-nil.
	Delete(ctx context.Context, ownerID, id string, revert *BalanceAdjustment) error

	// Summary aggregates a month's totals.
	Summary(ctx context.Context, ownerID string, year, month int) (Summary, error)
}

// LedgerStore reads the card balance audit trail. Entries are written by
// CardStore, TransactionStore and InvoiceStore as side effects of their
// guarded mutations; nothing writes ledger rows directly.
type LedgerStore interface {
	// ListByCard returns a card's ledger entries, newest first.
	ListByCard(ctx context.Context, ownerID, cardID string, limit int) ([]finance.LedgerEntry, error)
}
