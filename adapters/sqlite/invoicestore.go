package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// InvoiceStore implements ports.InvoiceStore using SQLite.
type InvoiceStore struct {
	db  *DB
	ids ports.IDGenerator
}

// NewInvoiceStore creates a new SQLite invoice store.
func NewInvoiceStore(db *DB, ids ports.IDGenerator) *InvoiceStore {
	return &InvoiceStore{db: db, ids: ids}
}

var _ ports.InvoiceStore = (*InvoiceStore)(nil)

// Get retrieves an invoice by ID, scoped to its owner.
func (s *InvoiceStore) Get(ctx context.Context, ownerID, id string) (finance.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, card_id, reference_month, reference_year,
		       closing_date, due_date, status, paid_amount, created_at, updated_at
		FROM invoices
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	return scanInvoice(row)
}

// ListByCard returns a card's invoices, newest period first.
func (s *InvoiceStore) ListByCard(ctx context.Context, ownerID, cardID string) ([]finance.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, card_id, reference_month, reference_year,
		       closing_date, due_date, status, paid_amount, created_at, updated_at
		FROM invoices
		WHERE card_id = ? AND owner_id = ?
		ORDER BY reference_year DESC, reference_month DESC
	`, cardID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []finance.Invoice
	for rows.Next() {
		var inv finance.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.OwnerID, &inv.CardID, &inv.ReferenceMonth, &inv.ReferenceYear,
			&inv.ClosingDate, &inv.DueDate, &inv.Status, &inv.PaidAmount, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// GetOrCreateOpen finds the open invoice for the card and reference
// period, inserting it when absent. The partial unique index on open
// invoices makes the insert race-safe.
func (s *InvoiceStore) GetOrCreateOpen(ctx context.Context, inv finance.Invoice) (finance.Invoice, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return finance.Invoice{}, err
	}
	defer tx.Rollback()

	out, err := getOrCreateOpenTx(ctx, tx, inv)
	if err != nil {
		return finance.Invoice{}, err
	}

	if err := tx.Commit(); err != nil {
		return finance.Invoice{}, err
	}
	return out, nil
}

func getOrCreateOpenTx(ctx context.Context, tx *sql.Tx, inv finance.Invoice) (finance.Invoice, error) {
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = now
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO invoices (id, owner_id, card_id, reference_month, reference_year,
		                      closing_date, due_date, status, paid_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'open', 0, ?, ?)
		ON CONFLICT DO NOTHING
	`, inv.ID, inv.OwnerID, inv.CardID, inv.ReferenceMonth, inv.ReferenceYear,
		inv.ClosingDate, inv.DueDate, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return finance.Invoice{}, err
	}

	row := tx.QueryRowContext(ctx, `
		SELECT id, owner_id, card_id, reference_month, reference_year,
		       closing_date, due_date, status, paid_amount, created_at, updated_at
		FROM invoices
		WHERE owner_id = ? AND card_id = ? AND reference_month = ? AND reference_year = ? AND status = 'open'
	`, inv.OwnerID, inv.CardID, inv.ReferenceMonth, inv.ReferenceYear)
	return scanInvoice(row)
}

// SumPurchases returns the total purchase amount on an invoice.
func (s *InvoiceStore) SumPurchases(ctx context.Context, ownerID, invoiceID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM purchases
		WHERE invoice_id = ? AND owner_id = ?
	`, invoiceID, ownerID).Scan(&total)
	return total, err
}

// ApplyClosing executes an invoice closing in one transaction: status
// flip, balance deduction with its ledger entry, and the settlement
// expense for any remainder. The status flip's WHERE status = 'open'
// makes closing exactly-once.
func (s *InvoiceStore) ApplyClosing(ctx context.Context, c ports.Closing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx, `
		UPDATE invoices
		SET status = ?, paid_amount = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND status = 'open'
	`, string(c.NextStatus), c.AmountFromBalance, now, c.InvoiceID, c.OwnerID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return finance.ErrInvoiceNotOpen
	}

	if c.AmountFromBalance > 0 {
		adj := ports.BalanceAdjustment{
			CardID:        c.CardID,
			OwnerID:       c.OwnerID,
			Delta:         -c.AmountFromBalance,
			Operation:     finance.OpInvoicePayment,
			ReferenceType: finance.RefInvoice,
			ReferenceID:   c.InvoiceID,
			Description:   c.LedgerDescription,
		}
		if err := adjustBalanceTx(ctx, tx, s.ids, adj, now); err != nil {
			if errors.Is(err, finance.ErrInsufficientBalance) {
				return fmt.Errorf("%w: card balance changed during closing", finance.ErrInconsistentState)
			}
			return err
		}
	}

	if c.Remainder != nil {
		cat := c.Category
		if cat.CreatedAt.IsZero() {
			cat.CreatedAt = now
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, owner_id, name, type, color, icon, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (owner_id, name) DO NOTHING
		`, cat.ID, cat.OwnerID, cat.Name, string(cat.Type), cat.Color, cat.Icon, cat.CreatedAt)
		if err != nil {
			return err
		}

		var categoryID string
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM categories WHERE owner_id = ? AND name = ?
		`, cat.OwnerID, cat.Name).Scan(&categoryID)
		if err != nil {
			return err
		}

		t := c.Remainder
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (id, owner_id, title, amount, type, date,
			                          category_id, card_id, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.OwnerID, t.Title, t.Amount, string(t.Type), t.Date,
			categoryID, nullString(t.CardID), t.Description, now, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanInvoice(row *sql.Row) (finance.Invoice, error) {
	var inv finance.Invoice
	err := row.Scan(
		&inv.ID, &inv.OwnerID, &inv.CardID, &inv.ReferenceMonth, &inv.ReferenceYear,
		&inv.ClosingDate, &inv.DueDate, &inv.Status, &inv.PaidAmount, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Invoice{}, ErrNotFound
	}
	if err != nil {
		return finance.Invoice{}, err
	}
	return inv, nil
}
