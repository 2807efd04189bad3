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

// PurchaseStore implements ports.PurchaseStore using SQLite.
type PurchaseStore struct {
	db *DB
}

// NewPurchaseStore creates a new SQLite purchase store.
func NewPurchaseStore(db *DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

var _ ports.PurchaseStore = (*PurchaseStore)(nil)

const purchaseColumns = `id, owner_id, card_id, invoice_id, category_id, description, amount,
	purchase_date, installments, installment_number, payment_method, notes, created_at`

// Get retrieves a purchase by ID, scoped to its owner.
func (s *PurchaseStore) Get(ctx context.Context, ownerID, id string) (finance.Purchase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	return scanPurchase(row)
}

// ListByCard returns a card's purchases, newest first.
func (s *PurchaseStore) ListByCard(ctx context.Context, ownerID, cardID string) ([]finance.Purchase, error) {
	return s.list(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE card_id = ? AND owner_id = ?
		ORDER BY purchase_date DESC, installment_number
	`, cardID, ownerID)
}

// ListByInvoice returns the purchases attached to an invoice.
func (s *PurchaseStore) ListByInvoice(ctx context.Context, ownerID, invoiceID string) ([]finance.Purchase, error) {
	return s.list(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE invoice_id = ? AND owner_id = ?
		ORDER BY purchase_date, installment_number
	`, invoiceID, ownerID)
}

func (s *PurchaseStore) list(ctx context.Context, query string, args ...any) ([]finance.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []finance.Purchase
	for rows.Next() {
		var p finance.Purchase
		var categoryID sql.NullString
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.CardID, &p.InvoiceID, &categoryID, &p.Description, &p.Amount,
			&p.PurchaseDate, &p.Installments, &p.InstallmentNumber, &p.PaymentMethod, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.CategoryID = categoryID.String
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// CreateBatch inserts one logical purchase's installment rows, creating
// any missing open invoices first, all in a single transaction. A failed
// insert rolls back the invoices created alongside it.
func (s *PurchaseStore) CreateBatch(ctx context.Context, batch ports.PurchaseBatch) error {
	if len(batch.Purchases) != len(batch.Periods) {
		return fmt.Errorf("purchase batch: %d purchases but %d periods", len(batch.Purchases), len(batch.Periods))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	invoiceByPeriod := make(map[ports.PeriodKey]string, len(batch.Invoices))
	for _, inv := range batch.Invoices {
		open, err := getOrCreateOpenTx(ctx, tx, inv)
		if err != nil {
			return err
		}
		invoiceByPeriod[ports.PeriodKey{Month: open.ReferenceMonth, Year: open.ReferenceYear}] = open.ID
	}

	now := time.Now().UTC()
	for i, p := range batch.Purchases {
		invoiceID, ok := invoiceByPeriod[batch.Periods[i]]
		if !ok {
			return fmt.Errorf("purchase batch: no invoice for period %d/%d", batch.Periods[i].Month, batch.Periods[i].Year)
		}

		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchases (id, owner_id, card_id, invoice_id, category_id, description, amount,
			                       purchase_date, installments, installment_number, payment_method, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.OwnerID, p.CardID, invoiceID, nullString(p.CategoryID), p.Description, p.Amount,
			p.PurchaseDate, p.Installments, p.InstallmentNumber, string(p.PaymentMethod), p.Notes, p.CreatedAt)
		if err != nil {
			return err
		}
	}

	if err := checkLimitTx(ctx, tx, batch); err != nil {
		return err
	}

	return tx.Commit()
}

// checkLimitTx re-validates the credit limit after the batch rows are in
// place. The service checks before writing, but a concurrent purchase can
// land between that read and this transaction; the re-check makes the
// limit invariant hold regardless.
func checkLimitTx(ctx context.Context, tx *sql.Tx, batch ports.PurchaseBatch) error {
	var batchTotal int64
	for _, p := range batch.Purchases {
		if p.PaymentMethod == finance.PaymentCredit {
			batchTotal += p.Amount
		}
	}
	if batchTotal == 0 {
		return nil
	}

	var outstanding int64
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM purchases p
		JOIN invoices i ON i.id = p.invoice_id
		WHERE p.card_id = ? AND p.owner_id = ?
		  AND p.payment_method = 'credit'
		  AND i.status != 'paid'
	`, batch.Card.ID, batch.Card.OwnerID).Scan(&outstanding)
	if err != nil {
		return err
	}

	if outstanding > batch.Card.CreditLimit {
		return &finance.CreditLimitError{
			Limit:       batch.Card.CreditLimit,
			Outstanding: outstanding - batchTotal,
			Amount:      batchTotal,
		}
	}
	return nil
}

// Update modifies a purchase's descriptive fields. The amount and the
// invoice link are immutable after creation.
func (s *PurchaseStore) Update(ctx context.Context, p finance.Purchase) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE purchases
		SET description = ?, category_id = ?, notes = ?
		WHERE id = ? AND owner_id = ?
	`, p.Description, nullString(p.CategoryID), p.Notes, p.ID, p.OwnerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a single installment row.
func (s *PurchaseStore) Delete(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM purchases WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// OutstandingByCard sums credit purchases sitting on invoices that are
// not yet paid. This is the figure the credit limit check runs against.
func (s *PurchaseStore) OutstandingByCard(ctx context.Context, ownerID, cardID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM purchases p
		JOIN invoices i ON i.id = p.invoice_id
		WHERE p.card_id = ? AND p.owner_id = ?
		  AND p.payment_method = 'credit'
		  AND i.status != 'paid'
	`, cardID, ownerID).Scan(&total)
	return total, err
}

func scanPurchase(row *sql.Row) (finance.Purchase, error) {
	var p finance.Purchase
	var categoryID sql.NullString
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.CardID, &p.InvoiceID, &categoryID, &p.Description, &p.Amount,
		&p.PurchaseDate, &p.Installments, &p.InstallmentNumber, &p.PaymentMethod, &p.Notes, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Purchase{}, ErrNotFound
	}
	if err != nil {
		return finance.Purchase{}, err
	}
	p.CategoryID = categoryID.String
	return p, nil
}
