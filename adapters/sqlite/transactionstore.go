package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// TransactionStore implements ports.TransactionStore using SQLite.
type TransactionStore struct {
	db  *DB
	ids ports.IDGenerator
}

// NewTransactionStore creates a new SQLite transaction store.
func NewTransactionStore(db *DB, ids ports.IDGenerator) *TransactionStore {
	return &TransactionStore{db: db, ids: ids}
}

var _ ports.TransactionStore = (*TransactionStore)(nil)

const transactionColumns = `id, owner_id, title, amount, type, date,
	category_id, card_id, description, created_at, updated_at`

// Get retrieves a transaction by ID, scoped to its owner.
func (s *TransactionStore) Get(ctx context.Context, ownerID, id string) (finance.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	return scanTransaction(row)
}

// List returns a user's transactions, newest first.
func (s *TransactionStore) List(ctx context.Context, ownerID string, f ports.TransactionFilter) ([]finance.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = ?`
	args := []any{ownerID}

	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if f.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, f.CategoryID)
	}
	if f.CardID != "" {
		query += " AND card_id = ?"
		args = append(args, f.CardID)
	}
	if f.Year != 0 && f.Month != 0 {
		start, end := monthRange(f.Year, f.Month)
		query += " AND date >= ? AND date < ?"
		args = append(args, start, end)
	}

	query += " ORDER BY date DESC, created_at DESC"

	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []finance.Transaction
	for rows.Next() {
		var t finance.Transaction
		var categoryID, cardID sql.NullString
		if err := rows.Scan(
			&t.ID, &t.OwnerID, &t.Title, &t.Amount, &t.Type, &t.Date,
			&categoryID, &cardID, &t.Description, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.CategoryID = categoryID.String
		t.CardID = cardID.String
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// Create inserts a transaction. A non-nil adj moves the card balance in
// the same transaction as the insert.
func (s *TransactionStore) Create(ctx context.Context, t finance.Transaction, adj *ports.BalanceAdjustment) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, title, amount, type, date,
		                          category_id, card_id, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OwnerID, t.Title, t.Amount, string(t.Type), t.Date,
		nullString(t.CategoryID), nullString(t.CardID), t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}

	if adj != nil {
		if err := adjustBalanceTx(ctx, tx, s.ids, *adj, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update rewrites a transaction. The revert adjustment undoes the old
// card effect and apply applies the new one; both run in the row's
// update transaction.
func (s *TransactionStore) Update(ctx context.Context, t finance.Transaction, revert, apply *ports.BalanceAdjustment) error {
	now := time.Now().UTC()
	t.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET title = ?, amount = ?, type = ?, date = ?,
		    category_id = ?, card_id = ?, description = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, t.Title, t.Amount, string(t.Type), t.Date,
		nullString(t.CategoryID), nullString(t.CardID), t.Description, t.UpdatedAt, t.ID, t.OwnerID)
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

	if revert != nil {
		if err := adjustBalanceTx(ctx, tx, s.ids, *revert, now); err != nil {
			return err
		}
	}
	if apply != nil {
		if err := adjustBalanceTx(ctx, tx, s.ids, *apply, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes a transaction, reverting its card effect when revert is
// non-nil.
func (s *TransactionStore) Delete(ctx context.Context, ownerID, id string, revert *ports.BalanceAdjustment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND owner_id = ?
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

	if revert != nil {
		if err := adjustBalanceTx(ctx, tx, s.ids, *revert, time.Now().UTC()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Summary aggregates one month's totals for the dashboard.
func (s *TransactionStore) Summary(ctx context.Context, ownerID string, year, month int) (ports.Summary, error) {
	start, end := monthRange(year, month)

	var sum ports.Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0),
			COUNT(*)
		FROM transactions
		WHERE owner_id = ? AND date >= ? AND date < ?
	`, ownerID, start, end).Scan(&sum.TotalIncome, &sum.TotalExpenses, &sum.Count)
	if err != nil {
		return ports.Summary{}, err
	}

	sum.Balance = sum.TotalIncome - sum.TotalExpenses
	return sum, nil
}

func monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func scanTransaction(row *sql.Row) (finance.Transaction, error) {
	var t finance.Transaction
	var categoryID, cardID sql.NullString
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Amount, &t.Type, &t.Date,
		&categoryID, &cardID, &t.Description, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Transaction{}, ErrNotFound
	}
	if err != nil {
		return finance.Transaction{}, err
	}
	t.CategoryID = categoryID.String
	t.CardID = cardID.String
	return t, nil
}
