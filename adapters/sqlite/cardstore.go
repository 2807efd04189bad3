package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// CardStore implements ports.CardStore using SQLite.
type CardStore struct {
	db  *DB
	ids ports.IDGenerator
}

// NewCardStore creates a new SQLite card store.
func NewCardStore(db *DB, ids ports.IDGenerator) *CardStore {
	return &CardStore{db: db, ids: ids}
}

var _ ports.CardStore = (*CardStore)(nil)

// Get retrieves a card by ID, scoped to its owner.
func (s *CardStore) Get(ctx context.Context, ownerID, id string) (finance.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, last_digits, credit_limit, available_balance,
		       closing_day, due_day, color, is_active, created_at, updated_at
		FROM cards
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	return scanCard(row)
}

// ListByOwner returns all of a user's cards.
func (s *CardStore) ListByOwner(ctx context.Context, ownerID string) ([]finance.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, last_digits, credit_limit, available_balance,
		       closing_day, due_day, color, is_active, created_at, updated_at
		FROM cards
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []finance.Card
	for rows.Next() {
		var c finance.Card
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.Name, &c.LastDigits, &c.CreditLimit, &c.AvailableBalance,
			&c.ClosingDay, &c.DueDay, &c.Color, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Create stores a new card. A non-zero initial balance writes an
// initial_balance ledger entry in the same transaction.
func (s *CardStore) Create(ctx context.Context, c finance.Card) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cards (id, owner_id, name, last_digits, credit_limit, available_balance,
		                   closing_day, due_day, color, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.OwnerID, c.Name, c.LastDigits, c.CreditLimit, c.AvailableBalance,
		c.ClosingDay, c.DueDay, c.Color, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}

	if c.AvailableBalance > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (id, owner_id, card_id, previous_balance, new_balance,
			                            delta, operation, reference_type, reference_id, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, s.ids.New(), c.OwnerID, c.ID, int64(0), c.AvailableBalance, c.AvailableBalance,
			string(finance.OpInitialBalance), string(finance.RefManual), c.ID, "Saldo inicial", now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update modifies a card's configuration. AvailableBalance is excluded;
// balance changes go through AdjustBalance.
func (s *CardStore) Update(ctx context.Context, c finance.Card) error {
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET name = ?, last_digits = ?, credit_limit = ?, closing_day = ?,
		    due_day = ?, color = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, c.Name, c.LastDigits, c.CreditLimit, c.ClosingDay,
		c.DueDay, c.Color, c.IsActive, c.UpdatedAt, c.ID, c.OwnerID)
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

// Delete removes a card. Invoices, purchases and ledger entries cascade.
func (s *CardStore) Delete(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cards WHERE id = ? AND owner_id = ?
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

// AdjustBalance atomically applies a balance delta and records the
// ledger entry.
func (s *CardStore) AdjustBalance(ctx context.Context, adj ports.BalanceAdjustment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := adjustBalanceTx(ctx, tx, s.ids, adj, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

// adjustBalanceTx applies a guarded balance delta and writes the matching
// ledger row inside an open transaction. The UPDATE's WHERE clause is the
// non-negative balance guard; zero rows affected means either a missing
// card or a balance the delta would overdraw.
func adjustBalanceTx(ctx context.Context, tx *sql.Tx, ids ports.IDGenerator, adj ports.BalanceAdjustment, now time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET available_balance = available_balance + ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND available_balance + ? >= 0
	`, adj.Delta, now, adj.CardID, adj.OwnerID, adj.Delta)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM cards WHERE id = ? AND owner_id = ?
		`, adj.CardID, adj.OwnerID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return finance.ErrInsufficientBalance
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, `
		SELECT available_balance FROM cards WHERE id = ?
	`, adj.CardID).Scan(&balance); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, owner_id, card_id, previous_balance, new_balance,
		                            delta, operation, reference_type, reference_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ids.New(), adj.OwnerID, adj.CardID, balance-adj.Delta, balance, adj.Delta,
		string(adj.Operation), string(adj.ReferenceType), adj.ReferenceID, adj.Description, now)
	return err
}

func scanCard(row *sql.Row) (finance.Card, error) {
	var c finance.Card
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.LastDigits, &c.CreditLimit, &c.AvailableBalance,
		&c.ClosingDay, &c.DueDay, &c.Color, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Card{}, ErrNotFound
	}
	if err != nil {
		return finance.Card{}, err
	}
	return c, nil
}
