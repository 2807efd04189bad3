package sqlite

import (
	"context"

	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// LedgerStore implements ports.LedgerStore using SQLite. It only reads;
// ledger rows are written by the card, transaction and invoice stores
// inside their balance-mutating transactions.
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a new SQLite ledger store.
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

var _ ports.LedgerStore = (*LedgerStore)(nil)

// ListByCard returns a card's ledger entries, newest first.
func (s *LedgerStore) ListByCard(ctx context.Context, ownerID, cardID string, limit int) ([]finance.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, card_id, previous_balance, new_balance, delta,
		       operation, reference_type, reference_id, description, created_at
		FROM ledger_entries
		WHERE card_id = ? AND owner_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, cardID, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []finance.LedgerEntry
	for rows.Next() {
		var e finance.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.CardID, &e.PreviousBalance, &e.NewBalance, &e.Delta,
			&e.Operation, &e.ReferenceType, &e.ReferenceID, &e.Description, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
