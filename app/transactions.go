package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/psilva/grana/adapters/metrics"
	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// TransactionService manages income and expense records. A transaction
// linked to a card moves the card's prepaid balance; the store applies
// the row mutation and the balance effect in one transaction.
type TransactionService struct {
	transactions ports.TransactionStore
	cards        ports.CardStore
	ids          ports.IDGenerator
	clock        ports.Clock
	metrics      *metrics.Collector
	logger       zerolog.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(transactions ports.TransactionStore, cards ports.CardStore, ids ports.IDGenerator, clock ports.Clock, m *metrics.Collector, logger zerolog.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		cards:        cards,
		ids:          ids,
		clock:        clock,
		metrics:      m,
		logger:       logger.With().Str("service", "transactions").Logger(),
	}
}

// Create validates and stores a transaction, applying its card balance
// effect when a card is linked.
func (s *TransactionService) Create(ctx context.Context, t finance.Transaction) (finance.Transaction, error) {
	t.ID = s.ids.New()
	now := s.clock.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return finance.Transaction{}, err
	}

	var adj *ports.BalanceAdjustment
	if t.CardID != "" {
		if _, err := s.cards.Get(ctx, t.OwnerID, t.CardID); err != nil {
			return finance.Transaction{}, err
		}
		adj = s.effectOf(t)
	}

	if err := s.transactions.Create(ctx, t, adj); err != nil {
		return finance.Transaction{}, err
	}
	if adj != nil {
		s.metrics.BalanceAdjustments.WithLabelValues(string(adj.Operation)).Inc()
	}
	return t, nil
}

// Get returns one transaction.
func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (finance.Transaction, error) {
	return s.transactions.Get(ctx, ownerID, id)
}

// List returns the owner's transactions, filtered.
func (s *TransactionService) List(ctx context.Context, ownerID string, f ports.TransactionFilter) ([]finance.Transaction, error) {
	return s.transactions.List(ctx, ownerID, f)
}

// Update rewrites a transaction. The old card effect is reverted and the
// new one applied in the same store transaction, so the balance can
// never reflect half an edit.
func (s *TransactionService) Update(ctx context.Context, t finance.Transaction) (finance.Transaction, error) {
	old, err := s.transactions.Get(ctx, t.OwnerID, t.ID)
	if err != nil {
		return finance.Transaction{}, err
	}
	t.CreatedAt = old.CreatedAt

	if err := t.Validate(); err != nil {
		return finance.Transaction{}, err
	}

	var revert, apply *ports.BalanceAdjustment
	if old.CardID != "" {
		revert = s.revertOf(old)
	}
	if t.CardID != "" {
		if _, err := s.cards.Get(ctx, t.OwnerID, t.CardID); err != nil {
			return finance.Transaction{}, err
		}
		apply = s.effectOf(t)
	}

	if err := s.transactions.Update(ctx, t, revert, apply); err != nil {
		return finance.Transaction{}, err
	}
	return s.transactions.Get(ctx, t.OwnerID, t.ID)
}

// Delete removes a transaction and reverts its card effect.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	old, err := s.transactions.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	var revert *ports.BalanceAdjustment
	if old.CardID != "" {
		revert = s.revertOf(old)
	}
	return s.transactions.Delete(ctx, ownerID, id, revert)
}

func (s *TransactionService) effectOf(t finance.Transaction) *ports.BalanceAdjustment {
	return &ports.BalanceAdjustment{
		CardID:        t.CardID,
		OwnerID:       t.OwnerID,
		Delta:         finance.BalanceDelta(t.Type, t.Amount),
		Operation:     finance.OperationFor(t.Type),
		ReferenceType: finance.RefTransaction,
		ReferenceID:   t.ID,
		Description:   t.Title,
	}
}

func (s *TransactionService) revertOf(t finance.Transaction) *ports.BalanceAdjustment {
	return &ports.BalanceAdjustment{
		CardID:        t.CardID,
		OwnerID:       t.OwnerID,
		Delta:         finance.RevertDelta(t.Type, t.Amount),
		Operation:     finance.OpManualAdjustment,
		ReferenceType: finance.RefTransaction,
		ReferenceID:   t.ID,
		Description:   "Estorno: " + t.Title,
	}
}
