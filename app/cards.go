package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/psilva/grana/adapters/metrics"
	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// CardService manages credit cards and their prepaid balances.
type CardService struct {
	cards     ports.CardStore
	purchases ports.PurchaseStore
	ledger    ports.LedgerStore
	ids       ports.IDGenerator
	clock     ports.Clock
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// NewCardService creates a new card service.
func NewCardService(cards ports.CardStore, purchases ports.PurchaseStore, ledger ports.LedgerStore, ids ports.IDGenerator, clock ports.Clock, m *metrics.Collector, logger zerolog.Logger) *CardService {
	return &CardService{
		cards:     cards,
		purchases: purchases,
		ledger:    ledger,
		ids:       ids,
		clock:     clock,
		metrics:   m,
		logger:    logger.With().Str("service", "cards").Logger(),
	}
}

// Create validates and stores a new card. A positive initial balance is
// recorded in the ledger by the store.
func (s *CardService) Create(ctx context.Context, c finance.Card) (finance.Card, error) {
	c.ID = s.ids.New()
	now := s.clock.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.IsActive = true

	if err := c.Validate(); err != nil {
		return finance.Card{}, err
	}
	if err := s.cards.Create(ctx, c); err != nil {
		return finance.Card{}, err
	}

	s.logger.Info().Str("card_id", c.ID).Str("name", c.Name).Msg("card created")
	return c, nil
}

// Get returns one card.
func (s *CardService) Get(ctx context.Context, ownerID, id string) (finance.Card, error) {
	return s.cards.Get(ctx, ownerID, id)
}

// List returns the owner's cards.
func (s *CardService) List(ctx context.Context, ownerID string) ([]finance.Card, error) {
	return s.cards.ListByOwner(ctx, ownerID)
}

// Update rewrites a card's configuration. The stored balance is kept;
// balance moves only through Adjust and the billing flows.
func (s *CardService) Update(ctx context.Context, c finance.Card) (finance.Card, error) {
	current, err := s.cards.Get(ctx, c.OwnerID, c.ID)
	if err != nil {
		return finance.Card{}, err
	}
	c.AvailableBalance = current.AvailableBalance
	c.CreatedAt = current.CreatedAt

	if err := c.Validate(); err != nil {
		return finance.Card{}, err
	}
	if err := s.cards.Update(ctx, c); err != nil {
		return finance.Card{}, err
	}
	return s.cards.Get(ctx, c.OwnerID, c.ID)
}

// Delete removes a card with all its invoices, purchases and history.
func (s *CardService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.cards.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info().Str("card_id", id).Msg("card deleted")
	return nil
}

// Status derives the card's financial position: outstanding debt across
// unpaid invoices and the credit still available under the limit.
func (s *CardService) Status(ctx context.Context, ownerID, id string) (finance.CardStatus, error) {
	c, err := s.cards.Get(ctx, ownerID, id)
	if err != nil {
		return finance.CardStatus{}, err
	}
	debt, err := s.purchases.OutstandingByCard(ctx, ownerID, id)
	if err != nil {
		return finance.CardStatus{}, err
	}
	return c.StatusWith(debt), nil
}

// Adjust applies a manual balance adjustment with its audit entry.
func (s *CardService) Adjust(ctx context.Context, ownerID, cardID string, delta int64, description string) error {
	if delta == 0 {
		return finance.Invalid("amount", "must not be zero")
	}

	err := s.cards.AdjustBalance(ctx, ports.BalanceAdjustment{
		CardID:        cardID,
		OwnerID:       ownerID,
		Delta:         delta,
		Operation:     finance.OpManualAdjustment,
		ReferenceType: finance.RefManual,
		ReferenceID:   cardID,
		Description:   description,
	})
	if err != nil {
		return err
	}

	s.metrics.BalanceAdjustments.WithLabelValues(string(finance.OpManualAdjustment)).Inc()
	return nil
}

// History returns the card's most recent ledger entries.
func (s *CardService) History(ctx context.Context, ownerID, cardID string, limit int) ([]finance.LedgerEntry, error) {
	if _, err := s.cards.Get(ctx, ownerID, cardID); err != nil {
		return nil, err
	}
	return s.ledger.ListByCard(ctx, ownerID, cardID, limit)
}
