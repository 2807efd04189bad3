package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// Dashboard aggregates one month's figures with the position of every
// card.
type Dashboard struct {
	Year  int
	Month int
	ports.Summary
	Cards []finance.CardStatus
}

// DashboardService builds the monthly overview.
type DashboardService struct {
	transactions ports.TransactionStore
	cards        ports.CardStore
	purchases    ports.PurchaseStore
	clock        ports.Clock
	logger       zerolog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(transactions ports.TransactionStore, cards ports.CardStore, purchases ports.PurchaseStore, clock ports.Clock, logger zerolog.Logger) *DashboardService {
	return &DashboardService{
		transactions: transactions,
		cards:        cards,
		purchases:    purchases,
		clock:        clock,
		logger:       logger.With().Str("service", "dashboard").Logger(),
	}
}

// Summary aggregates the month's income, expenses and per-card debt.
// Year and month default to the current month when zero.
func (s *DashboardService) Summary(ctx context.Context, ownerID string, year, month int) (Dashboard, error) {
	if year == 0 || month == 0 {
		now := s.clock.Now().UTC()
		year, month = now.Year(), int(now.Month())
	}
	if month < 1 || month > 12 {
		return Dashboard{}, finance.Invalid("month", "must be between 1 and 12")
	}

	sum, err := s.transactions.Summary(ctx, ownerID, year, month)
	if err != nil {
		return Dashboard{}, err
	}

	cards, err := s.cards.ListByOwner(ctx, ownerID)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Year: year, Month: month, Summary: sum}
	for _, c := range cards {
		debt, err := s.purchases.OutstandingByCard(ctx, ownerID, c.ID)
		if err != nil {
			return Dashboard{}, err
		}
		d.Cards = append(d.Cards, c.StatusWith(debt))
	}
	return d, nil
}
