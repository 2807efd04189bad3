package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/psilva/grana/adapters/metrics"
	"github.com/psilva/grana/domain/billing"
	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// InvoiceDetail is an invoice with its purchases and running total.
type InvoiceDetail struct {
	Invoice   finance.Invoice
	Purchases []finance.Purchase
	Total     int64
}

// ClosingResult reports what closing an invoice did.
type ClosingResult struct {
	Invoice    finance.Invoice
	Resolution billing.Resolution
}

// ClosingService reads invoices and runs the closing reconciliation:
// the invoice total is offset against the card's prepaid balance and
// any remainder becomes an expense transaction.
type ClosingService struct {
	invoices  ports.InvoiceStore
	purchases ports.PurchaseStore
	cards     ports.CardStore
	ids       ports.IDGenerator
	clock     ports.Clock
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// NewClosingService creates a new closing service.
func NewClosingService(invoices ports.InvoiceStore, purchases ports.PurchaseStore, cards ports.CardStore, ids ports.IDGenerator, clock ports.Clock, m *metrics.Collector, logger zerolog.Logger) *ClosingService {
	return &ClosingService{
		invoices:  invoices,
		purchases: purchases,
		cards:     cards,
		ids:       ids,
		clock:     clock,
		metrics:   m,
		logger:    logger.With().Str("service", "closing").Logger(),
	}
}

// Get returns an invoice with its purchases.
func (s *ClosingService) Get(ctx context.Context, ownerID, invoiceID string) (InvoiceDetail, error) {
	inv, err := s.invoices.Get(ctx, ownerID, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	purchases, err := s.purchases.ListByInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}

	var total int64
	for _, p := range purchases {
		total += p.Amount
	}
	return InvoiceDetail{Invoice: inv, Purchases: purchases, Total: total}, nil
}

// ListByCard returns a card's invoices, newest period first.
func (s *ClosingService) ListByCard(ctx context.Context, ownerID, cardID string) ([]finance.Invoice, error) {
	if _, err := s.cards.Get(ctx, ownerID, cardID); err != nil {
		return nil, err
	}
	return s.invoices.ListByCard(ctx, ownerID, cardID)
}

// Close reconciles and closes an open invoice. The card's prepaid
// balance absorbs up to the invoice total; a fully covered invoice goes
// straight to paid, otherwise it is closed and the remainder is
// recorded as an expense under the card settlement category. The store
// applies the whole plan in one transaction and rejects an invoice that
// is no longer open, so closing is exactly-once.
func (s *ClosingService) Close(ctx context.Context, ownerID, invoiceID string) (ClosingResult, error) {
	inv, err := s.invoices.Get(ctx, ownerID, invoiceID)
	if err != nil {
		return ClosingResult{}, err
	}
	if !inv.IsOpen() {
		return ClosingResult{}, finance.ErrInvoiceNotOpen
	}

	card, err := s.cards.Get(ctx, ownerID, inv.CardID)
	if err != nil {
		return ClosingResult{}, err
	}

	total, err := s.invoices.SumPurchases(ctx, ownerID, invoiceID)
	if err != nil {
		return ClosingResult{}, err
	}

	res := billing.ResolveClosing(total, card.AvailableBalance)
	title := billing.SettlementTitle(card.Name, inv.ClosingDate)

	closing := ports.Closing{
		OwnerID:           ownerID,
		InvoiceID:         invoiceID,
		CardID:            card.ID,
		NextStatus:        res.NextStatus,
		AmountFromBalance: res.AmountFromBalance,
		LedgerDescription: title,
	}

	if res.AmountToPay > 0 {
		closing.Remainder = &finance.Transaction{
			ID:      s.ids.New(),
			OwnerID: ownerID,
			Title:   title,
			Amount:  res.AmountToPay,
			Type:    finance.TypeExpense,
			Date:    inv.DueDate,
			CardID:  card.ID,
		}
		closing.Category = finance.Category{
			ID:      s.ids.New(),
			OwnerID: ownerID,
			Name:    finance.CreditCardCategoryName,
			Type:    finance.TypeExpense,
			Color:   finance.CreditCardCategoryColor,
		}
	}

	if err := s.invoices.ApplyClosing(ctx, closing); err != nil {
		return ClosingResult{}, err
	}

	s.metrics.InvoicesClosed.WithLabelValues(string(res.NextStatus)).Inc()
	s.logger.Info().Str("invoice_id", invoiceID).
		Int64("total", res.Total).
		Int64("from_balance", res.AmountFromBalance).
		Int64("to_pay", res.AmountToPay).
		Str("status", string(res.NextStatus)).
		Msg("invoice closed")

	closed, err := s.invoices.Get(ctx, ownerID, invoiceID)
	if err != nil {
		return ClosingResult{}, err
	}
	return ClosingResult{Invoice: closed, Resolution: res}, nil
}
