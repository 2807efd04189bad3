package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/psilva/grana/adapters/metrics"
	"github.com/psilva/grana/domain/billing"
	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// MaxInstallments caps how many installments a purchase can be split into.
const MaxInstallments = 48

// PurchaseInput describes a new card purchase before splitting.
type PurchaseInput struct {
	OwnerID       string
	CardID        string
	CategoryID    string
	Description   string
	TotalAmount   int64 // cents
	Installments  int
	PurchaseDate  time.Time
	PaymentMethod finance.PaymentMethod
	Notes         string
}

// PurchaseService creates card purchases: it checks the credit limit,
// splits the total into installments and lands each installment on the
// invoice its date belongs to.
type PurchaseService struct {
	purchases ports.PurchaseStore
	cards     ports.CardStore
	ids       ports.IDGenerator
	clock     ports.Clock
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// NewPurchaseService creates a new purchase service.
func NewPurchaseService(purchases ports.PurchaseStore, cards ports.CardStore, ids ports.IDGenerator, clock ports.Clock, m *metrics.Collector, logger zerolog.Logger) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		cards:     cards,
		ids:       ids,
		clock:     clock,
		metrics:   m,
		logger:    logger.With().Str("service", "purchases").Logger(),
	}
}

// Create validates a purchase, splits it into installments and stores
// the whole batch atomically. For credit purchases the card's limit is
// checked against its current outstanding debt first; nothing is
// written when the limit would be exceeded.
func (s *PurchaseService) Create(ctx context.Context, in PurchaseInput) ([]finance.Purchase, error) {
	if err := validatePurchaseInput(in); err != nil {
		return nil, err
	}

	card, err := s.cards.Get(ctx, in.OwnerID, in.CardID)
	if err != nil {
		return nil, err
	}
	if !card.IsActive {
		return nil, finance.Invalid("card_id", "card is inactive")
	}

	if in.PaymentMethod == finance.PaymentCredit {
		outstanding, err := s.purchases.OutstandingByCard(ctx, in.OwnerID, in.CardID)
		if err != nil {
			return nil, err
		}
		if err := billing.CheckLimit(card.CreditLimit, outstanding, in.TotalAmount); err != nil {
			s.metrics.LimitRejections.Inc()
			var limitErr *finance.CreditLimitError
			if errors.As(err, &limitErr) {
				s.logger.Warn().Str("card_id", card.ID).
					Int64("shortfall", limitErr.Shortfall()).
					Msg("purchase rejected by credit limit")
			}
			return nil, err
		}
	}

	installments := billing.SplitPurchase(in.Description, in.TotalAmount, in.Installments,
		in.PurchaseDate, card.ClosingDay, card.DueDay)

	batch := ports.PurchaseBatch{Card: card}
	seen := make(map[ports.PeriodKey]bool)
	now := s.clock.Now().UTC()

	for _, inst := range installments {
		key := ports.PeriodKey{Month: inst.Period.ReferenceMonth, Year: inst.Period.ReferenceYear}
		if !seen[key] {
			seen[key] = true
			batch.Invoices = append(batch.Invoices, finance.Invoice{
				ID:             s.ids.New(),
				OwnerID:        in.OwnerID,
				CardID:         card.ID,
				ReferenceMonth: inst.Period.ReferenceMonth,
				ReferenceYear:  inst.Period.ReferenceYear,
				ClosingDate:    inst.Period.ClosingDate,
				DueDate:        inst.Period.DueDate,
			})
		}

		batch.Purchases = append(batch.Purchases, finance.Purchase{
			ID:                s.ids.New(),
			OwnerID:           in.OwnerID,
			CardID:            card.ID,
			CategoryID:        in.CategoryID,
			Description:       inst.Description,
			Amount:            inst.Amount,
			PurchaseDate:      inst.Date,
			Installments:      len(installments),
			InstallmentNumber: inst.Number,
			PaymentMethod:     in.PaymentMethod,
			Notes:             in.Notes,
			CreatedAt:         now,
		})
		batch.Periods = append(batch.Periods, key)
	}

	if err := s.purchases.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.metrics.PurchasesCreated.Inc()
	s.metrics.InstallmentsSplit.Add(float64(len(installments)))
	s.metrics.InvoicesOpened.Add(float64(len(batch.Invoices)))

	s.logger.Info().Str("card_id", card.ID).
		Int64("total", in.TotalAmount).
		Int("installments", len(installments)).
		Msg("purchase created")
	return batch.Purchases, nil
}

// Get returns one installment row.
func (s *PurchaseService) Get(ctx context.Context, ownerID, id string) (finance.Purchase, error) {
	return s.purchases.Get(ctx, ownerID, id)
}

// ListByCard returns a card's purchases.
func (s *PurchaseService) ListByCard(ctx context.Context, ownerID, cardID string) ([]finance.Purchase, error) {
	return s.purchases.ListByCard(ctx, ownerID, cardID)
}

// Update rewrites an installment's descriptive fields.
func (s *PurchaseService) Update(ctx context.Context, p finance.Purchase) (finance.Purchase, error) {
	if p.Description == "" {
		return finance.Purchase{}, finance.Invalid("description", "must not be empty")
	}
	if err := s.purchases.Update(ctx, p); err != nil {
		return finance.Purchase{}, err
	}
	return s.purchases.Get(ctx, p.OwnerID, p.ID)
}

// Delete removes a single installment row.
func (s *PurchaseService) Delete(ctx context.Context, ownerID, id string) error {
	return s.purchases.Delete(ctx, ownerID, id)
}

func validatePurchaseInput(in PurchaseInput) error {
	if in.Description == "" {
		return finance.Invalid("description", "must not be empty")
	}
	if len(in.Description) > 255 {
		return finance.Invalid("description", "too long (max 255)")
	}
	if in.TotalAmount <= 0 {
		return finance.Invalid("amount", "must be greater than zero")
	}
	if in.Installments < 1 || in.Installments > MaxInstallments {
		return finance.Invalid("installments", "must be between 1 and 48")
	}
	if in.PurchaseDate.IsZero() {
		return finance.Invalid("purchase_date", "must be set")
	}
	if !in.PaymentMethod.Valid() {
		return finance.Invalid("payment_method", "must be credit or debit")
	}
	return nil
}
