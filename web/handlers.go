package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/psilva/grana/adapters/sqlite"
	"github.com/psilva/grana/app"
	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// -----------------------------------------------------------------------------
// Auth
// -----------------------------------------------------------------------------

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register creates a user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  userResponse{ID: u.ID, Email: u.Email, Name: u.Name},
	})
}

// Login authenticates a user.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  userResponse{ID: u.ID, Email: u.Email, Name: u.Name},
	})
}

// -----------------------------------------------------------------------------
// Cards
// -----------------------------------------------------------------------------

type cardRequest struct {
	Name           string `json:"name"`
	LastDigits     string `json:"last_digits"`
	CreditLimit    string `json:"credit_limit"`
	InitialBalance string `json:"initial_balance"`
	ClosingDay     int    `json:"closing_day"`
	DueDay         int    `json:"due_day"`
	Color          string `json:"color"`
	IsActive       *bool  `json:"is_active"`
}

type cardResponse struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	LastDigits            string `json:"last_digits,omitempty"`
	CreditLimitCents      int64  `json:"credit_limit_cents"`
	CreditLimit           string `json:"credit_limit"`
	AvailableBalanceCents int64  `json:"available_balance_cents"`
	AvailableBalance      string `json:"available_balance"`
	ClosingDay            int    `json:"closing_day"`
	DueDay                int    `json:"due_day"`
	Color                 string `json:"color,omitempty"`
	IsActive              bool   `json:"is_active"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}

func toCardResponse(c finance.Card) cardResponse {
	return cardResponse{
		ID:                    c.ID,
		Name:                  c.Name,
		LastDigits:            c.LastDigits,
		CreditLimitCents:      c.CreditLimit,
		CreditLimit:           finance.FormatAmount(c.CreditLimit),
		AvailableBalanceCents: c.AvailableBalance,
		AvailableBalance:      finance.FormatAmount(c.AvailableBalance),
		ClosingDay:            c.ClosingDay,
		DueDay:                c.DueDay,
		Color:                 c.Color,
		IsActive:              c.IsActive,
		CreatedAt:             c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             c.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateCard creates a credit card.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	limit, err := finance.ParseAmount(req.CreditLimit)
	if err != nil {
		h.respondError(w, finance.Invalid("credit_limit", err.Error()))
		return
	}

	var balance int64
	if req.InitialBalance != "" {
		balance, err = finance.ParseAmount(req.InitialBalance)
		if err != nil {
			h.respondError(w, finance.Invalid("initial_balance", err.Error()))
			return
		}
	}

	c, err := h.cards.Create(r.Context(), finance.Card{
		OwnerID:          ownerID(r),
		Name:             req.Name,
		LastDigits:       req.LastDigits,
		CreditLimit:      limit,
		AvailableBalance: balance,
		ClosingDay:       req.ClosingDay,
		DueDay:           req.DueDay,
		Color:            req.Color,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(c))
}

// ListCards lists the user's cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.List(r.Context(), ownerID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCard returns one card.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	c, err := h.cards.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}

// UpdateCard rewrites a card's configuration.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	limit, err := finance.ParseAmount(req.CreditLimit)
	if err != nil {
		h.respondError(w, finance.Invalid("credit_limit", err.Error()))
		return
	}

	c := finance.Card{
		ID:          chi.URLParam(r, "id"),
		OwnerID:     ownerID(r),
		Name:        req.Name,
		LastDigits:  req.LastDigits,
		CreditLimit: limit,
		ClosingDay:  req.ClosingDay,
		DueDay:      req.DueDay,
		Color:       req.Color,
		IsActive:    true,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	updated, err := h.cards.Update(r.Context(), c)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(updated))
}

// DeleteCard removes a card and everything attached to it.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.cards.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cardStatusResponse struct {
	Card                 cardResponse `json:"card"`
	CurrentDebtCents     int64        `json:"current_debt_cents"`
	CurrentDebt          string       `json:"current_debt"`
	AvailableCreditCents int64        `json:"available_credit_cents"`
	AvailableCredit      string       `json:"available_credit"`
}

// CardStatus reports a card's outstanding debt and remaining credit.
func (h *Handler) CardStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.cards.Status(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cardStatusResponse{
		Card:                 toCardResponse(status.Card),
		CurrentDebtCents:     status.CurrentDebt,
		CurrentDebt:          finance.FormatAmount(status.CurrentDebt),
		AvailableCreditCents: status.AvailableCredit,
		AvailableCredit:      finance.FormatAmount(status.AvailableCredit),
	})
}

type adjustRequest struct {
	Amount      string `json:"amount"`
	Type        string `json:"type"` // credit adds, debit subtracts
	Description string `json:"description"`
}

// AdjustCard applies a manual balance adjustment.
func (h *Handler) AdjustCard(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := finance.ParseAmount(req.Amount)
	if err != nil {
		h.respondError(w, finance.Invalid("amount", err.Error()))
		return
	}

	delta := amount
	switch req.Type {
	case "credit":
	case "debit":
		delta = -amount
	default:
		h.respondError(w, finance.Invalid("type", "must be credit or debit"))
		return
	}

	if err := h.cards.Adjust(r.Context(), ownerID(r), chi.URLParam(r, "id"), delta, req.Description); err != nil {
		h.respondError(w, err)
		return
	}

	c, err := h.cards.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}

type ledgerEntryResponse struct {
	ID                   string `json:"id"`
	PreviousBalanceCents int64  `json:"previous_balance_cents"`
	NewBalanceCents      int64  `json:"new_balance_cents"`
	DeltaCents           int64  `json:"delta_cents"`
	Delta                string `json:"delta"`
	Operation            string `json:"operation"`
	ReferenceType        string `json:"reference_type,omitempty"`
	ReferenceID          string `json:"reference_id,omitempty"`
	Description          string `json:"description,omitempty"`
	CreatedAt            string `json:"created_at"`
}

// CardLedger returns the card's balance audit trail.
func (h *Handler) CardLedger(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.cards.History(r.Context(), ownerID(r), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntryResponse{
			ID:                   e.ID,
			PreviousBalanceCents: e.PreviousBalance,
			NewBalanceCents:      e.NewBalance,
			DeltaCents:           e.Delta,
			Delta:                finance.FormatAmount(e.Delta),
			Operation:            string(e.Operation),
			ReferenceType:        string(e.ReferenceType),
			ReferenceID:          e.ReferenceID,
			Description:          e.Description,
			CreatedAt:            e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// -----------------------------------------------------------------------------
// Categories
// -----------------------------------------------------------------------------

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type categoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toCategoryResponse(c finance.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Color:     c.Color,
		Icon:      c.Icon,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// CreateCategory creates a category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.categories.Create(r.Context(), finance.Category{
		OwnerID: ownerID(r),
		Name:    req.Name,
		Type:    finance.TransactionType(req.Type),
		Color:   req.Color,
		Icon:    req.Icon,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

// ListCategories lists the user's categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context(), ownerID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCategory returns one category.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

// UpdateCategory rewrites a category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.categories.Update(r.Context(), finance.Category{
		ID:      chi.URLParam(r, "id"),
		OwnerID: ownerID(r),
		Name:    req.Name,
		Type:    finance.TransactionType(req.Type),
		Color:   req.Color,
		Icon:    req.Icon,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

// DeleteCategory removes a category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

type transactionRequest struct {
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	CategoryID  string `json:"category_id"`
	CardID      string `json:"card_id"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	CategoryID  string `json:"category_id,omitempty"`
	CardID      string `json:"card_id,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toTransactionResponse(t finance.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Title:       t.Title,
		AmountCents: t.Amount,
		Amount:      finance.FormatAmount(t.Amount),
		Type:        string(t.Type),
		Date:        t.Date.Format("2006-01-02"),
		CategoryID:  t.CategoryID,
		CardID:      t.CardID,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) transactionFromRequest(r *http.Request, req transactionRequest) (finance.Transaction, error) {
	amount, err := finance.ParseAmount(req.Amount)
	if err != nil {
		return finance.Transaction{}, finance.Invalid("amount", err.Error())
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return finance.Transaction{}, finance.Invalid("date", "must be YYYY-MM-DD")
	}

	return finance.Transaction{
		OwnerID:     ownerID(r),
		Title:       req.Title,
		Amount:      amount,
		Type:        finance.TransactionType(req.Type),
		Date:        date,
		CategoryID:  req.CategoryID,
		CardID:      req.CardID,
		Description: req.Description,
	}, nil
}

// CreateTransaction records an income or expense.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.transactionFromRequest(r, req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	created, err := h.transactions.Create(r.Context(), t)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

// ListTransactions lists transactions with optional filters.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	month, _ := strconv.Atoi(q.Get("month"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	list, err := h.transactions.List(r.Context(), ownerID(r), ports.TransactionFilter{
		Type:       finance.TransactionType(q.Get("type")),
		CategoryID: q.Get("category_id"),
		CardID:     q.Get("card_id"),
		Year:       year,
		Month:      month,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTransaction returns one transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.transactions.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

// UpdateTransaction rewrites a transaction.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.transactionFromRequest(r, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	t.ID = chi.URLParam(r, "id")

	updated, err := h.transactions.Update(r.Context(), t)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

// DeleteTransaction removes a transaction.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.transactions.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Purchases
// -----------------------------------------------------------------------------

type purchaseRequest struct {
	CardID        string `json:"card_id"`
	CategoryID    string `json:"category_id"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Installments  int    `json:"installments"`
	PurchaseDate  string `json:"purchase_date"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

type purchaseResponse struct {
	ID                string `json:"id"`
	CardID            string `json:"card_id"`
	InvoiceID         string `json:"invoice_id"`
	CategoryID        string `json:"category_id,omitempty"`
	Description       string `json:"description"`
	AmountCents       int64  `json:"amount_cents"`
	Amount            string `json:"amount"`
	PurchaseDate      string `json:"purchase_date"`
	Installments      int    `json:"installments"`
	InstallmentNumber int    `json:"installment_number"`
	PaymentMethod     string `json:"payment_method"`
	Notes             string `json:"notes,omitempty"`
}

func toPurchaseResponse(p finance.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:                p.ID,
		CardID:            p.CardID,
		InvoiceID:         p.InvoiceID,
		CategoryID:        p.CategoryID,
		Description:       p.Description,
		AmountCents:       p.Amount,
		Amount:            finance.FormatAmount(p.Amount),
		PurchaseDate:      p.PurchaseDate.Format("2006-01-02"),
		Installments:      p.Installments,
		InstallmentNumber: p.InstallmentNumber,
		PaymentMethod:     string(p.PaymentMethod),
		Notes:             p.Notes,
	}
}

// CreatePurchase records a card purchase, splitting it into installments.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := finance.ParseAmount(req.Amount)
	if err != nil {
		h.respondError(w, finance.Invalid("amount", err.Error()))
		return
	}
	date, err := parseDate(req.PurchaseDate)
	if err != nil {
		h.respondError(w, finance.Invalid("purchase_date", "must be YYYY-MM-DD"))
		return
	}
	if req.Installments == 0 {
		req.Installments = 1
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = string(finance.PaymentCredit)
	}

	created, err := h.purchases.Create(r.Context(), app.PurchaseInput{
		OwnerID:       ownerID(r),
		CardID:        req.CardID,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
		TotalAmount:   amount,
		Installments:  req.Installments,
		PurchaseDate:  date,
		PaymentMethod: finance.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]purchaseResponse, 0, len(created))
	for _, p := range created {
		out = append(out, toPurchaseResponse(p))
	}
	writeJSON(w, http.StatusCreated, out)
}

// ListPurchases lists a card's purchases.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	list, err := h.purchases.ListByCard(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]purchaseResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPurchaseResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPurchase returns one installment row.
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	p, err := h.purchases.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseResponse(p))
}

type purchaseUpdateRequest struct {
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Notes       string `json:"notes"`
}

// UpdatePurchase rewrites an installment's descriptive fields.
func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.purchases.Update(r.Context(), finance.Purchase{
		ID:          chi.URLParam(r, "id"),
		OwnerID:     ownerID(r),
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Notes:       req.Notes,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseResponse(p))
}

// DeletePurchase removes an installment row.
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.purchases.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Invoices
// -----------------------------------------------------------------------------

type invoiceResponse struct {
	ID              string `json:"id"`
	CardID          string `json:"card_id"`
	ReferenceMonth  int    `json:"reference_month"`
	ReferenceYear   int    `json:"reference_year"`
	ClosingDate     string `json:"closing_date"`
	DueDate         string `json:"due_date"`
	Status          string `json:"status"`
	PaidAmountCents int64  `json:"paid_amount_cents"`
	PaidAmount      string `json:"paid_amount"`
}

func toInvoiceResponse(inv finance.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:              inv.ID,
		CardID:          inv.CardID,
		ReferenceMonth:  inv.ReferenceMonth,
		ReferenceYear:   inv.ReferenceYear,
		ClosingDate:     inv.ClosingDate.Format("2006-01-02"),
		DueDate:         inv.DueDate.Format("2006-01-02"),
		Status:          string(inv.Status),
		PaidAmountCents: inv.PaidAmount,
		PaidAmount:      finance.FormatAmount(inv.PaidAmount),
	}
}

// ListInvoices lists a card's invoices.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	list, err := h.closing.ListByCard(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvoiceResponse(inv))
	}
	writeJSON(w, http.StatusOK, out)
}

type invoiceDetailResponse struct {
	Invoice    invoiceResponse    `json:"invoice"`
	Purchases  []purchaseResponse `json:"purchases"`
	TotalCents int64              `json:"total_cents"`
	Total      string             `json:"total"`
}

// GetInvoice returns an invoice with its purchases.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	detail, err := h.closing.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	purchases := make([]purchaseResponse, 0, len(detail.Purchases))
	for _, p := range detail.Purchases {
		purchases = append(purchases, toPurchaseResponse(p))
	}
	writeJSON(w, http.StatusOK, invoiceDetailResponse{
		Invoice:    toInvoiceResponse(detail.Invoice),
		Purchases:  purchases,
		TotalCents: detail.Total,
		Total:      finance.FormatAmount(detail.Total),
	})
}

type closeInvoiceResponse struct {
	Invoice                invoiceResponse `json:"invoice"`
	TotalCents             int64           `json:"total_cents"`
	Total                  string          `json:"total"`
	AmountFromBalanceCents int64           `json:"amount_from_balance_cents"`
	AmountFromBalance      string          `json:"amount_from_balance"`
	AmountToPayCents       int64           `json:"amount_to_pay_cents"`
	AmountToPay            string          `json:"amount_to_pay"`
}

// CloseInvoice runs the closing reconciliation on an open invoice.
func (h *Handler) CloseInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.closing.Close(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closeInvoiceResponse{
		Invoice:                toInvoiceResponse(result.Invoice),
		TotalCents:             result.Resolution.Total,
		Total:                  finance.FormatAmount(result.Resolution.Total),
		AmountFromBalanceCents: result.Resolution.AmountFromBalance,
		AmountFromBalance:      finance.FormatAmount(result.Resolution.AmountFromBalance),
		AmountToPayCents:       result.Resolution.AmountToPay,
		AmountToPay:            finance.FormatAmount(result.Resolution.AmountToPay),
	})
}

// -----------------------------------------------------------------------------
// Dashboard
// -----------------------------------------------------------------------------

type dashboardResponse struct {
	Year               int                  `json:"year"`
	Month              int                  `json:"month"`
	TotalIncomeCents   int64                `json:"total_income_cents"`
	TotalIncome        string               `json:"total_income"`
	TotalExpensesCents int64                `json:"total_expenses_cents"`
	TotalExpenses      string               `json:"total_expenses"`
	BalanceCents       int64                `json:"balance_cents"`
	Balance            string               `json:"balance"`
	Count              int                  `json:"transaction_count"`
	Cards              []cardStatusResponse `json:"cards"`
}

// Dashboard returns the monthly overview.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	month, _ := strconv.Atoi(q.Get("month"))

	d, err := h.dashboard.Summary(r.Context(), ownerID(r), year, month)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := dashboardResponse{
		Year:               d.Year,
		Month:              d.Month,
		TotalIncomeCents:   d.TotalIncome,
		TotalIncome:        finance.FormatAmount(d.TotalIncome),
		TotalExpensesCents: d.TotalExpenses,
		TotalExpenses:      finance.FormatAmount(d.TotalExpenses),
		BalanceCents:       d.Balance,
		Balance:            finance.FormatAmount(d.Balance),
		Count:              d.Count,
		Cards:              make([]cardStatusResponse, 0, len(d.Cards)),
	}
	for _, s := range d.Cards {
		resp.Cards = append(resp.Cards, cardStatusResponse{
			Card:                 toCardResponse(s.Card),
			CurrentDebtCents:     s.CurrentDebt,
			CurrentDebt:          finance.FormatAmount(s.CurrentDebt),
			AvailableCreditCents: s.AvailableCredit,
			AvailableCredit:      finance.FormatAmount(s.AvailableCredit),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps domain and store errors to HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var vErr *finance.ValidationError
	var limitErr *finance.CreditLimitError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &limitErr):
		writeError(w, http.StatusUnprocessableEntity, limitErr.Error())
	case errors.Is(err, finance.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, finance.ErrInvoiceNotOpen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, sqlite.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, sqlite.ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
