package finance

import "time"

// LedgerOperation classifies a card balance mutation.
type LedgerOperation string

const (
	OpTransactionIncome  LedgerOperation = "transaction_income"
	OpTransactionExpense LedgerOperation = "transaction_expense"
	OpInvoicePayment     LedgerOperation = "invoice_payment"
	OpManualAdjustment   LedgerOperation = "manual_adjustment"
	OpInitialBalance     LedgerOperation = "initial_balance"
)

// LedgerReference names the record that caused a balance mutation.
type LedgerReference string

const (
	RefTransaction LedgerReference = "transaction"
	RefInvoice     LedgerReference = "invoice"
	RefManual      LedgerReference = "manual"
)

// LedgerEntry is one row of a card's balance audit trail. Every mutation
// of Card.AvailableBalance writes exactly one entry in the same store
// transaction, so the history always reconstructs the balance.
type LedgerEntry struct {
	ID              string
	OwnerID         string
	CardID          string
	PreviousBalance int64 // cents
	NewBalance      int64 // cents
	Delta           int64 // cents, signed
	Operation       LedgerOperation
	ReferenceType   LedgerReference
	ReferenceID     string
	Description     string
	CreatedAt       time.Time
}

// BalanceDelta returns the signed effect of a transaction on a card's
// available balance: income adds, expense subtracts.
func BalanceDelta(t TransactionType, amount int64) int64 {
	if t == TypeIncome {
		return amount
	}
	return -amount
}

// RevertDelta returns the exact inverse of the effect a transaction
// originally applied. Used before applying an edited transaction's new
// values or after a delete.
func RevertDelta(t TransactionType, amount int64) int64 {
	return -BalanceDelta(t, amount)
}

// OperationFor maps a transaction type to its ledger operation kind.
func OperationFor(t TransactionType) LedgerOperation {
	if t == TypeIncome {
		return OpTransactionIncome
	}
	return OpTransactionExpense
}
