package domain

import "time"

type TxType string

const (
	TxTypeDebit  TxType = "debit"
	TxTypeCredit TxType = "credit"
)

// Transaction is an audit row recorded alongside every balance mutation.
type Transaction struct {
	ID          int64
	AccountID   int64
	Amount      int64
	TxType      TxType
	Description string
	CreatedAt   time.Time
}
