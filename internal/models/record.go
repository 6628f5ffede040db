package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RecordKind string

const (
	RecordDebit  RecordKind = "debit"
	RecordCredit RecordKind = "credit"
)

// TransactionRecord is one entry in the append-only transaction log.
type TransactionRecord struct {
	ID               string          `json:"id"`
	BankID           string          `json:"bank_id"`
	Kind             RecordKind      `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PreviousBalance  decimal.Decimal `json:"previous_balance"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Timestamp        time.Time       `json:"timestamp"`
}
