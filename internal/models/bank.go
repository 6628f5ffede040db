package models

import "github.com/shopspring/decimal"

// Bank is one entry from the network configuration file. Only entries
// carrying an initial_balance seed the ledger at startup; the rest exist
// once first credited.
type Bank struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	BIC            string           `json:"bic"`
	Country        string           `json:"country"`
	Currency       string           `json:"currency"`
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
	Roles          []string         `json:"role,omitempty"`
}

// BankBalance is a point-in-time balance annotated with the display currency.
type BankBalance struct {
	BankID   string          `json:"bank_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}
