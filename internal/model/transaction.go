package model

import (
	"fmt"
	"time"
)

// TransactionType transaction type
type TransactionType string

const (
	TransactionTypeIssuance TransactionType = "ISSUANCE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// Transaction represents one contract event involving the wallet. The amount
// is an opaque ciphertext handle; clear amounts are never part of history.
type Transaction struct {
	Type         TransactionType `json:"type"`
	TxID         string          `json:"txId"`
	From         string          `json:"from,omitempty"`
	To           string          `json:"to"`
	AmountHandle string          `json:"amountHandle"`
	Timestamp    time.Time       `json:"timestamp"`
	BlockNumber  int64           `json:"blockNumber"`
}

// LogResponse represents response for GET /stable/transactions
type LogResponse struct {
	Address      string        `json:"address"`
	Transactions []Transaction `json:"transactions"`
}

// LogRequest represents request parameters for GET /stable/transactions.
// Amount filters are impossible here: amounts are encrypted on-chain.
type LogRequest struct {
	Type *TransactionType `form:"type"`
	TxID *string          `form:"txId"`
	From *time.Time       `form:"from"`
	To   *time.Time       `form:"to"`
}

// Validate validates LogRequest filter parameters.
func (r *LogRequest) Validate() error {
	if r.Type != nil && *r.Type != TransactionTypeIssuance && *r.Type != TransactionTypeTransfer {
		return fmt.Errorf("type must be ISSUANCE or TRANSFER")
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return fmt.Errorf("to date must be after or equal to from date")
	}
	return nil
}
