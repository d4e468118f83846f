package model

import "fmt"

// OperateRequest represents request for POST /stable/issue and /stable/transfer
type OperateRequest struct {
	ToAddress string `json:"toAddress" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// Validate validates an OperateRequest
func (r *OperateRequest) Validate() error {
	if r.ToAddress == "" {
		return fmt.Errorf("toAddress is required")
	}
	if r.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	return nil
}

// ThresholdRequest represents request for POST /stable/threshold
type ThresholdRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// Validate validates a ThresholdRequest
func (r *ThresholdRequest) Validate() error {
	if r.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	return nil
}

// OperateResponse represents response for mutating stable operations
type OperateResponse struct {
	Status string `json:"status"`
	TxID   string `json:"txId,omitempty"`
	Error  string `json:"error,omitempty"`
}
