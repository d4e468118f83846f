package model

// RiskCheckRequest represents request for POST /stable/riskcheck.
// Address is optional; the wallet's own address is checked when empty.
type RiskCheckRequest struct {
	Address string `json:"address,omitempty"`
}

// RiskCheckResponse represents response for POST /stable/riskcheck.
// Verdict is exactly one of "RISK DETECTED" or "SAFE"; on failure it is empty
// and Error carries the terminal message.
type RiskCheckResponse struct {
	Verdict string `json:"verdict,omitempty"`
	TxID    string `json:"txId,omitempty"`
	Error   string `json:"error,omitempty"`
}
