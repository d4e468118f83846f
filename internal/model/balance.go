package model

// BalanceResponse represents response for GET /stable/balance.
// Handles are the opaque on-chain ciphertext references; the clear fields are
// their decrypted values, present only when decryption succeeded.
type BalanceResponse struct {
	Address           string `json:"address"`
	ChainID           uint64 `json:"chainId"`
	Contract          string `json:"contract"`
	BalanceHandle     string `json:"balanceHandle"`
	Balance           string `json:"balance,omitempty"`
	TotalSupplyHandle string `json:"totalSupplyHandle"`
	TotalSupply       string `json:"totalSupply,omitempty"`
	ThresholdHandle   string `json:"riskThresholdHandle"`
	RiskThreshold     string `json:"riskThreshold,omitempty"`
}
