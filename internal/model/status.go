package model

// OpStatus is the observable state of one wallet operation
type OpStatus struct {
	Status string `json:"status"`
	TxID   string `json:"txId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// StatusResponse represents response for GET /stable/status
type StatusResponse struct {
	Address    string              `json:"address"`
	ChainID    uint64              `json:"chainId"`
	Contract   string              `json:"contract"`
	Issuer     string              `json:"issuer"`
	IsIssuer   bool                `json:"isIssuer"`
	Message    string              `json:"message,omitempty"`
	Operations map[string]OpStatus `json:"operations"`
}
