package stable

import (
	"context"
	"fmt"

	"esw/internal/client"
	"esw/internal/crypto"
	"esw/internal/model"

	"github.com/ethereum/go-ethereum/common"
)

// GetTransactions gets the wallet's Issuance/Transfer history with filtering.
// Amounts stay opaque ciphertext handles; history never decrypts anything.
func GetTransactions(ctx context.Context, chainClient *client.ChainClient, filePath string, req *model.LogRequest) (*model.LogResponse, error) {
	address, err := crypto.ReadWalletAddress(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet address: %w", err)
	}

	events, err := chainClient.FilterHistory(ctx, common.HexToAddress(address))
	if err != nil {
		return nil, err
	}

	return &model.LogResponse{
		Address:      address,
		Transactions: filterEvents(events, req),
	}, nil
}

// filterEvents applies the request filters and converts events to the API model
func filterEvents(events []client.StableEvent, req *model.LogRequest) []model.Transaction {
	out := make([]model.Transaction, 0, len(events))

	for _, ev := range events {
		if req.Type != nil && string(*req.Type) != ev.Kind {
			continue
		}
		if req.TxID != nil && *req.TxID != ev.TxHash.Hex() {
			continue
		}
		if req.From != nil && ev.Timestamp.Before(*req.From) {
			continue
		}
		if req.To != nil && ev.Timestamp.After(*req.To) {
			continue
		}

		tx := model.Transaction{
			Type:         model.TransactionType(ev.Kind),
			TxID:         ev.TxHash.Hex(),
			To:           ev.To.Hex(),
			AmountHandle: ev.AmountHandle.Hex(),
			Timestamp:    ev.Timestamp,
			BlockNumber:  int64(ev.BlockNumber),
		}
		if ev.Kind == string(model.TransactionTypeTransfer) {
			tx.From = ev.From.Hex()
		}
		out = append(out, tx)
	}

	return out
}
