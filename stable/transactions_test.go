package stable

import (
	"testing"
	"time"

	"esw/internal/client"
	"esw/internal/fhe"
	"esw/internal/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestFilterEvents(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var h1, h2 fhe.Handle
	h1[31] = 1
	h2[31] = 2

	events := []client.StableEvent{
		{
			Kind:         "TRANSFER",
			TxHash:       common.HexToHash("0x01"),
			From:         common.HexToAddress("0xa1"),
			To:           common.HexToAddress("0xb2"),
			AmountHandle: h1,
			BlockNumber:  10,
			Timestamp:    base,
		},
		{
			Kind:         "ISSUANCE",
			TxHash:       common.HexToHash("0x02"),
			To:           common.HexToAddress("0xb2"),
			AmountHandle: h2,
			BlockNumber:  8,
			Timestamp:    base.Add(-48 * time.Hour),
		},
	}

	t.Run("no filters", func(t *testing.T) {
		got := filterEvents(events, &model.LogRequest{})
		assert.Len(t, got, 2)
		assert.Equal(t, h1.Hex(), got[0].AmountHandle)
		assert.Empty(t, got[1].From, "issuance has no sender")
	})

	t.Run("by type", func(t *testing.T) {
		issuance := model.TransactionTypeIssuance
		got := filterEvents(events, &model.LogRequest{Type: &issuance})
		assert.Len(t, got, 1)
		assert.Equal(t, model.TransactionTypeIssuance, got[0].Type)
	})

	t.Run("by txid", func(t *testing.T) {
		txID := common.HexToHash("0x01").Hex()
		got := filterEvents(events, &model.LogRequest{TxID: &txID})
		assert.Len(t, got, 1)
		assert.Equal(t, txID, got[0].TxID)
	})

	t.Run("by date window", func(t *testing.T) {
		from := base.Add(-time.Hour)
		got := filterEvents(events, &model.LogRequest{From: &from})
		assert.Len(t, got, 1)
		assert.Equal(t, model.TransactionTypeTransfer, got[0].Type)

		to := base.Add(-time.Hour)
		got = filterEvents(events, &model.LogRequest{To: &to})
		assert.Len(t, got, 1)
		assert.Equal(t, model.TransactionTypeIssuance, got[0].Type)
	})
}
