package api

import (
	"net/http"

	"esw/internal/handler"

	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(log zerolog.Logger) (http.Handler, error) {
	stableHandler, err := handler.NewStableHandler(log)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Wallet endpoints
	mux.HandleFunc("/wallet/generate", stableHandler.Generate)

	// Stablecoin endpoints
	mux.HandleFunc("/stable/balance", stableHandler.GetBalance)
	mux.HandleFunc("/stable/status", stableHandler.Status)
	mux.HandleFunc("/stable/issue", stableHandler.Issue)
	mux.HandleFunc("/stable/transfer", stableHandler.Transfer)
	mux.HandleFunc("/stable/threshold", stableHandler.UpdateThreshold)
	mux.HandleFunc("/stable/riskcheck", stableHandler.RiskCheck)
	mux.HandleFunc("/stable/transactions", stableHandler.TransactionHistory)

	return mux, nil
}
