// Local server for the encrypted stablecoin wallet.
// Usage: go run ./cmd/server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esw/internal/api"
	"esw/internal/config"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "esw/docs"
)

// @title        Encrypted Stablecoin Wallet API
// @version      1.0
// @description  Local API for a confidential FHE stablecoin: encrypted balances, issuance, transfers and risk checks
// @BasePath     /
func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := config.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(config.GetLogLevel()); err == nil {
		log = log.Level(level)
	}

	if err := config.PromptForPassword(); err != nil {
		log.Fatal().Err(err).Msg("failed to read wallet password")
	}

	router, err := api.SetupRouter(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up router")
	}

	srv := &http.Server{
		Addr:    ":" + config.GetPort(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", config.GetPort()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
