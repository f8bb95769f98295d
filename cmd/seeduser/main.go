// cmd/seeduser/main.go creates a demo store with its admin through the same
// sign-up path the API uses.
// Uso: go run ./cmd/seeduser
package main

import (
	"context"
	"errors"
	"os"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/config"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/infra"
	"github.com/Code-Vida/apistock/internal/repository"
	"github.com/Code-Vida/apistock/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, 2)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	auth := service.NewAuthService(repository.NewFactory(db), repository.NewUnitOfWork(db, cfg.TxTimeout), cfg)
	req := dto.SignUpRequest{
		StoreName: envOr("SEED_STORE", "Loja Demo"),
		Name:      "Admin Demo",
		Email:     envOr("SEED_EMAIL", "admin@apistock.local"),
		Password:  envOr("SEED_PASSWORD", "apistock"),
	}

	resp, err := auth.SignUp(context.Background(), req)
	if err != nil {
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindConflict {
			log.Info().Str("email", req.Email).Msg("seed user already exists")
			return
		}
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().
		Str("store_id", resp.User.StoreID).
		Str("email", resp.User.Email).
		Msg("seed store and admin created")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
