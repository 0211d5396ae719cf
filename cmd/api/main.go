package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"petbook-access/internal/adapters/auth/petbookid"
	"petbook-access/internal/adapters/identity/profiles"
	"petbook-access/internal/platform/config"
	"petbook-access/internal/platform/logger"
	"petbook-access/internal/ports/auth"
	"petbook-access/internal/ports/identity"
	"petbook-access/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.NewFromEnv()
		fallback.Fatal().Err(err).Msg("config inválida")
	}

	log := logger.New(logger.Options{
		App:    cfg.AppName,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Verifier y resolver de perfiles: opcionales en dev.
	var verifier auth.AuthVerifier
	if cfg.AuthBaseURL != "" {
		client, err := petbookid.NewClient(petbookid.Config{
			BaseURL: cfg.AuthBaseURL,
			APIKey:  cfg.AuthAPIKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("auth client inválido")
		}
		verifier = petbookid.NewVerifier(client)
	} else {
		log.Warn().Msg("sin AUTH_BASE_URL: modo dev, auth por header X-Debug-User-ID")
	}

	var resolver identity.Resolver
	if cfg.ProfilesBaseURL != "" {
		pr, err := profiles.NewResolver(profiles.Config{
			BaseURL: cfg.ProfilesBaseURL,
			APIKey:  cfg.AuthAPIKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("profiles client inválido")
		}
		resolver = pr
	}

	r := router.NewRouter(router.Options{
		Config:       cfg,
		Log:          log,
		AuthVerifier: verifier,
		Profiles:     resolver,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown forzado")
	}
	log.Info().Msg("server stopped")
}
