package main

import (
	"flag"
	"os"

	"github.com/pressly/goose/v3"

	"petbook-access/internal/adapters/storage/postgres"
	"petbook-access/internal/platform/config"
	"petbook-access/internal/platform/logger"
)

// Runner de migraciones con goose.
// Uso: migrate -dir migrations [up|down|status|version]
func main() {
	dir := flag.String("dir", "migrations", "directorio de migraciones")
	flag.Parse()

	log := logger.NewFromEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config inválida")
	}
	if cfg.DBDSN == "" {
		log.Fatal().Msg("DB_DSN requerido para migrar")
	}

	command := "up"
	var rest []string
	if args := flag.Args(); len(args) > 0 {
		command = args[0]
		rest = args[1:]
	}

	db, err := postgres.Open(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo abrir la base")
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("dialecto inválido")
	}

	if err := goose.Run(command, db, *dir, rest...); err != nil {
		log.Error().Err(err).Str("command", command).Msg("migración falló")
		os.Exit(1)
	}

	log.Info().Str("command", command).Msg("migración ok")
}
