package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config centraliza toda la configuración del servicio.
// Se carga desde env vars (prefijo opcional PETBOOK_) con defaults útiles para dev.
type Config struct {
	AppName string `envconfig:"APP_NAME" default:"petbook-access"`
	Port    string `envconfig:"PORT" default:"8080"`

	// Origin público para armar los deep links del QR
	// ({origin}/scan-health?token=...&petId=...).
	PublicOrigin string `envconfig:"PUBLIC_ORIGIN" default:"https://petbook.app"`

	// Si DB_DSN viene vacío, el router cae a repos in-memory (modo dev).
	DBDSN string `envconfig:"DB_DSN"`

	// Si REDIS_URL viene vacío, el bus realtime es in-process.
	RedisURL string `envconfig:"REDIS_URL"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Integraciones PetBook (auth + perfiles). Opcionales en dev.
	AuthBaseURL     string `envconfig:"AUTH_BASE_URL"`
	AuthAPIKey      string `envconfig:"AUTH_API_KEY"`
	ProfilesBaseURL string `envconfig:"PROFILES_BASE_URL"`

	// Política: materializar HealthRecord canónico al aprobar un pending record.
	// Default off (comportamiento observado: solo cambia el status).
	MaterializeOnApprove bool `envconfig:"MATERIALIZE_ON_APPROVE" default:"false"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load lee .env (si existe) y después las env vars.
func Load() (Config, error) {
	// best-effort: en prod no hay .env y no pasa nada
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("petbook", &cfg); err != nil {
		return Config{}, err
	}

	cfg.PublicOrigin = strings.TrimRight(strings.TrimSpace(cfg.PublicOrigin), "/")
	return cfg, nil
}
