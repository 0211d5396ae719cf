package router

import (
	"context"
	"database/sql"
	"net/http"

	mem "petbook-access/internal/adapters/storage/memory"
	pg "petbook-access/internal/adapters/storage/postgres"
	"petbook-access/internal/actions"
	"petbook-access/internal/domain/accessrequests"
	"petbook-access/internal/domain/accesstokens"
	"petbook-access/internal/domain/emergency"
	"petbook-access/internal/domain/grants"
	"petbook-access/internal/domain/pendingrecords"
	"petbook-access/internal/domain/pets"
	"petbook-access/internal/domain/records"
	"petbook-access/internal/middleware"
	"petbook-access/internal/notifications"
	"petbook-access/internal/platform/config"
	"petbook-access/internal/platform/logger"
	"petbook-access/internal/ports/auth"
	"petbook-access/internal/ports/identity"
	"petbook-access/internal/realtime"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	Config config.Config
	Log    logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Profiles     identity.Resolver // puede ser nil (se atribuye por user id)

	// Opcional: si viene, usa Postgres. Si no, decide por Config.DBDSN.
	DB *sql.DB

	// Opcional: si viene, se usa este bus. Si no, decide por Config.RedisURL.
	Bus realtime.Bus
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	cfg := opts.Config

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		petRepo     pets.Repository
		tokenRepo   accesstokens.Repository
		requestRepo accessrequests.Repository
		grantRepo   grants.Repository
		recordRepo  records.Repository
		pendingRepo pendingrecords.Repository
		notifRepo   notifications.Repository
	)

	// Si no te pasan DB explícita, intenta por config (para dev/handoff)
	db := opts.DB
	if db == nil && cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error().Err(err).Msg("postgres no disponible, usando repos in-memory")
		} else {
			db = opened
		}
	}

	if db != nil {
		petRepo = pg.NewPetsRepo(db)
		tokenRepo = pg.NewAccessTokensRepo(db)
		requestRepo = pg.NewAccessRequestsRepo(db)
		grantRepo = pg.NewGrantsRepo(db)
		recordRepo = pg.NewHealthRecordsRepo(db)
		pendingRepo = pg.NewPendingRecordsRepo(db)
		notifRepo = pg.NewNotificationsRepo(db)
	} else {
		petRepo = mem.NewPetRepo()
		tokenRepo = mem.NewAccessTokensRepo()
		requestRepo = mem.NewAccessRequestsRepo()
		grantRepo = mem.NewGrantsRepo()
		recordRepo = mem.NewHealthRecordsRepo()
		pendingRepo = mem.NewPendingRecordsRepo()
		notifRepo = mem.NewNotificationsRepo()
	}

	// Bus realtime: Redis si está configurado, in-process si no.
	bus := opts.Bus
	if bus == nil {
		if cfg.RedisURL != "" {
			rb, err := realtime.OpenRedis(context.Background(), cfg.RedisURL, log)
			if err != nil {
				log.Error().Err(err).Msg("redis no disponible, usando bus in-process")
			} else {
				bus = rb
			}
		}
		if bus == nil {
			bus = realtime.NewMemoryBus(log)
		}
	}

	// Services por módulo
	notifSvc := notifications.NewService(notifRepo, log)
	petsSvc := pets.NewService(petRepo)
	tokensSvc := accesstokens.NewService(tokenRepo)
	grantsSvc := grants.NewService(grantRepo, petsSvc, notifSvc, log)
	recordsSvc := records.NewService(recordRepo)

	requestsSvc := accessrequests.NewService(accessrequests.Deps{
		Repo:     requestRepo,
		Tokens:   tokensSvc,
		Granter:  grantsSvc,
		Recorder: recordsSvc,
		Owners:   petsSvc,
		Profiles: opts.Profiles,
		Bus:      bus,
		Notifier: notifSvc,
		Log:      log,
	})

	emergencySvc := emergency.NewService(grantsSvc, recordsSvc, opts.Profiles, notifSvc, log)

	pendingSvc := pendingrecords.NewService(pendingrecords.Deps{
		Repo:        pendingRepo,
		Access:      grantsSvc,
		Owners:      petsSvc,
		Recorder:    recordsSvc,
		Bus:         bus,
		Notifier:    notifSvc,
		Log:         log,
		Materialize: cfg.MaterializeOnApprove,
	})

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc, grantsSvc)
	accesstokens.RegisterRoutes(r, tokensSvc, petsSvc, cfg.PublicOrigin)
	grants.RegisterRoutes(r, grantsSvc, petsSvc)
	records.RegisterRoutes(r, recordsSvc, petsSvc, grantsSvc)
	accessrequests.RegisterRoutes(r, requestsSvc, petsSvc)
	pendingrecords.RegisterRoutes(r, pendingSvc, petsSvc)
	notifications.RegisterRoutes(r, notifSvc)
	realtime.RegisterRoutes(r, bus)

	// Dispatch unificado de acciones del flujo QR / emergencia.
	actions.NewHandler(requestsSvc, emergencySvc, petsSvc).RegisterRoutes(r)

	return r
}
