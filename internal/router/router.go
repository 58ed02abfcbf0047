package router

import (
	"net/http"

	"pet-vaccine-tracker/internal/adapters/auth/jwtauth"
	mem "pet-vaccine-tracker/internal/adapters/storage/memory"
	pg "pet-vaccine-tracker/internal/adapters/storage/postgres"
	"pet-vaccine-tracker/internal/domain/dashboard"
	"pet-vaccine-tracker/internal/domain/pets"
	"pet-vaccine-tracker/internal/domain/users"
	"pet-vaccine-tracker/internal/domain/vaccines"
	"pet-vaccine-tracker/internal/middleware"
	"pet-vaccine-tracker/internal/platform/logger"
	"pet-vaccine-tracker/internal/platform/metrics"
	"pet-vaccine-tracker/internal/ports/auth"

	_ "pet-vaccine-tracker/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// JWT puede ser nil o sin clave: en ese caso no se emiten tokens.
	JWT *jwtauth.Service
	// DebugUsers acepta X-Debug-User-ID (modo dev / tests).
	DebugUsers bool

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB pg.DB

	Logger      logger.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string

	// BcryptCost 0 = default de bcrypt. Los tests lo bajan.
	BcryptCost int
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	var (
		verifier auth.AuthVerifier
		issuer   auth.TokenIssuer
	)
	if opts.JWT.IsConfigured() {
		verifier = opts.JWT
		issuer = opts.JWT
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.Use(middleware.AuthContext(verifier, opts.DebugUsers))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		userRepo    users.Repository
		petRepo     pets.Repository
		vaccineRepo vaccines.Repository
	)
	if opts.DB != nil {
		userRepo = pg.NewUsersRepo(opts.DB)
		petRepo = pg.NewPetsRepo(opts.DB)
		vaccineRepo = pg.NewVaccinesRepo(opts.DB)
	} else {
		userRepo = mem.NewUserRepo()
		petRepo = mem.NewPetRepo()
		vaccineRepo = mem.NewVaccineRepo()
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo, log)
	if opts.BcryptCost > 0 {
		usersSvc.WithHashCost(opts.BcryptCost)
	}
	petsSvc := pets.NewService(petRepo, log)
	vaccinesSvc := vaccines.NewService(vaccineRepo, petsSvc, log)
	dashboardSvc := dashboard.NewService(petsSvc, vaccinesSvc, log, m)

	// Cascadas: usuario -> mascotas -> vacunas
	petsSvc.OnDelete(vaccinesSvc)
	usersSvc.OnDelete(petsSvc)

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc, issuer, m)
	pets.RegisterRoutes(r, petsSvc)
	vaccines.RegisterRoutes(r, vaccinesSvc, petsSvc)
	dashboard.RegisterRoutes(r, dashboardSvc)

	return r
}
