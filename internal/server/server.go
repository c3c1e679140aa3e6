package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hongminglow/mosque-donations/internal/accounts"
	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/config"
	"github.com/hongminglow/mosque-donations/internal/donations"
	"github.com/hongminglow/mosque-donations/internal/http/handlers"
	"github.com/hongminglow/mosque-donations/internal/log"
	"github.com/hongminglow/mosque-donations/internal/middleware"
	"github.com/hongminglow/mosque-donations/internal/ratelimit"
	"github.com/hongminglow/mosque-donations/internal/stats"
	"github.com/hongminglow/mosque-donations/internal/storage"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Store   storage.Store
	Tokens  *auth.TokenManager
	Limiter ratelimit.Limiter
	Logger  *log.Logger
	Now     func() time.Time
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// NewHandler builds the routed handler; exposed for httptest servers.
func NewHandler(cfg config.Config, deps Deps) http.Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemory(cfg.LoginRateLimit, time.Minute)
	}

	accountSvc := accounts.NewService(deps.Store, deps.Store, deps.Tokens)
	donationSvc := donations.NewService(deps.Store).WithClock(now)
	statsSvc := stats.NewService(deps.Store, cfg.Location()).WithClock(now)

	health := handlers.NewHealthHandler(now())
	authH := handlers.NewAuthHandler(accountSvc)
	donationH := handlers.NewDonationHandler(donationSvc, statsSvc)
	referenceH := handlers.NewReferenceHandler(deps.Store, statsSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP(cfg.TrustedNetworks()))
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	health.Register(r)
	referenceH.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		authH.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Tokens))
		authH.RegisterProtected(r)
		referenceH.RegisterProtected(r)
		donationH.Register(r)
	})

	return middleware.CORS(cfg.CORSOrigins, r)
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
