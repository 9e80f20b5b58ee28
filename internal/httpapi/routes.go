package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jmylchreest/eroom-api/internal/http/mw"
)

// RouterConfig configures the middleware chain wired around the handlers.
type RouterConfig struct {
	BearerToken       string
	Blocklist         *mw.IPBlocklist
	RequestTimeout    time.Duration
	RateLimitPerMinute int
	MaxBodyBytes      int64
}

// NewRouter builds the chi router: RequestID, RealIP, IP blocklist,
// request logging (chi's middleware.Logger), panic recovery, per-route timeout, CORS,
// body-size limit, and IP-keyed rate limiting on /room/create.
func NewRouter(h *Handlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Blocklist != nil {
		r.Use(cfg.Blocklist.Middleware())
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.Timeout(mw.TimeoutConfig{
		Default: cfg.RequestTimeout,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(cfg.MaxBodyBytes))
	}

	r.Get("/", h.Liveness)
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(Auth(cfg.BearerToken))

		r.Get("/queue/status", h.QueueStatus)
		r.With(mw.RateLimitByIP(cfg.RateLimitPerMinute)).Post("/room/create", h.RoomCreate)
		r.Get("/room/result", h.RoomResult)
	})

	return r
}
