package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/promptrelay/internal/api/handlers"
	"github.com/nikhilbhutani/promptrelay/internal/api/middleware"
	"github.com/nikhilbhutani/promptrelay/internal/config"
	"github.com/nikhilbhutani/promptrelay/internal/prompt"
)

// Deps are the services the HTTP surface is built from. Attempts and the
// entries of Checks may be nil.
type Deps struct {
	Prompts  *prompt.Service
	Attempts handlers.AttemptLister
	Prober   handlers.Prober
	Checks   map[string]handlers.Pinger
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.CORS.AllowedOrigins))

	rl := middleware.NewRateLimiter(rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.deps.Checks)
	r.Get("/", health.Index)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	diag := handlers.NewDiagnosticsHandler(rt.deps.Prober)
	r.Get("/test-api", diag.TestAPI)

	promptH := handlers.NewPromptHandler(rt.deps.Prompts, rt.deps.Attempts)
	r.Route("/prompts", func(r chi.Router) {
		r.Post("/", promptH.Create)
		r.Get("/", promptH.List)
		r.Post("/openai", promptH.CreateDirect("openai", "OpenAI"))
		r.Post("/anthropic", promptH.CreateDirect("anthropic", "Anthropic"))
		r.Post("/simple", promptH.CreateSimple)
		r.Get("/{id}", promptH.Get)
		r.Get("/{id}/attempts", promptH.Attempts)
	})

	return r
}
