package intake

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions carries the optional collaborators mounted on the router.
type RouterOptions struct {
	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
	// Instrument wraps every route, typically with request metrics.
	Instrument func(http.Handler) http.Handler
	// AllowedOrigins defaults to "*".
	AllowedOrigins []string
	// RequestTimeout bounds each request; defaults to 30s.
	RequestTimeout time.Duration
}

// NewRouter builds the chi router exposing the intake API.
func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if opts.Instrument != nil {
		r.Use(opts.Instrument)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Post("/api/reservations", h.CreateReservation)

	return r
}
