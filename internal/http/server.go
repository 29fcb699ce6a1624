package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"budgetledger/internal/auth"
	"budgetledger/internal/log"
	"budgetledger/internal/middleware/ratelimit"
	"budgetledger/internal/middleware/security"
	"budgetledger/internal/middleware/trace"
	"budgetledger/internal/services"
)

// Options configures NewServer. Service and Verifier are required.
type Options struct {
	Addr               string
	Service            *services.BudgetService
	Verifier           *auth.Verifier
	Logger             *log.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int
	ClientIP           *security.ClientIP
}

type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	trace        *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer builds the router and returns a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.ClientIP == nil {
		opts.ClientIP, _ = security.NewClientIP()
	}
	rlCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		limiter: ratelimit.NewLimiter(rlCfg),
		trace:   trace.NewMiddleware(opts.ClientIP.FromRequest),
	}
	h := &handlers{svc: opts.Service}

	r := chi.NewRouter()
	r.Use(s.trace.Handler)
	r.Use(chimw.StripSlashes)
	r.Use(requestLogger(opts.Logger))
	r.Use(recoverer)
	r.Use(security.Headers(security.APIHeadersConfig()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NewResponse().Fail(http.StatusNotFound, "Not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		NewResponse().Fail(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", h.ready)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(opts.ClientIP.FromRequest, rateLimited))
		r.Use(requireUser(opts.Verifier))

		r.Post("/budget", h.setBudget)
		r.Get("/budget", h.monthSnapshot)
		r.Get("/month-stats", h.monthSnapshot)
		r.Get("/budget-cards", h.monthSnapshot)
		r.Post("/expenses", h.addExpense)
		r.Post("/income", h.addIncome)
		r.Get("/notifications", h.notifications)
		r.Get("/chart", h.chart)
		r.Get("/summary", h.summary)
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Requests returns the totals recorded by the trace middleware.
func (s *Server) Requests() (total, failed int64) {
	return s.trace.Counts()
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func requestLogger(base *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(log.FieldRequestID, trace.RequestID(r.Context()))
			next.ServeHTTP(w, r.WithContext(log.NewContext(r.Context(), l)))
		})
	}
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panicked",
					log.FieldErrorType, log.ErrorTypeInternal, "panic", rec)
				NewResponse().Fail(http.StatusInternalServerError, "Something went wrong. Please try again.").Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Fail(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// requireUser authenticates the bearer token and stores the user id in the
// request context. CORS preflight never reaches here.
func requireUser(v *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.TokenFromRequest(r)
			if raw == "" {
				writeError(w, r, log.OpAuthenticate, auth.ErrNoToken)
				return
			}
			id, err := v.Verify(raw)
			if err != nil {
				writeError(w, r, log.OpAuthenticate, err)
				return
			}
			ctx := auth.WithUser(r.Context(), id)
			ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, int64(id)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
