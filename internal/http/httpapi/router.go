package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"blooddonation/internal/http/handlers"
	"blooddonation/internal/infra"
	"blooddonation/internal/middleware"
)

// Options carries the cross-cutting pieces the router wires around the handlers.
type Options struct {
	Logger        zerolog.Logger
	Metrics       *infra.Metrics
	Gatherer      prometheus.Gatherer
	Tokens        *middleware.TokenIssuer
	Limiter       middleware.Limiter
	CORSOrigins   []string
	DefaultLocale string
	CountryLookup middleware.CountryLookup
	// TrustProxyHeaders lets X-Forwarded-For / X-Real-IP set the client
	// address. Enable it only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		middleware.Logger(opts.Logger, opts.Metrics),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(middleware.RateLimit(opts.Limiter, opts.Logger))
		}

		// Public
		r.Post("/auth/register", app.Register)
		r.Post("/auth/issue-token", app.IssueToken)
		r.Get("/search-donors", app.SearchDonors)
		r.Get("/public/requests", app.PublicRequests)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.Tokens))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", app.Me)
				r.Patch("/me", app.UpdateMe)
				r.Get("/{uid}", app.GetUser)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", app.CreateRequest)
				r.Get("/", app.ListMyRequests)
				r.Get("/{id}", app.GetRequest)
				r.Patch("/{id}", app.UpdateRequest)
				r.Patch("/{id}/confirm", app.ConfirmRequest)
				r.Delete("/{id}", app.DeleteRequest)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", app.AdminListUsers)
				r.Patch("/users/{uid}/role", app.AdminSetRole)
				r.Patch("/users/{uid}/status", app.AdminSetUserStatus)
				r.Get("/requests", app.AdminListRequests)
				r.Patch("/requests/{id}/status", app.AdminSetRequestStatus)
				r.Delete("/requests/{id}", app.AdminDeleteRequest)
			})

			r.Get("/stats/summary", app.StatsSummary)
			r.Get("/stats/total-funding", app.TotalFunding)

			r.Route("/funding", func(r chi.Router) {
				r.Post("/create-intent", app.CreatePaymentIntent)
				r.Post("/record", app.RecordFunding)
				r.Get("/", app.ListFunding)
			})
		})
	})

	return r
}
