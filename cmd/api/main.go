package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"blooddonation/internal/access"
	"blooddonation/internal/adapter/memory"
	"blooddonation/internal/adapter/repo"
	"blooddonation/internal/domain"
	"blooddonation/internal/funding"
	"blooddonation/internal/http/handlers"
	httpapi "blooddonation/internal/http/httpapi"
	"blooddonation/internal/identity"
	"blooddonation/internal/infra"
	"blooddonation/internal/infra/geoip"
	"blooddonation/internal/infra/oidc"
	"blooddonation/internal/lifecycle"
	"blooddonation/internal/middleware"
	"blooddonation/internal/providers/payment"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infra.NewMetrics(reg)

	ctx := context.Background()

	var (
		users    domain.UserRepository
		requests domain.RequestRepository
		ledger   domain.FundingRepository
		store    handlers.Pinger
	)
	switch cfg.StoreDriver {
	case infra.StoreDriverMemory:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		users = memory.NewUserRepository()
		requests = memory.NewRequestRepository()
		ledger = memory.NewFundingRepository()
	default:
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		runner := infra.NewSQLRunner(dbpool, logger, metrics)
		users = repo.NewUserRepository(runner)
		requests = repo.NewRequestRepository(runner)
		ledger = repo.NewFundingRepository(runner)
		store = dbpool
	}

	var limiter middleware.Limiter = middleware.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute)
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; rate limiting per process")
	} else if rdb != nil {
		defer rdb.Close()
		limiter = middleware.NewRedisLimiter(rdb, "blooddonation:ratelimit", cfg.RateLimitPerMin, time.Minute)
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	var processor funding.Processor
	stripeClient, err := payment.NewStripeClient(payment.Options{
		SecretKey: cfg.StripeSecretKey,
		Logger:    logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("payments disabled")
	} else {
		processor = stripeClient
	}

	app := &handlers.App{
		Identity:                identity.NewService(users, logger, metrics),
		Requests:                lifecycle.NewManager(requests, users, logger, metrics),
		Funding:                 funding.NewLedger(ledger, users, processor, cfg.StripeCurrency, logger, metrics),
		Authz:                   access.NewAuthorizer(users, logger),
		Tokens:                  middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		AllowUnverifiedIdentity: cfg.IsDevelopment() && cfg.IDPIssuer == "",
		Store:                   store,
		Logger:                  logger,
	}
	if cfg.IDPIssuer != "" {
		app.IDTokens = oidc.NewVerifier(cfg.IDPIssuer, cfg.IDPAudience)
	} else if app.AllowUnverifiedIdentity {
		logger.Warn().Msg("IDP_ISSUER not set; trusting uid from request bodies (development only)")
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:            logger,
		Metrics:           metrics,
		Gatherer:          reg,
		Tokens:            app.Tokens,
		Limiter:           limiter,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		DefaultLocale:     cfg.DefaultLocale,
		CountryLookup:     countryLookup,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
