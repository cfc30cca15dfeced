package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vpexchange/internal/exchange/adapters"
	"vpexchange/internal/exchange/callback"
	"vpexchange/internal/exchange/handler"
	exchangemetrics "vpexchange/internal/exchange/metrics"
	"vpexchange/internal/exchange/service"
	"vpexchange/internal/exchange/verifier"
	"vpexchange/internal/platform/config"
	"vpexchange/internal/platform/health"
	"vpexchange/internal/platform/httpserver"
	"vpexchange/internal/platform/issuertoken"
	"vpexchange/internal/platform/logger"
	"vpexchange/internal/platform/metrics"
	"vpexchange/internal/platform/middleware"
	"vpexchange/internal/platform/tracer"
	httptransport "vpexchange/internal/transport/http"
)

// main wires dependencies, serves the exchange API and shuts down on SIGINT/SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing vpexchange",
		"addr", cfg.Addr,
		"base_url", cfg.BaseURL,
		"store", cfg.Store,
		"environment", cfg.Environment,
	)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthHandler := health.New(cfg.Environment)

	infra, err := buildInfra(ctx, cfg, log, healthHandler)
	if err != nil {
		log.Error("failed to initialize infrastructure", "error", err)
		os.Exit(1)
	}

	reg := prometheus.DefaultRegisterer
	exchangeMetrics := exchangemetrics.New(reg)
	httpMetrics := metrics.New(reg)
	otel := tracer.NewOTel()

	proofs := adapters.NewHTTPProofVerifier(cfg.ProofVerifierURL, cfg.ProofVerifierTimeout,
		adapters.WithProofVerifierLogger(log),
	)
	submissionVerifier := verifier.New(proofs, adapters.NewDefinitionEvaluator(),
		verifier.WithLogger(log),
		verifier.WithTracer(otel),
	)

	dispatcherOpts := []callback.Option{
		callback.WithTimeout(cfg.CallbackTimeout),
		callback.WithConcurrency(cfg.CallbackConcurrency),
		callback.WithMetrics(exchangeMetrics),
		callback.WithLogger(log),
	}
	if infra.producer != nil {
		dispatcherOpts = append(dispatcherOpts,
			callback.WithPublisher(adapters.NewKafkaEventPublisher(infra.producer, cfg.Kafka.EventsTopic)))
	}
	dispatcher := callback.New(dispatcherOpts...)

	svc := service.New(infra.store, submissionVerifier, dispatcher, cfg.BaseURL,
		service.WithLogger(log),
		service.WithMetrics(exchangeMetrics),
		service.WithTracer(otel),
	)

	var auth middleware.TokenValidator
	if cfg.IssuerSigningKey != "" {
		auth = issuertoken.New(cfg.IssuerSigningKey)
	} else {
		log.Warn("ISSUER_JWT_SIGNING_KEY not set, issuer routes are unprotected", "environment", cfg.Environment)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Latency:        httpMetrics,
		MetricsHandler: promhttp.Handler(),
	},
		healthHandler,
		handler.New(svc, auth, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error("server error", "error", err)
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn("pending callbacks abandoned", "error", err)
	}
	infra.close(shutdownCtx, log)

	log.Info("server stopped")
}
