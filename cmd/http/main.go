package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/meetflow/chat-relay/internal/infrastructure/configs"
	"github.com/meetflow/chat-relay/internal/infrastructure/logging"
	"github.com/meetflow/chat-relay/internal/infrastructure/metrics"
	"github.com/meetflow/chat-relay/internal/infrastructure/ratelimiter"
	"github.com/meetflow/chat-relay/internal/infrastructure/storage"
	"github.com/meetflow/chat-relay/internal/infrastructure/tracing"
	"github.com/meetflow/chat-relay/internal/presentation/api"
	"github.com/meetflow/chat-relay/internal/presentation/handler/health"
	"github.com/meetflow/chat-relay/internal/presentation/handler/socket"
	"github.com/meetflow/chat-relay/internal/presentation/handler/uploads"
	"github.com/meetflow/chat-relay/internal/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "chat-relay"

func main() {
	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.Logger)
	defer logger.Sync()

	sh, err := tracing.InitTracer(serviceName, cfg.Tracing)
	if err != nil {
		logger.Fatalw("failed to initialize the tracer", "err", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	relayMetrics := metrics.New(registry)

	// The core is started lazily by the first /api/socket request.
	core := relay.NewCore(cfg.Relay, logger, relayMetrics)
	socketHandler := socket.NewHandler(core, cfg.Relay, logger)

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatalw("failed to initialize upload storage", "err", err)
	}
	uploadHandler := uploads.NewHandler(store, cfg.Uploads, logger)
	healthHandler := health.NewHandler()

	rateLimiter := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rateLimiter.Close()

	app := api.NewApplication(*cfg, socketHandler, uploadHandler, healthHandler, logger, rateLimiter, registry)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
