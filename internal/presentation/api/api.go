package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/meetflow/chat-relay/internal/infrastructure/configs"
	"github.com/meetflow/chat-relay/internal/infrastructure/ratelimiter"
	healthHandler "github.com/meetflow/chat-relay/internal/presentation/handler/health"
	socketHandler "github.com/meetflow/chat-relay/internal/presentation/handler/socket"
	uploadsHandler "github.com/meetflow/chat-relay/internal/presentation/handler/uploads"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Application struct {
	config        configs.Config
	socketHandler *socketHandler.Handler
	uploadHandler *uploadsHandler.Handler
	healthHandler *healthHandler.Handler
	logger        *zap.SugaredLogger
	ratelimiter   ratelimiter.Limiter
	registry      *prometheus.Registry
}

func NewApplication(
	config configs.Config,
	socket *socketHandler.Handler,
	upload *uploadsHandler.Handler,
	health *healthHandler.Handler,
	logger *zap.SugaredLogger,
	ratelimiter ratelimiter.Limiter,
	registry *prometheus.Registry,
) *Application {
	return &Application{
		config:        config,
		socketHandler: socket,
		uploadHandler: upload,
		healthHandler: health,
		logger:        logger,
		ratelimiter:   ratelimiter,
		registry:      registry,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)
	r.Use(app.loggerMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/socket", func(r chi.Router) {
			r.Get("/", app.socketHandler.Bootstrap)
			r.Post("/connect", app.socketHandler.Connect)
			r.Get("/poll", app.socketHandler.Poll)
			r.Post("/emit", app.socketHandler.Emit)
			r.Post("/disconnect", app.socketHandler.Disconnect)
		})

		r.Post("/uploads", app.uploadHandler.Upload)
		r.Get("/uploads/{file}", app.uploadHandler.Serve)

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:     otelhttp.NewHandler(mux, "chat-relay"),
		ReadTimeout: app.config.HTTP.ReadTimeout,
		IdleTimeout: time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", srv.Addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", srv.Addr)

	return nil
}
