package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/wa-gateway-go/internal/config"
	"github.com/openclaw/wa-gateway-go/internal/handler"
	"github.com/openclaw/wa-gateway-go/internal/middleware"
	"github.com/openclaw/wa-gateway-go/internal/redis"
	"github.com/openclaw/wa-gateway-go/internal/service"
	"github.com/openclaw/wa-gateway-go/internal/sse"
	"github.com/openclaw/wa-gateway-go/internal/store"
	"github.com/openclaw/wa-gateway-go/internal/waclient"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	sessionStore := store.New(cfg.SessionDir, cfg.SessionStoreDriver, cfg.DatabaseURL, log.Logger)
	defer sessionStore.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
	}

	broker := sse.NewBroker(redisClient, redis.SessionEventsChannel(cfg.ServiceName))
	defer broker.Close()

	factory := waclient.NewWhatsmeowFactory(sessionStore, log.Logger)
	lifecycle := service.NewLifecycleManager(factory, sessionStore, broker, cfg.ReconnectDelay())
	messaging := service.NewMessagingService(lifecycle, service.NewMediaResolver(cfg.MediaFetchTimeout()))

	var limiter middleware.Limiter = middleware.NewRateLimiter()
	if redisClient != nil {
		limiter = middleware.NewRedisRateLimiter(redisClient.Client, cfg.ServiceName)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Health:          handler.NewHealthHandler(cfg.ServiceName, cfg.ServiceVersion),
		Session:         handler.NewSessionHandler(lifecycle),
		Messaging:       handler.NewMessagingHandler(messaging),
		Events:          handler.NewEventsHandler(broker, lifecycle),
		Auth:            middleware.NewAuthMiddleware(cfg.APIToken),
		RateLimit:       middleware.NewRateLimitMiddleware(limiter, cfg.RateLimitPerMin),
		BodyLimit:       middleware.NewBodyLimitMiddleware(0),
		SecurityHeaders: middleware.NewSecurityHeadersMiddleware(isProduction),
		AllowedOrigins:  cfg.Origins(),
	})

	if err := lifecycle.Initialize(context.Background()); err != nil {
		log.Error().Err(err).Msg("initial whatsapp client start failed, waiting for /api/qrcode")
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	lifecycle.Shutdown()

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
