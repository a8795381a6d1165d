package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/tzoverlap/libs/config"
	"github.com/md-rashed-zaman/tzoverlap/libs/db"
	"github.com/md-rashed-zaman/tzoverlap/libs/httpx"
	"github.com/md-rashed-zaman/tzoverlap/libs/kafkax"
	otelx "github.com/md-rashed-zaman/tzoverlap/libs/otel"
	"github.com/md-rashed-zaman/tzoverlap/libs/runtime"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/consumer"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/evaluator"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/handlers"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/storage"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/zoned"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "overlap-service")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	}

	svc := evaluator.NewService(zoned.NewSystemOracle(time.Now), logger)

	var (
		participants handlers.ParticipantStore
		dbCheck      func(context.Context) error
	)
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err := db.Open(ctx, dbURL, db.Options{
			MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		repo := storage.NewParticipantRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("schema setup failed", "err", err)
			panic(err)
		}
		participants = repo
		dbCheck = db.ReadyCheck(pool)
	} else {
		logger.Info("participant directory disabled (no DATABASE_URL)")
	}

	brokers := config.String("KAFKA_BROKERS", "")
	var kafkaCheck func(context.Context) error
	if brokers != "" {
		consumeTopic := config.String("KAFKA_CONSUME_TOPIC", consumer.RequestedTopic)
		kafkaCheck = kafkax.ReadyCheck(brokers, consumeTopic)
		var publisher consumer.Publisher
		if w := kafkax.NewWriter(brokers, consumer.PublishTopic(config.String("KAFKA_PUBLISH_TOPIC", ""))); w != nil {
			defer func() { _ = w.Close() }()
			publisher = w
		}
		evaluations := consumer.NewEvaluations(svc, publisher, logger)
		eventConsumer := consumer.New(logger, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   consumeTopic,
		}, evaluations.Handle)
		go eventConsumer.Run(ctx)
	}

	if err := startGrpcServer(ctx, logger, svc); err != nil {
		logger.Error("grpc server start failed", "err", err)
		panic(err)
	}

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var (
		rateLimitMW httpx.Middleware
		redisCheck  func(context.Context) error
	)
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", ""))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		redisCheck = httpx.RedisReadyCheck(rdb)
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rateLimitMW = httpx.NewRateLimiter(limitPerMinute, time.Minute).Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: dbCheck},
		runtime.ReadyCheck{Name: "kafka", Check: kafkaCheck},
		runtime.ReadyCheck{Name: "redis", Check: redisCheck},
	)
	handlers.NewOverlapHandler(svc, participants, logger).Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedHeaders: config.List("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id"),
			MaxAge:         config.Seconds("CORS_MAX_AGE_SECONDS", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 64<<10))),
		httpx.WithTimeout(config.Seconds("REQUEST_TIMEOUT_SECONDS", 10*time.Second)),
		rateLimitMW,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "overlap")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	if err := runtime.Shutdown(10*time.Second, srv.Shutdown, otelShutdown); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
