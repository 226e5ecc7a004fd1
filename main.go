package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"

	"waterworks_backend/internals/configs"
	database "waterworks_backend/internals/databases"
	"waterworks_backend/internals/features/billing"
	gwsvc "waterworks_backend/internals/features/billing/gateway/service"
	helper "waterworks_backend/internals/helpers"
	"waterworks_backend/internals/helpers/dbtime"
	"waterworks_backend/internals/metrics"
	"waterworks_backend/internals/middlewares"
	"waterworks_backend/internals/middlewares/logger"
	"waterworks_backend/internals/mq"
	"waterworks_backend/internals/mq/noop"
	"waterworks_backend/internals/mq/rabbitmq"
	routes "waterworks_backend/internals/route"
	"waterworks_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := configs.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	dbtime.SetLocation(cfg.Timezone)

	// DB connect + pool + warm-up
	gormLevel := gormLogger.Info
	if cfg.Production() {
		gormLevel = gormLogger.Warn
	}
	db, err := database.ConnectDB(cfg.DB, zl, gormLevel)
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	database.TunePool(db, zl)
	if err := database.AutoMigrate(db); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}
	database.WarmUpQueries(db, zl)

	m := metrics.BillingWithConfig(metrics.Config{ServiceName: "waterworks", Environment: cfg.Env})

	pub := newPublisher(cfg, zl)
	defer pub.Close()

	opts := billing.Options{
		Gateway: gwsvc.Config{
			Mode:                  cfg.Payment.Mode,
			Currency:              cfg.Payment.Currency,
			AppURL:                cfg.AppURL,
			Timeout:               cfg.Payment.GatewayTimeout,
			PayMongoWebhookSecret: cfg.Payment.PayMongoWebhookSecret,
			MidtransServerKey:     cfg.Payment.MidtransServerKey,
			ManualQRImage:         cfg.Payment.ManualQRImage,
		},
		Publisher:    pub,
		Metrics:      m,
		PollInterval: cfg.Payment.PollInterval,
		Log:          zl,
	}
	if cfg.Payment.PayMongoSecretKey != "" {
		opts.PayMongo = gwsvc.NewPayMongoClient(gwsvc.PayMongoConfig{
			SecretKey: cfg.Payment.PayMongoSecretKey,
			Timeout:   cfg.Payment.GatewayTimeout,
		})
	}
	if cfg.Payment.MidtransServerKey != "" {
		opts.Midtrans = gwsvc.NewMidtransClient(cfg.Payment.MidtransServerKey, cfg.Payment.MidtransUseProd)
	}
	if cfg.Payment.PayMongoWebhookSecret == "" && cfg.Payment.MidtransServerKey == "" {
		zl.Warn("no webhook secrets configured, webhooks are accepted unverified")
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Warn("redis unavailable, webhook dedupe disabled", zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		} else {
			opts.Deduper = gwsvc.NewRedisDeduper(rdb, "waterworks:webhook", 24*time.Hour, zl)
		}
		cancel()
	}

	repos := billing.GormRepositories(db)
	svc := billing.NewServices(repos, opts)

	if cfg.RunSeeds {
		if err := seeds.RunAllSeeds(context.Background(), svc, repos, "internals/seeds", zl); err != nil {
			zl.Fatal("seeds", zap.Error(err))
		}
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	svc.Poller.Start(rootCtx)

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler:            helper.ErrorHandler(zl),
		ReadTimeout:             15 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             90 * time.Second,
	})

	app.Use(middlewares.RecoveryMiddleware(zl))
	app.Use(middlewares.RequestIDMiddleware())
	app.Use(logger.LoggerMiddleware(zl))
	app.Use(middlewares.MetricsMiddleware(m))
	app.Use(middlewares.CorsMiddleware(cfg.CORSOrigins))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(middlewares.GlobalRateLimiter())

	routes.SetupRoutes(app, routes.Deps{
		DB:             db,
		Services:       svc,
		JWTSecret:      cfg.JWTSecret,
		DefaultGateway: cfg.Payment.DefaultGateway,
		Env:            cfg.Env,
		Log:            zl,
	})

	go func() {
		zl.Info("listening", zap.String("port", cfg.Port), zap.String("payment_mode", cfg.Payment.Mode))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := database.Close(db); err != nil {
		zl.Warn("db close", zap.Error(err))
	}
}

func newPublisher(cfg configs.Config, zl *zap.Logger) mq.Publisher {
	if cfg.AMQPURL == "" {
		zl.Info("AMQP_URL not set, domain events are dropped")
		return noop.NewPublisher()
	}
	pub, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.Exchange, zl)
	if err != nil {
		zl.Warn("rabbitmq unavailable, domain events are dropped", zap.Error(err))
		return noop.NewPublisher()
	}
	return pub
}
