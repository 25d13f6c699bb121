package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // club timezone on images without zoneinfo

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"horseclub_backend/internals/configs"
	database "horseclub_backend/internals/databases"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	chargeService "horseclub_backend/internals/features/finance/charges/service"
	notifService "horseclub_backend/internals/features/notifications/service"
	trainingService "horseclub_backend/internals/features/training/service"
	scheduler "horseclub_backend/internals/features/users/auth/scheduler"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/helpers/storage"
	middlewares "horseclub_backend/internals/middlewares"
	"horseclub_backend/internals/middlewares/logger"
	routes "horseclub_backend/internals/route"
	"horseclub_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	log := configs.Log

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.FiberErrorHandler,
		BodyLimit:               10 * 1024 * 1024, // horse photos up to 8MB + form fields
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// base + performance middleware
	app.Use(middlewares.RecoveryMiddleware())
	app.Use(middlewares.RequestID())
	app.Use(logger.LoggerMiddleware())
	app.Use(middlewares.CorsMiddleware())
	app.Use(middlewares.GlobalRateLimiter())
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(middlewares.RequestTimeout(configs.Cfg.RequestTimeout))

	// DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()
	db := database.DB
	app.Use(middlewares.DBMiddleware(db))

	if configs.Cfg.DBAutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
	}
	seeds.RunAllSeeds(db)

	bg, stopBg := context.WithCancel(context.Background())
	defer stopBg()

	// scheduler once the DB is ready
	scheduler.StartBlacklistCleanupScheduler(bg, db)

	// audit rows are written async after commit
	recorder := auditService.NewRecorder(auditService.GormSink{DB: db}, configs.Cfg.AuditBuffer)

	// events: RabbitMQ when configured, otherwise straight into the notifications table
	var (
		publisher notifService.Publisher = notifService.DirectPublisher{DB: db}
		closers   []func() error
	)
	if url := configs.Cfg.RabbitURL; url != "" {
		pub, err := notifService.NewAMQPPublisher(url, configs.Cfg.RabbitExchange)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, notifications stored directly")
		} else {
			publisher = pub
			closers = append(closers, pub.Close)

			cons, err := notifService.NewConsumer(url, configs.Cfg.RabbitExchange, configs.Cfg.RabbitQueue, notifService.AllKeys)
			if err != nil {
				log.WithError(err).Error("rabbitmq consumer not started")
			} else {
				closers = append(closers, cons.Close)
				go func() {
					if err := cons.Run(bg, notifService.SaveHandler(db)); err != nil {
						log.WithError(err).Error("rabbitmq consumer stopped")
					}
				}()
			}
		}
	}

	flow := trainingService.New(trainingService.NewGormStore(db), recorder, publisher)
	flow.DefaultCurrency = configs.Cfg.DefaultCurrency
	flow.FallbackCents = configs.Cfg.PricingDefaultAmountCents
	charges := chargeService.New(chargeService.NewGormStore(db), recorder, publisher)

	files := storage.NewLocalStore(configs.Cfg.UploadDir)
	if err := os.MkdirAll(files.Dir, 0o755); err != nil {
		log.WithError(err).Fatal("upload dir not writable")
	}

	routes.SetupRoutes(app, db, routes.Deps{
		Audit:    recorder,
		Training: flow,
		Charges:  charges,
		Files:    files,
	})

	// keep-alive & server connection timeouts
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.Cfg.Port
	go func() {
		log.Infof("Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown: http -> consumer -> audit -> broker -> DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	stopBg()
	recorder.Close()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			log.WithError(err).Warn("close broker")
		}
	}
	database.Close()
}
