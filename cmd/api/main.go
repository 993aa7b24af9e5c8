package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	_ "github.com/jhoicas/Gym-api/docs"
	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/repository"
	kafkainfra "github.com/jhoicas/Gym-api/internal/infrastructure/kafka"
	"github.com/jhoicas/Gym-api/internal/infrastructure/lock"
	"github.com/jhoicas/Gym-api/internal/infrastructure/memory"
	"github.com/jhoicas/Gym-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Gym-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Gym-api/internal/infrastructure/postgres"
	redisinfra "github.com/jhoicas/Gym-api/internal/infrastructure/redis"
	sdiinfra "github.com/jhoicas/Gym-api/internal/infrastructure/sdi"
	httpRouter "github.com/jhoicas/Gym-api/internal/interfaces/http"
	kafkain "github.com/jhoicas/Gym-api/internal/interfaces/kafka"
	"github.com/jhoicas/Gym-api/pkg/config"
	"github.com/jhoicas/Gym-api/pkg/logger"
)

// @title        Gym API - Facturación electrónica SdI
// @version      1.0
// @description  Ciclo de transmisión de facturas electrónicas de ventas del gimnasio al SdI.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  ApiKey
// @in                          header
// @name                        X-API-Key
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("sdi_env", cfg.SDI.Env).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ── Persistencia ──────────────────────────────────────────────────────────
	var (
		invoiceRepo repository.ElectronicInvoiceRepository
		eventRepo   repository.TransmissionEventRepository
		inboxRepo   repository.NotificationInboxRepository
		txRunner    einvoicing.TxRunner
	)
	switch cfg.Store.Driver {
	case "memory":
		store := memory.NewStore()
		invoiceRepo, eventRepo, inboxRepo, txRunner = store.Invoices(), store.Events(), store.Inbox(), store
		log.Warn().Msg("STORE_DRIVER=memory: los intentos no sobreviven a un reinicio")
	default:
		if cfg.DB.MigrateOnStart {
			if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Component("migrate")); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		invoiceRepo = postgres.NewElectronicInvoiceRepository(pool)
		eventRepo = postgres.NewTransmissionEventRepository(pool)
		inboxRepo = postgres.NewNotificationInboxRepository(pool)
		txRunner = postgres.NewTxRunner(pool)
	}

	// ── Lock por intento: Redis entre instancias, mutex en proceso si no hay Redis ──
	var locker einvoicing.InvoiceLocker = lock.NewKeyedMutex()
	if cfg.Redis.Enabled() {
		client, err := redisinfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		locker = redisinfra.NewLocker(client, "gym-api:lock:", cfg.Redis.LockTTL, log.Component("redis-lock"))
	}

	gateway := sdiinfra.NewGateway(cfg.SDI.Env, cfg.SDI.GatewayURL, cfg.SDI.GatewayAPIKey, cfg.SDI.GatewayTimeout)
	transmissionMetrics := metrics.NewTransmissionMetrics()

	svc := einvoicing.NewTransmissionService(
		invoiceRepo, eventRepo, inboxRepo, txRunner, gateway, locker, nil,
		einvoicing.Config{
			MaxResends: cfg.SDI.MaxResends,
			AutoResend: cfg.SDI.AutoResend,
			Backoff: einvoicing.BackoffConfig{
				InitialInterval: cfg.SDI.BackoffInitial,
				MaxInterval:     cfg.SDI.BackoffMax,
				MaxElapsedTime:  cfg.SDI.BackoffMaxElapsed,
				MaxRetries:      uint64(cfg.SDI.BackoffMaxRetries),
			},
			AutoFix: einvoice.AutoFixDefaults{
				TransmissionFormat: cfg.SDI.DefaultTransmissionFormat,
				VATNature:          cfg.SDI.DefaultVATNature,
			},
		},
		log.Zerolog(),
	)
	svc.SetParser(sdiinfra.NewNotificationParser())
	svc.SetPDFGenerator(infrapdf.NewAuditPDFGenerator())
	svc.SetMetrics(transmissionMetrics)

	// ── Kafka: eventos de cambio de estado y notificaciones entrantes ─────────
	var consumerDone chan struct{}
	if cfg.Kafka.Enabled() {
		producer := kafkainfra.NewProducer(cfg.Kafka.Brokers, log.Component("kafka-producer"))
		defer func() {
			if err := producer.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar productor kafka")
			}
		}()
		svc.SetPublisher(kafkainfra.NewStatusPublisher(producer, cfg.Kafka.StatusTopic))

		consumer := kafkainfra.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, log.Component("kafka-consumer"))
		handler := kafkain.NewNotificationHandler(svc, producer, cfg.Kafka.DeadLetterTopic, log.Component("sdi-notifications"))
		consumerDone = make(chan struct{})
		go func() {
			defer close(consumerDone)
			if err := consumer.Start(ctx, handler.Handle); err != nil {
				log.Error().Err(err).Msg("consumidor kafka finalizado")
			}
		}()
	} else {
		log.Info().Msg("KAFKA_BROKERS vacío: sin publicación de eventos ni consumo de notificaciones")
	}

	orchestrator := einvoicing.NewSubmissionOrchestrator(svc, cfg.SDI.SubmitTimeout, log.Zerolog())
	sweeper := einvoicing.NewReconcileSweeper(svc, orchestrator, cfg.SDI.SweepInterval, cfg.SDI.SweepBatch, log.Zerolog())
	go sweeper.Run(ctx)

	if cfg.SDI.WebhookKeyHash == "" {
		log.Warn().Msg("SDI_WEBHOOK_KEY_HASH vacío: el webhook de notificaciones responde 503")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Gym API - Facturación electrónica",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		TransmissionSvc: svc,
		Dispatcher:      orchestrator,
		JWTSecret:       cfg.JWT.Secret,
		WebhookKeyHash:  cfg.SDI.WebhookKeyHash,
		MetricsHandler:  transmissionMetrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	stop()
	if consumerDone != nil {
		<-consumerDone
	}
	waitSubmissions(shutdownCtx, orchestrator, log.Zerolog())

	log.Info().Msg("aplicación detenida")
}

// waitSubmissions espera los envíos en curso hasta el plazo de apagado.
func waitSubmissions(ctx context.Context, o *einvoicing.SubmissionOrchestrator, log zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		o.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Msg("apagado con envíos en curso; el barrido los retomará al reiniciar")
	}
}
