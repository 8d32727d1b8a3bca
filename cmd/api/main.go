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

	"github.com/jhoicas/farmapos-api/internal/application/alerts"
	"github.com/jhoicas/farmapos-api/internal/application/events"
	"github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/application/sales"
	infrakafka "github.com/jhoicas/farmapos-api/internal/infrastructure/kafka"
	infrapdf "github.com/jhoicas/farmapos-api/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/farmapos-api/internal/interfaces/http"
	"github.com/jhoicas/farmapos-api/pkg/config"
	"github.com/jhoicas/farmapos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	ledger := inventory.NewLedger()
	engine := sales.NewEngine(
		st.tx, ledger, st.products, st.facilities, st.items, st.sales,
		sales.EngineConfig{ReceiptPrefix: cfg.POS.ReceiptPrefix, MaxNumberRetries: cfg.POS.MaxNumberRetries},
		logger.Component(log, "sales"),
	)
	batchUC := inventory.NewBatchUseCase(st.tx, ledger, st.products, st.facilities, st.items, st.batches, logger.Component(log, "inventory"))
	queryUC := inventory.NewQueryUseCase(st.tx, st.facilities, st.items, st.batches, st.movements,
		cfg.Alerts.ExpiryThresholdDays, logger.Component(log, "inventory"))
	scanner := alerts.NewScanner(st.facilities, st.products, st.items, st.batches, st.alerts,
		cfg.Alerts.ExpiryThresholdDays, logger.Component(log, "alerts"))
	receiptUC := sales.NewReceiptUseCase(st.sales, st.facilities, infrapdf.NewReceiptGenerator())

	// Procesos en segundo plano: vencimiento/alertas y relay del outbox.
	scheduler := alerts.NewScheduler(scanner, batchUC, st.facilities, cfg.Alerts.ScanInterval, logger.Component(log, "scheduler"))
	go scheduler.Start(ctx)

	publisher, closePublisher := newPublisher(cfg, log)
	defer closePublisher()
	relay := events.NewRelay(st.outbox, publisher, cfg.Kafka.RelayInterval, logger.Component(log, "relay"))
	go relay.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "FarmaPOS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:    engine,
		Receipts:  receiptUC,
		Batches:   batchUC,
		Queries:   queryUC,
		Scanner:   scanner,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// newPublisher usa Kafka si hay brokers; si no, registra los eventos en el log.
func newPublisher(cfg *config.Config, log zerolog.Logger) (events.Publisher, func()) {
	if !cfg.Kafka.Enabled() {
		log.Warn().Msg("KAFKA_BROKERS vacío: los eventos de venta se registran sólo en el log")
		return events.NewLogPublisher(logger.Component(log, "events")), func() {}
	}
	p := infrakafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicador Kafka listo")
	return p, func() {
		if err := p.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar publicador Kafka")
		}
	}
}
