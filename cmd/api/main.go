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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/jhoicas/Precios-api/docs"
	"github.com/jhoicas/Precios-api/internal/application/catalog"
	"github.com/jhoicas/Precios-api/internal/application/checkout"
	"github.com/jhoicas/Precios-api/internal/application/inventory"
	"github.com/jhoicas/Precios-api/internal/application/labels"
	"github.com/jhoicas/Precios-api/internal/application/promotion"
	"github.com/jhoicas/Precios-api/internal/application/sequence"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/internal/infrastructure/labelfeed"
	"github.com/jhoicas/Precios-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Precios-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Precios-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Precios-api/internal/interfaces/http"
	"github.com/jhoicas/Precios-api/internal/jobs"
	"github.com/jhoicas/Precios-api/pkg/config"
	"github.com/jhoicas/Precios-api/pkg/logger"
	"github.com/jhoicas/Precios-api/pkg/metrics"
	pkgredis "github.com/jhoicas/Precios-api/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistencia: PostgreSQL en producción, memoria para desarrollo local
	var (
		repos    repository.Repos
		txRunner repository.TxRunner
	)
	switch cfg.App.Store {
	case "memory":
		store := memory.New()
		repos, txRunner = store.Repos(), store
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.Sync.FanoutWorkers)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		runner := postgres.NewTxRunner(pool)
		repos, txRunner = runner.Repos(), runner
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	syncMetrics := metrics.NewSyncMetrics(registry)

	allocator := sequence.NewAllocator(repos.Sequences, sequence.Options{
		MaxAttempts: cfg.Sync.AllocatorMaxAttempts,
		BaseBackoff: cfg.Sync.AllocatorBaseBackoff,
	}, syncMetrics, log.Named("sequence"))

	labelUC := labels.NewUseCase(repos, txRunner, allocator, labelfeed.NewRenderer(), labels.Options{
		LabelPrefix: cfg.Sync.LabelPrefix,
		Workers:     cfg.Sync.FanoutWorkers,
	}, syncMetrics, log)
	catalogUC := catalog.NewUseCase(repos, txRunner, allocator, labelUC, catalog.Options{
		SKUPrefix:     cfg.Sync.SKUPrefix,
		ProductPrefix: cfg.Sync.ProductPrefix,
	}, log)
	stockUC := inventory.NewStockUseCase(repos, txRunner, labelUC, log)
	promotionEngine := promotion.NewEngine(repos, labelUC, log)

	// PDF: recibo de venta
	receiptPDF := infrapdf.NewReceiptGenerator(cfg.App.Name)
	checkoutUC := checkout.NewUseCase(repos, txRunner, allocator, receiptPDF, checkout.Options{
		ReceiptPrefix: cfg.Sync.ReceiptPrefix,
		MaxAttempts:   cfg.Sync.CheckoutMaxAttempts,
	}, syncMetrics, log)

	// Reconciliación periódica de etiquetas. Con Redis el lock es compartido entre instancias.
	if cfg.Sync.ReconcileInterval > 0 {
		var lock jobs.Lock = jobs.NoopLock{}
		if cfg.Redis.Enabled() {
			rdb, err := pkgredis.New(ctx, cfg.Redis)
			if err != nil {
				log.Fatal().Err(err).Msg("conexión a Redis")
			}
			defer rdb.Close()
			lock, err = jobs.NewRedisLock(rdb, rdb.LockKey(jobs.ReconcileJobName), cfg.Sync.ReconcileLockTTL)
			if err != nil {
				log.Fatal().Err(err).Msg("lock de reconciliación")
			}
		}
		reconciler, err := jobs.NewReconciler(jobs.ReconcilerParams{
			Labels:   labelUC,
			Lock:     lock,
			Metrics:  syncMetrics,
			Logger:   log,
			Interval: cfg.Sync.ReconcileInterval,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("job de reconciliación")
		}
		go func() {
			_ = reconciler.Run(ctx)
		}()
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
		Title:    "Precios API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Catalog:     catalogUC,
		Stock:       stockUC,
		Labels:      labelUC,
		Promotion:   promotionEngine,
		Checkout:    checkoutUC,
		JWTSecret:   cfg.JWT.Secret,
		Gatherer:    registry,
		Logger:      log,
		ServiceName: cfg.App.Name,
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
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
