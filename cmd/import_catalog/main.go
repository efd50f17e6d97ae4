// import_catalog carga productos en el catálogo a partir del XML exportado por el POS anterior.
//
// Uso: go run ./cmd/import_catalog <tenant_id> [ruta/catalogo.xml]
// Por defecto busca catalogo.xml en el directorio actual. Usa la misma configuración que la API
// (DATABASE_URL, SYNC_SKU_PREFIX, ...). Los productos cuyo SKU o código ya existe se omiten.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jhoicas/Precios-api/internal/application/catalog"
	"github.com/jhoicas/Precios-api/internal/application/labels"
	"github.com/jhoicas/Precios-api/internal/application/sequence"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/infrastructure/labelfeed"
	"github.com/jhoicas/Precios-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Precios-api/pkg/config"
	"github.com/jhoicas/Precios-api/pkg/logger"
)

// importUser queda como created_by de los movimientos iniciales de stock.
const importUser = "import_catalog"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: import_catalog <tenant_id> [catalogo.xml]")
		os.Exit(2)
	}
	tenantID := os.Args[1]
	xmlPath := "catalogo.xml"
	if len(os.Args) > 2 {
		xmlPath = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(xmlPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", xmlPath).Msg("abrir XML")
	}
	defer f.Close()
	items, err := parseCatalog(f)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.Sync.FanoutWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	runner := postgres.NewTxRunner(pool)
	repos := runner.Repos()

	allocator := sequence.NewAllocator(repos.Sequences, sequence.Options{
		MaxAttempts: cfg.Sync.AllocatorMaxAttempts,
		BaseBackoff: cfg.Sync.AllocatorBaseBackoff,
	}, nil, log.Named("sequence"))
	labelUC := labels.NewUseCase(repos, runner, allocator, labelfeed.NewRenderer(), labels.Options{
		LabelPrefix: cfg.Sync.LabelPrefix,
		Workers:     cfg.Sync.FanoutWorkers,
	}, nil, log)
	catalogUC := catalog.NewUseCase(repos, runner, allocator, labelUC, catalog.Options{
		SKUPrefix:     cfg.Sync.SKUPrefix,
		ProductPrefix: cfg.Sync.ProductPrefix,
	}, log)

	var created, skipped int
	for _, item := range items {
		_, err := catalogUC.CreateProduct(ctx, tenantID, importUser, item)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrDuplicateCode):
			skipped++
			log.Warn().Str("name", item.Name).Str("sku", item.SKU).Msg("producto ya existe, se omite")
		default:
			log.Fatal().Err(err).Str("name", item.Name).Msg("crear producto")
		}
	}
	fmt.Printf("Importados %d productos, omitidos %d (de %s)\n", created, skipped, xmlPath)
}
