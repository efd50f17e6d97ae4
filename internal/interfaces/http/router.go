package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Precios-api/internal/application/catalog"
	"github.com/jhoicas/Precios-api/internal/application/checkout"
	"github.com/jhoicas/Precios-api/internal/application/inventory"
	"github.com/jhoicas/Precios-api/internal/application/labels"
	"github.com/jhoicas/Precios-api/internal/application/promotion"
	"github.com/jhoicas/Precios-api/pkg/jwt"
	"github.com/jhoicas/Precios-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Catalog   *catalog.UseCase
	Stock     *inventory.StockUseCase
	Labels    *labels.UseCase
	Promotion *promotion.Engine
	Checkout  *checkout.UseCase
	JWTSecret string
	// Gatherer origen de /metrics; nil = sin endpoint.
	Gatherer    prometheus.Gatherer
	Logger      *logger.Logger
	ServiceName string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Logger != nil {
		app.Use(RequestLogger(deps.Logger))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleManager)
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleCashier)

	// Products
	productHandler := NewProductHandler(deps.Catalog)
	products := api.Group("/products")
	products.Get("/", anyRole, productHandler.List)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Post("/", writers, productHandler.Create)
	products.Patch("/:id", writers, productHandler.Update)
	products.Post("/:id/branches", writers, productHandler.IntroduceToBranch)

	// Rutas por sucursal: el token atado a una sucursal solo opera sobre ella
	branch := api.Group("/branches/:branchId", RequireBranchAccess())

	stockHandler := NewStockHandler(deps.Stock)
	branch.Get("/stock", anyRole, stockHandler.List)
	branch.Get("/replenishment", anyRole, stockHandler.Replenishment)
	branch.Get("/stock/:productId", anyRole, stockHandler.Get)
	branch.Get("/stock/:productId/movements", anyRole, stockHandler.Movements)
	branch.Post("/stock/:productId/adjust", writers, stockHandler.Adjust)
	branch.Put("/stock/:productId/quantity", writers, stockHandler.SetQuantity)
	branch.Put("/stock/:productId/price", writers, stockHandler.SetPrice)
	branch.Put("/stock/:productId/min-stock", writers, stockHandler.SetMinStock)

	labelHandler := NewLabelHandler(deps.Labels)
	branch.Get("/labels", anyRole, labelHandler.List)
	branch.Get("/labels/feed", anyRole, labelHandler.Feed)
	branch.Post("/labels/provision", writers, labelHandler.Provision)
	branch.Post("/labels/auto-assign", writers, labelHandler.AutoAssign)
	branch.Post("/labels/resync", writers, labelHandler.Resync)

	saleHandler := NewSaleHandler(deps.Checkout)
	branch.Post("/checkout", anyRole, saleHandler.Checkout)
	branch.Get("/sales", anyRole, saleHandler.List)
	branch.Get("/sales/:receiptNo", anyRole, saleHandler.GetByReceipt)
	branch.Get("/sales/:receiptNo/pdf", anyRole, saleHandler.ReceiptPDF)

	// Labels por ID
	labelsByID := api.Group("/labels/:id", writers)
	labelsByID.Put("/product", labelHandler.AssignProduct)
	labelsByID.Delete("/product", labelHandler.ClearAssignment)
	labelsByID.Put("/location", labelHandler.UpdateLocation)
	labelsByID.Put("/discount", labelHandler.ApplyDiscount)
	labelsByID.Delete("/discount", labelHandler.ClearDiscount)

	// Promotions
	promotionHandler := NewPromotionHandler(deps.Promotion)
	promotions := api.Group("/promotions")
	promotions.Get("/", anyRole, promotionHandler.List)
	promotions.Get("/:id", anyRole, promotionHandler.GetByID)
	promotions.Post("/", writers, promotionHandler.Create)
	promotions.Patch("/:id", writers, promotionHandler.Update)
	promotions.Post("/:id/apply", writers, promotionHandler.Apply)
	promotions.Post("/:id/revert", writers, promotionHandler.Revert)

	// Administración
	api.Delete("/sales", RequireRole(jwt.RoleAdmin), saleHandler.DeleteBefore)
}

// RequestLogger una línea estructurada por request.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError || err != nil {
			ev = log.Error().Err(err)
			if detail, ok := c.Locals(localsErrorDetail).(string); ok {
				ev = ev.Str("error_detail", detail)
			}
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("tenant_id", GetTenantID(c)).
			Msg("request")
		return err
	}
}
