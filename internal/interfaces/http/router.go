package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	ProductUC   *usecase.ProductUseCase
	CategoryUC  *usecase.CategoryUseCase
	StaffUC     *usecase.StaffUseCase
	Ledger      *inventory.LedgerService
	Idempotency IdempotencyStore // nil = sin repetición de respuestas
	JWTSecret   string
	ServiceName string
	// SignupCompanyID empresa de las cuentas creadas en /api/auth/signup; vacío = registro cerrado.
	SignupCompanyID string
	// Checks dependencias consultadas por /health (BD, Redis). Una que falle responde 503.
	Checks map[string]func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps.ServiceName, deps.Checks))

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.StaffUC, deps.SignupCompanyID)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/signup", authHandler.Signup)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(entity.RoleAdmin)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleStaff)

	products := protected.Group("/products", anyRole)
	productHandler := NewProductHandler(deps.ProductUC, deps.Ledger)
	products.Get("/", productHandler.List)
	products.Get("/barcode/:barcode", productHandler.GetByBarcode)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", admin, productHandler.Create)
	products.Put("/:id", admin, productHandler.Update)
	products.Put("/:id/stock", admin, productHandler.AdjustStock)
	products.Delete("/:id", admin, productHandler.Delete)

	categories := protected.Group("/categories", anyRole)
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Get("/", categoryHandler.List)
	categories.Post("/", admin, categoryHandler.Create)
	categories.Put("/:id", admin, categoryHandler.Rename)
	categories.Delete("/:id", admin, categoryHandler.Delete)

	users := protected.Group("/users", admin)
	staffHandler := NewStaffHandler(deps.StaffUC)
	users.Get("/", staffHandler.List)
	users.Post("/", staffHandler.Create)

	ledgerGroup := protected.Group("/ledger", anyRole)
	ledgerHandler := NewLedgerHandler(deps.Ledger)
	idem := Idempotency(deps.Idempotency)
	ledgerGroup.Post("/transfers", admin, idem, ledgerHandler.Transfer)
	ledgerGroup.Post("/sales", idem, ledgerHandler.Sell)
	ledgerGroup.Post("/returns", idem, ledgerHandler.ReturnToWarehouse)
	ledgerGroup.Post("/job-returns", idem, ledgerHandler.JobReturn)
	ledgerGroup.Get("/inventory/:staffId", ledgerHandler.StaffInventory)
	ledgerGroup.Get("/history", ledgerHandler.History)
	ledgerGroup.Get("/me/stats", ledgerHandler.MyStats)

	reportHandler := NewReportHandler(deps.Ledger)
	protected.Get("/dashboard/stats", admin, reportHandler.DashboardStats)

	reports := protected.Group("/reports", admin)
	reports.Get("/stock", reportHandler.Stock)
	reports.Get("/stock.pdf", reportHandler.StockPDF)
	reports.Get("/stock.xlsx", reportHandler.StockXLSX)
	reports.Get("/transfers", reportHandler.Transfers)
	reports.Get("/returns", reportHandler.Returns)
	reports.Get("/low-stock", reportHandler.LowStock)
	reports.Get("/history.xlsx", reportHandler.HistoryXLSX)
}

func healthHandler(service string, checks map[string]func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		status, code := "ok", fiber.StatusOK
		deps := fiber.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status, code = "degraded", fiber.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		return c.Status(code).JSON(fiber.Map{"status": status, "service": service, "dependencies": deps})
	}
}
