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
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/idempotency"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// backend repositorios y runner de transacciones de un driver de almacenamiento.
type backend struct {
	tx         inventory.TxRunner
	products   repository.ProductRepository
	categories repository.CategoryRepository
	staff      repository.StaffRepository
	ping       func(ctx context.Context) error
	close      func()
}

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
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	store, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	checks := map[string]func(ctx context.Context) error{"storage": store.ping}

	var idemStore httpRouter.IdempotencyStore
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		s := idempotency.NewStore(rdb, cfg.Idempotency.TTL, cfg.Ledger.StorageTimeout*2)
		if err := s.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no responde; las claves de idempotencia devolverán 503 hasta que vuelva")
		}
		idemStore = s
		checks["redis"] = s.Ping
	} else {
		log.Info().Msg("REDIS_ADDR vacío: Idempotency-Key desactivado")
	}

	staffUC := usecase.NewStaffUseCase(store.staff, 0)
	if b := cfg.Bootstrap; b.Enabled() {
		admin, created, err := staffUC.EnsureAdmin(ctx, b.CompanyID, b.AdminName, b.AdminLogin, b.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("crear cuenta ADMIN inicial")
		}
		log.Info().Str("user_id", admin.ID).Bool("created", created).Msg("cuenta ADMIN inicial")
	}

	ledger := inventory.NewLedgerService(store.tx, log,
		inventory.WithLowStockThreshold(cfg.Ledger.LowStockThreshold),
		inventory.WithQueryTimeout(cfg.Ledger.StorageTimeout))
	authUC := auth.NewAuthUseCase(store.staff, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log))
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs (requiere swag init)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		ProductUC:   usecase.NewProductUseCase(store.products, store.categories),
		CategoryUC:  usecase.NewCategoryUseCase(store.categories),
		StaffUC:     staffUC,
		Ledger:      ledger,
		Idempotency: idemStore,
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.App.Name,
		Checks:      checks,

		SignupCompanyID: cfg.Signup.CompanyID,
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

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.App.StorageDriver == config.StorageMemory {
		s := memory.NewStore(memory.WithTimeout(cfg.Ledger.StorageTimeout))
		return &backend{
			tx:         s,
			products:   s.Products(),
			categories: s.Categories(),
			staff:      s.Staff(),
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &backend{
		tx:         postgres.NewTxRunner(pool, cfg.Ledger.StorageTimeout),
		products:   postgres.NewProductRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		staff:      postgres.NewStaffRepository(pool),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}
