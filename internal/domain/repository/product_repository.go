package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ProductFilter filtros de listado de productos.
type ProductFilter struct {
	CategoryID string
	Search     string // coincide por nombre o código de barras
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los Get devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea el producto hasta el fin de la transacción (SELECT ... FOR UPDATE).
	// Es el alcance de exclusión mutua por producto de las operaciones del ledger.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	GetByBarcode(ctx context.Context, companyID, barcode string) (*entity.Product, error)
	// Update modifica los datos de catálogo; nunca WarehouseStock.
	Update(ctx context.Context, product *entity.Product) error
	// SetWarehouseStock fija el contador materializado. Llamar con el producto bloqueado.
	SetWarehouseStock(ctx context.Context, id string, stock int64) error
	ListByCompany(ctx context.Context, companyID string, filter ProductFilter) ([]*entity.Product, error)
	Delete(ctx context.Context, id string) error
}
