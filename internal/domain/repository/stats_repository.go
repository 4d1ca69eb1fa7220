package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProductStats agregados de catálogo y bodega de una empresa.
type ProductStats struct {
	TotalProducts int64
	TotalStock    int64           // Σ warehouse_stock
	LowStockCount int64           // productos con warehouse_stock < umbral
	StockValue    decimal.Decimal // Σ warehouse_stock × selling_price
}

// StatsRepository consultas de solo lectura para el dashboard.
type StatsRepository interface {
	// ProductStats agrega el catálogo; devuelve ceros si la empresa no tiene productos.
	ProductStats(ctx context.Context, companyID string, lowStockThreshold int64) (ProductStats, error)
}
