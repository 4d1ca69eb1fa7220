package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo agregados sobre los productos en memoria.
type StatsRepo struct {
	b binding
}

func (r *StatsRepo) ProductStats(_ context.Context, companyID string, lowStockThreshold int64) (repository.ProductStats, error) {
	out := repository.ProductStats{StockValue: decimal.Zero}
	r.b.r.read(func(d *data) {
		for _, p := range d.products {
			if p.CompanyID != companyID {
				continue
			}
			out.TotalProducts++
			out.TotalStock += p.WarehouseStock
			if p.WarehouseStock < lowStockThreshold {
				out.LowStockCount++
			}
			out.StockValue = out.StockValue.Add(p.StockValue())
		}
	})
	return out, nil
}
