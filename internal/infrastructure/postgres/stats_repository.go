package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo agregados del dashboard en una sola consulta.
type StatsRepo struct {
	q Querier
}

// NewStatsRepository pasar pool o tx.
func NewStatsRepository(q Querier) *StatsRepo {
	return &StatsRepo{q: q}
}

func (r *StatsRepo) ProductStats(ctx context.Context, companyID string, lowStockThreshold int64) (repository.ProductStats, error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(SUM(warehouse_stock), 0)::BIGINT,
		       COUNT(*) FILTER (WHERE warehouse_stock < $2),
		       COALESCE(SUM(warehouse_stock * selling_price), 0)
		FROM products
		WHERE company_id = $1`
	var out repository.ProductStats
	err := r.q.QueryRow(ctx, query, companyID, lowStockThreshold).
		Scan(&out.TotalProducts, &out.TotalStock, &out.LowStockCount, &out.StockValue)
	if err != nil {
		return repository.ProductStats{}, fmt.Errorf("product stats: %w", err)
	}
	return out, nil
}
